package merge

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/fontpipe/fontpipe/fontscan"
)

func writeFont(t *testing.T, dir, name string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildMergedTieFirstSourceWins(t *testing.T) {
	base := t.TempDir()
	dirA := filepath.Join(base, "a")
	dirB := filepath.Join(base, "b")
	writeFont(t, dirA, "goregular.ttf")
	writeFont(t, dirB, "go-regular.ttf")

	famA, err := fontscan.ScanDir(dirA)
	if err != nil {
		t.Fatal(err)
	}
	famB, err := fontscan.ScanDir(dirB)
	if err != nil {
		t.Fatal(err)
	}
	sources := []Source{
		{Name: "first", Dir: dirA},
		{Name: "second", Dir: dirB},
	}
	all := map[string]fontscan.FamilyMap{"first": famA, "second": famB}

	clashes := BuildClashReport(sourceNames(sources), all)
	if len(clashes) != 1 {
		t.Fatalf("got %d clashes, want 1", len(clashes))
	}

	mergedDir := filepath.Join(base, "merged")
	result, err := BuildMerged(sources, all, clashes, mergedDir)
	if err != nil {
		t.Fatal(err)
	}

	if got := result.Stats["first"]; got.Copied != 1 || got.Skipped != 0 {
		t.Errorf("first stats = %+v, want 1 copied, 0 skipped", got)
	}
	if got := result.Stats["second"]; got.Copied != 0 || got.Skipped != 1 {
		t.Errorf("second stats = %+v, want 0 copied, 1 skipped", got)
	}
	if len(result.Winners) != 1 || result.Winners[0].Winner != "first" {
		t.Fatalf("winners = %+v, want single win for first", result.Winners)
	}
	if result.RunID == "" {
		t.Error("empty run ID")
	}

	files, err := os.ReadDir(mergedDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 {
		t.Fatalf("merged dir has %d files, want 1", len(files))
	}
	if name := result.MergedFileName("first", "goregular.ttf"); name != files[0].Name() {
		t.Errorf("MergedFileName() = %q, merged dir has %q", name, files[0].Name())
	}
	// the skipped file keeps its original path as fallback
	if name := result.MergedFileName("second", "go-regular.ttf"); name != "go-regular.ttf" {
		t.Errorf("MergedFileName() for skipped file = %q, want original path", name)
	}
}

func TestBuildMergedNoClash(t *testing.T) {
	base := t.TempDir()
	dirA := filepath.Join(base, "a")
	writeFont(t, dirA, "goregular.ttf")

	famA, err := fontscan.ScanDir(dirA)
	if err != nil {
		t.Fatal(err)
	}
	sources := []Source{{Name: "only", Dir: dirA}}
	all := map[string]fontscan.FamilyMap{"only": famA}

	result, err := BuildMerged(sources, all, nil, filepath.Join(base, "merged"))
	if err != nil {
		t.Fatal(err)
	}
	if got := result.Stats["only"]; got.Copied != 1 || got.Skipped != 0 {
		t.Errorf("stats = %+v, want 1 copied, 0 skipped", got)
	}
	if len(result.Winners) != 0 {
		t.Errorf("winners = %+v, want none", result.Winners)
	}
}

func TestCountLocales(t *testing.T) {
	testdata := []struct {
		localeMap map[string]fontscan.FamilyMap
		want      int
	}{
		{map[string]fontscan.FamilyMap{"core": {}, "th": {}, "ja": {}}, 2},
		{map[string]fontscan.FamilyMap{"th": {}}, 1},
		{map[string]fontscan.FamilyMap{}, 0},
	}
	for _, td := range testdata {
		if got := countLocales(td.localeMap); got != td.want {
			t.Errorf("countLocales(%v) = %d, want %d", td.localeMap, got, td.want)
		}
	}
}

func TestResolveCollision(t *testing.T) {
	used := map[string]string{
		"Arial-Regular-v7_00.ttf":   "x",
		"Arial-Regular-v7_00-2.ttf": "y",
	}
	if got := resolveCollision("Arial-Regular-v7_00.ttf", used); got != "Arial-Regular-v7_00-3.ttf" {
		t.Errorf("resolveCollision() = %q, want -3 suffix", got)
	}
	if got := resolveCollision("Fresh.ttf", used); got != "Fresh.ttf" {
		t.Errorf("resolveCollision() = %q, want unchanged", got)
	}
}
