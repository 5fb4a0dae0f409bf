package windows

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/goregular"

	"github.com/google/go-cmp/cmp"
)

func TestCollectFonts(t *testing.T) {
	src := t.TempDir()
	dest := t.TempDir()
	if err := os.MkdirAll(filepath.Join(src, "Windows", "Fonts"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "Windows", "Fonts", "Go-Regular.TTF"), goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(src, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	fonts, err := CollectFonts(src, dest, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(fonts) != 1 {
		t.Fatalf("len(fonts) = %d, want 1", len(fonts))
	}
	if want, got := "Go", fonts[0].Family; want != got {
		t.Errorf("fonts[0].Family = %q, want %q", got, want)
	}
	if fonts[0].SHA256 == "" {
		t.Error("fonts[0].SHA256 is empty")
	}
	// copied under a lowercase, version slugged name
	if _, err := os.Stat(filepath.Join(dest, fonts[0].File)); err != nil {
		t.Errorf("collected font not in dest: %s", err)
	}
}

func TestCollectFontsExpectedFilter(t *testing.T) {
	src := t.TempDir()
	if err := os.WriteFile(filepath.Join(src, "Go-Regular.ttf"), goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}
	fonts, err := CollectFonts(src, t.TempDir(), map[string]bool{"other.ttf": true})
	if err != nil {
		t.Fatal(err)
	}
	if len(fonts) != 0 {
		t.Errorf("len(fonts) = %d, want 0 (filtered out)", len(fonts))
	}
}

func TestDedupPackagesKeepsCore(t *testing.T) {
	raw := ExtractionMap{
		"Microsoft-Windows-LanguageFeatures-Fonts-Thai-Package-amd64.cab": {
			{File: "leelawui.ttf", Family: "Leelawadee UI", Version: "Version 5.00"},
		},
		CoreESDName: {
			{File: "leelawui.ttf", Family: "Leelawadee UI", Version: "Version 5.00"},
			{File: "segoeui.ttf", Family: "Segoe UI", Version: "Version 5.62"},
		},
	}
	order := []string{
		"Microsoft-Windows-LanguageFeatures-Fonts-Thai-Package-amd64.cab",
		CoreESDName,
	}
	deduped, duplicates := DedupPackages(raw, order)

	if len(duplicates) != 1 {
		t.Fatalf("len(duplicates) = %d, want 1", len(duplicates))
	}
	if want, got := "core", duplicates[0].KeptIn; want != got {
		t.Errorf("duplicates[0].KeptIn = %q, want %q", got, want)
	}
	if diff := cmp.Diff([]string{"Thai", "core"}, duplicates[0].Packages); diff != "" {
		t.Errorf("duplicates[0].Packages mismatch (-want +got):\n%s", diff)
	}
	if len(deduped[CoreESDName]) != 2 {
		t.Errorf("core has %d fonts, want 2", len(deduped[CoreESDName]))
	}
	if len(deduped["Microsoft-Windows-LanguageFeatures-Fonts-Thai-Package-amd64.cab"]) != 0 {
		t.Error("duplicate not removed from Thai package")
	}
}

func TestDedupPackagesFirstPackageWins(t *testing.T) {
	raw := ExtractionMap{
		"a.cab": {{File: "f.ttf", Family: "F"}},
		"b.cab": {{File: "f.ttf", Family: "F"}},
	}
	deduped, duplicates := DedupPackages(raw, []string{"a.cab", "b.cab"})
	if len(duplicates) != 1 {
		t.Fatalf("len(duplicates) = %d, want 1", len(duplicates))
	}
	if len(deduped["a.cab"]) != 1 || len(deduped["b.cab"]) != 0 {
		t.Errorf("file not kept in first package: a=%d b=%d", len(deduped["a.cab"]), len(deduped["b.cab"]))
	}
}

func TestCrossPackageFamilies(t *testing.T) {
	deduped := ExtractionMap{
		"Microsoft-Windows-LanguageFeatures-Fonts-Thai-Package-amd64.cab": {
			{File: "leelaw500.ttf", Family: "Leelawadee UI", Version: "Version 5.00"},
		},
		CoreESDName: {
			{File: "leelaw562.ttf", Family: "Leelawadee UI", Version: "Version 5.62"},
			{File: "segoeui.ttf", Family: "Segoe UI", Version: "Version 5.62"},
		},
	}
	crossPkg := CrossPackageFamilies(deduped)
	if len(crossPkg) != 1 {
		t.Fatalf("len(crossPkg) = %d, want 1", len(crossPkg))
	}
	entries, ok := crossPkg["Leelawadee UI"]
	if !ok {
		t.Fatal("Leelawadee UI not reported as cross package family")
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d, want 2", len(entries))
	}
}
