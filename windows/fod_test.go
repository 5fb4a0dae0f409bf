package windows

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func writeFODWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	wb := excelize.NewFile()
	sheet := wb.GetSheetName(0)
	header := []interface{}{"FOD Package", "Source", "Target Locale", "Language Group", "FOD Area", "Trigger"}
	if err := wb.SetSheetRow(sheet, "A1", &header); err != nil {
		t.Fatal(err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			t.Fatal(err)
		}
		if err := wb.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	fn := filepath.Join(t.TempDir(), "fod.xlsx")
	if err := wb.SaveAs(fn); err != nil {
		t.Fatal(err)
	}
	return fn
}

func TestCanonicalLocale(t *testing.T) {
	testdata := []struct {
		input string
		want  string
	}{
		{"iw", "he"},
		{"TH-th", "th-TH"},
		{"sr-latn-rs", "sr-Latn-RS"},
		{"ja-JP", "ja-JP"},
		{"??", "??"},
	}
	for _, td := range testdata {
		if got := canonicalLocale(td.input); got != td.want {
			t.Errorf("canonicalLocale(%q) = %q, want %q", td.input, got, td.want)
		}
	}
}

func TestParseFODMappingCanonicalizesLocales(t *testing.T) {
	fn := writeFODWorkbook(t, [][]interface{}{
		{"Microsoft-Windows-LanguageFeatures-Fonts-Hebr-Package-amd64.cab", "FOD", "iw", "he", "Fonts", "language"},
		{"Microsoft-Windows-LanguageFeatures-Fonts-Arab-Package-amd64.cab", "FOD", "??", "", "Fonts", "language"},
	})
	mapping, err := ParseFODMapping(fn)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{
		"Microsoft-Windows-LanguageFeatures-Fonts-Hebr-Package": {"he"},
		// unparseable codes pass through verbatim
		"Microsoft-Windows-LanguageFeatures-Fonts-Arab-Package": {"??"},
	}
	if diff := cmp.Diff(want, mapping); diff != "" {
		t.Errorf("ParseFODMapping() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseFODMapping(t *testing.T) {
	fn := writeFODWorkbook(t, [][]interface{}{
		{"Microsoft-Windows-LanguageFeatures-Fonts-Thai-Package-amd64.cab", "FOD", "th-TH", "th", "Fonts", "language"},
		{"Microsoft-Windows-LanguageFeatures-Fonts-Thai-Package-arm64.cab", "FOD", "th-TH", "th", "Fonts", "language"},
		{"Microsoft-Windows-LanguageFeatures-Fonts-Jpan-Package-amd64.cab", "FOD", "ja-JP", "ja", "Fonts", "language"},
		{"Microsoft-Windows-LanguageFeatures-Handwriting-th-th-Package-amd64.cab", "FOD", "th-TH", "th", "Handwriting", "language"},
		{"Microsoft-Windows-LanguageFeatures-Fonts-PanEuropeanSupplementalFonts-LeanDesktop-Package-amd64.cab", "FOD", "de-DE", "de", "Fonts", "language"},
		{"Microsoft-Windows-LanguageFeatures-Fonts-Beng-Package-amd64.cab", "FOD", "n/a", "", "Fonts", "language"},
	})

	mapping, err := ParseFODMapping(fn)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{
		"Microsoft-Windows-LanguageFeatures-Fonts-Thai-Package": {"th-TH"},
		"Microsoft-Windows-LanguageFeatures-Fonts-Jpan-Package": {"ja-JP"},
	}
	if diff := cmp.Diff(want, mapping); diff != "" {
		t.Errorf("ParseFODMapping() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverrides(t *testing.T) {
	fn := filepath.Join(t.TempDir(), "override.yml")
	content := "Microsoft-Windows-LanguageFeatures-Fonts-Cans-Package-amd64.cab:\n  - cr\n  - iu\n"
	if err := os.WriteFile(fn, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	overrides, err := LoadOverrides(fn)
	if err != nil {
		t.Fatal(err)
	}
	want := map[string][]string{
		"Microsoft-Windows-LanguageFeatures-Fonts-Cans-Package": {"cr", "iu"},
	}
	if diff := cmp.Diff(want, overrides); diff != "" {
		t.Errorf("LoadOverrides() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadOverridesMissing(t *testing.T) {
	overrides, err := LoadOverrides(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if overrides != nil {
		t.Errorf("overrides = %v, want nil", overrides)
	}
}

func TestBuildLocales(t *testing.T) {
	extraction := ExtractionMap{
		CoreESDName: {
			{File: "segoeui.ttf", Family: "Segoe UI"},
		},
		"Microsoft-Windows-LanguageFeatures-Fonts-Thai-Package-amd64.cab": {
			{File: "leelawui.ttf", Family: "Leelawadee UI"},
			{File: "everywhere.ttf", Family: "Everywhere Sans"},
		},
		"Microsoft-Windows-LanguageFeatures-Fonts-Jpan-Package-amd64.cab": {
			{File: "yugothm.ttc", Family: "Yu Gothic"},
			{File: "everywhere.ttf", Family: "Everywhere Sans"},
		},
	}
	fodMapping := map[string][]string{
		"Microsoft-Windows-LanguageFeatures-Fonts-Thai-Package": {"th-TH"},
		"Microsoft-Windows-LanguageFeatures-Fonts-Jpan-Package": {"ja-JP"},
	}

	locales := BuildLocales(extraction, fodMapping)
	want := map[string][]string{
		// Everywhere Sans is in every locale package, so it joins core
		"core":  {"Everywhere Sans", "Segoe UI"},
		"th-TH": {"Leelawadee UI"},
		"ja-JP": {"Yu Gothic"},
	}
	if diff := cmp.Diff(want, locales); diff != "" {
		t.Errorf("BuildLocales() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildLocalesUnmappedPackageDropped(t *testing.T) {
	extraction := ExtractionMap{
		CoreESDName: {{File: "a.ttf", Family: "A"}},
		"Microsoft-Windows-LanguageFeatures-Fonts-Unknown-Package-amd64.cab": {
			{File: "u.ttf", Family: "U"},
		},
	}
	locales := BuildLocales(extraction, map[string][]string{})
	if len(locales) != 1 {
		t.Errorf("len(locales) = %d, want only core", len(locales))
	}
}
