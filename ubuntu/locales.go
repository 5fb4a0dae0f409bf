// Package ubuntu maps the Ubuntu font tree to BCP 47 locales. Font package
// subdirectories under truetype/ and opentype/ are either locale specific
// (listed in the table below) or part of the core set.
package ubuntu

import (
	"encoding/json"
	"os"
	"sort"
	"strings"

	"github.com/fontpipe/fontpipe/base"
	"github.com/fontpipe/fontpipe/fontscan"
)

// dirLocales maps font subdirectory names to the locales they serve.
var dirLocales = map[string][]string{
	"abyssinica":            {"am"},
	"annapurna":             {"hi", "ne"},
	"fonts-beng-extra":      {"bn"},
	"fonts-deva-extra":      {"hi"},
	"fonts-gujr-extra":      {"gu"},
	"fonts-guru-extra":      {"pa"},
	"fonts-kalapi":          {"gu"},
	"fonts-orya-extra":      {"or"},
	"fonts-telu-extra":      {"te"},
	"fonts-yrsa-rasa":       {"gu"},
	"Gargi":                 {"hi"},
	"Gubbi":                 {"kn"},
	"kacst":                 {"ar"},
	"kacst-one":             {"ar"},
	"lao":                   {"lo"},
	"lohit-assamese":        {"as"},
	"lohit-bengali":         {"bn"},
	"lohit-devanagari":      {"hi"},
	"lohit-gujarati":        {"gu"},
	"lohit-kannada":         {"kn"},
	"lohit-malayalam":       {"ml"},
	"lohit-oriya":           {"or"},
	"lohit-punjabi":         {"pa"},
	"lohit-tamil":           {"ta"},
	"lohit-tamil-classical": {"ta"},
	"lohit-telugu":          {"te"},
	"malayalam":             {"ml"},
	"Nakula":                {"hi"},
	"Navilu":                {"kn"},
	"padauk":                {"my"},
	"pagul":                 {"hi"},
	"Sahadeva":              {"hi"},
	"samyak":                {"hi"},
	"samyak-fonts":          {"gu", "ml", "ta"},
	"Sarai":                 {"hi"},
	"sinhala":               {"si"},
	"teluguvijayam":         {"te"},
	"tlwg":                  {"th"},
	"ttf-khmeros":           {"km"},
	"ttf-khmeros-core":      {"km"},
}

// FontSubdir returns the font package subdirectory of a relative path like
// truetype/dejavu/DejaVuSans.ttf, or "" when the path does not follow the
// truetype/opentype layout.
func FontSubdir(relPath string) string {
	parts := strings.Split(relPath, "/")
	if len(parts) >= 2 && (parts[0] == "truetype" || parts[0] == "opentype") {
		return parts[1]
	}
	return ""
}

// BuildLocales assigns every family to the locales of its subdirectory, or
// to core when the subdirectory is not in the table. Families outside the
// truetype/opentype layout are skipped with a warning.
func BuildLocales(families fontscan.FamilyMap) map[string][]string {
	locales := map[string][]string{"core": {}}

	for _, fam := range fontscan.FamilyNames(families) {
		entries := families[fam]
		subdir := FontSubdir(entries[0].File)
		if subdir == "" {
			base.Logger.Warnf("no font subdirectory for %q (%s)", fam, entries[0].File)
			continue
		}
		codes, ok := dirLocales[subdir]
		if !ok {
			locales["core"] = append(locales["core"], fam)
			continue
		}
		for _, code := range codes {
			locales[code] = append(locales[code], fam)
		}
	}

	for code := range locales {
		sort.Strings(locales[code])
	}
	return locales
}

// WriteLocales scans fontDir and writes the locale mapping as indented JSON
// to outPath.
func WriteLocales(fontDir, outPath string) error {
	families, err := fontscan.ScanDir(fontDir)
	if err != nil {
		return err
	}
	if len(families) == 0 {
		return fontscan.ErrNoFonts
	}
	base.Logger.Infof("%d families in %s", len(families), fontDir)

	locales := BuildLocales(families)
	data, err := json.MarshalIndent(locales, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(outPath, append(data, '\n'), 0644); err != nil {
		return err
	}

	base.Logger.Infof("locales written to %s", outPath)
	base.Logger.Infof("  core: %d families", len(locales["core"]))
	var codes []string
	for code := range locales {
		if code != "core" {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	for _, code := range codes {
		base.Logger.Infof("  %s: %d families", code, len(locales[code]))
	}
	return nil
}
