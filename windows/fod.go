package windows

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fontpipe/fontpipe/base"
)

// FODMappingURL is the Microsoft "Features on Demand to language pack"
// mapping spreadsheet.
const FODMappingURL = "https://download.microsoft.com/download/7/6/0/7600F9DC-C296-4CF8-B92A-2D85BAFBD5D2/Windows-10-1809-FOD-to-LP-Mapping-Table.xlsx"

// canonicalLocale normalizes a locale code to its BCP 47 canonical form.
// Codes that do not parse pass through unchanged.
func canonicalLocale(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		base.Logger.Debugf("locale %q does not parse: %s", code, err)
		return code
	}
	return tag.String()
}

// ParseFODMapping reads the FOD spreadsheet and returns normalized CAB name
// -> sorted locale codes for the rows whose FOD area is "Fonts". Rows
// without a usable locale and LeanDesktop packages are skipped.
func ParseFODMapping(path string) (map[string][]string, error) {
	wb, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open FOD mapping: %w", err)
	}
	defer wb.Close()

	rows, err := wb.GetRows(wb.GetSheetName(0))
	if err != nil {
		return nil, err
	}

	// columns: CAB name, source, target locale, language group, FOD area, trigger
	locales := make(map[string]map[string]bool)
	for i, row := range rows {
		if i == 0 || len(row) < 5 {
			continue
		}
		cabName, targetLocale, fodArea := row[0], row[2], row[4]
		if fodArea != "Fonts" {
			continue
		}
		if cabName == "" || targetLocale == "" || targetLocale == "n/a" {
			continue
		}
		if strings.Contains(cabName, "LeanDesktop") {
			continue
		}
		key := NormalizeCabName(cabName)
		if locales[key] == nil {
			locales[key] = make(map[string]bool)
		}
		locales[key][canonicalLocale(targetLocale)] = true
	}

	mapping := make(map[string][]string, len(locales))
	for key, set := range locales {
		mapping[key] = sortedKeys(set)
	}
	return mapping, nil
}

// LoadOverrides reads locale override mappings from a YAML file. The keys
// are normalized like CAB names. A missing file is not an error.
func LoadOverrides(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var raw map[string][]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse overrides: %w", err)
	}
	overrides := make(map[string][]string, len(raw))
	for key, codes := range raw {
		overrides[NormalizeCabName(key)] = codes
	}
	return overrides, nil
}

// BuildLocales builds the locale -> family names mapping from a
// deduplicated extraction map and the FOD locale mapping. Core families
// come from the core ESD package; families present in every locale's
// package set are promoted into core as well. Per locale lists have the
// core set subtracted and are sorted; empty lists are dropped.
func BuildLocales(extraction ExtractionMap, fodMapping map[string][]string) map[string][]string {
	core := make(map[string]bool)
	for _, info := range extraction[CoreESDName] {
		if info.Family != "" {
			core[info.Family] = true
		}
	}

	localeFamilies := make(map[string]map[string]bool)
	for pkg, infos := range extraction {
		if pkg == CoreESDName {
			continue
		}
		codes := fodMapping[NormalizeCabName(pkg)]
		if len(codes) == 0 {
			base.Logger.Warnf("no locale mapping for package %s", pkg)
			continue
		}
		pkgFamilies := make(map[string]bool)
		for _, info := range infos {
			if info.Family != "" {
				pkgFamilies[info.Family] = true
			}
		}
		for _, code := range codes {
			if localeFamilies[code] == nil {
				localeFamilies[code] = make(map[string]bool)
			}
			for fam := range pkgFamilies {
				localeFamilies[code][fam] = true
			}
		}
	}

	// families carried by every locale belong to the core set
	if len(localeFamilies) > 0 {
		counts := make(map[string]int)
		for _, fams := range localeFamilies {
			for fam := range fams {
				counts[fam]++
			}
		}
		for fam, n := range counts {
			if n == len(localeFamilies) {
				core[fam] = true
			}
		}
	}

	result := map[string][]string{"core": sortedKeys(core)}
	for code, fams := range localeFamilies {
		var specific []string
		for fam := range fams {
			if !core[fam] {
				specific = append(specific, fam)
			}
		}
		if len(specific) == 0 {
			continue
		}
		sort.Strings(specific)
		result[code] = specific
	}
	return result
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
