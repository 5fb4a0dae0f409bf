package merge

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fontpipe/fontpipe/base"
	"github.com/fontpipe/fontpipe/fontscan"
	"github.com/fontpipe/fontpipe/ftconfig"
)

// Run merges all sources configured in baseDir/sources.yml into
// baseDir/merged and writes fonts.yml, families.json and families.min.json
// next to it. Relative paths in sources.yml are resolved against baseDir.
func Run(baseDir string) error {
	sources, err := LoadSources(filepath.Join(baseDir, "sources.yml"))
	if err != nil {
		return err
	}

	allFamilies := make(map[string]fontscan.FamilyMap, len(sources))
	localeMaps := make(map[string]map[string]fontscan.FamilyMap, len(sources))

	for i := range sources {
		src := &sources[i]
		src.Dir = resolvePath(baseDir, src.Dir)

		families, err := fontscan.ScanDir(src.Dir)
		if err != nil {
			return fmt.Errorf("[%s] scan %s: %w", src.Name, src.Dir, err)
		}
		if len(families) == 0 {
			return fmt.Errorf("[%s] %s: %w", src.Name, src.Dir, fontscan.ErrNoFonts)
		}
		allFamilies[src.Name] = families

		if src.Locales == "" {
			localeMaps[src.Name] = map[string]fontscan.FamilyMap{"core": families}
			entries := 0
			for _, es := range families {
				entries += len(es)
			}
			base.Logger.Infof("[%s] %d families, %d entries", src.Name, len(families), entries)
			continue
		}

		localeNames, err := LoadLocaleNames(resolvePath(baseDir, src.Locales))
		if err != nil {
			return fmt.Errorf("[%s] locales: %w", src.Name, err)
		}
		localeMap := make(map[string]fontscan.FamilyMap, len(localeNames))
		for locale, famNames := range localeNames {
			m := fontscan.FamilyMap{}
			for _, fam := range famNames {
				if entries, ok := families[fam]; ok {
					m[fam] = entries
				}
			}
			localeMap[locale] = m
		}
		localeMaps[src.Name] = localeMap
		base.Logger.Infof("[%s] %d families, %d locales", src.Name, len(families), countLocales(localeMap))
	}

	var clashes map[string]Clash
	if len(sources) >= 2 {
		clashes = BuildClashReport(sourceNames(sources), allFamilies)
	}
	if len(clashes) > 0 {
		base.Logger.Infof("clashing families: %d", len(clashes))
	}

	mergedDir := filepath.Join(baseDir, "merged")
	result, err := BuildMerged(sources, allFamilies, clashes, mergedDir)
	if err != nil {
		return err
	}
	base.Logger.Infof("merge run %s", result.RunID)
	for _, w := range result.Winners {
		var versions []string
		for _, src := range sourceNames(sources) {
			if v, ok := w.Versions[src]; ok {
				versions = append(versions, src+"="+v)
			}
		}
		base.Logger.Infof("  %s / %s: %s wins (%s)", w.Family, w.Subfamily, w.Winner, strings.Join(versions, ", "))
	}

	fontsData := BuildFontsData(sourceNames(sources), localeMaps, clashes, result)
	run := RunHeader{ID: result.RunID, Timestamp: result.Timestamp}
	if err := WriteFontsYAML(filepath.Join(baseDir, "fonts.yml"), fontsData, run); err != nil {
		return err
	}
	families := FamilyNamesData(fontsData)
	err = WriteFamiliesJSON(
		filepath.Join(baseDir, "families.json"),
		filepath.Join(baseDir, "families.min.json"),
		families,
	)
	if err != nil {
		return err
	}

	if err := ftconfig.Write(filepath.Join(baseDir, "ftconfig")); err != nil {
		return err
	}

	base.Logger.Infof("merged directory: %s (%d files)", mergedDir, len(result.UsedNames))
	return nil
}

// countLocales counts the locale keys besides "core".
func countLocales(localeMap map[string]fontscan.FamilyMap) int {
	n := 0
	for locale := range localeMap {
		if locale != "core" {
			n++
		}
	}
	return n
}

func resolvePath(baseDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}
