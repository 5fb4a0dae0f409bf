package merge

import (
	"encoding/json"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fontpipe/fontpipe/fontscan"
)

// SourceRef records where a merged entry came from and, when the family
// clashed, the per-source file and version table.
type SourceRef struct {
	WasClashed bool                   `yaml:"was_clashed" json:"was_clashed"`
	From       string                 `yaml:"from" json:"from"`
	Original   string                 `yaml:"original" json:"original"`
	Clashed    map[string]ClashedFile `yaml:"clashed,omitempty" json:"clashed,omitempty"`
}

// ClashedFile is one source's contribution to a clash.
type ClashedFile struct {
	File    string `yaml:"file" json:"file"`
	Version string `yaml:"version" json:"version"`
}

// FamilyEntry is one font of a family in the merged directory.
type FamilyEntry struct {
	Subfamily string    `yaml:"subfamily" json:"subfamily"`
	File      string    `yaml:"file" json:"file"`
	Version   string    `yaml:"version" json:"version"`
	Source    SourceRef `yaml:"source" json:"source"`
}

// FontsData is source -> locale -> family -> entries.
type FontsData map[string]map[string]map[string][]FamilyEntry

type clashInfo struct {
	winner        string
	mergedFile    string
	winnerVersion string
	clashed       map[string]ClashedFile
}

// buildClashLookup resolves every clash to its winner and the merged file
// name the winning font ended up with.
func buildClashLookup(order []string, clashes map[string]Clash, result *Result) map[[2]string]clashInfo {
	lookup := make(map[[2]string]clashInfo)
	for fam, info := range clashes {
		for sub, bySource := range info.Subfamilies {
			winner, winnerVersion := pickWinner(order, bySource)
			winningFile := bySource[winner][0].File

			clashed := make(map[string]ClashedFile, len(bySource))
			for src, entries := range bySource {
				clashed[src] = ClashedFile{
					File:    entries[0].File,
					Version: entries[0].Version,
				}
			}
			lookup[[2]string{fam, sub}] = clashInfo{
				winner:        winner,
				mergedFile:    result.MergedFileName(winner, winningFile),
				winnerVersion: winnerVersion,
				clashed:       clashed,
			}
		}
	}
	return lookup
}

// BuildFontsData assembles the full merge report. localeMaps is
// source -> locale -> family -> entries as scanned from the source dirs.
func BuildFontsData(order []string, localeMaps map[string]map[string]fontscan.FamilyMap, clashes map[string]Clash, result *Result) FontsData {
	lookup := buildClashLookup(order, clashes, result)

	data := make(FontsData, len(localeMaps))
	for _, srcName := range order {
		localeMap, ok := localeMaps[srcName]
		if !ok {
			continue
		}
		srcData := make(map[string]map[string][]FamilyEntry, len(localeMap))
		for locale, families := range localeMap {
			localeData := make(map[string][]FamilyEntry, len(families))
			for _, fam := range fontscan.FamilyNames(families) {
				var famEntries []FamilyEntry
				for _, e := range families[fam] {
					sub := subfamilyOr(e.Subfamily)
					if clash, clashed := lookup[[2]string{fam, sub}]; clashed {
						famEntries = append(famEntries, FamilyEntry{
							Subfamily: sub,
							File:      clash.mergedFile,
							Version:   clash.winnerVersion,
							Source: SourceRef{
								WasClashed: true,
								From:       clash.winner,
								Original:   e.File,
								Clashed:    clash.clashed,
							},
						})
						continue
					}
					famEntries = append(famEntries, FamilyEntry{
						Subfamily: sub,
						File:      result.MergedFileName(srcName, e.File),
						Version:   e.Version,
						Source: SourceRef{
							WasClashed: false,
							From:       srcName,
							Original:   e.File,
						},
					})
				}
				localeData[fam] = famEntries
			}
			srcData[locale] = localeData
		}
		data[srcName] = srcData
	}
	return data
}

// FamilyNamesData reduces FontsData to source -> locale -> sorted family
// names.
func FamilyNamesData(data FontsData) map[string]map[string][]string {
	out := make(map[string]map[string][]string, len(data))
	for src, locales := range data {
		out[src] = make(map[string][]string, len(locales))
		for locale, families := range locales {
			names := make([]string, 0, len(families))
			for fam := range families {
				names = append(names, fam)
			}
			sort.Strings(names)
			out[src][locale] = names
		}
	}
	return out
}

// RunHeader identifies one merge run.
type RunHeader struct {
	ID        string    `yaml:"id"`
	Timestamp time.Time `yaml:"timestamp"`
}

type fontsReport struct {
	Run     RunHeader `yaml:"run"`
	Sources FontsData `yaml:",inline"`
}

// WriteFontsYAML writes the merge report as YAML, headed by the run ID and
// timestamp.
func WriteFontsYAML(path string, data FontsData, run RunHeader) error {
	encoded, err := yaml.Marshal(fontsReport{Run: run, Sources: data})
	if err != nil {
		return err
	}
	return os.WriteFile(path, encoded, 0644)
}

// WriteFamiliesJSON writes the family name listing, indented to path and
// compact to minPath.
func WriteFamiliesJSON(path, minPath string, families map[string]map[string][]string) error {
	indented, err := json.MarshalIndent(families, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, append(indented, '\n'), 0644); err != nil {
		return err
	}
	compact, err := json.Marshal(families)
	if err != nil {
		return err
	}
	return os.WriteFile(minPath, compact, 0644)
}
