package merge

import (
	"sort"

	"github.com/fontpipe/fontpipe/fontscan"
)

// ClashEntry is one occurrence of a clashing (family, subfamily) in a
// source, annotated with the other fonts the same file contains.
type ClashEntry struct {
	File         string           `yaml:"file"`
	Subfamily    string           `yaml:"subfamily,omitempty"`
	Version      string           `yaml:"version,omitempty"`
	AlsoContains []fontscan.Entry `yaml:"also_contains,omitempty"`
}

// Clash describes a family found in two or more sources, grouped by
// subfamily and source.
type Clash struct {
	// Subfamilies maps subfamily -> source -> entries.
	Subfamilies map[string]map[string][]ClashEntry `yaml:"subfamilies"`
}

// subfamilyOr returns the subfamily or "Regular" when unset.
func subfamilyOr(s string) string {
	if s == "" {
		return "Regular"
	}
	return s
}

// BuildClashReport finds families present in at least two sources and
// groups their entries by subfamily. Subfamilies present in only one source
// do not clash and are left out.
func BuildClashReport(order []string, all map[string]fontscan.FamilyMap) map[string]Clash {
	fileIndexes := make(map[string]fontscan.FileIndex, len(all))
	for name, fams := range all {
		fileIndexes[name] = fontscan.BuildFileIndex(fams)
	}

	familySources := make(map[string][]string)
	for _, name := range order {
		for fam := range all[name] {
			familySources[fam] = append(familySources[fam], name)
		}
	}

	clashes := make(map[string]Clash)
	for fam, sources := range familySources {
		if len(sources) < 2 {
			continue
		}

		subBySource := make(map[string]map[string][]fontscan.Entry)
		allSubs := make(map[string]bool)
		for _, src := range sources {
			subBySource[src] = make(map[string][]fontscan.Entry)
			for _, e := range all[src][fam] {
				sub := subfamilyOr(e.Subfamily)
				subBySource[src][sub] = append(subBySource[src][sub], e)
				allSubs[sub] = true
			}
		}

		subfamilies := make(map[string]map[string][]ClashEntry)
		for sub := range allSubs {
			presentIn := make(map[string][]fontscan.Entry)
			for _, src := range sources {
				if entries, ok := subBySource[src][sub]; ok {
					presentIn[src] = entries
				}
			}
			if len(presentIn) < 2 {
				continue
			}

			annotated := make(map[string][]ClashEntry)
			for src, entries := range presentIn {
				for _, e := range entries {
					ce := ClashEntry{
						File:      e.File,
						Subfamily: e.Subfamily,
						Version:   e.Version,
					}
					for _, other := range fileIndexes[src][e.File] {
						if other.Family == fam && other.Subfamily == e.Subfamily {
							continue
						}
						other.File = ""
						ce.AlsoContains = append(ce.AlsoContains, other)
					}
					annotated[src] = append(annotated[src], ce)
				}
				sort.Slice(annotated[src], func(i, j int) bool {
					return annotated[src][i].File < annotated[src][j].File
				})
			}
			subfamilies[sub] = annotated
		}

		if len(subfamilies) > 0 {
			clashes[fam] = Clash{Subfamilies: subfamilies}
		}
	}
	return clashes
}

// pickWinner returns the source with the highest version among the clashing
// entries. Ties go to the source listed first in the configured order.
func pickWinner(order []string, bySource map[string][]ClashEntry) (string, string) {
	winner := ""
	var best fontscan.Version
	for _, src := range order {
		entries, ok := bySource[src]
		if !ok || len(entries) == 0 {
			continue
		}
		v := fontscan.ParseVersion(entries[0].Version)
		if winner == "" || v.Compare(best) > 0 {
			winner = src
			best = v
		}
	}
	if winner == "" {
		return "", ""
	}
	return winner, bySource[winner][0].Version
}
