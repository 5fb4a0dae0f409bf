package fontscan

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	nonAlnumRE    = regexp.MustCompile(`[^a-zA-Z0-9]`)
	nonVersionRE  = regexp.MustCompile(`[^a-zA-Z0-9.]`)
	maxJoinedLen  = 80
	maxMergedName = 200
)

func clean(s string) string {
	return nonAlnumRE.ReplaceAllString(s, "")
}

func cleanStem(relPath string) string {
	stem := strings.TrimSuffix(path.Base(relPath), path.Ext(relPath))
	if c := clean(stem); c != "" {
		return c
	}
	return "font"
}

// MergedName generates a clean alphanumeric output file name for a font
// file from its metadata: Family-Subfamily-vX_Y.ext for single family
// files, joined family names for collections. Fonts without any ASCII
// family name fall back to the cleaned original stem.
func MergedName(relPath string, index FileIndex) string {
	entries := index[relPath]
	ext := strings.ToLower(path.Ext(relPath))

	if len(entries) == 0 {
		return cleanStem(relPath) + ext
	}

	type key struct{ family, subfamily string }
	seen := make(map[key]bool)
	var unique []Entry
	for _, e := range entries {
		k := key{e.Family, e.Subfamily}
		if seen[k] {
			continue
		}
		seen[k] = true
		unique = append(unique, e)
	}
	sort.Slice(unique, func(i, j int) bool {
		if unique[i].Family != unique[j].Family {
			return unique[i].Family < unique[j].Family
		}
		return unique[i].Subfamily < unique[j].Subfamily
	})

	// family names cleaned to ASCII alphanumerics, order preserving dedup
	var families []string
	seenFam := make(map[string]bool)
	for _, e := range unique {
		f := clean(e.Family)
		if f == "" || seenFam[f] {
			continue
		}
		seenFam[f] = true
		families = append(families, f)
	}

	// version: drop prefix and build metadata after the first semicolon
	ver := versionPrefixRE.ReplaceAllString(unique[0].Version, "")
	ver, _, _ = strings.Cut(ver, ";")
	ver = strings.ReplaceAll(nonVersionRE.ReplaceAllString(ver, ""), ".", "_")

	var name string
	switch {
	case len(families) == 1:
		name = families[0]
		if sub := clean(unique[0].Subfamily); sub != "" {
			name += "-" + sub
		}
	case len(families) > 1:
		joined := strings.Join(families, "_")
		if len(joined) <= maxJoinedLen {
			name = joined
		} else if prefix := commonPrefix(families); len(prefix) >= 4 {
			name = prefix + "-x" + strconv.Itoa(len(families))
		} else {
			name = cleanStem(relPath)
		}
	default:
		name = cleanStem(relPath)
	}

	if ver != "" {
		name += "-v" + ver
	}
	if len(name) > maxMergedName {
		name = name[:maxMergedName]
	}
	return name + ext
}

func commonPrefix(names []string) string {
	prefix := names[0]
	for _, n := range names[1:] {
		for prefix != "" && !strings.HasPrefix(n, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	return prefix
}
