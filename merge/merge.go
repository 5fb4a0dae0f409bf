package merge

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fontpipe/fontpipe/base"
	"github.com/fontpipe/fontpipe/fontscan"
)

// Winner records the outcome of one (family, subfamily) clash.
type Winner struct {
	Family    string            `yaml:"family"`
	Subfamily string            `yaml:"subfamily"`
	Winner    string            `yaml:"winner"`
	Versions  map[string]string `yaml:"versions"`
}

// Stats counts the copied and skipped files of one source.
type Stats struct {
	Copied  int `yaml:"copied"`
	Skipped int `yaml:"skipped"`
}

// Result is the outcome of a merge run.
type Result struct {
	RunID     string
	Timestamp time.Time
	Winners   []Winner
	Stats     map[string]Stats
	// UsedNames maps merged file name -> "source:relative path".
	UsedNames map[string]string
	// nameMaps maps source -> relative path -> merged file name.
	nameMaps map[string]map[string]string
}

// MergedFileName returns the merged name a source file ended up with, or
// the original relative path if the file was not copied.
func (r *Result) MergedFileName(source, relPath string) string {
	if name, ok := r.nameMaps[source][relPath]; ok {
		return name
	}
	return relPath
}

// BuildMerged copies the fonts of all sources into mergedDir, skipping
// files that lost a version clash. A losing file that also serves families
// outside the clash set is kept. The merged directory is recreated from
// scratch.
func BuildMerged(sources []Source, all map[string]fontscan.FamilyMap, clashes map[string]Clash, mergedDir string) (*Result, error) {
	order := sourceNames(sources)
	fileIndexes := make(map[string]fontscan.FileIndex, len(all))
	for name, fams := range all {
		fileIndexes[name] = fontscan.BuildFileIndex(fams)
	}
	clashingFamilies := make(map[string]bool, len(clashes))
	for fam := range clashes {
		clashingFamilies[fam] = true
	}

	// winners and skip candidates per source
	skipCandidates := make(map[string]map[string]bool)
	for _, name := range order {
		skipCandidates[name] = make(map[string]bool)
	}
	var winners []Winner
	for _, fam := range sortedClashFamilies(clashes) {
		info := clashes[fam]
		for _, sub := range sortedSubfamilies(info) {
			bySource := info.Subfamilies[sub]
			winner, _ := pickWinner(order, bySource)

			versions := make(map[string]string, len(bySource))
			for src, entries := range bySource {
				versions[src] = entries[0].Version
				if src == winner {
					continue
				}
				for _, e := range entries {
					skipCandidates[src][e.File] = true
				}
			}
			winners = append(winners, Winner{
				Family:    fam,
				Subfamily: sub,
				Winner:    winner,
				Versions:  versions,
			})
		}
	}

	// a candidate that serves a family outside the clash set stays
	actualSkips := make(map[string]map[string]bool)
	for _, name := range order {
		actualSkips[name] = make(map[string]bool)
		for file := range skipCandidates[name] {
			keep := false
			for _, e := range fileIndexes[name][file] {
				if !clashingFamilies[e.Family] {
					keep = true
					break
				}
			}
			if !keep {
				actualSkips[name][file] = true
			}
		}
	}

	if err := os.RemoveAll(mergedDir); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(mergedDir, 0755); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:     uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Winners:   winners,
		Stats:     make(map[string]Stats),
		UsedNames: make(map[string]string),
		nameMaps:  make(map[string]map[string]string),
	}

	for _, src := range sources {
		result.nameMaps[src.Name] = make(map[string]string)
		stats := Stats{}

		files, err := listFontFiles(src.Dir)
		if err != nil {
			return nil, err
		}
		for _, fileKey := range files {
			if actualSkips[src.Name][fileKey] {
				stats.Skipped++
				continue
			}
			newName := fontscan.MergedName(fileKey, fileIndexes[src.Name])
			newName = resolveCollision(newName, result.UsedNames)

			result.UsedNames[newName] = src.Name + ":" + fileKey
			result.nameMaps[src.Name][fileKey] = newName

			srcPath := filepath.Join(src.Dir, filepath.FromSlash(fileKey))
			if err := copyFile(srcPath, filepath.Join(mergedDir, newName)); err != nil {
				return nil, err
			}
			stats.Copied++
		}
		result.Stats[src.Name] = stats
		base.Logger.Infof("[%s] %d copied, %d skipped", src.Name, stats.Copied, stats.Skipped)
	}
	return result, nil
}

func sourceNames(sources []Source) []string {
	names := make([]string, len(sources))
	for i, s := range sources {
		names[i] = s.Name
	}
	return names
}

func sortedClashFamilies(clashes map[string]Clash) []string {
	fams := make([]string, 0, len(clashes))
	for fam := range clashes {
		fams = append(fams, fam)
	}
	sort.Strings(fams)
	return fams
}

func sortedSubfamilies(c Clash) []string {
	subs := make([]string, 0, len(c.Subfamilies))
	for sub := range c.Subfamilies {
		subs = append(subs, sub)
	}
	sort.Strings(subs)
	return subs
}

func listFontFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !fontscan.IsFontFile(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func resolveCollision(name string, used map[string]string) string {
	if _, taken := used[name]; !taken {
		return name
	}
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 2; ; i++ {
		candidate := stem + "-" + strconv.Itoa(i) + ext
		if _, taken := used[candidate]; !taken {
			return candidate
		}
	}
}

func copyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return err
	}
	out, err := os.Create(dest)
	if err != nil {
		return err
	}
	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	return os.Chtimes(dest, info.ModTime(), info.ModTime())
}
