// Package fontscan reads family, subfamily and version metadata from
// TrueType and OpenType font files (including TTC collections) and builds
// family and file indexes over directory trees.
package fontscan

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font/sfnt"

	"github.com/fontpipe/fontpipe/base"
)

// FontExtensions lists the file extensions that are scanned for font
// metadata.
var FontExtensions = map[string]bool{
	".ttf": true,
	".ttc": true,
	".otf": true,
}

// Entry describes one font found in a file. TTC collections produce one
// entry per member font.
type Entry struct {
	File      string `json:"file,omitempty" yaml:"file,omitempty"`
	Family    string `json:"family" yaml:"family"`
	Subfamily string `json:"subfamily,omitempty" yaml:"subfamily,omitempty"`
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
}

// FamilyMap maps a font family name to the entries that provide it.
type FamilyMap map[string][]Entry

// FileIndex maps a relative file path to the entries the file contains.
type FileIndex map[string][]Entry

// IsFontFile reports whether the file name has a known font extension.
func IsFontFile(name string) bool {
	return FontExtensions[strings.ToLower(filepath.Ext(name))]
}

func fontName(f *sfnt.Font, buf *sfnt.Buffer, id sfnt.NameID) string {
	s, err := f.Name(buf, id)
	if err != nil {
		return ""
	}
	return s
}

// ScanFile extracts metadata for every font in the file. Files that cannot
// be parsed return an error, entries without a readable family name are
// dropped.
func ScanFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	coll, err := sfnt.ParseCollection(data)
	if err != nil {
		return nil, err
	}
	var buf sfnt.Buffer
	var entries []Entry
	for i := 0; i < coll.NumFonts(); i++ {
		f, err := coll.Font(i)
		if err != nil {
			base.Logger.Debugf("font %d in %s: %s", i, path, err)
			continue
		}
		family := fontName(f, &buf, sfnt.NameIDTypographicFamily)
		if family == "" {
			family = fontName(f, &buf, sfnt.NameIDFamily)
		}
		if family == "" {
			continue
		}
		subfamily := fontName(f, &buf, sfnt.NameIDTypographicSubfamily)
		if subfamily == "" {
			subfamily = fontName(f, &buf, sfnt.NameIDSubfamily)
		}
		entries = append(entries, Entry{
			Family:    family,
			Subfamily: subfamily,
			Version:   strings.TrimSpace(fontName(f, &buf, sfnt.NameIDVersion)),
		})
	}
	return entries, nil
}

// ScanDir walks a directory tree and builds a FamilyMap over all font files
// found below dir. Paths in the entries are slash-separated and relative to
// dir. Unparseable files are skipped.
func ScanDir(dir string) (FamilyMap, error) {
	families := make(FamilyMap)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !IsFontFile(path) {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		entries, err := ScanFile(path)
		if err != nil {
			base.Logger.Debugf("skipping %s: %s", rel, err)
			return nil
		}
		for _, e := range entries {
			e.File = rel
			families[e.Family] = append(families[e.Family], e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for fam, entries := range families {
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].File != entries[j].File {
				return entries[i].File < entries[j].File
			}
			return entries[i].Subfamily < entries[j].Subfamily
		})
		families[fam] = dedupEntries(entries)
	}
	return families, nil
}

func dedupEntries(entries []Entry) []Entry {
	type key struct{ file, subfamily string }
	seen := make(map[key]bool)
	deduped := entries[:0]
	for _, e := range entries {
		k := key{e.File, e.Subfamily}
		if seen[k] {
			continue
		}
		seen[k] = true
		deduped = append(deduped, e)
	}
	return deduped
}

// BuildFileIndex inverts a FamilyMap into a file based index.
func BuildFileIndex(families FamilyMap) FileIndex {
	index := make(FileIndex)
	for fam, entries := range families {
		for _, e := range entries {
			e.Family = fam
			index[e.File] = append(index[e.File], e)
		}
	}
	for file := range index {
		entries := index[file]
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Family != entries[j].Family {
				return entries[i].Family < entries[j].Family
			}
			return entries[i].Subfamily < entries[j].Subfamily
		})
	}
	return index
}

// FamilyNames returns the sorted family names of a FamilyMap.
func FamilyNames(families FamilyMap) []string {
	names := make([]string, 0, len(families))
	for fam := range families {
		names = append(names, fam)
	}
	sort.Strings(names)
	return names
}

// ErrNoFonts is returned by callers that require at least one readable font.
var ErrNoFonts = errors.New("no readable fonts found")
