package windows

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fontpipe/fontpipe/base"
	"github.com/fontpipe/fontpipe/fetch"
	"github.com/fontpipe/fontpipe/fontscan"
)

// FontInfo is one (family, subfamily) entry of a collected font file.
type FontInfo struct {
	File      string `json:"file"`
	Family    string `json:"family"`
	Subfamily string `json:"subfamily,omitempty"`
	Version   string `json:"version,omitempty"`
	SHA256    string `json:"sha256"`
}

// ExtractionMap maps a package name to the fonts collected from it.
type ExtractionMap map[string][]FontInfo

// Duplicate describes a font file that appeared in several packages.
type Duplicate struct {
	File     string
	Families []string
	Version  string
	Packages []string
	KeptIn   string
}

// CollectFonts recursively finds font files below srcDir and copies them
// into destDir under versioned lowercase names (stem + version slug + ext).
// When expected is non-empty, files whose names are not in the set are
// skipped. One FontInfo per unique (family, subfamily) is returned, sorted
// by file name.
func CollectFonts(srcDir, destDir string, expected map[string]bool) ([]FontInfo, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, err
	}
	var collected []FontInfo
	seenFiles := make(map[string]bool)

	err := filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !fontscan.IsFontFile(path) {
			return nil
		}
		nameLower := strings.ToLower(filepath.Base(path))
		if len(expected) > 0 && !expected[nameLower] {
			return nil
		}

		entries, err := fontscan.ScanFile(path)
		if err != nil || len(entries) == 0 {
			if err != nil {
				base.Logger.Debugf("skipping %s: %s", path, err)
			}
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		stem := strings.TrimSuffix(nameLower, filepath.Ext(nameLower))
		destName := stem + fontscan.VersionSlug(entries[0].Version) + ext
		if seenFiles[destName] {
			return nil
		}
		seenFiles[destName] = true

		sha256sum, err := fetch.SHA256File(path)
		if err != nil {
			return err
		}
		if err := copyFile(path, filepath.Join(destDir, destName)); err != nil {
			return err
		}

		seenFamilies := make(map[string]bool)
		for _, e := range entries {
			famKey := e.Family + "\x00" + e.Subfamily
			if seenFamilies[famKey] {
				continue
			}
			seenFamilies[famKey] = true
			collected = append(collected, FontInfo{
				File:      destName,
				Family:    e.Family,
				Subfamily: e.Subfamily,
				Version:   e.Version,
				SHA256:    sha256sum,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool {
		if collected[i].File != collected[j].File {
			return collected[i].File < collected[j].File
		}
		return collected[i].Family < collected[j].Family
	})
	return collected, nil
}

// DedupPackages removes exact file duplicates across packages. A file name
// present in several packages stays in the core package when present,
// otherwise in the first package of the given order. The removed
// occurrences are returned as Duplicates.
func DedupPackages(raw ExtractionMap, order []string) (ExtractionMap, []Duplicate) {
	type pkgEntry struct {
		pkg   string
		infos []FontInfo
	}
	fileIndex := make(map[string][]pkgEntry)
	var fileOrder []string

	for _, pkg := range order {
		perFile := make(map[string][]FontInfo)
		var names []string
		for _, info := range raw[pkg] {
			if _, ok := perFile[info.File]; !ok {
				names = append(names, info.File)
			}
			perFile[info.File] = append(perFile[info.File], info)
		}
		for _, name := range names {
			if _, ok := fileIndex[name]; !ok {
				fileOrder = append(fileOrder, name)
			}
			fileIndex[name] = append(fileIndex[name], pkgEntry{pkg: pkg, infos: perFile[name]})
		}
	}

	deduped := make(ExtractionMap, len(raw))
	var duplicates []Duplicate

	for _, name := range fileOrder {
		pkgEntries := fileIndex[name]
		if len(pkgEntries) == 1 {
			e := pkgEntries[0]
			deduped[e.pkg] = append(deduped[e.pkg], e.infos...)
			continue
		}

		keep := pkgEntries[0].pkg
		var pkgs []string
		for _, e := range pkgEntries {
			pkgs = append(pkgs, ShortPackageName(e.pkg))
			if e.pkg == CoreESDName {
				keep = CoreESDName
			}
		}
		infos := pkgEntries[0].infos
		var families []string
		for _, info := range infos {
			families = append(families, info.Family)
		}
		duplicates = append(duplicates, Duplicate{
			File:     name,
			Families: families,
			Version:  infos[0].Version,
			Packages: pkgs,
			KeptIn:   ShortPackageName(keep),
		})
		deduped[keep] = append(deduped[keep], infos...)
	}

	for pkg := range deduped {
		infos := deduped[pkg]
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].File != infos[j].File {
				return infos[i].File < infos[j].File
			}
			return infos[i].Family < infos[j].Family
		})
	}
	sort.Slice(duplicates, func(i, j int) bool { return duplicates[i].File < duplicates[j].File })
	return deduped, duplicates
}

// CrossPackageEntry is one occurrence of a family in a package.
type CrossPackageEntry struct {
	Package string
	File    string
	Version string
}

// CrossPackageFamilies finds families that span several packages after
// dedup, usually different versions of the same font.
func CrossPackageFamilies(deduped ExtractionMap) map[string][]CrossPackageEntry {
	byFamily := make(map[string][]CrossPackageEntry)
	for pkg, infos := range deduped {
		short := ShortPackageName(pkg)
		for _, info := range infos {
			byFamily[info.Family] = append(byFamily[info.Family], CrossPackageEntry{
				Package: short,
				File:    info.File,
				Version: info.Version,
			})
		}
	}
	crossPkg := make(map[string][]CrossPackageEntry)
	for fam, entries := range byFamily {
		pkgs := make(map[string]bool)
		for _, e := range entries {
			pkgs[e.Package] = true
		}
		if len(pkgs) < 2 {
			continue
		}
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Package != entries[j].Package {
				return entries[i].Package < entries[j].Package
			}
			return entries[i].File < entries[j].File
		})
		crossPkg[fam] = entries
	}
	return crossPkg
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
