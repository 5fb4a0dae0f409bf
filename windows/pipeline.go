package windows

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fontpipe/fontpipe/base"
	"github.com/fontpipe/fontpipe/extract"
	"github.com/fontpipe/fontpipe/fetch"
	"github.com/fontpipe/fontpipe/fontscan"
	"github.com/fontpipe/fontpipe/uupdump"
)

// Pipeline holds the directories and settings of the Windows font pipeline.
type Pipeline struct {
	// Dir is the working directory, temp files and outputs live below it.
	Dir string
	// WindowsVersion is the build search string, e.g. "26H1".
	WindowsVersion string
	// Arch is the target architecture.
	Arch string
	// FontList is an optional path to the Microsoft font documentation
	// (Markdown or HTML) used to filter the extracted fonts.
	FontList string

	API    *uupdump.Client
	Client *http.Client
}

// NewPipeline creates a pipeline rooted at dir with default settings.
func NewPipeline(dir string) *Pipeline {
	return &Pipeline{
		Dir:            dir,
		WindowsVersion: "26H1",
		Arch:           "amd64",
		API:            uupdump.New(),
		Client:         &http.Client{Timeout: 10 * time.Minute},
	}
}

func (p *Pipeline) tempDir() string        { return filepath.Join(p.Dir, "temp") }
func (p *Pipeline) stagingDir() string     { return filepath.Join(p.tempDir(), "staging") }
func (p *Pipeline) outputDir() string      { return filepath.Join(p.Dir, p.WindowsVersion) }
func (p *Pipeline) extractionPath() string { return filepath.Join(p.Dir, "extraction.json") }
func (p *Pipeline) localesPath() string    { return filepath.Join(p.Dir, "locales.json") }
func (p *Pipeline) fodPath() string        { return filepath.Join(p.Dir, "fod-mapping.xlsx") }
func (p *Pipeline) overridePath() string   { return filepath.Join(p.Dir, "override.yml") }

func stagingName(pkgName string) string {
	if pkgName == CoreESDName {
		return "core"
	}
	return strings.TrimSuffix(pkgName, filepath.Ext(pkgName))
}

// Download finds the newest matching Windows build and downloads its
// language font packages and the core ESD into the temp directory. Files
// that are already present are skipped.
func (p *Pipeline) Download(ctx context.Context) error {
	base.Logger.Infof("searching for %s builds (%s)", p.WindowsVersion, p.Arch)
	build, err := p.API.FindBuild(ctx, p.WindowsVersion, p.Arch)
	if err != nil {
		return err
	}
	base.Logger.Infof("found build %q (%s)", build.Title, build.UUID)

	files, err := p.API.GetFiles(ctx, build.UUID)
	if err != nil {
		return err
	}
	base.Logger.Infof("update has %d files", len(files))

	packages := FontPackages(files)
	base.Logger.Infof("found %d language font packages", len(packages))

	var totalSize int64
	names := make([]string, 0, len(packages))
	for name, f := range packages {
		names = append(names, name)
		totalSize += f.Size
	}
	sort.Strings(names)

	coreFile, hasCore := files[CoreESDName]
	if hasCore {
		names = append(names, CoreESDName)
		totalSize += coreFile.Size
		base.Logger.Infof("found core ESD (%d MB)", coreFile.Size/(1024*1024))
	} else {
		base.Logger.Warnf("core ESD not found in build")
	}
	base.Logger.Infof("total download size %.1f MB", float64(totalSize)/(1024*1024))

	var failed int
	for i, name := range names {
		f := files[name]
		dest := filepath.Join(p.tempDir(), name)
		base.Logger.Infof("[%d/%d] %s (%.1f MB)", i+1, len(names), name, float64(f.Size)/(1024*1024))
		if _, err := os.Stat(dest); err == nil {
			base.Logger.Infof("already downloaded, skipping")
			continue
		}
		if f.URL == "" {
			base.Logger.Errorf("no download URL for %s", name)
			failed++
			continue
		}
		if err := fetch.Fetch(ctx, p.Client, f.URL, dest, f.SHA1); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			base.Logger.Errorf("downloading %s: %s", name, err)
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(names))
	}
	base.Logger.Infof("downloads saved to %s", p.tempDir())
	return nil
}

// Extract unpacks every downloaded package, collects the font files into
// per package staging directories, removes exact duplicates across packages
// and writes the deduplicated extraction map and the surviving fonts into
// the output directory.
func (p *Pipeline) Extract(ctx context.Context) error {
	expected, err := ExpectedFonts(p.FontList)
	if err != nil {
		return err
	}
	if len(expected) > 0 {
		base.Logger.Infof("loaded %d expected fonts from %s", len(expected), p.FontList)
	} else {
		base.Logger.Infof("no font list, extracting all fonts")
	}

	if err := os.RemoveAll(p.outputDir()); err != nil {
		return err
	}

	raw := make(ExtractionMap)
	var order []string
	var totalFonts int

	cabs, err := filepath.Glob(filepath.Join(p.tempDir(), "*.cab"))
	if err != nil {
		return err
	}
	sort.Strings(cabs)
	for i, cabPath := range cabs {
		cabName := filepath.Base(cabPath)
		base.Logger.Infof("[%d/%d] extracting %s", i+1, len(cabs), cabName)
		extractDir := filepath.Join(p.tempDir(), "extracted", stagingName(cabName))
		if err := extract.Archive(ctx, cabPath, extractDir); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			base.Logger.Errorf("extracting %s: %s", cabName, err)
			continue
		}
		staging := filepath.Join(p.stagingDir(), stagingName(cabName))
		fonts, err := CollectFonts(extractDir, staging, expected)
		if err != nil {
			return err
		}
		base.Logger.Infof("  %d fonts", len(fonts))
		raw[cabName] = fonts
		order = append(order, cabName)
		totalFonts += len(fonts)
	}

	esdPath := filepath.Join(p.tempDir(), CoreESDName)
	if _, err := os.Stat(esdPath); err == nil {
		base.Logger.Infof("extracting core ESD")
		esdExtractDir := filepath.Join(p.tempDir(), "esd_extracted")
		if _, err := os.Stat(esdExtractDir); err != nil {
			if err := extract.Archive(ctx, esdPath, esdExtractDir); err != nil {
				return fmt.Errorf("extracting core ESD: %w", err)
			}
		} else {
			base.Logger.Infof("already extracted")
		}
		staging := filepath.Join(p.stagingDir(), "core")
		fonts, err := CollectFonts(esdExtractDir, staging, expected)
		if err != nil {
			return err
		}
		base.Logger.Infof("  %d core fonts", len(fonts))
		raw[CoreESDName] = fonts
		order = append(order, CoreESDName)
		totalFonts += len(fonts)
	}

	if len(raw) == 0 {
		return fontscan.ErrNoFonts
	}

	deduped, duplicates := DedupPackages(raw, order)

	if err := p.copyDeduped(deduped); err != nil {
		return err
	}

	for _, d := range duplicates {
		base.Logger.Infof("duplicate %s (%s) in %s, kept in %s",
			d.File, strings.Join(d.Families, ", "), strings.Join(d.Packages, ", "), d.KeptIn)
	}
	crossPkg := CrossPackageFamilies(deduped)
	for fam, entries := range crossPkg {
		base.Logger.Infof("family %q spans packages:", fam)
		for _, e := range entries {
			base.Logger.Infof("  %s v%s [%s]", e.File, e.Version, e.Package)
		}
	}

	data, err := json.MarshalIndent(deduped, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.extractionPath(), data, 0644); err != nil {
		return err
	}

	var dedupedTotal int
	for _, fonts := range deduped {
		dedupedTotal += len(fonts)
	}
	base.Logger.Infof("extraction complete: %d fonts, %d after dedup, %d duplicates removed",
		totalFonts, dedupedTotal, len(duplicates))
	base.Logger.Infof("extraction map written to %s", p.extractionPath())
	return nil
}

func (p *Pipeline) copyDeduped(deduped ExtractionMap) error {
	copied := make(map[string]bool)
	pkgs := make([]string, 0, len(deduped))
	for pkg := range deduped {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)
	for _, pkg := range pkgs {
		if len(deduped[pkg]) == 0 {
			continue
		}
		if err := os.MkdirAll(p.outputDir(), 0755); err != nil {
			return err
		}
		staging := filepath.Join(p.stagingDir(), stagingName(pkg))
		for _, info := range deduped[pkg] {
			if copied[info.File] {
				continue
			}
			src := filepath.Join(staging, info.File)
			if _, err := os.Stat(src); err != nil {
				base.Logger.Warnf("staged font %s missing: %s", info.File, err)
				continue
			}
			if err := copyFile(src, filepath.Join(p.outputDir(), info.File)); err != nil {
				return err
			}
			copied[info.File] = true
		}
	}
	base.Logger.Infof("%d fonts copied to %s", len(copied), p.outputDir())
	return nil
}

// Locales builds locales.json from the extraction map and the FOD
// spreadsheet, downloading the spreadsheet on first use.
func (p *Pipeline) Locales(ctx context.Context) error {
	data, err := os.ReadFile(p.extractionPath())
	if err != nil {
		return fmt.Errorf("read extraction map (run extract first): %w", err)
	}
	var extraction ExtractionMap
	if err := json.Unmarshal(data, &extraction); err != nil {
		return err
	}

	if _, err := os.Stat(p.fodPath()); err != nil {
		base.Logger.Infof("downloading FOD mapping spreadsheet")
		if err := fetch.Fetch(ctx, p.Client, FODMappingURL, p.fodPath(), ""); err != nil {
			return err
		}
	}
	fodMapping, err := ParseFODMapping(p.fodPath())
	if err != nil {
		return err
	}

	overrides, err := LoadOverrides(p.overridePath())
	if err != nil {
		return err
	}
	for key, codes := range overrides {
		fodMapping[key] = codes
	}
	if len(overrides) > 0 {
		base.Logger.Infof("applied %d overrides", len(overrides))
	}

	locales := BuildLocales(extraction, fodMapping)
	out, err := json.MarshalIndent(locales, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(p.localesPath(), append(out, '\n'), 0644); err != nil {
		return err
	}
	base.Logger.Infof("locales written to %s (%d core families, %d locales)",
		p.localesPath(), len(locales["core"]), len(locales)-1)
	return nil
}

// Clean removes the temp directory.
func (p *Pipeline) Clean() error {
	if _, err := os.Stat(p.tempDir()); err != nil {
		base.Logger.Infof("nothing to clean")
		return nil
	}
	if err := os.RemoveAll(p.tempDir()); err != nil {
		return err
	}
	base.Logger.Infof("cleaned %s", p.tempDir())
	return nil
}
