package main

import (
	"context"
	"fmt"
	"os"

	"github.com/speedata/optionparser"

	"github.com/fontpipe/fontpipe/base"
	"github.com/fontpipe/fontpipe/merge"
	"github.com/fontpipe/fontpipe/ubuntu"
	"github.com/fontpipe/fontpipe/windows"
)

type options struct {
	verbose    bool
	baseDir    string
	winVersion string
	arch       string
	fontList   string
	fontDir    string
	out        string
}

func dothings() error {
	opts := options{
		baseDir: ".",
		out:     "locales.json",
	}

	op := optionparser.NewOptionParser()
	op.Banner = "Usage: fontpipe [options] command"
	op.On("-v", "--verbose", "Print debug messages", &opts.verbose)
	op.On("--base DIR", "Working directory (default: current directory)", &opts.baseDir)
	op.On("--winver VERSION", "Windows build search string, e.g. 26H1", &opts.winVersion)
	op.On("--arch ARCH", "Windows architecture (amd64, arm64, x86)", &opts.arch)
	op.On("--fontlist FILE", "Font documentation file for filtering (Markdown or HTML)", &opts.fontList)
	op.On("--fontdir DIR", "Font directory to scan (ubuntu-locales)", &opts.fontDir)
	op.On("--out FILE", "Output path for locale JSON (ubuntu-locales)", &opts.out)
	op.Command("download", "Download the Windows font packages via UUP dump")
	op.Command("extract", "Extract and deduplicate the downloaded packages")
	op.Command("win-locales", "Build the Windows locale mapping from the FOD spreadsheet")
	op.Command("ubuntu-locales", "Build the Ubuntu locale mapping from a font directory")
	op.Command("merge", "Merge all sources from sources.yml into a single directory")
	op.Command("clean", "Remove the temporary download directory")
	err := op.Parse()
	if err != nil {
		return err
	}

	if opts.verbose {
		base.SetupLogger(base.DebugLevel)
	} else {
		base.SetupLogger(base.InfoLevel)
	}

	if len(op.Extra) != 1 {
		op.Help()
		return nil
	}

	ctx := context.Background()
	newPipeline := func() *windows.Pipeline {
		p := windows.NewPipeline(opts.baseDir)
		if opts.winVersion != "" {
			p.WindowsVersion = opts.winVersion
		}
		if opts.arch != "" {
			p.Arch = opts.arch
		}
		p.FontList = opts.fontList
		return p
	}

	switch op.Extra[0] {
	case "download":
		return newPipeline().Download(ctx)
	case "extract":
		return newPipeline().Extract(ctx)
	case "win-locales":
		return newPipeline().Locales(ctx)
	case "ubuntu-locales":
		if opts.fontDir == "" {
			return fmt.Errorf("ubuntu-locales needs --fontdir")
		}
		return ubuntu.WriteLocales(opts.fontDir, opts.out)
	case "merge":
		return merge.Run(opts.baseDir)
	case "clean":
		return newPipeline().Clean()
	default:
		op.Help()
	}
	return nil
}

func main() {
	if err := dothings(); err != nil {
		fmt.Println(err.Error())
		os.Exit(1)
	}
}
