// Package extract unpacks the archive formats the font pipeline encounters.
// CAB, ESD and WIM archives are handed to external tools (cabextract, 7z),
// zip archives are extracted in-process.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fontpipe/fontpipe/base"
)

// ErrNoTool is returned when no suitable extraction tool is installed.
var ErrNoTool = errors.New("no extraction tool found (install cabextract or 7z)")

func run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	base.Logger.Debugf("running %s %s", name, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func sevenZip(ctx context.Context, archive, destDir string) error {
	return run(ctx, "7z", "x", "-o"+destDir, archive, "-y")
}

// Archive extracts a CAB, ESD or WIM archive into destDir. ESD and WIM need
// 7z, CAB prefers cabextract and falls back to 7z.
func Archive(ctx context.Context, archive, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(archive)) {
	case ".esd", ".wim":
		if _, err := exec.LookPath("7z"); err != nil {
			return fmt.Errorf("%w: 7z is required for ESD/WIM", ErrNoTool)
		}
		return sevenZip(ctx, archive, destDir)
	}

	if _, err := exec.LookPath("cabextract"); err == nil {
		return run(ctx, "cabextract", "-d", destDir, archive)
	}
	if _, err := exec.LookPath("7z"); err == nil {
		return sevenZip(ctx, archive, destDir)
	}
	return ErrNoTool
}

// Zip extracts a zip archive into destDir. Entries that would escape the
// destination directory are rejected.
func Zip(archive, destDir string) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		dest := filepath.Join(destDir, filepath.FromSlash(f.Name))
		if !strings.HasPrefix(dest, filepath.Clean(destDir)+string(os.PathSeparator)) {
			return fmt.Errorf("zip entry %q escapes destination", f.Name)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0755); err != nil {
				return err
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
			return err
		}
		if err := writeZipEntry(f, dest); err != nil {
			return err
		}
	}
	return nil
}

func writeZipEntry(f *zip.File, dest string) error {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()
	w, err := os.Create(dest)
	if err != nil {
		return err
	}
	_, err = io.Copy(w, rc)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	return err
}
