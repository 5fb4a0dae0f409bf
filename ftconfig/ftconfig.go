// Package ftconfig carries the static fontconfig files written next to the
// merged font directory.
package ftconfig

import (
	"embed"
	"os"
	"path/filepath"

	"github.com/fontpipe/fontpipe/base"
)

//go:embed config/*.conf
var configFiles embed.FS

// List returns the embedded configuration file names.
func List() ([]string, error) {
	entries, err := configFiles.ReadDir("config")
	if err != nil {
		return nil, err
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names, nil
}

// Write places the embedded configuration files into destDir, creating the
// directory when needed. Existing files are overwritten.
func Write(destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}
	names, err := List()
	if err != nil {
		return err
	}
	for _, name := range names {
		data, err := configFiles.ReadFile("config/" + name)
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(destDir, name), data, 0644); err != nil {
			return err
		}
	}
	base.Logger.Infof("%d fontconfig files written to %s", len(names), destDir)
	return nil
}
