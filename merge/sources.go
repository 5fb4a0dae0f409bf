// Package merge combines the per-OS font directories into a single merged
// directory. Families appearing in several sources are resolved by font
// version, locale availability is carried over from the per-source locale
// maps, and the outcome is written as fonts.yml plus families.json.
package merge

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Source is one configured font source. Order matters: earlier sources win
// version ties.
type Source struct {
	Name    string
	Dir     string
	Locales string
}

// LoadSources reads sources.yml. The YAML document is decoded as a node so
// the configured order of the sources survives.
func LoadSources(path string) ([]Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(doc.Content) == 0 {
		return nil, fmt.Errorf("no sources configured in %s", path)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: expected a mapping of sources", path)
	}

	var sources []Source
	for i := 0; i+1 < len(root.Content); i += 2 {
		var cfg struct {
			Dir     string `yaml:"dir"`
			Locales string `yaml:"locales"`
		}
		if err := root.Content[i+1].Decode(&cfg); err != nil {
			return nil, fmt.Errorf("source %s: %w", root.Content[i].Value, err)
		}
		if cfg.Dir == "" {
			return nil, fmt.Errorf("source %s: missing dir", root.Content[i].Value)
		}
		sources = append(sources, Source{
			Name:    root.Content[i].Value,
			Dir:     cfg.Dir,
			Locales: cfg.Locales,
		})
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("no sources configured in %s", path)
	}
	return sources, nil
}

// LoadLocaleNames reads a locales.json produced by the per-OS pipelines:
// locale code -> family names.
func LoadLocaleNames(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var names map[string][]string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return names, nil
}
