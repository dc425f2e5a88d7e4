// Package registry loads the default provider set from a YAML file.
package registry

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Provider is one configured backend provider.
type Provider struct {
	Name    string `yaml:"name"`
	Enabled *bool  `yaml:"enabled"` // nil means enabled
}

// IsEnabled reports whether the provider participates in ranking.
func (p Provider) IsEnabled() bool {
	return p.Enabled == nil || *p.Enabled
}

// File is the on-disk registry shape.
type File struct {
	Providers []Provider `yaml:"providers"`
}

// Defaults is the provider set used when no registry file is configured.
var Defaults = []Provider{
	{Name: "google"},
	{Name: "bing"},
	{Name: "duckduckgo"},
}

// Load reads a registry file.
func Load(path string) ([]Provider, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read provider registry: %w", err)
	}

	var file File
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse provider registry: %w", err)
	}

	seen := make(map[string]bool, len(file.Providers))
	for _, p := range file.Providers {
		if p.Name == "" {
			return nil, fmt.Errorf("provider registry %s: provider with empty name", path)
		}
		if seen[p.Name] {
			return nil, fmt.Errorf("provider registry %s: duplicate provider %q", path, p.Name)
		}
		seen[p.Name] = true
	}
	return file.Providers, nil
}

// LoadOrDefault reads the registry at path, falling back to Defaults when
// path is empty or unreadable. The fallback is logged, never fatal.
func LoadOrDefault(path string, log zerolog.Logger) []Provider {
	if path == "" {
		return Defaults
	}
	providers, err := Load(path)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("provider registry unavailable, using defaults")
		return Defaults
	}
	return providers
}

// Names returns the enabled provider names in registry order.
func Names(providers []Provider) []string {
	names := make([]string, 0, len(providers))
	for _, p := range providers {
		if p.IsEnabled() {
			names = append(names, p.Name)
		}
	}
	return names
}
