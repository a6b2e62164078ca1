// Package config loads the application configuration consumed by the host
// glue and its initializers.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-viewengine/pkg/logging"
)

// Config is the application configuration document.
type Config struct {
	Logger logging.Config `yaml:"logger"`
	// Initializers holds free-form settings keyed by initializer name.
	Initializers map[string]map[string]any `yaml:"initializers"`
}

// Load reads a YAML configuration file. A missing file yields an empty
// configuration so callers can rely on defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration document.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}

// Initializer returns the settings for the named initializer, or nil.
func (c *Config) Initializer(name string) map[string]any {
	if c == nil || c.Initializers == nil {
		return nil
	}
	return c.Initializers[name]
}
