package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the command line tool configuration
type Config struct {
	Theme         string `yaml:"theme"`
	Width         int    `yaml:"width"`
	Margin        int    `yaml:"margin"`
	Columns       int    `yaml:"columns,omitempty"` // terminal width, 0 detects
	OSC8          string `yaml:"osc8"`              // auto, on or off
	StrictNesting bool   `yaml:"strict_nesting"`
	ListBullet    string `yaml:"list_bullet,omitempty"`
	Resources     string `yaml:"resources,omitempty"`
	Font          Font   `yaml:"font"`
}

// Font represents the text defaults and TrueType overrides
type Font struct {
	Face             string            `yaml:"face"`
	Size             float64           `yaml:"size"`
	Color            string            `yaml:"color,omitempty"` // empty uses the theme
	LinkColor        string            `yaml:"link_color,omitempty"`
	Monospace        string            `yaml:"monospace"`
	PreformattedSize float64           `yaml:"preformatted_size"`
	Regular          string            `yaml:"regular,omitempty"`
	Bold             string            `yaml:"bold,omitempty"`
	Italic           string            `yaml:"italic,omitempty"`
	BoldItalic       string            `yaml:"bold_italic,omitempty"`
	Mono             string            `yaml:"mono,omitempty"`
	Faces            map[string]string `yaml:"faces,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Theme:  "dark",
		Width:  1024,
		Margin: 48,
		OSC8:   "auto",
		Font: Font{
			Face:             "Verdana",
			Size:             18,
			Monospace:        "Go Mono",
			PreformattedSize: 16,
		},
	}
}

// DefaultPath returns the configuration file location
func DefaultPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "htmltext", "config.yaml"), nil
}

// Load reads the configuration at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path, creating its directory
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}
