// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Practice  PracticeConfig `toml:"practice"`
	Typefaces TypefaceConfig `toml:"typefaces"`
}

// PracticeConfig maps practice-related settings.
type PracticeConfig struct {
	Char       *string  `toml:"char"`
	Glyphs     *string  `toml:"glyphs"`
	Script     *string  `toml:"script"`
	Threshold  *float64 `toml:"threshold"`
	Brush      *float64 `toml:"brush"`
	Alpha      *int     `toml:"alpha"`
	DotScale   *int     `toml:"dot-scale"`
	FocusWeak  *bool    `toml:"focus-weak"`
	WeakTop    *int     `toml:"weak-top"`
	WeakFactor *float64 `toml:"weak-factor"`
	WeakWindow *int     `toml:"weak-window"`
}

// TypefaceConfig maps typeface resolution settings.
type TypefaceConfig struct {
	Priority      []string            `toml:"priority"`
	Fallback      *string             `toml:"fallback"`
	Dirs          []string            `toml:"dirs"`
	ProbeTimeout  *string             `toml:"probe-timeout"`
	MinDifference *float64            `toml:"min-difference"`
	Overrides     map[string][]string `toml:"overrides"`
}

// Timeout parses the probe timeout. Zero means unset.
func (c TypefaceConfig) Timeout() (time.Duration, error) {
	if c.ProbeTimeout == nil || *c.ProbeTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(*c.ProbeTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid probe-timeout %q: %w", *c.ProbeTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("probe-timeout must be > 0")
	}
	return d, nil
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
