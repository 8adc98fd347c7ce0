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
	Load LoadSection `toml:"load"`
}

// LoadSection maps page-load settings. Durations are Go duration strings.
type LoadSection struct {
	Origin          *string `toml:"origin"`
	Fragments       *string `toml:"fragments"`
	BasePath        *string `toml:"base-path"`
	SiteName        *string `toml:"site-name"`
	Version         *string `toml:"version"`
	Repo            *string `toml:"repo"`
	MinVisible      *string `toml:"min-visible"`
	Hold            *string `toml:"hold"`
	FragmentTimeout *string `toml:"fragment-timeout"`
	SettleTimeout   *string `toml:"settle-timeout"`
	HistoryWindow   *int    `toml:"history-window"`
	SessionTTL      *string `toml:"session-ttl"`
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
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Duration parses an optional duration value. A nil value yields nil.
func Duration(name string, value *string) (*time.Duration, error) {
	if value == nil {
		return nil, nil
	}
	d, err := time.ParseDuration(*value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d < 0 {
		return nil, fmt.Errorf("invalid %s: must not be negative", name)
	}
	return &d, nil
}
