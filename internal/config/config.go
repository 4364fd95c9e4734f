// Package config loads the taskdeck configuration file and applies the
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config covers both the TUI client and the taskdeckd server. A missing
// file is not an error; the defaults stand in.
type Config struct {
	// client
	RemoteURL    string `yaml:"remote_url"`
	Owner        string `yaml:"owner"`
	OfflineDB    string `yaml:"offline_db"`
	PollInterval int    `yaml:"poll_interval_seconds"`

	// server
	Listen   string `yaml:"listen"`
	ServerDB string `yaml:"server_db"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		RemoteURL:    "http://localhost:8422",
		Owner:        "local",
		PollInterval: 5,
		Listen:       ":8422",
	}
}

// DefaultPath returns the XDG location of the config file.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "taskdeck", "config.yaml"), nil
}

// Load reads the config at path, or the default location when path is
// empty, then applies the environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	if path == "" {
		var err error
		path, err = DefaultPath()
		if err != nil {
			return cfg, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// defaults apply
	case err != nil:
		return cfg, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = Default().PollInterval
	}
	return cfg, nil
}

// TASKDECK_REMOTE and TASKDECK_OWNER override the file for one-off runs.
func applyEnv(cfg *Config) {
	if v := os.Getenv("TASKDECK_REMOTE"); v != "" {
		cfg.RemoteURL = v
	}
	if v := os.Getenv("TASKDECK_OWNER"); v != "" {
		cfg.Owner = v
	}
}
