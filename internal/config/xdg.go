// Package config provides XDG path helpers.
package config

import (
	"os"
	"path/filepath"
)

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), "greenfx", "config.toml")
}

// DefaultFontsDir returns the directory searched for user-supplied fonts.
func DefaultFontsDir() string {
	return filepath.Join(XDGDataHome(), "greenfx", "fonts")
}

// DefaultOutputDir returns the directory for finished renders.
func DefaultOutputDir() string {
	return filepath.Join(XDGDataHome(), "greenfx", "output")
}

// DefaultTempDir returns the scratch directory for frame sequences.
func DefaultTempDir() string {
	return filepath.Join(XDGDataHome(), "greenfx", "tmp")
}

// DefaultDBPath returns the default path for the render history database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), "greenfx", "greenfx.db")
}
