// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Video  VideoConfig  `toml:"video"`
	Typing TypingConfig `toml:"typing"`
	Rain   RainConfig   `toml:"rain"`
}

// VideoConfig maps settings shared by both effects.
type VideoConfig struct {
	Resolution *string `toml:"resolution"`
	FPS        *int    `toml:"fps"`
	Duration   *int    `toml:"duration"`
	OutputDir  *string `toml:"output-dir"`
	Format     *string `toml:"format"`
}

// TypingConfig maps typing-effect settings.
type TypingConfig struct {
	WPM             *int     `toml:"wpm"`
	FontSize        *int     `toml:"font-size"`
	FontPath        *string  `toml:"font-path"`
	TextColor       *string  `toml:"text-color"`
	TypoProbability *float64 `toml:"typo-probability"`
	ErrorDelay      *float64 `toml:"error-delay"`
	CursorBlinkHz   *float64 `toml:"cursor-blink-hz"`
	PauseSeconds    *float64 `toml:"pause-seconds"`
	FadeFrames      *int     `toml:"fade-frames"`
	ScrollThreshold *int     `toml:"scroll-threshold"`
}

// RainConfig maps matrix-rain settings.
type RainConfig struct {
	ColumnSpacing *int     `toml:"column-spacing"`
	Speed         *float64 `toml:"speed"`
	SpawnProb     *float64 `toml:"spawn-probability"`
	ResetVariance *int     `toml:"reset-variance"`
	SymbolSet     *string  `toml:"symbol-set"`
	FontPath      *string  `toml:"font-path"`
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
