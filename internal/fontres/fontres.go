// Package fontres resolves font files through an ordered fallback strategy.
package fontres

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
)

// Origin identifies which step of the resolution strategy produced a font.
type Origin int

const (
	// OriginBundled means the explicitly requested font file was used.
	OriginBundled Origin = iota
	// OriginSystemFallback means a family match was found in the fonts dir.
	OriginSystemFallback
	// OriginDefaultFallback means the embedded monospace default was used.
	OriginDefaultFallback
)

// String returns a human-readable origin name.
func (o Origin) String() string {
	switch o {
	case OriginBundled:
		return "bundled"
	case OriginSystemFallback:
		return "system-fallback"
	case OriginDefaultFallback:
		return "default-fallback"
	default:
		return "unknown"
	}
}

// Font is a parsed font plus the origin it was resolved from.
type Font struct {
	Origin Origin
	Path   string

	parsed *opentype.Font
}

// Resolve locates a font without exception-style fallback chains: an explicit
// TTF path wins, then a family match inside fontsDir, then the embedded
// default. Only the embedded default can never fail.
func Resolve(explicitPath, family, fontsDir string) (*Font, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err == nil {
			parsed, err := parseFile(explicitPath)
			if err != nil {
				return nil, fmt.Errorf("failed to parse font %s: %w", explicitPath, err)
			}
			return &Font{Origin: OriginBundled, Path: explicitPath, parsed: parsed}, nil
		}
	}
	if family != "" && fontsDir != "" {
		if path, ok := findFamily(fontsDir, family); ok {
			parsed, err := parseFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to parse font %s: %w", path, err)
			}
			return &Font{Origin: OriginSystemFallback, Path: path, parsed: parsed}, nil
		}
	}
	parsed, err := opentype.Parse(gomono.TTF)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded font: %w", err)
	}
	return &Font{Origin: OriginDefaultFallback, parsed: parsed}, nil
}

// Face builds a face at the given pixel size.
func (f *Font) Face(size int) (font.Face, error) {
	if size <= 0 {
		return nil, fmt.Errorf("font size must be > 0, got %d", size)
	}
	face, err := opentype.NewFace(f.parsed, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create face: %w", err)
	}
	return face, nil
}

func parseFile(path string) (*opentype.Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return opentype.Parse(data)
}

func findFamily(dir, family string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	want := strings.ToLower(family)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := strings.ToLower(entry.Name())
		ext := filepath.Ext(name)
		if ext != ".ttf" && ext != ".otf" {
			continue
		}
		if strings.Contains(strings.TrimSuffix(name, ext), want) {
			return filepath.Join(dir, entry.Name()), true
		}
	}
	return "", false
}
