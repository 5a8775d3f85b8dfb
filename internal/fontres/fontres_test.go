package fontres

import (
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

func TestResolveDefaultFallback(t *testing.T) {
	fnt, err := Resolve("", "", "")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if fnt.Origin != OriginDefaultFallback {
		t.Fatalf("expected default fallback, got %v", fnt.Origin)
	}
	face, err := fnt.Face(16)
	if err != nil {
		t.Fatalf("failed to create face: %v", err)
	}
	if face.Metrics().Height <= 0 {
		t.Fatalf("face has no height")
	}
}

func TestResolveMissingExplicitPathFallsThrough(t *testing.T) {
	fnt, err := Resolve(filepath.Join(t.TempDir(), "nope.ttf"), "", "")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if fnt.Origin != OriginDefaultFallback {
		t.Fatalf("expected default fallback for missing path, got %v", fnt.Origin)
	}
}

func TestResolveExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mono.ttf")
	if err := os.WriteFile(path, gomono.TTF, 0o644); err != nil {
		t.Fatalf("failed to write font: %v", err)
	}

	fnt, err := Resolve(path, "", "")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if fnt.Origin != OriginBundled {
		t.Fatalf("expected bundled origin, got %v", fnt.Origin)
	}
	if fnt.Path != path {
		t.Fatalf("expected path %s, got %s", path, fnt.Path)
	}
}

func TestResolveFamilyMatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "JetBrainsMono-Regular.ttf")
	if err := os.WriteFile(path, gomono.TTF, 0o644); err != nil {
		t.Fatalf("failed to write font: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not a font"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	fnt, err := Resolve("", "jetbrains", dir)
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if fnt.Origin != OriginSystemFallback {
		t.Fatalf("expected system fallback, got %v", fnt.Origin)
	}
	if fnt.Path != path {
		t.Fatalf("expected path %s, got %s", path, fnt.Path)
	}
}

func TestResolveNoFamilyMatchUsesDefault(t *testing.T) {
	fnt, err := Resolve("", "jetbrains", t.TempDir())
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if fnt.Origin != OriginDefaultFallback {
		t.Fatalf("expected default fallback, got %v", fnt.Origin)
	}
}

func TestFaceRejectsBadSize(t *testing.T) {
	fnt, err := Resolve("", "", "")
	if err != nil {
		t.Fatalf("failed to resolve: %v", err)
	}
	if _, err := fnt.Face(0); err == nil {
		t.Fatalf("expected error for zero size")
	}
}

func TestOriginString(t *testing.T) {
	if OriginBundled.String() != "bundled" {
		t.Fatalf("unexpected name %q", OriginBundled.String())
	}
	if OriginSystemFallback.String() != "system-fallback" {
		t.Fatalf("unexpected name %q", OriginSystemFallback.String())
	}
	if OriginDefaultFallback.String() != "default-fallback" {
		t.Fatalf("unexpected name %q", OriginDefaultFallback.String())
	}
}
