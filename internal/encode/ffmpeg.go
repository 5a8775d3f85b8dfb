// Package encode assembles PNG frame sequences with an external ffmpeg.
package encode

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/TheThirdRail/green-code-fx/internal/frames"
)

// H.264 settings tuned for chroma-key content.
const (
	videoCRF    = "18"
	videoPreset = "medium"
	videoProf   = "high"
	videoLevel  = "4.1"
	videoTune   = "film"
	pixelFormat = "yuv420p"
)

// Assembler shells out to ffmpeg. The contract with the encoder stays thin:
// it accepts an ordered PNG sequence at a fixed frame rate.
type Assembler struct {
	binary string
	logger *slog.Logger
}

// NewAssembler returns an Assembler using the given ffmpeg binary name or
// path, "ffmpeg" when empty.
func NewAssembler(binary string, logger *slog.Logger) *Assembler {
	if binary == "" {
		binary = "ffmpeg"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{binary: binary, logger: logger}
}

// MP4 encodes the frame directory into an H.264 MP4.
func (a *Assembler) MP4(ctx context.Context, framesDir, outPath string, fps int) error {
	args := []string{
		"-y",
		"-framerate", strconv.Itoa(fps),
		"-i", filepath.Join(framesDir, frames.FramePattern),
		"-c:v", "libx264",
		"-crf", videoCRF,
		"-preset", videoPreset,
		"-profile:v", videoProf,
		"-level:v", videoLevel,
		"-tune", videoTune,
		"-pix_fmt", pixelFormat,
		"-movflags", "+faststart",
		outPath,
	}
	a.logger.Info("assembling mp4", "output", outPath, "fps", fps)
	return a.run(ctx, args)
}

// GIF encodes the frame directory into a looping GIF using a two-pass
// palette workflow.
func (a *Assembler) GIF(ctx context.Context, framesDir, outPath string, fps int) error {
	palette := filepath.Join(framesDir, "palette.png")
	defer func() { _ = os.Remove(palette) }()

	paletteArgs := []string{
		"-y",
		"-framerate", strconv.Itoa(fps),
		"-i", filepath.Join(framesDir, frames.FramePattern),
		"-vf", "palettegen=max_colors=256:reserve_transparent=0",
		palette,
	}
	a.logger.Info("assembling gif", "output", outPath, "fps", fps)
	if err := a.run(ctx, paletteArgs); err != nil {
		return err
	}

	gifArgs := []string{
		"-y",
		"-framerate", strconv.Itoa(fps),
		"-i", filepath.Join(framesDir, frames.FramePattern),
		"-i", palette,
		"-lavfi", "paletteuse=dither=bayer:bayer_scale=5:diff_mode=rectangle",
		"-loop", "0",
		outPath,
	}
	return a.run(ctx, gifArgs)
}

func (a *Assembler) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, a.binary, args...)
	var stderr strings.Builder
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(stderr.String(), 500))
	}
	return nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
