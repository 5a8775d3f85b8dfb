// Package frames delivers composited frames to their destination.
package frames

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheThirdRail/green-code-fx/internal/render"
)

// FramePattern is the file name layout of a PNG sequence, shared with the
// encoder invocation.
const FramePattern = "frame_%06d.png"

// Sink consumes exactly one frame per tick, in increasing index order.
type Sink interface {
	WriteFrame(index int, frame *render.Frame) error
}

// DirSink writes each frame as a PNG file into one job directory.
type DirSink struct {
	dir string
}

// NewDirSink creates the frame directory and returns a sink writing into it.
func NewDirSink(dir string) (*DirSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	return &DirSink{dir: dir}, nil
}

// Dir returns the directory frames are written into.
func (s *DirSink) Dir() string {
	return s.dir
}

// WriteFrame implements Sink.
func (s *DirSink) WriteFrame(index int, frame *render.Frame) error {
	path := filepath.Join(s.dir, fmt.Sprintf(FramePattern, index))
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	if err := frame.EncodePNG(file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close frame file: %w", err)
	}
	return nil
}

// Remove deletes the frame directory and everything in it.
func (s *DirSink) Remove() error {
	if err := os.RemoveAll(s.dir); err != nil {
		return fmt.Errorf("failed to remove frame directory: %w", err)
	}
	return nil
}
