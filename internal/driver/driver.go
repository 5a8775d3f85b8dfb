// Package driver runs the per-tick render loop.
package driver

import (
	"context"
	"fmt"

	"github.com/TheThirdRail/green-code-fx/internal/frames"
	"github.com/TheThirdRail/green-code-fx/internal/render"
	"github.com/TheThirdRail/green-code-fx/internal/timing"
)

// Effect is one engine with its compositor. Step advances simulation state
// by one tick; Paint renders the current state into the frame.
type Effect interface {
	Step()
	Paint(*render.Frame)
}

// Options configures one render run.
type Options struct {
	Frames    int
	FPS       int
	Frame     *render.Frame
	Sink      frames.Sink
	Progress  func(percent int)
	Collector timing.Collector
}

// Run executes the tick loop: advance, composite, sink, in that order, one
// frame per tick with no gaps or repeats. Cancellation is checked once per
// tick before compositing. Sink faults abort the run and name the tick.
func Run(ctx context.Context, effect Effect, opts Options) error {
	if opts.Frames <= 0 {
		return fmt.Errorf("frame budget must be > 0, got %d", opts.Frames)
	}
	if opts.FPS <= 0 {
		return fmt.Errorf("fps must be > 0, got %d", opts.FPS)
	}
	if opts.Frame == nil || opts.Sink == nil {
		return fmt.Errorf("frame buffer and sink are required")
	}
	collector := opts.Collector
	if collector == nil {
		collector = timing.Nop{}
	}

	lastPercent := -1
	for tick := 0; tick < opts.Frames; tick++ {
		select {
		case <-ctx.Done():
			return fmt.Errorf("render canceled at frame %d: %w", tick, ctx.Err())
		default:
		}

		effect.Step()

		if err := timing.Measure(collector, timing.OpComposite, tick, func() error {
			effect.Paint(opts.Frame)
			return nil
		}); err != nil {
			return fmt.Errorf("frame %d: %w", tick, err)
		}

		if err := timing.Measure(collector, timing.OpSinkWrite, tick, func() error {
			return opts.Sink.WriteFrame(tick, opts.Frame)
		}); err != nil {
			return fmt.Errorf("frame %d: %w", tick, err)
		}

		// Report roughly once per second of generated footage, never
		// decreasing and always ending at 100.
		if opts.Progress != nil && (tick%opts.FPS == 0 || tick == opts.Frames-1) {
			percent := (tick + 1) * 100 / opts.Frames
			if percent > lastPercent {
				opts.Progress(percent)
				lastPercent = percent
			}
		}
	}
	return nil
}
