// Package generator orchestrates one video effect job end to end.
package generator

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path/filepath"
	"time"

	"golang.org/x/image/font"

	"github.com/TheThirdRail/green-code-fx/internal/driver"
	"github.com/TheThirdRail/green-code-fx/internal/effect/rain"
	"github.com/TheThirdRail/green-code-fx/internal/effect/typing"
	"github.com/TheThirdRail/green-code-fx/internal/encode"
	"github.com/TheThirdRail/green-code-fx/internal/fontres"
	"github.com/TheThirdRail/green-code-fx/internal/frames"
	"github.com/TheThirdRail/green-code-fx/internal/model"
	"github.com/TheThirdRail/green-code-fx/internal/render"
	"github.com/TheThirdRail/green-code-fx/internal/store"
	"github.com/TheThirdRail/green-code-fx/internal/text"
	"github.com/TheThirdRail/green-code-fx/internal/timing"
)

const leftMargin = 10

// Generator renders effect jobs. Each job owns its session, frame buffer,
// and sink exclusively; a Generator may be reused across jobs sequentially.
type Generator struct {
	logger    *slog.Logger
	collector timing.Collector
	assembler *encode.Assembler
	history   *store.Store

	tempDir   string
	outputDir string
	fontsDir  string
}

// New constructs a Generator. history may be nil to skip record keeping;
// collector may be nil to disable timing.
func New(logger *slog.Logger, collector timing.Collector, assembler *encode.Assembler, history *store.Store, tempDir, outputDir, fontsDir string) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = timing.Nop{}
	}
	return &Generator{
		logger:    logger,
		collector: collector,
		assembler: assembler,
		history:   history,
		tempDir:   tempDir,
		outputDir: outputDir,
		fontsDir:  fontsDir,
	}
}

// TypingJob bundles the inputs of one typing-effect job.
type TypingJob struct {
	JobID    string
	RawText  string
	Spans    []model.Span
	Options  model.TypingOptions
	FontPath string
	Format   string
	Progress func(percent int)
}

// RainJob bundles the inputs of one rain-effect job.
type RainJob struct {
	JobID    string
	Options  model.RainOptions
	FontPath string
	Format   string
	Progress func(percent int)
}

type typingEffect struct {
	session    *typing.Session
	compositor *render.TypingCompositor
}

func (e *typingEffect) Step()                 { e.session.Step() }
func (e *typingEffect) Paint(f *render.Frame) { e.compositor.Paint(e.session, f) }

type rainEffect struct {
	engine     *rain.Engine
	compositor *render.RainCompositor
}

func (e *rainEffect) Step()                 { e.engine.Step() }
func (e *rainEffect) Paint(f *render.Frame) { e.compositor.Paint(e.engine, f) }

// GenerateTyping renders a typing-effect job and returns the output path.
func (g *Generator) GenerateTyping(ctx context.Context, job TypingJob) (string, error) {
	opts := job.Options
	started := time.Now()
	totalFrames := opts.DurationSeconds * opts.FPS
	if opts.DurationSeconds <= 0 {
		return "", g.record(ctx, job.JobID, "typing", opts.Width, opts.Height, opts.FPS, 0, started, "",
			fmt.Errorf("duration must be > 0 seconds, got %d", opts.DurationSeconds))
	}

	var resolved *fontres.Font
	var face font.Face
	err := timing.Measure(g.collector, timing.OpLoadFont, 0, func() error {
		var rerr error
		if resolved, rerr = fontres.Resolve(job.FontPath, "jetbrains", g.fontsDir); rerr != nil {
			return rerr
		}
		face, rerr = resolved.Face(opts.FontSize)
		return rerr
	})
	if err != nil {
		return "", g.record(ctx, job.JobID, "typing", opts.Width, opts.Height, opts.FPS, 0, started, "", err)
	}
	g.logger.Info("font resolved", "job", job.JobID, "origin", resolved.Origin.String(), "path", resolved.Path)

	var lines []string
	var spans []model.Span
	_ = timing.Measure(g.collector, timing.OpLoadText, 0, func() error {
		lines, spans = prepareText(job.RawText, job.Spans, face, opts.Width)
		return nil
	})

	rng := rand.New(rand.NewSource(seedOrNow(opts.Seed)))
	compositor := render.NewTypingCompositor(lines, spans, face, opts.FontSize, opts.TextColor, opts.Background)
	session, err := typing.NewSession(lines, opts, compositor.LineHeight(), rng)
	if err != nil {
		return "", g.record(ctx, job.JobID, "typing", opts.Width, opts.Height, opts.FPS, 0, started, "", err)
	}

	outputPath, err := g.run(ctx, job.JobID, "typing",
		&typingEffect{session: session, compositor: compositor},
		opts.Width, opts.Height, opts.FPS, totalFrames, job.Format, job.Progress)
	return outputPath, g.record(ctx, job.JobID, "typing", opts.Width, opts.Height, opts.FPS, totalFrames, started, outputPath, err)
}

// GenerateRain renders a rain-effect job and returns the output path.
func (g *Generator) GenerateRain(ctx context.Context, job RainJob) (string, error) {
	opts := job.Options
	started := time.Now()
	totalFrames := opts.DurationSeconds * opts.FPS
	if opts.DurationSeconds <= 0 {
		return "", g.record(ctx, job.JobID, "rain", opts.Width, opts.Height, opts.FPS, 0, started, "",
			fmt.Errorf("duration must be > 0 seconds, got %d", opts.DurationSeconds))
	}
	if opts.FPS <= 0 {
		return "", g.record(ctx, job.JobID, "rain", opts.Width, opts.Height, opts.FPS, 0, started, "",
			fmt.Errorf("fps must be > 0, got %d", opts.FPS))
	}

	var resolved *fontres.Font
	faces := make(map[int]font.Face, len(opts.FontTiers))
	err := timing.Measure(g.collector, timing.OpLoadFont, 0, func() error {
		var rerr error
		if resolved, rerr = fontres.Resolve(job.FontPath, "matrix", g.fontsDir); rerr != nil {
			return rerr
		}
		for _, tier := range opts.FontTiers {
			face, ferr := resolved.Face(tier)
			if ferr != nil {
				return ferr
			}
			faces[tier] = face
		}
		return nil
	})
	if err != nil {
		return "", g.record(ctx, job.JobID, "rain", opts.Width, opts.Height, opts.FPS, 0, started, "", err)
	}
	g.logger.Info("font resolved", "job", job.JobID, "origin", resolved.Origin.String(), "path", resolved.Path)

	rng := rand.New(rand.NewSource(seedOrNow(opts.Seed)))
	engine, err := rain.NewEngine(opts, rng)
	if err != nil {
		return "", g.record(ctx, job.JobID, "rain", opts.Width, opts.Height, opts.FPS, 0, started, "", err)
	}
	compositor := render.NewRainCompositor(faces, opts.Color, opts.HeadColor, opts.Background, opts.Height)

	outputPath, err := g.run(ctx, job.JobID, "rain",
		&rainEffect{engine: engine, compositor: compositor},
		opts.Width, opts.Height, opts.FPS, totalFrames, job.Format, job.Progress)
	return outputPath, g.record(ctx, job.JobID, "rain", opts.Width, opts.Height, opts.FPS, totalFrames, started, outputPath, err)
}

// run drives the tick loop into a PNG directory sink and assembles the
// requested output format.
func (g *Generator) run(ctx context.Context, jobID, effect string, eff driver.Effect, width, height, fps, totalFrames int, format string, progress func(int)) (string, error) {
	frame, err := render.NewFrame(width, height)
	if err != nil {
		return "", err
	}
	sink, err := frames.NewDirSink(filepath.Join(g.tempDir, jobID+"_frames"))
	if err != nil {
		return "", err
	}

	g.logger.Info("render started", "job", jobID, "effect", effect,
		"resolution", fmt.Sprintf("%dx%d", width, height), "fps", fps, "frames", totalFrames)

	err = timing.Measure(g.collector, timing.OpRenderLoop, 0, func() error {
		return driver.Run(ctx, eff, driver.Options{
			Frames:    totalFrames,
			FPS:       fps,
			Frame:     frame,
			Sink:      sink,
			Progress:  progress,
			Collector: g.collector,
		})
	})
	if err != nil {
		return "", err
	}

	outputPath, err := g.assemble(ctx, jobID, effect, sink, fps, format)
	if err != nil {
		return "", err
	}
	g.logger.Info("render completed", "job", jobID, "effect", effect, "output", outputPath)
	return outputPath, nil
}

func (g *Generator) assemble(ctx context.Context, jobID, effect string, sink *frames.DirSink, fps int, format string) (string, error) {
	switch format {
	case "png", "":
		// Keep the raw frame sequence.
		return sink.Dir(), nil
	case "mp4":
		out := filepath.Join(g.outputDir, fmt.Sprintf("%s_%s.mp4", jobID, effect))
		err := timing.Measure(g.collector, timing.OpEncode, 0, func() error {
			return g.assembler.MP4(ctx, sink.Dir(), out, fps)
		})
		if err != nil {
			return "", err
		}
		if err := sink.Remove(); err != nil {
			return "", err
		}
		return out, nil
	case "gif":
		out := filepath.Join(g.outputDir, fmt.Sprintf("%s_%s.gif", jobID, effect))
		err := timing.Measure(g.collector, timing.OpEncode, 0, func() error {
			return g.assembler.GIF(ctx, sink.Dir(), out, fps)
		})
		if err != nil {
			return "", err
		}
		if err := sink.Remove(); err != nil {
			return "", err
		}
		return out, nil
	default:
		return "", fmt.Errorf("unknown output format %q", format)
	}
}

// record writes the outcome to the history store and returns err unchanged.
func (g *Generator) record(ctx context.Context, jobID, effect string, width, height, fps, totalFrames int, started time.Time, outputPath string, err error) error {
	if g.history == nil {
		return err
	}
	ended := time.Now()
	rec := model.RenderRecord{
		JobID:      jobID,
		Effect:     effect,
		Width:      width,
		Height:     height,
		FPS:        fps,
		Frames:     totalFrames,
		StartedAt:  started,
		EndedAt:    ended,
		DurationMs: ended.Sub(started).Milliseconds(),
		OutputPath: outputPath,
		Success:    err == nil,
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if _, ierr := g.history.InsertRender(ctx, rec); ierr != nil {
		g.logger.Warn("failed to record render history", "job", jobID, "error", ierr)
	}
	return err
}

// prepareText normalizes and wraps the raw text to the viewport column
// budget using the face's advance for a reference glyph.
func prepareText(raw string, spans []model.Span, face font.Face, width int) ([]string, []model.Span) {
	lines := text.NormalizeLines(raw, 4)
	advance := font.MeasureString(face, "0").Ceil()
	if advance > 0 {
		maxCols := (width - 2*leftMargin) / advance
		wrapped := text.WrapLines(lines, maxCols)
		if len(wrapped) != len(lines) {
			// Wrapping shifts character offsets; externally supplied spans
			// no longer line up, so fall back to the default color.
			spans = nil
		}
		lines = wrapped
	}
	return lines, spans
}

func seedOrNow(seed int64) int64 {
	if seed != 0 {
		return seed
	}
	return time.Now().UnixNano()
}
