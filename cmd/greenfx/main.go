// Package main provides the CLI entrypoint for greenfx.
package main

import (
	"bufio"
	"context"
	"fmt"
	"image/color"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/TheThirdRail/green-code-fx/internal/config"
	"github.com/TheThirdRail/green-code-fx/internal/encode"
	"github.com/TheThirdRail/green-code-fx/internal/generator"
	"github.com/TheThirdRail/green-code-fx/internal/model"
	"github.com/TheThirdRail/green-code-fx/internal/progressui"
	"github.com/TheThirdRail/green-code-fx/internal/store"
	"github.com/TheThirdRail/green-code-fx/internal/timing"
)

const (
	defaultResolution = "4k"
	defaultFPS        = 60
	defaultDuration   = 15
	defaultFormat     = "mp4"

	defaultWPM             = 150
	defaultFontSize        = 32
	defaultTextColor       = "#00FF00"
	defaultTypoProbability = 0.05
	defaultErrorDelay      = 0.5
	defaultBlinkHz         = 1.0
	defaultPauseSeconds    = 2.0
	defaultFadeFrames      = 30
	defaultScrollThreshold = 92

	defaultColumnSpacing = 16
	defaultRainSpeed     = 0.4
	defaultSpawnProb     = 0.8
	defaultResetVariance = 200
)

const defaultSymbolSet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ$+-*/=%\"'#&_(),.;:?!<>[]{}|^~"

var defaultFontTiers = []int{16, 32, 48}

var (
	commonResolution string
	commonFPS        int
	commonDuration   int
	commonFormat     string
	commonOutputDir  string
	commonSeed       int64
	commonQuiet      bool
	commonTimings    bool

	typingFile      string
	typingText      string
	typingSpansFile string
	typingWPM       int
	typingFontSize  int
	typingFontPath  string
	typingColor     string
	typingTypoProb  float64
	typingErrDelay  float64
	typingBlinkHz   float64
	typingPause     float64
	typingFade      int
	typingScroll    int

	rainSpacing  int
	rainSpeed    float64
	rainSpawn    float64
	rainVariance int
	rainSymbols  string
	rainFontPath string

	historyEffect string
	historySince  string
	historyLast   int
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "greenfx",
		Short:         "Chroma-key code effect video generator",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVar(&commonResolution, "resolution", defaultResolution, "video resolution (1080p, 1440p, 4k)")
	rootCmd.PersistentFlags().IntVar(&commonFPS, "fps", defaultFPS, "frame rate")
	rootCmd.PersistentFlags().IntVar(&commonDuration, "duration", defaultDuration, "video duration in seconds")
	rootCmd.PersistentFlags().StringVar(&commonFormat, "format", defaultFormat, "output format (mp4, gif, png)")
	rootCmd.PersistentFlags().StringVar(&commonOutputDir, "output-dir", "", "output directory (default: XDG data dir)")
	rootCmd.PersistentFlags().Int64Var(&commonSeed, "seed", 0, "random seed (0 = time-based)")
	rootCmd.PersistentFlags().BoolVar(&commonQuiet, "quiet", false, "disable the progress bar")
	rootCmd.PersistentFlags().BoolVar(&commonTimings, "timings", false, "print a pipeline timing summary")

	rootCmd.AddCommand(newTypingCmd())
	rootCmd.AddCommand(newRainCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

func newTypingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "typing",
		Short: "Generate the code-typing effect",
		Args:  cobra.NoArgs,
		RunE:  runTypingCmd,
	}
	cmd.Flags().StringVar(&typingFile, "file", "", "source text file to type")
	cmd.Flags().StringVar(&typingText, "text", "", "literal text to type (overrides --file)")
	cmd.Flags().StringVar(&typingSpansFile, "spans", "", "highlight span file (start end #RRGGBB per line)")
	cmd.Flags().IntVar(&typingWPM, "wpm", defaultWPM, "typing speed in words per minute")
	cmd.Flags().IntVar(&typingFontSize, "font-size", defaultFontSize, "font size in pixels")
	cmd.Flags().StringVar(&typingFontPath, "font-path", "", "TTF font file")
	cmd.Flags().StringVar(&typingColor, "text-color", defaultTextColor, "text color (#RRGGBB)")
	cmd.Flags().Float64Var(&typingTypoProb, "typo-probability", defaultTypoProbability, "chance of a typo per line (0-0.2)")
	cmd.Flags().Float64Var(&typingErrDelay, "error-delay", defaultErrorDelay, "seconds before correcting a typo (0-5)")
	cmd.Flags().Float64Var(&typingBlinkHz, "cursor-blink-hz", defaultBlinkHz, "cursor blink frequency")
	cmd.Flags().Float64Var(&typingPause, "pause-seconds", defaultPauseSeconds, "hold before the loop fade")
	cmd.Flags().IntVar(&typingFade, "fade-frames", defaultFadeFrames, "fade-to-black length in frames")
	cmd.Flags().IntVar(&typingScroll, "scroll-threshold", defaultScrollThreshold, "visible line cap before scrolling")
	return cmd
}

func runTypingCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "resolution", &commonResolution, fileCfg.Video.Resolution)
	applyIntConfig(cmd, "fps", &commonFPS, fileCfg.Video.FPS)
	applyIntConfig(cmd, "duration", &commonDuration, fileCfg.Video.Duration)
	applyStringConfig(cmd, "format", &commonFormat, fileCfg.Video.Format)
	applyStringConfig(cmd, "output-dir", &commonOutputDir, fileCfg.Video.OutputDir)
	applyIntConfig(cmd, "wpm", &typingWPM, fileCfg.Typing.WPM)
	applyIntConfig(cmd, "font-size", &typingFontSize, fileCfg.Typing.FontSize)
	applyStringConfig(cmd, "font-path", &typingFontPath, fileCfg.Typing.FontPath)
	applyStringConfig(cmd, "text-color", &typingColor, fileCfg.Typing.TextColor)
	applyFloatConfig(cmd, "typo-probability", &typingTypoProb, fileCfg.Typing.TypoProbability)
	applyFloatConfig(cmd, "error-delay", &typingErrDelay, fileCfg.Typing.ErrorDelay)
	applyFloatConfig(cmd, "cursor-blink-hz", &typingBlinkHz, fileCfg.Typing.CursorBlinkHz)
	applyFloatConfig(cmd, "pause-seconds", &typingPause, fileCfg.Typing.PauseSeconds)
	applyIntConfig(cmd, "fade-frames", &typingFade, fileCfg.Typing.FadeFrames)
	applyIntConfig(cmd, "scroll-threshold", &typingScroll, fileCfg.Typing.ScrollThreshold)

	width, height, err := resolutionDimensions(commonResolution)
	if err != nil {
		return err
	}
	textColor, err := parseHexColor(typingColor)
	if err != nil {
		return fmt.Errorf("invalid --text-color: %w", err)
	}

	raw, err := loadSourceText()
	if err != nil {
		return err
	}
	spans, err := loadSpans(typingSpansFile)
	if err != nil {
		return err
	}

	opts := model.TypingOptions{
		Width:           width,
		Height:          height,
		FPS:             commonFPS,
		DurationSeconds: commonDuration,
		WPM:             typingWPM,
		TypoProbability: typingTypoProb,
		ErrorDelaySec:   typingErrDelay,
		CursorBlinkHz:   typingBlinkHz,
		PauseSeconds:    typingPause,
		FadeFrames:      typingFade,
		ScrollThreshold: typingScroll,
		FontSize:        typingFontSize,
		TextColor:       textColor,
		Background:      color.RGBA{A: 255},
		Seed:            commonSeed,
	}

	jobID := newJobID("typing")
	return runJob(jobID, "typing effect", func(ctx context.Context, gen *generator.Generator, progress func(int)) (string, error) {
		return gen.GenerateTyping(ctx, generator.TypingJob{
			JobID:    jobID,
			RawText:  raw,
			Spans:    spans,
			Options:  opts,
			FontPath: typingFontPath,
			Format:   commonFormat,
			Progress: progress,
		})
	})
}

func newRainCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rain",
		Short: "Generate the matrix rain effect",
		Args:  cobra.NoArgs,
		RunE:  runRainCmd,
	}
	cmd.Flags().IntVar(&rainSpacing, "column-spacing", defaultColumnSpacing, "horizontal pixels between columns")
	cmd.Flags().Float64Var(&rainSpeed, "speed", defaultRainSpeed, "fall speed in rows per tick")
	cmd.Flags().Float64Var(&rainSpawn, "spawn-probability", defaultSpawnProb, "per-tick glyph spawn probability (0-1)")
	cmd.Flags().IntVar(&rainVariance, "reset-variance", defaultResetVariance, "extra pixels past the bottom before reset")
	cmd.Flags().StringVar(&rainSymbols, "symbol-set", defaultSymbolSet, "characters used for rain glyphs")
	cmd.Flags().StringVar(&rainFontPath, "font-path", "", "TTF font file")
	return cmd
}

func runRainCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "resolution", &commonResolution, fileCfg.Video.Resolution)
	applyIntConfig(cmd, "fps", &commonFPS, fileCfg.Video.FPS)
	applyIntConfig(cmd, "duration", &commonDuration, fileCfg.Video.Duration)
	applyStringConfig(cmd, "format", &commonFormat, fileCfg.Video.Format)
	applyStringConfig(cmd, "output-dir", &commonOutputDir, fileCfg.Video.OutputDir)
	applyIntConfig(cmd, "column-spacing", &rainSpacing, fileCfg.Rain.ColumnSpacing)
	applyFloatConfig(cmd, "speed", &rainSpeed, fileCfg.Rain.Speed)
	applyFloatConfig(cmd, "spawn-probability", &rainSpawn, fileCfg.Rain.SpawnProb)
	applyIntConfig(cmd, "reset-variance", &rainVariance, fileCfg.Rain.ResetVariance)
	applyStringConfig(cmd, "symbol-set", &rainSymbols, fileCfg.Rain.SymbolSet)
	applyStringConfig(cmd, "font-path", &rainFontPath, fileCfg.Rain.FontPath)

	width, height, err := resolutionDimensions(commonResolution)
	if err != nil {
		return err
	}

	opts := model.RainOptions{
		Width:           width,
		Height:          height,
		FPS:             commonFPS,
		DurationSeconds: commonDuration,
		FontTiers:       defaultFontTiers,
		ColumnSpacing:   rainSpacing,
		Speed:           rainSpeed,
		ResetVariancePx: rainVariance,
		SpawnProb:       rainSpawn,
		SymbolSet:       []rune(rainSymbols),
		Color:           color.RGBA{G: 255, A: 255},
		HeadColor:       color.RGBA{R: 191, G: 255, A: 255},
		Background:      color.RGBA{A: 255},
		Seed:            commonSeed,
	}

	jobID := newJobID("rain")
	return runJob(jobID, "matrix rain", func(ctx context.Context, gen *generator.Generator, progress func(int)) (string, error) {
		return gen.GenerateRain(ctx, generator.RainJob{
			JobID:    jobID,
			Options:  opts,
			FontPath: rainFontPath,
			Format:   commonFormat,
			Progress: progress,
		})
	})
}

// runJob wires the generator with its collaborators and runs fn with either
// the progress bar UI or plain log output.
func runJob(jobID, title string, fn func(context.Context, *generator.Generator, func(int)) (string, error)) error {
	logger := slog.Default()

	outputDir := commonOutputDir
	if outputDir == "" {
		outputDir = config.DefaultOutputDir()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	var history *store.Store
	if st, err := store.Open(config.DefaultDBPath()); err != nil {
		logger.Warn("render history disabled", "error", err)
	} else {
		history = st
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logger.Warn("failed to close history db", "error", cerr)
			}
		}()
	}

	var collector timing.Collector
	var memory *timing.Memory
	if commonTimings {
		memory = timing.NewMemory()
		collector = memory
	}

	gen := generator.New(logger, collector, encode.NewAssembler("", logger), history,
		config.DefaultTempDir(), outputDir, config.DefaultFontsDir())

	ctx := context.Background()
	var outPath string
	var genErr error

	if commonQuiet || !term.IsTerminal(int(os.Stdout.Fd())) {
		outPath, genErr = fn(ctx, gen, func(percent int) {
			logger.Info("progress", "job", jobID, "percent", percent)
		})
	} else {
		ui := progressui.NewModel(title)
		program := tea.NewProgram(ui)
		go func() {
			outPath, genErr = fn(ctx, gen, func(percent int) {
				program.Send(progressui.PercentMsg(percent))
			})
			program.Send(progressui.DoneMsg{Err: genErr})
		}()
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run progress UI: %w", err)
		}
	}

	if memory != nil {
		printTimings(memory)
	}
	if genErr != nil {
		return fmt.Errorf("generation failed: %w", genErr)
	}
	fmt.Println(outPath)
	return nil
}

func printTimings(memory *timing.Memory) {
	for _, s := range memory.Summary() {
		fmt.Fprintf(os.Stderr, "%-12s count=%-6d total=%-12s max=%s\n", s.Op, s.Count, s.Total, s.Max)
	}
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past renders",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyEffect, "effect", "", "effect filter (typing, rain)")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N renders")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	var sinceTime *time.Time
	if historySince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", historySince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			slog.Warn("failed to close history db", "error", cerr)
		}
	}()

	records, err := st.ListRenders(context.Background(), model.HistoryFilter{
		Effect: historyEffect,
		Since:  sinceTime,
		Last:   historyLast,
	})
	if err != nil {
		return fmt.Errorf("failed to list renders: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no renders recorded")
		return nil
	}

	w := bufio.NewWriter(cmd.OutOrStdout())
	for _, rec := range records {
		status := "ok"
		if !rec.Success {
			status = "failed: " + rec.Error
		}
		fmt.Fprintf(w, "%s  %-6s  %dx%d@%d  %d frames  %s  %s  %s\n",
			rec.EndedAt.Format("2006-01-02 15:04"),
			rec.Effect, rec.Width, rec.Height, rec.FPS, rec.Frames,
			(time.Duration(rec.DurationMs) * time.Millisecond).String(),
			rec.OutputPath, status)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func loadSourceText() (string, error) {
	if typingText != "" {
		return typingText, nil
	}
	if typingFile == "" {
		return "", fmt.Errorf("either --file or --text is required")
	}
	data, err := os.ReadFile(typingFile)
	if err != nil {
		return "", fmt.Errorf("failed to read source file: %w", err)
	}
	return string(data), nil
}

// loadSpans reads externally computed highlight spans, one "start end
// #RRGGBB" triple per line. Blank lines and #-comments are skipped.
func loadSpans(path string) ([]model.Span, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read spans file: %w", err)
	}
	var spans []model.Span
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 3 {
			return nil, fmt.Errorf("spans file line %d: expected 'start end color', got %q", i+1, line)
		}
		start, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("spans file line %d: invalid start: %w", i+1, err)
		}
		end, err := strconv.Atoi(fields[1])
		if err != nil {
			return nil, fmt.Errorf("spans file line %d: invalid end: %w", i+1, err)
		}
		c, err := parseHexColor(fields[2])
		if err != nil {
			return nil, fmt.Errorf("spans file line %d: %w", i+1, err)
		}
		spans = append(spans, model.Span{Start: start, End: end, Color: c})
	}
	return spans, nil
}

func parseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{}, fmt.Errorf("color must be #RRGGBB, got %q", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.RGBA{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
		A: 255,
	}, nil
}

func resolutionDimensions(resolution string) (int, int, error) {
	switch strings.ToLower(resolution) {
	case "1080p":
		return 1920, 1080, nil
	case "1440p":
		return 2560, 1440, nil
	case "4k":
		return 3840, 2160, nil
	default:
		return 0, 0, fmt.Errorf("unknown resolution %q (want 1080p, 1440p, or 4k)", resolution)
	}
}

func newJobID(effect string) string {
	return fmt.Sprintf("%s_%s", effect, time.Now().Format("20060102_150405"))
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# greenfx configuration
# Uncomment a value to enable it. CLI flags override config values.

[video]
# resolution = %q       # 1080p, 1440p, or 4k
# fps = %d
# duration = %d         # seconds
# format = %q           # mp4, gif, or png
# output-dir = ""

[typing]
# wpm = %d
# font-size = %d
# font-path = ""
# text-color = %q
# typo-probability = %.2f
# error-delay = %.1f    # seconds
# cursor-blink-hz = %.1f
# pause-seconds = %.1f
# fade-frames = %d
# scroll-threshold = %d

[rain]
# column-spacing = %d
# speed = %.1f          # rows per tick
# spawn-probability = %.1f
# reset-variance = %d   # pixels
# symbol-set = %q
# font-path = ""
`,
		defaultResolution,
		defaultFPS,
		defaultDuration,
		defaultFormat,
		defaultWPM,
		defaultFontSize,
		defaultTextColor,
		defaultTypoProbability,
		defaultErrorDelay,
		defaultBlinkHz,
		defaultPauseSeconds,
		defaultFadeFrames,
		defaultScrollThreshold,
		defaultColumnSpacing,
		defaultRainSpeed,
		defaultSpawnProb,
		defaultResetVariance,
		defaultSymbolSet,
	)
}
