// Package model defines shared data structures.
package model

import (
	"image/color"
	"time"
)

// TypingOptions defines parameters for the typing effect.
type TypingOptions struct {
	Width           int
	Height          int
	FPS             int
	DurationSeconds int
	WPM             int
	TypoProbability float64
	ErrorDelaySec   float64
	CursorBlinkHz   float64
	PauseSeconds    float64
	FadeFrames      int
	ScrollThreshold int
	FontSize        int
	TextColor       color.RGBA
	Background      color.RGBA
	Seed            int64
}

// RainOptions defines parameters for the matrix rain effect.
type RainOptions struct {
	Width           int
	Height          int
	FPS             int
	DurationSeconds int
	FontTiers       []int
	ColumnSpacing   int
	Speed           float64
	ResetVariancePx int
	SpawnProb       float64
	SymbolSet       []rune
	Color           color.RGBA
	HeadColor       color.RGBA
	Background      color.RGBA
	Seed            int64
}

// Span is an externally computed highlight region over the joined source
// text. Positions are rune offsets, half-open [Start, End).
type Span struct {
	Start int
	End   int
	Color color.RGBA
}

// RenderRecord captures one completed (or failed) generation for history.
type RenderRecord struct {
	JobID      string
	Effect     string
	Width      int
	Height     int
	FPS        int
	Frames     int
	StartedAt  time.Time
	EndedAt    time.Time
	DurationMs int64
	OutputPath string
	Success    bool
	Error      string
}

// HistoryFilter selects render records for listing.
type HistoryFilter struct {
	Effect string
	Since  *time.Time
	Last   int
}
