// Package rain implements the matrix rain column simulation.
package rain

import (
	"fmt"
	"math/rand"

	"github.com/TheThirdRail/green-code-fx/internal/model"
)

// Glyph is one falling character entity. Entities age independently of the
// column head, which is what keeps a trail falling after the head resets.
type Glyph struct {
	Char rune
	// Row is a fractional cell index; the pixel row is Row times the
	// column's tier font size.
	Row float64
}

// Column is one vertical lane of falling glyphs.
type Column struct {
	X    int
	Tier int

	head   float64
	glyphs []Glyph
}

// Head returns the fractional row of the column's leading edge.
func (c *Column) Head() float64 {
	return c.head
}

// Glyphs returns the live entities of the column in spawn order.
func (c *Column) Glyphs() []Glyph {
	return c.glyphs
}

// Engine drives every column one tick at a time.
type Engine struct {
	columns  []Column
	symbols  []rune
	speed    float64
	spawnP   float64
	height   int
	variance int
	rng      *rand.Rand
}

// NewEngine validates the options and lays out one column per horizontal
// lane, each with a fixed x position and depth tier.
func NewEngine(opts model.RainOptions, rng *rand.Rand) (*Engine, error) {
	if err := validate(opts); err != nil {
		return nil, err
	}

	count := opts.Width / opts.ColumnSpacing
	columns := make([]Column, 0, count)
	for i := 0; i < count; i++ {
		columns = append(columns, Column{
			X:    i * opts.ColumnSpacing,
			Tier: opts.FontTiers[rng.Intn(len(opts.FontTiers))],
			head: -rng.Float64() * 20,
		})
	}
	return &Engine{
		columns:  columns,
		symbols:  opts.SymbolSet,
		speed:    opts.Speed,
		spawnP:   opts.SpawnProb,
		height:   opts.Height,
		variance: opts.ResetVariancePx,
		rng:      rng,
	}, nil
}

func validate(opts model.RainOptions) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if opts.ColumnSpacing <= 0 {
		return fmt.Errorf("column spacing must be > 0, got %d", opts.ColumnSpacing)
	}
	if len(opts.FontTiers) == 0 {
		return fmt.Errorf("at least one font tier is required")
	}
	for _, tier := range opts.FontTiers {
		if tier <= 0 {
			return fmt.Errorf("font tiers must be > 0, got %d", tier)
		}
	}
	if opts.Speed <= 0 {
		return fmt.Errorf("speed must be > 0, got %v", opts.Speed)
	}
	if opts.SpawnProb < 0 || opts.SpawnProb > 1 {
		return fmt.Errorf("spawn probability must be within [0, 1], got %v", opts.SpawnProb)
	}
	if opts.ResetVariancePx < 0 {
		return fmt.Errorf("reset variance must be >= 0, got %d", opts.ResetVariancePx)
	}
	if len(opts.SymbolSet) == 0 {
		return fmt.Errorf("symbol set must not be empty")
	}
	return nil
}

// Columns returns the simulated columns.
func (e *Engine) Columns() []Column {
	return e.columns
}

// Step advances every column by one tick. Columns spawn, advance, and reset
// independently of each other, so the overall cascade never falls into a
// visible repeat.
func (e *Engine) Step() {
	bound := float64(e.height + e.variance)
	for i := range e.columns {
		col := &e.columns[i]
		tier := float64(col.Tier)

		if e.rng.Float64() < e.spawnP {
			col.glyphs = append(col.glyphs, Glyph{
				Char: e.symbols[e.rng.Intn(len(e.symbols))],
				Row:  col.head,
			})
		}
		col.head += e.speed

		live := col.glyphs[:0]
		for _, g := range col.glyphs {
			g.Row += e.speed
			if g.Row*tier <= bound {
				live = append(live, g)
			}
		}
		col.glyphs = live

		if col.head*tier > bound {
			// Per-column reset: relocate the head above the viewport and
			// drop the trail all at once.
			col.head = -e.rng.Float64() * 20
			col.glyphs = col.glyphs[:0]
		}
	}
}
