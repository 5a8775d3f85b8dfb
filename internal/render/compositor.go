package render

import (
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/TheThirdRail/green-code-fx/internal/effect/rain"
	"github.com/TheThirdRail/green-code-fx/internal/effect/typing"
	"github.com/TheThirdRail/green-code-fx/internal/model"
	"github.com/TheThirdRail/green-code-fx/internal/text"
)

const leftMargin = 10
const topMargin = 10

// TypingCompositor paints typing-session state. It holds only immutable draw
// inputs (face, colors, highlight spans); all animation state is read from
// the session each tick.
type TypingCompositor struct {
	face       font.Face
	lineHeight int
	ascent     int
	cursorW    int

	textColor  color.RGBA
	background color.RGBA

	spans      []model.Span
	lineStarts []int
}

// NewTypingCompositor prepares a compositor for the given line buffer and
// externally supplied highlight spans.
func NewTypingCompositor(lines []string, spans []model.Span, face font.Face, fontSize int, textColor, background color.RGBA) *TypingCompositor {
	metrics := face.Metrics()
	return &TypingCompositor{
		face:       face,
		lineHeight: metrics.Height.Ceil(),
		ascent:     metrics.Ascent.Ceil(),
		cursorW:    2,
		textColor:  textColor,
		background: background,
		spans:      spans,
		lineStarts: text.LineStarts(lines),
	}
}

// LineHeight returns the pixel height of one text row.
func (c *TypingCompositor) LineHeight() int {
	return c.lineHeight
}

// Paint renders one frame of the typing effect.
func (c *TypingCompositor) Paint(s *typing.Session, f *Frame) {
	f.Clear(c.background)

	y := topMargin + c.ascent
	visible := 0
	completed := s.CompletedLines()
	for i, line := range completed {
		if i < s.ScrollOffset() {
			continue
		}
		if visible >= s.Capacity() {
			break
		}
		c.drawLine(f, line, i, y)
		y += c.lineHeight
		visible++
	}

	if s.LineInProgress() && visible < s.Capacity() {
		display := s.DisplayLine()
		if display != "" {
			c.drawLine(f, display, s.LineIndex(), y)
		}
		if s.CursorVisible() {
			cursorX := leftMargin
			if display != "" {
				cursorX += font.MeasureString(c.face, display).Ceil()
			}
			f.FillRect(cursorX, y-c.ascent, c.cursorW, c.lineHeight, c.textColor)
		}
	}

	if alpha := s.FadeAlpha(); alpha > 0 {
		f.FadeToBlack(alpha)
	}
}

// drawLine paints one text row, switching colors at highlight-span
// boundaries and falling back to the default text color between spans.
func (c *TypingCompositor) drawLine(f *Frame, line string, lineIndex, baseline int) {
	start := 0
	if lineIndex < len(c.lineStarts) {
		start = c.lineStarts[lineIndex]
	}
	segments := text.LineSegments(line, start, c.spans, c.textColor)
	if segments == nil {
		segments = []text.Segment{{Text: line, Color: c.textColor}}
	}

	d := font.Drawer{
		Dst:  f.Image(),
		Face: c.face,
		Dot:  fixed.P(leftMargin, baseline),
	}
	for _, seg := range segments {
		d.Src = image.NewUniform(seg.Color)
		d.DrawString(seg.Text)
	}
}

// RainCompositor paints matrix-rain state using one face per depth tier.
type RainCompositor struct {
	faces      map[int]font.Face
	ascents    map[int]int
	color      color.RGBA
	headColor  color.RGBA
	background color.RGBA
	height     int
}

// NewRainCompositor prepares per-tier faces for the rain effect.
func NewRainCompositor(faces map[int]font.Face, glyphColor, headColor, background color.RGBA, height int) *RainCompositor {
	ascents := make(map[int]int, len(faces))
	for tier, face := range faces {
		ascents[tier] = face.Metrics().Ascent.Ceil()
	}
	return &RainCompositor{
		faces:      faces,
		ascents:    ascents,
		color:      glyphColor,
		headColor:  headColor,
		background: background,
		height:     height,
	}
}

// Paint renders one frame of the rain effect. Every live entity is drawn at
// its own row; the most recently spawned glyph of a column is the bright
// leading edge.
func (c *RainCompositor) Paint(e *rain.Engine, f *Frame) {
	f.Clear(c.background)

	for i := range e.Columns() {
		col := &e.Columns()[i]
		face, ok := c.faces[col.Tier]
		if !ok {
			continue
		}
		ascent := c.ascents[col.Tier]
		glyphs := col.Glyphs()
		for j, g := range glyphs {
			y := int(g.Row * float64(col.Tier))
			if y < -col.Tier || y > c.height+col.Tier {
				continue
			}
			src := c.color
			if j == len(glyphs)-1 {
				src = c.headColor
			}
			d := font.Drawer{
				Dst:  f.Image(),
				Src:  image.NewUniform(src),
				Face: face,
				Dot:  fixed.P(col.X, y+ascent),
			}
			d.DrawString(string(g.Char))
		}
	}
}
