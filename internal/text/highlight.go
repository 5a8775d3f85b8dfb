package text

import (
	"image/color"
	"sort"

	"github.com/TheThirdRail/green-code-fx/internal/model"
)

// Segment is a run of same-colored characters within one line.
type Segment struct {
	Text  string
	Color color.RGBA
}

// LineStarts returns the rune offset of each line within the joined text,
// counting one rune per newline separator.
func LineStarts(lines []string) []int {
	starts := make([]int, len(lines))
	offset := 0
	for i, line := range lines {
		starts[i] = offset
		offset += len([]rune(line)) + 1
	}
	return starts
}

// LineSegments slices the highlight spans overlapping one line into ordered
// segments covering the full line. Characters outside every span get the
// fallback color.
func LineSegments(line string, lineStart int, spans []model.Span, fallback color.RGBA) []Segment {
	runes := []rune(line)
	if len(runes) == 0 {
		return nil
	}
	lineEnd := lineStart + len(runes)

	type piece struct {
		start, end int
		color      color.RGBA
	}
	var pieces []piece
	for _, span := range spans {
		if span.Start >= lineEnd || span.End <= lineStart {
			continue
		}
		start := span.Start
		if start < lineStart {
			start = lineStart
		}
		end := span.End
		if end > lineEnd {
			end = lineEnd
		}
		if start < end {
			pieces = append(pieces, piece{start: start - lineStart, end: end - lineStart, color: span.Color})
		}
	}
	sort.Slice(pieces, func(i, j int) bool { return pieces[i].start < pieces[j].start })

	var segs []Segment
	cursor := 0
	for _, p := range pieces {
		if p.end <= cursor {
			continue
		}
		if p.start > cursor {
			segs = append(segs, Segment{Text: string(runes[cursor:p.start]), Color: fallback})
			cursor = p.start
		}
		start := p.start
		if start < cursor {
			start = cursor
		}
		segs = append(segs, Segment{Text: string(runes[start:p.end]), Color: p.color})
		cursor = p.end
	}
	if cursor < len(runes) {
		segs = append(segs, Segment{Text: string(runes[cursor:]), Color: fallback})
	}
	return segs
}
