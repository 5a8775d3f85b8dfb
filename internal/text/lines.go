// Package text prepares source text for frame rendering.
package text

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// NormalizeLines splits raw text into render-ready lines: CRLF endings are
// unified, tabs expanded to spaces, and trailing whitespace stripped.
func NormalizeLines(raw string, tabWidth int) []string {
	if tabWidth <= 0 {
		tabWidth = 4
	}
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	lines := strings.Split(raw, "\n")
	out := make([]string, len(lines))
	for i, line := range lines {
		line = expandTabs(line, tabWidth)
		out[i] = strings.TrimRight(line, " \t")
	}
	// Drop trailing blank lines so an idle caret does not trail the content.
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return out
}

func expandTabs(line string, tabWidth int) string {
	if !strings.ContainsRune(line, '\t') {
		return line
	}
	var b strings.Builder
	col := 0
	for _, r := range line {
		if r == '\t' {
			n := tabWidth - col%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}

// WrapLines hard-wraps lines that exceed maxCols display cells, breaking at
// the last space when one is available. maxCols <= 0 disables wrapping.
func WrapLines(lines []string, maxCols int) []string {
	if maxCols <= 0 {
		return lines
	}
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		out = append(out, wrapLine(line, maxCols)...)
	}
	return out
}

func wrapLine(line string, maxCols int) []string {
	if lineWidth(line) <= maxCols {
		return []string{line}
	}
	var parts []string
	current := make([]rune, 0, maxCols)
	currentWidth := 0
	lastSpace := -1
	for _, r := range line {
		w := runewidth.RuneWidth(r)
		if currentWidth+w > maxCols && len(current) > 0 {
			if lastSpace >= 0 {
				parts = append(parts, string(current[:lastSpace]))
				current = append([]rune{}, current[lastSpace+1:]...)
			} else {
				parts = append(parts, string(current))
				current = current[:0]
			}
			currentWidth = 0
			for _, cr := range current {
				currentWidth += runewidth.RuneWidth(cr)
			}
			lastSpace = -1
			for i, cr := range current {
				if cr == ' ' {
					lastSpace = i
				}
			}
		}
		current = append(current, r)
		currentWidth += w
		if r == ' ' {
			lastSpace = len(current) - 1
		}
	}
	if len(current) > 0 || len(parts) == 0 {
		parts = append(parts, string(current))
	}
	return parts
}

func lineWidth(line string) int {
	total := 0
	for _, r := range line {
		total += runewidth.RuneWidth(r)
	}
	return total
}
