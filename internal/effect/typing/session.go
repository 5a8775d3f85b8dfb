// Package typing implements the code-typing animation state machine.
package typing

import (
	"fmt"
	"math/rand"

	"github.com/TheThirdRail/green-code-fx/internal/model"
)

// InnerState is the typo-recovery sub-state, meaningful only while the loop
// state is LoopTyping.
type InnerState int

// Inner states.
const (
	InnerNormal InnerState = iota
	InnerPostTypo
	InnerBackspacing
	InnerCorrecting
)

// LoopState is the outer seamless-loop state.
type LoopState int

// Loop states.
const (
	LoopTyping LoopState = iota
	LoopPaused
	LoopFading
	LoopRestarting
)

// topMargin is the pixel gap above the first line; the scroll capacity
// reserves twice this at the viewport edges.
const topMargin = 10

const typoChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789" +
	"!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

type plannedTypo struct {
	pos   int
	wrong rune
}

// Session holds all mutable state for one typing animation job. It is owned
// by a single job and advanced one tick at a time via Step.
type Session struct {
	lines    [][]rune
	typoPlan map[int]plannedTypo

	completed []string
	lineIndex int
	charIndex int
	display   []rune

	inner              InnerState
	typoBuffer         []rune
	typoCorrect        rune
	typoErrorPos       int
	typoCountdown      int
	backspaceRemaining int
	correctionCursor   int

	scrollOffset int
	capacity     int

	cursorVisible bool
	blinkAccum    int
	blinkInterval int

	loop         LoopState
	pauseElapsed int
	fadeElapsed  int
	pauseFrames  int
	fadeFrames   int

	// Character cadence, decoupled from the frame clock: simulated elapsed
	// milliseconds accumulate per frame and fire character events whenever a
	// full interval has passed.
	charIntervalMs   float64
	charClockMs      float64
	frameMs          float64
	errorDelayFrames int
}

// NewSession validates the options, builds the typo plan, and returns a
// session ready for its first tick. The plan is sampled once from rng and
// stays fixed for the job so every loop repeats identically.
func NewSession(lines []string, opts model.TypingOptions, lineHeight int, rng *rand.Rand) (*Session, error) {
	if err := validate(opts, lineHeight); err != nil {
		return nil, err
	}

	runeLines := make([][]rune, len(lines))
	for i, line := range lines {
		runeLines[i] = []rune(line)
	}

	capacity := opts.ScrollThreshold
	if byHeight := (opts.Height - 2*topMargin) / lineHeight; byHeight < capacity {
		capacity = byHeight
	}
	if capacity < 1 {
		capacity = 1
	}

	blinkInterval := int(float64(opts.FPS) / (2 * opts.CursorBlinkHz))
	if blinkInterval < 1 {
		blinkInterval = 1
	}

	s := &Session{
		lines:            runeLines,
		typoPlan:         buildTypoPlan(runeLines, opts.TypoProbability, rng),
		capacity:         capacity,
		cursorVisible:    true,
		blinkInterval:    blinkInterval,
		pauseFrames:      int(opts.PauseSeconds * float64(opts.FPS)),
		fadeFrames:       opts.FadeFrames,
		charIntervalMs:   12000.0 / float64(opts.WPM),
		frameMs:          1000.0 / float64(opts.FPS),
		errorDelayFrames: int(opts.ErrorDelaySec * float64(opts.FPS)),
	}
	if len(runeLines) == 0 {
		// Degenerate input is a valid fast path, not a fault.
		s.loop = LoopPaused
	}
	return s, nil
}

func validate(opts model.TypingOptions, lineHeight int) error {
	if opts.Width <= 0 || opts.Height <= 0 {
		return fmt.Errorf("viewport must be positive, got %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return fmt.Errorf("fps must be > 0, got %d", opts.FPS)
	}
	if opts.WPM <= 0 {
		return fmt.Errorf("typing speed must be > 0 wpm, got %d", opts.WPM)
	}
	if opts.TypoProbability < 0 || opts.TypoProbability > 0.2 {
		return fmt.Errorf("typo probability must be within [0, 0.2], got %v", opts.TypoProbability)
	}
	if opts.ErrorDelaySec < 0 || opts.ErrorDelaySec > 5 {
		return fmt.Errorf("error delay must be within [0, 5] seconds, got %v", opts.ErrorDelaySec)
	}
	if opts.CursorBlinkHz <= 0 {
		return fmt.Errorf("cursor blink frequency must be > 0, got %v", opts.CursorBlinkHz)
	}
	if opts.PauseSeconds < 0 {
		return fmt.Errorf("pause must be >= 0 seconds, got %v", opts.PauseSeconds)
	}
	if opts.FadeFrames <= 0 {
		return fmt.Errorf("fade frames must be > 0, got %d", opts.FadeFrames)
	}
	if opts.ScrollThreshold <= 0 {
		return fmt.Errorf("scroll threshold must be > 0, got %d", opts.ScrollThreshold)
	}
	if lineHeight <= 0 {
		return fmt.Errorf("line height must be > 0, got %d", lineHeight)
	}
	return nil
}

// buildTypoPlan samples each eligible line once. Only lines longer than
// three characters can receive a typo, and the wrong character is guaranteed
// to differ from the correct one.
func buildTypoPlan(lines [][]rune, probability float64, rng *rand.Rand) map[int]plannedTypo {
	plan := make(map[int]plannedTypo)
	if probability <= 0 {
		return plan
	}
	chars := []rune(typoChars)
	for idx, line := range lines {
		if len(line) <= 3 {
			continue
		}
		if rng.Float64() >= probability {
			continue
		}
		pos := rng.Intn(len(line) - 1)
		wrong := chars[rng.Intn(len(chars))]
		for wrong == line[pos] {
			wrong = chars[rng.Intn(len(chars))]
		}
		plan[idx] = plannedTypo{pos: pos, wrong: wrong}
	}
	return plan
}

// Step advances the session by one tick (one output frame).
func (s *Session) Step() {
	switch s.loop {
	case LoopTyping:
		s.charClockMs += s.frameMs
		for s.charClockMs >= s.charIntervalMs && s.loop == LoopTyping {
			s.charClockMs -= s.charIntervalMs
			s.typeEvent()
		}
		s.updateScroll()
		if s.LineInProgress() {
			s.blinkAccum++
			if s.blinkAccum >= s.blinkInterval {
				s.cursorVisible = !s.cursorVisible
				s.blinkAccum = 0
			}
		}
	case LoopPaused:
		s.pauseElapsed++
		if s.pauseElapsed >= s.pauseFrames {
			s.loop = LoopFading
			s.fadeElapsed = 0
		}
	case LoopFading:
		s.fadeElapsed++
		if s.fadeElapsed >= s.fadeFrames {
			s.loop = LoopRestarting
		}
	case LoopRestarting:
		s.restart()
	}
}

// typeEvent handles one elapsed character interval.
func (s *Session) typeEvent() {
	if s.lineIndex >= len(s.lines) {
		// All lines consumed: stop the character timer and hold.
		s.loop = LoopPaused
		s.pauseElapsed = 0
		s.charClockMs = 0
		return
	}
	line := s.lines[s.lineIndex]

	switch s.inner {
	case InnerNormal:
		if s.charIndex < len(line) {
			if t, ok := s.typoPlan[s.lineIndex]; ok && t.pos == s.charIndex {
				s.display = append(s.display, t.wrong)
				s.typoCorrect = line[s.charIndex]
				s.typoErrorPos = s.charIndex
				s.charIndex++
				s.inner = InnerPostTypo
				s.typoCountdown = s.errorDelayFrames
				s.typoBuffer = s.typoBuffer[:0]
			} else {
				s.display = append(s.display, line[s.charIndex])
				s.charIndex++
			}
		}
	case InnerPostTypo:
		if s.charIndex < len(line) {
			s.display = append(s.display, line[s.charIndex])
			s.typoBuffer = append(s.typoBuffer, line[s.charIndex])
			s.charIndex++
		}
		// End-of-line wins over the countdown when both land on one tick.
		if s.charIndex >= len(line) {
			s.beginBackspacing()
		} else {
			s.typoCountdown--
			if s.typoCountdown <= 0 {
				s.beginBackspacing()
			}
		}
	case InnerBackspacing:
		if s.backspaceRemaining > 0 && len(s.display) > 0 {
			s.display = s.display[:len(s.display)-1]
			s.backspaceRemaining--
		}
		if s.backspaceRemaining <= 0 {
			s.inner = InnerCorrecting
			s.correctionCursor = 0
		}
	case InnerCorrecting:
		if s.correctionCursor == 0 {
			s.display = append(s.display, s.typoCorrect)
			s.correctionCursor++
		} else if s.correctionCursor <= len(s.typoBuffer) {
			s.display = append(s.display, s.typoBuffer[s.correctionCursor-1])
			s.correctionCursor++
		}
		if s.correctionCursor > len(s.typoBuffer) {
			s.inner = InnerNormal
			s.typoBuffer = s.typoBuffer[:0]
			s.typoCorrect = 0
		}
	}

	if s.inner == InnerNormal && s.charIndex >= len(line) {
		s.completed = append(s.completed, string(s.display))
		s.display = s.display[:0]
		s.charIndex = 0
		s.lineIndex++
	}
}

func (s *Session) beginBackspacing() {
	s.inner = InnerBackspacing
	// +1 removes the wrong character itself. The char index is left where it
	// is: it already points one past the replay buffer, so typing resumes at
	// the right place after the correction replays.
	s.backspaceRemaining = len(s.typoBuffer) + 1
}

// updateScroll keeps the in-progress line anchored at the bottom row,
// starting on the exact tick capacity is reached.
func (s *Session) updateScroll() {
	pending := len(s.completed)
	if s.lineIndex < len(s.lines) {
		pending++
	}
	if pending >= s.capacity {
		s.scrollOffset = pending - s.capacity + 1
	} else {
		s.scrollOffset = 0
	}
}

// restart resets the session for the next loop. The typo plan is retained so
// repeated loops are identical.
func (s *Session) restart() {
	s.completed = s.completed[:0]
	s.lineIndex = 0
	s.charIndex = 0
	s.display = s.display[:0]
	s.inner = InnerNormal
	s.typoBuffer = s.typoBuffer[:0]
	s.typoCorrect = 0
	s.typoErrorPos = 0
	s.typoCountdown = 0
	s.backspaceRemaining = 0
	s.correctionCursor = 0
	s.scrollOffset = 0
	s.cursorVisible = true
	s.blinkAccum = 0
	s.pauseElapsed = 0
	s.fadeElapsed = 0
	s.charClockMs = 0
	s.loop = LoopTyping
	if len(s.lines) == 0 {
		s.loop = LoopPaused
	}
}

// CompletedLines returns the fully typed lines of the current pass.
func (s *Session) CompletedLines() []string {
	return s.completed
}

// DisplayLine returns the partially typed content of the active line, which
// may contain a wrong character mid-recovery.
func (s *Session) DisplayLine() string {
	return string(s.display)
}

// LineInProgress reports whether a line is actively being typed.
func (s *Session) LineInProgress() bool {
	return s.loop == LoopTyping && s.lineIndex < len(s.lines)
}

// ScrollOffset returns the number of completed lines hidden above the
// viewport.
func (s *Session) ScrollOffset() int {
	return s.scrollOffset
}

// Capacity returns the number of visible line rows.
func (s *Session) Capacity() int {
	return s.capacity
}

// CursorVisible reports the caret blink phase.
func (s *Session) CursorVisible() bool {
	return s.cursorVisible
}

// Loop returns the outer loop state.
func (s *Session) Loop() LoopState {
	return s.loop
}

// Inner returns the typo-recovery sub-state.
func (s *Session) Inner() InnerState {
	return s.inner
}

// LineIndex returns the index of the line currently being typed.
func (s *Session) LineIndex() int {
	return s.lineIndex
}

// FadeAlpha returns the strength of the fade-to-black overlay for the
// current frame, 0 outside the fade.
func (s *Session) FadeAlpha() uint8 {
	switch s.loop {
	case LoopFading:
		alpha := s.fadeElapsed * 255 / s.fadeFrames
		if alpha > 255 {
			alpha = 255
		}
		return uint8(alpha)
	case LoopRestarting:
		return 255
	default:
		return 0
	}
}
