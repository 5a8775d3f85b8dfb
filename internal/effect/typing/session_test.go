package typing

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/TheThirdRail/green-code-fx/internal/model"
)

func testOptions() model.TypingOptions {
	return model.TypingOptions{
		Width:           640,
		Height:          480,
		FPS:             60,
		DurationSeconds: 10,
		WPM:             60,
		TypoProbability: 0,
		ErrorDelaySec:   0.5,
		CursorBlinkHz:   1,
		PauseSeconds:    2,
		FadeFrames:      30,
		ScrollThreshold: 92,
		Seed:            1,
	}
}

func newTestSession(t *testing.T, lines []string, opts model.TypingOptions) *Session {
	t.Helper()
	s, err := NewSession(lines, opts, 20, rand.New(rand.NewSource(opts.Seed)))
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return s
}

func TestShortLineTypedThenPaused(t *testing.T) {
	// 60 wpm is 5 chars per second; "ab" plus the end-of-line commit fits
	// well inside one second of frames.
	opts := testOptions()
	s := newTestSession(t, []string{"ab"}, opts)

	for i := 0; i < 60; i++ {
		s.Step()
	}
	if got := s.CompletedLines(); len(got) != 1 || got[0] != "ab" {
		t.Fatalf("expected completed [ab], got %v", got)
	}
	if s.Loop() != LoopPaused {
		t.Fatalf("expected LoopPaused after 1s, got %v", s.Loop())
	}
}

func TestEmptySourceIsImmediatelyPaused(t *testing.T) {
	s := newTestSession(t, nil, testOptions())
	if s.Loop() != LoopPaused {
		t.Fatalf("expected LoopPaused for empty source, got %v", s.Loop())
	}
	if len(s.CompletedLines()) != 0 {
		t.Fatalf("expected no completed lines, got %v", s.CompletedLines())
	}
}

func TestTypoRecoverySequence(t *testing.T) {
	opts := testOptions()
	opts.ErrorDelaySec = 0.2 // 12 character events at 60 fps
	line := "abcdefghij"
	s := newTestSession(t, []string{line}, opts)
	s.typoPlan = map[int]plannedTypo{0: {pos: 3, wrong: 'X'}}

	// Events 1-3: normal typing.
	for i := 0; i < 3; i++ {
		s.typeEvent()
		if s.Inner() != InnerNormal {
			t.Fatalf("event %d: expected InnerNormal, got %v", i+1, s.Inner())
		}
	}
	// Event 4 hits the planned typo.
	s.typeEvent()
	if s.Inner() != InnerPostTypo {
		t.Fatalf("expected InnerPostTypo after typo event, got %v", s.Inner())
	}
	if got := s.DisplayLine(); got != "abcX" {
		t.Fatalf("expected display abcX, got %q", got)
	}

	// Events 5-9 type past the mistake; the countdown (12) has frames left
	// when the line runs out at event 10, so end-of-line wins the tie-break.
	for i := 0; i < 5; i++ {
		s.typeEvent()
		if s.Inner() != InnerPostTypo {
			t.Fatalf("post-typo event %d: expected InnerPostTypo, got %v", i+1, s.Inner())
		}
	}
	s.typeEvent()
	if s.Inner() != InnerBackspacing {
		t.Fatalf("expected InnerBackspacing at end of line, got %v", s.Inner())
	}
	if got := s.DisplayLine(); got != "abcXefghij" {
		t.Fatalf("expected display abcXefghij, got %q", got)
	}

	// Seven backspaces: the replay buffer (6 chars) plus the wrong char.
	for i := 0; i < 7; i++ {
		if s.Inner() != InnerBackspacing {
			t.Fatalf("backspace event %d: expected InnerBackspacing, got %v", i+1, s.Inner())
		}
		s.typeEvent()
	}
	if s.Inner() != InnerCorrecting {
		t.Fatalf("expected InnerCorrecting after backspaces, got %v", s.Inner())
	}
	if got := s.DisplayLine(); got != "abc" {
		t.Fatalf("expected display abc after backspacing, got %q", got)
	}

	// Correct char plus six replayed chars, then the line commits.
	for i := 0; i < 7; i++ {
		s.typeEvent()
	}
	if s.Inner() != InnerNormal {
		t.Fatalf("expected InnerNormal after correction, got %v", s.Inner())
	}
	if got := s.CompletedLines(); len(got) != 1 || got[0] != line {
		t.Fatalf("expected corrected line %q committed, got %v", line, got)
	}
}

func TestZeroErrorDelayCorrectsNextTick(t *testing.T) {
	opts := testOptions()
	opts.ErrorDelaySec = 0
	s := newTestSession(t, []string{"abcdefghij"}, opts)
	s.typoPlan = map[int]plannedTypo{0: {pos: 1, wrong: 'Z'}}

	s.typeEvent() // a
	s.typeEvent() // typo
	if s.Inner() != InnerPostTypo {
		t.Fatalf("expected InnerPostTypo, got %v", s.Inner())
	}
	s.typeEvent()
	if s.Inner() != InnerBackspacing {
		t.Fatalf("expected InnerBackspacing on the next tick with zero delay, got %v", s.Inner())
	}
}

func TestTypoPlanLegality(t *testing.T) {
	lines := []string{
		"package main",
		"ok", // too short, never eligible
		"func main() {",
		"\tfmt.Println(\"hello\")",
		"}",
		"x", // too short
		"const answer = 42",
	}
	opts := testOptions()
	opts.TypoProbability = 0.2
	for seed := int64(1); seed <= 50; seed++ {
		rng := rand.New(rand.NewSource(seed))
		s, err := NewSession(lines, opts, 20, rng)
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		for idx, typo := range s.typoPlan {
			line := []rune(lines[idx])
			if len(line) <= 3 {
				t.Fatalf("seed %d: typo planned for short line %d", seed, idx)
			}
			if typo.pos < 0 || typo.pos >= len(line) {
				t.Fatalf("seed %d: typo position %d out of range for line %d", seed, typo.pos, idx)
			}
			if typo.wrong == line[typo.pos] {
				t.Fatalf("seed %d: wrong char equals correct char at line %d pos %d", seed, idx, typo.pos)
			}
		}
	}
}

func TestRecoveryRestoresEveryPlannedLine(t *testing.T) {
	lines := []string{"first line of code", "second line of code", "third line of code"}
	opts := testOptions()
	opts.TypoProbability = 0.2
	opts.ErrorDelaySec = 0.1

	found := false
	for seed := int64(1); seed <= 20 && !found; seed++ {
		s, err := NewSession(lines, opts, 20, rand.New(rand.NewSource(seed)))
		if err != nil {
			t.Fatalf("failed to create session: %v", err)
		}
		if len(s.typoPlan) == 0 {
			continue
		}
		found = true
		for s.Loop() == LoopTyping {
			s.Step()
		}
		completed := s.CompletedLines()
		if len(completed) != len(lines) {
			t.Fatalf("seed %d: expected %d completed lines, got %d", seed, len(lines), len(completed))
		}
		for i, line := range lines {
			if completed[i] != line {
				t.Fatalf("seed %d: line %d = %q, want %q", seed, i, completed[i], line)
			}
		}
	}
	if !found {
		t.Fatalf("no seed produced a typo plan")
	}
}

func TestScrollOffsetProgression(t *testing.T) {
	lines := []string{"l1", "l2", "l3", "l4", "l5", "l6", "l7"}
	opts := testOptions()
	opts.ScrollThreshold = 5
	opts.WPM = 600 // fast enough to finish within a few seconds of frames
	s := newTestSession(t, lines, opts)

	lastOffset := 0
	offsetAtLineStart := map[int]int{}
	for s.Loop() == LoopTyping {
		s.Step()
		if s.ScrollOffset() < lastOffset {
			t.Fatalf("scroll offset decreased from %d to %d mid-pass", lastOffset, s.ScrollOffset())
		}
		lastOffset = s.ScrollOffset()
		if _, seen := offsetAtLineStart[s.LineIndex()]; !seen && s.LineInProgress() {
			offsetAtLineStart[s.LineIndex()] = s.ScrollOffset()
		}
	}

	// Offsets recorded at the first tick each line was in progress
	// (0-based): the 5th line is index 4.
	wantOffsets := map[int]int{0: 0, 1: 0, 2: 0, 3: 0, 4: 1, 5: 2, 6: 3}
	for idx, want := range wantOffsets {
		if got, ok := offsetAtLineStart[idx]; !ok || got != want {
			t.Fatalf("line %d: scroll offset %d (recorded %v), want %d", idx, got, ok, want)
		}
	}
}

func TestScrollCapacityBoundedByViewport(t *testing.T) {
	opts := testOptions()
	opts.Height = 100 // (100-20)/20 = 4 rows
	opts.ScrollThreshold = 92
	s := newTestSession(t, []string{"a"}, opts)
	if s.Capacity() != 4 {
		t.Fatalf("expected capacity 4, got %d", s.Capacity())
	}
}

func TestLoopStateSequence(t *testing.T) {
	opts := testOptions()
	opts.FPS = 30
	opts.PauseSeconds = 1
	opts.FadeFrames = 30
	opts.WPM = 600
	s := newTestSession(t, []string{"hi"}, opts)

	for i := 0; i < 10000 && s.Loop() != LoopPaused; i++ {
		s.Step()
	}
	if s.Loop() != LoopPaused {
		t.Fatalf("session never reached LoopPaused")
	}

	// 29 more paused frames follow the one just observed.
	for i := 0; i < 29; i++ {
		s.Step()
		if s.Loop() != LoopPaused {
			t.Fatalf("paused frame %d: got %v", i+2, s.Loop())
		}
	}
	for i := 0; i < 30; i++ {
		s.Step()
		if s.Loop() != LoopFading {
			t.Fatalf("fading frame %d: got %v", i+1, s.Loop())
		}
	}
	s.Step()
	if s.Loop() != LoopRestarting {
		t.Fatalf("expected LoopRestarting after fade, got %v", s.Loop())
	}
	if s.FadeAlpha() != 255 {
		t.Fatalf("expected full fade during restart, got %d", s.FadeAlpha())
	}
	s.Step()
	if s.Loop() != LoopTyping {
		t.Fatalf("expected LoopTyping after restart, got %v", s.Loop())
	}
	if len(s.CompletedLines()) != 0 || s.DisplayLine() != "" || s.ScrollOffset() != 0 {
		t.Fatalf("restart did not reset session state")
	}
}

func TestFadeAlphaRamp(t *testing.T) {
	opts := testOptions()
	opts.WPM = 600
	opts.PauseSeconds = 0.1
	opts.FadeFrames = 10
	s := newTestSession(t, []string{"x"}, opts)

	for i := 0; i < 10000 && s.Loop() != LoopFading; i++ {
		s.Step()
	}
	if s.Loop() != LoopFading {
		t.Fatalf("session never reached LoopFading")
	}
	prev := s.FadeAlpha()
	for s.Loop() == LoopFading {
		s.Step()
		if alpha := s.FadeAlpha(); alpha < prev {
			t.Fatalf("fade alpha decreased from %d to %d", prev, alpha)
		} else {
			prev = alpha
		}
	}
	if prev != 255 {
		t.Fatalf("expected fade to end at 255, got %d", prev)
	}
}

func TestLoopProducesIdenticalPasses(t *testing.T) {
	lines := []string{"looping line one", "looping line two", "and a third one"}
	opts := testOptions()
	opts.TypoProbability = 0.2
	opts.WPM = 300
	opts.PauseSeconds = 0.2
	opts.FadeFrames = 5
	s := newTestSession(t, lines, opts)

	capture := func() []string {
		var frames []string
		for s.Loop() == LoopTyping {
			s.Step()
			frames = append(frames, strings.Join(s.CompletedLines(), "\n")+"|"+s.DisplayLine())
		}
		return frames
	}

	first := capture()
	// Drive through pause, fade, and restart to the next pass.
	for s.Loop() != LoopTyping {
		s.Step()
	}
	second := capture()

	if len(first) != len(second) {
		t.Fatalf("pass lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("frame %d differs between passes:\n%q\n%q", i, first[i], second[i])
		}
	}
}

func TestDeterministicForFixedSeed(t *testing.T) {
	lines := []string{"deterministic output", "regardless of wall clock", "same seed same frames"}
	opts := testOptions()
	opts.TypoProbability = 0.2

	run := func() []string {
		s := newTestSession(t, lines, opts)
		var frames []string
		for i := 0; i < 600; i++ {
			s.Step()
			frames = append(frames, strings.Join(s.CompletedLines(), "\n")+"|"+s.DisplayLine())
		}
		return frames
	}

	a, b := run(), run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("frame %d differs across identical runs", i)
		}
	}
}

func TestInnerStateImpliesTyping(t *testing.T) {
	opts := testOptions()
	opts.TypoProbability = 0.2
	opts.WPM = 600
	opts.PauseSeconds = 0.1
	opts.FadeFrames = 5
	s := newTestSession(t, []string{"some line with a typo maybe", "another candidate line"}, opts)

	for i := 0; i < 2000; i++ {
		s.Step()
		if s.Inner() != InnerNormal && s.Loop() != LoopTyping {
			t.Fatalf("inner state %v while loop state %v", s.Inner(), s.Loop())
		}
	}
}

func TestValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.TypingOptions)
	}{
		{"zero wpm", func(o *model.TypingOptions) { o.WPM = 0 }},
		{"negative wpm", func(o *model.TypingOptions) { o.WPM = -10 }},
		{"zero fps", func(o *model.TypingOptions) { o.FPS = 0 }},
		{"typo probability too high", func(o *model.TypingOptions) { o.TypoProbability = 0.5 }},
		{"negative typo probability", func(o *model.TypingOptions) { o.TypoProbability = -0.1 }},
		{"error delay too long", func(o *model.TypingOptions) { o.ErrorDelaySec = 6 }},
		{"zero blink", func(o *model.TypingOptions) { o.CursorBlinkHz = 0 }},
		{"zero fade", func(o *model.TypingOptions) { o.FadeFrames = 0 }},
		{"zero scroll threshold", func(o *model.TypingOptions) { o.ScrollThreshold = 0 }},
		{"zero viewport", func(o *model.TypingOptions) { o.Width = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			opts := testOptions()
			tc.mutate(&opts)
			if _, err := NewSession([]string{"a"}, opts, 20, rand.New(rand.NewSource(1))); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}
}

func TestCursorBlinkToggles(t *testing.T) {
	opts := testOptions()
	opts.WPM = 1 // effectively no typing within the test window
	opts.CursorBlinkHz = 1
	s := newTestSession(t, []string{"slow"}, opts)

	if !s.CursorVisible() {
		t.Fatalf("cursor should start visible")
	}
	// fps/(2*hz) = 30 frames per toggle.
	for i := 0; i < 30; i++ {
		s.Step()
	}
	if s.CursorVisible() {
		t.Fatalf("cursor should be hidden after 30 frames")
	}
	for i := 0; i < 30; i++ {
		s.Step()
	}
	if !s.CursorVisible() {
		t.Fatalf("cursor should be visible again after 60 frames")
	}
}
