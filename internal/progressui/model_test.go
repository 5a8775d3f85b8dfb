package progressui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func TestPercentMsgUpdatesModel(t *testing.T) {
	m := NewModel("typing effect")
	next, cmd := m.Update(PercentMsg(40))
	model, ok := next.(*Model)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	if model.percent != 40 {
		t.Fatalf("percent = %d, want 40", model.percent)
	}
	if cmd == nil {
		t.Fatalf("expected animation command")
	}
}

func TestDoneMsgQuits(t *testing.T) {
	m := NewModel("typing effect")
	want := errors.New("boom")
	next, cmd := m.Update(DoneMsg{Err: want})
	model := next.(*Model)
	if !model.done {
		t.Fatalf("model not marked done")
	}
	if !errors.Is(model.Err(), want) {
		t.Fatalf("Err() = %v, want %v", model.Err(), want)
	}
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestCtrlCQuits(t *testing.T) {
	m := NewModel("typing effect")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestViewShowsTitleAndPercent(t *testing.T) {
	m := NewModel("matrix rain")
	next, _ := m.Update(PercentMsg(75))
	view := next.(*Model).View()
	if !strings.Contains(view, "matrix rain") {
		t.Fatalf("view missing title: %q", view)
	}
	if !strings.Contains(view, "75%") {
		t.Fatalf("view missing percent: %q", view)
	}
}

func TestWindowSizeCapsWidth(t *testing.T) {
	m := NewModel("typing effect")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 200, Height: 50})
	if got := next.(*Model).progress.Width; got != 60 {
		t.Fatalf("progress width = %d, want 60", got)
	}
}
