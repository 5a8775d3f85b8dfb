// Package progressui shows render progress with a Bubble Tea progress bar.
package progressui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00FF00")).Bold(true)
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// PercentMsg reports generation progress, 0-100.
type PercentMsg int

// DoneMsg signals the job finished; Err is nil on success.
type DoneMsg struct {
	Err error
}

// Model renders a single job's progress bar.
type Model struct {
	title    string
	progress progress.Model
	percent  int
	done     bool
	err      error
}

// NewModel constructs a progress model titled after the job.
func NewModel(title string) *Model {
	return &Model{
		title:    title,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

// Err returns the job error delivered with DoneMsg, if any.
func (m *Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		width := msg.Width - 8
		if width > 60 {
			width = 60
		}
		if width > 0 {
			m.progress.Width = width
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		return m, nil
	case PercentMsg:
		m.percent = int(msg)
		return m, m.progress.SetPercent(float64(msg) / 100)
	case progress.FrameMsg:
		next, cmd := m.progress.Update(msg)
		if p, ok := next.(progress.Model); ok {
			m.progress = p
		}
		return m, cmd
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.done {
		if m.err != nil {
			return ""
		}
		return doneStyle.Render("done") + "\n"
	}
	return fmt.Sprintf("%s\n%s %3d%%\n", titleStyle.Render(m.title), m.progress.View(), m.percent)
}
