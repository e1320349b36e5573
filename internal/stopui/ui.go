package stopui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DefaultTimeout dismisses an untouched stop screen. The alarm keeps
// ringing; only an explicit keypress silences it.
const DefaultTimeout = 15 * time.Second

// StopFunc sends the stop command to the daemon.
type StopFunc func(ctx context.Context) error

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#fca5a5")).
			Padding(1, 4)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fde68a")).
			Bold(true)

	bodyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#d4d4d8"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#71717a"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#fca5a5"))

	stoppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#bbf7d0"))
)

// Messages.
type (
	tickMsg     time.Time
	stopDoneMsg struct{ err error }
)

// Outcome reports how the screen ended.
type Outcome int

const (
	// OutcomeTimedOut means the screen dismissed itself untouched.
	OutcomeTimedOut Outcome = iota
	// OutcomeStopped means the user silenced the alarm.
	OutcomeStopped
	// OutcomeDismissed means the user closed the screen without stopping.
	OutcomeDismissed
)

// Model is the Bubble Tea model for the stop screen.
type Model struct {
	title     string
	body      string
	remaining time.Duration
	stop      StopFunc

	stopping bool
	stopErr  error
	outcome  Outcome
	width    int
	height   int
}

// New creates a stop screen for the ringing alarm. A non-positive
// timeout falls back to the default.
func New(title, body string, timeout time.Duration, stop StopFunc) Model {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return Model{
		title:     title,
		body:      body,
		remaining: timeout,
		stop:      stop,
		outcome:   OutcomeTimedOut,
	}
}

// Outcome reports how the screen ended, valid once the program returns.
func (m Model) Outcome() Outcome {
	return m.outcome
}

// StopError returns the failure of the stop command, if any.
func (m Model) StopError() error {
	return m.stopErr
}

// Init starts the countdown.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles keys, the countdown and the stop command result.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", " ", "s":
			if m.stopping {
				return m, nil
			}

			m.stopping = true
			stop := m.stop

			return m, func() tea.Msg {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()

				return stopDoneMsg{err: stop(ctx)}
			}

		case "q", "esc", "ctrl+c":
			m.outcome = OutcomeDismissed

			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		return m, nil

	case tickMsg:
		// The countdown pauses once a stop is underway.
		if m.stopping {
			return m, tickCmd()
		}

		m.remaining -= time.Second
		if m.remaining <= 0 {
			m.outcome = OutcomeTimedOut

			return m, tea.Quit
		}

		return m, tickCmd()

	case stopDoneMsg:
		m.stopErr = msg.err
		if msg.err == nil {
			m.outcome = OutcomeStopped
		}

		return m, tea.Quit
	}

	return m, nil
}

// View renders the framed prompt, centered when the size is known.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteByte('\n')
	b.WriteString(bodyStyle.Render(m.body))
	b.WriteString("\n\n")

	switch {
	case m.stopErr != nil:
		b.WriteString(errorStyle.Render("Stopping failed: " + m.stopErr.Error()))
	case m.stopping:
		b.WriteString(stoppedStyle.Render("Stopping..."))
	default:
		b.WriteString(hintStyle.Render(
			fmt.Sprintf("enter/space/s to stop  ·  q to dismiss  ·  closes in %ds",
				int(m.remaining.Seconds()))))
	}

	box := frameStyle.Render(b.String())

	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	return box
}
