package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"questsync/internal/engine"
)

// statusTTL is how long transient status messages stay visible.
const statusTTL = 3 * time.Second

// Model is the Bubbletea model for the watch dashboard.
type Model struct {
	// Data
	outcome *engine.Outcome
	err     error

	// UI state
	syncing       bool
	nextRun       time.Time
	statusMessage string
	statusExpiry  time.Time
	width, height int
	version       string

	// Components
	spinner spinner.Model

	// Dependencies
	runner   *engine.Runner
	interval time.Duration
}

// Messages
type (
	cycleMsg struct {
		outcome *engine.Outcome
		err     error
	}
	tickMsg time.Time
)

// NewModel creates the dashboard model. The first cycle runs on Init;
// later ones fire every interval.
func NewModel(runner *engine.Runner, interval time.Duration, version string) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorCyan)

	return Model{
		syncing:  true,
		version:  version,
		spinner:  s,
		runner:   runner,
		interval: interval,
	}
}

// Init starts the spinner, kicks off the first cycle, and begins ticking.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.runCycle, m.tick())
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case cycleMsg:
		m.syncing = false
		m.nextRun = time.Now().Add(m.interval)
		m.err = msg.err
		if msg.err == nil {
			m.outcome = msg.outcome
		}
		return m, nil

	case tickMsg:
		if m.statusMessage != "" && time.Now().After(m.statusExpiry) {
			m.statusMessage = ""
		}
		if !m.syncing && !m.nextRun.IsZero() && !time.Now().Before(m.nextRun) {
			m.syncing = true
			return m, tea.Batch(m.runCycle, m.tick())
		}
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey handles keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "r":
		if m.syncing {
			m.setStatus("A cycle is already running")
			return m, nil
		}
		m.syncing = true
		m.setStatus("Cycle triggered")
		return m, m.runCycle
	}

	return m, nil
}

// runCycle runs one reconciliation cycle and reports the result.
func (m Model) runCycle() tea.Msg {
	outcome, err := m.runner.RunCycle(context.Background())
	return cycleMsg{outcome: outcome, err: err}
}

// tick schedules the next countdown update.
func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// setStatus shows a transient status message.
func (m *Model) setStatus(msg string) {
	m.statusMessage = msg
	m.statusExpiry = time.Now().Add(statusTTL)
}
