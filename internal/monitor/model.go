package monitor

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// SnapshotMsg delivers a finished tick to the model.
type SnapshotMsg struct {
	Snapshot *Snapshot
}

// FatalMsg stops the dashboard with an error.
type FatalMsg struct {
	Err error
}

// Model is the Bubble Tea model for the dashboard. It only ever sees
// snapshots, never the updaters behind them.
type Model struct {
	host     string
	spinner  spinner.Model
	snapshot *Snapshot
	err      error
	width    int
	quitting bool
}

// NewModel creates a dashboard model for host.
func NewModel(host string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = MutedStyle
	return Model{host: host, spinner: sp}
}

// Init starts the spinner shown until the first snapshot arrives.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		if m.snapshot != nil {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case SnapshotMsg:
		m.snapshot = msg.Snapshot

	case FatalMsg:
		m.err = msg.Err
		m.quitting = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.snapshot == nil {
		return m.spinner.View() + " Connecting to " + m.host + "...\n"
	}
	return Render(m.snapshot, m.width) + "\n" + FooterStyle.Render("q quit")
}

// Err returns the error that stopped the dashboard, if any.
func (m Model) Err() error {
	return m.err
}
