package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// hostItem implements list.Item for an ~/.ssh/config entry.
type hostItem struct {
	entry sshutil.SSHHostEntry
}

func (i hostItem) Title() string {
	return i.entry.Alias
}

func (i hostItem) Description() string {
	return i.entry.Description()
}

func (i hostItem) FilterValue() string {
	values := []string{i.entry.Alias}
	if i.entry.Hostname != "" {
		values = append(values, i.entry.Hostname)
	}
	if i.entry.User != "" {
		values = append(values, i.entry.User)
	}
	return strings.Join(values, " ")
}

// HostPickerModel is a Bubble Tea model for choosing the router from
// ~/.ssh/config.
type HostPickerModel struct {
	list        list.Model
	selected    *sshutil.SSHHostEntry
	manualEntry bool
	quitting    bool
}

type hostPickerKeyMap struct {
	Enter  key.Binding
	Manual key.Binding
	Quit   key.Binding
}

var hostPickerKeys = hostPickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Manual: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "manual entry"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

// NewHostPickerModel creates a picker over entries.
func NewHostPickerModel(entries []sshutil.SSHHostEntry) HostPickerModel {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = hostItem{entry: e}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = "Which host is your pfSense router?"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{hostPickerKeys.Manual}
	}

	return HostPickerModel{list: l}
}

// Init implements tea.Model.
func (m HostPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m HostPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Typed characters belong to the filter while it's open.
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, hostPickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(hostItem); ok {
				m.selected = &item.entry
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, hostPickerKeys.Manual):
			m.manualEntry = true
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, hostPickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m HostPickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View() + Muted("\n  Press 'm' to type the router address instead")
}

// Selected returns the chosen entry, or nil.
func (m HostPickerModel) Selected() *sshutil.SSHHostEntry {
	return m.selected
}

// ManualEntry reports whether the user asked to type the host.
func (m HostPickerModel) ManualEntry() bool {
	return m.manualEntry
}

// PickHost shows the picker on the terminal. It returns the chosen entry; a
// nil entry with cancelled false means the user wants manual entry.
func PickHost(entries []sshutil.SSHHostEntry) (entry *sshutil.SSHHostEntry, cancelled bool, err error) {
	return PickHostWithIO(entries, os.Stdout, os.Stdin)
}

// PickHostWithIO is PickHost with custom I/O.
func PickHostWithIO(entries []sshutil.SSHHostEntry, output io.Writer, input io.Reader) (*sshutil.SSHHostEntry, bool, error) {
	if len(entries) == 0 {
		return nil, false, nil
	}

	p := tea.NewProgram(NewHostPickerModel(entries), tea.WithOutput(output), tea.WithInput(input))
	final, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("host picker: %w", err)
	}

	m, ok := final.(HostPickerModel)
	switch {
	case !ok:
		return nil, true, nil
	case m.ManualEntry():
		return nil, false, nil
	case m.Selected() == nil:
		return nil, true, nil
	}
	return m.Selected(), false, nil
}
