package ui

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntries() []sshutil.SSHHostEntry {
	return []sshutil.SSHHostEntry{
		{Alias: "router", Hostname: "192.168.1.1", User: "admin"},
		{Alias: "nas", Hostname: "nas.lan", Port: "2222"},
	}
}

func TestHostItem(t *testing.T) {
	item := hostItem{entry: testEntries()[0]}

	assert.Equal(t, "router", item.Title())
	assert.Equal(t, "192.168.1.1, user: admin", item.Description())
	assert.Equal(t, "router 192.168.1.1 admin", item.FilterValue())
}

func press(t *testing.T, m HostPickerModel, msg tea.KeyMsg) (HostPickerModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(HostPickerModel)
	require.True(t, ok)
	return model, cmd
}

func TestHostPicker_Select(t *testing.T) {
	m, cmd := press(t, NewHostPickerModel(testEntries()), tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, cmd)
	require.NotNil(t, m.Selected())
	assert.Equal(t, "router", m.Selected().Alias)
	assert.False(t, m.ManualEntry())
	assert.Empty(t, m.View())
}

func TestHostPicker_SelectSecond(t *testing.T) {
	m, _ := press(t, NewHostPickerModel(testEntries()), tea.KeyMsg{Type: tea.KeyDown})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	require.NotNil(t, m.Selected())
	assert.Equal(t, "nas", m.Selected().Alias)
}

func TestHostPicker_Manual(t *testing.T) {
	m, cmd := press(t, NewHostPickerModel(testEntries()), tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})

	require.NotNil(t, cmd)
	assert.True(t, m.ManualEntry())
	assert.Nil(t, m.Selected())
}

func TestHostPicker_Cancel(t *testing.T) {
	m, cmd := press(t, NewHostPickerModel(testEntries()), tea.KeyMsg{Type: tea.KeyEsc})

	require.NotNil(t, cmd)
	assert.False(t, m.ManualEntry())
	assert.Nil(t, m.Selected())
}

func TestHostPicker_View(t *testing.T) {
	view := NewHostPickerModel(testEntries()).View()
	assert.Contains(t, view, "router")
	assert.Contains(t, view, "Press 'm'")
}

func TestPickHostWithIO_NoEntries(t *testing.T) {
	entry, cancelled, err := PickHostWithIO(nil, &bytes.Buffer{}, strings.NewReader(""))
	require.NoError(t, err)
	assert.Nil(t, entry)
	assert.False(t, cancelled, "no entries means manual entry")
}

func TestStatusHelpers(t *testing.T) {
	assert.Contains(t, Success("saved"), SymbolSuccess)
	assert.Contains(t, Success("saved"), "saved")
	assert.Contains(t, Fail("oops"), SymbolFail)
	assert.Contains(t, Warning("careful"), SymbolWarning)
	assert.Contains(t, Muted("hint"), "hint")
}
