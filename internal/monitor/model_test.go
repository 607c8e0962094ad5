package monitor

import (
	stderrors "errors"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func TestModel_ConnectingView(t *testing.T) {
	m := NewModel("router.lan")
	assert.NotNil(t, m.Init())
	assert.Contains(t, m.View(), "Connecting to router.lan...")
}

func TestModel_Snapshot(t *testing.T) {
	m := NewModel("router.lan")
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, cmd := update(t, m, SnapshotMsg{Snapshot: sampleSnapshot()})
	assert.Nil(t, cmd)

	view := m.View()
	assert.NotContains(t, view, "Connecting")
	assert.Contains(t, view, "2.7.2-RELEASE-p1 (amd64)")
	assert.Contains(t, view, "q quit")

	_, cmd = update(t, m, spinner.TickMsg{})
	assert.Nil(t, cmd, "spinner stops once data arrives")
}

func TestModel_FatalQuits(t *testing.T) {
	boom := stderrors.New("connection lost")

	m, cmd := update(t, NewModel("router.lan"), FatalMsg{Err: boom})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, m.Err(), boom)
	assert.Empty(t, m.View())
}

func TestModel_Keys(t *testing.T) {
	tests := []struct {
		name     string
		msg      tea.KeyMsg
		wantQuit bool
	}{
		{"q", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")}, true},
		{"ctrl+c", tea.KeyMsg{Type: tea.KeyCtrlC}, true},
		{"other", tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, cmd := update(t, NewModel("router.lan"), tt.msg)
			if !tt.wantQuit {
				assert.Nil(t, cmd)
				assert.NotEmpty(t, m.View())
				return
			}
			require.NotNil(t, cmd)
			assert.Equal(t, tea.QuitMsg{}, cmd())
			assert.Empty(t, m.View())
			assert.NoError(t, m.Err())
		})
	}
}
