package testing

import (
	"context"
	"testing"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockClient_ExactBeforePattern(t *testing.T) {
	m := NewMockClient("router")
	m.SetPatternResponse(`^/sbin/ifconfig `, CommandResponse{Stdout: []byte("status: no carrier\n")})
	m.SetOutput("/sbin/ifconfig 'igb0'", "status: active\n")

	out, _, code, err := m.Exec("/sbin/ifconfig 'igb0'")
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, "status: active\n", string(out))

	out, _, _, err = m.Exec("/sbin/ifconfig 'igb1'")
	require.NoError(t, err)
	assert.Equal(t, "status: no carrier\n", string(out))
}

func TestMockClient_CatServesFiles(t *testing.T) {
	m := NewMockClient("router")
	m.SetFile("/etc/version", "2.7.2-RELEASE\n")

	line, err := sshutil.Line(m, "cat '/etc/version'")
	require.NoError(t, err)
	assert.Equal(t, "2.7.2-RELEASE", line)

	_, _, code, err := m.Exec("cat /etc/missing")
	require.NoError(t, err)
	assert.Equal(t, 1, code)
}

func TestMockClient_UnknownCommandExits127(t *testing.T) {
	m := NewMockClient("router")

	out, stderr, code, err := m.Exec("/usr/bin/true")
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, 127, code)
	assert.Contains(t, string(stderr), "not found")
}

func TestMockClient_ExecLines(t *testing.T) {
	m := NewMockClient("router")
	m.SetOutput("/sbin/sysctl -aN", "kern.ostype\ndev.cpu.0.temperature\n")

	var lines []string
	err := m.ExecLines(context.Background(), "/sbin/sysctl -aN", func(l string) { lines = append(lines, l) })
	require.NoError(t, err)
	assert.Equal(t, []string{"kern.ostype", "dev.cpu.0.temperature"}, lines)
}

func TestMockClient_ChannelStream(t *testing.T) {
	m := NewMockClient("router")
	ch := make(chan string, 2)
	m.SetStream("clog", ChannelStream(ch))

	ch <- "a"
	ch <- "b"
	close(ch)

	var lines []string
	err := m.ExecLines(context.Background(), "clog", func(l string) { lines = append(lines, l) })
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, lines)
}

func TestMockClient_ChannelStreamCancelled(t *testing.T) {
	m := NewMockClient("router")
	m.SetStream("clog", ChannelStream(make(chan string)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := m.ExecLines(ctx, "clog", func(string) {})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockClient_ClosedIsSSHError(t *testing.T) {
	m := NewMockClient("router")
	require.NoError(t, m.Close())
	assert.True(t, m.Closed())

	_, _, _, err := m.Exec("anything")
	assert.True(t, errors.IsCode(err, errors.ErrSSH))

	err = m.ExecLines(context.Background(), "anything", func(string) {})
	assert.True(t, errors.IsCode(err, errors.ErrSSH))
}

func TestMockClient_History(t *testing.T) {
	m := NewMockClient("router")
	_, _, _, _ = m.Exec("one")
	_, _, _, _ = m.Exec("two")
	_, _, _, _ = m.Exec("one")

	assert.Equal(t, []string{"one", "two", "one"}, m.Commands())
	assert.Equal(t, 2, m.CommandCount("one"))

	m.ResetHistory()
	assert.Empty(t, m.Commands())
}

func TestExecJSON(t *testing.T) {
	m := NewMockClient("router")
	m.SetOutput("/usr/bin/netstat -m --libxo json", `{"mbuf-statistics":{"cluster-total":512,"cluster-max":1000000}}`)
	m.SetOutput("broken", `{"mbuf-statistics":`)

	var out struct {
		MBuf struct {
			Total uint64 `json:"cluster-total"`
			Max   uint64 `json:"cluster-max"`
		} `json:"mbuf-statistics"`
	}
	require.NoError(t, sshutil.ExecJSON(m, "/usr/bin/netstat -m --libxo json", &out))
	assert.Equal(t, uint64(512), out.MBuf.Total)
	assert.Equal(t, uint64(1000000), out.MBuf.Max)

	err := sshutil.ExecJSON(m, "broken", &out)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrDecode))
}

func TestLines(t *testing.T) {
	m := NewMockClient("router")
	m.SetOutput("pfctl", "Status: Enabled\r\n  current entries  42\n")

	lines, err := sshutil.Lines(m, "pfctl")
	require.NoError(t, err)
	// bufio.ScanLines drops a trailing \r.
	assert.Equal(t, []string{"Status: Enabled", "  current entries  42"}, lines)
}
