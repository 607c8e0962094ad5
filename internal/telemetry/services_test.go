package telemetry

import (
	"testing"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/internal/pfconfig"
	sshtest "github.com/rileyhilliard/pfdash/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveServices(t *testing.T) {
	services, err := ResolveServices(
		[]ServiceSpec{
			{Name: "unbound"},
			{Name: "dhcpd"},
			{Name: "wireguard", Process: "wg-quick", PidFile: "wg.pid"},
			{Name: "custom", Process: "foo", PidFile: "/tmp/foo.pid"},
		},
		[]pfconfig.Service{{Name: "haproxy", Executable: "haproxy"}},
	)
	require.NoError(t, err)

	got := map[string]string{}
	var names []string
	for _, s := range services {
		names = append(names, s.Name)
		got[s.Name] = s.Command()
	}

	assert.Equal(t, []string{"custom", "dhcpd", "haproxy", "unbound", "wireguard"}, names)
	assert.Equal(t, "/bin/pgrep -F '/var/run/unbound.pid' -x 'unbound' >/dev/null 2>/dev/null; echo $?", got["unbound"])
	assert.Equal(t, "/bin/pgrep -x 'dhcpd' >/dev/null 2>/dev/null; echo $?", got["dhcpd"])
	assert.Equal(t, "/bin/pgrep -F '/var/run/wg.pid' -x 'wg-quick' >/dev/null 2>/dev/null; echo $?", got["wireguard"])
	assert.Equal(t, "/bin/pgrep -F '/tmp/foo.pid' -x 'foo' >/dev/null 2>/dev/null; echo $?", got["custom"])
	assert.Equal(t, "/bin/pgrep -x 'haproxy' >/dev/null 2>/dev/null; echo $?", got["haproxy"])
}

func TestResolveServices_BuiltinPidfileOverride(t *testing.T) {
	services, err := ResolveServices([]ServiceSpec{{Name: "sshd", PidFile: "/var/run/sshd-alt.pid"}}, nil)
	require.NoError(t, err)
	require.Len(t, services, 1)
	assert.Contains(t, services[0].Command(), "-F '/var/run/sshd-alt.pid'")
}

func TestResolveServices_Unknown(t *testing.T) {
	tests := []struct {
		name       string
		service    string
		wantSuggst string
	}{
		{"close typo", "unbond", "Did you mean 'unbound'?"},
		{"far off", "postgres", "Built-in services are dhcpd, ntpd, radvd, sshd, syslogd, unbound"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ResolveServices([]ServiceSpec{{Name: tt.service}}, nil)
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			assert.Contains(t, e.Suggestion, tt.wantSuggst)
		})
	}

	_, err := ResolveServices([]ServiceSpec{{Name: "postgres"}}, nil)
	var e *errors.Error
	require.ErrorAs(t, err, &e)
	assert.NotContains(t, e.Suggestion, "Did you mean")
}

func TestService_Update(t *testing.T) {
	services, err := ResolveServices([]ServiceSpec{{Name: "ntpd"}}, nil)
	require.NoError(t, err)
	s := services[0]

	m := sshtest.NewMockClient("router")
	m.SetOutput(s.Command(), "0\n")
	require.NoError(t, s.Update(m))
	assert.True(t, s.Running)

	m.SetOutput(s.Command(), "1\n")
	require.NoError(t, s.Update(m))
	assert.False(t, s.Running)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, "'plain'", quote("plain"))
	assert.Equal(t, `'it'\''s'`, quote("it's"))
	assert.Equal(t, "'$(reboot)'", quote("$(reboot)"))
}
