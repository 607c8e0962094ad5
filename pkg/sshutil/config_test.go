package sshutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSSHConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseSSHConfigFile(t *testing.T) {
	path := writeSSHConfig(t, `
Host router
    HostName 192.168.1.1
    User admin
    Port 2222

Host backup-router fw
    HostName 10.0.0.1

Host *
    ServerAliveInterval 60

Host lab-*
    User labuser
`)

	hosts, err := ParseSSHConfigFile(path)
	require.NoError(t, err)

	require.Len(t, hosts, 3)
	assert.Equal(t, "backup-router", hosts[0].Alias)
	assert.Equal(t, "fw", hosts[1].Alias)
	assert.Equal(t, "router", hosts[2].Alias)

	router := hosts[2]
	assert.Equal(t, "192.168.1.1", router.Hostname)
	assert.Equal(t, "admin", router.User)
	assert.Equal(t, "2222", router.Port)

	assert.Equal(t, "10.0.0.1", hosts[1].Hostname)
	assert.Equal(t, "", hosts[1].Port)
}

func TestParseSSHConfigFile_NotExists(t *testing.T) {
	hosts, err := ParseSSHConfigFile("/nonexistent/config")

	assert.NoError(t, err)
	assert.Nil(t, hosts)
}

func TestParseSSHConfigFile_StopsAtMatch(t *testing.T) {
	path := writeSSHConfig(t, `
Host before-match
    HostName before.example.com

Match host *.example.com
    User matchuser

Host after-match
    HostName after.example.com
`)

	hosts, err := ParseSSHConfigFile(path)
	require.NoError(t, err)

	require.Len(t, hosts, 1)
	assert.Equal(t, "before-match", hosts[0].Alias)
}

func TestParseSSHConfigFile_DuplicateHosts(t *testing.T) {
	path := writeSSHConfig(t, `
Host router
    HostName 192.168.1.1

Host router
    User admin
`)

	hosts, err := ParseSSHConfigFile(path)
	require.NoError(t, err)
	assert.Len(t, hosts, 1)
}

func TestSSHHostEntry_Description(t *testing.T) {
	tests := []struct {
		name  string
		entry SSHHostEntry
		want  string
	}{
		{
			name:  "alias only",
			entry: SSHHostEntry{Alias: "router"},
			want:  "router",
		},
		{
			name:  "hostname equal to alias is omitted",
			entry: SSHHostEntry{Alias: "192.168.1.1", Hostname: "192.168.1.1"},
			want:  "192.168.1.1",
		},
		{
			name:  "all fields",
			entry: SSHHostEntry{Alias: "router", Hostname: "192.168.1.1", User: "admin", Port: "2222"},
			want:  "192.168.1.1, user: admin, port: 2222",
		},
		{
			name:  "default port is omitted",
			entry: SSHHostEntry{Alias: "router", User: "admin", Port: "22"},
			want:  "user: admin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.entry.Description())
		})
	}
}
