package telemetry

import (
	"testing"

	sshtest "github.com/rileyhilliard/pfdash/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadVersion(t *testing.T) {
	m := sshtest.NewMockClient("router")
	m.SetFile("/etc/version", "2.7.2-RELEASE\n")
	m.SetFile("/etc/version.patch", "1\n")
	m.SetFile("/etc/version.buildtime", "Fri Dec  8 12:00:00 UTC 2023\n")
	m.SetOutput(cmdUnameMachine, "amd64\n")
	m.SetOutput(cmdUnameRelease, "FreeBSD 14.0-CURRENT\n")

	v, err := ReadVersion(m)
	require.NoError(t, err)
	assert.Equal(t, Version{
		Version:   "2.7.2-RELEASE",
		Patch:     "1",
		Arch:      "amd64",
		BuildTime: "Fri Dec  8 12:00:00 UTC 2023",
		OSBase:    "FreeBSD 14.0-CURRENT",
	}, v)
}

func TestVersion_String(t *testing.T) {
	tests := []struct {
		patch string
		want  string
	}{
		{"", "2.7.2-RELEASE (amd64)"},
		{"0", "2.7.2-RELEASE (amd64)"},
		{"2", "2.7.2-RELEASE-p2 (amd64)"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			v := Version{Version: "2.7.2-RELEASE", Patch: tt.patch, Arch: "amd64"}
			assert.Equal(t, tt.want, v.String())
		})
	}
}
