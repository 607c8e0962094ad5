package telemetry

import (
	"testing"

	"github.com/rileyhilliard/pfdash/internal/errors"
	sshtest "github.com/rileyhilliard/pfdash/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisks(t *testing.T) {
	m := sshtest.NewMockClient("router")
	m.SetOutput(cmdDiskNames, "nvd0 ada0\n")
	m.SetOutput(smartInfoCmd("ada0"), `{"serial_number":"S1"}`)
	m.SetOutput(smartInfoCmd("nvd0"), `{"serial_number":"N1"}`)

	disks, err := DiscoverDisks(m)
	require.NoError(t, err)
	require.Len(t, disks, 2)
	assert.Equal(t, "ada0", disks[0].Name)
	assert.Equal(t, "S1", disks[0].Serial)
	assert.Equal(t, "nvd0", disks[1].Name)
	assert.Equal(t, "N1", disks[1].Serial)

	m.SetCommandResponse(smartStatusCmd("ada0"), sshtest.CommandResponse{
		Stdout:   []byte(`{"smart_status":{"passed":true},"temperature":{"current":38}}`),
		ExitCode: 4,
	})
	require.NoError(t, disks[0].Update(m))
	assert.True(t, disks[0].SmartPassed)
	assert.Equal(t, uint64(38), disks[0].Temperature)

	m.SetOutput(smartStatusCmd("nvd0"), `{"smart_status":{"passed":false},"temperature":{"current":71}}`)
	require.NoError(t, disks[1].Update(m))
	assert.False(t, disks[1].SmartPassed)
	assert.Equal(t, uint64(71), disks[1].Temperature)
}

func TestDiscoverDisks_None(t *testing.T) {
	m := sshtest.NewMockClient("router")
	m.SetOutput(cmdDiskNames, "\n")

	disks, err := DiscoverDisks(m)
	require.NoError(t, err)
	assert.Empty(t, disks)
}

func TestSmartCommandsQuoteDevice(t *testing.T) {
	assert.Equal(t, "/usr/local/sbin/smartctl -a --json=c '/dev/ada0'", smartStatusCmd("ada0"))
	assert.Equal(t, "/usr/local/sbin/smartctl -i --json=c '/dev/ada0'", smartInfoCmd("ada0"))
}

func TestDisk_BadJSONIsDecodeError(t *testing.T) {
	m := sshtest.NewMockClient("router")
	d := &Disk{Name: "ada0", statusCmd: smartStatusCmd("ada0")}
	m.SetOutput(d.statusCmd, "smartctl: not found")

	err := d.Update(m)
	assert.True(t, errors.IsCode(err, errors.ErrDecode))
}
