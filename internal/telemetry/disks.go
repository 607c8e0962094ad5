package telemetry

import (
	"sort"
	"strings"

	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// Disk is a physical disk and its SMART health.
type Disk struct {
	Name        string
	Serial      string
	SmartPassed bool
	Temperature uint64 // °C

	statusCmd string
}

// DiscoverDisks lists kern.disks, sorted, and reads each serial number.
func DiscoverDisks(e sshutil.Executor) ([]*Disk, error) {
	line, err := sshutil.Line(e, cmdDiskNames)
	if err != nil {
		return nil, err
	}

	names := strings.Fields(line)
	sort.Strings(names)

	disks := make([]*Disk, 0, len(names))
	for _, name := range names {
		var info struct {
			SerialNumber string `json:"serial_number"`
		}
		if err := sshutil.ExecJSON(e, smartInfoCmd(name), &info); err != nil {
			return nil, err
		}
		disks = append(disks, &Disk{
			Name:      name,
			Serial:    info.SerialNumber,
			statusCmd: smartStatusCmd(name),
		})
	}
	return disks, nil
}

// Update reads the SMART verdict and current temperature.
func (d *Disk) Update(e sshutil.Executor) error {
	var out struct {
		SmartStatus struct {
			Passed bool `json:"passed"`
		} `json:"smart_status"`
		Temperature struct {
			Current uint64 `json:"current"`
		} `json:"temperature"`
	}
	if err := sshutil.ExecJSON(e, d.statusCmd, &out); err != nil {
		return err
	}
	d.SmartPassed = out.SmartStatus.Passed
	d.Temperature = out.Temperature.Current
	return nil
}
