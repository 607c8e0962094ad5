package telemetry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// statesPer10MiB is pf's default state limit per 10 MiB of physical memory.
const statesPer10MiB = 1000

// StateTable is pf's state table usage.
type StateTable struct {
	Used uint64
	Max  uint64
}

// NewStateTable sizes the table from physical memory the way pfSense does.
func NewStateTable(physical uint64) *StateTable {
	return &StateTable{Max: physical / (10 * 1024 * 1024) * statesPer10MiB}
}

// UsagePercent returns Used as a percentage of Max.
func (s *StateTable) UsagePercent() float64 {
	return Percent(s.Used, s.Max)
}

// Update reads the "current entries" count from pfctl.
func (s *StateTable) Update(e sshutil.Executor) error {
	lines, err := sshutil.Lines(e, cmdPfctlInfo)
	if err != nil {
		return err
	}
	for _, line := range lines {
		_, value, ok := strings.Cut(line, "current entries")
		if !ok {
			continue
		}
		fields := strings.Fields(value)
		if len(fields) == 0 {
			break
		}
		used, err := strconv.ParseUint(fields[0], 10, 64)
		if err != nil {
			return errors.Decode(err, cmdPfctlInfo)
		}
		s.Used = used
		return nil
	}
	return errors.Decode(fmt.Errorf("could not read state table size"), cmdPfctlInfo)
}

// MBufs is mbuf cluster usage.
type MBufs struct {
	Total uint64
	Max   uint64
}

// UsagePercent returns Total as a percentage of Max.
func (m *MBufs) UsagePercent() float64 {
	return Percent(m.Total, m.Max)
}

// Update reads mbuf cluster statistics.
func (m *MBufs) Update(e sshutil.Executor) error {
	var out struct {
		Stats struct {
			ClusterTotal uint64 `json:"cluster-total"`
			ClusterMax   uint64 `json:"cluster-max"`
		} `json:"mbuf-statistics"`
	}
	if err := sshutil.ExecJSON(e, cmdNetstatMbufs, &out); err != nil {
		return err
	}
	m.Total = out.Stats.ClusterTotal
	m.Max = out.Stats.ClusterMax
	return nil
}

// Filesystem is a mounted UFS filesystem. Sizes are in 1 KiB blocks.
type Filesystem struct {
	MountedOn   string `json:"mounted-on"`
	TotalBlocks uint64 `json:"total-blocks"`
	UsedBlocks  uint64 `json:"used-blocks"`
}

// UsagePercent returns used blocks as a percentage of all blocks.
func (f Filesystem) UsagePercent() float64 {
	return Percent(f.UsedBlocks, f.TotalBlocks)
}

// TotalBytes returns the filesystem size in bytes.
func (f Filesystem) TotalBytes() uint64 {
	return f.TotalBlocks * 1024
}

// Filesystems lists mounted UFS filesystems. The set can change between ticks.
type Filesystems struct {
	List []Filesystem
}

// Update re-reads the mount list.
func (f *Filesystems) Update(e sshutil.Executor) error {
	var out struct {
		Info struct {
			Filesystem []Filesystem `json:"filesystem"`
		} `json:"storage-system-information"`
	}
	if err := sshutil.ExecJSON(e, cmdDiskFree, &out); err != nil {
		return err
	}
	f.List = out.Info.Filesystem
	return nil
}
