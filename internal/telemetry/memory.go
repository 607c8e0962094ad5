package telemetry

import (
	"time"

	"github.com/rileyhilliard/pfdash/internal/gauge"
	"github.com/rileyhilliard/pfdash/internal/sysctl"
)

// Memory tracks page usage. Physical and NumPages are read once at startup.
type Memory struct {
	Physical  uint64 // bytes, hw.physmem
	NumPages  uint64 // vm.stats.vm.v_page_count
	UsedPages uint64
}

// ReadMemory reads hw.physmem (unsigned long) and v_page_count (unsigned int).
func ReadMemory(d *sysctl.Decoder) (Memory, error) {
	physical, err := d.Ulong()
	if err != nil {
		return Memory{}, endIsCorrupt(err)
	}
	pages, err := d.Uint()
	if err != nil {
		return Memory{}, endIsCorrupt(err)
	}
	return Memory{Physical: physical, NumPages: pages}, nil
}

// Update reads the inactive, cache and free page counts, in that order.
func (m *Memory) Update(d *sysctl.Decoder) error {
	var free uint64
	for i := 0; i < 3; i++ {
		v, err := d.Uint()
		if err != nil {
			return endIsCorrupt(err)
		}
		free += v
	}
	m.UsedPages = gauge.Sub(m.NumPages, free)
	return nil
}

// UsagePercent returns used pages as a percentage of all pages.
func (m Memory) UsagePercent() float64 {
	return Percent(m.UsedPages, m.NumPages)
}

// ReadBootTime reads kern.boottime, a struct timeval of two time_t.
func ReadBootTime(d *sysctl.Decoder) (time.Time, error) {
	sec, err := d.Ulong()
	if err != nil {
		return time.Time{}, endIsCorrupt(err)
	}
	usec, err := d.Ulong()
	if err != nil {
		return time.Time{}, endIsCorrupt(err)
	}
	return time.Unix(int64(sec), int64(usec)*int64(time.Microsecond)), nil
}

// Uptime returns the time since boot, truncated to seconds.
func Uptime(boot, now time.Time) time.Duration {
	d := now.Sub(boot)
	if d < 0 {
		return 0
	}
	return d.Truncate(time.Second)
}
