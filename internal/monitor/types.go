package monitor

import (
	"net/netip"
	"time"

	"github.com/rileyhilliard/pfdash/internal/filterlog"
	"github.com/rileyhilliard/pfdash/internal/telemetry"
)

// Snapshot is one tick's worth of router state. It owns all of its memory,
// so it can be handed to the renderer while the next tick runs.
type Snapshot struct {
	Time    time.Time
	Host    string
	Version telemetry.Version
	Uptime  time.Duration

	// CPUKnown is false until two samples exist.
	CPUPercent float64
	CPUKnown   bool

	Memory Usage
	// PhysicalMemory is in bytes.
	PhysicalMemory uint64

	States      Usage
	MBufs       Usage
	Filesystems []telemetry.Filesystem

	Disks      []DiskStat
	Sensors    []SensorStat
	Interfaces []InterfaceStat
	Gateways   []telemetry.Gateway
	Services   []ServiceStat

	// Firewall holds the latest events, newest first.
	Firewall []filterlog.Event
}

// Usage is a used/max pair with its percentage.
type Usage struct {
	Used    uint64
	Max     uint64
	Percent float64
}

func newUsage(used, max uint64) Usage {
	return Usage{Used: used, Max: max, Percent: telemetry.Percent(used, max)}
}

// DiskStat is a disk's SMART state.
type DiskStat struct {
	Name        string
	Serial      string
	SmartPassed bool
	Temperature uint64
}

// SensorStat is a thermal sensor reading.
type SensorStat struct {
	Name    string
	Celsius float64
}

// InterfaceStat is an interface's link state, rates and addresses.
type InterfaceStat struct {
	Name   string
	Bridge bool
	Status string
	Up     bool

	// RxBits and TxBits are bits per second, valid when SpeedKnown.
	RxBits     float64
	TxBits     float64
	SpeedKnown bool

	Addresses []netip.Addr
}

// ServiceStat is whether a watched process is running.
type ServiceStat struct {
	Name    string
	Running bool
}
