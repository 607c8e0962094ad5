package telemetry

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/internal/sysctl"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// endIsCorrupt turns a clean end into a corrupt stream for fixed-width
// fields, which must always be present.
func endIsCorrupt(err error) error {
	if stderrors.Is(err, sysctl.ErrEnd) {
		return errors.Decode(fmt.Errorf("%w: stream ended before a fixed field", sysctl.ErrCorruptStream), "sysctl -b")
	}
	return err
}

// Startup holds the values read once when pfdash starts.
type Startup struct {
	BootTime time.Time
	Memory   Memory
}

// ReadStartup runs the one-shot sysctl batch: boot time, then memory.
func ReadStartup(e sshutil.Executor, layout sysctl.Layout) (Startup, error) {
	out, err := sshutil.Output(e, cmdStartupSysctls)
	if err != nil {
		return Startup{}, err
	}

	d := sysctl.NewDecoder(bytes.NewReader(out), layout)
	boot, err := ReadBootTime(d)
	if err != nil {
		return Startup{}, err
	}
	mem, err := ReadMemory(d)
	if err != nil {
		return Startup{}, err
	}
	return Startup{BootTime: boot, Memory: mem}, nil
}

// Sensor is a temperature sysctl. Value is in deci-Kelvin.
type Sensor struct {
	Name  string
	Value uint64
}

// Celsius converts the raw reading.
func (s Sensor) Celsius() float64 {
	return float64(s.Value)/10 - 273.15
}

// DiscoverSensors lists every sysctl whose name contains "temperature", sorted.
func DiscoverSensors(e sshutil.Executor) ([]Sensor, error) {
	names, err := sshutil.Lines(e, cmdSysctlNames)
	if err != nil {
		return nil, err
	}

	var sensors []Sensor
	for _, name := range names {
		if strings.Contains(name, "temperature") {
			sensors = append(sensors, Sensor{Name: strings.TrimSpace(name)})
		}
	}
	sort.Slice(sensors, func(i, j int) bool { return sensors[i].Name < sensors[j].Name })
	return sensors, nil
}

// TickBatch is the per-tick sysctl batch. The command is built once from the
// discovered sensors.
type TickBatch struct {
	command string
	layout  sysctl.Layout
}

// NewTickBatch builds the batch for sensors. kern.cp_time is variable length,
// so it goes last.
func NewTickBatch(sensors []Sensor, layout sysctl.Layout) *TickBatch {
	var b strings.Builder
	b.WriteString(cmdTickSysctls)
	for _, s := range sensors {
		b.WriteString(" ")
		b.WriteString(quote(s.Name))
	}
	b.WriteString(" kern.cp_time")
	return &TickBatch{command: b.String(), layout: layout}
}

// Command returns the remote command line.
func (b *TickBatch) Command() string {
	return b.command
}

// Run executes the batch and decodes memory, then every sensor in order,
// then CPU.
func (b *TickBatch) Run(e sshutil.Executor, mem *Memory, sensors []Sensor, cpu *CPU) error {
	out, err := sshutil.Output(e, b.command)
	if err != nil {
		return err
	}

	d := sysctl.NewDecoder(bytes.NewReader(out), b.layout)
	if err := mem.Update(d); err != nil {
		return err
	}
	for i := range sensors {
		v, err := d.Uint()
		if err != nil {
			return endIsCorrupt(err)
		}
		sensors[i].Value = v
	}
	return cpu.Update(d)
}
