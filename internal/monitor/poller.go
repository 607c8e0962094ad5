package monitor

import (
	"context"
	"slices"
	"time"

	"github.com/rileyhilliard/pfdash/internal/filterlog"
	"github.com/rileyhilliard/pfdash/internal/logger"
	"github.com/rileyhilliard/pfdash/internal/pfconfig"
	"github.com/rileyhilliard/pfdash/internal/sysctl"
	"github.com/rileyhilliard/pfdash/internal/telemetry"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// DefaultInterval is the poll cadence.
const DefaultInterval = time.Second

// Plan is everything discovered once at startup.
type Plan struct {
	Config   *pfconfig.Config
	Version  telemetry.Version
	Startup  telemetry.Startup
	Layout   sysctl.Layout
	Sensors  []telemetry.Sensor
	Disks    []*telemetry.Disk
	Services []*telemetry.Service
}

// Discover runs the one-shot reads: router config, version, boot time and
// memory size, disks, thermal sensors and the service list.
func Discover(e sshutil.Executor, layout sysctl.Layout, services []telemetry.ServiceSpec) (*Plan, error) {
	log := logger.Default()
	plan := &Plan{Layout: layout}

	var err error
	if plan.Config, err = pfconfig.Load(e); err != nil {
		return nil, err
	}
	if plan.Version, err = telemetry.ReadVersion(e); err != nil {
		return nil, err
	}
	if plan.Startup, err = telemetry.ReadStartup(e, layout); err != nil {
		return nil, err
	}
	if plan.Disks, err = telemetry.DiscoverDisks(e); err != nil {
		return nil, err
	}
	if plan.Sensors, err = telemetry.DiscoverSensors(e); err != nil {
		return nil, err
	}

	specs := services
	if len(specs) == 0 {
		for _, name := range telemetry.BuiltinServiceNames() {
			specs = append(specs, telemetry.ServiceSpec{Name: name})
		}
	}
	if plan.Services, err = telemetry.ResolveServices(specs, plan.Config.Services); err != nil {
		return nil, err
	}

	log.Debug("discovered %s: %d interfaces, %d gateways, %d disks, %d sensors, %d services",
		plan.Version, len(plan.Config.Interfaces()), len(plan.Config.Gateways),
		len(plan.Disks), len(plan.Sensors), len(plan.Services))
	return plan, nil
}

// Poller refreshes every updater once per tick. It's not safe for concurrent
// use; Run's goroutine owns it.
type Poller struct {
	exec sshutil.Executor
	plan *Plan

	batch       *telemetry.TickBatch
	cpu         telemetry.CPU
	memory      telemetry.Memory
	interfaces  *telemetry.Interfaces
	gateways    *telemetry.Gateways
	states      *telemetry.StateTable
	mbufs       telemetry.MBufs
	filesystems telemetry.Filesystems
	firewall    *filterlog.Log

	interval  time.Duration
	now       func() time.Time
	logger    logger.Logger
	lastStart time.Time
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

// WithInterval sets the tick cadence.
func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) { p.interval = d }
}

// WithFirewallLog sets the log whose events are copied into each snapshot.
func WithFirewallLog(l *filterlog.Log) PollerOption {
	return func(p *Poller) { p.firewall = l }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) PollerOption {
	return func(p *Poller) { p.now = now }
}

// WithPollerLogger sets the logger.
func WithPollerLogger(l logger.Logger) PollerOption {
	return func(p *Poller) { p.logger = l }
}

// NewPoller builds the per-tick updaters from a discovery plan.
func NewPoller(e sshutil.Executor, plan *Plan, opts ...PollerOption) *Poller {
	cfg := plan.Config
	p := &Poller{
		exec:       e,
		plan:       plan,
		batch:      telemetry.NewTickBatch(plan.Sensors, plan.Layout),
		memory:     plan.Startup.Memory,
		interfaces: telemetry.NewInterfaces(cfg.GatewayInterfaces, cfg.BridgeInterfaces, cfg.OtherInterfaces),
		gateways:   telemetry.NewGateways(cfg.Gateways),
		states:     telemetry.NewStateTable(plan.Startup.Memory.Physical),
		interval:   DefaultInterval,
		now:        time.Now,
		logger:     logger.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Tick refreshes every subsystem in a fixed order and returns a snapshot.
// The first failure aborts the tick.
func (p *Poller) Tick(now time.Time) (*Snapshot, error) {
	var elapsed time.Duration
	if !p.lastStart.IsZero() {
		elapsed = now.Sub(p.lastStart)
	}
	p.lastStart = now

	if err := p.batch.Run(p.exec, &p.memory, p.plan.Sensors, &p.cpu); err != nil {
		return nil, err
	}
	for _, d := range p.plan.Disks {
		if err := d.Update(p.exec); err != nil {
			return nil, err
		}
	}
	if err := p.interfaces.Update(p.exec); err != nil {
		return nil, err
	}
	if err := p.gateways.Update(p.exec); err != nil {
		return nil, err
	}
	for _, s := range p.plan.Services {
		if err := s.Update(p.exec); err != nil {
			return nil, err
		}
	}
	if err := p.states.Update(p.exec); err != nil {
		return nil, err
	}
	if err := p.mbufs.Update(p.exec); err != nil {
		return nil, err
	}
	if err := p.filesystems.Update(p.exec); err != nil {
		return nil, err
	}

	return p.snapshot(now, elapsed), nil
}

func (p *Poller) snapshot(now time.Time, elapsed time.Duration) *Snapshot {
	s := &Snapshot{
		Time:           now,
		Host:           p.exec.GetHost(),
		Version:        p.plan.Version,
		Uptime:         telemetry.Uptime(p.plan.Startup.BootTime, now),
		Memory:         newUsage(p.memory.UsedPages, p.memory.NumPages),
		PhysicalMemory: p.memory.Physical,
		States:         newUsage(p.states.Used, p.states.Max),
		MBufs:          newUsage(p.mbufs.Total, p.mbufs.Max),
		Filesystems:    slices.Clone(p.filesystems.List),
		Gateways:       slices.Clone(p.gateways.List()),
	}
	s.CPUPercent, s.CPUKnown = p.cpu.UsagePercent()

	for _, d := range p.plan.Disks {
		s.Disks = append(s.Disks, DiskStat{
			Name:        d.Name,
			Serial:      d.Serial,
			SmartPassed: d.SmartPassed,
			Temperature: d.Temperature,
		})
	}
	for _, sensor := range p.plan.Sensors {
		s.Sensors = append(s.Sensors, SensorStat{Name: sensor.Name, Celsius: sensor.Celsius()})
	}
	for _, iface := range p.interfaces.List() {
		stat := InterfaceStat{
			Name:      iface.Name,
			Bridge:    iface.Bridge,
			Status:    iface.Status,
			Up:        iface.Up(),
			Addresses: slices.Clone(iface.Addresses),
		}
		stat.RxBits, stat.TxBits, stat.SpeedKnown = iface.Speed(elapsed)
		s.Interfaces = append(s.Interfaces, stat)
	}
	for _, svc := range p.plan.Services {
		s.Services = append(s.Services, ServiceStat{Name: svc.Name, Running: svc.Running})
	}
	if p.firewall != nil {
		s.Firewall = p.firewall.Snapshot()
	}
	return s
}

// Run ticks every interval, measured from the start of the previous tick,
// and hands each snapshot to render. A tick that overruns is followed
// immediately by the next. Run returns the first tick error, or ctx.Err().
func (p *Poller) Run(ctx context.Context, render func(*Snapshot)) error {
	for {
		start := p.now()
		snap, err := p.Tick(start)
		if err != nil {
			p.logger.Debug("tick failed: %v", err)
			return err
		}
		render(snap)

		wait := p.interval - p.now().Sub(start)
		if wait <= 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
