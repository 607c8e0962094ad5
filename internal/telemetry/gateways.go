package telemetry

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/internal/pfconfig"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// Gateway is the dpinger view of one gateway.
type Gateway struct {
	Name      string
	Interface string

	// Running is false when no dpinger socket reported this gateway.
	Running bool

	LatencyAvg    time.Duration
	LatencyStddev time.Duration
	LossPercent   uint64
}

// Gateways polls every dpinger socket once per tick.
type Gateways struct {
	list   []Gateway
	byName map[string]int
}

// NewGateways builds the updater, sorted by gateway name.
func NewGateways(gws []pfconfig.Gateway) *Gateways {
	g := &Gateways{byName: make(map[string]int, len(gws))}
	for _, gw := range gws {
		if _, dup := g.byName[gw.Name]; dup {
			continue
		}
		g.list = append(g.list, Gateway{Name: gw.Name, Interface: gw.Interface})
		g.byName[gw.Name] = len(g.list) - 1
	}
	sort.Slice(g.list, func(i, j int) bool { return g.list[i].Name < g.list[j].Name })
	for i, gw := range g.list {
		g.byName[gw.Name] = i
	}
	return g
}

// List returns the gateways sorted by name.
func (g *Gateways) List() []Gateway {
	return g.list
}

// Update marks every gateway not running, then fills in each one dpinger
// reports. Reports for unknown gateways are ignored.
func (g *Gateways) Update(e sshutil.Executor) error {
	for i := range g.list {
		g.list[i].Running = false
		g.list[i].LatencyAvg = 0
		g.list[i].LatencyStddev = 0
		g.list[i].LossPercent = 0
	}

	lines, err := sshutil.Lines(e, cmdDpinger)
	if err != nil {
		return err
	}

	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		stat, err := parseDpinger(line)
		if err != nil {
			return err
		}
		if i, ok := g.byName[stat.Name]; ok {
			stat.Interface = g.list[i].Interface
			g.list[i] = stat
		}
	}
	return nil
}

// parseDpinger parses "name latency_avg_us latency_stddev_us loss_percent".
func parseDpinger(line string) (Gateway, error) {
	malformed := func(cause error) error {
		if cause == nil {
			cause = fmt.Errorf("dpinger output is malformed: %q", line)
		} else {
			cause = fmt.Errorf("dpinger output is malformed: %q: %w", line, cause)
		}
		return errors.Decode(cause, "dpinger")
	}

	parts := strings.Split(line, " ")
	if len(parts) < 4 || parts[0] == "" {
		return Gateway{}, malformed(nil)
	}

	var nums [3]uint64
	for i := range nums {
		v, err := strconv.ParseUint(parts[i+1], 10, 64)
		if err != nil {
			return Gateway{}, malformed(err)
		}
		nums[i] = v
	}

	return Gateway{
		Name:          parts[0],
		Running:       true,
		LatencyAvg:    time.Duration(nums[0]) * time.Microsecond,
		LatencyStddev: time.Duration(nums[1]) * time.Microsecond,
		LossPercent:   nums[2],
	}, nil
}
