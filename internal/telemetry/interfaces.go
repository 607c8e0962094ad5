package telemetry

import (
	"fmt"
	"net/netip"
	"sort"
	"strings"
	"time"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/internal/gauge"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// Interface is one network interface.
type Interface struct {
	Name string

	// Bridge is set for bridges. Their traffic is already counted on the
	// member interfaces.
	Bridge bool

	// Status is the ifconfig status when it isn't "active", else "".
	Status string

	// Addresses are the bound non-link-local addresses, IPv6 first.
	Addresses []netip.Addr

	rx gauge.Pair[uint64]
	tx gauge.Pair[uint64]

	ifconfig string
}

// Up reports whether the link is active.
func (i *Interface) Up() bool {
	return i.Status == ""
}

// Speed returns receive and send rates in bits per second since the previous
// update. It's absent until both previous byte counts are non-zero.
func (i *Interface) Speed(elapsed time.Duration) (rx, tx float64, ok bool) {
	if !i.rx.Warm() || i.rx.Previous == 0 || i.tx.Previous == 0 || elapsed <= 0 {
		return 0, 0, false
	}
	secs := elapsed.Seconds()
	rx = float64(gauge.Sub(i.rx.Current, i.rx.Previous)) / secs * 8
	tx = float64(gauge.Sub(i.tx.Current, i.tx.Previous)) / secs * 8
	return rx, tx, true
}

// Bytes returns the current received and sent byte counters.
func (i *Interface) Bytes() (rx, tx uint64) {
	return i.rx.Current, i.tx.Current
}

// Interfaces updates every interface pfdash shows, in display order:
// gateway interfaces, bridges, then the rest, each group sorted by name.
type Interfaces struct {
	list   []*Interface
	byName map[string]*Interface
}

// NewInterfaces builds the updater from the three interface groups.
func NewInterfaces(gateways, bridges, other []string) *Interfaces {
	s := &Interfaces{byName: make(map[string]*Interface)}
	s.addGroup(gateways, false)
	s.addGroup(bridges, true)
	s.addGroup(other, false)
	return s
}

func (s *Interfaces) addGroup(names []string, bridge bool) {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	for _, name := range sorted {
		if _, dup := s.byName[name]; dup {
			continue
		}
		iface := &Interface{Name: name, Bridge: bridge, ifconfig: ifconfigCmd(name)}
		s.list = append(s.list, iface)
		s.byName[name] = iface
	}
}

// List returns the interfaces in display order.
func (s *Interfaces) List() []*Interface {
	return s.list
}

type netstatOutput struct {
	Statistics struct {
		Interface []struct {
			Name          string `json:"name"`
			Network       string `json:"network"`
			Address       string `json:"address"`
			ReceivedBytes uint64 `json:"received-bytes"`
			SentBytes     uint64 `json:"sent-bytes"`
		} `json:"interface"`
	} `json:"statistics"`
}

// Update refreshes link status per interface, then byte counters and
// addresses from one netstat call.
func (s *Interfaces) Update(e sshutil.Executor) error {
	rx := make(map[string]uint64, len(s.list))
	tx := make(map[string]uint64, len(s.list))
	addrs := make(map[string]map[netip.Addr]bool, len(s.list))

	for _, iface := range s.list {
		iface.Addresses = iface.Addresses[:0]
		status, err := linkStatus(e, iface.ifconfig)
		if err != nil {
			return err
		}
		iface.Status = status
	}

	var out netstatOutput
	if err := sshutil.ExecJSON(e, cmdNetstatBytes, &out); err != nil {
		return err
	}

	for _, row := range out.Statistics.Interface {
		if _, ok := s.byName[row.Name]; !ok {
			continue
		}
		if strings.HasPrefix(row.Network, "<Link#") {
			rx[row.Name] += row.ReceivedBytes
			tx[row.Name] += row.SentBytes
			continue
		}
		if strings.HasPrefix(row.Address, "fe80:") {
			continue
		}
		addr, err := netip.ParseAddr(row.Address)
		if err != nil {
			return errors.Decode(fmt.Errorf("interface %s: %w", row.Name, err), cmdNetstatBytes)
		}
		if addrs[row.Name] == nil {
			addrs[row.Name] = make(map[netip.Addr]bool)
		}
		addrs[row.Name][addr] = true
	}

	for _, iface := range s.list {
		iface.rx.Push(rx[iface.Name])
		iface.tx.Push(tx[iface.Name])
		for a := range addrs[iface.Name] {
			iface.Addresses = append(iface.Addresses, a)
		}
		sortAddrs(iface.Addresses)
	}
	return nil
}

// linkStatus returns "" for an active link, else the ifconfig status value.
// No status line at all also counts as active.
func linkStatus(e sshutil.Executor, cmd string) (string, error) {
	lines, err := sshutil.Lines(e, cmd)
	if err != nil {
		return "", err
	}
	for _, line := range lines {
		if _, value, ok := strings.Cut(line, "status:"); ok {
			value = strings.TrimSpace(value)
			if value == "active" {
				return "", nil
			}
			return value, nil
		}
	}
	return "", nil
}

// sortAddrs orders IPv6 before IPv4, each family ascending.
func sortAddrs(addrs []netip.Addr) {
	sort.Slice(addrs, func(i, j int) bool {
		a, b := addrs[i], addrs[j]
		if a.Is4() != b.Is4() {
			return !a.Is4()
		}
		return a.Less(b)
	})
}
