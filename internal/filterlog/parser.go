// Package filterlog follows the router's firewall log and keeps the most
// recent events that matter to the dashboard.
//
// Line format: https://docs.netgate.com/pfsense/en/latest/monitoring/filter-log-format-for-pfsense-2-2.html
package filterlog

import (
	"net/netip"
	"strconv"
	"strings"
	"unicode/utf8"
)

// timestampLen is the width of the syslog "Jan  2 15:04:05" prefix.
const timestampLen = len("Jan  2 15:04:05")

// Action is what the rule did with the packet.
type Action uint8

const (
	Block Action = iota
	Pass
)

func (a Action) String() string {
	if a == Pass {
		return "pass"
	}
	return "block"
}

func parseAction(s string) (Action, bool) {
	switch s {
	case "block":
		return Block, true
	case "pass":
		return Pass, true
	}
	return 0, false
}

// Protocol is the transport the event was logged for.
type Protocol uint8

const (
	ICMP Protocol = iota
	TCP
	UDP
)

func (p Protocol) String() string {
	switch p {
	case TCP:
		return "tcp"
	case UDP:
		return "udp"
	}
	return "icmp"
}

// Event is one accepted firewall log line. ICMP events carry port 0 in
// Source and Destination.
type Event struct {
	Timestamp   string
	Interface   string
	Action      Action
	Protocol    Protocol
	Source      netip.AddrPort
	Destination netip.AddrPort
}

// HasPorts reports whether Source and Destination carry real ports.
func (e Event) HasPorts() bool {
	return e.Protocol != ICMP
}

// InterfaceSet is the set of interfaces whose events are kept.
type InterfaceSet map[string]struct{}

// NewInterfaceSet builds a set from names.
func NewInterfaceSet(names ...string) InterfaceSet {
	s := make(InterfaceSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set.
func (s InterfaceSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// fields walks the comma-separated fields of a line.
type fields struct {
	rest string
	done bool
}

// next returns the next field.
func (f *fields) next() (string, bool) {
	if f.done {
		return "", false
	}
	field, rest, found := strings.Cut(f.rest, ",")
	if !found {
		f.done = true
	}
	f.rest = rest
	return field, true
}

// nth skips n fields and returns the one after them.
func (f *fields) nth(n int) (string, bool) {
	for range n {
		if _, ok := f.next(); !ok {
			return "", false
		}
	}
	return f.next()
}

// ParseLine parses one inbound block or pass event on an interface in
// interesting. Lines that don't match are rejected with false.
func ParseLine(line string, interesting InterfaceSet) (Event, bool) {
	if len(line) < timestampLen || !utf8.ValidString(line[:timestampLen]) {
		return Event{}, false
	}
	ev := Event{Timestamp: line[:timestampLen]}

	f := &fields{rest: line}

	iface, ok := f.nth(4)
	if !ok || !interesting.Contains(iface) {
		return Event{}, false
	}
	ev.Interface = iface

	if reason, ok := f.next(); !ok || reason != "match" {
		return Event{}, false
	}

	action, ok := f.next()
	if !ok {
		return Event{}, false
	}
	if ev.Action, ok = parseAction(action); !ok {
		return Event{}, false
	}

	if dir, ok := f.next(); !ok || dir != "in" {
		return Event{}, false
	}

	version, ok := f.next()
	if !ok {
		return Event{}, false
	}
	var protoSkip, srcSkip int
	switch version {
	case "4":
		protoSkip, srcSkip = 6, 2
	case "6":
		protoSkip, srcSkip = 4, 1
	default:
		return Event{}, false
	}

	protoID, ok := f.nth(protoSkip)
	if !ok {
		return Event{}, false
	}
	srcField, ok := f.nth(srcSkip)
	if !ok {
		return Event{}, false
	}
	dstField, ok := f.next()
	if !ok {
		return Event{}, false
	}

	src, ok := parseAddr(version, srcField)
	if !ok {
		return Event{}, false
	}
	dst, ok := parseAddr(version, dstField)
	if !ok {
		return Event{}, false
	}

	switch protoID {
	case "1", "58":
		ev.Protocol = ICMP
		ev.Source = netip.AddrPortFrom(src, 0)
		ev.Destination = netip.AddrPortFrom(dst, 0)
		return ev, true
	case "6":
		ev.Protocol = TCP
	case "17":
		ev.Protocol = UDP
	default:
		return Event{}, false
	}

	srcPort, ok := parsePort(f)
	if !ok {
		return Event{}, false
	}
	dstPort, ok := parsePort(f)
	if !ok {
		return Event{}, false
	}
	ev.Source = netip.AddrPortFrom(src, srcPort)
	ev.Destination = netip.AddrPortFrom(dst, dstPort)
	return ev, true
}

// parseAddr parses an address literal of the given IP version.
func parseAddr(version, s string) (netip.Addr, bool) {
	addr, err := netip.ParseAddr(s)
	if err != nil || addr.Zone() != "" {
		return netip.Addr{}, false
	}
	if (version == "4") != addr.Is4() {
		return netip.Addr{}, false
	}
	return addr, true
}

func parsePort(f *fields) (uint16, bool) {
	s, ok := f.next()
	if !ok {
		return 0, false
	}
	port, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(port), true
}
