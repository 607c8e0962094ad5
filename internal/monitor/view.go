package monitor

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"github.com/rileyhilliard/pfdash/internal/filterlog"
)

const (
	labelWidth   = 14
	indent       = labelWidth + 3 // label + " : "
	defaultWidth = indent + 70
)

// Render draws a snapshot as a block of text at most width columns wide.
func Render(s *Snapshot, width int) string {
	if width <= 0 {
		width = defaultWidth
	}

	var b strings.Builder
	section(&b, "Version", []string{
		s.Version.String(),
		"built on " + s.Version.BuildTime,
		"based on " + s.Version.OSBase,
	})
	b.WriteString("\n")

	section(&b, "Uptime", []string{formatUptime(s.Uptime)})
	b.WriteString("\n")

	cpu := "    ? %"
	if s.CPUKnown {
		cpu = colored(UsageColor(s.CPUPercent), fmt.Sprintf("%5.1f %%", s.CPUPercent))
	}
	section(&b, "CPU usage", []string{cpu})
	section(&b, "Memory usage", []string{colored(UsageColor(s.Memory.Percent),
		fmt.Sprintf("%5.1f %% of %s", s.Memory.Percent, humanize.IBytes(s.PhysicalMemory)))})
	section(&b, "States table", []string{renderCounter(s.States)})
	section(&b, "MBUF usage", []string{renderCounter(s.MBufs)})
	section(&b, "Disk usage", renderFilesystems(s))
	section(&b, "SMART status", renderSmart(s))
	b.WriteString("\n")

	section(&b, "Temperatures", renderTemperatures(s))
	b.WriteString("\n")

	section(&b, "Interfaces", renderInterfaces(s))
	section(&b, "Gateways", renderGateways(s))
	b.WriteString("\n")

	section(&b, "Services", renderServices(s, width))
	b.WriteString("\n")

	section(&b, "Firewall logs", renderFirewall(s.Firewall))

	return b.String()
}

// section writes a labelled block. Continuation lines are indented under the
// first value.
func section(b *strings.Builder, label string, lines []string) {
	fmt.Fprintf(b, "%s : ", LabelStyle.Render(fmt.Sprintf("%-*s", labelWidth, label)))
	if len(lines) == 0 {
		b.WriteString(MutedStyle.Render("none"))
	}
	for i, line := range lines {
		if i > 0 {
			b.WriteString("\n" + strings.Repeat(" ", indent))
		}
		b.WriteString(line)
	}
	b.WriteString("\n")
}

func formatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	return fmt.Sprintf("%d days %02d:%02d:%02d",
		secs/86400, secs%86400/3600, secs%3600/60, secs%60)
}

func renderCounter(u Usage) string {
	return colored(UsageColor(u.Percent), fmt.Sprintf("%5.1f %% (%7d / %7d)", u.Percent, u.Used, u.Max))
}

func maxLen(n int, f func(int) string) int {
	w := 0
	for i := range n {
		w = max(w, lipgloss.Width(f(i)))
	}
	return w
}

func renderFilesystems(s *Snapshot) []string {
	w := maxLen(len(s.Filesystems), func(i int) string { return s.Filesystems[i].MountedOn })
	var lines []string
	for _, fs := range s.Filesystems {
		pct := fs.UsagePercent()
		lines = append(lines, colored(UsageColor(pct),
			fmt.Sprintf("%*s : %5.1f %% of %s", w, fs.MountedOn, pct, humanize.Bytes(fs.TotalBytes()))))
	}
	return lines
}

func renderSmart(s *Snapshot) []string {
	nameW := maxLen(len(s.Disks), func(i int) string { return s.Disks[i].Name })
	serialW := maxLen(len(s.Disks), func(i int) string { return s.Disks[i].Serial })
	var lines []string
	for _, d := range s.Disks {
		status := "FAILED"
		if d.SmartPassed {
			status = "PASSED"
		}
		lines = append(lines, colored(UpDownColor(d.SmartPassed),
			fmt.Sprintf("%*s %-*s %s", nameW, d.Name, serialW, d.Serial, status)))
	}
	return lines
}

func renderTemperatures(s *Snapshot) []string {
	type reading struct {
		name    string
		celsius float64
	}
	var readings []reading
	for _, sensor := range s.Sensors {
		readings = append(readings, reading{sensor.Name, sensor.Celsius})
	}
	for _, d := range s.Disks {
		readings = append(readings, reading{d.Name, float64(d.Temperature)})
	}

	w := maxLen(len(readings), func(i int) string { return readings[i].name })
	var lines []string
	for _, r := range readings {
		lines = append(lines, colored(TemperatureColor(r.celsius),
			fmt.Sprintf("%*s : %5.1f °C", w, r.name, r.celsius)))
	}
	return lines
}

// formatBits formats a bit rate with SI prefixes.
func formatBits(bps float64) string {
	return humanize.SIWithDigits(bps, 1, "b/s")
}

func renderInterfaces(s *Snapshot) []string {
	const speedWidth = 30

	w := maxLen(len(s.Interfaces), func(i int) string { return s.Interfaces[i].Name })
	var lines []string
	for _, iface := range s.Interfaces {
		var speed string
		switch {
		case !iface.Up:
			speed = iface.Status
		case iface.Bridge:
			// Bridge traffic is already counted on its members.
		case iface.SpeedKnown:
			speed = formatBits(iface.RxBits) + " down " + formatBits(iface.TxBits) + " up"
		default:
			speed = "? b/s down ? b/s up"
		}

		head := fmt.Sprintf("%*s : %-*s ", w, iface.Name, speedWidth, speed)
		color := UpDownColor(iface.Up)
		if len(iface.Addresses) == 0 {
			lines = append(lines, colored(color, strings.TrimRight(head, " ")))
			continue
		}
		for i, addr := range iface.Addresses {
			prefix := head
			if i > 0 {
				prefix = strings.Repeat(" ", len(head))
			}
			lines = append(lines, colored(color, prefix+addr.String()))
		}
	}
	return lines
}

func renderGateways(s *Snapshot) []string {
	w := maxLen(len(s.Gateways), func(i int) string { return s.Gateways[i].Name })
	var lines []string
	for _, gw := range s.Gateways {
		if !gw.Running {
			lines = append(lines, colored(ColorDown,
				fmt.Sprintf("%*s : dpinger is not running", w, gw.Name)))
			continue
		}
		lines = append(lines, fmt.Sprintf("%*s : %6.1f ms (%6.1f ms) %3d %% loss",
			w, gw.Name,
			float64(gw.LatencyAvg)/float64(time.Millisecond),
			float64(gw.LatencyStddev)/float64(time.Millisecond),
			gw.LossPercent))
	}
	return lines
}

// renderServices lays services out in columns, filling each column top to
// bottom.
func renderServices(s *Snapshot, width int) []string {
	if len(s.Services) == 0 {
		return nil
	}
	w := maxLen(len(s.Services), func(i int) string { return s.Services[i].Name })
	perRow := max(1, (width-indent)/(w+2))
	rows := (len(s.Services) + perRow - 1) / perRow

	lines := make([]string, rows)
	for r := range rows {
		var cells []string
		for c := range perRow {
			i := r + rows*c
			if i >= len(s.Services) {
				break
			}
			svc := s.Services[i]
			cells = append(cells, colored(UpDownColor(svc.Running), fmt.Sprintf("%-*s", w, svc.Name)))
		}
		lines[r] = strings.Join(cells, "  ")
	}
	return lines
}

func renderFirewall(events []filterlog.Event) []string {
	w := maxLen(len(events), func(i int) string { return events[i].Interface })
	var lines []string
	for _, ev := range events {
		var target string
		if ev.HasPorts() {
			target = fmt.Sprintf("%5d/%s <- %s", ev.Destination.Port(), ev.Protocol, ev.Source.Addr())
		} else {
			target = fmt.Sprintf("      %s <- %s", ev.Protocol, ev.Source.Addr())
		}
		lines = append(lines, colored(UpDownColor(ev.Action == filterlog.Block),
			fmt.Sprintf("%s %-*s %-5s %s", ev.Timestamp, w, ev.Interface, ev.Action, target)))
	}
	return lines
}
