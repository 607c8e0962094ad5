// Package telemetry holds one updater per router subsystem. Each updater owns
// the commands it runs and refreshes its values in place once per tick,
// keeping the previous sample of every counter so rates can be derived.
//
// Updaters are not safe for concurrent use; the poll loop owns all of them.
package telemetry

import "strings"

// Remote commands. Paths are absolute so the router's PATH doesn't matter.
const (
	cmdStartupSysctls = "/sbin/sysctl -b kern.boottime hw.physmem vm.stats.vm.v_page_count"
	cmdTickSysctls    = "/sbin/sysctl -b vm.stats.vm.v_inactive_count vm.stats.vm.v_cache_count vm.stats.vm.v_free_count"
	cmdSysctlNames    = "/sbin/sysctl -aN"
	cmdDiskNames      = "/sbin/sysctl -n kern.disks"
	cmdNetstatBytes   = "/usr/bin/netstat -bin --libxo json"
	cmdNetstatMbufs   = "/usr/bin/netstat -m --libxo json"
	cmdPfctlInfo      = "/sbin/pfctl -s info"
	cmdDiskFree       = "/bin/df -kt ufs --libxo json"
	cmdUnameMachine   = "/usr/bin/uname -m"
	cmdUnameRelease   = "/usr/bin/uname -sr"

	cmdDpinger = `for f in /var/run/dpinger_*.sock; do /usr/bin/nc -U "$f" 2>/dev/null || :; done`
)

// quote wraps s in single quotes for the router's /bin/sh.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func ifconfigCmd(name string) string {
	return "/sbin/ifconfig " + quote(name)
}

func smartInfoCmd(disk string) string {
	return "/usr/local/sbin/smartctl -i --json=c " + quote("/dev/"+disk)
}

func smartStatusCmd(disk string) string {
	return "/usr/local/sbin/smartctl -a --json=c " + quote("/dev/"+disk)
}

func catCmd(path string) string {
	return "cat " + quote(path)
}

// pgrepCmd prints 0 when a process named exe (and, with a pidfile, whose pid
// is in that file) is running.
func pgrepCmd(exe, pidfile string) string {
	if pidfile != "" {
		return "/bin/pgrep -F " + quote(pidfile) + " -x " + quote(exe) + " >/dev/null 2>/dev/null; echo $?"
	}
	return "/bin/pgrep -x " + quote(exe) + " >/dev/null 2>/dev/null; echo $?"
}

// Percent returns used as a percentage of max, or 0 when max is 0.
func Percent(used, max uint64) float64 {
	if max == 0 {
		return 0
	}
	return float64(used) * 100 / float64(max)
}
