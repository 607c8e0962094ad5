package monitor

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"testing"

	sshtest "github.com/rileyhilliard/pfdash/pkg/sshutil/testing"
)

const routerConfig = `<?xml version="1.0"?>
<pfsense>
	<interfaces>
		<wan><if>igb0</if></wan>
		<lan><if>igb1</if></lan>
	</interfaces>
	<gateways>
		<gateway_item>
			<interface>wan</interface>
			<name>WAN_DHCP</name>
		</gateway_item>
	</gateways>
	<installedpackages>
		<service>
			<name>haproxy</name>
			<executable>haproxy</executable>
		</service>
	</installedpackages>
</pfsense>
`

const (
	bootSec  = 1_700_000_000
	physical = 4 << 30

	tickCommand = "/sbin/sysctl -b vm.stats.vm.v_inactive_count vm.stats.vm.v_cache_count vm.stats.vm.v_free_count" +
		" 'dev.cpu.0.temperature' kern.cp_time"
	netstatCommand = "/usr/bin/netstat -bin --libxo json"
	pfctlCommand   = "/sbin/pfctl -s info"
	mbufCommand    = "/usr/bin/netstat -m --libxo json"
	dfCommand      = "/bin/df -kt ufs --libxo json"
	smartCommand   = "/usr/local/sbin/smartctl -a --json=c '/dev/ada0'"
)

// binaryPayload concatenates sysctl -b values for amd64.
type binaryPayload struct{ bytes.Buffer }

func (p *binaryPayload) u32(vals ...uint32) *binaryPayload {
	for _, v := range vals {
		_ = binary.Write(&p.Buffer, binary.LittleEndian, v)
	}
	return p
}

func (p *binaryPayload) u64(vals ...uint64) *binaryPayload {
	for _, v := range vals {
		_ = binary.Write(&p.Buffer, binary.LittleEndian, v)
	}
	return p
}

// newRouter returns a mock router that answers every discovery and tick
// command. setCounters changes what the next tick reads.
func newRouter(t *testing.T) *sshtest.MockClient {
	t.Helper()
	m := sshtest.NewMockClient("router.lan")

	m.SetFile("/cf/conf/config.xml", routerConfig)
	m.SetFile("/etc/version", "2.7.2-RELEASE\n")
	m.SetFile("/etc/version.patch", "0\n")
	m.SetFile("/etc/version.buildtime", "Fri Dec  8 12:00:00 UTC 2023\n")
	m.SetOutput("/usr/bin/uname -m", "amd64\n")
	m.SetOutput("/usr/bin/uname -sr", "FreeBSD 14.0-CURRENT\n")

	m.SetOutput("/sbin/sysctl -b kern.boottime hw.physmem vm.stats.vm.v_page_count",
		new(binaryPayload).u64(bootSec, 0, physical).u32(1_000_000).String())
	m.SetOutput("/sbin/sysctl -n kern.disks", "ada0\n")
	m.SetOutput("/usr/local/sbin/smartctl -i --json=c '/dev/ada0'", `{"serial_number":"S3Z1NB0K"}`)
	m.SetOutput(smartCommand, `{"smart_status":{"passed":true},"temperature":{"current":36}}`)
	m.SetOutput("/sbin/sysctl -aN", "kern.ostype\ndev.cpu.0.temperature\n")

	m.SetPatternResponse(`^/sbin/ifconfig `, sshtest.CommandResponse{Stdout: []byte("\tstatus: active\n")})
	m.SetPatternResponse(`^/bin/pgrep `, sshtest.CommandResponse{Stdout: []byte("0\n")})
	m.SetPatternResponse(`dpinger_`, sshtest.CommandResponse{Stdout: []byte("WAN_DHCP 12000 500 1\n")})

	m.SetOutput(pfctlCommand, "State Table                          Total             Rate\n  current entries                      812\n")
	m.SetOutput(mbufCommand, `{"mbuf-statistics":{"cluster-total":2000,"cluster-max":8000}}`)
	m.SetOutput(dfCommand, `{"storage-system-information":{"filesystem":[{"mounted-on":"/","total-blocks":1000,"used-blocks":250}]}}`)

	setCounters(m, [5]uint64{50, 50, 50, 50, 800}, 1000, 1000)
	return m
}

// setCounters sets the CPU ticks and igb0 byte counters the next tick reads.
func setCounters(m *sshtest.MockClient, cpu [5]uint64, rx, tx uint64) {
	m.SetOutput(tickCommand, new(binaryPayload).
		u32(100_000, 0, 400_000).
		u32(3181).
		u64(cpu[:]...).String())

	m.SetOutput(netstatCommand, fmt.Sprintf(`{"statistics":{"interface":[`+
		`{"name":"igb0","network":"<Link#1>","address":"00:0d:b9:00:00:01","received-bytes":%d,"sent-bytes":%d},`+
		`{"name":"igb0","network":"192.0.2.0/24","address":"192.0.2.10"},`+
		`{"name":"igb1","network":"<Link#2>","address":"00:0d:b9:00:00:02","received-bytes":5,"sent-bytes":5}`+
		`]}}`, rx, tx))
}
