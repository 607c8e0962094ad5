package doctor

import (
	"fmt"
	"strings"

	"github.com/rileyhilliard/pfdash/internal/filterlog"
	"github.com/rileyhilliard/pfdash/internal/pfconfig"
	"github.com/rileyhilliard/pfdash/internal/telemetry"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// Session is the router connection shared by the SSH and ROUTER checks. It
// dials on first use; a failed dial is remembered so every later check
// reports it instead of dialing again.
type Session struct {
	Host string
	Dial func() (sshutil.Executor, error)

	exec   sshutil.Executor
	err    error
	dialed bool
}

// Executor returns the connection, dialing it the first time.
func (s *Session) Executor() (sshutil.Executor, error) {
	if !s.dialed {
		s.dialed = true
		s.exec, s.err = s.Dial()
	}
	return s.exec, s.err
}

// Close closes the connection if one was made.
func (s *Session) Close() error {
	if s.exec == nil {
		return nil
	}
	return s.exec.Close()
}

func noConnection(name, what string) CheckResult {
	return CheckResult{
		Name:    name,
		Status:  StatusFail,
		Message: what + ": no connection",
	}
}

// ConnectCheck verifies pfdash can log in to the router.
type ConnectCheck struct {
	Session *Session
}

func (c *ConnectCheck) Name() string     { return "ssh_connect" }
func (c *ConnectCheck) Category() string { return "SSH" }

func (c *ConnectCheck) Run() CheckResult {
	if _, err := c.Session.Executor(); err != nil {
		return failed(c.Name(), err, "")
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Connected to %s", c.Session.Host),
	}
}

// VersionCheck reads the pfSense release.
type VersionCheck struct {
	Session *Session
}

func (c *VersionCheck) Name() string     { return "router_version" }
func (c *VersionCheck) Category() string { return "ROUTER" }

func (c *VersionCheck) Run() CheckResult {
	e, err := c.Session.Executor()
	if err != nil {
		return noConnection(c.Name(), "pfSense version")
	}
	v, err := telemetry.ReadVersion(e)
	if err != nil {
		return failed(c.Name(), err, "Is this a pfSense router?")
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: "pfSense " + v.String(),
	}
}

// Tool is a program the dashboard runs on the router.
type Tool struct {
	Name     string
	Path     string
	Purpose  string
	Optional bool // missing means a degraded dashboard, not a broken one
}

// Tools lists everything the poll loop and the firewall log tailer run.
var Tools = []Tool{
	{Name: "sysctl", Path: "/sbin/sysctl", Purpose: "CPU, memory and sensors"},
	{Name: "pfctl", Path: "/sbin/pfctl", Purpose: "the state table"},
	{Name: "netstat", Path: "/usr/bin/netstat", Purpose: "interface counters and mbufs"},
	{Name: "ifconfig", Path: "/sbin/ifconfig", Purpose: "link status"},
	{Name: "df", Path: "/bin/df", Purpose: "filesystem usage"},
	{Name: "pgrep", Path: "/bin/pgrep", Purpose: "service status"},
	{Name: "uname", Path: "/usr/bin/uname", Purpose: "the OS release"},
	{Name: "smartctl", Path: "/usr/local/sbin/smartctl", Purpose: "disk health"},
	{Name: "clog", Path: strings.Fields(filterlog.Command)[0], Purpose: "the firewall log"},
	{Name: "nc", Path: "/usr/bin/nc", Purpose: "gateway latency", Optional: true},
}

// ToolCheck verifies a Tool is installed and executable.
type ToolCheck struct {
	Session *Session
	Tool    Tool
}

func (c *ToolCheck) Name() string     { return "tool_" + c.Tool.Name }
func (c *ToolCheck) Category() string { return "ROUTER" }

func (c *ToolCheck) Run() CheckResult {
	e, err := c.Session.Executor()
	if err != nil {
		return noConnection(c.Name(), c.Tool.Name)
	}

	_, _, exitCode, err := e.Exec("test -x " + shellQuote(c.Tool.Path))
	if err != nil {
		return failed(c.Name(), err, "Check SSH connection")
	}
	if exitCode != 0 {
		result := CheckResult{
			Name:       c.Name(),
			Status:     StatusFail,
			Message:    fmt.Sprintf("%s not found at %s", c.Tool.Name, c.Tool.Path),
			Suggestion: fmt.Sprintf("pfdash needs it for %s", c.Tool.Purpose),
		}
		if c.Tool.Optional {
			result.Status = StatusWarn
			result.Suggestion = fmt.Sprintf("The dashboard will run without %s", c.Tool.Purpose)
		}
		return result
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%s: %s", c.Tool.Name, c.Tool.Path),
	}
}

// ConfigXMLCheck verifies the router config can be read and parsed.
type ConfigXMLCheck struct {
	Session *Session
}

func (c *ConfigXMLCheck) Name() string     { return "router_config" }
func (c *ConfigXMLCheck) Category() string { return "ROUTER" }

func (c *ConfigXMLCheck) Run() CheckResult {
	e, err := c.Session.Executor()
	if err != nil {
		return noConnection(c.Name(), pfconfig.Path)
	}
	cfg, err := pfconfig.Load(e)
	if err != nil {
		return failed(c.Name(), err, "The SSH user must be able to read "+pfconfig.Path)
	}
	return CheckResult{
		Name:   c.Name(),
		Status: StatusPass,
		Message: fmt.Sprintf("%s: %d interface%s, %d gateway%s", pfconfig.Path,
			len(cfg.Interfaces()), pluralize(len(cfg.Interfaces())),
			len(cfg.Gateways), pluralize(len(cfg.Gateways))),
	}
}

// PacketFilterCheck verifies pf's state table can be read.
type PacketFilterCheck struct {
	Session *Session
}

func (c *PacketFilterCheck) Name() string     { return "router_pf" }
func (c *PacketFilterCheck) Category() string { return "ROUTER" }

func (c *PacketFilterCheck) Run() CheckResult {
	e, err := c.Session.Executor()
	if err != nil {
		return noConnection(c.Name(), "pf")
	}
	var states telemetry.StateTable
	if err := states.Update(e); err != nil {
		return failed(c.Name(), err, "Is pf enabled? Check Firewall > Advanced in the web UI")
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("pf state table: %d entries", states.Used),
	}
}

// NewRouterChecks returns the SSH and ROUTER checks over one session.
func NewRouterChecks(s *Session) []Check {
	checks := []Check{
		&ConnectCheck{Session: s},
		&VersionCheck{Session: s},
		&ConfigXMLCheck{Session: s},
		&PacketFilterCheck{Session: s},
	}
	for _, tool := range Tools {
		checks = append(checks, &ToolCheck{Session: s, Tool: tool})
	}
	return checks
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
