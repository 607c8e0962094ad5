package telemetry

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/internal/pfconfig"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// pidDir is where relative pidfiles live on the router.
const pidDir = "/var/run"

// ServiceSpec is a service to watch. An empty Process means Name is a
// built-in service.
type ServiceSpec struct {
	Name    string
	Process string
	PidFile string
}

type builtinService struct {
	process string
	pidfile string
}

var builtinServices = map[string]builtinService{
	"dhcpd":   {process: "dhcpd"},
	"ntpd":    {process: "ntpd", pidfile: "ntpd.pid"},
	"radvd":   {process: "radvd", pidfile: "radvd.pid"},
	"sshd":    {process: "sshd", pidfile: "sshd.pid"},
	"syslogd": {process: "syslogd", pidfile: "syslog.pid"},
	"unbound": {process: "unbound", pidfile: "unbound.pid"},
}

// BuiltinServiceNames returns the names of the built-in services, sorted.
func BuiltinServiceNames() []string {
	names := make([]string, 0, len(builtinServices))
	for name := range builtinServices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Service is a watched process.
type Service struct {
	Name    string
	Running bool

	cmd string
}

// ResolveServices combines configured services with those of installed
// packages, sorted by name.
func ResolveServices(specs []ServiceSpec, pkgs []pfconfig.Service) ([]*Service, error) {
	services := make([]*Service, 0, len(specs)+len(pkgs))

	for _, spec := range specs {
		process, pidfile := spec.Process, spec.PidFile
		if process == "" {
			b, ok := builtinServices[spec.Name]
			if !ok {
				return nil, unknownServiceError(spec.Name)
			}
			process = b.process
			if pidfile == "" {
				pidfile = b.pidfile
			}
		}
		services = append(services, newService(spec.Name, process, pidfile))
	}

	for _, p := range pkgs {
		services = append(services, newService(p.Name, p.Executable, ""))
	}

	sort.SliceStable(services, func(i, j int) bool { return services[i].Name < services[j].Name })
	return services, nil
}

func newService(name, process, pidfile string) *Service {
	if pidfile != "" && !path.IsAbs(pidfile) {
		pidfile = path.Join(pidDir, pidfile)
	}
	return &Service{Name: name, cmd: pgrepCmd(process, pidfile)}
}

func unknownServiceError(name string) error {
	suggestion := fmt.Sprintf("Built-in services are %s. For anything else set 'process' (and optionally 'pidfile').",
		strings.Join(BuiltinServiceNames(), ", "))

	best, bestDist := "", 0
	for _, candidate := range BuiltinServiceNames() {
		d := levenshtein.ComputeDistance(name, candidate)
		if best == "" || d < bestDist {
			best, bestDist = candidate, d
		}
	}
	if best != "" && bestDist <= 2 {
		suggestion = fmt.Sprintf("Did you mean '%s'? ", best) + suggestion
	}

	return errors.New(errors.ErrConfig,
		fmt.Sprintf("%q is not recognized as a built-in service", name),
		suggestion)
}

// Command returns the check command.
func (s *Service) Command() string {
	return s.cmd
}

// Update checks whether the process is running.
func (s *Service) Update(e sshutil.Executor) error {
	line, err := sshutil.Line(e, s.cmd)
	if err != nil {
		return err
	}
	s.Running = strings.TrimSpace(line) == "0"
	return nil
}
