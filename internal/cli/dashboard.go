package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/pfdash/internal/config"
	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/internal/filterlog"
	"github.com/rileyhilliard/pfdash/internal/logger"
	"github.com/rileyhilliard/pfdash/internal/monitor"
	"github.com/rileyhilliard/pfdash/internal/telemetry"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// DashboardOptions are the dashboard's command-line inputs.
type DashboardOptions struct {
	Host  string // overrides ssh.hostname
	Plain bool
}

type (
	tailFunc func(ctx context.Context) error
	pollFunc func(ctx context.Context, render func(*monitor.Snapshot)) error
)

// loadConfig finds, loads and validates the config. host, when set, replaces
// ssh.hostname before validation.
func loadConfig(path, host string) (*config.Config, error) {
	found, err := config.Find(path)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(found)
	if err != nil {
		return nil, err
	}
	if host != "" {
		cfg.SSH.Hostname = host
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serviceSpecs(services []config.ServiceConfig) []telemetry.ServiceSpec {
	specs := make([]telemetry.ServiceSpec, 0, len(services))
	for _, s := range services {
		specs = append(specs, telemetry.ServiceSpec{Name: s.Name, Process: s.Process, PidFile: s.PidFile})
	}
	return specs
}

func dashboardCommand(ctx context.Context, opts DashboardOptions) error {
	cfg, err := loadConfig(cfgFile, opts.Host)
	if err != nil {
		return err
	}
	layout, err := cfg.Layout()
	if err != nil {
		return err
	}

	dialCfg := cfg.SSH.DialConfig()
	dial := func() (sshutil.Executor, error) {
		c, err := sshutil.Dial(cfg.SSH.Hostname, dialCfg)
		if err != nil {
			return nil, err
		}
		return c, nil
	}

	client, err := sshutil.Dial(cfg.SSH.Hostname, dialCfg)
	if err != nil {
		return err
	}
	defer client.Close()
	defer sshutil.CloseAgent()

	plan, err := monitor.Discover(client, layout, serviceSpecs(cfg.Services))
	if err != nil {
		return err
	}

	fd := int(os.Stdout.Fd())
	tty := term.IsTerminal(fd)
	useTUI := tty && !opts.Plain
	if useTUI && logFile == "" {
		// The full-screen UI owns the terminal.
		logger.SetDefault(logger.Noop())
	}

	firewall := filterlog.NewLog()
	tailer := filterlog.NewTailer(dial, firewall, filterlog.NewInterfaceSet(plan.Config.GatewayInterfaces...))
	poller := monitor.NewPoller(client, plan,
		monitor.WithInterval(cfg.Interval),
		monitor.WithFirewallLog(firewall))

	if useTUI {
		return runTUI(ctx, client.GetHost(), tailer.Run, poller.Run)
	}

	width := 0
	if tty {
		if w, _, err := term.GetSize(fd); err == nil {
			width = w
		}
	}
	return runPlain(ctx, os.Stdout, width, tailer.Run, poller.Run)
}

// supervise runs the tailer and the poll loop until one of them fails. The
// first error cancels the other and is passed to fatal, unless it is the
// cancellation itself.
func supervise(ctx context.Context, fatal func(error), tail tailFunc, poll pollFunc, render func(*monitor.Snapshot)) error {
	g, ctx := errgroup.WithContext(ctx)

	wrap := func(fn func() error) func() error {
		return func() error {
			err := fn()
			if err != nil && !isCanceled(err) && fatal != nil {
				fatal(err)
			}
			return err
		}
	}

	g.Go(wrap(func() error { return tail(ctx) }))
	g.Go(wrap(func() error { return poll(ctx, render) }))
	return g.Wait()
}

func isCanceled(err error) bool {
	return stderrors.Is(err, context.Canceled)
}

// runTUI drives the Bubble Tea dashboard. Quitting doesn't wait for the
// workers; the deferred Close of the connection ends them.
func runTUI(ctx context.Context, host string, tail tailFunc, poll pollFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(monitor.NewModel(host), tea.WithAltScreen())

	done := make(chan error, 1)
	go func() {
		done <- supervise(ctx,
			func(err error) { p.Send(monitor.FatalMsg{Err: err}) },
			tail, poll,
			func(s *monitor.Snapshot) { p.Send(monitor.SnapshotMsg{Snapshot: s}) })
	}()

	final, err := p.Run()
	cancel()
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrExec,
			"The dashboard UI failed",
			"Try again with --plain")
	}
	if m, ok := final.(monitor.Model); ok && m.Err() != nil {
		return m.Err()
	}

	select {
	case werr := <-done:
		if werr != nil && !isCanceled(werr) {
			return werr
		}
	default:
	}
	return nil
}

// runPlain redraws frames on w until a worker fails or ctx is cancelled.
func runPlain(ctx context.Context, w io.Writer, width int, tail tailFunc, poll pollFunc) error {
	r := monitor.NewPlainRenderer(w, width)
	log := logger.Default()

	err := supervise(ctx, nil, tail, poll, func(s *monitor.Snapshot) {
		if err := r.Render(s); err != nil {
			log.Warn("writing frame: %v", err)
		}
	})
	if isCanceled(err) {
		return nil
	}
	return err
}
