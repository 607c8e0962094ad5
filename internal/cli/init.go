package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/huh/spinner"
	"github.com/rileyhilliard/pfdash/internal/config"
	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/rileyhilliard/pfdash/internal/logger"
	"github.com/rileyhilliard/pfdash/internal/telemetry"
	"github.com/rileyhilliard/pfdash/internal/ui"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// InitOptions holds options for the init command.
type InitOptions struct {
	Path           string // Config file; defaults to config.DefaultPath()
	Host           string // Router host, user@host or SSH alias
	Username       string
	Overwrite      bool // Overwrite existing config without asking
	NonInteractive bool // Skip prompts
	SkipCheck      bool // Don't test the connection before saving
}

// mergeInitOptions fills empty options from the environment. CI=true or
// PFDASH_NON_INTERACTIVE=true force non-interactive mode.
func mergeInitOptions(opts InitOptions) InitOptions {
	if opts.Host == "" {
		opts.Host = os.Getenv(config.EnvPrefix + "_SSH_HOSTNAME")
	}
	if opts.Username == "" {
		opts.Username = os.Getenv(config.EnvPrefix + "_SSH_USERNAME")
	}
	if isTrue(os.Getenv(config.EnvPrefix+"_NON_INTERACTIVE")) || isTrue(os.Getenv("CI")) {
		opts.NonInteractive = true
	}
	return opts
}

func isTrue(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// Init writes a new config file.
func Init(opts InitOptions) error {
	opts = mergeInitOptions(opts)

	path := opts.Path
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !opts.Overwrite {
		if opts.NonInteractive {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Config file already exists: %s", path),
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("%s already exists. Overwrite?", path)).
				Value(&overwrite),
		))
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
		opts.Overwrite = true
	}

	cfg := config.DefaultConfig()
	cfg.SSH.Hostname = opts.Host
	cfg.SSH.Username = opts.Username

	if !opts.NonInteractive {
		cancelled, err := promptSSH(&cfg.SSH)
		if err != nil {
			return err
		}
		if cancelled {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if strings.TrimSpace(cfg.SSH.Hostname) == "" {
		return errors.New(errors.ErrConfig,
			"No router given",
			"Pass --host or run 'pfdash init' interactively")
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}

	if !opts.SkipCheck {
		save, err := verifyRouter(cfg, opts.NonInteractive)
		if err != nil {
			return err
		}
		if !save {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	if err := config.Write(path, cfg, opts.Overwrite); err != nil {
		return err
	}

	fmt.Println(ui.Success("Created " + path))
	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  pfdash          - Open the dashboard")
	fmt.Println("  pfdash --plain  - Redraw without the full-screen UI")
	return nil
}

// promptSSH asks for the router and SSH settings. Hosts from ~/.ssh/config
// are offered first when no host was given.
func promptSSH(s *config.SSHConfig) (bool, error) {
	if s.Hostname == "" {
		entries, err := sshutil.ParseSSHConfig()
		if err != nil {
			logger.Default().Debug("reading ~/.ssh/config: %v", err)
		}
		entry, cancelled, err := ui.PickHost(entries)
		if err != nil {
			return false, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to pick a host",
				"Pass --host instead")
		}
		if cancelled {
			return true, nil
		}
		if entry != nil {
			s.Hostname = entry.Alias
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Router").
				Description("Hostname, user@host, host:port or SSH config alias").
				Placeholder("admin@192.168.1.1").
				Value(&s.Hostname).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("a router is required")
					}
					if strings.ContainsAny(v, " \t/") {
						return fmt.Errorf("the router can't contain spaces or slashes")
					}
					return nil
				}),
			huh.NewInput().
				Title("SSH user (optional)").
				Description("Leave empty to use ~/.ssh/config or $USER").
				Value(&s.Username),
			huh.NewConfirm().
				Title("Verify the router's host key against ~/.ssh/known_hosts?").
				Value(&s.StrictHostKeyChecking),
		),
	)
	if err := form.Run(); err != nil {
		return false, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to get user input",
			"Check terminal compatibility or use --non-interactive")
	}
	return false, nil
}

// verifyRouter connects and reads the pfSense version. It reports whether the
// config should be saved: always on success, on failure only when the user
// says so.
func verifyRouter(cfg *config.Config, nonInteractive bool) (bool, error) {
	var (
		version  telemetry.Version
		checkErr error
		checked  bool
	)
	check := func() {
		checked = true
		version, checkErr = checkRouter(cfg)
	}

	if !nonInteractive {
		if err := spinner.New().Title("Connecting to " + cfg.SSH.Hostname + "...").Action(check).Run(); err != nil {
			logger.Default().Debug("spinner: %v", err)
		}
	}
	if !checked {
		check()
	}

	if checkErr == nil {
		fmt.Println(ui.Success(fmt.Sprintf("Connected to pfSense %s", version)))
		return true, nil
	}
	if nonInteractive {
		return false, checkErr
	}

	fmt.Println(ui.Warning(checkErr.Error()))
	var saveAnyway bool
	form := huh.NewForm(huh.NewGroup(
		huh.NewConfirm().
			Title("Save config anyway? (You can fix the connection later)").
			Value(&saveAnyway),
	))
	if err := form.Run(); err != nil {
		return false, checkErr
	}
	return saveAnyway, nil
}

func checkRouter(cfg *config.Config) (telemetry.Version, error) {
	client, err := sshutil.Dial(cfg.SSH.Hostname, cfg.SSH.DialConfig())
	if err != nil {
		return telemetry.Version{}, err
	}
	defer client.Close()
	return telemetry.ReadVersion(client)
}
