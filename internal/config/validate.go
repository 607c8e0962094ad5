package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rileyhilliard/pfdash/internal/errors"
)

// minInterval keeps the poll loop from hammering the router.
const minInterval = 100 * time.Millisecond

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New(errors.ErrConfig,
			"Config is nil",
			"This is unexpected - try reloading the configuration.")
	}

	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but pfdash only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Grab the latest pfdash release.")
	}

	if err := validateSSH(cfg.SSH); err != nil {
		return err
	}

	if _, err := cfg.Layout(); err != nil {
		return err
	}

	if cfg.Interval < minInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Poll interval %s is too short", cfg.Interval),
			fmt.Sprintf("Set 'interval' to at least %s. The default is 1s.", minInterval))
	}

	return validateServices(cfg.Services)
}

func validateSSH(s SSHConfig) error {
	if strings.TrimSpace(s.Hostname) == "" {
		return errors.New(errors.ErrConfig,
			"No router configured",
			"Run 'pfdash init', or set ssh.hostname in the config (or PFDASH_SSH_HOSTNAME).")
	}
	if strings.ContainsAny(s.Hostname, " \t/") {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("ssh.hostname '%s' doesn't look like a host", s.Hostname),
			"Use a hostname, host:port, user@host or an alias from ~/.ssh/config.")
	}
	if s.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("ssh.timeout must be positive, got %s", s.Timeout),
			"Try something like '5s'.")
	}
	return nil
}

func validateServices(services []ServiceConfig) error {
	seen := make(map[string]bool, len(services))
	for i, svc := range services {
		if svc.Name == "" {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Service #%d has no name", i+1),
				"Every entry under 'services' needs a 'name'.")
		}
		if seen[svc.Name] {
			return errors.New(errors.ErrConfig,
				fmt.Sprintf("Service '%s' is listed twice", svc.Name),
				"Remove the duplicate entry under 'services'.")
		}
		seen[svc.Name] = true
	}
	return nil
}
