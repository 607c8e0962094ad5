package doctor

import (
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/pfdash/internal/config"
	"github.com/rileyhilliard/pfdash/internal/errors"
)

// failed turns err into a failing result. An empty suggestion falls back to
// the one carried by a structured error.
func failed(name string, err error, suggestion string) CheckResult {
	result := CheckResult{Name: name, Status: StatusFail, Message: err.Error(), Suggestion: suggestion}
	var e *errors.Error
	if stderrors.As(err, &e) {
		result.Message = e.Message
		if e.Cause != nil {
			result.Message += ": " + e.Cause.Error()
		}
		if suggestion == "" {
			result.Suggestion = e.Suggestion
		}
	}
	return result
}

// ConfigCheck loads and validates the config. On success Config returns it
// so the SSH checks can use it.
type ConfigCheck struct {
	ConfigPath string // Explicit path, or empty for the default location
	Host       string // Overrides ssh.hostname, as --host does

	cfg *config.Config
}

func (c *ConfigCheck) Name() string     { return "config" }
func (c *ConfigCheck) Category() string { return "CONFIG" }

// Config returns the validated config, or nil if the check hasn't passed.
func (c *ConfigCheck) Config() *config.Config {
	return c.cfg
}

func (c *ConfigCheck) Run() CheckResult {
	c.cfg = nil

	path, err := config.Find(c.ConfigPath)
	if err != nil {
		return failed(c.Name(), err, "")
	}

	cfg, err := config.Load(path)
	if err != nil {
		return failed(c.Name(), err, "")
	}
	if c.Host != "" {
		cfg.SSH.Hostname = c.Host
	}
	if err := config.Validate(cfg); err != nil {
		result := failed(c.Name(), err, "")
		if path == "" {
			result.Suggestion = "Run 'pfdash init' to create a config file"
		}
		return result
	}

	c.cfg = cfg
	if path == "" {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file, using defaults and PFDASH_* variables",
			Suggestion: "Run 'pfdash init' to save these settings",
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", path),
	}
}
