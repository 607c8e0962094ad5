package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"github.com/spf13/viper"
)

const (
	// AppDir is the directory under the user config dir.
	AppDir = "pfdash"
	// ConfigFileName is the config file name.
	ConfigFileName = "config.yaml"
	// EnvPrefix prefixes environment overrides, e.g. PFDASH_SSH_HOSTNAME.
	EnvPrefix = "PFDASH"
)

// DefaultPath returns $XDG_CONFIG_HOME/pfdash/config.yaml, falling back to
// ~/.config/pfdash/config.yaml.
func DefaultPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppDir, ConfigFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine home directory",
			"Set XDG_CONFIG_HOME or pass --config")
	}
	return filepath.Join(home, ".config", AppDir, ConfigFileName), nil
}

// Find locates the config file: the explicit path (from --config) if given,
// else the default path. Returns "" when no file exists at the default path.
func Find(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	path, err := DefaultPath()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}
	return "", nil
}

// Load reads config from path with PFDASH_* environment overrides applied.
// An empty path loads defaults plus environment only.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if os.IsNotExist(err) {
				return nil, errors.WrapWithCode(err, errors.ErrConfig,
					"Config file not found",
					"Run 'pfdash init' to create a config file, or specify one with --config")
			}
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to read config file",
				"Check the file exists and is valid YAML")
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		source := path
		if source == "" {
			source = "the PFDASH_* environment"
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+source)
	}
	cfg.SSH.IdentityFile = expandHome(cfg.SSH.IdentityFile)

	return cfg, nil
}

// newViper returns a viper instance with defaults and env bindings. Every
// key needs a default so AutomaticEnv can see it during Unmarshal.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("ssh.hostname", "")
	v.SetDefault("ssh.username", "")
	v.SetDefault("ssh.identity_file", "")
	v.SetDefault("ssh.timeout", d.SSH.Timeout)
	v.SetDefault("ssh.strict_host_key_checking", d.SSH.StrictHostKeyChecking)
	v.SetDefault("abi.byte_order", d.ABI.ByteOrder)
	v.SetDefault("abi.ulong_size", d.ABI.UlongSize)
	v.SetDefault("interval", d.Interval)
	return v
}

// expandHome replaces a leading ~/ with the home directory.
func expandHome(path string) string {
	rest, ok := strings.CutPrefix(path, "~/")
	if !ok {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, rest)
}
