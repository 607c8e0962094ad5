package config

import (
	"time"

	"github.com/rileyhilliard/pfdash/internal/sysctl"
	"github.com/rileyhilliard/pfdash/pkg/sshutil"
)

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Config represents the complete pfdash config file.
type Config struct {
	Version  int             `yaml:"version" mapstructure:"version"`
	SSH      SSHConfig       `yaml:"ssh" mapstructure:"ssh"`
	Services []ServiceConfig `yaml:"services,omitempty" mapstructure:"services"`
	ABI      ABIConfig       `yaml:"abi" mapstructure:"abi"`

	// Interval between poll ticks.
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
}

// SSHConfig holds how to reach the router.
type SSHConfig struct {
	// Hostname is a host, host:port, user@host or SSH config alias.
	Hostname string `yaml:"hostname" mapstructure:"hostname"`

	// Username overrides the SSH config User.
	Username string `yaml:"username,omitempty" mapstructure:"username"`

	// IdentityFile is an extra private key to try after the agent.
	IdentityFile string `yaml:"identity_file,omitempty" mapstructure:"identity_file"`

	// Timeout bounds connect and handshake.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// StrictHostKeyChecking verifies the router against known_hosts.
	StrictHostKeyChecking bool `yaml:"strict_host_key_checking" mapstructure:"strict_host_key_checking"`
}

// ServiceConfig is a process to watch. With only Name set it refers to a
// built-in service.
type ServiceConfig struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Process string `yaml:"process,omitempty" mapstructure:"process"`
	PidFile string `yaml:"pidfile,omitempty" mapstructure:"pidfile"`
}

// ABIConfig describes how the router's sysctl -b output is laid out.
type ABIConfig struct {
	// ByteOrder is "little" or "big".
	ByteOrder string `yaml:"byte_order" mapstructure:"byte_order"`

	// UlongSize is the width of a C unsigned long, 8 on 64-bit routers.
	UlongSize int `yaml:"ulong_size" mapstructure:"ulong_size"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		SSH: SSHConfig{
			Timeout:               sshutil.DefaultTimeout,
			StrictHostKeyChecking: true,
		},
		ABI: ABIConfig{
			ByteOrder: "little",
			UlongSize: 8,
		},
		Interval: time.Second,
	}
}

// Layout returns the sysctl layout for the configured ABI.
func (c *Config) Layout() (sysctl.Layout, error) {
	return sysctl.ParseLayout(c.ABI.ByteOrder, c.ABI.UlongSize)
}

// DialConfig returns the SSH settings for sshutil.Dial.
func (s SSHConfig) DialConfig() sshutil.DialConfig {
	return sshutil.DialConfig{
		User:                  s.Username,
		IdentityFile:          s.IdentityFile,
		Timeout:               s.Timeout,
		InsecureIgnoreHostKey: !s.StrictHostKeyChecking,
	}
}
