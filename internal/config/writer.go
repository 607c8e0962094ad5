package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/pfdash/internal/errors"
	"gopkg.in/yaml.v3"
)

const fileHeader = `# pfdash configuration
# Run 'pfdash' to open the dashboard for the router below.
# Every key can be overridden with PFDASH_<SECTION>_<KEY>, e.g. PFDASH_SSH_HOSTNAME.

`

// Marshal renders cfg as YAML with a header comment.
func Marshal(cfg *Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to generate config",
			"This shouldn't happen - please report this bug")
	}
	return append([]byte(fileHeader), data...), nil
}

// Write saves cfg to path, creating parent directories. An existing file is
// only replaced when overwrite is set.
func Write(path string, cfg *Config, overwrite bool) error {
	if _, err := os.Stat(path); err == nil && !overwrite {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Config file already exists: %s", path),
			"Use --force to overwrite")
	}

	data, err := Marshal(cfg)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to create config directory: %s", filepath.Dir(path)),
			"Check directory permissions")
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("Failed to write config file: %s", path),
			"Check directory permissions")
	}
	return nil
}
