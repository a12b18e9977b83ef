// Package config handles the optional escred config file, which supplies
// defaults that command-line flags override.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the default config file location.
const EnvConfigPath = "ESCRED_CONFIG"

// Config holds defaults for a deployment: which region and partition to
// provision in, and extra tags to stamp on created users.
type Config struct {
	Region    string            `yaml:"region,omitempty"`
	Partition string            `yaml:"partition,omitempty"`
	Tags      map[string]string `yaml:"tags,omitempty"`
}

// DefaultPath returns the config file location: $ESCRED_CONFIG if set,
// otherwise escred/config.yaml under the user config directory.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "escred", "config.yaml")
}

// Load reads the config file at path. A missing file is not an error;
// it returns nil so callers fall back to built-in defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}
