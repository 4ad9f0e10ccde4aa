// Package config resolves the client configuration directory and settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// AppName is the configuration directory name.
	AppName = "taskdeck"

	// FileName is the YAML settings filename inside the config dir.
	FileName = "config.yaml"

	// DefaultAPIURL is used when neither the env var nor the config file
	// names a server.
	DefaultAPIURL = "http://localhost:8000"

	// EnvAPIURL overrides the configured server base URL.
	EnvAPIURL = "TASKDECK_API_URL"
)

// Config holds resolved settings and paths.
type Config struct {
	// Dir is the configuration directory (credentials live here too).
	Dir string

	// APIURL is the remote server base URL, without a trailing slash.
	APIURL string `yaml:"api_url"`

	// LogFile, when non-empty, receives debug diagnostics. TUI views
	// cannot write to stdout, so this is the only debug channel.
	LogFile string `yaml:"log_file"`
}

// DefaultDir returns XDG_CONFIG_HOME/taskdeck, or $HOME/.config/taskdeck.
func DefaultDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// Load reads the config file from dir (DefaultDir when empty) and applies
// env overrides. A missing file is not an error; defaults apply.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	cfg := &Config{Dir: dir}

	b, err := os.ReadFile(filepath.Join(dir, FileName))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", FileName, err)
		}
	case errors.Is(err, os.ErrNotExist):
		// no file, defaults below
	default:
		return nil, fmt.Errorf("read %s: %w", FileName, err)
	}

	if env := os.Getenv(EnvAPIURL); env != "" {
		cfg.APIURL = env
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	return cfg, nil
}

// EnsureDir creates the config directory with owner-only access.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0o700)
}
