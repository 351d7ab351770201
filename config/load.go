package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
	"github.com/sirupsen/logrus"
)

// ErrInvalidConfig is wrapped by every validation and decoding failure.
var ErrInvalidConfig = errors.New("invalid config")

// DefaultPath is the config file read when no path is given.
const DefaultPath = "~/.config/peerdrop/config.toml"

// Load reads the TOML file at path over the defaults, then applies
// PEERDROP_* environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}
	expanded, err := homedir.Expand(path)
	if err != nil {
		return nil, fmt.Errorf("%w: expanding %s: %w", ErrInvalidConfig, path, err)
	}

	f, err := os.Open(expanded)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logrus.WithFields(logrus.Fields{
			"function": "Load",
			"path":     expanded,
		}).Debug("Config file not found, using defaults")
		return FromReader(strings.NewReader(""))
	case err != nil:
		return nil, fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	logrus.WithFields(logrus.Fields{
		"function": "Load",
		"path":     expanded,
	}).Debug("Loading config file")

	return FromReader(f)
}

// FromReader decodes TOML from r over the defaults and applies environment
// overrides. Unknown keys are rejected.
func FromReader(r io.Reader) (*Config, error) {
	cfg := Default()

	md, err := toml.NewDecoder(r).Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("%w: processing env vars overrides: %w", ErrInvalidConfig, err)
	}

	if cfg.Storage.DownloadDir != "" {
		dir, err := homedir.Expand(cfg.Storage.DownloadDir)
		if err != nil {
			return nil, fmt.Errorf("%w: download dir: %w", ErrInvalidConfig, err)
		}
		cfg.Storage.DownloadDir = dir
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}

// Validate checks every field for a usable value.
func (c *Config) Validate() error {
	var errs []error
	if c.Transfer.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("Transfer.PollInterval must be positive, got %s", c.Transfer.PollInterval))
	}
	if c.Transfer.StallTimeout < 0 {
		errs = append(errs, fmt.Errorf("Transfer.StallTimeout must not be negative, got %s", c.Transfer.StallTimeout))
	}
	if c.Transfer.MaxFileSize < 0 {
		errs = append(errs, fmt.Errorf("Transfer.MaxFileSize must not be negative, got %d", c.Transfer.MaxFileSize))
	}
	if c.Session.IdleTimeout <= 0 {
		errs = append(errs, fmt.Errorf("Session.IdleTimeout must be positive, got %s", c.Session.IdleTimeout))
	}
	if c.Session.SweepInterval <= 0 {
		errs = append(errs, fmt.Errorf("Session.SweepInterval must be positive, got %s", c.Session.SweepInterval))
	}
	if c.WebRTC.ChannelLabel == "" {
		errs = append(errs, errors.New("WebRTC.ChannelLabel must not be empty"))
	}
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("Log.Level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("Log.Format must be text or json, got %q", c.Log.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}
