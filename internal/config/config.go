// Package config loads SPORK settings from an optional YAML file and the
// environment.
//
// Precedence, lowest first: defaults, config file, environment
// (SPORK_DB, SPORK_SCHEMA), command-line flags. Flags are applied by the
// cli package.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "spork.yaml"

// DefaultDatabase is the database location used when nothing else is set.
const DefaultDatabase = "spork.db"

// Config holds SPORK settings.
type Config struct {
	// Database is the SQLite database path.
	Database string `yaml:"database"`

	// Schema is the schema file applied to a new database.
	// Empty means the schema embedded in the binary.
	Schema string `yaml:"schema,omitempty"`

	// User is the id every command runs as.
	User int64 `yaml:"user"`

	// LogFile, when set, receives JSON logs in addition to stderr.
	LogFile string `yaml:"log_file,omitempty"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level,omitempty"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Database: DefaultDatabase,
		User:     1,
		LogLevel: "warn",
	}
}

// Load reads the config file at path over the defaults, then applies
// environment overrides.
//
// A missing file is not an error when optional is true, which is how the
// implicit DefaultPath is read.
func Load(path string, optional bool) (Config, error) {
	cfg := Default()

	if path != "" {
		f, err := os.Open(path)
		switch {
		case errors.Is(err, os.ErrNotExist) && optional:
		case err != nil:
			return Config{}, fmt.Errorf("open config: %w", err)
		default:
			defer f.Close()
			if err := decode(f, &cfg); err != nil {
				return Config{}, fmt.Errorf("config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decode parses YAML into cfg. Unknown keys are rejected.
func decode(r io.Reader, cfg *Config) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	return dec.Decode(cfg)
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SPORK_DB"); v != "" {
		cfg.Database = v
	}
	if v := os.Getenv("SPORK_SCHEMA"); v != "" {
		cfg.Schema = v
	}
}

// Validate checks the settings.
func (c Config) Validate() error {
	if c.Database == "" {
		return errors.New("config: database must not be empty")
	}
	if c.User <= 0 {
		return fmt.Errorf("config: user must be positive, got %d", c.User)
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: invalid log_level %q", c.LogLevel)
	}
	return nil
}
