// Package config loads and persists slurmacc configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config holds all slurmacc configuration.
type Config struct {
	Database Database `toml:"database"`
}

// Database holds the user-administration database connection settings.
type Database struct {
	User     string `toml:"user"`
	Password string `toml:"password"`
	Host     string `toml:"host"`
	Name     string `toml:"name"`
}

// DefaultConfig returns the skeleton written when no config file exists.
// The credentials are placeholders the operator must replace.
func DefaultConfig() Config {
	return Config{
		Database: Database{
			User:     "placeholder",
			Password: "placeholder",
			Host:     "database1",
			Name:     "hb_useradmin",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "slurmacc")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "slurmacc")
}

// ConfigPath returns the default config file path.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at path. A missing file is reported with an
// error wrapping os.ErrNotExist so callers can bootstrap a skeleton.
func Load(path string) (Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to path, creating parent directories as needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Validate checks that every required database setting is present.
func (c Config) Validate() error {
	var missing []string
	if c.Database.User == "" {
		missing = append(missing, "database.user")
	}
	if c.Database.Password == "" {
		missing = append(missing, "database.password")
	}
	if c.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if c.Database.Name == "" {
		missing = append(missing, "database.name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("config is missing required values: %s", strings.Join(missing, ", "))
	}
	return nil
}

// DatabasePassword returns the password from the environment or config,
// in that order. The env var keeps credentials out of cron-managed files.
func DatabasePassword(cfg Config) string {
	if pw := os.Getenv("SLURMACC_DB_PASSWORD"); pw != "" {
		return pw
	}
	return cfg.Database.Password
}

// Exists returns true if a config file exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
