package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Config holds the cairn configuration.
type Config struct {
	DataDir string `json:"data_dir"` // default "~/.cairn"
	DBPath  string `json:"db_path"`  // default "{data_dir}/cairn.db"
	LogFile string `json:"log_file"` // default "{data_dir}/cairn.log"

	RetryAttempts     int `json:"retry_attempts"`      // create retries, default 3
	LinkRetryAttempts int `json:"link_retry_attempts"` // link retries, default 5

	RetryBaseDelaySeconds int `json:"retry_base_delay_seconds"` // default 2
	HTTPTimeoutSeconds    int `json:"http_timeout_seconds"`     // default 30

	Verify bool `json:"verify"` // post-run verification pass, default true
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".cairn")
	return &Config{
		DataDir:               dataDir,
		DBPath:                filepath.Join(dataDir, "cairn.db"),
		LogFile:               filepath.Join(dataDir, "cairn.log"),
		RetryAttempts:         3,
		LinkRetryAttempts:     5,
		RetryBaseDelaySeconds: 2,
		HTTPTimeoutSeconds:    30,
		Verify:                true,
	}
}

// configPath returns the path to the config file.
func configPath(cfg *Config) string {
	return filepath.Join(cfg.DataDir, "config.json")
}

// expandHome replaces a leading "~" with the user's home directory.
func expandHome(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}

// Load reads configuration from ~/.cairn/config.json.
// If the file does not exist, it returns the default configuration.
func Load() (*Config, error) {
	cfg := DefaultConfig()
	path := configPath(cfg)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// Expand home directory references.
	cfg.DataDir = expandHome(cfg.DataDir)
	cfg.DBPath = expandHome(cfg.DBPath)
	cfg.LogFile = expandHome(cfg.LogFile)

	// Paths left empty in the file fall back to defaults relative to DataDir.
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(cfg.DataDir, "cairn.db")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(cfg.DataDir, "cairn.log")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Validate checks that the Config contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must not be empty")
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("retry_attempts must be at least 1, got %d", c.RetryAttempts)
	}
	if c.LinkRetryAttempts < 1 {
		return fmt.Errorf("link_retry_attempts must be at least 1, got %d", c.LinkRetryAttempts)
	}
	if c.RetryBaseDelaySeconds < 0 {
		return fmt.Errorf("retry_base_delay_seconds must not be negative, got %d", c.RetryBaseDelaySeconds)
	}
	if c.HTTPTimeoutSeconds < 1 {
		return fmt.Errorf("http_timeout_seconds must be at least 1, got %d", c.HTTPTimeoutSeconds)
	}
	return nil
}

// RetryBaseDelay returns the configured base backoff interval.
func (c *Config) RetryBaseDelay() time.Duration {
	return time.Duration(c.RetryBaseDelaySeconds) * time.Second
}

// HTTPTimeout returns the configured per-request timeout.
func (c *Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// Save writes the configuration to ~/.cairn/config.json.
func Save(cfg *Config) error {
	if err := EnsureDataDir(cfg); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	path := configPath(cfg)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir(cfg *Config) error {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir %s: %w", cfg.DataDir, err)
	}
	return nil
}
