package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	home, _ := os.UserHomeDir()
	wantDataDir := filepath.Join(home, ".cairn")
	if cfg.DataDir != wantDataDir {
		t.Errorf("DataDir: want %s, got %s", wantDataDir, cfg.DataDir)
	}
	wantDB := filepath.Join(wantDataDir, "cairn.db")
	if cfg.DBPath != wantDB {
		t.Errorf("DBPath: want %s, got %s", wantDB, cfg.DBPath)
	}
	if cfg.RetryAttempts != 3 || cfg.LinkRetryAttempts != 5 {
		t.Errorf("unexpected retry defaults: %d/%d", cfg.RetryAttempts, cfg.LinkRetryAttempts)
	}
	if !cfg.Verify {
		t.Error("verification should default on")
	}
}

func TestExpandHomeWithTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home dir")
	}
	got := expandHome("~/foo")
	want := filepath.Join(home, "foo")
	if got != want {
		t.Errorf("expandHome(~/foo): want %s, got %s", want, got)
	}
}

func TestExpandHomeAbsolute(t *testing.T) {
	got := expandHome("/absolute/path")
	if got != "/absolute/path" {
		t.Errorf("expandHome(/absolute/path): want /absolute/path, got %s", got)
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got error: %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"zero retry attempts", func(c *Config) { c.RetryAttempts = 0 }},
		{"zero link attempts", func(c *Config) { c.LinkRetryAttempts = 0 }},
		{"negative base delay", func(c *Config) { c.RetryBaseDelaySeconds = -1 }},
		{"zero http timeout", func(c *Config) { c.HTTPTimeoutSeconds = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestDurationHelpers(t *testing.T) {
	cfg := &Config{RetryBaseDelaySeconds: 2, HTTPTimeoutSeconds: 30}
	if cfg.RetryBaseDelay() != 2*time.Second {
		t.Errorf("RetryBaseDelay: got %v", cfg.RetryBaseDelay())
	}
	if cfg.HTTPTimeout() != 30*time.Second {
		t.Errorf("HTTPTimeout: got %v", cfg.HTTPTimeout())
	}
}

func TestSaveWritesConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.DataDir = dir
	cfg.DBPath = filepath.Join(dir, "cairn.db")
	cfg.LogFile = filepath.Join(dir, "cairn.log")
	cfg.RetryAttempts = 7

	if err := Save(cfg); err != nil {
		t.Fatalf("save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("saved config is empty")
	}
}
