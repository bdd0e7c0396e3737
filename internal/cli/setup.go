package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jmaddaus/cairn/internal/config"
	"github.com/jmaddaus/cairn/internal/store"
)

// ErrValidation marks failures detected before any remote call: bad input
// shape, cycles, dangling parents, bad repository format. main exits with a
// distinct code when it sees this.
var ErrValidation = errors.New("validation failed")

func validationErr(err error) error {
	return fmt.Errorf("%w:\n%v", ErrValidation, err)
}

// loadConfig reads ~/.cairn/config.json and applies global flag overrides.
func loadConfig(gf globalFlags) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if gf.dbPath != "" {
		cfg.DBPath = gf.dbPath
	}
	return cfg, nil
}

// newLogger logs to the configured log file, falling back to stderr when the
// file cannot be opened. Terminal output stays on stdout; the log carries the
// structured record of what each run did.
func newLogger(gf globalFlags, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if gf.verbose {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stderr
	if cfg.LogFile != "" {
		if err := config.EnsureDataDir(cfg); err == nil {
			if f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644); err == nil {
				w = f
			}
		}
	}

	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// openStore opens the durable state store at the configured path.
func openStore(cfg *config.Config) (store.Store, error) {
	st, err := store.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open state store %s: %w", cfg.DBPath, err)
	}
	return st, nil
}
