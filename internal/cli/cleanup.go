package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jmaddaus/cairn/internal/store"
)

// runCleanup deletes a run and its created-item records. Remote issues are
// untouched; after cleanup their fingerprints no longer participate in
// duplicate detection, so the same input can be created again.
func runCleanup(args []string, gf globalFlags) error {
	fs := flag.NewFlagSet("cleanup", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(reorderArgs(args, map[string]bool{"yes": true})); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: cairn cleanup <run-id> [--yes]")
	}
	runID := fs.Arg(0)

	cfg, err := loadConfig(gf)
	if err != nil {
		return err
	}
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx := context.Background()

	stats, err := st.RunStats(ctx, runID)
	if err != nil {
		return fmt.Errorf("run stats: %w", err)
	}

	if !*yes {
		fmt.Printf("Delete run %s and its %d record(s)? GitHub issues are not touched. [y/N] ", runID, stats.Total)
		scanner := bufio.NewScanner(os.Stdin)
		if !scanner.Scan() || !strings.EqualFold(strings.TrimSpace(scanner.Text()), "y") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := st.DeleteRun(ctx, runID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %q not found", runID)
		}
		return fmt.Errorf("delete run: %w", err)
	}

	fmt.Printf("Run %s deleted.\n", runID)
	return nil
}
