package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/jmaddaus/cairn/internal/store"
)

// runStatus shows one run: with an argument, that run; without, the most
// recent one.
func runStatus(args []string, gf globalFlags) error {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

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

	runID := fs.Arg(0)
	if runID == "" {
		runs, err := st.ListRuns(ctx)
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("No runs recorded.")
			return nil
		}
		runID = runs[0].RunID
	}

	r, err := st.GetRun(ctx, runID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("run %q not found", runID)
		}
		return fmt.Errorf("get run: %w", err)
	}

	stats, err := st.RunStats(ctx, runID)
	if err != nil {
		return fmt.Errorf("run stats: %w", err)
	}
	items, err := st.ListCreatedIssues(ctx, runID)
	if err != nil {
		return fmt.Errorf("list created issues: %w", err)
	}

	printRunDetail(r, stats, items)
	return nil
}
