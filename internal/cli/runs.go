package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/jmaddaus/cairn/internal/model"
)

func runRuns(args []string, gf globalFlags) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	statusFilter := fs.String("status", "", "Filter by status (in_progress, completed, failed)")
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

	runs, err := st.ListRuns(context.Background())
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	if *statusFilter != "" {
		filtered := runs[:0]
		for _, r := range runs {
			if r.Status == model.RunStatus(*statusFilter) {
				filtered = append(filtered, r)
			}
		}
		runs = filtered
	}

	printRuns(runs)
	return nil
}
