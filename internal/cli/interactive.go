package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/jmaddaus/cairn/internal/github"
	"github.com/jmaddaus/cairn/internal/run"
)

// chooseResolver picks how missing milestones and labels get handled: an
// interactive prompt on a terminal, automatic resolution otherwise.
func chooseResolver(assumeYes bool, logger *slog.Logger) run.Resolver {
	if assumeYes || !isTerminal() {
		return run.AutoResolver{Logger: logger}
	}
	return &promptResolver{logger: logger}
}

func isTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// promptResolver asks the user what to do about each missing resource.
type promptResolver struct {
	logger *slog.Logger
}

const (
	milestoneCreate = "create"
	milestoneSkip   = "skip"
)

func (r *promptResolver) MissingMilestone(ctx context.Context, c github.Client, repository, title string) (string, error) {
	choice := milestoneCreate

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title(fmt.Sprintf("Milestone %q does not exist in %s", title, repository)).
				Options(
					huh.NewOption("Create it", milestoneCreate),
					huh.NewOption("Skip milestone for affected issues", milestoneSkip),
				).
				Value(&choice),
		),
	)
	if err := form.Run(); err != nil {
		return "", fmt.Errorf("milestone prompt: %w", err)
	}

	if choice == milestoneSkip {
		r.logger.Info("milestone skipped by user", "milestone", title)
		return "", nil
	}

	m, err := c.CreateMilestone(ctx, repository, title, "")
	if err != nil {
		return "", fmt.Errorf("create milestone %q: %w", title, err)
	}
	r.logger.Info("created milestone", "milestone", m.Title, "number", m.Number)
	return m.Title, nil
}

func (r *promptResolver) MissingLabels(ctx context.Context, c github.Client, repository string, names []string) error {
	confirmed := true

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Create %d missing label(s) in %s?", len(names), repository)).
				Description(strings.Join(names, ", ")).
				Affirmative("Create").
				Negative("Skip").
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("label prompt: %w", err)
	}
	if !confirmed {
		r.logger.Info("label creation skipped by user", "labels", names)
		return nil
	}

	for _, name := range names {
		if err := c.CreateLabel(ctx, repository, name, run.DefaultLabelColor, ""); err != nil {
			return fmt.Errorf("create label %q: %w", name, err)
		}
		r.logger.Info("created missing label", "label", name)
	}
	return nil
}
