package run

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jmaddaus/cairn/internal/github"
	"github.com/jmaddaus/cairn/internal/input"
	"github.com/jmaddaus/cairn/internal/model"
)

// DefaultLabelColor is used when a missing label is created without an
// explicit color choice.
const DefaultLabelColor = "ededed"

// Resolver decides what to do about milestones and labels the document
// references but the repository lacks. The CLI supplies an interactive
// implementation; AutoResolver covers --yes and non-terminal runs.
type Resolver interface {
	// MissingMilestone is called once per unknown milestone title. It
	// returns the title to use instead (possibly the same one, after
	// creating it remotely) or "" to drop the milestone from affected items.
	MissingMilestone(ctx context.Context, c github.Client, repository, title string) (string, error)

	// MissingLabels is called once with every unknown label name. The
	// resolver creates the ones that should exist; names it leaves alone
	// are still sent on create and rejected by the remote, so resolvers
	// normally create all of them.
	MissingLabels(ctx context.Context, c github.Client, repository string, names []string) error
}

// AutoResolver resolves without prompting: unknown milestones are dropped,
// unknown labels are created with a neutral color.
type AutoResolver struct {
	Logger *slog.Logger
}

func (r AutoResolver) MissingMilestone(ctx context.Context, c github.Client, repository, title string) (string, error) {
	r.Logger.Warn("milestone not found, dropping", "milestone", title, "repository", repository)
	return "", nil
}

func (r AutoResolver) MissingLabels(ctx context.Context, c github.Client, repository string, names []string) error {
	for _, name := range names {
		if err := c.CreateLabel(ctx, repository, name, DefaultLabelColor, ""); err != nil {
			return fmt.Errorf("create label %q: %w", name, err)
		}
		r.Logger.Info("created missing label", "label", name, "repository", repository)
	}
	return nil
}

// EnsureResources checks every milestone and label the document references
// against the repository and invokes the resolver for the missing ones. It
// returns a milestone substitution map the orchestrator applies when
// computing effective fields; "" means the milestone was dropped. Runs
// before any item is created so a refused resource stops the run cleanly.
func EnsureResources(ctx context.Context, c github.Client, doc *model.Document, r Resolver) (map[string]string, error) {
	wantMilestones := map[string]bool{}
	if doc.Defaults.Milestone != "" {
		wantMilestones[doc.Defaults.Milestone] = true
	}
	labelSet := map[string]bool{}
	for _, l := range doc.Defaults.Labels {
		labelSet[l] = true
	}
	for _, issue := range doc.Issues {
		if issue.Milestone != "" {
			wantMilestones[issue.Milestone] = true
		}
		for _, l := range issue.Labels {
			labelSet[l] = true
		}
	}

	substitutions := map[string]string{}

	if len(wantMilestones) > 0 {
		existing, err := c.ListMilestones(ctx, doc.Repository)
		if err != nil {
			return nil, fmt.Errorf("list milestones: %w", err)
		}
		known := make(map[string]bool, len(existing))
		for _, m := range existing {
			known[m.Title] = true
		}
		for title := range wantMilestones {
			if known[title] {
				continue
			}
			replacement, err := r.MissingMilestone(ctx, c, doc.Repository, title)
			if err != nil {
				return nil, err
			}
			substitutions[title] = replacement
		}
	}

	if len(labelSet) > 0 {
		existing, err := c.ListLabels(ctx, doc.Repository)
		if err != nil {
			return nil, fmt.Errorf("list labels: %w", err)
		}
		known := make(map[string]bool, len(existing))
		for _, l := range existing {
			known[l] = true
		}
		var missing []string
		for _, l := range input.MergeLabels(nil, keys(labelSet)) {
			if !known[l] {
				missing = append(missing, l)
			}
		}
		if len(missing) > 0 {
			if err := r.MissingLabels(ctx, c, doc.Repository, missing); err != nil {
				return nil, err
			}
		}
	}

	return substitutions, nil
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	return out
}
