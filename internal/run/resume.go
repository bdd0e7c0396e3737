package run

import (
	"context"
	"fmt"

	"github.com/jmaddaus/cairn/internal/model"
	"github.com/jmaddaus/cairn/internal/store"
)

// Plan is the resumption decision made once at startup, before any remote
// call. Exactly one of three shapes:
//
//   - NothingToDo: a completed run already covers this input and no force
//     override was given; the orchestrator makes zero remote calls.
//   - Resuming: an in-progress run matches; SkipSet holds its already
//     created items, keyed by local ID.
//   - fresh: a new RunID with an empty SkipSet.
type Plan struct {
	RunID       string
	Resuming    bool
	NothingToDo bool
	// PriorRunID is set when NothingToDo, naming the completed run.
	PriorRunID string
	SkipSet    map[string]*model.CreatedIssue
}

// NewPlan decides how this invocation relates to prior runs of the same
// input. A force override always starts a fresh run. resumeRunID pins
// resumption to a specific run instead of matching by input digest.
func NewPlan(ctx context.Context, st store.Store, inputDigest, resumeRunID string, force bool) (*Plan, error) {
	if resumeRunID != "" {
		return planForRun(ctx, st, resumeRunID)
	}

	if force {
		return &Plan{RunID: NewRunID(), SkipSet: map[string]*model.CreatedIssue{}}, nil
	}

	prior, err := st.FindRunByInputDigest(ctx, inputDigest)
	if err != nil {
		return nil, fmt.Errorf("look up prior run: %w", err)
	}
	if prior == nil {
		return &Plan{RunID: NewRunID(), SkipSet: map[string]*model.CreatedIssue{}}, nil
	}

	switch prior.Status {
	case model.RunCompleted:
		return &Plan{NothingToDo: true, PriorRunID: prior.RunID}, nil
	case model.RunInProgress:
		return resumePlan(ctx, st, prior.RunID)
	default:
		// A failed run gets a fresh run ID; its records still participate
		// in cross-run fingerprint deduplication.
		return &Plan{RunID: NewRunID(), SkipSet: map[string]*model.CreatedIssue{}}, nil
	}
}

func planForRun(ctx context.Context, st store.Store, runID string) (*Plan, error) {
	r, err := st.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("look up run %s: %w", runID, err)
	}
	if r.Status == model.RunCompleted {
		return nil, fmt.Errorf("run %s is already completed", runID)
	}
	return resumePlan(ctx, st, runID)
}

func resumePlan(ctx context.Context, st store.Store, runID string) (*Plan, error) {
	records, err := st.ListCreatedIssues(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("load created items for run %s: %w", runID, err)
	}
	skip := make(map[string]*model.CreatedIssue, len(records))
	for _, rec := range records {
		skip[rec.LocalID] = rec
	}
	return &Plan{RunID: runID, Resuming: true, SkipSet: skip}, nil
}
