package run

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmaddaus/cairn/internal/fingerprint"
	"github.com/jmaddaus/cairn/internal/github"
	"github.com/jmaddaus/cairn/internal/graph"
	"github.com/jmaddaus/cairn/internal/input"
	"github.com/jmaddaus/cairn/internal/model"
	"github.com/jmaddaus/cairn/internal/store"
)

// Options tunes an Orchestrator. Zero values fall back to the defaults.
type Options struct {
	DryRun bool
	Force  bool
	Verify bool

	CreateAttempts int
	LinkAttempts   int
	RetryBaseDelay time.Duration
}

// Request carries everything one invocation needs: the loaded document, its
// validated graph, the resumption plan, and the resource pre-pass outcome.
type Request struct {
	Doc         *model.Document
	Graph       *graph.Graph
	Plan        *Plan
	InputPath   string
	InputDigest string
	// MilestoneSubs maps document milestone titles to their resolved
	// replacements; "" drops the milestone.
	MilestoneSubs map[string]string
}

// Orchestrator walks the ordered graph and drives each item through its
// lifecycle: skip, create, record, link. All idempotency decisions go
// through the store; all remote calls go through the gateway.
type Orchestrator struct {
	store  store.Store
	client github.Client
	logger *slog.Logger
	opts   Options
}

func NewOrchestrator(st store.Store, c github.Client, logger *slog.Logger, opts Options) *Orchestrator {
	if opts.CreateAttempts <= 0 {
		opts.CreateAttempts = DefaultCreateAttempts
	}
	if opts.LinkAttempts <= 0 {
		opts.LinkAttempts = DefaultLinkAttempts
	}
	if opts.RetryBaseDelay <= 0 {
		opts.RetryBaseDelay = DefaultRetryBaseDelay
	}
	return &Orchestrator{store: st, client: c, logger: logger, opts: opts}
}

// Execute processes the full ordered sequence once. The returned summary is
// valid even when err is non-nil; err reports only run-aborting failures
// (store I/O, invariant breaches, cancellation) — per-item creation and
// linking failures are contained in the summary.
func (o *Orchestrator) Execute(ctx context.Context, req Request) (*Summary, error) {
	started := time.Now()
	summary := &Summary{
		RunID:      req.Plan.RunID,
		Repository: req.Doc.Repository,
		DryRun:     o.opts.DryRun,
	}
	defer func() { summary.Duration = time.Since(started) }()

	// Store writes always complete: a cancelled run must still record what
	// it did, or the next resume would re-create items.
	storeCtx := context.WithoutCancel(ctx)

	if req.Plan.NothingToDo {
		summary.RunID = req.Plan.PriorRunID
		summary.Status = model.RunCompleted
		summary.Skipped = req.Graph.Len()
		o.logger.Info("input already fully processed, nothing to do",
			"run_id", req.Plan.PriorRunID)
		return summary, nil
	}

	if !o.opts.DryRun && !req.Plan.Resuming {
		r := &model.Run{
			RunID:       req.Plan.RunID,
			InputFile:   req.InputPath,
			InputDigest: req.InputDigest,
			Repository:  req.Doc.Repository,
			StartedAt:   started.UTC(),
			Status:      model.RunInProgress,
		}
		// Two runs started in the same second collide on the timestamp ID;
		// suffix until the insert goes through.
		for n := 2; ; n++ {
			err := o.store.CreateRun(storeCtx, r)
			if err == nil {
				break
			}
			if !errors.Is(err, store.ErrDuplicateRun) || n > 10 {
				return summary, fmt.Errorf("create run: %w", err)
			}
			r.RunID = fmt.Sprintf("%s_%d", req.Plan.RunID, n)
		}
		req.Plan.RunID = r.RunID
		summary.RunID = r.RunID
	}

	// Remote identifiers of items created (or resumed) in this run, for
	// resolving parents when linking children.
	records := make(map[string]*model.CreatedIssue, len(req.Plan.SkipSet))
	for id, rec := range req.Plan.SkipSet {
		records[id] = rec
	}

	// Local IDs whose creation failed; descendants of these are never
	// attempted, since their parent link target does not exist.
	failed := make(map[string]bool)

	runErr := o.walk(ctx, storeCtx, req, summary, records, failed)

	if o.opts.Verify && !o.opts.DryRun && runErr == nil {
		o.verify(ctx, req, summary, records)
	}

	summary.Status = model.RunCompleted
	if runErr != nil || len(summary.CreationFailed) > 0 || len(summary.FailedByAncestor) > 0 {
		summary.Status = model.RunFailed
	}

	if !o.opts.DryRun {
		now := time.Now().UTC()
		if err := o.store.MarkRunStatus(storeCtx, req.Plan.RunID, summary.Status, &now); err != nil {
			if runErr == nil {
				runErr = fmt.Errorf("mark run %s: %w", summary.Status, err)
			} else {
				o.logger.Error("mark run status failed", "error", err)
			}
		}
	}

	return summary, runErr
}

func (o *Orchestrator) walk(ctx, storeCtx context.Context, req Request, summary *Summary,
	records map[string]*model.CreatedIssue, failed map[string]bool) error {

	for _, id := range req.Graph.Order() {
		// Cancellation is honored between items only; an in-flight item
		// always runs to a recorded state.
		if err := ctx.Err(); err != nil {
			return err
		}

		spec := req.Graph.Spec(id)

		if failed[id] {
			summary.FailedByAncestor = append(summary.FailedByAncestor, id)
			o.logger.Warn("skipping item, ancestor failed", "id", id, "parent", spec.ParentID)
			continue
		}

		if err := o.processItem(ctx, storeCtx, req, *spec, summary, records, failed); err != nil {
			return err
		}
	}
	return nil
}

func (o *Orchestrator) processItem(ctx, storeCtx context.Context, req Request, spec model.IssueSpec,
	summary *Summary, records map[string]*model.CreatedIssue, failed map[string]bool) error {

	// Already created in the run being resumed. The only remaining work is
	// a pending parent link.
	if rec, ok := records[spec.ID]; ok && req.Plan.Resuming {
		summary.Skipped++
		o.logger.Info("already created, skipping", "id", spec.ID, "number", rec.Number)
		if !rec.Linked() && !spec.IsRoot() {
			if o.opts.DryRun {
				summary.Linked++
				o.logger.Info("would link", "id", spec.ID, "parent", spec.ParentID)
			} else {
				o.linkItem(ctx, storeCtx, req, spec, rec, summary, records)
			}
		}
		return nil
	}

	fp := fingerprint.Generate(req.Doc.Repository, spec.Title, spec.Body)

	if !o.opts.Force {
		dup, err := o.store.FindByFingerprint(storeCtx, fp)
		if err != nil {
			return fmt.Errorf("fingerprint lookup for %s: %w", spec.ID, err)
		}
		if dup != nil {
			summary.Skipped++
			records[spec.ID] = dup
			o.logger.Info("duplicate of existing issue, skipping",
				"id", spec.ID, "number", dup.Number, "run_id", dup.RunID)
			return nil
		}
	}

	effective := input.ApplyDefaults(spec, req.Doc.Defaults)
	if sub, ok := req.MilestoneSubs[effective.Milestone]; ok {
		effective.Milestone = sub
	}

	if o.opts.DryRun {
		summary.Created++
		if !spec.IsRoot() {
			summary.Linked++
		}
		o.logger.Info("would create", "id", spec.ID, "title", spec.Title,
			"parent", spec.ParentID)
		return nil
	}

	ref, err := o.createItem(ctx, req.Doc.Repository, effective)
	if err != nil {
		// The whole subtree is unreachable: children would have no parent
		// to link to, so they are never attempted.
		for _, d := range req.Graph.Descendants(spec.ID) {
			failed[d] = true
		}
		summary.CreationFailed = append(summary.CreationFailed, ItemFailure{
			LocalID: spec.ID, Title: spec.Title, Reason: err.Error(),
		})
		o.logger.Error("create failed", "id", spec.ID, "error", err)
		return nil
	}

	rec := &model.CreatedIssue{
		RunID:       req.Plan.RunID,
		LocalID:     spec.ID,
		Number:      ref.Number,
		URL:         ref.URL,
		NodeID:      ref.NodeID,
		Title:       spec.Title,
		Fingerprint: fp,
		ParentID:    spec.ParentID,
		CreatedAt:   time.Now().UTC(),
	}
	// Persisted before linking: children need these identifiers, and a
	// crash after this point must resume into link-only work.
	if err := o.store.RecordCreatedIssue(storeCtx, rec); err != nil {
		if errors.Is(err, store.ErrDuplicateIssue) {
			return fmt.Errorf("record %s: %w (resume state is inconsistent)", spec.ID, err)
		}
		return fmt.Errorf("record %s: %w", spec.ID, err)
	}
	records[spec.ID] = rec
	summary.Created++
	o.logger.Info("created", "id", spec.ID, "number", ref.Number, "url", ref.URL)

	if !spec.IsRoot() {
		o.linkItem(ctx, storeCtx, req, spec, rec, summary, records)
	}
	return nil
}

func (o *Orchestrator) createItem(ctx context.Context, repository string, spec model.IssueSpec) (*github.IssueRef, error) {
	var ref *github.IssueRef
	err := withRetry(ctx, o.opts.RetryBaseDelay, o.opts.CreateAttempts, func() error {
		var err error
		ref, err = o.client.CreateIssue(ctx, repository, github.NewIssue{
			Title:     spec.Title,
			Body:      spec.Body,
			Milestone: spec.Milestone,
			Labels:    spec.Labels,
			Assignees: spec.Assignees,
			DueDate:   spec.DueDate,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// linkItem links rec under its parent and records the link. Failures are
// contained: the created item stays valid, the miss is reported for manual
// review, and the run moves on.
func (o *Orchestrator) linkItem(ctx, storeCtx context.Context, req Request, spec model.IssueSpec,
	rec *model.CreatedIssue, summary *Summary, records map[string]*model.CreatedIssue) {

	parent, ok := records[spec.ParentID]
	if !ok {
		summary.LinkFailed = append(summary.LinkFailed, ItemFailure{
			LocalID: spec.ID, Title: spec.Title,
			Reason: fmt.Sprintf("parent %q has no recorded remote identifiers", spec.ParentID),
		})
		return
	}

	err := withRetry(ctx, o.opts.RetryBaseDelay, o.opts.LinkAttempts, func() error {
		return o.client.LinkSubIssue(ctx, parent.NodeID, rec.NodeID)
	})
	if err != nil {
		summary.LinkFailed = append(summary.LinkFailed, ItemFailure{
			LocalID: spec.ID, Title: spec.Title, Reason: err.Error(),
		})
		o.logger.Error("link failed", "id", spec.ID, "parent", spec.ParentID, "error", err)
		return
	}

	now := time.Now().UTC()
	if err := o.store.RecordLink(storeCtx, req.Plan.RunID, spec.ID, parent.Number, now); err != nil {
		// The remote link exists; a failed record write surfaces on the
		// next resume as a redundant (idempotent) link attempt.
		o.logger.Error("record link failed", "id", spec.ID, "error", err)
	}
	rec.ParentNumber = &parent.Number
	rec.LinkedAt = &now
	summary.Linked++
	o.logger.Info("linked", "id", spec.ID, "parent", spec.ParentID,
		"parent_number", parent.Number)
}

// verify re-fetches remote existence for every item this run believes it
// created. Findings are reported, never acted on.
func (o *Orchestrator) verify(ctx context.Context, req Request, summary *Summary,
	records map[string]*model.CreatedIssue) {

	for _, id := range req.Graph.Order() {
		rec, ok := records[id]
		if !ok {
			continue
		}
		exists, err := o.client.IssueExists(ctx, req.Doc.Repository, rec.Number)
		if err != nil {
			summary.VerifyFindings = append(summary.VerifyFindings,
				fmt.Sprintf("%s: could not verify #%d: %v", id, rec.Number, err))
			continue
		}
		if !exists {
			summary.VerifyFindings = append(summary.VerifyFindings,
				fmt.Sprintf("%s: issue #%d recorded locally but missing remotely", id, rec.Number))
		}
		spec := req.Graph.Spec(id)
		if spec != nil && !spec.IsRoot() && !rec.Linked() {
			summary.VerifyFindings = append(summary.VerifyFindings,
				fmt.Sprintf("%s: created but never linked to parent %q", id, spec.ParentID))
		}
	}
}
