package store

import (
	"context"
	"errors"
	"time"

	"github.com/jmaddaus/cairn/internal/model"
)

// Sentinel errors returned by Store implementations. Duplicate errors signal
// an invariant breach (a resume-logic bug) and callers must abort the run
// rather than continue past them.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateRun   = errors.New("run already exists")
	ErrDuplicateIssue = errors.New("issue already recorded for this run")
)

// Store is the durable record of runs and created issues. It is the sole
// source of truth for resume and idempotency decisions: every write must
// survive a process crash between any two calls, and a reader never observes
// a half-written record. The store does not retry; callers own retry policy.
//
// Get* methods return ErrNotFound for a missing record; Find* methods return
// (nil, nil), since absence is an expected answer there.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	FindRunByInputDigest(ctx context.Context, digest string) (*model.Run, error)
	FindActiveRun(ctx context.Context, repository string) (*model.Run, error)
	ListRuns(ctx context.Context) ([]*model.Run, error)
	MarkRunStatus(ctx context.Context, runID string, status model.RunStatus, completedAt *time.Time) error
	DeleteRun(ctx context.Context, runID string) error

	// Created issues
	RecordCreatedIssue(ctx context.Context, rec *model.CreatedIssue) error
	GetCreatedIssue(ctx context.Context, runID, localID string) (*model.CreatedIssue, error)
	FindByFingerprint(ctx context.Context, fingerprint string) (*model.CreatedIssue, error)
	RecordLink(ctx context.Context, runID, localID string, parentNumber int, linkedAt time.Time) error
	ListCreatedIssues(ctx context.Context, runID string) ([]*model.CreatedIssue, error)
	RunStats(ctx context.Context, runID string) (model.RunStats, error)

	Close() error
}
