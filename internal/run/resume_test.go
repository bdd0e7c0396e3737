package run

import (
	"context"
	"testing"
	"time"

	"github.com/jmaddaus/cairn/internal/model"
	"github.com/jmaddaus/cairn/internal/store"
)

func addRun(t *testing.T, st store.Store, runID, digest string, status model.RunStatus) {
	t.Helper()
	err := st.CreateRun(context.Background(), &model.Run{
		RunID:       runID,
		InputFile:   "issues.json",
		InputDigest: digest,
		Repository:  "owner/repo",
		StartedAt:   time.Now().UTC(),
		Status:      model.RunInProgress,
	})
	if err != nil {
		t.Fatalf("create run: %v", err)
	}
	if status != model.RunInProgress {
		now := time.Now().UTC()
		if err := st.MarkRunStatus(context.Background(), runID, status, &now); err != nil {
			t.Fatalf("mark run: %v", err)
		}
	}
}

func TestNewPlan_FreshInput(t *testing.T) {
	st := newTestStore(t)

	plan, err := NewPlan(context.Background(), st, "digest-x", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Resuming || plan.NothingToDo {
		t.Errorf("expected fresh plan, got %+v", plan)
	}
	if plan.RunID == "" {
		t.Error("fresh plan needs a run ID")
	}
}

func TestNewPlan_CompletedInputNothingToDo(t *testing.T) {
	st := newTestStore(t)
	addRun(t, st, "run1", "digest-x", model.RunCompleted)

	plan, err := NewPlan(context.Background(), st, "digest-x", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.NothingToDo {
		t.Fatal("expected nothing-to-do plan")
	}
	if plan.PriorRunID != "run1" {
		t.Errorf("expected prior run 'run1', got %q", plan.PriorRunID)
	}
}

func TestNewPlan_ForceIgnoresCompletedRun(t *testing.T) {
	st := newTestStore(t)
	addRun(t, st, "run1", "digest-x", model.RunCompleted)

	plan, err := NewPlan(context.Background(), st, "digest-x", "", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.NothingToDo || plan.Resuming {
		t.Errorf("force should start fresh, got %+v", plan)
	}
}

func TestNewPlan_InProgressRunResumesWithSkipSet(t *testing.T) {
	st := newTestStore(t)
	addRun(t, st, "run1", "digest-x", model.RunInProgress)

	err := st.RecordCreatedIssue(context.Background(), &model.CreatedIssue{
		RunID: "run1", LocalID: "epic", Number: 10,
		NodeID: "I_n10", Title: "Epic", Fingerprint: "fp1",
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("record issue: %v", err)
	}

	plan, err := NewPlan(context.Background(), st, "digest-x", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Resuming || plan.RunID != "run1" {
		t.Fatalf("expected resume of run1, got %+v", plan)
	}
	if _, ok := plan.SkipSet["epic"]; !ok {
		t.Error("skip set should contain 'epic'")
	}
}

func TestNewPlan_FailedRunStartsFresh(t *testing.T) {
	st := newTestStore(t)
	addRun(t, st, "run1", "digest-x", model.RunFailed)

	plan, err := NewPlan(context.Background(), st, "digest-x", "", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plan.Resuming || plan.NothingToDo {
		t.Errorf("failed prior run should start fresh, got %+v", plan)
	}
	if plan.RunID == "run1" {
		t.Error("fresh plan must not reuse the failed run's ID")
	}
}

func TestNewPlan_ExplicitRunID(t *testing.T) {
	st := newTestStore(t)
	addRun(t, st, "run1", "digest-x", model.RunInProgress)

	plan, err := NewPlan(context.Background(), st, "other-digest", "run1", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !plan.Resuming || plan.RunID != "run1" {
		t.Errorf("expected resume of run1, got %+v", plan)
	}
}

func TestNewPlan_ExplicitCompletedRunRejected(t *testing.T) {
	st := newTestStore(t)
	addRun(t, st, "run1", "digest-x", model.RunCompleted)

	if _, err := NewPlan(context.Background(), st, "digest-x", "run1", false); err == nil {
		t.Fatal("expected error resuming a completed run")
	}
}

func TestNewPlan_ExplicitUnknownRunRejected(t *testing.T) {
	st := newTestStore(t)

	if _, err := NewPlan(context.Background(), st, "digest-x", "nope", false); err == nil {
		t.Fatal("expected error for unknown run ID")
	}
}
