package run

import (
	"time"

	"github.com/jmaddaus/cairn/internal/model"
)

// ItemFailure names an item the run could not fully process, with enough
// detail for a human to remediate without reading logs.
type ItemFailure struct {
	LocalID string
	Title   string
	Reason  string
}

// Summary is the final account of a run. Every invocation produces one,
// including dry runs and nothing-to-do resumptions.
type Summary struct {
	RunID      string
	Repository string
	Status     model.RunStatus
	DryRun     bool

	Created int
	Skipped int
	Linked  int

	// CreationFailed items exhausted their create retries or were rejected
	// by the remote. LinkFailed items exist remotely but their parent link
	// could not be established. FailedByAncestor items were never attempted
	// because an ancestor's creation failed.
	CreationFailed   []ItemFailure
	LinkFailed       []ItemFailure
	FailedByAncestor []string

	// VerifyFindings lists inconsistencies the post-run verification pass
	// observed. Report-only; nothing is mutated in response.
	VerifyFindings []string

	Duration time.Duration
}

// Failed reports the number of items that did not end up created, including
// those skipped due to a failed ancestor.
func (s *Summary) Failed() int {
	return len(s.CreationFailed) + len(s.FailedByAncestor)
}

// Clean reports whether every attempted item was created and linked.
func (s *Summary) Clean() bool {
	return len(s.CreationFailed) == 0 && len(s.LinkFailed) == 0 &&
		len(s.FailedByAncestor) == 0 && len(s.VerifyFindings) == 0
}
