package model

import "time"

type RunStatus string

const (
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
)

// Run records one execution attempt over a given input document.
type Run struct {
	RunID       string     `json:"run_id"`
	InputFile   string     `json:"input_file"`
	InputDigest string     `json:"input_digest"`
	Repository  string     `json:"repository"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      RunStatus  `json:"status"`
}

// CreatedIssue is the durable record of a successfully created remote issue.
// It is inserted immediately after remote creation succeeds (before linking)
// and updated exactly once when linking succeeds. LinkedAt == nil means
// "created but not yet linked to its parent".
type CreatedIssue struct {
	RunID        string     `json:"run_id"`
	LocalID      string     `json:"local_id"`
	Number       int        `json:"github_issue_number"`
	URL          string     `json:"github_issue_url"`
	NodeID       string     `json:"github_node_id"`
	Title        string     `json:"title"`
	Fingerprint  string     `json:"fingerprint"`
	ParentID     string     `json:"parent_id,omitempty"`
	ParentNumber *int       `json:"parent_issue_number,omitempty"`
	LinkedAt     *time.Time `json:"linked_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Linked reports whether the sub-issue link to the parent has been recorded.
func (c *CreatedIssue) Linked() bool {
	return c.LinkedAt != nil
}

// RunStats summarizes the created issues of a run.
type RunStats struct {
	Total    int `json:"total"`
	Linked   int `json:"linked"`
	Unlinked int `json:"unlinked"`
}
