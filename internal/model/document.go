package model

// Document is the declarative input describing an issue hierarchy.
// It is immutable after load; defaults are merged into each issue as its
// effective fields are computed, never written back.
type Document struct {
	Repository string      `json:"repository" yaml:"repository"`
	Defaults   Defaults    `json:"defaults" yaml:"defaults"`
	Issues     []IssueSpec `json:"issues" yaml:"issues"`
}

// Defaults holds repository-wide fallback values. Labels combine additively
// with an issue's own labels; all other fields are overridden by a non-empty
// issue-level value.
type Defaults struct {
	Milestone string   `json:"milestone,omitempty" yaml:"milestone,omitempty"`
	Labels    []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty" yaml:"assignees,omitempty"`
	DueDate   string   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

// IssueSpec is one issue in the input document. ID is unique within the
// document; ParentID is empty for root issues and otherwise references
// another issue's ID.
type IssueSpec struct {
	ID        string   `json:"id" yaml:"id"`
	Title     string   `json:"title" yaml:"title"`
	Body      string   `json:"body,omitempty" yaml:"body,omitempty"`
	ParentID  string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Milestone string   `json:"milestone,omitempty" yaml:"milestone,omitempty"`
	Labels    []string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Assignees []string `json:"assignees,omitempty" yaml:"assignees,omitempty"`
	DueDate   string   `json:"due_date,omitempty" yaml:"due_date,omitempty"`
}

// IsRoot reports whether the issue has no parent.
func (s *IssueSpec) IsRoot() bool {
	return s.ParentID == ""
}
