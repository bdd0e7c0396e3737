package input

import (
	"sort"

	"github.com/jmaddaus/cairn/internal/model"
)

// ApplyDefaults merges document-level defaults into an issue and returns the
// effective spec. Labels combine additively (union, sorted, duplicate-free);
// every other field keeps the issue's own value when one is present.
func ApplyDefaults(issue model.IssueSpec, defaults model.Defaults) model.IssueSpec {
	effective := issue

	if effective.Milestone == "" {
		effective.Milestone = defaults.Milestone
	}
	if len(effective.Assignees) == 0 && len(defaults.Assignees) > 0 {
		effective.Assignees = append([]string(nil), defaults.Assignees...)
	}
	if effective.DueDate == "" {
		effective.DueDate = defaults.DueDate
	}

	effective.Labels = MergeLabels(defaults.Labels, issue.Labels)

	return effective
}

// MergeLabels returns the sorted union of two label lists.
func MergeLabels(defaults, own []string) []string {
	if len(defaults) == 0 && len(own) == 0 {
		return nil
	}

	set := make(map[string]bool, len(defaults)+len(own))
	for _, l := range defaults {
		set[l] = true
	}
	for _, l := range own {
		set[l] = true
	}

	merged := make([]string, 0, len(set))
	for l := range set {
		merged = append(merged, l)
	}
	sort.Strings(merged)
	return merged
}
