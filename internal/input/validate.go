package input

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/jmaddaus/cairn/internal/model"
)

const maxTitleLength = 256

var localIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Validate checks the structural rules a document must satisfy before any
// graph analysis: repository format, per-issue field constraints, and
// local-ID uniqueness. All findings are collected and returned joined, so a
// user sees every problem in one pass. Parent resolution and cycle
// detection belong to the graph package, not here.
func Validate(doc *model.Document) error {
	var errs []error

	if !validRepository(doc.Repository) {
		errs = append(errs, fmt.Errorf("repository %q is not in owner/name format", doc.Repository))
	}

	if len(doc.Issues) == 0 {
		errs = append(errs, errors.New("document contains no issues"))
	}

	seen := make(map[string]bool, len(doc.Issues))
	for i, issue := range doc.Issues {
		pos := fmt.Sprintf("issue %d", i+1)
		if issue.ID != "" {
			pos = fmt.Sprintf("issue %q", issue.ID)
		}

		if issue.ID == "" {
			errs = append(errs, fmt.Errorf("%s: missing id", pos))
		} else if !localIDRe.MatchString(issue.ID) {
			errs = append(errs, fmt.Errorf("%s: id may only contain letters, digits, '-' and '_'", pos))
		}

		if issue.ID != "" {
			if seen[issue.ID] {
				errs = append(errs, fmt.Errorf("%s: duplicate id", pos))
			}
			seen[issue.ID] = true
		}

		title := strings.TrimSpace(issue.Title)
		if title == "" {
			errs = append(errs, fmt.Errorf("%s: title is required", pos))
		} else if utf8.RuneCountInString(issue.Title) > maxTitleLength {
			errs = append(errs, fmt.Errorf("%s: title exceeds %d characters", pos, maxTitleLength))
		}
	}

	return errors.Join(errs...)
}

func validRepository(repository string) bool {
	owner, name, ok := strings.Cut(repository, "/")
	return ok && strings.TrimSpace(owner) != "" && strings.TrimSpace(name) != "" &&
		!strings.Contains(name, "/")
}
