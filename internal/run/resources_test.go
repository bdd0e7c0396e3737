package run

import (
	"context"
	"testing"

	"github.com/jmaddaus/cairn/internal/github"
	"github.com/jmaddaus/cairn/internal/model"
)

type resourceClient struct {
	fakeClient
	milestones []github.Milestone
	labels     []string
	createdLbl []string
}

func (c *resourceClient) ListMilestones(ctx context.Context, repository string) ([]github.Milestone, error) {
	return c.milestones, nil
}

func (c *resourceClient) ListLabels(ctx context.Context, repository string) ([]string, error) {
	return c.labels, nil
}

func (c *resourceClient) CreateLabel(ctx context.Context, repository, name, color, description string) error {
	c.createdLbl = append(c.createdLbl, name)
	return nil
}

func TestEnsureResources_AllPresent(t *testing.T) {
	c := &resourceClient{
		milestones: []github.Milestone{{Title: "v1.0", Number: 1}},
		labels:     []string{"bug", "epic"},
	}
	doc := &model.Document{
		Repository: "owner/repo",
		Defaults:   model.Defaults{Milestone: "v1.0", Labels: []string{"epic"}},
		Issues: []model.IssueSpec{
			{ID: "a", Title: "A", Labels: []string{"bug"}},
		},
	}

	subs, err := EnsureResources(context.Background(), c, doc, AutoResolver{Logger: testLogger()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected no substitutions, got %v", subs)
	}
	if len(c.createdLbl) != 0 {
		t.Errorf("expected no label creation, got %v", c.createdLbl)
	}
}

func TestEnsureResources_AutoCreatesMissingLabels(t *testing.T) {
	c := &resourceClient{labels: []string{"bug"}}
	doc := &model.Document{
		Repository: "owner/repo",
		Issues: []model.IssueSpec{
			{ID: "a", Title: "A", Labels: []string{"bug", "api", "infra"}},
		},
	}

	_, err := EnsureResources(context.Background(), c, doc, AutoResolver{Logger: testLogger()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(c.createdLbl) != 2 {
		t.Fatalf("expected 2 labels created, got %v", c.createdLbl)
	}
}

func TestEnsureResources_AutoDropsMissingMilestone(t *testing.T) {
	c := &resourceClient{milestones: []github.Milestone{{Title: "v1.0", Number: 1}}}
	doc := &model.Document{
		Repository: "owner/repo",
		Issues: []model.IssueSpec{
			{ID: "a", Title: "A", Milestone: "v9.9"},
		},
	}

	subs, err := EnsureResources(context.Background(), c, doc, AutoResolver{Logger: testLogger()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub, ok := subs["v9.9"]
	if !ok || sub != "" {
		t.Errorf("expected v9.9 dropped, got %v", subs)
	}
}

func TestEnsureResources_NothingReferenced(t *testing.T) {
	c := &resourceClient{}
	doc := &model.Document{
		Repository: "owner/repo",
		Issues:     []model.IssueSpec{{ID: "a", Title: "A"}},
	}

	subs, err := EnsureResources(context.Background(), c, doc, AutoResolver{Logger: testLogger()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(subs) != 0 {
		t.Errorf("expected empty substitutions, got %v", subs)
	}
}
