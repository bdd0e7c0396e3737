package github

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestServer(handler http.HandlerFunc) (*httptest.Server, *clientImpl) {
	ts := httptest.NewServer(handler)
	c := newClientWithBaseURL("test-token", ts.Client(), ts.URL)
	return ts, c
}

func TestCreateIssue_Basic(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		// Verify headers
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected Authorization 'Bearer test-token', got %q", got)
		}
		if got := r.Header.Get("Accept"); got != acceptHeader {
			t.Errorf("expected Accept %q, got %q", acceptHeader, got)
		}
		if r.URL.Path != "/repos/owner/repo/issues" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["title"] != "Setup CI" {
			t.Errorf("expected title 'Setup CI', got %v", payload["title"])
		}
		if _, present := payload["milestone"]; present {
			t.Error("milestone should be absent when not set")
		}

		w.Header().Set("X-RateLimit-Remaining", "4998")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(IssueRef{
			Number: 42,
			URL:    "https://github.com/owner/repo/issues/42",
			NodeID: "I_abc123",
		})
	})
	defer ts.Close()

	ref, err := client.CreateIssue(context.Background(), "owner/repo", NewIssue{
		Title:  "Setup CI",
		Body:   "Pipeline config",
		Labels: []string{"infra"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ref.Number != 42 {
		t.Errorf("expected number 42, got %d", ref.Number)
	}
	if ref.NodeID != "I_abc123" {
		t.Errorf("expected node ID 'I_abc123', got %q", ref.NodeID)
	}
	if rl := client.GetRateLimit(); rl.Remaining != 4998 {
		t.Errorf("expected rate limit remaining 4998, got %d", rl.Remaining)
	}
}

func TestCreateIssue_ResolvesMilestone(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/milestones":
			json.NewEncoder(w).Encode([]Milestone{
				{Title: "v1.0", Number: 3},
				{Title: "v2.0", Number: 7},
			})
		case "/repos/owner/repo/issues":
			var payload map[string]interface{}
			json.NewDecoder(r.Body).Decode(&payload)
			if got := payload["milestone"]; got != float64(7) {
				t.Errorf("expected milestone 7, got %v", got)
			}
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(IssueRef{Number: 1, NodeID: "I_x"})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
	defer ts.Close()

	_, err := client.CreateIssue(context.Background(), "owner/repo", NewIssue{
		Title:     "Release prep",
		Milestone: "v2.0",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateIssue_UnknownMilestone(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/owner/repo/milestones" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]Milestone{{Title: "v1.0", Number: 3}})
	})
	defer ts.Close()

	_, err := client.CreateIssue(context.Background(), "owner/repo", NewIssue{
		Title:     "Release prep",
		Milestone: "v9.0",
	})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestCreateIssue_ServerErrorIsTransient(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	defer ts.Close()

	_, err := client.CreateIssue(context.Background(), "owner/repo", NewIssue{Title: "x"})
	if !IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestCreateIssue_RateLimitedIsTransient(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer ts.Close()

	_, err := client.CreateIssue(context.Background(), "owner/repo", NewIssue{Title: "x"})
	if !IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestCreateIssue_ValidationRejection(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message": "Validation Failed"}`)
	})
	defer ts.Close()

	_, err := client.CreateIssue(context.Background(), "owner/repo", NewIssue{Title: "x"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if IsTransient(err) {
		t.Error("validation errors must not be transient")
	}
}

func TestLinkSubIssue_Basic(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/graphql" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var payload struct {
			Query     string            `json:"query"`
			Variables map[string]string `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Variables["parentId"] != "I_parent" {
			t.Errorf("expected parentId 'I_parent', got %q", payload.Variables["parentId"])
		}
		if payload.Variables["childId"] != "I_child" {
			t.Errorf("expected childId 'I_child', got %q", payload.Variables["childId"])
		}
		fmt.Fprint(w, `{"data": {"addSubIssue": {"issue": {"id": "I_parent"}}}}`)
	})
	defer ts.Close()

	if err := client.LinkSubIssue(context.Background(), "I_parent", "I_child"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLinkSubIssue_GraphQLError(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"errors": [{"message": "Sub-issue limit reached"}]}`)
	})
	defer ts.Close()

	err := client.LinkSubIssue(context.Background(), "I_parent", "I_child")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestLinkSubIssue_ServerErrorIsTransient(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	defer ts.Close()

	err := client.LinkSubIssue(context.Background(), "I_parent", "I_child")
	if !IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
}

func TestListMilestones_Pagination(t *testing.T) {
	page := 0
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		page++
		if page == 1 {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/milestones?page=2>; rel="next"`, "http://"+r.Host))
			json.NewEncoder(w).Encode([]Milestone{{Title: "v1.0", Number: 1}})
			return
		}
		json.NewEncoder(w).Encode([]Milestone{{Title: "v2.0", Number: 2}})
	})
	defer ts.Close()

	milestones, err := client.ListMilestones(context.Background(), "owner/repo")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(milestones) != 2 {
		t.Fatalf("expected 2 milestones, got %d", len(milestones))
	}
	if milestones[1].Title != "v2.0" {
		t.Errorf("expected 'v2.0', got %q", milestones[1].Title)
	}
}

func TestCreateLabel_AlreadyExistsOK(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"message": "Validation Failed", "errors": [{"code": "already_exists"}]}`)
	})
	defer ts.Close()

	if err := client.CreateLabel(context.Background(), "owner/repo", "bug", "d73a4a", ""); err != nil {
		t.Fatalf("expected already-exists to succeed, got %v", err)
	}
}

func TestCreateLabel_StripsHashFromColor(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		if payload["color"] != "d73a4a" {
			t.Errorf("expected color 'd73a4a', got %q", payload["color"])
		}
		w.WriteHeader(http.StatusCreated)
	})
	defer ts.Close()

	if err := client.CreateLabel(context.Background(), "owner/repo", "bug", "#d73a4a", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIssueExists(t *testing.T) {
	ts, client := newTestServer(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/owner/repo/issues/1":
			fmt.Fprint(w, `{"number": 1}`)
		case "/repos/owner/repo/issues/2":
			w.WriteHeader(http.StatusNotFound)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	})
	defer ts.Close()

	exists, err := client.IssueExists(context.Background(), "owner/repo", 1)
	if err != nil || !exists {
		t.Errorf("expected issue 1 to exist, got %v %v", exists, err)
	}

	exists, err = client.IssueExists(context.Background(), "owner/repo", 2)
	if err != nil || exists {
		t.Errorf("expected issue 2 to not exist, got %v %v", exists, err)
	}

	_, err = client.IssueExists(context.Background(), "owner/repo", 3)
	if !IsTransient(err) {
		t.Errorf("expected transient error for server failure, got %v", err)
	}
}
