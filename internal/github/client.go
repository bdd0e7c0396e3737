package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	userAgent      = "cairn/1.0"
	acceptHeader   = "application/vnd.github+json"
)

// IssueRef identifies a created remote issue. NodeID is the opaque GraphQL
// identifier required for sub-issue linking.
type IssueRef struct {
	Number int    `json:"number"`
	URL    string `json:"html_url"`
	NodeID string `json:"node_id"`
}

// Milestone is a repository milestone.
type Milestone struct {
	Title       string `json:"title"`
	Number      int    `json:"number"`
	Description string `json:"description"`
}

// NewIssue holds the effective fields for a create call, after defaults have
// been merged. Milestone is a title; the client resolves it to the number
// the REST API requires. DueDate is carried for the local record only —
// GitHub issues have no native due date field.
type NewIssue struct {
	Title     string
	Body      string
	Milestone string
	Labels    []string
	Assignees []string
	DueDate   string
}

// RateLimit holds the current rate limit status from the GitHub API.
type RateLimit struct {
	Remaining int
	Reset     time.Time
}

// Client is the tracker gateway the orchestrator drives. Implementations
// return *TransientError for retryable failures and *ValidationError for
// remote rejections; the caller owns retry policy.
type Client interface {
	CreateIssue(ctx context.Context, repository string, in NewIssue) (*IssueRef, error)
	LinkSubIssue(ctx context.Context, parentNodeID, childNodeID string) error
	ListMilestones(ctx context.Context, repository string) ([]Milestone, error)
	CreateMilestone(ctx context.Context, repository, title, description string) (*Milestone, error)
	ListLabels(ctx context.Context, repository string) ([]string, error)
	CreateLabel(ctx context.Context, repository, name, color, description string) error
	IssueExists(ctx context.Context, repository string, number int) (bool, error)
	GetRateLimit() RateLimit
}

// clientImpl is the concrete implementation of Client.
type clientImpl struct {
	token      string
	httpClient *http.Client
	baseURL    string

	mu        sync.RWMutex
	rateLimit RateLimit

	milestoneMu    sync.Mutex
	milestoneCache map[string][]Milestone // keyed by repository
}

// NewClient creates a new GitHub API client with the given token.
func NewClient(token string) Client {
	return &clientImpl{
		token:          token,
		httpClient:     &http.Client{Timeout: 30 * time.Second},
		baseURL:        defaultBaseURL,
		milestoneCache: make(map[string][]Milestone),
	}
}

// NewClientWithHTTP creates a new GitHub API client with a custom http.Client.
func NewClientWithHTTP(token string, httpClient *http.Client) Client {
	return &clientImpl{
		token:          token,
		httpClient:     httpClient,
		baseURL:        defaultBaseURL,
		milestoneCache: make(map[string][]Milestone),
	}
}

// newClientWithBaseURL is an internal constructor for testing with httptest servers.
func newClientWithBaseURL(token string, httpClient *http.Client, baseURL string) *clientImpl {
	return &clientImpl{
		token:          token,
		httpClient:     httpClient,
		baseURL:        baseURL,
		milestoneCache: make(map[string][]Milestone),
	}
}

func (c *clientImpl) newRequest(ctx context.Context, method, url string, body interface{}) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// do executes the request; transport-level failures come back as transient.
func (c *clientImpl) do(op string, req *http.Request) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransientError{Op: op, Err: err}
	}
	c.updateRateLimit(resp)
	return resp, nil
}

func (c *clientImpl) updateRateLimit(resp *http.Response) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if v := resp.Header.Get("X-RateLimit-Remaining"); v != "" {
		if remaining, err := strconv.Atoi(v); err == nil {
			c.rateLimit.Remaining = remaining
		}
	}
	if v := resp.Header.Get("X-RateLimit-Reset"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.rateLimit.Reset = time.Unix(ts, 0)
		}
	}
}

// GetRateLimit returns the most recently observed rate limit status.
func (c *clientImpl) GetRateLimit() RateLimit {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rateLimit
}

// linkNextRe matches Link header entries with rel="next".
var linkNextRe = regexp.MustCompile(`<([^>]+)>;\s*rel="next"`)

// parseLinkNext extracts the "next" URL from a Link header value.
func parseLinkNext(linkHeader string) string {
	matches := linkNextRe.FindStringSubmatch(linkHeader)
	if len(matches) >= 2 {
		return matches[1]
	}
	return ""
}

// CreateIssue creates an issue in the repository and returns its remote
// identifiers. A milestone title, when present, is resolved to its number
// first; an unknown milestone is a validation failure.
func (c *clientImpl) CreateIssue(ctx context.Context, repository string, in NewIssue) (*IssueRef, error) {
	url := fmt.Sprintf("%s/repos/%s/issues", c.baseURL, repository)

	payload := map[string]interface{}{
		"title": in.Title,
	}
	if in.Body != "" {
		payload["body"] = in.Body
	}
	if len(in.Labels) > 0 {
		payload["labels"] = in.Labels
	}
	if len(in.Assignees) > 0 {
		payload["assignees"] = in.Assignees
	}
	if in.Milestone != "" {
		number, err := c.resolveMilestone(ctx, repository, in.Milestone)
		if err != nil {
			return nil, err
		}
		payload["milestone"] = number
	}

	req, err := c.newRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.do("create issue", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, statusError("create issue", resp.StatusCode, string(respBody))
	}

	var ref IssueRef
	if err := json.NewDecoder(resp.Body).Decode(&ref); err != nil {
		return nil, fmt.Errorf("create issue: decode response: %w", err)
	}
	if ref.NodeID == "" {
		return nil, fmt.Errorf("create issue: response missing node_id")
	}

	return &ref, nil
}

// resolveMilestone maps a milestone title to its number, consulting a
// per-repository cache so a run lists milestones at most once.
func (c *clientImpl) resolveMilestone(ctx context.Context, repository, title string) (int, error) {
	c.milestoneMu.Lock()
	milestones, ok := c.milestoneCache[repository]
	c.milestoneMu.Unlock()

	if !ok {
		var err error
		milestones, err = c.ListMilestones(ctx, repository)
		if err != nil {
			return 0, err
		}
	}

	for _, m := range milestones {
		if m.Title == title {
			return m.Number, nil
		}
	}
	return 0, &ValidationError{
		Op:         "resolve milestone",
		StatusCode: http.StatusUnprocessableEntity,
		Message:    fmt.Sprintf("milestone %q not found in %s", title, repository),
	}
}

// addSubIssueMutation links a child issue under a parent via GraphQL.
const addSubIssueMutation = `mutation($parentId: ID!, $childId: ID!) {
  addSubIssue(input: {issueId: $parentId, subIssueId: $childId}) {
    issue { id }
  }
}`

// LinkSubIssue establishes a parent→child sub-issue link between two issues
// identified by their opaque node IDs.
func (c *clientImpl) LinkSubIssue(ctx context.Context, parentNodeID, childNodeID string) error {
	url := c.baseURL + "/graphql"

	payload := map[string]interface{}{
		"query": addSubIssueMutation,
		"variables": map[string]string{
			"parentId": parentNodeID,
			"childId":  childNodeID,
		},
	}

	req, err := c.newRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		return err
	}

	resp, err := c.do("link sub-issue", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return statusError("link sub-issue", resp.StatusCode, string(respBody))
	}

	var result struct {
		Errors []struct {
			Message string `json:"message"`
		} `json:"errors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return fmt.Errorf("link sub-issue: decode response: %w", err)
	}
	if len(result.Errors) > 0 {
		msgs := make([]string, len(result.Errors))
		for i, e := range result.Errors {
			msgs[i] = e.Message
		}
		return &ValidationError{
			Op:         "link sub-issue",
			StatusCode: resp.StatusCode,
			Message:    strings.Join(msgs, "; "),
		}
	}

	return nil
}

// ListMilestones fetches all milestones (any state) for the repository and
// refreshes the resolution cache.
func (c *clientImpl) ListMilestones(ctx context.Context, repository string) ([]Milestone, error) {
	url := fmt.Sprintf("%s/repos/%s/milestones?state=all&per_page=100", c.baseURL, repository)

	var all []Milestone
	for url != "" {
		req, err := c.newRequest(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.do("list milestones", req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, statusError("list milestones", resp.StatusCode, string(body))
		}

		var page []Milestone
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("list milestones: decode response: %w", err)
		}
		resp.Body.Close()

		all = append(all, page...)
		url = parseLinkNext(resp.Header.Get("Link"))
	}

	c.milestoneMu.Lock()
	c.milestoneCache[repository] = all
	c.milestoneMu.Unlock()

	return all, nil
}

// CreateMilestone creates a milestone and invalidates the cache for the
// repository.
func (c *clientImpl) CreateMilestone(ctx context.Context, repository, title, description string) (*Milestone, error) {
	url := fmt.Sprintf("%s/repos/%s/milestones", c.baseURL, repository)

	payload := map[string]string{"title": title}
	if description != "" {
		payload["description"] = description
	}

	req, err := c.newRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, err
	}

	resp, err := c.do("create milestone", req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, statusError("create milestone", resp.StatusCode, string(respBody))
	}

	var m Milestone
	if err := json.NewDecoder(resp.Body).Decode(&m); err != nil {
		return nil, fmt.Errorf("create milestone: decode response: %w", err)
	}

	c.milestoneMu.Lock()
	delete(c.milestoneCache, repository)
	c.milestoneMu.Unlock()

	return &m, nil
}

// ListLabels fetches all label names for the repository.
func (c *clientImpl) ListLabels(ctx context.Context, repository string) ([]string, error) {
	url := fmt.Sprintf("%s/repos/%s/labels?per_page=100", c.baseURL, repository)

	var names []string
	for url != "" {
		req, err := c.newRequest(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}

		resp, err := c.do("list labels", req)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			return nil, statusError("list labels", resp.StatusCode, string(body))
		}

		var page []struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
			resp.Body.Close()
			return nil, fmt.Errorf("list labels: decode response: %w", err)
		}
		resp.Body.Close()

		for _, l := range page {
			names = append(names, l.Name)
		}
		url = parseLinkNext(resp.Header.Get("Link"))
	}

	return names, nil
}

// CreateLabel creates a label in the repository.
// If the label already exists (422), it is not treated as an error.
func (c *clientImpl) CreateLabel(ctx context.Context, repository, name, color, description string) error {
	url := fmt.Sprintf("%s/repos/%s/labels", c.baseURL, repository)

	// Strip leading '#' from color if present
	color = strings.TrimPrefix(color, "#")

	payload := map[string]string{
		"name":        name,
		"color":       color,
		"description": description,
	}

	req, err := c.newRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		return err
	}

	resp, err := c.do("create label", req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 201 Created or 422 Unprocessable Entity (already exists) are both OK
	if resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusUnprocessableEntity {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	respBody, _ := io.ReadAll(resp.Body)
	return statusError("create label", resp.StatusCode, string(respBody))
}

// IssueExists checks whether the numbered issue exists in the repository.
// Used by the verification pass; never mutates remote state.
func (c *clientImpl) IssueExists(ctx context.Context, repository string, number int) (bool, error) {
	url := fmt.Sprintf("%s/repos/%s/issues/%d", c.baseURL, repository, number)

	req, err := c.newRequest(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}

	resp, err := c.do("get issue", req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusOK:
		return true, nil
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return false, nil
	default:
		return false, statusError("get issue", resp.StatusCode, "")
	}
}
