package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	defaultBaseURL = "https://api.github.com"
	perPage        = 100
	maxPages       = 5
)

// Client is a minimal GitHub REST v3 client covering the endpoints
// ingestion needs.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// RepoInfo is the subset of repository metadata we persist.
type RepoInfo struct {
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Language    string `json:"language"`
}

// CommitRef is one entry from the commit list endpoint. The list
// response carries no stats or patches; those need a detail fetch.
type CommitRef struct {
	SHA    string `json:"sha"`
	Commit struct {
		Message string `json:"message"`
		Author  struct {
			Name  string    `json:"name"`
			Email string    `json:"email"`
			Date  time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
	Author *struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"author"`
}

// CommitDetail is the full commit with per-file patches.
type CommitDetail struct {
	CommitRef
	Stats struct {
		Additions int `json:"additions"`
		Deletions int `json:"deletions"`
	} `json:"stats"`
	Files []struct {
		Filename  string `json:"filename"`
		Status    string `json:"status"`
		Additions int    `json:"additions"`
		Deletions int    `json:"deletions"`
		Patch     string `json:"patch"`
	} `json:"files"`
}

// Issue is one entry from the issues endpoint. PullRequest is set when
// the entry is actually a pull request; ingestion filters those out.
type Issue struct {
	ID     int64  `json:"id"`
	Number int    `json:"number"`
	Title  string `json:"title"`
	Body   string `json:"body"`
	State  string `json:"state"`
	Labels []struct {
		Name string `json:"name"`
	} `json:"labels"`
	User struct {
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
	} `json:"user"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	PullRequest *struct{} `json:"pull_request"`
}

// Contributor is one entry from the contributors endpoint.
type Contributor struct {
	Login         string `json:"login"`
	AvatarURL     string `json:"avatar_url"`
	Contributions int    `json:"contributions"`
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "contribsum/1.0")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GitHub request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GitHub API error (status %d) for %s: %s", resp.StatusCode, path, string(body))
	}
	return json.Unmarshal(body, out)
}

// Repository fetches basic repository metadata.
func (c *Client) Repository(ctx context.Context, owner, repo string) (*RepoInfo, error) {
	var info RepoInfo
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s", owner, repo), nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Commits lists commits newest-first, paginating up to maxPages.
func (c *Client) Commits(ctx context.Context, owner, repo string, since time.Time) ([]CommitRef, error) {
	var all []CommitRef
	for page := 1; page <= maxPages; page++ {
		query := url.Values{
			"per_page": {strconv.Itoa(perPage)},
			"page":     {strconv.Itoa(page)},
		}
		if !since.IsZero() {
			query.Set("since", since.Format(time.RFC3339))
		}

		var commits []CommitRef
		if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/commits", owner, repo), query, &commits); err != nil {
			return nil, err
		}
		all = append(all, commits...)
		if len(commits) < perPage {
			break
		}
	}
	return all, nil
}

// CommitDetail fetches one commit with stats and per-file patches.
func (c *Client) CommitDetail(ctx context.Context, owner, repo, sha string) (*CommitDetail, error) {
	var detail CommitDetail
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, sha), nil, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// Issues lists issues in all states, paginating up to maxPages and
// dropping pull requests, which GitHub mixes into the same endpoint.
func (c *Client) Issues(ctx context.Context, owner, repo string) ([]Issue, error) {
	var all []Issue
	for page := 1; page <= maxPages; page++ {
		query := url.Values{
			"state":    {"all"},
			"per_page": {strconv.Itoa(perPage)},
			"page":     {strconv.Itoa(page)},
		}

		var issues []Issue
		if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/issues", owner, repo), query, &issues); err != nil {
			return nil, err
		}
		for _, issue := range issues {
			if issue.PullRequest == nil {
				all = append(all, issue)
			}
		}
		if len(issues) < perPage {
			break
		}
	}
	return all, nil
}

// Contributors lists a repository's contributors.
func (c *Client) Contributors(ctx context.Context, owner, repo string) ([]Contributor, error) {
	query := url.Values{"per_page": {strconv.Itoa(perPage)}}
	var contributors []Contributor
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/contributors", owner, repo), query, &contributors); err != nil {
		return nil, err
	}
	return contributors, nil
}
