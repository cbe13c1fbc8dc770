// Package github talks to the GitHub REST API for pull request files and
// comments.
package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	gh "github.com/google/go-github/v29/github"
	"golang.org/x/oauth2"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/httpretry"
)

const perPage = 100

// Client implements application.PRClient.
type Client struct {
	gh *gh.Client
}

var _ application.PRClient = (*Client)(nil)

// NewClient creates a client for api.github.com authenticated with token.
func NewClient(token string, logger *slog.Logger) *Client {
	return &Client{gh: gh.NewClient(HTTPClient(token, logger))}
}

// HTTPClient returns an HTTP client that sends token and retries transient
// failures with backoff.
func HTTPClient(token string, logger *slog.Logger) *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}),
			Base:   httpretry.New(nil, httpretry.DefaultConfig(), logger),
		},
	}
}

// NewClientWithHTTP creates a client with a custom HTTP client and API URL,
// for GitHub Enterprise and tests.
func NewClientWithHTTP(httpClient *http.Client, apiURL string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if apiURL != "" {
		if !strings.HasSuffix(apiURL, "/") {
			apiURL += "/"
		}
		u, err := url.Parse(apiURL)
		if err != nil {
			return nil, fmt.Errorf("parse api url: %w", err)
		}
		client.BaseURL = u
	}
	return &Client{gh: client}, nil
}

// ChangedFiles lists every file of the pull request across all pages.
// Removed files are skipped; their coverage no longer exists.
func (c *Client) ChangedFiles(ctx context.Context, pr application.PullRequest) ([]string, error) {
	var files []string
	opts := &gh.ListOptions{PerPage: perPage}
	for {
		page, resp, err := c.gh.PullRequests.ListFiles(ctx, pr.Owner, pr.Repo, pr.Number, opts)
		if err != nil {
			return nil, fmt.Errorf("list files of %s/%s#%d: %w", pr.Owner, pr.Repo, pr.Number, err)
		}
		for _, f := range page {
			if f.GetStatus() == "removed" {
				continue
			}
			files = append(files, f.GetFilename())
		}
		if resp.NextPage == 0 {
			return files, nil
		}
		opts.Page = resp.NextPage
	}
}

// FindComment returns the ID of the first comment whose body contains
// marker, or 0 when there is none.
func (c *Client) FindComment(ctx context.Context, pr application.PullRequest, marker string) (int64, error) {
	opts := &gh.IssueListCommentsOptions{ListOptions: gh.ListOptions{PerPage: perPage}}
	for {
		comments, resp, err := c.gh.Issues.ListComments(ctx, pr.Owner, pr.Repo, pr.Number, opts)
		if err != nil {
			return 0, fmt.Errorf("list comments: %w", err)
		}
		for _, comment := range comments {
			if strings.Contains(comment.GetBody(), marker) {
				return comment.GetID(), nil
			}
		}
		if resp.NextPage == 0 {
			return 0, nil
		}
		opts.Page = resp.NextPage
	}
}

// CreateComment creates a new comment on a PR.
func (c *Client) CreateComment(ctx context.Context, pr application.PullRequest, body string) (int64, string, error) {
	comment, _, err := c.gh.Issues.CreateComment(ctx, pr.Owner, pr.Repo, pr.Number, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return 0, "", err
	}
	return comment.GetID(), comment.GetHTMLURL(), nil
}

// UpdateComment replaces the body of an existing comment.
func (c *Client) UpdateComment(ctx context.Context, pr application.PullRequest, commentID int64, body string) (string, error) {
	comment, _, err := c.gh.Issues.EditComment(ctx, pr.Owner, pr.Repo, commentID, &gh.IssueComment{Body: gh.String(body)})
	if err != nil {
		return "", err
	}
	return comment.GetHTMLURL(), nil
}
