package github

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/felixgeelhaar/lcovreport/internal/application"
)

// event is the part of a GitHub Actions event payload that identifies a
// pull request. pull_request and pull_request_target events carry
// pull_request.number; issue_comment events on a PR carry issue.number.
type event struct {
	Number      int `json:"number"`
	PullRequest *struct {
		Number int `json:"number"`
	} `json:"pull_request"`
	Issue *struct {
		Number      int              `json:"number"`
		PullRequest *json.RawMessage `json:"pull_request"`
	} `json:"issue"`
}

// PullRequestFromEnv reads the pull request a GitHub Actions run belongs to
// from GITHUB_REPOSITORY and the GITHUB_EVENT_PATH payload. It returns nil
// without error when the run is not for a pull request.
func PullRequestFromEnv(getenv func(string) string) (*application.PullRequest, error) {
	repository := getenv("GITHUB_REPOSITORY")
	eventPath := getenv("GITHUB_EVENT_PATH")
	if repository == "" || eventPath == "" {
		return nil, nil
	}
	owner, repo, ok := strings.Cut(repository, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("malformed GITHUB_REPOSITORY %q", repository)
	}

	raw, err := os.ReadFile(eventPath) // #nosec G304 - path provided by the Actions runner
	if err != nil {
		return nil, fmt.Errorf("read event payload: %w", err)
	}
	var ev event
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode event payload: %w", err)
	}

	number := 0
	switch {
	case ev.PullRequest != nil:
		number = ev.PullRequest.Number
		if number == 0 {
			number = ev.Number
		}
	case ev.Issue != nil && ev.Issue.PullRequest != nil:
		number = ev.Issue.Number
	}
	if number == 0 {
		return nil, nil
	}
	return &application.PullRequest{Owner: owner, Repo: repo, Number: number}, nil
}
