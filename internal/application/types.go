package application

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

type OutputFormat string

const (
	OutputText     OutputFormat = "text"
	OutputJSON     OutputFormat = "json"
	OutputMarkdown OutputFormat = "markdown"
)

// ChangeSource selects where the changed-file list comes from.
type ChangeSource string

const (
	// ChangesAuto uses GitHub inside a pull request, git when a base ref is
	// configured, and nothing otherwise.
	ChangesAuto   ChangeSource = "auto"
	ChangesGitHub ChangeSource = "github"
	ChangesGit    ChangeSource = "git"
	ChangesNone   ChangeSource = "none"
)

var ErrConfigNotFound = errors.New("config not found")

// Config represents validated, application-ready configuration.
type Config struct {
	Coverage CoverageConfig
	Policy   domain.Policy
	Title    string
	Comment  CommentConfig
	Changes  ChangesConfig
	Artifact ArtifactConfig
	// Badge is an optional path the SVG badge is written to.
	Badge string
}

type CoverageConfig struct {
	Files   []string // glob patterns for LCOV tracefiles
	WorkDir string   // repository root; relative paths resolve against it
}

type CommentConfig struct {
	Update bool // update the previous comment instead of adding a new one
}

type ChangesConfig struct {
	Source ChangeSource
	Base   string // git base ref for ChangesGit
}

type ArtifactConfig struct {
	Name   string
	Bucket string // gs:// bucket; takes precedence over Dir
	Dir    string
}

// Enabled reports whether an artifact destination is configured.
func (a ArtifactConfig) Enabled() bool {
	return a.Bucket != "" || a.Dir != ""
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Coverage: CoverageConfig{Files: []string{"coverage/lcov.info"}, WorkDir: "."},
		Comment:  CommentConfig{Update: true},
		Changes:  ChangesConfig{Source: ChangesAuto},
		Artifact: ArtifactConfig{Name: "coverage-report"},
	}
}

type ConfigLoader interface {
	Load(path string) (Config, error)
	Exists(path string) (bool, error)
}

// CoverageResolver expands tracefile patterns into files.
type CoverageResolver interface {
	Resolve(ctx context.Context, patterns []string) ([]string, error)
}

// CoverageParser parses and merges tracefiles into records.
type CoverageParser interface {
	ParseAll(paths []string) ([]domain.FileCoverage, error)
}

// PathNormalizer makes record and changed-file paths comparable.
type PathNormalizer interface {
	NormalizePath(file string) string
	Records(records []domain.FileCoverage) []domain.FileCoverage
	PathSet(files []string) domain.PathSet
}

// DiffProvider lists files changed against a base ref.
type DiffProvider interface {
	ChangedFiles(ctx context.Context, base string) ([]string, error)
}

// PullRequest identifies the pull request a run reports on.
type PullRequest struct {
	Owner  string
	Repo   string
	Number int
}

// PRClient provides the pull request operations the pipeline needs.
type PRClient interface {
	// ChangedFiles lists the files touched by the pull request, without
	// removed files.
	ChangedFiles(ctx context.Context, pr PullRequest) ([]string, error)
	// FindComment returns the ID of the first comment containing marker, or 0.
	FindComment(ctx context.Context, pr PullRequest, marker string) (int64, error)
	CreateComment(ctx context.Context, pr PullRequest, body string) (int64, string, error)
	UpdateComment(ctx context.Context, pr PullRequest, commentID int64, body string) (string, error)
}

// Renderer turns a report into its textual forms.
type Renderer interface {
	Markdown(r domain.Report) string
	Identity(title string) string
}

// ArtifactPublisher uploads the HTML report bundle and returns its location.
type ArtifactPublisher interface {
	Publish(ctx context.Context, r domain.Report, generated time.Time) (string, error)
}

// BadgeWriter renders the coverage badge.
type BadgeWriter interface {
	WriteBadge(w io.Writer, r domain.Report) error
}

type Reporter interface {
	Write(w io.Writer, r domain.Report, format OutputFormat) error
}

// FileWatcher provides file change notifications.
type FileWatcher interface {
	WatchFiles(paths []string) error
	Events(ctx context.Context) <-chan struct{}
	Close() error
}

// RunOptions controls what a single pipeline run emits.
type RunOptions struct {
	Output     OutputFormat
	ReportFile string // optional path the Markdown document is written to
	DryRun     bool   // skip the comment and the artifact upload
}

// CommentResult describes the pull request comment a run produced.
type CommentResult struct {
	CommentID  int64  `json:"commentId,omitempty"`
	CommentURL string `json:"commentUrl,omitempty"`
	Created    bool   `json:"created"` // true if created, false if updated
}

// Outcome is the result of one pipeline run.
type Outcome struct {
	Report   domain.Report
	Markdown string
	Source   ChangeSource
	Comment  *CommentResult
	Artifact string
}

// Passed reports the overall verdict.
func (o Outcome) Passed() bool {
	return o.Report.Passed()
}
