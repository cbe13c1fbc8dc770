package application

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

// ErrInvalidConfig marks errors caused by configuration rather than I/O.
var ErrInvalidConfig = errors.New("invalid configuration")

// Service runs the coverage pipeline: resolve, parse, normalize, validate,
// fetch changes, evaluate, render, then emit.
type Service struct {
	Resolver   CoverageResolver
	Parser     CoverageParser
	Normalizer PathNormalizer
	Diff       DiffProvider
	PRClient   PRClient
	PR         *PullRequest
	Renderer   Renderer
	Reporter   Reporter
	Badge      BadgeWriter
	Publisher  ArtifactPublisher
	Out        io.Writer
	Logger     *slog.Logger
	Now        func() time.Time
}

// Run executes one pipeline pass. A failing verdict is not an error; it is
// reported through Outcome.Passed.
func (s *Service) Run(ctx context.Context, cfg Config, opts RunOptions) (Outcome, error) {
	log := s.logger()

	report, source, err := s.Evaluate(ctx, cfg)
	if err != nil {
		return Outcome{}, err
	}

	// rendering waits for both evaluations since the header carries the verdict
	out := Outcome{
		Report:   report,
		Markdown: s.Renderer.Markdown(report),
		Source:   source,
	}
	log.Info("coverage evaluated",
		"passed", report.Passed(),
		"records", len(report.Records),
		"changed", report.Changed.Len(),
		"source", source,
	)

	if err := s.emitLocal(cfg, opts, out); err != nil {
		return out, err
	}

	if opts.DryRun {
		log.Debug("dry run, skipping comment and artifact")
		return out, nil
	}

	comment, err := s.postComment(ctx, cfg, out.Markdown)
	if err != nil {
		return out, err
	}
	out.Comment = comment

	if cfg.Artifact.Enabled() && s.Publisher != nil {
		location, err := s.Publisher.Publish(ctx, report, s.now())
		if err != nil {
			return out, fmt.Errorf("publish artifact: %w", err)
		}
		log.Info("artifact published", "location", location)
		out.Artifact = location
	}
	return out, nil
}

// Evaluate runs the synchronous part of the pipeline and returns the
// completed report.
func (s *Service) Evaluate(ctx context.Context, cfg Config) (domain.Report, ChangeSource, error) {
	log := s.logger()

	paths, err := s.Resolver.Resolve(ctx, cfg.Coverage.Files)
	if err != nil {
		return domain.Report{}, "", fmt.Errorf("resolve coverage files: %w", err)
	}
	log.Debug("coverage files resolved", "files", paths)

	parsed, err := s.Parser.ParseAll(paths)
	if err != nil {
		return domain.Report{}, "", fmt.Errorf("parse coverage: %w", err)
	}

	records := s.Normalizer.Records(parsed)
	if err := domain.ValidateAll(records); err != nil {
		return domain.Report{}, "", fmt.Errorf("invalid coverage data: %w", err)
	}

	source, files, err := s.changedFiles(ctx, cfg)
	if err != nil {
		return domain.Report{}, "", err
	}
	changed := s.Normalizer.PathSet(files)

	return domain.NewReport(cfg.Title, cfg.Policy, records, changed), source, nil
}

// resolveSource picks the effective change source for auto mode.
func (s *Service) resolveSource(cfg Config) ChangeSource {
	source := cfg.Changes.Source
	if source != "" && source != ChangesAuto {
		return source
	}
	switch {
	case s.PR != nil && s.PRClient != nil:
		return ChangesGitHub
	case cfg.Changes.Base != "" && s.Diff != nil:
		return ChangesGit
	default:
		return ChangesNone
	}
}

func (s *Service) changedFiles(ctx context.Context, cfg Config) (ChangeSource, []string, error) {
	source := s.resolveSource(cfg)
	switch source {
	case ChangesNone:
		return source, nil, nil

	case ChangesGitHub:
		if s.PR == nil || s.PRClient == nil {
			return source, nil, fmt.Errorf("%w: github changes need a pull request context and token", ErrInvalidConfig)
		}
		files, err := s.PRClient.ChangedFiles(ctx, *s.PR)
		if err != nil {
			return source, nil, fmt.Errorf("list pull request files: %w", err)
		}
		return source, files, nil

	case ChangesGit:
		if cfg.Changes.Base == "" || s.Diff == nil {
			return source, nil, fmt.Errorf("%w: git changes need a base ref", ErrInvalidConfig)
		}
		files, err := s.Diff.ChangedFiles(ctx, cfg.Changes.Base)
		if err != nil {
			return source, nil, fmt.Errorf("git diff: %w", err)
		}
		return source, files, nil

	default:
		return source, nil, fmt.Errorf("%w: unknown changes source %q", ErrInvalidConfig, source)
	}
}

func (s *Service) emitLocal(cfg Config, opts RunOptions, out Outcome) error {
	if s.Reporter != nil && s.Out != nil {
		if err := s.Reporter.Write(s.Out, out.Report, opts.Output); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	}
	if opts.ReportFile != "" {
		if err := os.WriteFile(opts.ReportFile, []byte(out.Markdown), 0o644); err != nil {
			return fmt.Errorf("write report file: %w", err)
		}
	}
	if cfg.Badge != "" && s.Badge != nil {
		buf := new(bytes.Buffer)
		if err := s.Badge.WriteBadge(buf, out.Report); err != nil {
			return err
		}
		if err := os.WriteFile(cfg.Badge, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("write badge: %w", err)
		}
	}
	return nil
}

// postComment creates or updates the pull request comment. It is a no-op
// outside a pull request.
func (s *Service) postComment(ctx context.Context, cfg Config, body string) (*CommentResult, error) {
	log := s.logger()
	if s.PR == nil || s.PRClient == nil {
		log.Debug("no pull request context, skipping comment")
		return nil, nil
	}
	pr := *s.PR

	if cfg.Comment.Update {
		marker := strings.TrimSpace(s.Renderer.Identity(cfg.Title))
		existingID, err := s.PRClient.FindComment(ctx, pr, marker)
		if err != nil {
			return nil, fmt.Errorf("find existing comment: %w", err)
		}
		if existingID != 0 {
			url, err := s.PRClient.UpdateComment(ctx, pr, existingID, body)
			if err != nil {
				return nil, fmt.Errorf("update comment: %w", err)
			}
			log.Info("comment updated", "id", existingID, "pr", pr.Number)
			return &CommentResult{CommentID: existingID, CommentURL: url}, nil
		}
	}

	id, url, err := s.PRClient.CreateComment(ctx, pr, body)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	log.Info("comment created", "id", id, "pr", pr.Number)
	return &CommentResult{CommentID: id, CommentURL: url, Created: true}, nil
}

func (s *Service) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}
