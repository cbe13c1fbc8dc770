// Package cli wires the adapters into the application service and exposes
// them as the lcovreport command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/artifact"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/badge"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/config"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/diff"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/github"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/parsers/lcov"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/paths"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/report"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/resolver"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/watcher"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/wizard"
)

// Exit codes.
const (
	ExitOK     = 0
	ExitFailed = 1
	ExitUsage  = 2
	ExitIO     = 3
)

const defaultGitHubAPI = "https://api.github.com"

var (
	initWizard           = wizard.Run
	stdin      io.Reader = os.Stdin
	getenv               = os.Getenv
	createFile           = func(path string) (io.WriteCloser, error) {
		return os.Create(path) // #nosec G304 - user-selected config file
	}
	newWatcher           = func(logger *slog.Logger) (application.FileWatcher, error) {
		return watcher.New(watcher.WithDebounce(500*time.Millisecond), watcher.WithLogger(logger))
	}
)

// exitError carries the process exit code out of a command. A nil err means
// the reason was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

// fail classifies err: configuration problems are usage errors, anything
// else is an I/O failure.
func fail(err error) error {
	if errors.Is(err, application.ErrInvalidConfig) {
		return &exitError{code: ExitUsage, err: err}
	}
	return &exitError{code: ExitIO, err: err}
}

type globalFlags struct {
	logLevel string
	logJSON  bool
}

// Run executes the command line in args (including the program name) and
// returns the process exit code.
func Run(args []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := newRootCommand(stdout, stderr)
	if len(args) > 1 {
		root.SetArgs(args[1:])
	} else {
		root.SetArgs([]string{})
	}

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "Error:", ee.err)
		}
		return ee.code
	}
	// Flag parsing, argument validation and unknown commands fail before a
	// RunE runs.
	fmt.Fprintln(stderr, "Error:", err)
	return ExitUsage
}

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	globals := &globalFlags{}
	root := &cobra.Command{
		Use:   "lcovreport",
		Short: "Evaluate LCOV coverage against thresholds and report it on pull requests",
		Long: `lcovreport aggregates LCOV tracefiles, checks overall and changed-file
coverage against configured minimums, renders a Markdown report and posts it
as a pull request comment.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, Date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&globals.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	root.PersistentFlags().BoolVar(&globals.logJSON, "log-json", false, "Log as JSON instead of text")

	root.AddCommand(
		newReportCommand(globals, stdout, stderr),
		newInitCommand(globals, stdout, stderr),
		newVersionCommand(stdout),
	)
	return root
}

// newLogger builds the process logger on stderr.
func newLogger(g *globalFlags, stderr io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(g.logLevel)); err != nil {
		return nil, fmt.Errorf("%w: --log-level %q", application.ErrInvalidConfig, g.logLevel)
	}
	opts := &slog.HandlerOptions{Level: level}
	if g.logJSON {
		return slog.New(slog.NewJSONHandler(stderr, opts)), nil
	}
	return slog.New(slog.NewTextHandler(stderr, opts)), nil
}

type reportFlags struct {
	configPath      string
	files           []string
	workDir         string
	allFilesMin     string
	changedFilesMin string
	title           string
	output          string
	reportFile      string
	badge           string
	dryRun          bool
	watch           bool
	changes         string
	base            string
	updateComment   bool
	artifactName    string
	artifactBucket  string
	artifactDir     string
}

func newReportCommand(globals *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	f := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Evaluate coverage, print the verdict and post the pull request comment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(globals, stderr)
			if err != nil {
				return fail(err)
			}
			cfg, err := application.LoadConfig(config.Loader{Logger: logger}, f.configPath)
			if err != nil {
				return fail(err)
			}
			if cfg, err = f.apply(cmd, cfg, logger); err != nil {
				return fail(err)
			}
			output, err := parseOutput(f.output)
			if err != nil {
				return fail(err)
			}
			opts := application.RunOptions{Output: output, ReportFile: f.reportFile, DryRun: f.dryRun}

			svc, cleanup, err := buildService(cmd.Context(), cfg, stdout, logger)
			if err != nil {
				return fail(err)
			}
			defer cleanup()

			if f.watch {
				return runWatch(cmd.Context(), svc, cfg, opts, stdout, stderr, logger)
			}
			outcome, err := svc.Run(cmd.Context(), cfg, opts)
			if err != nil {
				return fail(err)
			}
			printLinks(stderr, outcome)
			if !outcome.Passed() {
				return &exitError{code: ExitFailed}
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.configPath, "config", "c", config.DefaultPath, "Config file path")
	flags.StringSliceVarP(&f.files, "files", "f", nil, "LCOV tracefile glob patterns (overrides coverage.files)")
	flags.StringVar(&f.workDir, "workdir", "", "Repository root coverage paths are resolved against")
	flags.StringVar(&f.allFilesMin, "all-files-min", "", "Minimum line coverage for all files, 0 disables")
	flags.StringVar(&f.changedFilesMin, "changed-files-min", "", "Minimum line coverage for changed files, 0 disables")
	flags.StringVar(&f.title, "title", "", "Report title, also scopes the comment that gets updated")
	flags.StringVarP(&f.output, "output", "o", string(application.OutputText), "Console output: text|json|markdown")
	flags.StringVar(&f.reportFile, "report-file", "", "Also write the Markdown report to this file")
	flags.StringVar(&f.badge, "badge", "", "Also write an SVG badge to this file")
	flags.BoolVar(&f.dryRun, "dry-run", false, "Skip the pull request comment and the artifact upload")
	flags.BoolVarP(&f.watch, "watch", "w", false, "Re-run whenever a tracefile is rewritten")
	flags.StringVar(&f.changes, "changes", "", "Changed files source: auto|github|git|none")
	flags.StringVar(&f.base, "base", "", "Base ref for --changes git")
	flags.BoolVar(&f.updateComment, "update-comment", true, "Update the previous report comment instead of adding one")
	flags.StringVar(&f.artifactName, "artifact-name", "", "Artifact name, used as the upload prefix")
	flags.StringVar(&f.artifactBucket, "artifact-bucket", "", "Upload the HTML report bundle to this GCS bucket")
	flags.StringVar(&f.artifactDir, "artifact-dir", "", "Write the HTML report bundle under this directory")
	return cmd
}

// apply overlays explicitly set flags on the loaded config.
// Unusable threshold values disable the check, matching the config file.
func (f *reportFlags) apply(cmd *cobra.Command, cfg application.Config, logger *slog.Logger) (application.Config, error) {
	changed := cmd.Flags().Changed
	if changed("files") {
		cfg.Coverage.Files = f.files
	}
	if changed("workdir") {
		cfg.Coverage.WorkDir = f.workDir
	}
	if changed("all-files-min") {
		t, ok := domain.ParseThreshold(f.allFilesMin)
		if !ok {
			logger.Warn("ignoring invalid threshold", "flag", "all-files-min", "value", f.allFilesMin)
		}
		cfg.Policy.AllFilesMin = t
	}
	if changed("changed-files-min") {
		t, ok := domain.ParseThreshold(f.changedFilesMin)
		if !ok {
			logger.Warn("ignoring invalid threshold", "flag", "changed-files-min", "value", f.changedFilesMin)
		}
		cfg.Policy.ChangedFilesMin = t
	}
	if changed("title") {
		cfg.Title = f.title
	}
	if changed("badge") {
		cfg.Badge = f.badge
	}
	if changed("changes") {
		source, err := config.ParseChangeSource(f.changes)
		if err != nil {
			return cfg, fmt.Errorf("%w: %w", application.ErrInvalidConfig, err)
		}
		cfg.Changes.Source = source
	}
	if changed("base") {
		cfg.Changes.Base = f.base
	}
	if changed("update-comment") {
		cfg.Comment.Update = f.updateComment
	}
	if changed("artifact-name") {
		cfg.Artifact.Name = f.artifactName
	}
	if changed("artifact-bucket") {
		cfg.Artifact.Bucket = f.artifactBucket
	}
	if changed("artifact-dir") {
		cfg.Artifact.Dir = f.artifactDir
	}
	if len(cfg.Coverage.Files) == 0 {
		return cfg, fmt.Errorf("%w: no coverage files configured", application.ErrInvalidConfig)
	}
	return cfg, nil
}

func parseOutput(value string) (application.OutputFormat, error) {
	switch format := application.OutputFormat(value); format {
	case application.OutputText, application.OutputJSON, application.OutputMarkdown:
		return format, nil
	default:
		return "", fmt.Errorf("%w: invalid output format: %s", application.ErrInvalidConfig, value)
	}
}

// buildService wires the adapters for cfg. The returned cleanup releases
// network clients.
func buildService(ctx context.Context, cfg application.Config, out io.Writer, logger *slog.Logger) (*application.Service, func(), error) {
	workDir, err := filepath.Abs(cfg.Coverage.WorkDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve workdir: %w", err)
	}

	svc := &application.Service{
		Resolver:   resolver.NewGlobResolver(workDir),
		Parser:     lcov.New(),
		Normalizer: paths.NewNormalizer(workDir),
		Diff:       diff.GitDiff{Dir: workDir},
		Renderer:   report.Renderer{},
		Reporter:   report.Writer{},
		Badge:      badge.Writer{},
		Out:        out,
		Logger:     logger,
		Now:        time.Now,
	}
	cleanup := func() {}

	pr, err := github.PullRequestFromEnv(getenv)
	if err != nil {
		return nil, nil, fmt.Errorf("detect pull request: %w", err)
	}
	svc.PR = pr
	if token := getenv("GITHUB_TOKEN"); token != "" {
		client, err := newGitHubClient(token, getenv("GITHUB_API_URL"), logger)
		if err != nil {
			return nil, nil, err
		}
		svc.PRClient = client
	} else if pr != nil {
		logger.Warn("GITHUB_TOKEN not set, pull request comment disabled")
	}

	switch {
	case cfg.Artifact.Bucket != "":
		publisher, err := artifact.NewGCSPublisher(ctx, cfg.Artifact.Bucket, cfg.Artifact.Name, logger)
		if err != nil {
			return nil, nil, err
		}
		svc.Publisher = publisher
		cleanup = func() {
			if err := publisher.Close(); err != nil {
				logger.Warn("close storage client", "error", err)
			}
		}
	case cfg.Artifact.Dir != "":
		svc.Publisher = artifact.DirPublisher{Dir: cfg.Artifact.Dir, Name: cfg.Artifact.Name}
	}
	return svc, cleanup, nil
}

func newGitHubClient(token, apiURL string, logger *slog.Logger) (*github.Client, error) {
	apiURL = strings.TrimSuffix(apiURL, "/")
	if apiURL == "" || apiURL == defaultGitHubAPI {
		return github.NewClient(token, logger), nil
	}
	client, err := github.NewClientWithHTTP(github.HTTPClient(token, logger), apiURL)
	if err != nil {
		return nil, fmt.Errorf("%w: GITHUB_API_URL: %w", application.ErrInvalidConfig, err)
	}
	return client, nil
}

func printLinks(w io.Writer, outcome application.Outcome) {
	if outcome.Comment != nil && outcome.Comment.CommentURL != "" {
		verb := "Updated"
		if outcome.Comment.Created {
			verb = "Posted"
		}
		fmt.Fprintf(w, "%s coverage comment: %s\n", verb, outcome.Comment.CommentURL)
	}
	if outcome.Artifact != "" {
		fmt.Fprintf(w, "Coverage report: %s\n", outcome.Artifact)
	}
}

func runWatch(ctx context.Context, svc *application.Service, cfg application.Config, opts application.RunOptions, stdout, stderr io.Writer, logger *slog.Logger) error {
	w, err := newWatcher(logger)
	if err != nil {
		return fail(fmt.Errorf("failed to create watcher: %w", err))
	}
	defer w.Close()

	fmt.Fprintln(stdout, "Watching coverage files for changes... (Ctrl+C to stop)")

	callback := func(runNumber int, outcome application.Outcome, runErr error) {
		fmt.Fprintf(stdout, "\n--- Run #%d at %s ---\n", runNumber, time.Now().Format("15:04:05"))
		if runErr != nil {
			fmt.Fprintf(stderr, "Coverage run failed: %v\n", runErr)
			return
		}
		printLinks(stderr, outcome)
	}

	if err := svc.Watch(ctx, cfg, opts, w, callback); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(stdout, "\nStopping watch mode...")
			return nil
		}
		return fail(fmt.Errorf("watch: %w", err))
	}
	return nil
}

func newInitCommand(globals *globalFlags, stdout, stderr io.Writer) *cobra.Command {
	var (
		configPath    string
		force         bool
		noInteractive bool
	)
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a " + config.DefaultPath + " config, optionally via an interactive wizard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(globals, stderr)
			if err != nil {
				return fail(err)
			}
			toFile := configPath != "-"
			exists := false
			if toFile {
				if exists, err = (config.Loader{}).Exists(configPath); err != nil {
					return fail(err)
				}
				if exists && !force {
					return fail(fmt.Errorf("%w: config %s already exists (use --force to overwrite)", application.ErrInvalidConfig, configPath))
				}
			}
			cfg, err := application.LoadConfig(config.Loader{Logger: logger}, configPath)
			if err != nil {
				return fail(err)
			}
			if toFile && !exists {
				// a new config describes the directory it is written to
				cfg.Coverage.WorkDir = filepath.Dir(configPath)
			}
			if !noInteractive {
				var confirmed bool
				cfg, confirmed, err = initWizard(cfg, stdout, stdin)
				if err != nil {
					return fail(fmt.Errorf("init wizard: %w", err))
				}
				if !confirmed {
					fmt.Fprintln(stdout, "Init cancelled; no configuration written.")
					return nil
				}
			}
			if err := writeConfigFile(configPath, cfg, stdout); err != nil {
				return fail(err)
			}
			if toFile {
				fmt.Fprintf(stdout, "Wrote %s\n", configPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file path, - for stdout")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&noInteractive, "no-interactive", false, "Skip the interactive wizard and write defaults")
	return cmd
}

func writeConfigFile(path string, cfg application.Config, stdout io.Writer) error {
	if path == "-" {
		return config.Write(stdout, cfg)
	}
	// Stored relative to the config file's directory, as Load expects.
	if rel, err := relativeTo(filepath.Dir(path), cfg.Coverage.WorkDir); err == nil {
		cfg.Coverage.WorkDir = rel
	}
	file, err := createFile(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if err := config.Write(file, cfg); err != nil {
		_ = file.Close()
		return fmt.Errorf("write config: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("close config: %w", err)
	}
	return nil
}

func relativeTo(base, target string) (string, error) {
	absBase, err := filepath.Abs(base)
	if err != nil {
		return "", err
	}
	absTarget, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	return filepath.Rel(absBase, absTarget)
}

func newVersionCommand(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "lcovreport version: %s\n", Version)
			fmt.Fprintf(stdout, "  git commit: %s\n", Commit)
			fmt.Fprintf(stdout, "  build date: %s\n", Date)
		},
	}
}
