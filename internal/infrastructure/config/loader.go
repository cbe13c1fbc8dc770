package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

// DefaultPath is the config file looked up when none is given.
const DefaultPath = ".lcovreport.yaml"

// Loader reads .lcovreport.yaml files. Keys missing from the file keep their
// application.DefaultConfig values.
type Loader struct {
	Logger *slog.Logger
}

var _ application.ConfigLoader = Loader{}

type fileConfig struct {
	Coverage   fileCoverage   `yaml:"coverage"`
	Thresholds fileThresholds `yaml:"thresholds"`
	Title      string         `yaml:"title,omitempty"`
	Comment    fileComment    `yaml:"comment"`
	Changes    fileChanges    `yaml:"changes"`
	Artifact   fileArtifact   `yaml:"artifact"`
	Badge      string         `yaml:"badge,omitempty"`
}

type fileCoverage struct {
	Files   []string `yaml:"files,omitempty"`
	WorkDir string   `yaml:"workdir,omitempty"`
}

type fileThresholds struct {
	AllFiles     *thresholdValue `yaml:"all_files,omitempty"`
	ChangedFiles *thresholdValue `yaml:"changed_files,omitempty"`
}

type fileComment struct {
	Update *bool `yaml:"update,omitempty"`
}

type fileChanges struct {
	Source string `yaml:"source,omitempty"`
	Base   string `yaml:"base,omitempty"`
}

type fileArtifact struct {
	Name   string `yaml:"name,omitempty"`
	Bucket string `yaml:"bucket,omitempty"`
	Dir    string `yaml:"dir,omitempty"`
}

// thresholdValue accepts a number, a numeric string or a string with a
// trailing "%". Anything else disables the threshold instead of failing.
type thresholdValue struct {
	raw       string
	threshold domain.Threshold
	valid     bool
}

func (t *thresholdValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		t.raw = fmt.Sprintf("<%s>", node.Tag)
		return nil
	}
	t.raw = node.Value
	t.threshold, t.valid = domain.ParseThreshold(node.Value)
	return nil
}

func (t thresholdValue) MarshalYAML() (any, error) {
	if !t.threshold.Enabled() {
		return 0, nil
	}
	return t.threshold.Value(), nil
}

func (l Loader) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (l Loader) Load(path string) (application.Config, error) {
	raw, err := os.ReadFile(path) // #nosec G304 - user-selected config file
	if err != nil {
		return application.Config{}, err
	}
	cfg, err := l.Parse(raw)
	if err != nil {
		return application.Config{}, err
	}
	if !filepath.IsAbs(cfg.Coverage.WorkDir) {
		cfg.Coverage.WorkDir = filepath.Join(filepath.Dir(path), cfg.Coverage.WorkDir)
	}
	return cfg, nil
}

// Parse decodes a config document on top of the defaults.
func (l Loader) Parse(raw []byte) (application.Config, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return application.Config{}, err
	}

	cfg := application.DefaultConfig()
	if len(fc.Coverage.Files) > 0 {
		cfg.Coverage.Files = fc.Coverage.Files
	}
	if fc.Coverage.WorkDir != "" {
		cfg.Coverage.WorkDir = fc.Coverage.WorkDir
	}
	cfg.Policy.AllFilesMin = l.threshold("thresholds.all_files", fc.Thresholds.AllFiles)
	cfg.Policy.ChangedFilesMin = l.threshold("thresholds.changed_files", fc.Thresholds.ChangedFiles)
	cfg.Title = fc.Title
	if fc.Comment.Update != nil {
		cfg.Comment.Update = *fc.Comment.Update
	}

	if fc.Changes.Source != "" {
		source, err := ParseChangeSource(fc.Changes.Source)
		if err != nil {
			return application.Config{}, err
		}
		cfg.Changes.Source = source
	}
	cfg.Changes.Base = fc.Changes.Base

	if fc.Artifact.Name != "" {
		cfg.Artifact.Name = fc.Artifact.Name
	}
	cfg.Artifact.Bucket = fc.Artifact.Bucket
	cfg.Artifact.Dir = fc.Artifact.Dir
	cfg.Badge = fc.Badge
	return cfg, nil
}

func (l Loader) threshold(key string, v *thresholdValue) domain.Threshold {
	if v == nil {
		return domain.NoThreshold()
	}
	if !v.valid {
		l.logger().Warn("ignoring invalid threshold", "key", key, "value", v.raw)
	}
	return v.threshold
}

func (l Loader) logger() *slog.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return slog.Default()
}

// ParseChangeSource validates a changes.source value.
func ParseChangeSource(s string) (application.ChangeSource, error) {
	switch source := application.ChangeSource(s); source {
	case application.ChangesAuto, application.ChangesGitHub, application.ChangesGit, application.ChangesNone:
		return source, nil
	default:
		return "", fmt.Errorf("unknown changes source %q (want auto, github, git or none)", s)
	}
}

// Write renders cfg as a config document.
func Write(w io.Writer, cfg application.Config) error {
	out := fileConfig{
		Coverage: fileCoverage{Files: cfg.Coverage.Files, WorkDir: cfg.Coverage.WorkDir},
		Thresholds: fileThresholds{
			AllFiles:     &thresholdValue{threshold: cfg.Policy.AllFilesMin},
			ChangedFiles: &thresholdValue{threshold: cfg.Policy.ChangedFilesMin},
		},
		Title:   cfg.Title,
		Comment: fileComment{Update: &cfg.Comment.Update},
		Changes: fileChanges{Source: string(cfg.Changes.Source), Base: cfg.Changes.Base},
		Artifact: fileArtifact{
			Name:   cfg.Artifact.Name,
			Bucket: cfg.Artifact.Bucket,
			Dir:    cfg.Artifact.Dir,
		},
		Badge: cfg.Badge,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(out); err != nil {
		return err
	}
	return enc.Close()
}

// FormatThreshold renders a threshold the way it appears in a config file.
func FormatThreshold(t domain.Threshold) string {
	if !t.Enabled() {
		return "0"
	}
	return strconv.FormatFloat(t.Value(), 'f', -1, 64)
}
