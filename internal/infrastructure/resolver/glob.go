// Package resolver expands coverage file patterns into tracefile paths.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/felixgeelhaar/lcovreport/internal/application"
)

// ErrNoMatch is returned when a pattern matches no file.
var ErrNoMatch = errors.New("no coverage file matches pattern")

// GlobResolver resolves file glob patterns relative to a working directory.
// Besides the usual filepath.Match syntax, a "**" path segment matches any
// number of directories.
type GlobResolver struct {
	workDir string
}

var _ application.CoverageResolver = (*GlobResolver)(nil)

// NewGlobResolver creates a new glob resolver rooted at workDir.
func NewGlobResolver(workDir string) *GlobResolver {
	if workDir == "" {
		workDir, _ = os.Getwd()
	}
	return &GlobResolver{workDir: workDir}
}

// Resolve returns the sorted, de-duplicated regular files matched by
// patterns. Every pattern must match at least one file.
func (r *GlobResolver) Resolve(ctx context.Context, patterns []string) ([]string, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("no coverage file patterns configured")
	}

	seen := make(map[string]struct{})
	var files []string
	for _, raw := range patterns {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pattern := normalizePattern(raw, r.workDir)

		var (
			matches []string
			err     error
		)
		if strings.Contains(pattern, "**") {
			matches, err = r.recursiveGlob(ctx, pattern)
		} else {
			matches, err = globFiles(pattern)
		}
		if err != nil {
			return nil, fmt.Errorf("pattern %q: %w", raw, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, raw)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}

	sort.Strings(files)
	return files, nil
}

// normalizePattern trims "./" and makes the pattern absolute.
func normalizePattern(pattern, baseDir string) string {
	pattern = strings.TrimPrefix(strings.TrimSpace(pattern), "./")
	if !filepath.IsAbs(pattern) {
		pattern = filepath.Join(baseDir, pattern)
	}
	return filepath.Clean(pattern)
}

func globFiles(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(matches))
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.Mode().IsRegular() {
			files = append(files, m)
		}
	}
	return files, nil
}

// recursiveGlob walks the directory in front of the first "**" and matches
// every file below it segment by segment.
func (r *GlobResolver) recursiveGlob(ctx context.Context, pattern string) ([]string, error) {
	sep := string(filepath.Separator)
	parts := strings.SplitN(pattern, "**", 2)
	baseDir := strings.TrimSuffix(parts[0], sep)
	if baseDir == "" {
		baseDir = sep
	}
	if _, err := os.Stat(baseDir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	rest := "**" + parts[1]
	want := strings.Split(filepath.ToSlash(rest), "/")

	var files []string
	err := filepath.WalkDir(baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if path != baseDir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return nil
		}
		if matchSegments(want, strings.Split(filepath.ToSlash(rel), "/")) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// matchSegments matches path segments against pattern segments where "**"
// stands for zero or more segments.
func matchSegments(pattern, segments []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}
	if pattern[0] == "**" {
		for i := 0; i <= len(segments); i++ {
			if matchSegments(pattern[1:], segments[i:]) {
				return true
			}
		}
		return false
	}
	if len(segments) == 0 {
		return false
	}
	ok, err := filepath.Match(pattern[0], segments[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], segments[1:])
}
