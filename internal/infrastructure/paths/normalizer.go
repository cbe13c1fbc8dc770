// Package paths normalizes coverage and changed-file paths so that they can be
// compared exactly.
package paths

import (
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
	"github.com/felixgeelhaar/lcovreport/internal/pathutil"
)

// Normalizer resolves paths against a repository root.
type Normalizer struct {
	Root string
}

var _ application.PathNormalizer = (*Normalizer)(nil)

// NewNormalizer creates a Normalizer for root. An empty root leaves relative
// paths relative.
func NewNormalizer(root string) *Normalizer {
	return &Normalizer{Root: root}
}

// NormalizePath converts a path to a cleaned absolute path with the
// platform's separators.
func (n *Normalizer) NormalizePath(file string) string {
	file = filepath.FromSlash(strings.TrimSpace(file))
	if n.Root == "" {
		return filepath.Clean(file)
	}
	return pathutil.Absolute(n.Root, file)
}

// Records returns normalized copies of records. Records that collapse onto
// the same path are merged and keep the position of the first one.
func (n *Normalizer) Records(records []domain.FileCoverage) []domain.FileCoverage {
	out := make([]domain.FileCoverage, 0, len(records))
	index := make(map[string]int, len(records))
	for _, r := range records {
		if r.Path == "" {
			// left for validation to reject
			out = append(out, r)
			continue
		}
		r.Path = n.NormalizePath(r.Path)
		if i, ok := index[r.Path]; ok {
			out[i] = out[i].Merge(r)
			continue
		}
		index[r.Path] = len(out)
		out = append(out, r)
	}
	return out
}

// PathSet normalizes changed-file paths into a filter.
func (n *Normalizer) PathSet(files []string) domain.PathSet {
	normalized := make([]string, 0, len(files))
	for _, f := range files {
		if strings.TrimSpace(f) == "" {
			continue
		}
		normalized = append(normalized, n.NormalizePath(f))
	}
	return domain.NewPathSet(normalized...)
}
