// Package diff lists files changed on the current branch using git.
package diff

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/lcovreport/internal/application"
)

// GitDiff runs git in Dir. Returned paths are absolute, joined onto the
// repository top level, so they compare equal to normalized LCOV paths.
type GitDiff struct {
	Dir  string
	Exec func(ctx context.Context, dir string, args []string) ([]byte, error)
}

var _ application.DiffProvider = GitDiff{}

// ChangedFiles lists files changed between the merge base of base and HEAD.
// Deleted files are left out.
func (g GitDiff) ChangedFiles(ctx context.Context, base string) ([]string, error) {
	if base == "" {
		base = "origin/main"
	}
	execFn := g.Exec
	if execFn == nil {
		execFn = runGitOutput
	}

	top, err := execFn(ctx, g.Dir, []string{"rev-parse", "--show-toplevel"})
	if err != nil {
		return nil, fmt.Errorf("find repository root: %w", err)
	}
	root := strings.TrimSpace(string(top))

	out, err := execFn(ctx, g.Dir, []string{"diff", "--name-only", "--diff-filter=d", base + "...HEAD"})
	if err != nil {
		return nil, err
	}
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	files := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		files = append(files, filepath.Join(root, filepath.FromSlash(line)))
	}
	return files, nil
}

func runGitOutput(ctx context.Context, dir string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && stderr.Len() > 0 {
			return nil, fmt.Errorf("git %s: %s", strings.Join(args, " "), strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}
