package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

// DirPublisher writes the bundle to <Dir>/<Name>/.
type DirPublisher struct {
	Dir  string
	Name string
}

var _ application.ArtifactPublisher = DirPublisher{}

// Publish returns the path of the written index.html.
func (p DirPublisher) Publish(ctx context.Context, r domain.Report, generated time.Time) (string, error) {
	files, err := Bundle(r, generated)
	if err != nil {
		return "", err
	}
	target := filepath.Join(p.Dir, prefix(p.Name))
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := os.WriteFile(filepath.Join(target, f.Name), f.Data, 0o644); err != nil { // #nosec G306 - report is meant to be shared
			return "", fmt.Errorf("write %s: %w", f.Name, err)
		}
	}
	return filepath.Join(target, IndexFile), nil
}
