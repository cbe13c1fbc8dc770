// Package artifact builds the report bundle and publishes it to Google Cloud
// Storage or a local directory.
package artifact

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/felixgeelhaar/lcovreport/internal/domain"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/badge"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/parsers/lcov"
	"github.com/felixgeelhaar/lcovreport/internal/infrastructure/report"
)

// IndexFile is the entry point of a bundle; publishers return its location.
const IndexFile = "index.html"

// File is one member of the bundle.
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// Bundle renders the HTML report, the badge and the merged tracefile.
func Bundle(r domain.Report, generated time.Time) ([]File, error) {
	var index, svg, info bytes.Buffer
	if err := report.WriteHTML(&index, r, generated); err != nil {
		return nil, fmt.Errorf("render html: %w", err)
	}
	if err := (badge.Writer{}).WriteBadge(&svg, r); err != nil {
		return nil, fmt.Errorf("render badge: %w", err)
	}
	if err := lcov.Write(&info, r.Records); err != nil {
		return nil, fmt.Errorf("write tracefile: %w", err)
	}
	return []File{
		{Name: IndexFile, ContentType: "text/html; charset=utf-8", Data: index.Bytes()},
		{Name: "badge.svg", ContentType: "image/svg+xml", Data: svg.Bytes()},
		{Name: "lcov.info", ContentType: "text/plain; charset=utf-8", Data: info.Bytes()},
	}, nil
}

// prefix turns an artifact name into a safe single path segment.
func prefix(name string) string {
	name = strings.TrimSpace(name)
	name = strings.Trim(path.Clean("/"+name), "/")
	name = strings.ReplaceAll(name, "/", "-")
	if name == "" {
		return "coverage-report"
	}
	return name
}
