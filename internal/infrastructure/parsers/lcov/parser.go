// Package lcov reads and writes the LCOV tracefile format.
//
// LCOV tracefiles are produced by:
//   - nyc/c8/Jest (JavaScript/TypeScript)
//   - pytest-cov (Python)
//   - GCC/LLVM gcov via lcov/genhtml
//   - cargo-llvm-cov (Rust)
package lcov

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
	"github.com/felixgeelhaar/lcovreport/internal/pathutil"
)

// Parser implements application.CoverageParser for LCOV tracefiles.
type Parser struct{}

var _ application.CoverageParser = (*Parser)(nil)

// New creates a new LCOV parser.
func New() *Parser {
	return &Parser{}
}

// Parse reads one tracefile from disk.
func (p *Parser) Parse(path string) ([]domain.FileCoverage, error) {
	cleanPath, err := pathutil.ValidatePath(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	file, err := os.Open(cleanPath) // #nosec G304 - path is validated above
	if err != nil {
		return nil, fmt.Errorf("open lcov file: %w", err)
	}
	defer file.Close()

	records, err := p.ParseReader(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ParseReader parses a tracefile stream. A source file that appears more than
// once is merged into its first occurrence.
func (p *Parser) ParseReader(r io.Reader) ([]domain.FileCoverage, error) {
	m := newMerger()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var cur *record
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if line == "end_of_record" {
			if cur != nil {
				m.add(cur.finish())
			}
			cur = nil
			continue
		}

		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		if key == "SF" {
			if cur != nil {
				m.add(cur.finish())
			}
			cur = newRecord(value)
			continue
		}
		if cur == nil {
			// TN and anything else outside a record
			continue
		}
		if err := cur.apply(key, value); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan lcov file: %w", err)
	}

	// tolerate a missing trailing end_of_record
	if cur != nil {
		m.add(cur.finish())
	}
	return m.records, nil
}

// ParseAll merges several tracefiles. Overlapping reports keep the maximum of
// each counter; records stay in first-seen order.
func (p *Parser) ParseAll(paths []string) ([]domain.FileCoverage, error) {
	m := newMerger()
	for _, path := range paths {
		records, err := p.Parse(path)
		if err != nil {
			return nil, err
		}
		for _, rec := range records {
			m.add(rec)
		}
	}
	return m.records, nil
}

type merger struct {
	records []domain.FileCoverage
	index   map[string]int
}

func newMerger() *merger {
	return &merger{index: make(map[string]int)}
}

func (m *merger) add(rec domain.FileCoverage) {
	if rec.Path == "" {
		return
	}
	i, ok := m.index[rec.Path]
	if !ok {
		m.index[rec.Path] = len(m.records)
		m.records = append(m.records, rec)
		return
	}
	m.records[i] = m.records[i].Merge(rec)
}

// record accumulates one SF..end_of_record block. Explicit summary lines take
// precedence over counts derived from DA, FN/FNDA and BRDA entries.
type record struct {
	path string

	lines     map[string]bool
	functions map[string]bool
	branches  map[string]bool

	summary map[string]int
}

func newRecord(path string) *record {
	return &record{
		path:      path,
		lines:     make(map[string]bool),
		functions: make(map[string]bool),
		branches:  make(map[string]bool),
		summary:   make(map[string]int),
	}
}

func (r *record) apply(key, value string) error {
	switch key {
	case "DA":
		// DA:<line>,<count>[,<checksum>]
		parts := strings.Split(value, ",")
		if len(parts) < 2 {
			return nil
		}
		r.lines[parts[0]] = r.lines[parts[0]] || positive(parts[1])

	case "FN":
		// FN:<line>,<name> (newer lcov also emits FN:<start>,<end>,<name>)
		parts := strings.Split(value, ",")
		name := parts[len(parts)-1]
		if _, seen := r.functions[name]; !seen {
			r.functions[name] = false
		}

	case "FNDA":
		// FNDA:<count>,<name>
		count, name, ok := strings.Cut(value, ",")
		if !ok {
			return nil
		}
		r.functions[name] = r.functions[name] || positive(count)

	case "BRDA":
		// BRDA:<line>,<block>,<branch>,<taken|->
		parts := strings.Split(value, ",")
		if len(parts) < 4 {
			return nil
		}
		id := strings.Join(parts[:3], ",")
		r.branches[id] = r.branches[id] || positive(parts[3])

	case "LF", "LH", "FNF", "FNH", "BRF", "BRH":
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n < 0 {
			return fmt.Errorf("invalid %s value %q", key, value)
		}
		r.summary[key] = n
	}
	return nil
}

func (r *record) finish() domain.FileCoverage {
	return domain.FileCoverage{
		Path:      r.path,
		Lines:     r.counter(r.lines, "LF", "LH"),
		Functions: r.counter(r.functions, "FNF", "FNH"),
		Branches:  r.counter(r.branches, "BRF", "BRH"),
	}
}

func (r *record) counter(items map[string]bool, foundKey, hitKey string) domain.Counter {
	c := domain.Counter{Found: len(items)}
	for _, hit := range items {
		if hit {
			c.Hit++
		}
	}
	if n, ok := r.summary[foundKey]; ok {
		c.Found = n
	}
	if n, ok := r.summary[hitKey]; ok {
		c.Hit = n
	}
	return c
}

// positive reports whether an execution count is a number above zero.
// "-" marks a branch that was never evaluated.
func positive(count string) bool {
	n, err := strconv.ParseFloat(strings.TrimSpace(count), 64)
	return err == nil && n > 0
}
