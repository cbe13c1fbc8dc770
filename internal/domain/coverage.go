package domain

import (
	"fmt"

	multierror "github.com/hashicorp/go-multierror"
)

// Counter is a found/hit pair for one kind of coverable item (lines,
// functions or branches).
type Counter struct {
	Found int `json:"found"`
	Hit   int `json:"hit"`
}

// Percent returns the coverage percentage as a raw float64.
// A counter with nothing found has 0% coverage.
func (c Counter) Percent() float64 {
	if c.Found == 0 {
		return 0
	}
	return float64(c.Hit) * 100 / float64(c.Found)
}

// Add returns the sum of two counters.
func (c Counter) Add(other Counter) Counter {
	return Counter{Found: c.Found + other.Found, Hit: c.Hit + other.Hit}
}

// Validate checks the counter invariants.
func (c Counter) Validate() error {
	if c.Found < 0 || c.Hit < 0 {
		return fmt.Errorf("negative count (found=%d, hit=%d)", c.Found, c.Hit)
	}
	if c.Hit > c.Found {
		return fmt.Errorf("hit %d exceeds found %d", c.Hit, c.Found)
	}
	return nil
}

// FileCoverage is the coverage record for one source file.
type FileCoverage struct {
	Path      string  `json:"path"`
	Lines     Counter `json:"lines"`
	Functions Counter `json:"functions"`
	Branches  Counter `json:"branches"`
}

// Base returns the file name without its directory.
func (f FileCoverage) Base() string {
	p, err := NewFilePath(f.Path)
	if err != nil {
		return ""
	}
	return p.Base()
}

// Validate rejects records that would produce negative or >100% coverage.
func (f FileCoverage) Validate() error {
	if f.Path == "" {
		return ErrEmptyFilePath
	}
	if err := f.Lines.Validate(); err != nil {
		return fmt.Errorf("%s: lines: %w", f.Path, err)
	}
	if err := f.Functions.Validate(); err != nil {
		return fmt.Errorf("%s: functions: %w", f.Path, err)
	}
	if err := f.Branches.Validate(); err != nil {
		return fmt.Errorf("%s: branches: %w", f.Path, err)
	}
	return nil
}

// ValidateAll validates every record and reports all malformed ones together.
func ValidateAll(records []FileCoverage) error {
	var result *multierror.Error
	for i, r := range records {
		if err := r.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("record %d: %w", i, err))
		}
	}
	return result.ErrorOrNil()
}

// Summary is the sum of the counters of zero or more records.
// A nil *Summary means there was no matching data at all.
type Summary struct {
	Lines     Counter `json:"lines"`
	Functions Counter `json:"functions"`
	Branches  Counter `json:"branches"`
}

// Add returns the summary extended by one record.
func (s Summary) Add(f FileCoverage) Summary {
	return Summary{
		Lines:     s.Lines.Add(f.Lines),
		Functions: s.Functions.Add(f.Functions),
		Branches:  s.Branches.Add(f.Branches),
	}
}

// MaxOf returns the larger found and larger hit of two counters. Overlapping
// reports for the same file are combined this way rather than summed.
func MaxOf(a, b Counter) Counter {
	return Counter{Found: max(a.Found, b.Found), Hit: max(a.Hit, b.Hit)}
}

// Merge combines two records for the same file with MaxOf per counter.
// The receiver's path is kept.
func (f FileCoverage) Merge(other FileCoverage) FileCoverage {
	return FileCoverage{
		Path:      f.Path,
		Lines:     MaxOf(f.Lines, other.Lines),
		Functions: MaxOf(f.Functions, other.Functions),
		Branches:  MaxOf(f.Branches, other.Branches),
	}
}
