package domain

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// Value object errors.
var (
	ErrInvalidThreshold = errors.New("threshold must be between 0 and 100")
	ErrEmptyFilePath    = errors.New("file path cannot be empty")
)

// Threshold is a minimum line-coverage percentage (0-100).
// The zero value imposes no requirement; a configured minimum of 0 is treated
// the same way, so "must be 0%" and "not enforced" cannot be confused.
type Threshold struct {
	value   float64
	enabled bool
}

// NoThreshold returns a threshold that is never enforced.
func NoThreshold() Threshold {
	return Threshold{}
}

// NewThreshold creates a new Threshold value object.
// Returns an error if the value is not between 0 and 100.
func NewThreshold(value float64) (Threshold, error) {
	if math.IsNaN(value) || value < 0 || value > 100 {
		return Threshold{}, ErrInvalidThreshold
	}
	if value == 0 {
		return NoThreshold(), nil
	}
	return Threshold{value: value, enabled: true}, nil
}

// MustThreshold creates a new Threshold, panicking if invalid.
// Use only when the value is known to be valid at compile time.
func MustThreshold(value float64) Threshold {
	t, err := NewThreshold(value)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseThreshold reads a threshold from configuration text. Empty,
// non-numeric and out-of-range input yields NoThreshold; the second return
// value reports whether the input was usable.
func ParseThreshold(raw string) (Threshold, bool) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	if trimmed == "" {
		return NoThreshold(), true
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return NoThreshold(), false
	}
	t, err := NewThreshold(v)
	if err != nil {
		return NoThreshold(), false
	}
	return t, true
}

// Enabled reports whether the threshold imposes a requirement.
func (t Threshold) Enabled() bool {
	return t.enabled
}

// Value returns the threshold percentage value, 0 when not enforced.
func (t Threshold) Value() float64 {
	return t.value
}

// IsMet returns true if the given unrounded coverage percentage meets this
// threshold. A disabled threshold is met by anything.
func (t Threshold) IsMet(coveragePercent float64) bool {
	if !t.enabled {
		return true
	}
	return coveragePercent >= t.value
}

// Shortfall returns how many percentage points below the threshold the coverage is.
// Returns 0 if the threshold is met.
func (t Threshold) Shortfall(coveragePercent float64) float64 {
	if t.IsMet(coveragePercent) {
		return 0
	}
	return Round1(t.value - coveragePercent)
}

// String returns a formatted string representation.
func (t Threshold) String() string {
	if !t.enabled {
		return "none"
	}
	return fmt.Sprintf("%.1f%%", t.value)
}

// Equals returns true if two thresholds are the same requirement.
func (t Threshold) Equals(other Threshold) bool {
	return t == other
}

// Ptr returns a pointer to the threshold value, nil when not enforced.
func (t Threshold) Ptr() *float64 {
	if !t.enabled {
		return nil
	}
	v := t.value
	return &v
}

// FilePath represents a normalized file path.
// It is a value object that ensures file paths are cleaned and consistent.
type FilePath struct {
	value string
}

// NewFilePath creates a new FilePath value object.
// The path is cleaned and normalized.
func NewFilePath(path string) (FilePath, error) {
	if path == "" {
		return FilePath{}, ErrEmptyFilePath
	}
	cleaned := filepath.Clean(path)
	normalized := filepath.ToSlash(cleaned)
	return FilePath{value: normalized}, nil
}

// String returns the normalized file path string.
func (p FilePath) String() string {
	return p.value
}

// Base returns the last element of the path.
func (p FilePath) Base() string {
	return filepath.Base(filepath.FromSlash(p.value))
}

// Round1 rounds a float64 to one decimal place.
// Only used for display; comparisons always use the unrounded value.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}
