package domain

// PathSet is an exact-match filter over normalized file paths.
// The zero value matches nothing; AnyPath matches every path.
type PathSet struct {
	paths map[string]struct{}
	any   bool
}

// AnyPath returns a PathSet that matches all records.
func AnyPath() PathSet {
	return PathSet{any: true}
}

// NewPathSet builds a PathSet from the given paths.
func NewPathSet(paths ...string) PathSet {
	set := PathSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		set.paths[p] = struct{}{}
	}
	return set
}

// Contains reports whether path is a member of the set.
func (s PathSet) Contains(path string) bool {
	if s.any {
		return true
	}
	_, ok := s.paths[path]
	return ok
}

// Len returns the number of explicit paths in the set.
func (s PathSet) Len() int {
	return len(s.paths)
}

// Filter returns the records whose path is in the set, in input order.
// The input slice is never modified.
func (s PathSet) Filter(records []FileCoverage) []FileCoverage {
	out := make([]FileCoverage, 0, len(records))
	for _, r := range records {
		if s.Contains(r.Path) {
			out = append(out, r)
		}
	}
	return out
}

// Aggregate sums the counters of every record matched by filter.
// It returns nil when no record matches, which callers must treat as
// "no data" rather than zero coverage.
func Aggregate(records []FileCoverage, filter PathSet) *Summary {
	var (
		sum     Summary
		matched bool
	)
	for _, r := range records {
		if !filter.Contains(r.Path) {
			continue
		}
		sum = sum.Add(r)
		matched = true
	}
	if !matched {
		return nil
	}
	return &sum
}
