package domain

// Report is everything a renderer needs for one run: the inputs, both
// aggregates and the completed verdict.
type Report struct {
	Title          string
	Policy         Policy
	Records        []FileCoverage
	Changed        PathSet
	AllFiles       *Summary
	ChangedFiles   *Summary
	ChangedRecords []FileCoverage
	Verdict        Verdict
}

// NewReport aggregates the records twice (whole set and changed subset) and
// evaluates both aggregates plus each changed file. Records must already be
// validated and normalized.
func NewReport(title string, policy Policy, records []FileCoverage, changed PathSet) Report {
	changedRecords := changed.Filter(records)
	all := Aggregate(records, AnyPath())
	changedSum := Aggregate(records, changed)
	return Report{
		Title:          title,
		Policy:         policy,
		Records:        records,
		Changed:        changed,
		AllFiles:       all,
		ChangedFiles:   changedSum,
		ChangedRecords: changedRecords,
		Verdict:        Decide(policy, all, changedSum, changedRecords),
	}
}

// Passed reports the overall verdict.
func (r Report) Passed() bool {
	return r.Verdict.Passed
}
