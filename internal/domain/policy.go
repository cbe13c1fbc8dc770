package domain

// Status is the outcome of a threshold evaluation.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// StatusOf maps a pass/fail boolean to a Status.
func StatusOf(passed bool) Status {
	if passed {
		return StatusPass
	}
	return StatusFail
}

// Evaluation is the threshold result for one file or aggregate.
type Evaluation struct {
	Identifier string  `json:"identifier"`
	Coverage   float64 `json:"coverage"`
	Required   float64 `json:"required,omitempty"`
	NoData     bool    `json:"noData,omitempty"`
	Passed     bool    `json:"passed"`
}

// Status returns the evaluation outcome as a Status.
func (e Evaluation) Status() Status {
	return StatusOf(e.Passed)
}

// Shortfall returns how many percentage points below the requirement this is.
func (e Evaluation) Shortfall() float64 {
	if e.Coverage >= e.Required {
		return 0
	}
	return Round1(e.Required - e.Coverage)
}

// EvaluateSummary evaluates the line coverage of an aggregate.
// A nil summary has coverage 0 and never passes, whatever the minimum.
func EvaluateSummary(identifier string, summary *Summary, min Threshold) Evaluation {
	eval := Evaluation{Identifier: identifier, Required: min.Value()}
	if summary == nil {
		eval.NoData = true
		return eval
	}
	eval.Coverage = summary.Lines.Percent()
	eval.Passed = min.IsMet(eval.Coverage)
	return eval
}

// EvaluateFile evaluates the line coverage of a single record.
func EvaluateFile(record FileCoverage, min Threshold) Evaluation {
	coverage := record.Lines.Percent()
	return Evaluation{
		Identifier: record.Path,
		Coverage:   coverage,
		Required:   min.Value(),
		Passed:     min.IsMet(coverage),
	}
}

// EvaluateFiles evaluates every record in order.
func EvaluateFiles(records []FileCoverage, min Threshold) []Evaluation {
	evals := make([]Evaluation, 0, len(records))
	for _, r := range records {
		evals = append(evals, EvaluateFile(r, min))
	}
	return evals
}

// AllFilesPass reports whether every record meets min. It is vacuously true
// for an empty set or a disabled minimum.
func AllFilesPass(records []FileCoverage, min Threshold) bool {
	if !min.Enabled() {
		return true
	}
	for _, r := range records {
		if !min.IsMet(r.Lines.Percent()) {
			return false
		}
	}
	return true
}

// Policy holds the two configured minimums.
type Policy struct {
	AllFilesMin     Threshold
	ChangedFilesMin Threshold
}

// Verdict is the complete evaluation of one run.
type Verdict struct {
	AllFiles         Evaluation   `json:"allFiles"`
	ChangedFiles     Evaluation   `json:"changedFiles"`
	Files            []Evaluation `json:"files,omitempty"`
	ChangedFilesPass bool         `json:"changedFilesPass"`
	Passed           bool         `json:"passed"`
}

// Decide evaluates both aggregates and the individual changed files.
// Missing changed-file data satisfies the changed-files requirement; it is
// only the all-files aggregate that can never pass without data.
func Decide(policy Policy, all, changed *Summary, changedRecords []FileCoverage) Verdict {
	v := Verdict{
		AllFiles:     EvaluateSummary("All Files", all, policy.AllFilesMin),
		ChangedFiles: EvaluateSummary("Changed Files", changed, policy.ChangedFilesMin),
		Files:        EvaluateFiles(changedRecords, policy.ChangedFilesMin),
	}
	eachPassed := AllFilesPass(changedRecords, policy.ChangedFilesMin)
	v.ChangedFilesPass = changed == nil || (v.ChangedFiles.Passed && eachPassed)
	v.Passed = v.AllFiles.Passed && v.ChangedFilesPass
	return v
}

// FailingFiles returns the per-file evaluations that did not pass.
func (v Verdict) FailingFiles() []Evaluation {
	var failing []Evaluation
	for _, f := range v.Files {
		if !f.Passed {
			failing = append(failing, f)
		}
	}
	return failing
}

// Summary returns a brief summary of the verdict.
func (v Verdict) Summary() string {
	if v.Passed {
		return "All coverage thresholds met"
	}
	return "Coverage thresholds not met"
}
