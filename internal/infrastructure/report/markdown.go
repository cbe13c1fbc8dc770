package report

import (
	"fmt"
	"strings"

	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

const (
	// GlyphPass marks a passing file, aggregate or run.
	GlyphPass = "✅"
	// GlyphFail marks a failing file, aggregate or run.
	GlyphFail = "❌"

	markerName    = "lcovreport"
	headerLiteral = "### Coverage Report"
	notAvailable  = "N/A"
)

// PercentageCell renders a counter as "hit/found (p.p%)", or N/A when there
// is nothing to cover.
func PercentageCell(c domain.Counter) string {
	if c.Found == 0 {
		return notAvailable
	}
	return fmt.Sprintf("%d/%d (%.1f%%)", c.Hit, c.Found, c.Percent())
}

// PassGlyph returns the glyph for a pass/fail outcome.
func PassGlyph(passed bool) string {
	if passed {
		return GlyphPass
	}
	return GlyphFail
}

// OverallSection renders one aggregate. A nil summary renders as a single
// N/A line; both forms end with a blank separator line.
func OverallSection(summary *domain.Summary, min domain.Threshold, passed bool) string {
	if summary == nil {
		return notAvailable + "\n\n"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "- Lines: %s %s %s\n", PercentageCell(summary.Lines), PassGlyph(passed), minimumNote(min))
	fmt.Fprintf(&b, "- Functions: %s\n", PercentageCell(summary.Functions))
	fmt.Fprintf(&b, "- Branches: %s\n", PercentageCell(summary.Branches))
	b.WriteString("\n")
	return b.String()
}

func minimumNote(min domain.Threshold) string {
	if !min.Enabled() {
		return "(no minimum)"
	}
	return fmt.Sprintf("(minimum %s)", min)
}

// FileTable renders one row per record matched by filter. It returns the
// empty string when nothing matches so the section disappears entirely.
func FileTable(records []domain.FileCoverage, filter domain.PathSet, min domain.Threshold) string {
	rows := filter.Filter(records)
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	if min.Enabled() {
		fmt.Fprintf(&b, "Minimum coverage per changed file: %s\n\n", min)
	}
	b.WriteString("| File | Lines | Functions | Branches | Status |\n")
	b.WriteString("| :--- | ---: | ---: | ---: | :---: |\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
			escapeCell(r.Base()),
			PercentageCell(r.Lines),
			PercentageCell(r.Functions),
			PercentageCell(r.Branches),
			PassGlyph(min.IsMet(r.Lines.Percent())),
		)
	}
	return b.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// CommentIdentity returns the hidden marker the comment poster searches for.
// It must stay byte-identical for a given title across runs.
func CommentIdentity(title string) string {
	if title == "" {
		return fmt.Sprintf("<!-- %s -->\n", markerName)
	}
	safe := strings.ReplaceAll(title, "\n", " ")
	for strings.Contains(safe, "--") {
		safe = strings.ReplaceAll(safe, "--", "- -")
	}
	return fmt.Sprintf("<!-- %s: %s -->\n", markerName, safe)
}

// Header returns the report heading carrying the overall verdict.
func Header(title string, passed bool) string {
	if title == "" {
		return fmt.Sprintf("%s %s\n", headerLiteral, PassGlyph(passed))
	}
	return fmt.Sprintf("%s: %s %s\n", headerLiteral, title, PassGlyph(passed))
}

// Markdown renders the complete report document. Section order is fixed:
// identity marker, header, all files, changed files, changed-file table.
func Markdown(r domain.Report) string {
	var b strings.Builder
	b.WriteString(CommentIdentity(r.Title))
	b.WriteString(Header(r.Title, r.Verdict.Passed))
	b.WriteString("\n#### All Files\n\n")
	b.WriteString(OverallSection(r.AllFiles, r.Policy.AllFilesMin, r.Verdict.AllFiles.Passed))
	b.WriteString("#### Changed Files\n\n")
	b.WriteString(OverallSection(r.ChangedFiles, r.Policy.ChangedFilesMin, r.Verdict.ChangedFiles.Passed))
	b.WriteString(FileTable(r.Records, r.Changed, r.Policy.ChangedFilesMin))
	return b.String()
}
