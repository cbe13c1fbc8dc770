package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

// Writer writes the run summary to the console.
type Writer struct{}

var _ application.Reporter = Writer{}

func (Writer) Write(w io.Writer, r domain.Report, format application.OutputFormat) error {
	switch format {
	case application.OutputJSON:
		return writeJSON(w, r)
	case application.OutputMarkdown:
		_, err := io.WriteString(w, Markdown(r))
		return err
	case application.OutputText, "":
		return writeText(w, r)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

type jsonSummary struct {
	Title        string          `json:"title,omitempty"`
	AllFiles     *domain.Summary `json:"allFiles"`
	ChangedFiles *domain.Summary `json:"changedFiles"`
	Verdict      domain.Verdict  `json:"verdict"`
	Thresholds   map[string]any  `json:"thresholds"`
	Records      int             `json:"records"`
}

func writeJSON(w io.Writer, r domain.Report) error {
	payload := jsonSummary{
		Title:        r.Title,
		AllFiles:     r.AllFiles,
		ChangedFiles: r.ChangedFiles,
		Verdict:      r.Verdict,
		Thresholds: map[string]any{
			"allFiles":     r.Policy.AllFilesMin.Ptr(),
			"changedFiles": r.Policy.ChangedFilesMin.Ptr(),
		},
		Records: len(r.Records),
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func writeText(w io.Writer, r domain.Report) error {
	colorize := colorEnabled(w)
	passStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A")).Bold(true)
	failStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	status := func(passed bool) string {
		s := string(domain.StatusOf(passed))
		if !colorize {
			return s
		}
		if passed {
			return passStyle.Render(s)
		}
		return failStyle.Render(s)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "Scope\tLines\tFunctions\tBranches\tRequired\tStatus")
	rows := []struct {
		name    string
		summary *domain.Summary
		min     domain.Threshold
		passed  bool
	}{
		{"All files", r.AllFiles, r.Policy.AllFilesMin, r.Verdict.AllFiles.Passed},
		{"Changed files", r.ChangedFiles, r.Policy.ChangedFilesMin, r.Verdict.ChangedFilesPass},
	}
	for _, row := range rows {
		if row.summary == nil {
			_, _ = fmt.Fprintf(tw, "%s\tN/A\tN/A\tN/A\t%s\t%s\n", row.name, row.min, status(row.passed))
			continue
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", row.name,
			PercentageCell(row.summary.Lines),
			PercentageCell(row.summary.Functions),
			PercentageCell(row.summary.Branches),
			row.min, status(row.passed))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if failing := r.Verdict.FailingFiles(); len(failing) > 0 {
		fmt.Fprintln(w, "\nChanged files below minimum:")
		ftw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for _, f := range failing {
			_, _ = fmt.Fprintf(ftw, "  %s\t%.1f%%\t-%.1f%%\n", f.Identifier, f.Coverage, f.Shortfall())
		}
		if err := ftw.Flush(); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "\n%s\n", r.Verdict.Summary())
	return nil
}

func colorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(file.Fd()) || isatty.IsCygwinTerminal(file.Fd())
}
