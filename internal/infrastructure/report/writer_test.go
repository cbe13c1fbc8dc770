package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/felixgeelhaar/lcovreport/internal/application"
	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

func sampleReport(changed ...string) domain.Report {
	policy := domain.Policy{AllFilesMin: domain.MustThreshold(50), ChangedFilesMin: domain.MustThreshold(75)}
	records := []domain.FileCoverage{
		file("/repo/src/a.ts", 100, 90),
		file("/repo/src/b.ts", 100, 40),
	}
	return domain.NewReport("api", policy, records, domain.NewPathSet(changed...))
}

func TestWriteText(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := (Writer{}).Write(buf, sampleReport("/repo/src/a.ts"), application.OutputText); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "All files") || !strings.Contains(out, "Changed files") {
		t.Fatalf("expected both scopes, got:\n%s", out)
	}
	if !strings.Contains(out, "130/200 (65.0%)") {
		t.Fatalf("expected all-files cell, got:\n%s", out)
	}
	if !strings.Contains(out, "All coverage thresholds met") {
		t.Fatalf("expected passing summary, got:\n%s", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no colour codes for a non-terminal writer")
	}
}

func TestWriteTextFailingFiles(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := (Writer{}).Write(buf, sampleReport("/repo/src/b.ts"), application.OutputText); err != nil {
		t.Fatalf("write: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "Changed files below minimum:") {
		t.Fatalf("expected failing files section, got:\n%s", out)
	}
	if !strings.Contains(out, "/repo/src/b.ts") || !strings.Contains(out, "-35.0%") {
		t.Fatalf("expected shortfall for b.ts, got:\n%s", out)
	}
	if !strings.Contains(out, "Coverage thresholds not met") {
		t.Fatalf("expected failing summary")
	}
}

func TestWriteTextNoChangedData(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := (Writer{}).Write(buf, sampleReport(), ""); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.Contains(buf.String(), "N/A") {
		t.Fatalf("expected N/A for changed files")
	}
}

func TestWriteJSON(t *testing.T) {
	buf := new(bytes.Buffer)
	if err := (Writer{}).Write(buf, sampleReport("/repo/src/b.ts"), application.OutputJSON); err != nil {
		t.Fatalf("write: %v", err)
	}
	var decoded struct {
		Title   string `json:"title"`
		Records int    `json:"records"`
		Verdict struct {
			Passed bool `json:"passed"`
		} `json:"verdict"`
		Thresholds map[string]*float64 `json:"thresholds"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Title != "api" || decoded.Records != 2 || decoded.Verdict.Passed {
		t.Fatalf("unexpected payload: %+v", decoded)
	}
	if decoded.Thresholds["changedFiles"] == nil || *decoded.Thresholds["changedFiles"] != 75 {
		t.Fatalf("expected changed-files threshold 75, got %v", decoded.Thresholds)
	}
}

func TestWriteMarkdown(t *testing.T) {
	r := sampleReport("/repo/src/a.ts")
	buf := new(bytes.Buffer)
	if err := (Writer{}).Write(buf, r, application.OutputMarkdown); err != nil {
		t.Fatalf("write: %v", err)
	}
	if buf.String() != Markdown(r) {
		t.Fatalf("expected markdown document verbatim")
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	if err := (Writer{}).Write(new(bytes.Buffer), sampleReport(), "xml"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
