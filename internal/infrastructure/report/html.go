package report

import (
	"html/template"
	"io"
	"time"

	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{if .Title}}{{.Title}} - {{end}}Coverage Report</title>
    <style>
        :root { --pass: #16A34A; --fail: #DC2626; --bg: #0f172a; --card: #1e293b; --text: #f8fafc; --muted: #94a3b8; --border: #334155; }
        * { box-sizing: border-box; margin: 0; padding: 0; }
        body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: var(--bg); color: var(--text); line-height: 1.6; padding: 2rem; }
        .container { max-width: 1200px; margin: 0 auto; }
        h1 { font-size: 2rem; margin-bottom: 0.5rem; font-weight: 600; }
        .timestamp { color: var(--muted); font-size: 0.875rem; margin-bottom: 2rem; }
        .summary { display: flex; gap: 1rem; margin-bottom: 2rem; flex-wrap: wrap; }
        .summary-card { background: var(--card); border-radius: 0.5rem; padding: 1rem 1.5rem; border: 1px solid var(--border); }
        .summary-card.pass { border-left: 4px solid var(--pass); }
        .summary-card.fail { border-left: 4px solid var(--fail); }
        .summary-label { font-size: 0.75rem; text-transform: uppercase; color: var(--muted); letter-spacing: 0.05em; }
        .summary-value { font-size: 1.5rem; font-weight: 600; }
        .summary-value.pass { color: var(--pass); }
        .summary-value.fail { color: var(--fail); }
        table { width: 100%; border-collapse: collapse; background: var(--card); border-radius: 0.5rem; overflow: hidden; margin-bottom: 2rem; }
        th, td { padding: 0.75rem 1rem; text-align: left; border-bottom: 1px solid var(--border); }
        th { background: rgba(0,0,0,0.2); font-size: 0.75rem; text-transform: uppercase; color: var(--muted); }
        tr.changed td:first-child { border-left: 3px solid var(--muted); }
        .status { display: inline-block; padding: 0.25rem 0.5rem; border-radius: 0.25rem; font-size: 0.75rem; font-weight: 600; }
        .status.pass { background: rgba(22, 163, 74, 0.2); color: var(--pass); }
        .status.fail { background: rgba(220, 38, 38, 0.2); color: var(--fail); }
        .section-title { font-size: 1.25rem; margin-bottom: 1rem; font-weight: 600; }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{if .Title}}{{.Title}} - {{end}}Coverage Report</h1>
        <p class="timestamp">Generated {{.Timestamp}}</p>

        <div class="summary">
            <div class="summary-card {{if .Verdict.Passed}}pass{{else}}fail{{end}}">
                <div class="summary-label">Status</div>
                <div class="summary-value {{if .Verdict.Passed}}pass{{else}}fail{{end}}">{{if .Verdict.Passed}}PASS{{else}}FAIL{{end}}</div>
            </div>
            <div class="summary-card {{if .Verdict.AllFiles.Passed}}pass{{else}}fail{{end}}">
                <div class="summary-label">All Files (min {{.Policy.AllFilesMin}})</div>
                <div class="summary-value">{{if .AllFiles}}{{cell .AllFiles.Lines}}{{else}}N/A{{end}}</div>
            </div>
            <div class="summary-card {{if .Verdict.ChangedFilesPass}}pass{{else}}fail{{end}}">
                <div class="summary-label">Changed Files (min {{.Policy.ChangedFilesMin}})</div>
                <div class="summary-value">{{if .ChangedFiles}}{{cell .ChangedFiles.Lines}}{{else}}N/A{{end}}</div>
            </div>
        </div>

        {{if .Rows}}
        <h2 class="section-title">Files</h2>
        <table>
            <thead>
                <tr>
                    <th>File</th>
                    <th>Lines</th>
                    <th>Functions</th>
                    <th>Branches</th>
                    <th>Status</th>
                </tr>
            </thead>
            <tbody>
                {{range .Rows}}
                <tr{{if .Changed}} class="changed"{{end}}>
                    <td>{{.Path}}</td>
                    <td>{{cell .Lines}}</td>
                    <td>{{cell .Functions}}</td>
                    <td>{{cell .Branches}}</td>
                    <td>{{if .Changed}}<span class="status {{if .Passed}}pass{{else}}fail{{end}}">{{if .Passed}}PASS{{else}}FAIL{{end}}</span>{{end}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}
    </div>
</body>
</html>`

var htmlTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"cell": PercentageCell,
}).Parse(htmlTemplate))

type htmlRow struct {
	domain.FileCoverage
	Changed bool
	Passed  bool
}

type htmlData struct {
	domain.Report
	Rows      []htmlRow
	Timestamp string
}

// WriteHTML renders the standalone HTML report bundled into the artifact.
// Every file is listed; changed files additionally carry their status.
func WriteHTML(w io.Writer, r domain.Report, generated time.Time) error {
	rows := make([]htmlRow, 0, len(r.Records))
	for _, rec := range r.Records {
		rows = append(rows, htmlRow{
			FileCoverage: rec,
			Changed:      r.Changed.Contains(rec.Path),
			Passed:       r.Policy.ChangedFilesMin.IsMet(rec.Lines.Percent()),
		})
	}
	data := htmlData{
		Report:    r,
		Rows:      rows,
		Timestamp: generated.UTC().Format("2006-01-02 15:04:05 MST"),
	}
	return htmlTmpl.Execute(w, data)
}
