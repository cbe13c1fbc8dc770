// Package badge renders shields-style SVG coverage badges.
package badge

import (
	"fmt"
	"html/template"
	"io"

	"github.com/felixgeelhaar/lcovreport/internal/domain"
)

type Style string

const (
	StyleFlat       Style = "flat"
	StyleFlatSquare Style = "flat-square"
)

const (
	colorPass    = "#4c1"
	colorFail    = "#e05d44"
	colorUnknown = "#9f9f9f"
)

// Options describes one badge. A nil Percent renders as "unknown".
type Options struct {
	Label   string
	Percent *float64
	// Minimum, when enabled, decides the colour: green when met, red otherwise.
	// Without it the colour follows fixed bands.
	Minimum domain.Threshold
	Style   Style
}

// FromReport builds the badge for a report's all-files line coverage.
func FromReport(r domain.Report) Options {
	opts := Options{Label: "coverage", Minimum: r.Policy.AllFilesMin}
	if r.AllFiles != nil {
		p := r.AllFiles.Lines.Percent()
		opts.Percent = &p
	}
	return opts
}

const svgTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="20" role="img" aria-label="{{.Label}}: {{.Value}}">
  <title>{{.Label}}: {{.Value}}</title>
  <linearGradient id="s" x2="0" y2="100%">
    <stop offset="0" stop-color="#bbb" stop-opacity=".1"/>
    <stop offset="1" stop-opacity=".1"/>
  </linearGradient>
  <clipPath id="r">
    <rect width="{{.Width}}" height="20" rx="{{.Rx}}" fill="#fff"/>
  </clipPath>
  <g clip-path="url(#r)">
    <rect width="{{.LabelWidth}}" height="20" fill="#555"/>
    <rect x="{{.LabelWidth}}" width="{{.ValueWidth}}" height="20" fill="{{.Color}}"/>
    <rect width="{{.Width}}" height="20" fill="url(#s)"/>
  </g>
  <g fill="#fff" text-anchor="middle" font-family="Verdana,Geneva,DejaVu Sans,sans-serif" text-rendering="geometricPrecision" font-size="110">
    <text aria-hidden="true" x="{{.LabelX}}" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)">{{.Label}}</text>
    <text x="{{.LabelX}}" y="140" transform="scale(.1)" fill="#fff">{{.Label}}</text>
    <text aria-hidden="true" x="{{.ValueX}}" y="150" fill="#010101" fill-opacity=".3" transform="scale(.1)">{{.Value}}</text>
    <text x="{{.ValueX}}" y="140" transform="scale(.1)" fill="#fff">{{.Value}}</text>
  </g>
</svg>`

var svgTmpl = template.Must(template.New("badge").Parse(svgTemplate))

type templateData struct {
	Label      string
	Value      string
	Color      string
	Width      int
	LabelWidth int
	ValueWidth int
	LabelX     int
	ValueX     int
	Rx         int
}

// Generate writes the SVG for opts.
func Generate(w io.Writer, opts Options) error {
	if opts.Style == "" {
		opts.Style = StyleFlat
	}
	if opts.Label == "" {
		opts.Label = "coverage"
	}

	value := "unknown"
	color := colorUnknown
	if opts.Percent != nil {
		value = formatPercent(*opts.Percent)
		color = colorFor(*opts.Percent, opts.Minimum)
	}

	// ~7px per glyph at 11px Verdana plus padding
	labelWidth := len(opts.Label)*7 + 10
	valueWidth := len(value)*7 + 10

	rx := 3
	if opts.Style == StyleFlatSquare {
		rx = 0
	}

	data := templateData{
		Label:      opts.Label,
		Value:      value,
		Color:      color,
		Width:      labelWidth + valueWidth,
		LabelWidth: labelWidth,
		ValueWidth: valueWidth,
		LabelX:     labelWidth * 5,
		ValueX:     (labelWidth*2 + valueWidth) * 5,
		Rx:         rx,
	}
	if err := svgTmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render badge: %w", err)
	}
	return nil
}

func formatPercent(p float64) string {
	r := domain.Round1(p)
	if r == float64(int(r)) {
		return fmt.Sprintf("%.0f%%", r)
	}
	return fmt.Sprintf("%.1f%%", r)
}

func colorFor(p float64, min domain.Threshold) string {
	if min.Enabled() {
		if min.IsMet(p) {
			return colorPass
		}
		return colorFail
	}
	switch {
	case p >= 90:
		return colorPass
	case p >= 75:
		return "#97ca00"
	case p >= 60:
		return "#dfb317"
	default:
		return colorFail
	}
}

// Writer renders the all-files badge for a report.
type Writer struct {
	Style Style
}

func (w Writer) WriteBadge(out io.Writer, r domain.Report) error {
	opts := FromReport(r)
	opts.Style = w.Style
	return Generate(out, opts)
}
