// Package report renders the per-run score report as a self-contained HTML
// document with a plain-text alternative.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"
)

// Row is one category line of a page table.
type Row struct {
	Category    string
	Current     int
	Previous    int
	HasPrevious bool
	Delta       int
	Triggered   bool
}

// Page is one monitored URL's slice of the report. Err is the fetch failure
// reason; when set, Rows is empty and the page renders as "no data this run".
type Page struct {
	URL      string
	Err      string
	Baseline bool
	Rows     []Row
}

type alertLine struct {
	URL string
	Row
}

type reportData struct {
	GeneratedAt string
	Pages       []Page
	Alerts      []alertLine
}

var funcs = template.FuncMap{
	"badgeClass":  badgeClass,
	"changeClass": changeClass,
	"changeLabel": changeLabel,
	"plusMinus":   plusMinus,
}

// Score badge buckets follow the Lighthouse report: 90 and up is good,
// 50 and up needs improvement, below 50 is poor.
func badgeClass(score int) string {
	switch {
	case score >= 90:
		return "good"
	case score >= 50:
		return "ok"
	default:
		return "bad"
	}
}

// changeClass marks improvements green, regressions at or beyond the alert
// threshold red, and everything else neutral.
func changeClass(r Row) string {
	switch {
	case !r.HasPrevious:
		return "no-change"
	case r.Delta > 0:
		return "improved"
	case r.Delta < 0 && r.Triggered:
		return "declined"
	default:
		return "no-change"
	}
}

func changeLabel(r Row) string {
	switch {
	case !r.HasPrevious:
		return "new"
	case r.Delta > 0:
		return fmt.Sprintf("up %d", r.Delta)
	case r.Delta < 0:
		return fmt.Sprintf("down %d", -r.Delta)
	default:
		return "no change"
	}
}

func plusMinus(delta int) string {
	return fmt.Sprintf("%+d", delta)
}

var htmlTemplate = template.Must(template.New("report").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
  body { font-family: Helvetica, Arial, sans-serif; color: #222; margin: 24px; }
  h1 { font-size: 20px; }
  h2 { font-size: 16px; margin-bottom: 4px; }
  .meta { color: #666; font-size: 12px; }
  .alerts { border: 2px solid #d33; border-radius: 4px; padding: 8px 16px; margin: 16px 0; }
  .alerts h2 { color: #d33; }
  table { border-collapse: collapse; margin: 8px 0 24px; }
  th, td { border: 1px solid #ddd; padding: 6px 12px; text-align: left; font-size: 14px; }
  th { background: #f5f5f5; }
  .score-badge { display: inline-block; min-width: 28px; padding: 2px 8px; border-radius: 10px; color: #fff; text-align: center; }
  .score-badge.good { background: #0a7d33; }
  .score-badge.ok { background: #d98100; }
  .score-badge.bad { background: #cc0000; }
  .improved { color: #0a7d33; }
  .declined { color: #cc0000; font-weight: bold; }
  .no-change { color: #666; }
  .fetch-error { color: #cc0000; }
  .baseline { color: #666; font-size: 13px; }
</style>
</head>
<body>
<h1>Lighthouse Score Report</h1>
<p class="meta">Generated {{.GeneratedAt}}</p>
{{if .Alerts}}<div class="alerts">
<h2>{{len .Alerts}} alert(s) beyond threshold</h2>
<ul>
{{range .Alerts}}<li><strong>{{.URL}}</strong> {{.Category}}: {{.Previous}} to {{.Current}} ({{plusMinus .Delta}})</li>
{{end}}</ul>
</div>
{{end}}{{range .Pages}}<h2>{{.URL}}</h2>
{{if .Err}}<p class="fetch-error">No data this run: {{.Err}}</p>
{{else}}<table>
<tr><th>Category</th><th>Score</th><th>Previous</th><th>Change</th></tr>
{{range .Rows}}<tr>
<td>{{.Category}}</td>
<td><span class="score-badge {{badgeClass .Current}}">{{.Current}}</span></td>
<td>{{if .HasPrevious}}{{.Previous}}{{else}}none{{end}}</td>
<td class="{{changeClass .}}">{{changeLabel .}}</td>
</tr>
{{end}}</table>
{{if .Baseline}}<p class="baseline">First measurement for this URL; changes will appear on the next run.</p>
{{end}}{{end}}{{end}}</body>
</html>
`))

// Render produces the HTML report for one run. Pages are rendered in the
// order given, which is the configured URL order.
func Render(pages []Page, generatedAt time.Time) (string, error) {
	data := reportData{
		GeneratedAt: generatedAt.Format("2006-01-02 15:04 MST"),
		Pages:       pages,
		Alerts:      collectAlerts(pages),
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}
	return buf.String(), nil
}

// RenderText produces the plain-text alternative body.
func RenderText(pages []Page, generatedAt time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Lighthouse Score Report\nGenerated %s\n", generatedAt.Format("2006-01-02 15:04 MST"))

	alerts := collectAlerts(pages)
	if len(alerts) > 0 {
		fmt.Fprintf(&b, "\nALERTS (%d):\n", len(alerts))
		for _, a := range alerts {
			fmt.Fprintf(&b, "  %s %s: %d to %d (%+d)\n", a.URL, a.Category, a.Previous, a.Current, a.Delta)
		}
	}

	for _, page := range pages {
		fmt.Fprintf(&b, "\n%s\n", page.URL)
		if page.Err != "" {
			fmt.Fprintf(&b, "  no data this run: %s\n", page.Err)
			continue
		}
		for _, r := range page.Rows {
			if r.HasPrevious {
				fmt.Fprintf(&b, "  %-15s %3d (prev %d, %s)\n", r.Category, r.Current, r.Previous, changeLabel(r))
			} else {
				fmt.Fprintf(&b, "  %-15s %3d (no previous)\n", r.Category, r.Current)
			}
		}
		if page.Baseline {
			b.WriteString("  first measurement for this URL\n")
		}
	}

	return b.String()
}

// Subject returns the email subject for a run, varying with alert state.
func Subject(alertCount int) string {
	if alertCount > 0 {
		return fmt.Sprintf("Lighthouse alert: %d score change(s) beyond threshold", alertCount)
	}
	return "Lighthouse report: no significant score changes"
}

func collectAlerts(pages []Page) []alertLine {
	var alerts []alertLine
	for _, page := range pages {
		for _, r := range page.Rows {
			if r.Triggered {
				alerts = append(alerts, alertLine{URL: page.URL, Row: r})
			}
		}
	}
	return alerts
}
