// File: internal/report/html.go
package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/aggregate"
	"github.com/signalerhq/signaler/internal/config"
)

// htmlTemplate renders a single self-contained HTML report. Structure only:
// the markup carries the same tables the markdown reports do, with minimal
// inline styling so the file opens usefully without any asset pipeline.
type htmlTemplate struct {
	scorer *aggregate.Scorer
	cfg    config.ReportConfig
}

func (t *htmlTemplate) Name() string     { return "html" }
func (t *htmlTemplate) Format() Format   { return FormatHTML }
func (t *htmlTemplate) Filename() string { return "report.html" }

type htmlIssueRow struct {
	Title    string
	Severity schemas.Severity
	Category schemas.Category
	Pages    int
	TimeMs   string
	Bytes    string
	Priority string
}

type htmlView struct {
	Metrics schemas.PerformanceMetrics
	Meta    schemas.RunMetadata
	Pages   []schemas.PageAuditResult
	Issues  []htmlIssueRow
}

var htmlBody = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Web Performance Audit</title>
<style>
body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 64rem; }
table { border-collapse: collapse; width: 100%; margin-bottom: 1.5rem; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f4f4f4; }
.severity-critical { color: #b00020; font-weight: bold; }
.severity-high { color: #d2691e; }
</style>
</head>
<body>
<h1>Web Performance Audit</h1>
<p>{{.Metrics.TotalPages}} pages audited, average performance {{printf "%.0f" .Metrics.AveragePerformance}}, {{.Metrics.CriticalIssueCount}} critical issue(s).</p>

<h2>Pages</h2>
<table>
<tr><th>Page</th><th>Device</th><th>Performance</th><th>Accessibility</th><th>Best Practices</th><th>SEO</th></tr>
{{range .Pages}}<tr><td>{{.Path}}</td><td>{{.Device}}</td><td>{{if .Failed}}audit failed{{else}}{{printf "%.0f" .Scores.Performance}}{{end}}</td><td>{{printf "%.0f" .Scores.Accessibility}}</td><td>{{printf "%.0f" .Scores.BestPractices}}</td><td>{{printf "%.0f" .Scores.SEO}}</td></tr>
{{end}}</table>

<h2>Issues by Priority</h2>
<table>
<tr><th>Issue</th><th>Severity</th><th>Category</th><th>Pages</th><th>Time Savings</th><th>Byte Savings</th><th>Priority</th></tr>
{{range .Issues}}<tr><td>{{.Title}}</td><td class="severity-{{.Severity}}">{{.Severity}}</td><td>{{.Category}}</td><td>{{.Pages}}</td><td>{{.TimeMs}}</td><td>{{.Bytes}}</td><td>{{.Priority}}</td></tr>
{{end}}</table>
</body>
</html>
`))

func (t *htmlTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	sorted := t.scorer.TopIssues(data.AllIssues, 0)
	rows := make([]htmlIssueRow, 0, len(sorted))
	for i := range sorted {
		issue := &sorted[i]
		rows = append(rows, htmlIssueRow{
			Title:    issue.Title,
			Severity: issue.Severity,
			Category: issue.Category,
			Pages:    issue.PageCount(),
			TimeMs:   fmtMs(issue.TotalSavings.TimeMs),
			Bytes:    fmtBytes(issue.TotalSavings.Bytes),
			Priority: fmt.Sprintf("%.1f", t.scorer.IssuePriority(issue)),
		})
	}

	var buf bytes.Buffer
	if err := htmlBody.Execute(&buf, htmlView{
		Metrics: data.Metrics,
		Meta:    data.Meta,
		Pages:   data.Pages,
		Issues:  rows,
	}); err != nil {
		return nil, fmt.Errorf("failed to render html report: %w", err)
	}
	return buf.Bytes(), nil
}
