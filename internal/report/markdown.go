// File: internal/report/markdown.go
package report

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/aggregate"
	"github.com/signalerhq/signaler/internal/config"
	"github.com/signalerhq/signaler/internal/history"
)

// -- Formatting helpers shared by the markdown templates --

func fmtMs(ms float64) string {
	if ms >= 1000 {
		return fmt.Sprintf("%.1fs", ms/1000)
	}
	return fmt.Sprintf("%.0fms", ms)
}

func fmtBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%dB", b)
	}
}

func fmtScore(s float64) string {
	return strconv.Itoa(int(s + 0.5))
}

func severityBadge(s schemas.Severity) string {
	switch s {
	case schemas.SeverityCritical:
		return "🔴 Critical"
	case schemas.SeverityHigh:
		return "🟠 High"
	case schemas.SeverityMedium:
		return "🟡 Medium"
	default:
		return "🔵 Low"
	}
}

func pageLabel(p schemas.AffectedPage) string {
	return fmt.Sprintf("%s (%s)", p.Path, p.Device)
}

// writeRunHeader emits the shared run-information table.
func writeRunHeader(md *markdown.Markdown, title string, data *schemas.ProcessedAuditData) {
	md.H1(title)
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Pages Audited", strconv.Itoa(data.Metrics.TotalPages)},
			{"Average Performance", fmtScore(data.Metrics.AveragePerformance)},
			{"Critical Issues", strconv.Itoa(data.Metrics.CriticalIssueCount)},
			{"Estimated Savings", fmtMs(data.Metrics.EstimatedSavingsMs)},
			{"Run Duration", fmtMs(float64(data.Meta.ElapsedMs))},
		},
	})
	md.PlainText("")
}

// -- summary: the default human-readable report --

type summaryTemplate struct {
	scorer *aggregate.Scorer
	cfg    config.ReportConfig
}

func (t *summaryTemplate) Name() string     { return "summary" }
func (t *summaryTemplate) Format() Format   { return FormatMarkdown }
func (t *summaryTemplate) Filename() string { return "report.md" }

func (t *summaryTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	writeRunHeader(md, "Web Performance Audit", data)

	switch {
	case data.Metrics.CriticalIssueCount > 0:
		md.Cautionf("%d critical issue(s) require immediate attention.", data.Metrics.CriticalIssueCount)
	case len(data.AllIssues) > 0:
		md.Note(fmt.Sprintf("%d issue type(s) detected across the audited pages.", len(data.AllIssues)))
	default:
		md.Tip("No issues detected. Nice work.")
	}
	md.PlainText("")

	md.H2("Scores by Page")
	md.PlainText("")
	rows := make([][]string, 0, len(data.Pages))
	for i := range data.Pages {
		p := &data.Pages[i]
		status := fmtScore(p.Scores.Performance)
		if p.Failed {
			status = "audit failed"
		}
		rows = append(rows, []string{
			p.Path, string(p.Device), status,
			fmtScore(p.Scores.Accessibility), fmtScore(p.Scores.BestPractices), fmtScore(p.Scores.SEO),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Device", "Performance", "Accessibility", "Best Practices", "SEO"},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Top Issues")
	md.PlainText("")
	top := t.scorer.TopIssues(data.AllIssues, t.cfg.TopIssues)
	if len(top) == 0 {
		md.PlainText("No issues to report.")
	} else {
		rows = rows[:0]
		for i := range top {
			issue := &top[i]
			rows = append(rows, []string{
				issue.Title,
				severityBadge(issue.Severity),
				string(issue.Category),
				strconv.Itoa(issue.PageCount()),
				fmtMs(issue.TotalSavings.TimeMs),
				fmtBytes(issue.TotalSavings.Bytes),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"Issue", "Severity", "Category", "Pages", "Time Savings", "Byte Savings"},
			Rows:   rows,
		})
	}
	md.PlainText("")

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to build summary report: %w", err)
	}
	return buf.Bytes(), nil
}

// -- quick-fixes: ranked issues with their fix recommendations --

type quickFixesTemplate struct {
	scorer *aggregate.Scorer
	cfg    config.ReportConfig
}

func (t *quickFixesTemplate) Name() string     { return "quick-fixes" }
func (t *quickFixesTemplate) Format() Format   { return FormatMarkdown }
func (t *quickFixesTemplate) Filename() string { return "quick-fixes.md" }

func (t *quickFixesTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	writeRunHeader(md, "Quick Fixes", data)

	top := t.scorer.TopIssues(data.AllIssues, t.cfg.TopIssues)
	if len(top) == 0 {
		md.Tip("Nothing to fix right now.")
		md.PlainText("")
	}

	for i := range top {
		issue := &top[i]
		md.H2(fmt.Sprintf("%d. %s", i+1, issue.Title))
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Severity", "Category", "Pages Affected", "Total Savings", "Average per Page"},
			Rows: [][]string{{
				severityBadge(issue.Severity),
				string(issue.Category),
				strconv.Itoa(issue.PageCount()),
				fmt.Sprintf("%s / %s", fmtMs(issue.TotalSavings.TimeMs), fmtBytes(issue.TotalSavings.Bytes)),
				fmt.Sprintf("%s / %s", fmtMs(issue.AverageSavings.TimeMs), fmtBytes(issue.AverageSavings.Bytes)),
			}},
		})
		md.PlainText("")

		if issue.Description != "" {
			md.PlainText(issue.Description)
			md.PlainText("")
		}

		if len(issue.Recommendations) > 0 {
			md.H3("How to fix")
			md.PlainText("")
			md.BulletList(issue.Recommendations...)
			md.PlainText("")
		}

		pages := make([]string, 0, len(issue.AffectedPages))
		for _, p := range issue.AffectedPages {
			pages = append(pages, fmt.Sprintf("%s — %s", pageLabel(p), fmtMs(p.Savings.TimeMs)))
		}
		md.H3("Affected pages")
		md.PlainText("")
		md.BulletList(pages...)
		md.PlainText("")
	}

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to build quick-fixes report: %w", err)
	}
	return buf.Bytes(), nil
}

// -- triage: critical/high issues grouped by category --

type triageTemplate struct {
	scorer *aggregate.Scorer
	cfg    config.ReportConfig
}

func (t *triageTemplate) Name() string     { return "triage" }
func (t *triageTemplate) Format() Format   { return FormatMarkdown }
func (t *triageTemplate) Filename() string { return "triage.md" }

func (t *triageTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	writeRunHeader(md, "Issue Triage", data)

	urgent := make([]schemas.AggregatedIssue, 0, len(data.AllIssues))
	for i := range data.AllIssues {
		sev := data.AllIssues[i].Severity
		if sev == schemas.SeverityCritical || sev == schemas.SeverityHigh {
			urgent = append(urgent, data.AllIssues[i])
		}
	}
	t.scorer.SortByPriority(urgent)

	if len(urgent) == 0 {
		md.Tip("No critical or high severity issues. Nothing to triage.")
		md.PlainText("")
	} else {
		md.Warningf("%d issue type(s) need triage.", len(urgent))
		md.PlainText("")
	}

	// Group by category, preserving priority order within each group.
	byCategory := make(map[schemas.Category][]schemas.AggregatedIssue)
	var categories []schemas.Category
	for i := range urgent {
		cat := urgent[i].Category
		if _, seen := byCategory[cat]; !seen {
			categories = append(categories, cat)
		}
		byCategory[cat] = append(byCategory[cat], urgent[i])
	}

	for _, cat := range categories {
		md.H2(string(cat))
		md.PlainText("")
		for i := range byCategory[cat] {
			issue := &byCategory[cat][i]
			md.H3(fmt.Sprintf("%s (%s)", issue.Title, severityBadge(issue.Severity)))
			md.PlainText("")
			rows := make([][]string, 0, len(issue.AffectedPages))
			for _, p := range issue.AffectedPages {
				rows = append(rows, []string{p.Path, string(p.Device), fmtMs(p.Savings.TimeMs), fmtBytes(p.Savings.Bytes)})
			}
			md.Table(markdown.TableSet{
				Header: []string{"Page", "Device", "Time Savings", "Byte Savings"},
				Rows:   rows,
			})
			md.PlainText("")
		}
	}

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to build triage report: %w", err)
	}
	return buf.Bytes(), nil
}

// -- dashboard: score overview, worst pages, savings roadmap, trend --

type dashboardTemplate struct {
	scorer *aggregate.Scorer
	cfg    config.ReportConfig
	trend  *history.Delta
}

func (t *dashboardTemplate) Name() string     { return "dashboard" }
func (t *dashboardTemplate) Format() Format   { return FormatMarkdown }
func (t *dashboardTemplate) Filename() string { return "dashboard.md" }

func (t *dashboardTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	var buf bytes.Buffer
	md := markdown.NewMarkdown(&buf)

	writeRunHeader(md, "Performance Dashboard", data)

	md.H2("Category Averages")
	md.PlainText("")
	avg := data.Metrics.CategoryAverages
	md.Table(markdown.TableSet{
		Header: []string{"Category", "Average", "Median"},
		Rows: [][]string{
			{"Performance", fmtScore(avg.Performance), fmtScore(data.Metrics.MedianPerformance)},
			{"Accessibility", fmtScore(avg.Accessibility), "—"},
			{"Best Practices", fmtScore(avg.BestPractices), "—"},
			{"SEO", fmtScore(avg.SEO), "—"},
		},
	})
	md.PlainText("")

	if t.trend != nil {
		md.H2("Trend vs Previous Run")
		md.PlainText("")
		md.Table(markdown.TableSet{
			Header: []string{"Metric", "Previous", "Change"},
			Rows: [][]string{
				{"Average Performance", fmtScore(t.trend.Previous.AveragePerformance), trendArrow(t.trend.PerformanceChange)},
				{"Critical Issues", strconv.Itoa(t.trend.Previous.CriticalIssueCount), trendArrowInt(t.trend.CriticalChange)},
				{"Estimated Savings", fmtMs(t.trend.Previous.EstimatedSavingsMs), trendArrow(t.trend.SavingsChangeMs)},
			},
		})
		md.PlainText("")
	}

	md.H2("Worst Pages")
	md.PlainText("")
	worst := t.scorer.WorstPages(data.Pages, t.cfg.WorstPages)
	rows := make([][]string, 0, len(worst))
	for _, rank := range worst {
		rows = append(rows, []string{
			rank.Page.Path,
			string(rank.Page.Device),
			fmtScore(rank.Page.Scores.Performance),
			strconv.Itoa(rank.Page.CriticalIssueCount()),
			fmt.Sprintf("%.1f", rank.Priority),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Page", "Device", "Performance", "Critical Issues", "Priority"},
		Rows:   rows,
	})
	md.PlainText("")

	md.H2("Savings Roadmap")
	md.PlainText("")
	top := t.scorer.TopIssues(data.AllIssues, t.cfg.TopIssues)
	var runningMs float64
	rows = rows[:0]
	for i := range top {
		runningMs += top[i].TotalSavings.TimeMs
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			top[i].Title,
			fmtMs(top[i].TotalSavings.TimeMs),
			fmtMs(runningMs),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"#", "Fix", "Savings", "Cumulative"},
		Rows:   rows,
	})
	md.PlainText("")

	if err := md.Build(); err != nil {
		return nil, fmt.Errorf("failed to build dashboard report: %w", err)
	}
	return buf.Bytes(), nil
}

func trendArrow(change float64) string {
	switch {
	case change > 0:
		return fmt.Sprintf("▲ +%.1f", change)
	case change < 0:
		return fmt.Sprintf("▼ %.1f", change)
	default:
		return "– 0"
	}
}

func trendArrowInt(change int) string {
	switch {
	case change > 0:
		return fmt.Sprintf("▲ +%d", change)
	case change < 0:
		return fmt.Sprintf("▼ %d", change)
	default:
		return "– 0"
	}
}
