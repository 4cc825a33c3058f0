// File: internal/report/json.go
package report

import (
	"fmt"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/aggregate"
	"github.com/signalerhq/signaler/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// -- analysis: the machine-readable aggregate dump --
//
// This payload is the input contract for the remediation subsystem: every
// aggregated issue with its per-page breakdown and computed priority, ranked.

type analysisTemplate struct {
	scorer *aggregate.Scorer
}

func (t *analysisTemplate) Name() string     { return "analysis" }
func (t *analysisTemplate) Format() Format   { return FormatJSON }
func (t *analysisTemplate) Filename() string { return "ai-analysis.json" }

// rankedIssue decorates an aggregated issue with its priority score. The
// score is derived at render time and never stored in the canonical model.
type rankedIssue struct {
	schemas.AggregatedIssue
	Priority float64 `json:"priority"`
}

type analysisPayload struct {
	SchemaVersion int                        `json:"schema_version"`
	GeneratedAt   time.Time                  `json:"generated_at"`
	Meta          schemas.RunMetadata        `json:"metadata"`
	Metrics       schemas.PerformanceMetrics `json:"performance_metrics"`
	Issues        []rankedIssue              `json:"issues"`
	GlobalIssues  []string                   `json:"global_issue_ids"`
}

func (t *analysisTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	sorted := t.scorer.TopIssues(data.AllIssues, 0)

	ranked := make([]rankedIssue, 0, len(sorted))
	for i := range sorted {
		ranked = append(ranked, rankedIssue{
			AggregatedIssue: sorted[i],
			Priority:        t.scorer.IssuePriority(&sorted[i]),
		})
	}

	globalIDs := make([]string, 0, len(data.GlobalIssues))
	for i := range data.GlobalIssues {
		globalIDs = append(globalIDs, data.GlobalIssues[i].ID)
	}

	payload := analysisPayload{
		SchemaVersion: 1,
		GeneratedAt:   time.Now().UTC(),
		Meta:          data.Meta,
		Metrics:       data.Metrics,
		Issues:        ranked,
		GlobalIssues:  globalIDs,
	}

	body, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode analysis payload: %w", err)
	}
	return body, nil
}

// -- performance-summary: metrics plus per-page score rows --

type performanceSummaryTemplate struct {
	scorer *aggregate.Scorer
	cfg    config.ReportConfig
}

func (t *performanceSummaryTemplate) Name() string     { return "performance-summary" }
func (t *performanceSummaryTemplate) Format() Format   { return FormatJSON }
func (t *performanceSummaryTemplate) Filename() string { return "performance-summary.json" }

type pageScoreRow struct {
	Path         string                 `json:"path"`
	Device       schemas.Device         `json:"device"`
	Failed       bool                   `json:"failed,omitempty"`
	Scores       schemas.CategoryScores `json:"scores"`
	Metrics      schemas.CoreMetrics    `json:"metrics"`
	IssueCount   int                    `json:"issue_count"`
	Criticals    int                    `json:"critical_count"`
	PagePriority float64                `json:"page_priority"`
}

type performanceSummaryPayload struct {
	SchemaVersion int                        `json:"schema_version"`
	Meta          schemas.RunMetadata        `json:"metadata"`
	Metrics       schemas.PerformanceMetrics `json:"performance_metrics"`
	Pages         []pageScoreRow             `json:"pages"`
}

func (t *performanceSummaryTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	rows := make([]pageScoreRow, 0, len(data.Pages))
	for i := range data.Pages {
		p := &data.Pages[i]
		rows = append(rows, pageScoreRow{
			Path:         p.Path,
			Device:       p.Device,
			Failed:       p.Failed,
			Scores:       p.Scores,
			Metrics:      p.Metrics,
			IssueCount:   p.TotalIssueCount(),
			Criticals:    p.CriticalIssueCount(),
			PagePriority: t.scorer.PagePriority(p),
		})
	}

	body, err := json.MarshalIndent(performanceSummaryPayload{
		SchemaVersion: 1,
		Meta:          data.Meta,
		Metrics:       data.Metrics,
		Pages:         rows,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode performance summary: %w", err)
	}
	return body, nil
}

// -- cicd: pass/fail gate payload --

type cicdTemplate struct {
	cfg config.ReportConfig
}

func (t *cicdTemplate) Name() string     { return "cicd" }
func (t *cicdTemplate) Format() Format   { return FormatJSON }
func (t *cicdTemplate) Filename() string { return "cicd-payload.json" }

type gateResult struct {
	Name      string  `json:"name"`
	Passed    bool    `json:"passed"`
	Actual    float64 `json:"actual"`
	Threshold float64 `json:"threshold"`
}

type cicdPayload struct {
	SchemaVersion int          `json:"schema_version"`
	Passed        bool         `json:"passed"`
	Gates         []gateResult `json:"gates"`
	TotalPages    int          `json:"total_pages"`
}

func (t *cicdTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	var gates []gateResult

	if t.cfg.MinAveragePerformance > 0 {
		gates = append(gates, gateResult{
			Name:      "min_average_performance",
			Passed:    data.Metrics.AveragePerformance >= t.cfg.MinAveragePerformance,
			Actual:    data.Metrics.AveragePerformance,
			Threshold: t.cfg.MinAveragePerformance,
		})
	}
	if t.cfg.MaxCriticalIssues >= 0 {
		gates = append(gates, gateResult{
			Name:      "max_critical_issues",
			Passed:    data.Metrics.CriticalIssueCount <= t.cfg.MaxCriticalIssues,
			Actual:    float64(data.Metrics.CriticalIssueCount),
			Threshold: float64(t.cfg.MaxCriticalIssues),
		})
	}

	passed := true
	for _, g := range gates {
		if !g.Passed {
			passed = false
			break
		}
	}

	body, err := json.MarshalIndent(cicdPayload{
		SchemaVersion: 1,
		Passed:        passed,
		Gates:         gates,
		TotalPages:    data.Metrics.TotalPages,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode cicd payload: %w", err)
	}
	return body, nil
}

// -- webhook: compact notification payload --

type webhookTemplate struct {
	scorer *aggregate.Scorer
}

func (t *webhookTemplate) Name() string     { return "webhook" }
func (t *webhookTemplate) Format() Format   { return FormatJSON }
func (t *webhookTemplate) Filename() string { return "webhook-payload.json" }

type webhookPayload struct {
	SchemaVersion      int     `json:"schema_version"`
	TotalPages         int     `json:"total_pages"`
	AveragePerformance float64 `json:"average_performance"`
	CriticalIssues     int     `json:"critical_issues"`
	TopIssueID         string  `json:"top_issue_id,omitempty"`
	TopIssueTitle      string  `json:"top_issue_title,omitempty"`
	EstimatedSavingsMs float64 `json:"estimated_savings_ms"`
}

func (t *webhookTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	payload := webhookPayload{
		SchemaVersion:      1,
		TotalPages:         data.Metrics.TotalPages,
		AveragePerformance: data.Metrics.AveragePerformance,
		CriticalIssues:     data.Metrics.CriticalIssueCount,
		EstimatedSavingsMs: data.Metrics.EstimatedSavingsMs,
	}
	if top := t.scorer.TopIssues(data.AllIssues, 1); len(top) > 0 {
		payload.TopIssueID = top[0].ID
		payload.TopIssueTitle = top[0].Title
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode webhook payload: %w", err)
	}
	return body, nil
}
