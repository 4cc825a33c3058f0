// File: api/schemas/aggregate.go
package schemas

import "time"

// -- Aggregated / Derived Schemas --

// AffectedPage records one page's contribution to an aggregated issue.
type AffectedPage struct {
	Label   string  `json:"label"`
	Path    string  `json:"path"`
	Device  Device  `json:"device"`
	Savings Savings `json:"savings"`
}

// AggregatedIssue merges every occurrence of one issue identifier across the
// pages of a run. Title, description, severity and category come from a
// representative per-page Issue.
//
// Invariants: TotalSavings equals the exact sum of AffectedPages savings, and
// AverageSavings equals TotalSavings divided by len(AffectedPages). Aggregates
// are always rebuilt from the full page set, never patched in place.
type AggregatedIssue struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`

	AffectedPages []AffectedPage `json:"affected_pages"`

	TotalSavings   Savings `json:"total_savings"`
	AverageSavings Savings `json:"average_savings"`

	// Recommendations carried over from the representative issue.
	Recommendations []string `json:"recommendations,omitempty"`
}

// PageCount returns the number of pages the issue affects.
func (a *AggregatedIssue) PageCount() int { return len(a.AffectedPages) }

// PerformanceMetrics is a pure aggregate over the pages of a run. It is
// recomputed from scratch whenever the page set changes and never cached
// across mutations.
type PerformanceMetrics struct {
	TotalPages         int            `json:"total_pages"`
	AveragePerformance float64        `json:"average_performance"`
	MedianPerformance  float64        `json:"median_performance"`
	CategoryAverages   CategoryScores `json:"category_averages"`
	CriticalIssueCount int            `json:"critical_issue_count"`
	EstimatedSavingsMs float64        `json:"estimated_savings_ms"`
}

// RunMetadata describes one collector execution. The fields mirror the
// measurement engine's run manifest.
type RunMetadata struct {
	ConfigPath    string    `json:"config_path,omitempty"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	ElapsedMs     int64     `json:"elapsed_ms"`
	TotalPages    int       `json:"total_pages"`
	TotalRunners  int       `json:"total_runners,omitempty"`
	EngineVersion string    `json:"engine_version,omitempty"`
}

// ProcessedAuditData is the canonical, format-agnostic input consumed by
// every report template. Templates read it; they never recompute aggregation.
type ProcessedAuditData struct {
	Pages []PageAuditResult `json:"pages"`

	// AllIssues holds every aggregated issue of the run.
	AllIssues []AggregatedIssue `json:"all_issues"`

	// GlobalIssues is the subset of AllIssues affecting more than one page.
	GlobalIssues []AggregatedIssue `json:"global_issues"`

	Metrics PerformanceMetrics `json:"performance_metrics"`
	Meta    RunMetadata        `json:"metadata"`
}
