// File: internal/aggregate/metrics.go
package aggregate

import (
	"sort"

	"github.com/signalerhq/signaler/api/schemas"
)

// MetricsAccumulator builds PerformanceMetrics incrementally so the streaming
// path can fold chunk by chunk without retaining every page. The standard
// path uses the same accumulator over the full slice, which guarantees both
// paths compute identical metrics for identical input.
type MetricsAccumulator struct {
	totalPages int

	sumPerformance   float64
	sumAccessibility float64
	sumBestPractices float64
	sumSEO           float64

	// perfScores retains one float per page for the median. This survives
	// streaming on purpose: the footprint is eight bytes per page.
	perfScores []float64

	criticalCount int
	savingsMs     float64
}

// NewMetricsAccumulator returns an empty metrics accumulator.
func NewMetricsAccumulator() *MetricsAccumulator {
	return &MetricsAccumulator{}
}

// Add folds one page into the running totals.
func (m *MetricsAccumulator) Add(page *schemas.PageAuditResult) {
	m.totalPages++
	m.sumPerformance += page.Scores.Performance
	m.sumAccessibility += page.Scores.Accessibility
	m.sumBestPractices += page.Scores.BestPractices
	m.sumSEO += page.Scores.SEO
	m.perfScores = append(m.perfScores, page.Scores.Performance)

	for i := range page.Issues {
		if page.Issues[i].Severity == schemas.SeverityCritical {
			m.criticalCount++
		}
		m.savingsMs += page.Issues[i].Savings.TimeMs
	}
}

// Finalize computes the metrics from the accumulated state.
func (m *MetricsAccumulator) Finalize() schemas.PerformanceMetrics {
	metrics := schemas.PerformanceMetrics{
		TotalPages:         m.totalPages,
		CriticalIssueCount: m.criticalCount,
		EstimatedSavingsMs: m.savingsMs,
	}
	if m.totalPages == 0 {
		return metrics
	}

	n := float64(m.totalPages)
	metrics.AveragePerformance = m.sumPerformance / n
	metrics.CategoryAverages = schemas.CategoryScores{
		Performance:   m.sumPerformance / n,
		Accessibility: m.sumAccessibility / n,
		BestPractices: m.sumBestPractices / n,
		SEO:           m.sumSEO / n,
	}
	metrics.MedianPerformance = median(m.perfScores)
	return metrics
}

// ComputeMetrics is the one-shot form used by the standard path.
func ComputeMetrics(pages []schemas.PageAuditResult) schemas.PerformanceMetrics {
	acc := NewMetricsAccumulator()
	for i := range pages {
		acc.Add(&pages[i])
	}
	return acc.Finalize()
}

// median returns the middle element of the sorted values, taking the lower
// middle for even counts. The input slice is not modified.
func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	return sorted[(len(sorted)-1)/2]
}
