// File: internal/aggregate/score.go
package aggregate

import (
	"math"
	"sort"

	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/config"
)

// Scorer computes priority scores from the shared, parameterized formula.
// Every ranked view in every template goes through one Scorer; individual
// templates may tune weights via configuration but never re-derive the shape.
type Scorer struct {
	cfg config.ScoringConfig
}

// NewScorer creates a Scorer from scoring configuration.
func NewScorer(cfg config.ScoringConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Priority computes the raw priority score:
//
//	timeScore = min(totalMs/1000, capTime)
//	byteScore = min(totalBytes/100000, capBytes)
//	priority  = (timeScore*wTime + byteScore*wBytes + log(pages+1)*wPages) * severityWeight
//
// Both savings contributions are capped for diminishing returns; the page
// contribution grows logarithmically with breadth.
func (s *Scorer) Priority(sev schemas.Severity, totalMs float64, totalBytes int64, pageCount int) float64 {
	timeScore := math.Min(totalMs/1000, s.cfg.CapTime)
	byteScore := math.Min(float64(totalBytes)/100000, s.cfg.CapBytes)
	breadth := math.Log(float64(pageCount) + 1)

	weight, ok := s.cfg.SeverityWeights[string(sev)]
	if !ok {
		weight = 1
	}

	return (timeScore*s.cfg.WeightTime + byteScore*s.cfg.WeightBytes + breadth*s.cfg.WeightPages) * weight
}

// IssuePriority scores one aggregated issue.
func (s *Scorer) IssuePriority(issue *schemas.AggregatedIssue) float64 {
	return s.Priority(issue.Severity, issue.TotalSavings.TimeMs, issue.TotalSavings.Bytes, issue.PageCount())
}

// PagePriority scores one page for "worst pages" views. It uses the same
// formula shape with a page count of one, substituting the page's own
// critical-issue count (at least one) for the severity weight.
func (s *Scorer) PagePriority(page *schemas.PageAuditResult) float64 {
	savings := page.TotalIssueSavings()

	timeScore := math.Min(savings.TimeMs/1000, s.cfg.CapTime)
	byteScore := math.Min(float64(savings.Bytes)/100000, s.cfg.CapBytes)
	breadth := math.Log(2) // pageCount fixed at 1

	criticals := page.CriticalIssueCount()
	if criticals < 1 {
		criticals = 1
	}

	return (timeScore*s.cfg.WeightTime + byteScore*s.cfg.WeightBytes + breadth*s.cfg.WeightPages) * float64(criticals)
}

// SortByPriority orders issues for "top issues" views: priority descending,
// ties broken by total time savings descending, then affected-page count
// descending, then identifier ascending. The order is fully deterministic.
func (s *Scorer) SortByPriority(issues []schemas.AggregatedIssue) {
	sort.SliceStable(issues, func(i, j int) bool {
		pi, pj := s.IssuePriority(&issues[i]), s.IssuePriority(&issues[j])
		if pi != pj {
			return pi > pj
		}
		if issues[i].TotalSavings.TimeMs != issues[j].TotalSavings.TimeMs {
			return issues[i].TotalSavings.TimeMs > issues[j].TotalSavings.TimeMs
		}
		if issues[i].PageCount() != issues[j].PageCount() {
			return issues[i].PageCount() > issues[j].PageCount()
		}
		return issues[i].ID < issues[j].ID
	})
}

// TopIssues returns the n highest-priority issues as a sorted copy, leaving
// the input untouched.
func (s *Scorer) TopIssues(issues []schemas.AggregatedIssue, n int) []schemas.AggregatedIssue {
	sorted := make([]schemas.AggregatedIssue, len(issues))
	copy(sorted, issues)
	s.SortByPriority(sorted)
	if n > 0 && n < len(sorted) {
		sorted = sorted[:n]
	}
	return sorted
}

// PageRank pairs a page with its computed priority for ranked page views.
type PageRank struct {
	Page     *schemas.PageAuditResult
	Priority float64
}

// WorstPages ranks pages by descending page priority, ties broken by
// ascending path then device for determinism.
func (s *Scorer) WorstPages(pages []schemas.PageAuditResult, n int) []PageRank {
	ranks := make([]PageRank, 0, len(pages))
	for i := range pages {
		ranks = append(ranks, PageRank{Page: &pages[i], Priority: s.PagePriority(&pages[i])})
	}
	sort.SliceStable(ranks, func(i, j int) bool {
		if ranks[i].Priority != ranks[j].Priority {
			return ranks[i].Priority > ranks[j].Priority
		}
		if ranks[i].Page.Path != ranks[j].Page.Path {
			return ranks[i].Page.Path < ranks[j].Page.Path
		}
		return ranks[i].Page.Device < ranks[j].Page.Device
	})
	if n > 0 && n < len(ranks) {
		ranks = ranks[:n]
	}
	return ranks
}
