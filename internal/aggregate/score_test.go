// File: internal/aggregate/score_test.go
package aggregate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/aggregate"
	"github.com/signalerhq/signaler/internal/config"
)

func testScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		CapTime:     30.0,
		CapBytes:    20.0,
		WeightTime:  1.0,
		WeightBytes: 0.5,
		WeightPages: 2.0,
		SeverityWeights: map[string]float64{
			"critical": 4, "high": 3, "medium": 2, "low": 1,
		},
	}
}

func aggIssue(id string, sev schemas.Severity, totalMs float64, totalBytes int64, pages int) schemas.AggregatedIssue {
	affected := make([]schemas.AffectedPage, pages)
	for i := range affected {
		affected[i] = schemas.AffectedPage{Path: "/p", Device: schemas.DeviceMobile}
	}
	return schemas.AggregatedIssue{
		ID:            id,
		Severity:      sev,
		AffectedPages: affected,
		TotalSavings:  schemas.Savings{TimeMs: totalMs, Bytes: totalBytes},
	}
}

func TestPriority_SeverityOrdering(t *testing.T) {
	s := aggregate.NewScorer(testScoringConfig())

	// Identical savings, ascending severity, strictly ascending priority.
	low := s.Priority(schemas.SeverityLow, 5000, 200000, 3)
	medium := s.Priority(schemas.SeverityMedium, 5000, 200000, 3)
	high := s.Priority(schemas.SeverityHigh, 5000, 200000, 3)
	critical := s.Priority(schemas.SeverityCritical, 5000, 200000, 3)

	assert.Less(t, low, medium)
	assert.Less(t, medium, high)
	assert.Less(t, high, critical)
	assert.Equal(t, 4*low, critical)
}

func TestPriority_MonotonicInInputs(t *testing.T) {
	s := aggregate.NewScorer(testScoringConfig())

	base := s.Priority(schemas.SeverityHigh, 1000, 100000, 2)
	assert.Greater(t, s.Priority(schemas.SeverityHigh, 2000, 100000, 2), base)
	assert.Greater(t, s.Priority(schemas.SeverityHigh, 1000, 200000, 2), base)
	assert.Greater(t, s.Priority(schemas.SeverityHigh, 1000, 100000, 3), base)
}

func TestPriority_SavingsContributionsAreCapped(t *testing.T) {
	s := aggregate.NewScorer(testScoringConfig())

	// Past the caps, more savings must not raise the score.
	atCap := s.Priority(schemas.SeverityHigh, 30_000, 2_000_000, 1)
	beyond := s.Priority(schemas.SeverityHigh, 300_000, 20_000_000, 1)
	assert.Equal(t, atCap, beyond)
}

func TestPriority_UnknownSeverityWeightsOne(t *testing.T) {
	s := aggregate.NewScorer(testScoringConfig())

	unknown := s.Priority(schemas.Severity("bogus"), 3000, 0, 1)
	low := s.Priority(schemas.SeverityLow, 3000, 0, 1)
	assert.Equal(t, low, unknown)
}

func TestSortByPriority_DeterministicTieBreaks(t *testing.T) {
	s := aggregate.NewScorer(testScoringConfig())

	// Two issues with identical scores sort by identifier.
	issues := []schemas.AggregatedIssue{
		aggIssue("zebra", schemas.SeverityHigh, 1000, 0, 1),
		aggIssue("alpha", schemas.SeverityHigh, 1000, 0, 1),
	}
	s.SortByPriority(issues)
	assert.Equal(t, "alpha", issues[0].ID)
	assert.Equal(t, "zebra", issues[1].ID)
}

func TestSortByPriority_HigherScoreFirst(t *testing.T) {
	s := aggregate.NewScorer(testScoringConfig())

	issues := []schemas.AggregatedIssue{
		aggIssue("small", schemas.SeverityLow, 100, 0, 1),
		aggIssue("big", schemas.SeverityCritical, 20000, 500000, 5),
	}
	s.SortByPriority(issues)
	assert.Equal(t, "big", issues[0].ID)
}

func TestTopIssues_CopiesAndTruncates(t *testing.T) {
	s := aggregate.NewScorer(testScoringConfig())

	issues := []schemas.AggregatedIssue{
		aggIssue("a", schemas.SeverityLow, 100, 0, 1),
		aggIssue("b", schemas.SeverityCritical, 20000, 0, 5),
		aggIssue("c", schemas.SeverityHigh, 5000, 0, 2),
	}

	top := s.TopIssues(issues, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, "c", top[1].ID)

	// Input order untouched.
	assert.Equal(t, "a", issues[0].ID)
}

func TestWorstPages_RanksByPagePriority(t *testing.T) {
	s := aggregate.NewScorer(testScoringConfig())

	critical := testIssue("largest-contentful-paint", schemas.SeverityCritical, 4000, 0)
	pages := []schemas.PageAuditResult{
		testPage("/quiet", schemas.DeviceMobile, testIssue("uses-text-compression", schemas.SeverityLow, 50, 0)),
		testPage("/slow", schemas.DeviceMobile, critical, testIssue("unused-javascript", schemas.SeverityHigh, 2000, 400000)),
	}

	ranks := s.WorstPages(pages, 0)
	require.Len(t, ranks, 2)
	assert.Equal(t, "/slow", ranks[0].Page.Path)
	assert.Greater(t, ranks[0].Priority, ranks[1].Priority)
}

func TestPagePriority_SurvivesReleasedIssueList(t *testing.T) {
	s := aggregate.NewScorer(testScoringConfig())

	full := testPage("/slow", schemas.DeviceMobile,
		testIssue("largest-contentful-paint", schemas.SeverityCritical, 4000, 0),
		testIssue("unused-javascript", schemas.SeverityHigh, 2000, 400000))

	// A streaming run drops the issue list from retained pages but keeps the
	// recorded counters. Ranked views must not notice the difference.
	summary := full
	summary.Issues = nil
	summary.IssueCount = 2
	summary.CriticalCount = 1
	summary.IssueSavings = schemas.Savings{TimeMs: 6000, Bytes: 400000}

	assert.Equal(t, s.PagePriority(&full), s.PagePriority(&summary))
	assert.Equal(t, full.CriticalIssueCount(), summary.CriticalIssueCount())
	assert.Equal(t, full.TotalIssueCount(), summary.TotalIssueCount())
}
