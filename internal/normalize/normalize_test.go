// File: internal/normalize/normalize_test.go
package normalize_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/normalize"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func TestNormalize_CompletePage(t *testing.T) {
	raw := schemas.RawPageResult{
		Label:  "Home",
		Path:   "/",
		Device: "desktop",
		Scores: &schemas.RawScores{
			Performance:   f64(55),
			Accessibility: f64(92),
			BestPractices: f64(100),
			SEO:           f64(87),
		},
		Metrics: &schemas.RawMetrics{
			LCPMs: f64(3400),
			FCPMs: f64(1800),
			TBTMs: f64(620),
			CLS:   f64(0.12),
		},
		Audits: []schemas.RawAuditItem{
			{
				ID:        "unused-javascript",
				Title:     "Reduce unused JavaScript",
				Score:     f64(0.35),
				SavingsMs: f64(1200),
				SavingsB:  i64(250000),
				Resources: []schemas.RawResource{{URL: "https://cdn.example.com/app.js", Type: "script", SizeBytes: i64(400000)}},
				Advice:    []string{"Code-split the main bundle"},
			},
		},
	}

	page := normalize.Normalize(raw)
	assert.False(t, page.Failed)
	assert.Equal(t, "Home", page.Label)
	assert.Equal(t, schemas.DeviceDesktop, page.Device)
	assert.Equal(t, 55.0, page.Scores.Performance)
	assert.Equal(t, 3400.0, page.Metrics.LCPMs)

	require.Len(t, page.Issues, 1)
	issue := page.Issues[0]
	assert.Equal(t, schemas.SeverityHigh, issue.Severity)
	assert.Equal(t, schemas.CategoryJavaScript, issue.Category)
	assert.Equal(t, 1200.0, issue.Savings.TimeMs)
	assert.Equal(t, int64(250000), issue.Savings.Bytes)
	require.Len(t, issue.Resources, 1)
	assert.Equal(t, int64(400000), issue.Resources[0].SizeBytes)

	// Recorded counters match the issue list they summarize.
	assert.Equal(t, 1, page.IssueCount)
	assert.Equal(t, 0, page.CriticalCount)
	assert.Equal(t, schemas.Savings{TimeMs: 1200, Bytes: 250000}, page.IssueSavings)
}

func TestNormalize_FailedPageIsZeroedNotFatal(t *testing.T) {
	raw := schemas.RawPageResult{Path: "/broken", Error: "net::ERR_CONNECTION_REFUSED"}

	page := normalize.Normalize(raw)
	assert.True(t, page.Failed)
	assert.Equal(t, "/broken", page.Label)
	assert.Zero(t, page.Scores.Performance)
	assert.Empty(t, page.Issues)
	assert.Empty(t, page.Opportunities)
}

func TestNormalize_MissingScoresAndMetricsMeansFailed(t *testing.T) {
	page := normalize.Normalize(schemas.RawPageResult{Path: "/partial"})
	assert.True(t, page.Failed)
}

func TestNormalize_MissingFieldsDefaultToZero(t *testing.T) {
	raw := schemas.RawPageResult{
		Path:   "/sparse",
		Scores: &schemas.RawScores{Performance: f64(70)},
		Audits: []schemas.RawAuditItem{{ID: "uses-long-cache-ttl"}},
	}

	page := normalize.Normalize(raw)
	assert.False(t, page.Failed)
	assert.Zero(t, page.Scores.Accessibility)
	require.Len(t, page.Issues, 1)
	assert.Zero(t, page.Issues[0].Savings.TimeMs)
	// Untitled audits fall back to their identifier.
	assert.Equal(t, "uses-long-cache-ttl", page.Issues[0].Title)
}

func TestNormalize_UnknownDeviceDefaultsToMobile(t *testing.T) {
	raw := schemas.RawPageResult{Path: "/", Device: "tablet", Scores: &schemas.RawScores{}}
	assert.Equal(t, schemas.DeviceMobile, normalize.Normalize(raw).Device)
}

func TestClassifyCategory(t *testing.T) {
	cases := map[string]schemas.Category{
		"unused-javascript":    schemas.CategoryJavaScript,
		"unused-css-rules":     schemas.CategoryCSS,
		"modern-image-formats": schemas.CategoryImages,
		"uses-long-cache-ttl":  schemas.CategoryCaching,
		"server-response-time": schemas.CategoryNetwork,
		"color-contrast":       schemas.CategoryAccessibility,
		"meta-description":     schemas.CategorySEO,
		"some-novel-audit":     schemas.CategoryBestPractices,
		// Token matching only: "script" and "img" embedded inside larger
		// tokens must not fire.
		"description-length": schemas.CategoryBestPractices,
		"pilgrimage-widget":  schemas.CategoryBestPractices,
	}
	for id, want := range cases {
		assert.Equal(t, want, normalize.ClassifyCategory(id), "audit %s", id)
	}
}

func TestClassifySeverity(t *testing.T) {
	// Core-metric audits escalate to critical below the failing threshold;
	// everything else tops out at high.
	assert.Equal(t, schemas.SeverityCritical, normalize.ClassifySeverity("largest-contentful-paint", f64(0.2)))
	assert.Equal(t, schemas.SeverityHigh, normalize.ClassifySeverity("unused-javascript", f64(0.2)))
	assert.Equal(t, schemas.SeverityMedium, normalize.ClassifySeverity("unused-javascript", f64(0.7)))
	assert.Equal(t, schemas.SeverityLow, normalize.ClassifySeverity("unused-javascript", f64(0.95)))
	// A missing score reads as zero.
	assert.Equal(t, schemas.SeverityCritical, normalize.ClassifySeverity("total-blocking-time", nil))
}

func TestNormalizeAll_PreservesOrderAndIsolation(t *testing.T) {
	raws := []schemas.RawPageResult{
		{Path: "/a", Scores: &schemas.RawScores{Performance: f64(80)}},
		{Path: "/broken", Error: "timeout"},
		{Path: "/c", Scores: &schemas.RawScores{Performance: f64(60)}},
	}

	pages, err := normalize.NormalizeAll(context.Background(), raws, 2)
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, "/a", pages[0].Path)
	assert.Equal(t, "/broken", pages[1].Path)
	assert.Equal(t, "/c", pages[2].Path)

	// The failure stays contained to its own page.
	assert.False(t, pages[0].Failed)
	assert.True(t, pages[1].Failed)
	assert.False(t, pages[2].Failed)
}

func TestValidateRaw_EmptyAuditIDIsFatal(t *testing.T) {
	raw := &schemas.RawAuditResult{
		Pages: []schemas.RawPageResult{
			{Path: "/", Audits: []schemas.RawAuditItem{{ID: "unused-css"}, {ID: ""}}},
		},
	}
	err := normalize.ValidateRaw(raw)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no identifier")

	raw.Pages[0].Audits = raw.Pages[0].Audits[:1]
	assert.NoError(t, normalize.ValidateRaw(raw))
}

func TestMetadata_ElapsedFallsBackToTimestamps(t *testing.T) {
	raw := &schemas.RawAuditResult{
		StartedAt:  "2026-08-30T10:00:00Z",
		FinishedAt: "2026-08-30T10:02:30Z",
		Pages:      make([]schemas.RawPageResult, 3),
	}

	meta := normalize.Metadata(raw)
	assert.Equal(t, int64(150000), meta.ElapsedMs)
	assert.Equal(t, 3, meta.TotalPages)
}

func TestMetadata_ExplicitElapsedWins(t *testing.T) {
	elapsed := int64(9999)
	raw := &schemas.RawAuditResult{
		StartedAt:  "2026-08-30T10:00:00Z",
		FinishedAt: "2026-08-30T10:02:30Z",
		ElapsedMs:  &elapsed,
	}
	assert.Equal(t, elapsed, normalize.Metadata(raw).ElapsedMs)
}
