// File: internal/aggregate/aggregate_test.go
package aggregate_test

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/aggregate"
)

func testPage(path string, device schemas.Device, issues ...schemas.Issue) schemas.PageAuditResult {
	return schemas.PageAuditResult{
		Label:  path,
		Path:   path,
		Device: device,
		Issues: issues,
	}
}

func testIssue(id string, sev schemas.Severity, ms float64, bytes int64) schemas.Issue {
	return schemas.Issue{
		ID:       id,
		Title:    "Issue " + id,
		Severity: sev,
		Category: schemas.CategoryJavaScript,
		Savings:  schemas.Savings{TimeMs: ms, Bytes: bytes},
	}
}

func TestAggregate_MergesAcrossPages(t *testing.T) {
	pages := []schemas.PageAuditResult{
		testPage("/", schemas.DeviceMobile, testIssue("unused-javascript", schemas.SeverityHigh, 1200, 50000)),
		testPage("/pricing", schemas.DeviceMobile, testIssue("unused-javascript", schemas.SeverityHigh, 800, 70000)),
	}

	issues, err := aggregate.Aggregate(pages)
	require.NoError(t, err)
	require.Len(t, issues, 1)

	got := issues[0]
	assert.Equal(t, "unused-javascript", got.ID)
	assert.Equal(t, 2, got.PageCount())
	assert.Equal(t, 2000.0, got.TotalSavings.TimeMs)
	assert.Equal(t, int64(120000), got.TotalSavings.Bytes)
	assert.Equal(t, 1000.0, got.AverageSavings.TimeMs)
	assert.Equal(t, int64(60000), got.AverageSavings.Bytes)
}

func TestAggregate_SameIssueDifferentDevices(t *testing.T) {
	// The same path measured on mobile and desktop counts as two affected
	// pages, not one.
	pages := []schemas.PageAuditResult{
		testPage("/", schemas.DeviceMobile, testIssue("render-blocking-resources", schemas.SeverityMedium, 300, 0)),
		testPage("/", schemas.DeviceDesktop, testIssue("render-blocking-resources", schemas.SeverityMedium, 150, 0)),
	}

	issues, err := aggregate.Aggregate(pages)
	require.NoError(t, err)
	require.Len(t, issues, 1)
	assert.Equal(t, 2, issues[0].PageCount())
	assert.Equal(t, 450.0, issues[0].TotalSavings.TimeMs)
}

func TestAccumulator_DuplicateOnSamePageConsolidates(t *testing.T) {
	acc := aggregate.NewAccumulator()
	page := testPage("/", schemas.DeviceMobile,
		testIssue("unused-css", schemas.SeverityMedium, 100, 1000),
		testIssue("unused-css", schemas.SeverityMedium, 50, 500),
	)
	require.NoError(t, acc.Add(&page))

	issues := acc.Finalize()
	require.Len(t, issues, 1)
	assert.Equal(t, 1, issues[0].PageCount())
	assert.Equal(t, 150.0, issues[0].TotalSavings.TimeMs)
	assert.Equal(t, int64(1500), issues[0].TotalSavings.Bytes)
}

func TestAccumulator_EmptyIssueIDIsFatal(t *testing.T) {
	acc := aggregate.NewAccumulator()
	page := testPage("/", schemas.DeviceMobile, schemas.Issue{ID: ""})
	err := acc.Add(&page)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "without identifier")
}

// Aggregation totals must be byte-identical no matter what order pages
// arrive in. Irrational savings values make float non-associativity visible
// if the fold ever ran in arrival order.
func TestAggregate_OrderIndependent(t *testing.T) {
	paths := []string{"/", "/a", "/b", "/c", "/d", "/e", "/f", "/g"}
	base := make([]schemas.PageAuditResult, 0, len(paths))
	for i, p := range paths {
		base = append(base, testPage(p, schemas.DeviceMobile,
			testIssue("unused-javascript", schemas.SeverityHigh, 1000.1+float64(i)*0.7, int64(10000+i)),
			testIssue("uses-optimized-images", schemas.SeverityLow, 33.3*float64(i+1), 0),
		))
	}

	want, err := aggregate.Aggregate(base)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 25; trial++ {
		shuffled := make([]schemas.PageAuditResult, len(base))
		copy(shuffled, base)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		got, err := aggregate.Aggregate(shuffled)
		require.NoError(t, err)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("aggregate differs under permutation (trial %d):\n%s", trial, diff)
		}
	}
}

// Folding chunk accumulators with Merge must match the one-shot aggregate.
func TestAccumulator_MergeMatchesOneShot(t *testing.T) {
	pages := []schemas.PageAuditResult{
		testPage("/", schemas.DeviceMobile, testIssue("unused-javascript", schemas.SeverityHigh, 500, 1000)),
		testPage("/a", schemas.DeviceMobile, testIssue("unused-javascript", schemas.SeverityHigh, 250, 2000)),
		testPage("/b", schemas.DeviceDesktop, testIssue("modern-image-formats", schemas.SeverityMedium, 90, 30000)),
	}

	want, err := aggregate.Aggregate(pages)
	require.NoError(t, err)

	left, right := aggregate.NewAccumulator(), aggregate.NewAccumulator()
	require.NoError(t, left.Add(&pages[0]))
	require.NoError(t, right.Add(&pages[1]))
	require.NoError(t, right.Add(&pages[2]))
	left.Merge(right)

	assert.Equal(t, 2, left.IssueCount())
	if diff := cmp.Diff(want, left.Finalize()); diff != "" {
		t.Fatalf("merged aggregate differs from one-shot:\n%s", diff)
	}
}

func TestGlobalIssues_FiltersSinglePageIssues(t *testing.T) {
	pages := []schemas.PageAuditResult{
		testPage("/", schemas.DeviceMobile,
			testIssue("unused-javascript", schemas.SeverityHigh, 100, 0),
			testIssue("lone-issue", schemas.SeverityLow, 10, 0),
		),
		testPage("/a", schemas.DeviceMobile, testIssue("unused-javascript", schemas.SeverityHigh, 100, 0)),
	}

	all, err := aggregate.Aggregate(pages)
	require.NoError(t, err)

	global := aggregate.GlobalIssues(all)
	require.Len(t, global, 1)
	assert.Equal(t, "unused-javascript", global[0].ID)
}
