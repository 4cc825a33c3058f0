// File: internal/history/history_test.go
package history_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalerhq/signaler/internal/history"
)

func testEntry(pages int, perf float64) history.Entry {
	return history.Entry{
		Timestamp:          time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		TotalPages:         pages,
		AveragePerformance: perf,
		CriticalIssueCount: 3,
		EstimatedSavingsMs: 4200,
		ElapsedMs:          1500,
	}
}

func TestAppendAndLast_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history", "runs.jsonl")

	require.NoError(t, history.Append(path, testEntry(10, 61.5)))
	require.NoError(t, history.Append(path, testEntry(12, 64.0)))

	last, ok, err := history.Last(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 12, last.TotalPages)
	assert.Equal(t, 64.0, last.AveragePerformance)
}

func TestLast_MissingFileIsNotAnError(t *testing.T) {
	last, ok, err := history.Last(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, last)
}

func TestLast_SkipsCorruptLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	require.NoError(t, history.Append(path, testEntry(5, 50)))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("{truncated garbage\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	last, ok, err := history.Last(path)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 5, last.TotalPages)
}

func TestCompare(t *testing.T) {
	prev := testEntry(10, 60)
	current := testEntry(10, 72.5)
	current.CriticalIssueCount = 1
	current.EstimatedSavingsMs = 3000

	delta := history.Compare(prev, current)
	assert.Equal(t, prev, delta.Previous)
	assert.Equal(t, 12.5, delta.PerformanceChange)
	assert.Equal(t, -2, delta.CriticalChange)
	assert.Equal(t, -1200.0, delta.SavingsChangeMs)
}

func TestDefaultPath_SitsBesideOutputDir(t *testing.T) {
	assert.Equal(t, filepath.Join("/tmp/site", "signaler-history.jsonl"), history.DefaultPath("/tmp/site/reports"))
}
