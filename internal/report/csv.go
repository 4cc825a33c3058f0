// File: internal/report/csv.go
package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/aggregate"
)

// csvTemplate emits one row per aggregated issue, priority-ranked, for
// spreadsheet triage.
type csvTemplate struct {
	scorer *aggregate.Scorer
}

func (t *csvTemplate) Name() string     { return "csv" }
func (t *csvTemplate) Format() Format   { return FormatCSV }
func (t *csvTemplate) Filename() string { return "issues.csv" }

func (t *csvTemplate) Generate(data *schemas.ProcessedAuditData) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"id", "title", "severity", "category", "affected_pages",
		"total_time_ms", "total_bytes", "avg_time_ms", "avg_bytes", "priority",
	}
	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}

	sorted := t.scorer.TopIssues(data.AllIssues, 0)
	for i := range sorted {
		issue := &sorted[i]
		row := []string{
			issue.ID,
			issue.Title,
			string(issue.Severity),
			string(issue.Category),
			strconv.Itoa(issue.PageCount()),
			strconv.FormatFloat(issue.TotalSavings.TimeMs, 'f', 1, 64),
			strconv.FormatInt(issue.TotalSavings.Bytes, 10),
			strconv.FormatFloat(issue.AverageSavings.TimeMs, 'f', 1, 64),
			strconv.FormatInt(issue.AverageSavings.Bytes, 10),
			strconv.FormatFloat(t.scorer.IssuePriority(issue), 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write csv row for %s: %w", issue.ID, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv report: %w", err)
	}
	return buf.Bytes(), nil
}
