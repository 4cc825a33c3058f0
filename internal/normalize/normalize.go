// File: internal/normalize/normalize.go

// Package normalize converts raw collector output into the uniform audit
// model. Normalization is pure and total: a failed or partially populated
// page becomes a zeroed PageAuditResult instead of an error, so one bad page
// never aborts a run.
package normalize

import (
	"context"
	"fmt"
	"time"

	"github.com/signalerhq/signaler/api/schemas"
	"golang.org/x/sync/errgroup"
)

// Normalize converts one raw page result into a PageAuditResult.
//
// Failed audits (the collector reported an error, or the metrics object is
// absent entirely) produce a zeroed result flagged Failed. Missing numeric
// fields default to zero.
func Normalize(raw schemas.RawPageResult) schemas.PageAuditResult {
	page := schemas.PageAuditResult{
		Label:  raw.Label,
		Path:   raw.Path,
		Device: normalizeDevice(raw.Device),
	}
	if page.Label == "" {
		page.Label = raw.Path
	}

	if raw.Error != "" || (raw.Scores == nil && raw.Metrics == nil) {
		page.Failed = true
		page.Issues = []schemas.Issue{}
		page.Opportunities = []schemas.Opportunity{}
		return page
	}

	if raw.Scores != nil {
		page.Scores = schemas.CategoryScores{
			Performance:   deref(raw.Scores.Performance),
			Accessibility: deref(raw.Scores.Accessibility),
			BestPractices: deref(raw.Scores.BestPractices),
			SEO:           deref(raw.Scores.SEO),
		}
	}
	if raw.Metrics != nil {
		page.Metrics = schemas.CoreMetrics{
			LCPMs: deref(raw.Metrics.LCPMs),
			FCPMs: deref(raw.Metrics.FCPMs),
			TBTMs: deref(raw.Metrics.TBTMs),
			CLS:   deref(raw.Metrics.CLS),
		}
	}

	page.Issues = make([]schemas.Issue, 0, len(raw.Audits))
	for i := range raw.Audits {
		page.Issues = append(page.Issues, normalizeAudit(raw.Audits[i]))
	}
	page.IssueCount = len(page.Issues)
	for i := range page.Issues {
		if page.Issues[i].Severity == schemas.SeverityCritical {
			page.CriticalCount++
		}
		page.IssueSavings = page.IssueSavings.Add(page.Issues[i].Savings)
	}

	page.Opportunities = make([]schemas.Opportunity, 0, len(raw.Opps))
	for _, opp := range raw.Opps {
		page.Opportunities = append(page.Opportunities, schemas.Opportunity{
			ID:    opp.ID,
			Title: opp.Title,
			Savings: schemas.Savings{
				TimeMs: deref(opp.SavingsMs),
				Bytes:  derefInt(opp.SavingsB),
			},
		})
	}

	return page
}

// normalizeAudit converts one flagged audit item into an Issue, deriving
// category and severity from the classification tables.
func normalizeAudit(item schemas.RawAuditItem) schemas.Issue {
	issue := schemas.Issue{
		ID:          item.ID,
		Title:       item.Title,
		Description: item.Description,
		Severity:    ClassifySeverity(item.ID, item.Score),
		Category:    ClassifyCategory(item.ID),
		Savings: schemas.Savings{
			TimeMs: deref(item.SavingsMs),
			Bytes:  derefInt(item.SavingsB),
		},
		Recommendations: item.Advice,
	}
	if issue.Title == "" {
		issue.Title = item.ID
	}

	if len(item.Resources) > 0 {
		issue.Resources = make([]schemas.Resource, 0, len(item.Resources))
		for _, res := range item.Resources {
			issue.Resources = append(issue.Resources, schemas.Resource{
				URL:       res.URL,
				Type:      res.Type,
				SizeBytes: derefInt(res.SizeBytes),
			})
		}
	}
	return issue
}

// NormalizeAll normalizes a batch of raw pages in parallel. Per-page work is
// independent; results land at their input index so the output order matches
// the input regardless of scheduling.
func NormalizeAll(ctx context.Context, raws []schemas.RawPageResult, concurrency int) ([]schemas.PageAuditResult, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	pages := make([]schemas.PageAuditResult, len(raws))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			pages[i] = Normalize(raws[i])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return pages, nil
}

// Metadata converts raw run metadata into its canonical form. Timestamps the
// collector omitted or mangled default to zero values.
func Metadata(raw *schemas.RawAuditResult) schemas.RunMetadata {
	meta := schemas.RunMetadata{
		ConfigPath:    raw.ConfigPath,
		ElapsedMs:     derefInt(raw.ElapsedMs),
		TotalPages:    len(raw.Pages),
		EngineVersion: raw.EngineVersion,
	}
	if raw.TotalPages != nil {
		meta.TotalPages = *raw.TotalPages
	}
	if raw.TotalRunners != nil {
		meta.TotalRunners = *raw.TotalRunners
	}
	if t, err := time.Parse(time.RFC3339, raw.StartedAt); err == nil {
		meta.StartedAt = t
	}
	if t, err := time.Parse(time.RFC3339, raw.FinishedAt); err == nil {
		meta.FinishedAt = t
	}
	if meta.ElapsedMs == 0 && !meta.StartedAt.IsZero() && !meta.FinishedAt.IsZero() {
		meta.ElapsedMs = meta.FinishedAt.Sub(meta.StartedAt).Milliseconds()
	}
	return meta
}

// ValidateRaw rejects structurally invalid input before any processing
// starts. An audit item without an identifier cannot be aggregated and is a
// fatal data error, unlike a merely incomplete page.
func ValidateRaw(raw *schemas.RawAuditResult) error {
	for i := range raw.Pages {
		for j := range raw.Pages[i].Audits {
			if raw.Pages[i].Audits[j].ID == "" {
				return fmt.Errorf("page %q: audit item %d has no identifier", raw.Pages[i].Path, j)
			}
		}
	}
	return nil
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func derefInt(i *int64) int64 {
	if i == nil {
		return 0
	}
	return *i
}

func normalizeDevice(d string) schemas.Device {
	if schemas.Device(d) == schemas.DeviceDesktop {
		return schemas.DeviceDesktop
	}
	// The collector defaults to mobile emulation; so do we.
	return schemas.DeviceMobile
}
