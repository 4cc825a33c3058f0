// File: internal/aggregate/aggregate.go

// Package aggregate is the algorithmic core of report generation: it merges
// per-page issues into cross-page aggregates, computes run-level performance
// metrics, and houses the single shared priority-scoring formula every
// report template consumes.
package aggregate

import (
	"fmt"
	"sort"

	"github.com/signalerhq/signaler/api/schemas"
)

// occurrence is one issue hit on one page, retained un-summed so that
// finalization can fold contributions in a canonical order.
type occurrence struct {
	page   schemas.AffectedPage
	title  string
	desc   string
	sev    schemas.Severity
	cat    schemas.Category
	advice []string
}

// pageKey orders pages canonically. Aggregation totals must be byte-identical
// under any input permutation, and float addition is not associative, so the
// fold always runs in this key's sort order rather than arrival order.
type pageKey struct {
	path   string
	device schemas.Device
}

// Accumulator folds pages into running per-issue state. It supports the
// streaming path: chunks are added incrementally and the full aggregate is
// materialized only at Finalize. An Accumulator is not safe for concurrent
// use; the pipeline serializes Add calls per chunk.
type Accumulator struct {
	issues map[string]map[pageKey]*occurrence
	order  map[string]struct{} // ids seen, for cheap len()
}

// NewAccumulator returns an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{
		issues: make(map[string]map[pageKey]*occurrence),
		order:  make(map[string]struct{}),
	}
}

// Add folds one normalized page into the accumulator. An issue with an empty
// identifier is a structural data error and aborts the fold.
func (a *Accumulator) Add(page *schemas.PageAuditResult) error {
	key := pageKey{path: page.Path, device: page.Device}
	for i := range page.Issues {
		issue := &page.Issues[i]
		if issue.ID == "" {
			return fmt.Errorf("page %q: issue without identifier", page.Path)
		}

		byPage, ok := a.issues[issue.ID]
		if !ok {
			byPage = make(map[pageKey]*occurrence)
			a.issues[issue.ID] = byPage
			a.order[issue.ID] = struct{}{}
		}

		if existing, ok := byPage[key]; ok {
			// Same issue reported twice for one page: consolidate savings so
			// the page appears once in the aggregate.
			existing.page.Savings = existing.page.Savings.Add(issue.Savings)
			continue
		}
		byPage[key] = &occurrence{
			page: schemas.AffectedPage{
				Label:   page.Label,
				Path:    page.Path,
				Device:  page.Device,
				Savings: issue.Savings,
			},
			title:  issue.Title,
			desc:   issue.Description,
			sev:    issue.Severity,
			cat:    issue.Category,
			advice: issue.Recommendations,
		}
	}
	return nil
}

// Merge absorbs another accumulator's state, consolidating any page that
// appears in both. Used when chunks are folded independently.
func (a *Accumulator) Merge(other *Accumulator) {
	for id, byPage := range other.issues {
		dst, ok := a.issues[id]
		if !ok {
			a.issues[id] = byPage
			a.order[id] = struct{}{}
			continue
		}
		for key, occ := range byPage {
			if existing, ok := dst[key]; ok {
				existing.page.Savings = existing.page.Savings.Add(occ.page.Savings)
				continue
			}
			dst[key] = occ
		}
	}
}

// IssueCount returns the number of distinct issue identifiers seen so far.
func (a *Accumulator) IssueCount() int { return len(a.order) }

// Finalize materializes the aggregated issues. Affected pages are sorted by
// (path, device) and totals summed in that order, so any permutation of the
// same input produces identical output. Representative metadata (title,
// severity, category) comes from the canonically first affected page.
// The result is sorted by issue identifier; ranked views re-sort by priority.
func (a *Accumulator) Finalize() []schemas.AggregatedIssue {
	out := make([]schemas.AggregatedIssue, 0, len(a.issues))

	for id, byPage := range a.issues {
		keys := make([]pageKey, 0, len(byPage))
		for key := range byPage {
			keys = append(keys, key)
		}
		sort.Slice(keys, func(i, j int) bool {
			if keys[i].path != keys[j].path {
				return keys[i].path < keys[j].path
			}
			return keys[i].device < keys[j].device
		})

		rep := byPage[keys[0]]
		agg := schemas.AggregatedIssue{
			ID:              id,
			Title:           rep.title,
			Description:     rep.desc,
			Severity:        rep.sev,
			Category:        rep.cat,
			Recommendations: rep.advice,
			AffectedPages:   make([]schemas.AffectedPage, 0, len(keys)),
		}

		var total schemas.Savings
		for _, key := range keys {
			occ := byPage[key]
			agg.AffectedPages = append(agg.AffectedPages, occ.page)
			total = total.Add(occ.page.Savings)
		}
		agg.TotalSavings = total
		agg.AverageSavings = schemas.Savings{
			TimeMs: total.TimeMs / float64(len(keys)),
			Bytes:  total.Bytes / int64(len(keys)),
		}

		out = append(out, agg)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Aggregate builds the full aggregate set from a page slice in one shot.
// It is exactly equivalent to folding every page through an Accumulator.
func Aggregate(pages []schemas.PageAuditResult) ([]schemas.AggregatedIssue, error) {
	acc := NewAccumulator()
	for i := range pages {
		if err := acc.Add(&pages[i]); err != nil {
			return nil, err
		}
	}
	return acc.Finalize(), nil
}

// GlobalIssues filters an aggregate set down to issues affecting more than
// one page.
func GlobalIssues(issues []schemas.AggregatedIssue) []schemas.AggregatedIssue {
	global := make([]schemas.AggregatedIssue, 0, len(issues))
	for i := range issues {
		if issues[i].PageCount() > 1 {
			global = append(global, issues[i])
		}
	}
	return global
}
