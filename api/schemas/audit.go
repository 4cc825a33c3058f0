// File: api/schemas/audit.go
package schemas

// -- Per-Page Audit Schemas --

// CategoryScores holds the four 0-100 category scores measured for a page.
type CategoryScores struct {
	Performance   float64 `json:"performance"`
	Accessibility float64 `json:"accessibility"`
	BestPractices float64 `json:"best_practices"`
	SEO           float64 `json:"seo"`
}

// CoreMetrics holds the core timing and stability metrics for a page.
// Timings are milliseconds; CLS is the unitless cumulative layout shift.
type CoreMetrics struct {
	LCPMs float64 `json:"lcp_ms"` // Largest Contentful Paint.
	FCPMs float64 `json:"fcp_ms"` // First Contentful Paint.
	TBTMs float64 `json:"tbt_ms"` // Total Blocking Time.
	CLS   float64 `json:"cls"`    // Cumulative Layout Shift.
}

// Resource describes a single asset contributing to an issue.
type Resource struct {
	URL       string `json:"url"`
	Type      string `json:"type"`
	SizeBytes int64  `json:"size_bytes"`
}

// Savings is the estimated improvement from fixing an issue.
type Savings struct {
	TimeMs float64 `json:"time_ms"`
	Bytes  int64   `json:"bytes"`
}

// Add returns the element-wise sum of two savings values. Summation happens
// in full precision; rounding is strictly a presentation concern.
func (s Savings) Add(other Savings) Savings {
	return Savings{TimeMs: s.TimeMs + other.TimeMs, Bytes: s.Bytes + other.Bytes}
}

// Issue is a single detected defect on one page. The identifier is a stable
// string key shared across pages (e.g. "unused-javascript") and is the join
// key for cross-page aggregation.
type Issue struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    Severity `json:"severity"`
	Category    Category `json:"category"`

	// Resources lists the assets implicated in this issue, if any.
	Resources []Resource `json:"resources,omitempty"`

	// Savings is the estimated improvement for this page alone.
	Savings Savings `json:"savings"`

	// Recommendations are ordered, human-readable fix suggestions.
	Recommendations []string `json:"recommendations,omitempty"`
}

// Opportunity is a suggested improvement distinct from a failed check,
// carrying only estimated savings.
type Opportunity struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Savings Savings `json:"savings"`
}

// PageAuditResult is the normalized result of auditing one page on one
// device. It is created once per raw collector result and is immutable
// after normalization.
type PageAuditResult struct {
	Label  string `json:"label"`
	Path   string `json:"path"`
	Device Device `json:"device"`

	Scores  CategoryScores `json:"scores"`
	Metrics CoreMetrics    `json:"metrics"`

	Issues        []Issue       `json:"issues"`
	Opportunities []Opportunity `json:"opportunities"`

	// IssueCount, CriticalCount and IssueSavings are recorded at
	// normalization time. While Issues is present they match it exactly; a
	// streaming run releases the issue lists of retained pages, and these
	// counters then stand in for ranked views.
	IssueCount    int     `json:"issue_count"`
	CriticalCount int     `json:"critical_count"`
	IssueSavings  Savings `json:"issue_savings"`

	// Failed marks a page whose measurement could not complete. Failed pages
	// carry zeroed scores/metrics and empty issue lists; they never abort a run.
	Failed bool `json:"failed,omitempty"`
}

// CriticalIssueCount returns the number of critical issues on the page. A nil
// issue list means the detail was released; the recorded count stands in.
func (p *PageAuditResult) CriticalIssueCount() int {
	if p.Issues == nil {
		return p.CriticalCount
	}
	n := 0
	for i := range p.Issues {
		if p.Issues[i].Severity == SeverityCritical {
			n++
		}
	}
	return n
}

// TotalIssueCount returns the number of issues on the page, surviving a
// released issue list the same way CriticalIssueCount does.
func (p *PageAuditResult) TotalIssueCount() int {
	if p.Issues == nil {
		return p.IssueCount
	}
	return len(p.Issues)
}

// TotalIssueSavings sums the estimated savings across the page's issues.
func (p *PageAuditResult) TotalIssueSavings() Savings {
	if p.Issues == nil {
		return p.IssueSavings
	}
	var total Savings
	for i := range p.Issues {
		total = total.Add(p.Issues[i].Savings)
	}
	return total
}
