// File: api/schemas/raw.go
package schemas

// -- Collector Wire Schemas --
//
// The measurement collector is an external tool; its output is looser than
// the normalized model. Numeric fields are pointers so that an absent value
// is distinguishable from an explicit zero, and the normalizer can default
// missing data instead of failing a page.

// RawAuditResult is the top-level document the collector emits for one run.
type RawAuditResult struct {
	ConfigPath    string          `json:"config_path,omitempty"`
	StartedAt     string          `json:"started_at,omitempty"`
	FinishedAt    string          `json:"finished_at,omitempty"`
	ElapsedMs     *int64          `json:"elapsed_ms,omitempty"`
	TotalPages    *int            `json:"total_pages,omitempty"`
	TotalRunners  *int            `json:"total_runners,omitempty"`
	EngineVersion string          `json:"engine_version,omitempty"`
	Pages         []RawPageResult `json:"pages"`
}

// RawPageResult is one page x device measurement as the collector reports it.
// A page whose audit failed carries Error and typically omits Scores/Metrics.
type RawPageResult struct {
	Label  string `json:"label,omitempty"`
	Path   string `json:"path"`
	Device string `json:"device,omitempty"`
	Error  string `json:"error,omitempty"`

	Scores  *RawScores       `json:"scores,omitempty"`
	Metrics *RawMetrics      `json:"metrics,omitempty"`
	Audits  []RawAuditItem   `json:"audits,omitempty"`
	Opps    []RawOpportunity `json:"opportunities,omitempty"`
}

// RawScores mirrors CategoryScores with optional fields.
type RawScores struct {
	Performance   *float64 `json:"performance,omitempty"`
	Accessibility *float64 `json:"accessibility,omitempty"`
	BestPractices *float64 `json:"best_practices,omitempty"`
	SEO           *float64 `json:"seo,omitempty"`
}

// RawMetrics mirrors CoreMetrics with optional fields.
type RawMetrics struct {
	LCPMs *float64 `json:"lcp_ms,omitempty"`
	FCPMs *float64 `json:"fcp_ms,omitempty"`
	TBTMs *float64 `json:"tbt_ms,omitempty"`
	CLS   *float64 `json:"cls,omitempty"`
}

// RawAuditItem is one flagged audit from the collector. Score is the 0-1
// audit score used for severity classification.
type RawAuditItem struct {
	ID          string        `json:"id"`
	Title       string        `json:"title,omitempty"`
	Description string        `json:"description,omitempty"`
	Score       *float64      `json:"score,omitempty"`
	SavingsMs   *float64      `json:"savings_ms,omitempty"`
	SavingsB    *int64        `json:"savings_bytes,omitempty"`
	Resources   []RawResource `json:"resources,omitempty"`
	Advice      []string      `json:"advice,omitempty"`
}

// RawResource is one asset reference inside a raw audit item.
type RawResource struct {
	URL       string `json:"url"`
	Type      string `json:"type,omitempty"`
	SizeBytes *int64 `json:"size_bytes,omitempty"`
}

// RawOpportunity is a suggested improvement with estimated savings only.
type RawOpportunity struct {
	ID        string   `json:"id"`
	Title     string   `json:"title,omitempty"`
	SavingsMs *float64 `json:"savings_ms,omitempty"`
	SavingsB  *int64   `json:"savings_bytes,omitempty"`
}
