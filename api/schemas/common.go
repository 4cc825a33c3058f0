// File: api/schemas/common.go
package schemas

// -- Shared Enumerations --

// Device identifies the emulated device class a page was audited on.
// The values are lowercase to match the collector's wire format.
type Device string

// Constants defining the supported device classes.
const (
	DeviceMobile  Device = "mobile"  // Mobile emulation (throttled CPU/network).
	DeviceDesktop Device = "desktop" // Desktop emulation.
)

// Severity represents the severity level of an audit issue, ranging from
// critical to low. Severity is always derived from the issue identifier and
// its audit score, never set ad hoc by a report author.
type Severity string

// Constants defining the standard severity levels for issues.
const (
	SeverityCritical Severity = "critical" // Directly degrades a core user-facing metric.
	SeverityHigh     Severity = "high"     // Failing audit with significant impact.
	SeverityMedium   Severity = "medium"   // Partially failing audit.
	SeverityLow      Severity = "low"      // Passing or near-passing audit.
)

// Category classifies the area of the page an issue belongs to. Like Severity,
// the category is a pure function of the issue identifier.
type Category string

// Constants defining the closed set of issue categories.
const (
	CategoryJavaScript    Category = "javascript"     // Script size, execution, unused code.
	CategoryCSS           Category = "css"            // Stylesheet size and render blocking.
	CategoryImages        Category = "images"         // Image formats, sizing, lazy loading.
	CategoryCaching       Category = "caching"        // Cache policies and asset lifetimes.
	CategoryNetwork       Category = "network"        // Requests, redirects, server latency.
	CategoryAccessibility Category = "accessibility"  // ARIA, contrast, semantics.
	CategorySEO           Category = "seo"            // Crawlability and metadata.
	CategoryBestPractices Category = "best-practices" // Everything else.
)

// SeverityRank maps a severity to its ordinal rank, with critical highest.
// Unknown severities rank zero so they sort last and carry no scoring weight.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	default:
		return 0
	}
}
