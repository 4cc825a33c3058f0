// File: internal/normalize/classify.go
package normalize

import (
	"strings"

	"github.com/signalerhq/signaler/api/schemas"
)

// categoryRule maps an identifier token, or a hyphenated token sequence, to a
// category. Rules are checked in order; the first match wins, so the more
// specific sequences come first.
type categoryRule struct {
	token    string
	category schemas.Category
}

// categoryRules is the closed classification table. Category is a pure
// function of the audit identifier; nothing downstream may override it.
var categoryRules = []categoryRule{
	{"unused-css", schemas.CategoryCSS},
	{"javascript", schemas.CategoryJavaScript},
	{"js", schemas.CategoryJavaScript},
	{"script", schemas.CategoryJavaScript},
	{"css", schemas.CategoryCSS},
	{"style", schemas.CategoryCSS},
	{"font", schemas.CategoryCSS},
	{"image", schemas.CategoryImages},
	{"img", schemas.CategoryImages},
	{"picture", schemas.CategoryImages},
	{"cache", schemas.CategoryCaching},
	{"ttl", schemas.CategoryCaching},
	{"network", schemas.CategoryNetwork},
	{"request", schemas.CategoryNetwork},
	{"redirect", schemas.CategoryNetwork},
	{"server", schemas.CategoryNetwork},
	{"preconnect", schemas.CategoryNetwork},
	{"aria", schemas.CategoryAccessibility},
	{"a11y", schemas.CategoryAccessibility},
	{"contrast", schemas.CategoryAccessibility},
	{"label", schemas.CategoryAccessibility},
	{"alt-text", schemas.CategoryAccessibility},
	{"tab-index", schemas.CategoryAccessibility},
	{"seo", schemas.CategorySEO},
	{"meta", schemas.CategorySEO},
	{"crawl", schemas.CategorySEO},
	{"canonical", schemas.CategorySEO},
	{"hreflang", schemas.CategorySEO},
}

// pageCriticalAudits is the set of audit identifiers that measure a core
// user-facing metric. A badly failing score on one of these is critical
// rather than merely high.
var pageCriticalAudits = map[string]struct{}{
	"largest-contentful-paint":         {},
	"total-blocking-time":              {},
	"cumulative-layout-shift":          {},
	"first-contentful-paint":           {},
	"interactive":                      {},
	"speed-index":                      {},
	"render-blocking-resources":        {},
	"mainthread-work-breakdown":        {},
	"bootup-time":                      {},
	"largest-contentful-paint-element": {},
}

// ClassifyCategory derives the category for an audit identifier. Matching is
// on whole hyphen-delimited tokens, never bare substrings, so "script" does
// not fire inside "description". Identifiers matching no rule fall into
// best-practices.
func ClassifyCategory(auditID string) schemas.Category {
	id := strings.ToLower(auditID)
	delimited := "-" + id + "-"
	tokens := strings.Split(id, "-")
	for _, rule := range categoryRules {
		if strings.Contains(rule.token, "-") {
			if strings.Contains(delimited, "-"+rule.token+"-") {
				return rule.category
			}
			continue
		}
		for _, tok := range tokens {
			if tok == rule.token {
				return rule.category
			}
		}
	}
	return schemas.CategoryBestPractices
}

// ClassifySeverity derives severity from the audit identifier and its 0-1
// score. A score below 0.5 on a page-critical metric audit is critical;
// below 0.5 otherwise is high; below 0.9 is medium; everything else is low.
// A missing score is treated as a full failure.
func ClassifySeverity(auditID string, score *float64) schemas.Severity {
	s := 0.0
	if score != nil {
		s = *score
	}

	if s < 0.5 {
		if _, critical := pageCriticalAudits[strings.ToLower(auditID)]; critical {
			return schemas.SeverityCritical
		}
		return schemas.SeverityHigh
	}
	if s < 0.9 {
		return schemas.SeverityMedium
	}
	return schemas.SeverityLow
}
