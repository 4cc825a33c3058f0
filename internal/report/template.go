// File: internal/report/template.go

// Package report renders ProcessedAuditData into the report formats the
// caller requested and persists them through the batch writer. Templates are
// pure functions over the processed data plus the shared scoring utilities;
// no template recomputes aggregation on its own.
package report

import (
	"errors"
	"fmt"
	"sort"

	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/aggregate"
	"github.com/signalerhq/signaler/internal/config"
	"github.com/signalerhq/signaler/internal/history"
)

// Format identifies an output format family.
type Format string

// Supported output formats.
const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatHTML     Format = "html"
	FormatCSV      Format = "csv"
)

// ErrUnknownTemplate is returned when a requested template key is not
// registered. A missing template is a fatal configuration error: the run
// cannot produce what the caller asked for.
var ErrUnknownTemplate = errors.New("unknown report template")

// ErrUnknownFormat is returned for a format string outside the closed set.
var ErrUnknownFormat = errors.New("unknown report format")

// Template is the single capability every report implementation exposes.
// Callers select templates by registry key, never by concrete type.
type Template interface {
	// Name is the stable registry key, e.g. "quick-fixes".
	Name() string
	// Format is the output format family the template renders.
	Format() Format
	// Filename is the well-known output filename.
	Filename() string
	// Generate renders the report body from processed data.
	Generate(data *schemas.ProcessedAuditData) ([]byte, error)
}

// Registry maps template keys to implementations. All built-ins register at
// construction; the set is fixed for the lifetime of the registry.
type Registry struct {
	templates map[string]Template
}

// NewRegistry builds a registry with every built-in template, wired to the
// shared scorer and presentation config. The optional trend carries the
// delta against the previous run for the dashboard.
func NewRegistry(scorer *aggregate.Scorer, cfg config.ReportConfig, trend *history.Delta) *Registry {
	r := &Registry{templates: make(map[string]Template)}

	for _, tpl := range []Template{
		&summaryTemplate{scorer: scorer, cfg: cfg},
		&quickFixesTemplate{scorer: scorer, cfg: cfg},
		&triageTemplate{scorer: scorer, cfg: cfg},
		&dashboardTemplate{scorer: scorer, cfg: cfg, trend: trend},
		&analysisTemplate{scorer: scorer},
		&performanceSummaryTemplate{scorer: scorer, cfg: cfg},
		&cicdTemplate{cfg: cfg},
		&webhookTemplate{scorer: scorer},
		&htmlTemplate{scorer: scorer, cfg: cfg},
		&csvTemplate{scorer: scorer},
	} {
		r.templates[tpl.Name()] = tpl
	}
	return r
}

// Lookup resolves a template key. Missing keys are fatal configuration
// errors, distinct from recoverable per-page data gaps.
func (r *Registry) Lookup(name string) (Template, error) {
	tpl, ok := r.templates[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTemplate, name)
	}
	return tpl, nil
}

// Names returns the registered template keys in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.templates))
	for name := range r.templates {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ForFormat returns every registered template of one format, sorted by name.
func (r *Registry) ForFormat(format Format) []Template {
	var out []Template
	for _, name := range r.Names() {
		if tpl := r.templates[name]; tpl.Format() == format {
			out = append(out, tpl)
		}
	}
	return out
}

// ParseFormat validates a format string from the CLI or config.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatMarkdown, FormatJSON, FormatHTML, FormatCSV:
		return Format(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}
