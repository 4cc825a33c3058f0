// File: internal/pipeline/estimate.go
package pipeline

import "github.com/signalerhq/signaler/api/schemas"

// Per-element costs for the structural size estimate. These approximate the
// in-memory footprint of the normalized representation, not the JSON text;
// the estimate only has to be proportional, the budget fraction absorbs the
// slack.
const (
	pageBaseCost     = 2048
	auditBaseCost    = 512
	resourceBaseCost = 128
	adviceBaseCost   = 96
)

// EstimateBytes computes a structural estimate of the normalized dataset
// size from the raw input. It walks counts, not content, so it is cheap even
// for very large runs and fully deterministic.
func EstimateBytes(raw *schemas.RawAuditResult) uint64 {
	var total uint64
	for i := range raw.Pages {
		page := &raw.Pages[i]
		total += pageBaseCost + uint64(len(page.Path)+len(page.Label))
		for j := range page.Audits {
			audit := &page.Audits[j]
			total += auditBaseCost + uint64(len(audit.Title)+len(audit.Description))
			total += uint64(len(audit.Resources)) * resourceBaseCost
			for _, r := range audit.Resources {
				total += uint64(len(r.URL))
			}
			for _, a := range audit.Advice {
				total += adviceBaseCost + uint64(len(a))
			}
		}
		for j := range page.Opps {
			total += auditBaseCost + uint64(len(page.Opps[j].Title))
		}
	}
	return total
}
