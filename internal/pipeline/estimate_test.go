// File: internal/pipeline/estimate_test.go
package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/pipeline"
)

func TestEstimateBytes_GrowsWithContent(t *testing.T) {
	small := syntheticRun(10)
	large := syntheticRun(100)

	assert.Greater(t, pipeline.EstimateBytes(small), uint64(0))
	assert.Greater(t, pipeline.EstimateBytes(large), pipeline.EstimateBytes(small))
}

func TestEstimateBytes_IsDeterministic(t *testing.T) {
	raw := syntheticRun(25)
	assert.Equal(t, pipeline.EstimateBytes(raw), pipeline.EstimateBytes(raw))
}

func TestEstimateBytes_CountsNestedDetail(t *testing.T) {
	base := &schemas.RawAuditResult{Pages: []schemas.RawPageResult{{Path: "/", Audits: []schemas.RawAuditItem{{ID: "unused-javascript"}}}}}
	baseline := pipeline.EstimateBytes(base)

	base.Pages[0].Audits[0].Resources = []schemas.RawResource{{URL: "https://cdn.example.com/app.js"}}
	base.Pages[0].Audits[0].Advice = []string{"Split the bundle"}
	withDetail := pipeline.EstimateBytes(base)
	assert.Greater(t, withDetail, baseline)

	base.Pages[0].Opps = []schemas.RawOpportunity{{ID: "modern-image-formats", Title: "Serve modern image formats"}}
	assert.Greater(t, pipeline.EstimateBytes(base), withDetail)
}
