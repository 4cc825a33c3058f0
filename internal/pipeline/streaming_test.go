// File: internal/pipeline/streaming_test.go
package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/signalerhq/signaler/api/schemas"
	"github.com/signalerhq/signaler/internal/config"
	"github.com/signalerhq/signaler/internal/memwatch"
)

func msPtr(v float64) *float64 { return &v }

// The chunked fold must shed weight as it goes: once a chunk is folded,
// neither the decoded raw pages nor the retained summaries may still hold
// audit detail, while the recorded per-page counters survive.
func TestProcessStreaming_ReleasesFoldedChunks(t *testing.T) {
	g := &Generator{
		logger: zap.NewNop(),
		monitor: memwatch.NewMonitor(config.MemoryConfig{
			MaxHeapBytes:      1 << 40,
			WarningFraction:   0.70,
			EmergencyFraction: 0.90,
			SampleInterval:    time.Hour,
			MinGCInterval:     time.Hour,
		}, zap.NewNop()),
	}

	raw := &schemas.RawAuditResult{}
	for i := 0; i < 10; i++ {
		raw.Pages = append(raw.Pages, schemas.RawPageResult{
			Path:   fmt.Sprintf("/page-%d", i),
			Scores: &schemas.RawScores{Performance: msPtr(55)},
			Audits: []schemas.RawAuditItem{{
				ID:        "unused-javascript",
				Score:     msPtr(0.3),
				SavingsMs: msPtr(500),
			}},
		})
	}

	data, err := g.processStreaming(context.Background(), raw, config.StreamingConfig{
		ChunkSize:            4,
		NormalizeConcurrency: 2,
	})
	require.NoError(t, err)
	require.Len(t, data.Pages, 10)

	for i := range raw.Pages {
		assert.Empty(t, raw.Pages[i].Path, "raw page %d still populated", i)
		assert.Nil(t, raw.Pages[i].Audits, "raw page %d still holds audits", i)
	}

	for i := range data.Pages {
		page := &data.Pages[i]
		assert.Nil(t, page.Issues)
		assert.Equal(t, 1, page.TotalIssueCount())
		assert.Equal(t, 500.0, page.TotalIssueSavings().TimeMs)
	}
}
