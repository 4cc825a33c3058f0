// File: internal/memwatch/monitor_test.go
package memwatch_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/signalerhq/signaler/internal/config"
	"github.com/signalerhq/signaler/internal/memwatch"
)

func testMemConfig(budget uint64) config.MemoryConfig {
	return config.MemoryConfig{
		MaxHeapBytes:      budget,
		WarningFraction:   0.70,
		EmergencyFraction: 0.90,
		SampleInterval:    time.Hour, // ticks never fire in tests; checks are explicit
		MinGCInterval:     time.Hour, // rate-limited collections never fire either
	}
}

func TestMonitor_LifecycleStates(t *testing.T) {
	// A budget far above any test heap keeps the classification at Normal.
	m := memwatch.NewMonitor(testMemConfig(1<<40), zap.NewNop())
	assert.Equal(t, memwatch.StateIdle, m.State())

	m.Begin(context.Background())
	assert.Equal(t, memwatch.StateNormal, m.State())
	assert.False(t, m.Degraded())

	m.End()
	assert.Equal(t, memwatch.StateIdle, m.State())
}

func TestMonitor_EmergencyDegradesWhenBudgetUnrecoverable(t *testing.T) {
	// A one-byte budget cannot be recovered by any collection, so a check
	// must land in Emergency and leave the monitor degraded.
	m := memwatch.NewMonitor(testMemConfig(1), zap.NewNop())
	m.Begin(context.Background())
	defer m.End()

	stats := m.Check()
	assert.Equal(t, memwatch.StateEmergency, stats.State)
	assert.True(t, m.Degraded())
	assert.Greater(t, stats.Alloc, uint64(0))
	assert.GreaterOrEqual(t, stats.Peak, stats.Alloc)
}

func TestMonitor_SnapshotTracksPeak(t *testing.T) {
	m := memwatch.NewMonitor(testMemConfig(1<<40), zap.NewNop())
	m.Begin(context.Background())
	defer m.End()

	first := m.Check()
	snap := m.Snapshot()
	assert.GreaterOrEqual(t, snap.Peak, first.Alloc)
}

func TestMonitor_CheckAfterEndStaysIdle(t *testing.T) {
	m := memwatch.NewMonitor(testMemConfig(1), zap.NewNop())
	m.Begin(context.Background())
	m.End()

	// A sample racing End must not resurrect a classification state.
	stats := m.Check()
	assert.Equal(t, memwatch.StateIdle, stats.State)
	assert.Equal(t, memwatch.StateIdle, m.State())
}

func TestMonitor_StateString(t *testing.T) {
	assert.Equal(t, "idle", memwatch.StateIdle.String())
	assert.Equal(t, "monitoring", memwatch.StateMonitoring.String())
	assert.Equal(t, "normal", memwatch.StateNormal.String())
	assert.Equal(t, "warning", memwatch.StateWarning.String())
	assert.Equal(t, "emergency", memwatch.StateEmergency.String())
}

func TestShouldStream(t *testing.T) {
	streamCfg := config.StreamingConfig{PageThreshold: 50, BudgetFraction: 0.80}
	m := memwatch.NewMonitor(testMemConfig(1000), zap.NewNop())

	// At or below every limit: standard path.
	assert.False(t, m.ShouldStream(100, 50, streamCfg))

	// Page count strictly above the threshold.
	assert.True(t, m.ShouldStream(100, 51, streamCfg))

	// Estimated size above 80% of the 1000-byte budget.
	assert.False(t, m.ShouldStream(800, 10, streamCfg))
	assert.True(t, m.ShouldStream(801, 10, streamCfg))
}

func TestShouldStream_DegradedForcesStreaming(t *testing.T) {
	streamCfg := config.StreamingConfig{PageThreshold: 50, BudgetFraction: 0.80}

	m := memwatch.NewMonitor(testMemConfig(1), zap.NewNop())
	m.Begin(context.Background()) // the first check cannot recover the budget
	defer m.End()
	assert.True(t, m.Degraded())
	assert.True(t, m.ShouldStream(0, 1, streamCfg))
}
