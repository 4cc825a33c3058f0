// File: internal/memwatch/monitor.go

// Package memwatch tracks heap usage during report generation and drives the
// graceful-degradation policy: proactive garbage collection under pressure
// and a downgrade to streaming when the heap budget cannot be recovered.
// Memory pressure never fails a run; it only makes one slower.
package memwatch

import (
	"context"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"github.com/signalerhq/signaler/internal/config"
	"go.uber.org/zap"
)

// State is the monitor's position in its per-run state machine:
// Idle -> Monitoring -> {Normal, Warning, Emergency} -> Idle.
type State int

// Monitor states. Warning and Emergency both trigger a proactive collection;
// Emergency always collects before the monitor transitions back.
const (
	StateIdle State = iota
	StateMonitoring
	StateNormal
	StateWarning
	StateEmergency
)

// String returns the lowercase state name for logging.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateMonitoring:
		return "monitoring"
	case StateNormal:
		return "normal"
	case StateWarning:
		return "warning"
	case StateEmergency:
		return "emergency"
	default:
		return "unknown"
	}
}

// HeapStats is one heap snapshot plus the monitor's interpretation of it.
type HeapStats struct {
	Alloc   uint64
	Peak    uint64
	GCCount uint32
	State   State
}

// Monitor watches the heap for one report-generation call at a time. The
// process-wide heap snapshot is the only state shared across concurrent
// generation calls, so all access is mutex-guarded.
type Monitor struct {
	mu     sync.Mutex
	cfg    config.MemoryConfig
	logger *zap.Logger

	state    State
	alloc    uint64
	peak     uint64
	gcCount  uint32
	lastGC   time.Time
	degraded bool // set when a forced collection failed to relieve pressure
	stopChan chan struct{}
	stopOnce sync.Once
	sampling bool
}

// NewMonitor creates an idle monitor.
func NewMonitor(cfg config.MemoryConfig, logger *zap.Logger) *Monitor {
	return &Monitor{
		cfg:    cfg,
		logger: logger.Named("memwatch"),
		state:  StateIdle,
	}
}

// Begin transitions Idle -> Monitoring and starts periodic heap sampling.
// It is a no-op if the monitor is already running.
func (m *Monitor) Begin(ctx context.Context) {
	m.mu.Lock()
	if m.sampling {
		m.mu.Unlock()
		return
	}
	m.state = StateMonitoring
	m.degraded = false
	m.peak = 0
	m.sampling = true
	m.stopChan = make(chan struct{})
	m.stopOnce = sync.Once{}
	m.mu.Unlock()

	m.Check()
	go m.sampleLoop(ctx)
}

// End stops sampling and returns the monitor to Idle.
func (m *Monitor) End() {
	m.mu.Lock()
	stop := m.stopChan
	m.state = StateIdle
	m.sampling = false
	m.mu.Unlock()

	if stop != nil {
		m.stopOnce.Do(func() { close(stop) })
	}
}

func (m *Monitor) sampleLoop(ctx context.Context) {
	interval := m.cfg.SampleInterval
	if interval <= 0 {
		interval = 250 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.stopChan:
			return
		case <-ticker.C:
			m.Check()
		}
	}
}

// Check takes a heap snapshot, updates the state machine, and applies the
// pressure policy. It is also called synchronously at chunk boundaries so
// the chunked processor reacts without waiting for the next tick.
func (m *Monitor) Check() HeapStats {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	m.mu.Lock()
	defer m.mu.Unlock()

	// A check racing End must not resurrect a classification state after the
	// monitor has gone idle.
	if !m.sampling {
		return HeapStats{Alloc: m.alloc, Peak: m.peak, GCCount: m.gcCount, State: m.state}
	}

	m.alloc = stats.HeapAlloc
	if stats.HeapAlloc > m.peak {
		m.peak = stats.HeapAlloc
	}
	m.gcCount = stats.NumGC

	prev := m.state
	m.state = m.classifyLocked(stats.HeapAlloc)

	switch m.state {
	case StateWarning:
		if prev != StateWarning {
			m.logger.Warn("Heap usage above warning threshold",
				zap.Uint64("alloc_bytes", stats.HeapAlloc),
				zap.Uint64("budget_bytes", m.cfg.MaxHeapBytes))
		}
		m.maybeCollectLocked(false)
	case StateEmergency:
		m.logger.Warn("Heap usage above emergency threshold, forcing collection",
			zap.Uint64("alloc_bytes", stats.HeapAlloc),
			zap.Uint64("budget_bytes", m.cfg.MaxHeapBytes))
		// Emergency always collects before transitioning back to Monitoring.
		m.maybeCollectLocked(true)
	}

	return HeapStats{Alloc: m.alloc, Peak: m.peak, GCCount: m.gcCount, State: m.state}
}

// classifyLocked maps an allocation to a pressure state against the budget.
func (m *Monitor) classifyLocked(alloc uint64) State {
	ratio := float64(alloc) / float64(m.cfg.MaxHeapBytes)
	switch {
	case ratio >= m.cfg.EmergencyFraction:
		return StateEmergency
	case ratio >= m.cfg.WarningFraction:
		return StateWarning
	default:
		return StateNormal
	}
}

// maybeCollectLocked forces a collection, rate-limited by MinGCInterval
// unless forced. If the heap remains above the warning threshold afterwards
// the monitor marks itself degraded, which downgrades further work to
// streaming regardless of page count.
func (m *Monitor) maybeCollectLocked(force bool) {
	if !force && m.cfg.MinGCInterval > 0 && time.Since(m.lastGC) < m.cfg.MinGCInterval {
		return
	}

	runtime.GC()
	debug.FreeOSMemory()
	m.lastGC = time.Now()

	var after runtime.MemStats
	runtime.ReadMemStats(&after)
	m.alloc = after.HeapAlloc
	m.gcCount = after.NumGC

	if m.classifyLocked(after.HeapAlloc) >= StateWarning {
		if !m.degraded {
			m.logger.Warn("Heap still critical after forced collection, degrading to streaming",
				zap.Uint64("alloc_bytes", after.HeapAlloc))
		}
		m.degraded = true
	}
}

// ForceGC requests an immediate collection, bypassing the rate limit.
func (m *Monitor) ForceGC() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maybeCollectLocked(true)
}

// Snapshot returns the most recent heap stats without sampling.
func (m *Monitor) Snapshot() HeapStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return HeapStats{Alloc: m.alloc, Peak: m.peak, GCCount: m.gcCount, State: m.state}
}

// State returns the current state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Degraded reports whether a forced collection failed to relieve pressure
// during this run.
func (m *Monitor) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// ShouldStream decides between the standard and streaming generation paths.
// Streaming is selected when the page count exceeds the configured threshold,
// when the estimated dataset size exceeds the budget fraction of the heap
// budget, or when the monitor has already degraded this run.
func (m *Monitor) ShouldStream(estimatedBytes uint64, pageCount int, cfg config.StreamingConfig) bool {
	if pageCount > cfg.PageThreshold {
		return true
	}
	budget := uint64(float64(m.cfg.MaxHeapBytes) * cfg.BudgetFraction)
	if estimatedBytes > budget {
		return true
	}
	return m.Degraded()
}
