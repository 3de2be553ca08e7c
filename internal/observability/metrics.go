package observability

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts optimize runs and their outcomes.
type Metrics struct {
	runsTotal    atomic.Int64
	runsMerged   atomic.Int64
	runsRejected atomic.Int64
	runsShared   atomic.Int64

	mu           sync.Mutex
	rejections   map[string]int64 // by stage
	durations    []time.Duration
	maxDurations int
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	RunsTotal     int64            `json:"runs_total"`
	RunsMerged    int64            `json:"runs_merged"`
	RunsRejected  int64            `json:"runs_rejected"`
	RunsShared    int64            `json:"runs_shared"`
	Rejections    map[string]int64 `json:"rejections_by_stage"`
	AvgDurationMs int64            `json:"avg_duration_ms"`
	P95DurationMs int64            `json:"p95_duration_ms"`
}

// NewMetrics creates a new metrics collector keeping the last maxDurations
// run durations.
func NewMetrics(maxDurations int) *Metrics {
	if maxDurations <= 0 {
		maxDurations = 1000 // Default to keeping last 1000 durations
	}
	return &Metrics{
		rejections:   make(map[string]int64),
		durations:    make([]time.Duration, 0, maxDurations),
		maxDurations: maxDurations,
	}
}

// RecordRun records the start of a model call.
func (m *Metrics) RecordRun() {
	m.runsTotal.Add(1)
}

// RecordShared records a caller that joined an in-flight run.
func (m *Metrics) RecordShared() {
	m.runsShared.Add(1)
}

// RecordMerged records a run whose revision was merged and saved.
func (m *Metrics) RecordMerged(duration time.Duration) {
	m.runsMerged.Add(1)
	m.recordDuration(duration)
}

// RecordRejected records a run rejected at stage.
func (m *Metrics) RecordRejected(stage string, duration time.Duration) {
	m.runsRejected.Add(1)
	m.mu.Lock()
	m.rejections[stage]++
	m.mu.Unlock()
	m.recordDuration(duration)
}

func (m *Metrics) recordDuration(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.durations) >= m.maxDurations {
		// Remove oldest duration (FIFO)
		m.durations = m.durations[1:]
	}
	m.durations = append(m.durations, d)
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		RunsTotal:    m.runsTotal.Load(),
		RunsMerged:   m.runsMerged.Load(),
		RunsRejected: m.runsRejected.Load(),
		RunsShared:   m.runsShared.Load(),
		Rejections:   make(map[string]int64, len(m.rejections)),
	}
	for stage, n := range m.rejections {
		snap.Rejections[stage] = n
	}

	if len(m.durations) > 0 {
		sorted := append([]time.Duration(nil), m.durations...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		var total time.Duration
		for _, d := range sorted {
			total += d
		}
		snap.AvgDurationMs = (total / time.Duration(len(sorted))).Milliseconds()
		// Nearest rank.
		snap.P95DurationMs = sorted[(len(sorted)*95+99)/100-1].Milliseconds()
	}
	return snap
}
