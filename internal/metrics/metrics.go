// Package metrics provides application-level metrics collection.
// This is a lightweight metrics foundation using atomic counters.
// For production observability, consider integrating with Prometheus or similar.
package metrics

import (
	"time"

	"go.uber.org/atomic"
)

// Metrics holds application metrics using atomic counters for thread safety.
type Metrics struct {
	// Engine channel metrics
	engineCallsTotal   atomic.Int64
	engineErrorsTotal  atomic.Int64
	engineLatencyNanos atomic.Int64

	// Orchestration metrics
	loadOpsTotal   atomic.Int64
	loadOpsErrors  atomic.Int64
	switchOpsTotal atomic.Int64
	quarantines    atomic.Int64

	// Cache metrics
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
}

// New creates an empty metrics collector. Components receive it by
// injection from the composition root.
func New() *Metrics {
	return &Metrics{}
}

// RecordEngineCall records an engine call with its duration and outcome.
func (m *Metrics) RecordEngineCall(duration time.Duration, err error) {
	m.engineCallsTotal.Add(1)
	m.engineLatencyNanos.Add(duration.Nanoseconds())
	if err != nil {
		m.engineErrorsTotal.Add(1)
	}
}

// RecordLoadOp records a wallet load/create operation.
func (m *Metrics) RecordLoadOp(err error) {
	m.loadOpsTotal.Add(1)
	if err != nil {
		m.loadOpsErrors.Add(1)
	}
}

// RecordSwitch records a wallet switch attempt.
func (m *Metrics) RecordSwitch() {
	m.switchOpsTotal.Add(1)
}

// RecordQuarantine records a corrupted-credential quarantine.
func (m *Metrics) RecordQuarantine() {
	m.quarantines.Add(1)
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// Snapshot is a point-in-time copy of all metrics.
type Snapshot struct {
	EngineCallsTotal   int64
	EngineErrorsTotal  int64
	EngineLatencyNanos int64
	LoadOpsTotal       int64
	LoadOpsErrors      int64
	SwitchOpsTotal     int64
	Quarantines        int64
	CacheHits          int64
	CacheMisses        int64
}

// Snapshot returns a point-in-time copy of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		EngineCallsTotal:   m.engineCallsTotal.Load(),
		EngineErrorsTotal:  m.engineErrorsTotal.Load(),
		EngineLatencyNanos: m.engineLatencyNanos.Load(),
		LoadOpsTotal:       m.loadOpsTotal.Load(),
		LoadOpsErrors:      m.loadOpsErrors.Load(),
		SwitchOpsTotal:     m.switchOpsTotal.Load(),
		Quarantines:        m.quarantines.Load(),
		CacheHits:          m.cacheHits.Load(),
		CacheMisses:        m.cacheMisses.Load(),
	}
}

// EngineLatencyAvgMs returns the average engine call latency in
// milliseconds. Returns 0 if no calls have been made.
func (m *Metrics) EngineLatencyAvgMs() float64 {
	calls := m.engineCallsTotal.Load()
	if calls == 0 {
		return 0
	}
	return float64(m.engineLatencyNanos.Load()) / float64(calls) / 1e6
}
