/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com

Package core provides metrics collection for detector runs.
*/
package core

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects per-detector run statistics across cycles.
type Metrics struct {
	TotalCycles  atomic.Int64
	TotalRuns    atomic.Int64
	TotalSignals atomic.Int64
	TotalErrors  atomic.Int64
	TotalPanics  atomic.Int64

	totalDuration atomic.Int64 // nanoseconds

	mu       sync.RWMutex
	detector map[string]*detectorCounters
}

type detectorCounters struct {
	runs     atomic.Int64
	errors   atomic.Int64
	signals  atomic.Int64
	duration atomic.Int64
}

// NewMetrics creates an empty collector.
func NewMetrics() *Metrics {
	return &Metrics{detector: make(map[string]*detectorCounters)}
}

// RecordCycle counts one completed cycle.
func (m *Metrics) RecordCycle() {
	m.TotalCycles.Add(1)
}

// RecordRun records one detector invocation.
func (m *Metrics) RecordRun(name string, signals int, duration time.Duration, err error, panicked bool) {
	m.TotalRuns.Add(1)
	m.TotalSignals.Add(int64(signals))
	m.totalDuration.Add(int64(duration))

	c := m.counters(name)
	c.runs.Add(1)
	c.signals.Add(int64(signals))
	c.duration.Add(int64(duration))

	if err != nil {
		m.TotalErrors.Add(1)
		c.errors.Add(1)
	}
	if panicked {
		m.TotalPanics.Add(1)
	}
}

func (m *Metrics) counters(name string) *detectorCounters {
	m.mu.RLock()
	c, ok := m.detector[name]
	m.mu.RUnlock()
	if ok {
		return c
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok = m.detector[name]; !ok {
		c = &detectorCounters{}
		m.detector[name] = c
	}
	return c
}

// DetectorStats is the per-detector part of a snapshot.
type DetectorStats struct {
	Runs        int64         `json:"runs"`
	Errors      int64         `json:"errors"`
	Signals     int64         `json:"signals"`
	AvgDuration time.Duration `json:"avg_duration"`
}

// MetricsSnapshot is a point-in-time view of metrics.
type MetricsSnapshot struct {
	TotalCycles    int64                    `json:"total_cycles"`
	TotalRuns      int64                    `json:"total_runs"`
	TotalSignals   int64                    `json:"total_signals"`
	TotalErrors    int64                    `json:"total_errors"`
	TotalPanics    int64                    `json:"total_panics"`
	AvgRunDuration time.Duration            `json:"avg_run_duration"`
	Detectors      map[string]DetectorStats `json:"detectors"`
}

// Snapshot returns the current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := make(map[string]DetectorStats, len(m.detector))
	for name, c := range m.detector {
		runs := c.runs.Load()
		var avg time.Duration
		if runs > 0 {
			avg = time.Duration(c.duration.Load() / runs)
		}
		stats[name] = DetectorStats{
			Runs:        runs,
			Errors:      c.errors.Load(),
			Signals:     c.signals.Load(),
			AvgDuration: avg,
		}
	}

	runs := m.TotalRuns.Load()
	var avg time.Duration
	if runs > 0 {
		avg = time.Duration(m.totalDuration.Load() / runs)
	}

	return MetricsSnapshot{
		TotalCycles:    m.TotalCycles.Load(),
		TotalRuns:      runs,
		TotalSignals:   m.TotalSignals.Load(),
		TotalErrors:    m.TotalErrors.Load(),
		TotalPanics:    m.TotalPanics.Load(),
		AvgRunDuration: avg,
		Detectors:      stats,
	}
}
