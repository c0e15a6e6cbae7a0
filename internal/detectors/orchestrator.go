/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/

// Package detectors runs an anticipation cycle: every enabled detector in
// parallel over one snapshot, followed by priority synthesis.
package detectors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors/core"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/priority"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// DetectorRun is the diagnostic record of one detector in one cycle.
type DetectorRun struct {
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
	Count    int           `json:"count"`
	Failure  bool          `json:"failed,omitempty"`
	Err      string        `json:"error,omitempty"`
	Panicked bool          `json:"panicked,omitempty"`
}

// Failed reports whether the detector errored or panicked. An error with an
// empty message still counts.
func (r DetectorRun) Failed() bool { return r.Failure }

// AnticipationResult is the outcome of one cycle.
type AnticipationResult struct {
	Signals            []signal.Signal `json:"signals"`
	PrioritizedSignals []signal.Signal `json:"prioritizedSignals"`
	RunDuration        int64           `json:"runDuration"`
	Timestamp          string          `json:"timestamp"`
	ServicesRun        []string        `json:"servicesRun"`
	Diagnostics        []DetectorRun   `json:"diagnostics"`
}

// Orchestrator fans a snapshot out to the enabled detectors of a registry.
type Orchestrator struct {
	registry *core.Registry
	metrics  *core.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMetrics records detector runs into m.
func WithMetrics(m *core.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger used for detector failures.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides the wall clock used for timing and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator creates an orchestrator over reg.
func NewOrchestrator(reg *core.Registry, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		registry: reg,
		metrics:  core.NewMetrics(),
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Metrics returns the collector the orchestrator records into.
func (o *Orchestrator) Metrics() *core.Metrics { return o.metrics }

// RunCycle runs every enabled detector concurrently and synthesizes the
// results. A failing detector is logged and left out of ServicesRun; it
// never fails the cycle.
func (o *Orchestrator) RunCycle(ctx context.Context, snap *snapshot.Context) AnticipationResult {
	start := o.now()
	if snap == nil {
		snap = &snapshot.Context{}
	}

	enabled := o.registry.Enabled()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		signals  = make([]signal.Signal, 0)
		services = make([]string, 0, len(enabled))
		runs     = make([]DetectorRun, len(enabled))
	)

	for i, d := range enabled {
		wg.Add(1)
		go func(idx int, d core.Detector) {
			defer wg.Done()

			run, out := o.runOne(ctx, d, snap)
			runs[idx] = run
			if run.Failed() {
				return
			}

			mu.Lock()
			signals = append(signals, out...)
			services = append(services, d.Name())
			mu.Unlock()
		}(i, d)
	}

	wg.Wait()
	o.metrics.RecordCycle()

	return AnticipationResult{
		Signals:            signals,
		PrioritizedSignals: priority.Synthesize(signals, snap),
		RunDuration:        o.now().Sub(start).Milliseconds(),
		Timestamp:          start.UTC().Format(time.RFC3339Nano),
		ServicesRun:        services,
		Diagnostics:        runs,
	}
}

func (o *Orchestrator) runOne(ctx context.Context, d core.Detector, snap *snapshot.Context) (run DetectorRun, out []signal.Signal) {
	name := d.Name()
	start := o.now()
	run.Name = name

	defer func() {
		if r := recover(); r != nil {
			run.Panicked = true
			run.Failure = true
			run.Err = fmt.Sprintf("panic: %v", r)
			out = nil
			o.logger.Error("detector panicked",
				"detector", name,
				"panic", r,
				"stack", string(debug.Stack()))
		}
		run.Duration = o.now().Sub(start)
		run.Count = len(out)

		var err error
		if run.Failure {
			err = errors.New(run.Err)
		}
		o.metrics.RecordRun(name, run.Count, run.Duration, err, run.Panicked)
	}()

	out, err := d.Detect(ctx, snap)
	if err != nil {
		run.Failure = true
		run.Err = err.Error()
		if run.Err == "" {
			run.Err = "detector returned an error"
		}
		o.logger.Warn("detector failed", "detector", name, "error", err)
		return run, nil
	}
	return run, out
}
