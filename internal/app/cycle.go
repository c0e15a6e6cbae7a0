package app

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/analytics"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/logger"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/priority"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// CycleResult is an anticipation result plus what the store accepted.
type CycleResult struct {
	detectors.AnticipationResult
	CycleID string `json:"cycleId"`
	// Committed are the prioritized signals that were new to the store.
	Committed []signal.Signal `json:"committed"`
}

// RunCycle runs one anticipation cycle over snap and commits new signals.
// Only one cycle runs at a time per data directory.
func (e *Engine) RunCycle(ctx context.Context, snap *snapshot.Context) (*CycleResult, error) {
	if !e.cycleMu.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer e.cycleMu.Unlock()

	if e.fileMu != nil {
		locked, err := e.fileMu.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire cycle lock: %w", err)
		}
		if !locked {
			return nil, ErrCycleInProgress
		}
		defer func() { _ = e.fileMu.Unlock() }()
	}

	cycleID := uuid.NewString()
	logger.SetCycle(cycleID)
	defer logger.SetCycle("")

	view, err := e.prepare(ctx, snap)
	if err != nil {
		return nil, err
	}

	res := e.orch.RunCycle(ctx, view)
	committed := newSignals(res.PrioritizedSignals, view.Signals)

	if err := e.signals.AddSignals(ctx, committed); err != nil {
		return nil, fmt.Errorf("commit signals: %w", err)
	}
	if err := e.book.RecordGenerated(ctx, committed); err != nil {
		e.logger.Warn("record generated signals", "error", err)
	}

	failed := 0
	for _, run := range res.Diagnostics {
		if run.Failed() {
			failed++
		}
	}
	e.events.Track(ctx, analytics.NewEvent(analytics.EventCycleCompleted, analytics.Properties{
		"cycle_id":    cycleID,
		"signals":     len(res.Signals),
		"prioritized": len(res.PrioritizedSignals),
		"committed":   len(committed),
		"services":    len(res.ServicesRun),
		"failed":      failed,
		"duration_ms": res.RunDuration,
	}, e.now()))

	e.logger.Info("anticipation cycle completed",
		"cycle", cycleID,
		"signals", len(res.Signals),
		"committed", len(committed),
		"duration_ms", res.RunDuration)

	if committed == nil {
		committed = []signal.Signal{}
	}
	return &CycleResult{AnticipationResult: res, CycleID: cycleID, Committed: committed}, nil
}

// RunSnapshot loads the configured snapshot file and runs a cycle over it.
func (e *Engine) RunSnapshot(ctx context.Context) (*CycleResult, error) {
	snap, err := e.LoadSnapshot()
	if err != nil {
		return nil, err
	}
	return e.RunCycle(ctx, snap)
}

// LoadSnapshot returns the configured snapshot, reusing a cached copy while
// it is fresh.
func (e *Engine) LoadSnapshot() (*snapshot.Context, error) {
	path := e.cfg.Snapshot.Path
	if path == "" {
		return nil, ErrNoSnapshot
	}
	logger.SetSnapshot(path)
	return e.cache.Get(path, func() (*snapshot.Context, error) {
		return e.loader.Load(path)
	})
}

// InvalidateSnapshot forces the next LoadSnapshot to read the file again.
func (e *Engine) InvalidateSnapshot() {
	e.cache.InvalidateAll()
}

// prepare copies snap and attaches the open signals and current weights.
func (e *Engine) prepare(ctx context.Context, snap *snapshot.Context) (*snapshot.Context, error) {
	view := snapshot.Context{}
	if snap != nil {
		view = *snap
	}
	view.Normalize(e.now())

	weights, err := e.book.Weights(ctx)
	if err != nil {
		return nil, fmt.Errorf("load signal weights: %w", err)
	}
	return view.WithHistory(e.signals.Active(), weights), nil
}

// newSignals drops candidates whose dedup key is already open.
func newSignals(candidates, open []signal.Signal) []signal.Signal {
	seen := make(map[priority.Key]bool, len(open))
	for _, s := range open {
		seen[priority.KeyOf(s)] = true
	}
	var out []signal.Signal
	for _, s := range candidates {
		if seen[priority.KeyOf(s)] {
			continue
		}
		seen[priority.KeyOf(s)] = true
		out = append(out, s)
	}
	return out
}
