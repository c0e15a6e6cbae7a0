package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/analytics"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/brief"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/policy"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/priority"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/retention"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/store"
)

// ErrAmbiguousRef is returned when a reference matches several signals.
var ErrAmbiguousRef = errors.New("reference matches more than one signal")

// Dismiss marks a signal dismissed and records the feedback. Dismissing an
// already dismissed signal succeeds without counting again.
func (e *Engine) Dismiss(ctx context.Context, id string) (signal.Signal, error) {
	s, err := e.signals.Dismiss(ctx, id)
	if errors.Is(err, store.ErrAlreadyDismissed) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := e.book.RecordDismissed(ctx, s); err != nil {
		e.logger.Warn("record dismissal", "signal", id, "error", err)
	}
	e.events.Track(ctx, analytics.ForSignal(analytics.EventSignalDismissed, s, nil, e.now()))
	return s, nil
}

// ActOn marks a signal acted on and records the feedback. Repeats are
// idempotent.
func (e *Engine) ActOn(ctx context.Context, id string) (signal.Signal, error) {
	s, err := e.signals.ActOn(ctx, id)
	if errors.Is(err, store.ErrAlreadyActedOn) {
		return s, nil
	}
	if err != nil {
		return s, err
	}
	if err := e.book.RecordActedOn(ctx, s); err != nil {
		e.logger.Warn("record action", "signal", id, "error", err)
	}
	e.events.Track(ctx, analytics.ForSignal(analytics.EventSignalActedOn, s, nil, e.now()))
	return s, nil
}

// AutoActOutcome is the gate decision for one auto-actionable signal.
type AutoActOutcome struct {
	Signal   signal.Signal    `json:"signal"`
	Decision *policy.Decision `json:"decision"`
	Acted    bool             `json:"acted"`
}

// AutoAct evaluates every open auto-actionable signal against the policy
// gate and acts on the allowed ones. With dryRun nothing is changed.
func (e *Engine) AutoAct(ctx context.Context, dryRun bool) ([]AutoActOutcome, error) {
	candidates := make([]signal.Signal, 0)
	for _, s := range e.signals.Active() {
		if s.AutoActionable {
			candidates = append(candidates, s)
		}
	}

	outcomes := make([]AutoActOutcome, 0, len(candidates))
	for _, s := range candidates {
		d, err := e.gate.Evaluate(ctx, s, e.signals.Counts())
		if err != nil {
			return outcomes, fmt.Errorf("evaluate %s: %w", s.ID, err)
		}
		out := AutoActOutcome{Signal: s, Decision: d}
		props := analytics.Properties{"decision_id": d.DecisionID, "dry_run": dryRun}

		if !d.IsAllowed() {
			props["violations"] = d.Violations
			e.events.Track(ctx, analytics.ForSignal(analytics.EventAutoActionDeny, s, props, e.now()))
			outcomes = append(outcomes, out)
			continue
		}
		if !dryRun {
			acted, err := e.signals.ActOn(ctx, s.ID)
			if err != nil {
				return outcomes, err
			}
			if err := e.book.RecordActedOn(ctx, acted); err != nil {
				e.logger.Warn("record auto-action", "signal", s.ID, "error", err)
			}
			out.Signal = acted
			out.Acted = true
		}
		e.events.Track(ctx, analytics.ForSignal(analytics.EventAutoAction, s, props, e.now()))
		outcomes = append(outcomes, out)
	}
	return outcomes, nil
}

// Sweep runs the retention tasks once.
func (e *Engine) Sweep(ctx context.Context) retention.Report {
	report := e.sweeper.Run(ctx, e.now())
	e.events.Track(ctx, analytics.NewEvent(analytics.EventSweepCompleted, analytics.Properties{
		"purged": report.Total(),
		"failed": len(report.Failed()),
	}, e.now()))
	return report
}

// Brief builds the morning brief from snap and the open signals.
func (e *Engine) Brief(ctx context.Context, snap *snapshot.Context) (brief.MorningBrief, error) {
	view, err := e.prepare(ctx, snap)
	if err != nil {
		return brief.MorningBrief{}, err
	}
	prioritized := priority.Synthesize(view.Signals, view)
	return brief.Generate(view, prioritized, e.now()), nil
}

// Prioritized returns the open signals in priority order against snap.
func (e *Engine) Prioritized(ctx context.Context, snap *snapshot.Context) ([]priority.Scored, error) {
	view, err := e.prepare(ctx, snap)
	if err != nil {
		return nil, err
	}
	return priority.SynthesizeScored(view.Signals, view), nil
}

// ResolveSignal finds a signal by exact id, unique id prefix, or fuzzy
// title match, in that order.
func (e *Engine) ResolveSignal(ref string) (signal.Signal, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return signal.Signal{}, store.ErrNotFound
	}
	if s, ok := e.signals.Get(ref); ok {
		return s, nil
	}

	all := e.signals.All()
	var prefixed []signal.Signal
	for _, s := range all {
		if strings.HasPrefix(s.ID, ref) {
			prefixed = append(prefixed, s)
		}
	}
	switch len(prefixed) {
	case 1:
		return prefixed[0], nil
	case 0:
	default:
		return signal.Signal{}, fmt.Errorf("%w: %q (%d ids)", ErrAmbiguousRef, ref, len(prefixed))
	}

	titles := make([]string, len(all))
	for i, s := range all {
		titles[i] = s.Title
	}
	matches := fuzzy.Find(ref, titles)
	if len(matches) == 0 {
		return signal.Signal{}, fmt.Errorf("%w: %q", store.ErrNotFound, ref)
	}
	if len(matches) > 1 && matches[0].Score == matches[1].Score {
		return signal.Signal{}, fmt.Errorf("%w: %q (%d titles)", ErrAmbiguousRef, ref, len(matches))
	}
	return all[matches[0].Index], nil
}
