package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/app"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/brief"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// ValidationError reports an invalid tool argument.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// snapshotFor returns the configured snapshot, or nil when there is none.
func snapshotFor(e *app.Engine) (*snapshot.Context, error) {
	snap, err := e.LoadSnapshot()
	if errors.Is(err, app.ErrNoSnapshot) {
		return nil, nil
	}
	return snap, err
}

// HandleListSignals lists signals in priority order.
func HandleListSignals(ctx context.Context, e *app.Engine, p ListSignalsParams) (string, error) {
	var domain signal.Domain
	if p.Domain != "" {
		d, err := signal.ParseDomain(p.Domain)
		if err != nil {
			return "", &ValidationError{Field: "domain", Message: err.Error()}
		}
		domain = d
	}
	var typ signal.Type
	if p.Type != "" {
		t, err := signal.ParseType(p.Type)
		if err != nil {
			return "", &ValidationError{Field: "type", Message: err.Error()}
		}
		typ = t
	}
	limit := p.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}

	snap, err := snapshotFor(e)
	if err != nil {
		return "", err
	}
	scored, err := e.Prioritized(ctx, snap)
	if err != nil {
		return "", err
	}
	if p.All {
		// Closed signals are listed after the open ones, newest first.
		closed := e.Store().All()
		for i := len(closed) - 1; i >= 0; i-- {
			if !closed[i].IsActive() {
				scored = append(scored, scoredOf(closed[i]))
			}
		}
	}

	filtered := scored[:0]
	for _, s := range scored {
		if domain != "" && s.Signal.Domain != domain {
			continue
		}
		if typ != "" && s.Signal.Type != typ {
			continue
		}
		filtered = append(filtered, s)
	}
	total := len(filtered)
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return FormatSignals(filtered, total), nil
}

// HandleCounts reports active signal counts.
func HandleCounts(e *app.Engine) string {
	return FormatCounts(e.Store().Counts())
}

// HandleDismiss dismisses the referenced signal.
func HandleDismiss(ctx context.Context, e *app.Engine, p SignalRefParams) (string, error) {
	s, err := resolve(e, p)
	if err != nil {
		return "", err
	}
	s, err = e.Dismiss(ctx, s.ID)
	if err != nil {
		return "", err
	}
	return FormatSignal("Dismissed", s), nil
}

// HandleActOn marks the referenced signal acted on.
func HandleActOn(ctx context.Context, e *app.Engine, p SignalRefParams) (string, error) {
	s, err := resolve(e, p)
	if err != nil {
		return "", err
	}
	s, err = e.ActOn(ctx, s.ID)
	if err != nil {
		return "", err
	}
	return FormatSignal("Acted on", s), nil
}

func resolve(e *app.Engine, p SignalRefParams) (signal.Signal, error) {
	if strings.TrimSpace(p.Ref) == "" {
		return signal.Signal{}, &ValidationError{Field: "ref", Message: "signal id or title is required"}
	}
	return e.ResolveSignal(p.Ref)
}

// HandleRunCycle runs a cycle over the inline or configured snapshot.
func HandleRunCycle(ctx context.Context, e *app.Engine, p RunCycleParams) (string, error) {
	var (
		res *app.CycleResult
		err error
	)
	if len(p.Snapshot) > 0 {
		data, merr := json.Marshal(p.Snapshot)
		if merr != nil {
			return "", &ValidationError{Field: "snapshot", Message: merr.Error()}
		}
		snap, derr := snapshot.Decode(data, snapshot.FormatJSON)
		if derr != nil {
			return "", &ValidationError{Field: "snapshot", Message: derr.Error()}
		}
		res, err = e.RunCycle(ctx, snap)
	} else {
		res, err = e.RunSnapshot(ctx)
	}
	if err != nil {
		return "", err
	}
	return FormatCycle(res), nil
}

// HandleBrief renders the morning brief.
func HandleBrief(ctx context.Context, e *app.Engine) (string, error) {
	snap, err := snapshotFor(e)
	if err != nil {
		return "", err
	}
	b, err := e.Brief(ctx, snap)
	if err != nil {
		return "", err
	}
	return brief.Format(b), nil
}
