/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com

Package core defines the detector contract and the registry that holds the
detectors an anticipation cycle fans out to.
*/
package core

import (
	"context"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// Detector turns a snapshot into zero or more signals for one concern.
// Implementations must not modify the snapshot, must not depend on other
// detectors, and must return an empty result for an empty snapshot.
type Detector interface {
	Name() string
	Description() string
	Detect(ctx context.Context, snap *snapshot.Context) ([]signal.Signal, error)
}

// DetectFunc is the signature of a plain detector function.
type DetectFunc func(ctx context.Context, snap *snapshot.Context) ([]signal.Signal, error)

// Func adapts a plain function to the Detector interface.
type Func struct {
	ID    string
	About string
	Fn    DetectFunc
}

// Name returns the detector name.
func (f Func) Name() string { return f.ID }

// Description returns what the detector watches for.
func (f Func) Description() string { return f.About }

// Detect calls the wrapped function.
func (f Func) Detect(ctx context.Context, snap *snapshot.Context) ([]signal.Signal, error) {
	return f.Fn(ctx, snap)
}

// Pure wraps a synchronous, infallible detector function.
func Pure(id, about string, fn func(snap *snapshot.Context) []signal.Signal) Func {
	return Func{
		ID:    id,
		About: about,
		Fn: func(_ context.Context, snap *snapshot.Context) ([]signal.Signal, error) {
			return fn(snap), nil
		},
	}
}
