// Package feedback learns from how the user responds to signals and turns
// that into per-(type, domain) scoring modifiers for later cycles.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/storage"
)

// DefaultStaleAfter is how long an untouched weight row is kept.
const DefaultStaleAfter = 30 * 24 * time.Hour

// Tuning controls modifier adaptation.
type Tuning struct {
	MinSamples  int     `mapstructure:"min_samples" validate:"gte=1"`
	TargetHigh  float64 `mapstructure:"target_high" validate:"gte=0,lte=1"`
	TargetLow   float64 `mapstructure:"target_low" validate:"gte=0,lte=1"`
	DismissHigh float64 `mapstructure:"dismiss_high" validate:"gte=0,lte=1"`
	Step        float64 `mapstructure:"step" validate:"gt=0"`
	MinModifier float64 `mapstructure:"min_modifier" validate:"gt=0"`
	MaxModifier float64 `mapstructure:"max_modifier" validate:"gtefield=MinModifier"`
}

// DefaultTuning returns the standard adaptation settings.
func DefaultTuning() Tuning {
	return Tuning{
		MinSamples:  5,
		TargetHigh:  0.5,
		TargetLow:   0.1,
		DismissHigh: 0.7,
		Step:        0.05,
		MinModifier: 0.5,
		MaxModifier: 1.5,
	}
}

// Adapt nudges w's modifier from its counters. Rows with fewer than
// MinSamples generated signals are left alone.
func (t Tuning) Adapt(w *signal.SignalWeight) {
	w.Recompute()
	if w.TotalGenerated < t.MinSamples {
		return
	}

	mod := w.Modifier()
	switch {
	case w.EffectivenessScore > t.TargetHigh:
		mod = math.Min(t.MaxModifier, mod+t.Step)
	case w.DismissRate() > t.DismissHigh || w.EffectivenessScore < t.TargetLow:
		mod = math.Max(t.MinModifier, mod-t.Step)
	}
	w.WeightModifier = math.Round(mod*1000) / 1000
}

// Book persists SignalWeight rows keyed by (type, domain).
type Book struct {
	mu     sync.Mutex
	coll   storage.Collection[signal.SignalWeight]
	tuning Tuning
	now    func() time.Time
}

// NewBook creates a book over coll. A nil clock uses time.Now.
func NewBook(coll storage.Collection[signal.SignalWeight], tuning Tuning, clock func() time.Time) *Book {
	if clock == nil {
		clock = time.Now
	}
	return &Book{coll: coll, tuning: tuning, now: clock}
}

// Tuning returns the book's adaptation settings.
func (b *Book) Tuning() Tuning { return b.tuning }

// RecordGenerated counts newly committed signals, creating rows on first
// sight.
func (b *Book) RecordGenerated(ctx context.Context, sigs []signal.Signal) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()
	for _, s := range sigs {
		err := b.upsert(ctx, s, now, func(w *signal.SignalWeight) {
			w.TotalGenerated++
			w.Recompute()
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// RecordDismissed counts a dismissal and adapts the modifier.
func (b *Book) RecordDismissed(ctx context.Context, s signal.Signal) error {
	return b.record(ctx, s, func(w *signal.SignalWeight) { w.TotalDismissed++ })
}

// RecordActedOn counts an action and adapts the modifier.
func (b *Book) RecordActedOn(ctx context.Context, s signal.Signal) error {
	return b.record(ctx, s, func(w *signal.SignalWeight) { w.TotalActedOn++ })
}

func (b *Book) record(ctx context.Context, s signal.Signal, count func(*signal.SignalWeight)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.upsert(ctx, s, b.now(), func(w *signal.SignalWeight) {
		count(w)
		b.tuning.Adapt(w)
	})
}

func (b *Book) upsert(ctx context.Context, s signal.Signal, now time.Time, fn func(*signal.SignalWeight)) error {
	key := s.WeightKey()
	_, err := b.coll.Patch(ctx, key, func(w *signal.SignalWeight) error {
		fn(w)
		w.LastUpdated = now
		return nil
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("update weight %s: %w", key, err)
	}

	w := signal.NewWeight(s.Type, s.Domain, now)
	fn(&w)
	if err := b.coll.Put(ctx, key, w); err != nil {
		return fmt.Errorf("create weight %s: %w", key, err)
	}
	return nil
}

// Weights returns every row, for injection into the next cycle's snapshot.
func (b *Book) Weights(ctx context.Context) ([]signal.SignalWeight, error) {
	rows, err := b.coll.Find(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load weights: %w", err)
	}
	return rows, nil
}

// Get returns the row for a (type, domain) pair.
func (b *Book) Get(ctx context.Context, t signal.Type, d signal.Domain) (signal.SignalWeight, bool, error) {
	w, err := b.coll.Get(ctx, signal.WeightKey(t, d))
	if errors.Is(err, storage.ErrNotFound) {
		return w, false, nil
	}
	if err != nil {
		return w, false, err
	}
	return w, true, nil
}

// PurgeStale removes rows not updated within maxAge of now.
func (b *Book) PurgeStale(ctx context.Context, now time.Time, maxAge time.Duration) (int, error) {
	cutoff := now.Add(-maxAge)
	n, err := b.coll.DeleteWhere(ctx, func(w signal.SignalWeight) bool {
		return w.LastUpdated.Before(cutoff)
	})
	if err != nil {
		return 0, fmt.Errorf("purge weights: %w", err)
	}
	return n, nil
}
