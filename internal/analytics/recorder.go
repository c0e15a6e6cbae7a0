package analytics

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/storage"
)

// DefaultRetention is how long events are kept.
const DefaultRetention = 90 * 24 * time.Hour

// Sink receives a copy of every recorded event.
type Sink interface {
	Send(e Event)
	Close() error
}

// Recorder stores events and forwards them to sinks.
type Recorder struct {
	coll   storage.Collection[Event]
	sinks  []Sink
	now    func() time.Time
	logger *slog.Logger
}

// NewRecorder creates a recorder over coll. A nil clock uses time.Now.
func NewRecorder(coll storage.Collection[Event], clock func() time.Time, sinks ...Sink) *Recorder {
	if clock == nil {
		clock = time.Now
	}
	return &Recorder{coll: coll, sinks: sinks, now: clock, logger: slog.Default()}
}

// Now returns the recorder's clock reading.
func (r *Recorder) Now() time.Time { return r.now() }

// Record stores e and forwards it. Sink delivery is best effort.
func (r *Recorder) Record(ctx context.Context, e Event) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	if err := r.coll.Insert(ctx, e.ID, e); err != nil {
		return fmt.Errorf("record %s: %w", e.Name, err)
	}
	for _, s := range r.sinks {
		s.Send(e)
	}
	return nil
}

// Track records an event and logs instead of returning failures.
func (r *Recorder) Track(ctx context.Context, e Event) {
	if err := r.Record(ctx, e); err != nil {
		r.logger.Warn("analytics event dropped", "event", e.Name, "error", err)
	}
}

// Events returns stored events, oldest first, optionally filtered by name.
func (r *Recorder) Events(ctx context.Context, name string) ([]Event, error) {
	return r.coll.Find(ctx, func(e Event) bool {
		return name == "" || e.Name == name
	})
}

// PurgeOlderThan removes events created before cutoff.
func (r *Recorder) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := r.coll.DeleteWhere(ctx, func(e Event) bool {
		return e.CreatedAt.Before(cutoff)
	})
	if err != nil {
		return 0, fmt.Errorf("purge events: %w", err)
	}
	return n, nil
}

// Close flushes and closes the sinks.
func (r *Recorder) Close() error {
	var first error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
