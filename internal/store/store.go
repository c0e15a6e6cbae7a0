// Package store holds the lifecycle of emitted signals: creation, dismissal,
// action and expiry.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/storage"
)

var (
	// ErrDuplicateID is returned when a signal id is already stored.
	ErrDuplicateID = errors.New("duplicate signal id")
	// ErrNotFound is returned for unknown signal ids.
	ErrNotFound = errors.New("signal not found")
	// ErrAlreadyDismissed is returned when dismissing a dismissed signal.
	ErrAlreadyDismissed = errors.New("signal already dismissed")
	// ErrAlreadyActedOn is returned when acting on a signal twice.
	ErrAlreadyActedOn = errors.New("signal already acted on")
)

// ChangeKind names a store mutation.
type ChangeKind string

const (
	ChangeAdded     ChangeKind = "added"
	ChangeDismissed ChangeKind = "dismissed"
	ChangeActedOn   ChangeKind = "acted_on"
	ChangeExpired   ChangeKind = "expired"
)

// Change is delivered to subscribers after each mutation commits.
type Change struct {
	Kind   ChangeKind    `json:"kind"`
	Signal signal.Signal `json:"signal"`
}

// Store keeps signals in insertion order over a persistent collection.
// Reads are served from memory; writes go through to the collection first.
type Store struct {
	mu    sync.RWMutex
	coll  storage.Collection[signal.Signal]
	order []string
	byID  map[string]signal.Signal
	now   func() time.Time

	subMu  sync.RWMutex
	subs   map[int]func(Change)
	nextID int
}

// Open loads the persisted signals of coll. A nil clock uses time.Now.
func Open(ctx context.Context, coll storage.Collection[signal.Signal], clock func() time.Time) (*Store, error) {
	if clock == nil {
		clock = time.Now
	}
	s := &Store{
		coll: coll,
		byID: make(map[string]signal.Signal),
		now:  clock,
		subs: make(map[int]func(Change)),
	}

	existing, err := coll.Find(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("load signals: %w", err)
	}
	for _, sig := range existing {
		s.order = append(s.order, sig.ID)
		s.byID[sig.ID] = sig
	}
	return s, nil
}

// NewMemory returns an empty store backed by an in-memory collection.
func NewMemory() *Store {
	s, _ := Open(context.Background(), storage.NewMemory[signal.Signal](), nil)
	return s
}

// AddSignal stores one new signal.
func (s *Store) AddSignal(ctx context.Context, sig signal.Signal) error {
	return s.AddSignals(ctx, []signal.Signal{sig})
}

// AddSignals stores a batch. The whole batch is checked before anything is
// written; on failure nothing is added.
func (s *Store) AddSignals(ctx context.Context, sigs []signal.Signal) error {
	if len(sigs) == 0 {
		return nil
	}

	s.mu.Lock()
	seen := make(map[string]bool, len(sigs))
	for _, sig := range sigs {
		if err := sig.Validate(); err != nil {
			s.mu.Unlock()
			return err
		}
		if _, ok := s.byID[sig.ID]; ok || seen[sig.ID] {
			s.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateID, sig.ID)
		}
		seen[sig.ID] = true
	}

	for i, sig := range sigs {
		if err := s.coll.Insert(ctx, sig.ID, sig); err != nil {
			for _, done := range sigs[:i] {
				_ = s.coll.Delete(ctx, done.ID)
			}
			s.mu.Unlock()
			if errors.Is(err, storage.ErrExists) {
				return fmt.Errorf("%w: %s", ErrDuplicateID, sig.ID)
			}
			return fmt.Errorf("persist signal %s: %w", sig.ID, err)
		}
	}
	for _, sig := range sigs {
		s.order = append(s.order, sig.ID)
		s.byID[sig.ID] = sig
	}
	s.mu.Unlock()

	for _, sig := range sigs {
		s.publish(Change{Kind: ChangeAdded, Signal: sig})
	}
	return nil
}

// Dismiss marks a signal dismissed and returns it. A signal that is already
// dismissed is returned unchanged with ErrAlreadyDismissed.
func (s *Store) Dismiss(ctx context.Context, id string) (signal.Signal, error) {
	sig, err := s.update(ctx, id, func(sig *signal.Signal) error {
		if sig.IsDismissed {
			return ErrAlreadyDismissed
		}
		sig.IsDismissed = true
		return nil
	})
	if err != nil {
		return sig, err
	}
	s.publish(Change{Kind: ChangeDismissed, Signal: sig})
	return sig, nil
}

// ActOn marks a signal acted on and returns it. A dismissed signal may still
// be acted on. Acting twice returns the signal with ErrAlreadyActedOn.
func (s *Store) ActOn(ctx context.Context, id string) (signal.Signal, error) {
	sig, err := s.update(ctx, id, func(sig *signal.Signal) error {
		if sig.IsActedOn {
			return ErrAlreadyActedOn
		}
		sig.IsActedOn = true
		return nil
	})
	if err != nil {
		return sig, err
	}
	s.publish(Change{Kind: ChangeActedOn, Signal: sig})
	return sig, nil
}

// update checks mutate against the cached copy before patching the
// collection; a rejected transition writes nothing.
func (s *Store) update(ctx context.Context, id string, mutate func(*signal.Signal) error) (signal.Signal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return signal.Signal{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	next := current
	if err := mutate(&next); err != nil {
		return current, err
	}
	updated, err := s.coll.Patch(ctx, id, func(sig *signal.Signal) error {
		return mutate(sig)
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return signal.Signal{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return signal.Signal{}, fmt.Errorf("update signal %s: %w", id, err)
	}
	s.byID[id] = updated
	return updated, nil
}

// ExpireDismissed removes signals that are both dismissed and past their
// expiry. Undismissed signals are never removed.
func (s *Store) ExpireDismissed(ctx context.Context, now time.Time) (int, error) {
	expired := func(sig signal.Signal) bool {
		return sig.IsDismissed && sig.IsExpired(now)
	}

	s.mu.Lock()
	var removed []signal.Signal
	for _, id := range s.order {
		if sig := s.byID[id]; expired(sig) {
			removed = append(removed, sig)
		}
	}
	if len(removed) == 0 {
		s.mu.Unlock()
		return 0, nil
	}

	if _, err := s.coll.DeleteWhere(ctx, expired); err != nil {
		s.mu.Unlock()
		return 0, fmt.Errorf("expire signals: %w", err)
	}
	kept := s.order[:0]
	for _, id := range s.order {
		if expired(s.byID[id]) {
			delete(s.byID, id)
			continue
		}
		kept = append(kept, id)
	}
	s.order = kept
	s.mu.Unlock()

	for _, sig := range removed {
		s.publish(Change{Kind: ChangeExpired, Signal: sig})
	}
	return len(removed), nil
}

// ExpireDue runs ExpireDismissed at the store's clock.
func (s *Store) ExpireDue(ctx context.Context) (int, error) {
	return s.ExpireDismissed(ctx, s.now())
}

// Get returns a signal by id.
func (s *Store) Get(id string) (signal.Signal, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sig, ok := s.byID[id]
	return sig, ok
}

// All returns every stored signal in insertion order.
func (s *Store) All() []signal.Signal {
	return s.filter(nil)
}

// Active returns signals neither dismissed nor acted on.
func (s *Store) Active() []signal.Signal {
	return s.filter(signal.Signal.IsActive)
}

// ByDomain returns active signals of one domain.
func (s *Store) ByDomain(d signal.Domain) []signal.Signal {
	return s.filter(func(sig signal.Signal) bool { return sig.IsActive() && sig.Domain == d })
}

// ByType returns active signals of one type.
func (s *Store) ByType(t signal.Type) []signal.Signal {
	return s.filter(func(sig signal.Signal) bool { return sig.IsActive() && sig.Type == t })
}

// Counts tallies active signals per severity. Every severity is present.
func (s *Store) Counts() map[signal.Severity]int {
	all := signal.AllSeverities()
	counts := make(map[signal.Severity]int, len(all))
	for _, sev := range all {
		counts[sev] = 0
	}
	for _, sig := range s.Active() {
		counts[sig.Severity]++
	}
	return counts
}

// Len returns the number of stored signals.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) filter(keep func(signal.Signal) bool) []signal.Signal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]signal.Signal, 0, len(s.order))
	for _, id := range s.order {
		sig := s.byID[id]
		if keep == nil || keep(sig) {
			out = append(out, sig)
		}
	}
	return out
}

// Subscribe registers fn for change notifications and returns a function
// that removes it. fn runs synchronously on the mutating goroutine and must
// not call back into the store's write methods.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Store) publish(c Change) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for _, fn := range s.subs {
		fn(c)
	}
}
