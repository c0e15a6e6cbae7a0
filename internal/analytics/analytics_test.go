package analytics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/posthog/posthog-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/storage"
)

var now = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

// mockEnqueuer captures events for testing.
type mockEnqueuer struct {
	mu     sync.Mutex
	events []posthog.Capture
	closed bool
}

func (m *mockEnqueuer) Enqueue(msg posthog.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if capture, ok := msg.(posthog.Capture); ok {
		m.events = append(m.events, capture)
	}
	return nil
}

func (m *mockEnqueuer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func TestRecorder_RecordAndForward(t *testing.T) {
	ctx := context.Background()
	mock := &mockEnqueuer{}
	sink := newPostHogSink(mock, "install-1", "test")
	rec := NewRecorder(storage.NewMemory[Event](), func() time.Time { return now }, sink)

	s := signal.Signal{ID: "sig-1", Type: signal.TypeAgingEmail, Domain: signal.DomainBusinessTech}
	require.NoError(t, rec.Record(ctx, ForSignal(EventSignalDismissed, s, Properties{"severity": "urgent"}, now)))
	rec.Track(ctx, NewEvent(EventCycleCompleted, Properties{"signals": 3}, time.Time{}))

	all, err := rec.Events(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, now, all[1].CreatedAt)

	dismissed, err := rec.Events(ctx, EventSignalDismissed)
	require.NoError(t, err)
	require.Len(t, dismissed, 1)
	assert.Equal(t, "sig-1", dismissed[0].SignalID)

	require.Len(t, mock.events, 2)
	first := mock.events[0]
	assert.Equal(t, EventSignalDismissed, first.Event)
	assert.Equal(t, "install-1", first.DistinctId)
	assert.Equal(t, "aging_email", first.Properties["signal_type"])
	assert.Equal(t, "urgent", first.Properties["severity"])
	assert.Equal(t, false, first.Properties["$process_person_profile"])

	require.NoError(t, rec.Close())
	assert.True(t, mock.closed)

	sink.Send(NewEvent(EventCycleCompleted, nil, now))
	assert.Len(t, mock.events, 2)
}

func TestRecorder_PurgeOlderThan(t *testing.T) {
	ctx := context.Background()
	rec := NewRecorder(storage.NewMemory[Event](), func() time.Time { return now })

	require.NoError(t, rec.Record(ctx, NewEvent(EventCycleCompleted, nil, now.Add(-100*24*time.Hour))))
	require.NoError(t, rec.Record(ctx, NewEvent(EventCycleCompleted, nil, now.Add(-10*24*time.Hour))))

	cutoff := now.Add(-DefaultRetention)
	n, err := rec.PurgeOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = rec.PurgeOlderThan(ctx, cutoff)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestNewPostHogSink_NoKey(t *testing.T) {
	sink, err := NewPostHogSink(PostHogConfig{})
	require.NoError(t, err)
	assert.Nil(t, sink)
}
