package detectors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors/core"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors/impl"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func emitting(name string, sigs ...signal.Signal) core.Detector {
	return core.Pure(name, name, func(*snapshot.Context) []signal.Signal { return sigs })
}

func mkSignal(id string, sev signal.Severity, entity string) signal.Signal {
	return signal.Signal{
		ID:               id,
		Type:             signal.TypeAgingEmail,
		Severity:         sev,
		Domain:           signal.DomainBusinessTech,
		Source:           "test",
		Title:            id,
		RelatedEntityIDs: []string{entity},
		CreatedAt:        testNow,
	}
}

func newTestOrchestrator(t *testing.T, ds ...core.Detector) *Orchestrator {
	t.Helper()
	reg := core.NewRegistry()
	for _, d := range ds {
		require.NoError(t, reg.Register(d))
	}
	return NewOrchestrator(reg, WithLogger(quietLogger()), WithClock(func() time.Time { return testNow }))
}

func TestRunCycle_IsolatesFailures(t *testing.T) {
	o := newTestOrchestrator(t,
		emitting("ok", mkSignal("s1", signal.SeverityUrgent, "e1")),
		core.Func{ID: "broken", About: "errors", Fn: func(context.Context, *snapshot.Context) ([]signal.Signal, error) {
			return []signal.Signal{mkSignal("ignored", signal.SeverityCritical, "e9")}, errors.New("upstream down")
		}},
		core.Pure("panicky", "panics", func(*snapshot.Context) []signal.Signal {
			panic("boom")
		}),
		emitting("other", mkSignal("s2", signal.SeverityInfo, "e2")),
	)

	res := o.RunCycle(context.Background(), &snapshot.Context{CurrentTime: testNow})

	services := append([]string(nil), res.ServicesRun...)
	sort.Strings(services)
	assert.Equal(t, []string{"ok", "other"}, services)

	ids := make([]string, 0, len(res.Signals))
	for _, s := range res.Signals {
		ids = append(ids, s.ID)
	}
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids)

	require.Len(t, res.PrioritizedSignals, 2)
	assert.Equal(t, "s1", res.PrioritizedSignals[0].ID)

	require.Len(t, res.Diagnostics, 4)
	byName := map[string]DetectorRun{}
	for _, r := range res.Diagnostics {
		byName[r.Name] = r
	}
	assert.Equal(t, "upstream down", byName["broken"].Err)
	assert.True(t, byName["panicky"].Panicked)
	assert.Contains(t, byName["panicky"].Err, "boom")
	assert.Equal(t, 1, byName["ok"].Count)

	m := o.Metrics().Snapshot()
	assert.Equal(t, int64(1), m.TotalCycles)
	assert.Equal(t, int64(4), m.TotalRuns)
	assert.Equal(t, int64(2), m.TotalErrors)
	assert.Equal(t, int64(1), m.TotalPanics)
	assert.Equal(t, int64(1), m.Detectors["broken"].Errors)
}

func TestRunCycle_EmptyErrorMessageStillFails(t *testing.T) {
	o := newTestOrchestrator(t,
		emitting("ok", mkSignal("s1", signal.SeverityUrgent, "e1")),
		core.Func{ID: "silent", About: "errors without a message", Fn: func(context.Context, *snapshot.Context) ([]signal.Signal, error) {
			return []signal.Signal{mkSignal("leaked", signal.SeverityCritical, "e9")}, errors.New("")
		}},
	)

	res := o.RunCycle(context.Background(), &snapshot.Context{CurrentTime: testNow})

	assert.Equal(t, []string{"ok"}, res.ServicesRun)
	require.Len(t, res.Signals, 1)
	assert.Equal(t, "s1", res.Signals[0].ID)

	var silent DetectorRun
	for _, r := range res.Diagnostics {
		if r.Name == "silent" {
			silent = r
		}
	}
	assert.True(t, silent.Failed())
	assert.NotEmpty(t, silent.Err)
	assert.Equal(t, 0, silent.Count)
	assert.Equal(t, int64(1), o.Metrics().Snapshot().TotalErrors)
}

func TestRunCycle_EmptyRegistry(t *testing.T) {
	o := newTestOrchestrator(t)
	res := o.RunCycle(context.Background(), nil)

	assert.NotNil(t, res.Signals)
	assert.NotNil(t, res.PrioritizedSignals)
	assert.NotNil(t, res.ServicesRun)
	assert.Empty(t, res.Signals)
	assert.Equal(t, int64(0), res.RunDuration)
	assert.Equal(t, "2026-03-02T09:00:00Z", res.Timestamp)
}

func TestRunCycle_DeduplicatesAcrossDetectors(t *testing.T) {
	o := newTestOrchestrator(t,
		emitting("a", mkSignal("low", signal.SeverityAttention, "e1")),
		emitting("b", mkSignal("high", signal.SeverityCritical, "e1")),
	)
	res := o.RunCycle(context.Background(), &snapshot.Context{CurrentTime: testNow})

	assert.Len(t, res.Signals, 2)
	require.Len(t, res.PrioritizedSignals, 1)
	assert.Equal(t, "high", res.PrioritizedSignals[0].ID)
}

func TestRunCycle_SkipsDisabled(t *testing.T) {
	o := newTestOrchestrator(t,
		emitting("on", mkSignal("s1", signal.SeverityInfo, "e1")),
		emitting("off", mkSignal("s2", signal.SeverityInfo, "e2")),
	)
	require.NoError(t, o.registry.Disable("off"))

	res := o.RunCycle(context.Background(), &snapshot.Context{CurrentTime: testNow})
	assert.Equal(t, []string{"on"}, res.ServicesRun)
	assert.Len(t, res.Diagnostics, 1)
}

func TestRunCycle_DefaultDetectorsOnEmptySnapshot(t *testing.T) {
	reg := core.NewRegistry()
	require.NoError(t, impl.RegisterDefaults(reg, impl.Options{}))
	o := NewOrchestrator(reg, WithLogger(quietLogger()))

	snap := &snapshot.Context{}
	snap.Normalize(testNow)
	res := o.RunCycle(context.Background(), snap)

	assert.Empty(t, res.Signals)
	assert.Len(t, res.ServicesRun, reg.Len())
}
