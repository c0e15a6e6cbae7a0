package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/analytics"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/config"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors/core"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/feedback"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/retention"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/store"
)

var testNow = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func testConfig(t *testing.T, driver string) config.AppConfig {
	t.Helper()
	return config.AppConfig{
		Data:      config.DataConfig{Dir: t.TempDir(), Driver: driver},
		Detectors: config.DetectorsConfig{StaleTaskDays: 7},
		Feedback:  feedback.DefaultTuning(),
		Retention: config.RetentionConfig{AnalyticsDays: 90, WeightsDays: 30},
	}
}

func newTestEngine(t *testing.T, cfg config.AppConfig, fs afero.Fs) *Engine {
	t.Helper()
	e, err := New(context.Background(), cfg, Options{
		Clock:  func() time.Time { return testNow },
		Fs:     fs,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

// fixture emits one fresh signal per listed entity on every cycle.
func fixture(auto bool, entities ...string) core.Detector {
	return core.Pure("fixture", "test signals", func(snap *snapshot.Context) []signal.Signal {
		out := make([]signal.Signal, 0, len(entities))
		for _, id := range entities {
			out = append(out, signal.New(signal.Draft{
				Type:             signal.TypeStaleTask,
				Severity:         signal.SeverityUrgent,
				Domain:           signal.DomainBusinessTech,
				Source:           "fixture",
				Title:            "Revisit task " + id,
				AutoActionable:   auto,
				RelatedEntityIDs: []string{id},
			}, snap.Now()))
		}
		return out
	})
}

func TestRunCycle_CommitsOnlyNewKeys(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	require.NoError(t, e.Registry().Register(fixture(false, "t1", "t2")))
	ctx := context.Background()

	res, err := e.RunCycle(ctx, &snapshot.Context{})
	require.NoError(t, err)
	assert.Len(t, res.Committed, 2)
	assert.NotEmpty(t, res.CycleID)
	assert.Equal(t, 2, e.Store().Len())

	res, err = e.RunCycle(ctx, &snapshot.Context{})
	require.NoError(t, err)
	assert.Empty(t, res.Committed)
	assert.Len(t, res.PrioritizedSignals, 2)
	assert.Equal(t, 2, e.Store().Len())

	w, ok, err := e.Feedback().Get(ctx, signal.TypeStaleTask, signal.DomainBusinessTech)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 2, w.TotalGenerated)

	events, err := e.Analytics().Events(ctx, analytics.EventCycleCompleted)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestRunCycle_DismissedKeyFiresAgain(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	require.NoError(t, e.Registry().Register(fixture(false, "t1")))
	ctx := context.Background()

	res, err := e.RunCycle(ctx, nil)
	require.NoError(t, err)
	require.Len(t, res.Committed, 1)

	_, err = e.Dismiss(ctx, res.Committed[0].ID)
	require.NoError(t, err)

	res, err = e.RunCycle(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, res.Committed, 1)
	assert.Len(t, e.Store().Active(), 1)
}

func TestRunCycle_InProcessLock(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	e.cycleMu.Lock()
	defer e.cycleMu.Unlock()

	_, err := e.RunCycle(context.Background(), nil)
	assert.ErrorIs(t, err, ErrCycleInProgress)
}

func TestRunCycle_FileLockHeldElsewhere(t *testing.T) {
	cfg := testConfig(t, "memory")
	e := newTestEngine(t, cfg, nil)

	other := flock.New(cfg.LockPath())
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = other.Unlock() }()

	_, err = e.RunCycle(context.Background(), nil)
	assert.ErrorIs(t, err, ErrCycleInProgress)
}

func TestDismissAndActOn_RecordFeedback(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	require.NoError(t, e.Registry().Register(fixture(false, "t1", "t2")))
	ctx := context.Background()

	res, err := e.RunCycle(ctx, nil)
	require.NoError(t, err)
	require.Len(t, res.Committed, 2)

	d, err := e.Dismiss(ctx, res.Committed[0].ID)
	require.NoError(t, err)
	assert.True(t, d.IsDismissed)

	a, err := e.ActOn(ctx, res.Committed[1].ID)
	require.NoError(t, err)
	assert.True(t, a.IsActedOn)

	w, _, err := e.Feedback().Get(ctx, signal.TypeStaleTask, signal.DomainBusinessTech)
	require.NoError(t, err)
	assert.Equal(t, 1, w.TotalDismissed)
	assert.Equal(t, 1, w.TotalActedOn)

	_, err = e.Dismiss(ctx, "missing")
	assert.True(t, errors.Is(err, store.ErrNotFound))

	dismissed, err := e.Analytics().Events(ctx, analytics.EventSignalDismissed)
	require.NoError(t, err)
	require.Len(t, dismissed, 1)
	assert.Equal(t, res.Committed[0].ID, dismissed[0].SignalID)
}

func TestDismissAndActOn_RepeatsCountOnce(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	require.NoError(t, e.Registry().Register(fixture(false, "t1", "t2")))
	ctx := context.Background()

	res, err := e.RunCycle(ctx, nil)
	require.NoError(t, err)
	require.Len(t, res.Committed, 2)

	for i := 0; i < 3; i++ {
		d, err := e.Dismiss(ctx, res.Committed[0].ID)
		require.NoError(t, err)
		assert.True(t, d.IsDismissed)

		a, err := e.ActOn(ctx, res.Committed[1].ID)
		require.NoError(t, err)
		assert.True(t, a.IsActedOn)
	}

	w, _, err := e.Feedback().Get(ctx, signal.TypeStaleTask, signal.DomainBusinessTech)
	require.NoError(t, err)
	assert.Equal(t, 2, w.TotalGenerated)
	assert.Equal(t, 1, w.TotalDismissed)
	assert.Equal(t, 1, w.TotalActedOn)

	dismissed, err := e.Analytics().Events(ctx, analytics.EventSignalDismissed)
	require.NoError(t, err)
	assert.Len(t, dismissed, 1)
}

func TestAutoAct(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	require.NoError(t, e.Registry().Register(fixture(true, "t1")))
	ctx := context.Background()

	_, err := e.RunCycle(ctx, nil)
	require.NoError(t, err)

	outcomes, err := e.AutoAct(ctx, true)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Acted)
	assert.True(t, outcomes[0].Decision.IsAllowed())
	assert.Len(t, e.Store().Active(), 1)

	outcomes, err = e.AutoAct(ctx, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Acted)
	assert.Empty(t, e.Store().Active())
}

func TestAutoAct_DeniedByPolicy(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	require.NoError(t, e.Registry().Register(fixture(true, "t1")))
	require.NoError(t, e.Gate().AddPolicy("deny_all.rego", `package anticipate.policy

deny contains "auto-actions are paused"
`))
	ctx := context.Background()

	_, err := e.RunCycle(ctx, nil)
	require.NoError(t, err)

	outcomes, err := e.AutoAct(ctx, false)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Acted)
	assert.Equal(t, []string{"auto-actions are paused"}, outcomes[0].Decision.Violations)
	assert.Len(t, e.Store().Active(), 1)

	denied, err := e.Analytics().Events(ctx, analytics.EventAutoActionDeny)
	require.NoError(t, err)
	assert.Len(t, denied, 1)
}

func TestResolveSignal(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	ctx := context.Background()
	require.NoError(t, e.Store().AddSignals(ctx, []signal.Signal{
		{ID: "abc-111", Type: signal.TypeStaleTask, Severity: signal.SeverityInfo, Domain: signal.DomainHealthFitness, Source: "t", Title: "Water the garden", CreatedAt: testNow},
		{ID: "abc-222", Type: signal.TypeStaleTask, Severity: signal.SeverityInfo, Domain: signal.DomainHealthFitness, Source: "t", Title: "Quarterly taxes", CreatedAt: testNow},
	}))

	s, err := e.ResolveSignal("abc-222")
	require.NoError(t, err)
	assert.Equal(t, "abc-222", s.ID)

	s, err = e.ResolveSignal("abc-1")
	require.NoError(t, err)
	assert.Equal(t, "abc-111", s.ID)

	_, err = e.ResolveSignal("abc")
	assert.ErrorIs(t, err, ErrAmbiguousRef)

	s, err = e.ResolveSignal("qtaxes")
	require.NoError(t, err)
	assert.Equal(t, "abc-222", s.ID)

	_, err = e.ResolveSignal("zzzz")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSweep(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	report := e.Sweep(context.Background())

	require.Len(t, report.Results, 3)
	assert.Equal(t, retention.TaskExpiredSignals, report.Results[0].Task)
	assert.Empty(t, report.Failed())

	events, err := e.Analytics().Events(context.Background(), analytics.EventSweepCompleted)
	require.NoError(t, err)
	assert.Len(t, events, 1)
}

func TestLoadSnapshot(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := testConfig(t, "memory")
	e := newTestEngine(t, cfg, fs)

	_, err := e.LoadSnapshot()
	assert.ErrorIs(t, err, ErrNoSnapshot)

	cfg.Snapshot.Path = "/snap/today.yaml"
	require.NoError(t, afero.WriteFile(fs, cfg.Snapshot.Path, []byte("today: \"2026-03-02\"\ntasks:\n  - id: t1\n    title: Ship it\n"), 0644))
	e = newTestEngine(t, cfg, fs)

	snap, err := e.LoadSnapshot()
	require.NoError(t, err)
	require.Len(t, snap.Tasks, 1)
	assert.Equal(t, "t1", snap.Tasks[0].ID)

	res, err := e.RunSnapshot(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, res.ServicesRun)
}

func TestSQLiteDriverPersists(t *testing.T) {
	cfg := testConfig(t, "sqlite")
	ctx := context.Background()

	e, err := New(ctx, cfg, Options{Clock: func() time.Time { return testNow }})
	require.NoError(t, err)
	require.NoError(t, e.Registry().Register(fixture(false, "t1")))
	_, err = e.RunCycle(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, e.Close())

	reopened := newTestEngine(t, cfg, nil)
	assert.Equal(t, 1, reopened.Store().Len())
	w, ok, err := reopened.Feedback().Get(ctx, signal.TypeStaleTask, signal.DomainBusinessTech)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 1, w.TotalGenerated)
}

func TestBrief_UsesOpenSignals(t *testing.T) {
	e := newTestEngine(t, testConfig(t, "memory"), nil)
	require.NoError(t, e.Registry().Register(fixture(false, "t1")))
	ctx := context.Background()
	_, err := e.RunCycle(ctx, nil)
	require.NoError(t, err)

	b, err := e.Brief(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-02", b.Date)
	assert.Len(t, b.Urgent, 1)
}

func TestNew_DisablesConfiguredDetectors(t *testing.T) {
	cfg := testConfig(t, "memory")
	cfg.Detectors.Disabled = []string{"streak", "unknown"}
	e := newTestEngine(t, cfg, nil)

	for _, info := range e.Registry().Infos() {
		if info.Name == "streak" {
			assert.False(t, info.Enabled)
		}
	}
}
