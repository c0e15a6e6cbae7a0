/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/

// Package app is the application layer. It wires detectors, the signal store,
// feedback, analytics, policy and retention into one Engine so the CLI, HTTP
// and MCP surfaces stay thin adapters.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/analytics"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/config"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors/core"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/detectors/impl"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/feedback"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/llm"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/policy"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/retention"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/storage"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/store"
)

// Collection names used in the document store.
const (
	CollectionSignals = "signals"
	CollectionWeights = "weights"
	CollectionEvents  = "events"
)

var (
	// ErrCycleInProgress is returned when another cycle holds the lock.
	ErrCycleInProgress = errors.New("an anticipation cycle is already running")
	// ErrNoSnapshot is returned when no snapshot path is configured.
	ErrNoSnapshot = errors.New("no snapshot path configured")
)

// Engine owns every long-lived component of the application.
type Engine struct {
	cfg      config.AppConfig
	registry *core.Registry
	orch     *detectors.Orchestrator
	signals  *store.Store
	book     *feedback.Book
	events   *analytics.Recorder
	gate     *policy.Gate
	sweeper  *retention.Sweeper
	loader   *snapshot.Loader
	cache    *snapshot.Cache

	db      *storage.DB
	fileMu  *flock.Flock
	cycleMu sync.Mutex

	now    func() time.Time
	logger *slog.Logger
}

// Options overrides engine collaborators, mostly for tests.
type Options struct {
	Clock  func() time.Time
	Fs     afero.Fs
	Logger *slog.Logger
	// ChatModel replaces the model built from the llm config section.
	ChatModel model.BaseChatModel
	// Sinks receive analytics events in addition to PostHog.
	Sinks []analytics.Sink
	// Version is reported to analytics sinks.
	Version string
}

// New builds an engine from cfg. Close releases its resources.
func New(ctx context.Context, cfg config.AppConfig, opts Options) (*Engine, error) {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	e := &Engine{
		cfg:    cfg,
		now:    opts.Clock,
		logger: opts.Logger,
		loader: snapshot.NewLoader(opts.Fs).WithClock(opts.Clock),
		cache:  snapshot.NewCache(cfg.Snapshot.CacheTTL, opts.Clock),
	}

	if cfg.Data.Dir != "" {
		if err := os.MkdirAll(cfg.Data.Dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
		e.fileMu = flock.New(cfg.LockPath())
	}

	var (
		sigColl    storage.Collection[signal.Signal]
		weightColl storage.Collection[signal.SignalWeight]
		eventColl  storage.Collection[analytics.Event]
	)
	switch cfg.Data.Driver {
	case storage.DriverSQLite:
		db, err := storage.OpenSQLite(cfg.Data.Dir)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		e.db = db
		sigColl = storage.NewSQLite[signal.Signal](db, CollectionSignals)
		weightColl = storage.NewSQLite[signal.SignalWeight](db, CollectionWeights)
		eventColl = storage.NewSQLite[analytics.Event](db, CollectionEvents)
	case storage.DriverMemory, "":
		sigColl = storage.NewMemory[signal.Signal]()
		weightColl = storage.NewMemory[signal.SignalWeight]()
		eventColl = storage.NewMemory[analytics.Event]()
	default:
		return nil, fmt.Errorf("unknown data driver %q", cfg.Data.Driver)
	}

	signals, err := store.Open(ctx, sigColl, opts.Clock)
	if err != nil {
		e.closeDB()
		return nil, err
	}
	e.signals = signals
	e.book = feedback.NewBook(weightColl, cfg.Feedback, opts.Clock)

	sinks := append([]analytics.Sink(nil), opts.Sinks...)
	if cfg.Telemetry.Enabled {
		ph, err := analytics.NewPostHogSink(analytics.PostHogConfig{
			APIKey:     cfg.Telemetry.PostHogKey,
			Endpoint:   cfg.Telemetry.Endpoint,
			DistinctID: cfg.Telemetry.DistinctID,
			Version:    opts.Version,
		})
		if err != nil {
			e.logger.Warn("analytics sink disabled", "error", err)
		} else if ph != nil {
			sinks = append(sinks, ph)
		}
	}
	e.events = analytics.NewRecorder(eventColl, opts.Clock, sinks...)

	gate, err := policy.NewGate(policy.GateConfig{
		PoliciesDir: e.policiesDir(opts.Fs),
		Fs:          opts.Fs,
		Now:         opts.Clock,
	})
	if err != nil {
		e.closeDB()
		return nil, err
	}
	e.gate = gate

	e.sweeper = retention.Standard(e.signals, e.events, e.book, retention.Policy{
		AnalyticsMaxAge: cfg.Retention.AnalyticsMaxAge(),
		WeightsMaxAge:   cfg.Retention.WeightsMaxAge(),
	})

	chat := opts.ChatModel
	if chat == nil && cfg.LLM.Provider != "" {
		chat, err = llm.NewChatModel(ctx, llm.Config{
			Provider: llm.Provider(cfg.LLM.Provider),
			Model:    cfg.LLM.Model,
			APIKey:   cfg.LLM.APIKey,
			BaseURL:  cfg.LLM.BaseURL,
		})
		if err != nil {
			// The insight detector is optional; the rest still runs.
			e.logger.Warn("insight detector disabled", "provider", cfg.LLM.Provider, "error", err)
			chat = nil
		}
	}

	e.registry = core.NewRegistry()
	if err := impl.RegisterDefaults(e.registry, impl.Options{
		StaleTaskDays: cfg.Detectors.StaleTaskDays,
		ChatModel:     chat,
	}); err != nil {
		e.closeDB()
		return nil, err
	}
	for _, name := range cfg.Detectors.Disabled {
		if err := e.registry.Disable(name); err != nil {
			e.logger.Warn("cannot disable detector", "detector", name, "error", err)
		}
	}
	e.orch = detectors.NewOrchestrator(e.registry,
		detectors.WithLogger(e.logger),
		detectors.WithClock(opts.Clock))

	return e, nil
}

// policiesDir returns the configured policy directory when it exists.
func (e *Engine) policiesDir(fs afero.Fs) string {
	dir := e.cfg.Policy.Dir
	if dir == "" {
		if e.cfg.Data.Dir == "" {
			return ""
		}
		dir = e.cfg.PoliciesDir()
	}
	if ok, _ := afero.DirExists(fs, dir); !ok {
		return ""
	}
	return dir
}

// Close flushes analytics and closes the database.
func (e *Engine) Close() error {
	err := e.events.Close()
	if dbErr := e.closeDB(); err == nil {
		err = dbErr
	}
	return err
}

func (e *Engine) closeDB() error {
	if e.db == nil {
		return nil
	}
	return e.db.Close()
}

// Config returns the configuration the engine was built from.
func (e *Engine) Config() config.AppConfig { return e.cfg }

// Store returns the signal store.
func (e *Engine) Store() *store.Store { return e.signals }

// Registry returns the detector registry.
func (e *Engine) Registry() *core.Registry { return e.registry }

// Metrics returns detector run metrics.
func (e *Engine) Metrics() core.MetricsSnapshot { return e.orch.Metrics().Snapshot() }

// Feedback returns the weight book.
func (e *Engine) Feedback() *feedback.Book { return e.book }

// Analytics returns the event recorder.
func (e *Engine) Analytics() *analytics.Recorder { return e.events }

// Gate returns the auto-action policy gate.
func (e *Engine) Gate() *policy.Gate { return e.gate }

// Now returns the engine clock's current time.
func (e *Engine) Now() time.Time { return e.now() }
