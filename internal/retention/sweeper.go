// Package retention purges data that has outlived its usefulness.
package retention

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/analytics"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/feedback"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/store"
)

// Task names.
const (
	TaskExpiredSignals  = "expired_signals"
	TaskAnalyticsEvents = "analytics_events"
	TaskSignalWeights   = "signal_weights"
)

// PurgeFunc removes stale records as of now and returns how many went.
type PurgeFunc func(ctx context.Context, now time.Time) (int, error)

// Task is one independent purge step.
type Task struct {
	Name string
	Fn   PurgeFunc
}

// Result is the outcome of one task.
type Result struct {
	Task   string `json:"task"`
	Purged int    `json:"purged"`
	Error  string `json:"error,omitempty"`
}

// Report summarizes a sweep.
type Report struct {
	RanAt   time.Time `json:"ran_at"`
	Results []Result  `json:"results"`
}

// Total is the number of records purged across tasks.
func (r Report) Total() int {
	total := 0
	for _, res := range r.Results {
		total += res.Purged
	}
	return total
}

// Failed returns the results that reported an error.
func (r Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Error != "" {
			out = append(out, res)
		}
	}
	return out
}

// Sweeper runs purge tasks in order. A failing task does not stop the others.
type Sweeper struct {
	tasks  []Task
	logger *slog.Logger
}

// NewSweeper creates a sweeper with the given tasks.
func NewSweeper(tasks ...Task) *Sweeper {
	return &Sweeper{tasks: tasks, logger: slog.Default()}
}

// Policy holds the retention windows.
type Policy struct {
	AnalyticsMaxAge time.Duration
	WeightsMaxAge   time.Duration
}

// DefaultPolicy keeps analytics for 90 days and weights for 30.
func DefaultPolicy() Policy {
	return Policy{
		AnalyticsMaxAge: analytics.DefaultRetention,
		WeightsMaxAge:   feedback.DefaultStaleAfter,
	}
}

// Standard builds the three built-in tasks.
func Standard(signals *store.Store, events *analytics.Recorder, weights *feedback.Book, p Policy) *Sweeper {
	return NewSweeper(
		Task{Name: TaskExpiredSignals, Fn: signals.ExpireDismissed},
		Task{Name: TaskAnalyticsEvents, Fn: func(ctx context.Context, now time.Time) (int, error) {
			return events.PurgeOlderThan(ctx, now.Add(-p.AnalyticsMaxAge))
		}},
		Task{Name: TaskSignalWeights, Fn: func(ctx context.Context, now time.Time) (int, error) {
			return weights.PurgeStale(ctx, now, p.WeightsMaxAge)
		}},
	)
}

// Register appends a task.
func (s *Sweeper) Register(t Task) {
	s.tasks = append(s.tasks, t)
}

// Tasks returns the registered task names.
func (s *Sweeper) Tasks() []string {
	names := make([]string, len(s.tasks))
	for i, t := range s.tasks {
		names[i] = t.Name
	}
	return names
}

// Run executes every task once.
func (s *Sweeper) Run(ctx context.Context, now time.Time) Report {
	report := Report{RanAt: now, Results: make([]Result, 0, len(s.tasks))}
	for _, t := range s.tasks {
		res := s.runTask(ctx, t, now)
		if res.Error != "" {
			s.logger.Warn("retention task failed", "task", t.Name, "error", res.Error)
		} else if res.Purged > 0 {
			s.logger.Info("retention task purged records", "task", t.Name, "purged", res.Purged)
		}
		report.Results = append(report.Results, res)
	}
	return report
}

func (s *Sweeper) runTask(ctx context.Context, t Task, now time.Time) (res Result) {
	res.Task = t.Name
	defer func() {
		if r := recover(); r != nil {
			res.Purged = 0
			res.Error = fmt.Sprintf("panic: %v", r)
		}
	}()

	n, err := t.Fn(ctx, now)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Purged = n
	return res
}
