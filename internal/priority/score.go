package priority

import (
	"math"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// Scoring constants.
const (
	DueBoostMax        = 100.0
	DueBoostPerDay     = 10.0
	ActiveProjectBoost = 20.0
)

// Breakdown explains how a score was reached.
type Breakdown struct {
	Base         float64 `json:"base"`
	DueBoost     float64 `json:"due_boost"`
	ProjectBoost float64 `json:"project_boost"`
	Modifier     float64 `json:"modifier"`
	Total        float64 `json:"total"`
}

// Score computes a signal's priority against the snapshot it came from.
//
// The base comes from severity. When the primary entity is a task with a due
// date, max(0, 100 - 10*days_until_due) is added; overdue tasks therefore
// score above 100. A task that belongs to an active project adds 20. The
// sum is multiplied by the (type, domain) weight modifier when the snapshot
// carries one.
func Score(s signal.Signal, snap *snapshot.Context) Breakdown {
	b := Breakdown{
		Base:     s.Severity.BaseScore(),
		Modifier: signal.DefaultWeightModifier,
	}

	if snap != nil {
		if task, ok := snap.TaskByID(s.PrimaryEntityID()); ok {
			if task.DueDate != nil {
				days := task.DueDate.DaysFrom(snap.Date())
				b.DueBoost = math.Max(0, DueBoostMax-DueBoostPerDay*float64(days))
			}
			if snap.HasActiveProject(task) {
				b.ProjectBoost = ActiveProjectBoost
			}
		}
		if w, ok := snap.WeightFor(s.Type, s.Domain); ok {
			b.Modifier = w.Modifier()
		}
	}

	b.Total = (b.Base + b.DueBoost + b.ProjectBoost) * b.Modifier
	return b
}
