package impl

import (
	"fmt"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// PrepSeverity maps the time until an event starts to a severity.
// Events that already started or start more than 30 minutes out yield none.
func PrepSeverity(until time.Duration) (signal.Severity, bool) {
	switch {
	case until < 0:
		return "", false
	case until <= 5*time.Minute:
		return signal.SeverityUrgent, true
	case until <= 15*time.Minute:
		return signal.SeverityAttention, true
	case until <= 30*time.Minute:
		return signal.SeverityInfo, true
	default:
		return "", false
	}
}

func detectContextSwitches(snap *snapshot.Context) []signal.Signal {
	var out []signal.Signal
	now := snap.Now()

	for _, e := range snap.CalendarEvents {
		if e.IsAllDay {
			continue
		}
		until := e.Start.Sub(now)
		sev, ok := PrepSeverity(until)
		if !ok {
			continue
		}
		where := ""
		if e.Location != "" {
			where = fmt.Sprintf(" at %s", e.Location)
		}
		start := e.Start
		out = append(out, emit(snap, signal.Draft{
			Type:             signal.TypeContextSwitchPrep,
			Severity:         sev,
			Domain:           domainOr(e.Domain, defaultCalendarDomain),
			Source:           "context_switch",
			Title:            fmt.Sprintf("%s starts in %s", e.Title, humanDuration(until)),
			Context:          fmt.Sprintf("Starts %s%s.", e.Start.Format("15:04"), where),
			SuggestedAction:  "Wrap up the current thread and review the agenda",
			RelatedEntityIDs: []string{e.ID},
			ExpiresAt:        &start,
		}))
	}
	return out
}
