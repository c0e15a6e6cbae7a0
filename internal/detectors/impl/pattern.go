package impl

import (
	"fmt"
	"math"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// Thresholds for behavioural anomalies.
const (
	PaceCheckHour      = 15
	PaceShortfallRatio = 0.5
	OverbookedHours    = 6.0
	SaturatedHours     = 8.0
)

func detectPatterns(snap *snapshot.Context) []signal.Signal {
	var out []signal.Signal
	out = append(out, detectPace(snap)...)
	out = append(out, detectOverbooked(snap)...)
	out = append(out, detectOverlaps(snap)...)
	return out
}

func detectPace(snap *snapshot.Context) []signal.Signal {
	now := snap.Now()
	if now.Hour() < PaceCheckHour {
		return nil
	}
	expected := snap.HistoricalPatterns.ExpectedCompletions(snap.Weekday())
	if expected < 1 {
		return nil
	}

	today := snap.Date()
	var done []string
	for _, t := range snap.Tasks {
		if t.CompletedAt != nil && snapshot.CalendarDays(today, *t.CompletedAt) == 0 {
			done = append(done, t.ID)
		}
	}
	if float64(len(done)) >= expected*PaceShortfallRatio {
		return nil
	}

	return []signal.Signal{emit(snap, signal.Draft{
		Type:             signal.TypePatternInsight,
		Severity:         signal.SeverityAttention,
		Domain:           signal.DomainPersonalGrowth,
		Source:           "pattern",
		Title:            "Behind your usual pace today",
		Context:          fmt.Sprintf("%d completed so far; a typical %s sees about %.0f.", len(done), snap.Weekday(), expected),
		SuggestedAction:  "Pick one small task to finish before the day ends",
		RelatedEntityIDs: done,
		ExpiresAt:        endOfDay(today),
	})}
}

func todaysTimedEvents(snap *snapshot.Context) []snapshot.CalendarEvent {
	today := snap.Date()
	var events []snapshot.CalendarEvent
	for _, e := range snap.CalendarEvents {
		if e.IsAllDay {
			continue
		}
		if snapshot.CalendarDays(today, e.Start) == 0 {
			events = append(events, e)
		}
	}
	return events
}

func detectOverbooked(snap *snapshot.Context) []signal.Signal {
	events := todaysTimedEvents(snap)
	if len(events) == 0 {
		return nil
	}

	var total time.Duration
	// Keyed on the day so it never merges with a pairwise overlap signal.
	ids := []string{"calendar:" + snap.Today}
	for _, e := range events {
		total += e.Duration()
		ids = append(ids, e.ID)
	}
	hours := total.Hours()
	threshold := math.Max(OverbookedHours, 1.5*snap.HistoricalPatterns.AvgMeetingHours)

	var sev signal.Severity
	switch {
	case hours > SaturatedHours:
		sev = signal.SeverityUrgent
	case hours > threshold:
		sev = signal.SeverityAttention
	default:
		return nil
	}

	return []signal.Signal{emit(snap, signal.Draft{
		Type:             signal.TypeCalendarConflict,
		Severity:         sev,
		Domain:           defaultCalendarDomain,
		Source:           "pattern",
		Title:            fmt.Sprintf("You are overbooked today (%.1fh scheduled)", hours),
		Context:          fmt.Sprintf("%s on the calendar; your typical day has %.1fh.", plural(len(events), "event"), snap.HistoricalPatterns.AvgMeetingHours),
		SuggestedAction:  "Decline or shorten a meeting to protect focus time",
		RelatedEntityIDs: ids,
		ExpiresAt:        endOfDay(snap.Date()),
	})}
}

func detectOverlaps(snap *snapshot.Context) []signal.Signal {
	events := todaysTimedEvents(snap)
	now := snap.Now()
	var out []signal.Signal
	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			a, b := events[i], events[j]
			if !snapshot.Overlaps(a.Start, a.End, b.Start, b.End) {
				continue
			}
			if a.End.Before(now) && b.End.Before(now) {
				continue
			}
			start := a.Start
			if b.Start.Before(start) {
				start = b.Start
			}
			out = append(out, emit(snap, signal.Draft{
				Type:             signal.TypeCalendarConflict,
				Severity:         signal.SeverityUrgent,
				Domain:           domainOr(a.Domain, defaultCalendarDomain),
				Source:           "pattern",
				Title:            fmt.Sprintf("%s overlaps %s", a.Title, b.Title),
				Context:          fmt.Sprintf("%s-%s vs %s-%s.", a.Start.Format("15:04"), a.End.Format("15:04"), b.Start.Format("15:04"), b.End.Format("15:04")),
				SuggestedAction:  "Reschedule one of them",
				RelatedEntityIDs: []string{a.ID, b.ID},
				ExpiresAt:        &start,
			}))
		}
	}
	return out
}
