package impl

import (
	"fmt"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// FamilyLookahead is how far ahead family events are surfaced.
const FamilyLookahead = 24 * time.Hour

func detectFamily(snap *snapshot.Context) []signal.Signal {
	events, ok := snap.FamilyCalendar()
	if !ok {
		return nil
	}
	now := snap.Now()
	var out []signal.Signal

	for _, fe := range events {
		if fe.End.Before(now) {
			continue
		}
		who := fe.Member
		if who == "" {
			who = "Family"
		}
		start := fe.Start

		conflict, found := firstConflict(snap.CalendarEvents, fe)
		if found {
			sev := signal.SeverityAttention
			if fe.Important {
				sev = signal.SeverityUrgent
			}
			out = append(out, emit(snap, signal.Draft{
				Type:             signal.TypeFamilyAwareness,
				Severity:         sev,
				Domain:           signal.DomainFamily,
				Source:           "family",
				Title:            fmt.Sprintf("%s: %s clashes with %s", who, fe.Title, conflict.Title),
				Context:          fmt.Sprintf("%s at %s overlaps your %s.", fe.Title, fe.Start.Format("Mon 15:04"), conflict.Title),
				SuggestedAction:  "Decide which to attend and let the others know",
				RelatedEntityIDs: []string{fe.ID, conflict.ID},
				ExpiresAt:        &start,
			}))
			continue
		}

		if until := fe.Start.Sub(now); until >= 0 && until <= FamilyLookahead {
			out = append(out, emit(snap, signal.Draft{
				Type:             signal.TypeFamilyAwareness,
				Severity:         signal.SeverityInfo,
				Domain:           signal.DomainFamily,
				Source:           "family",
				Title:            fmt.Sprintf("%s: %s %s", who, fe.Title, fe.Start.Format("Mon 15:04")),
				Context:          fmt.Sprintf("Starts in %s.", humanDuration(until)),
				RelatedEntityIDs: []string{fe.ID},
				ExpiresAt:        &start,
			}))
		}
	}
	return out
}

func firstConflict(own []snapshot.CalendarEvent, fe snapshot.FamilyEvent) (snapshot.CalendarEvent, bool) {
	for _, e := range own {
		if e.IsAllDay {
			continue
		}
		if snapshot.Overlaps(e.Start, e.End, fe.Start, fe.End) {
			return e, true
		}
	}
	return snapshot.CalendarEvent{}, false
}
