package impl

import (
	"fmt"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// LongStreakDays is the streak length at which a one-day gap becomes urgent.
const LongStreakDays = 7

// StreakSeverity maps a habit streak and the days since last activity to a
// severity. ok is false when the streak is not at risk.
func StreakSeverity(streak, gapDays int) (signal.Severity, bool) {
	if streak <= 0 || gapDays <= 0 {
		return "", false
	}
	if gapDays >= 2 {
		return signal.SeverityCritical, true
	}
	if streak >= LongStreakDays {
		return signal.SeverityUrgent, true
	}
	return signal.SeverityAttention, true
}

func detectStreaks(snap *snapshot.Context) []signal.Signal {
	var out []signal.Signal
	today := snap.Date()

	for _, c := range snap.Categories {
		if c.LastActivityDate == nil {
			continue
		}
		gap := -c.LastActivityDate.DaysFrom(today)
		sev, ok := StreakSeverity(c.CurrentStreak, gap)
		if !ok {
			continue
		}

		title := fmt.Sprintf("%s streak at risk (%s)", c.Name, plural(c.CurrentStreak, "day"))
		detail := "No activity logged yet today."
		if gap >= 2 {
			title = fmt.Sprintf("%s streak lapsing (%s)", c.Name, plural(c.CurrentStreak, "day"))
			detail = fmt.Sprintf("Last activity %s ago.", plural(gap, "day"))
		}

		out = append(out, emit(snap, signal.Draft{
			Type:             signal.TypeStreakAtRisk,
			Severity:         sev,
			Domain:           domainOr(c.Domain, signal.DomainHealthFitness),
			Source:           "streak",
			Title:            title,
			Context:          detail,
			SuggestedAction:  "Log a small session to keep the streak alive",
			RelatedEntityIDs: []string{c.ID},
			ExpiresAt:        endOfDay(today),
		}))
	}
	return out
}
