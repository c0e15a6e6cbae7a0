// Package impl contains the built-in detectors.
package impl

import (
	"fmt"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// Fallback domains for records that do not carry one.
const (
	defaultEmailDomain    = signal.DomainBusinessTech
	defaultTaskDomain     = signal.DomainPersonalGrowth
	defaultCalendarDomain = signal.DomainBusinessTech
	defaultDealDomain     = signal.DomainBusinessRE
)

func emit(snap *snapshot.Context, d signal.Draft) signal.Signal {
	return signal.New(d, snap.Now())
}

func domainOr(d, fallback signal.Domain) signal.Domain {
	if d.Valid() {
		return d
	}
	return fallback
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

func humanDuration(d time.Duration) string {
	switch {
	case d >= 48*time.Hour:
		return plural(int(d.Hours()/24), "day")
	case d >= time.Hour:
		return plural(int(d.Hours()), "hour")
	default:
		return plural(int(d.Minutes()), "minute")
	}
}

func endOfDay(t time.Time) *time.Time {
	e := snapshot.StartOfDay(t).Add(24*time.Hour - time.Second)
	return &e
}
