package impl

import (
	"fmt"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// DealCloseWindowDays is how far ahead open deals are watched.
const DealCloseWindowDays = 7

// DueSeverity maps calendar days until a task is due to a severity.
func DueSeverity(daysUntil int) (signal.Severity, bool) {
	switch {
	case daysUntil < 0:
		return signal.SeverityCritical, true
	case daysUntil == 0:
		return signal.SeverityUrgent, true
	case daysUntil == 1:
		return signal.SeverityAttention, true
	case daysUntil <= 3:
		return signal.SeverityInfo, true
	default:
		return "", false
	}
}

func describeDue(days int) string {
	switch {
	case days < 0:
		return fmt.Sprintf("overdue by %s", plural(-days, "day"))
	case days == 0:
		return "due today"
	case days == 1:
		return "due tomorrow"
	default:
		return fmt.Sprintf("due in %s", plural(days, "day"))
	}
}

func detectDeadlines(snap *snapshot.Context) []signal.Signal {
	var out []signal.Signal
	today := snap.Date()
	now := snap.Now()

	for _, t := range snap.Tasks {
		if !t.IsActive() || t.DueDate == nil {
			continue
		}
		days := t.DueDate.DaysFrom(today)
		sev, ok := DueSeverity(days)
		if !ok {
			continue
		}
		expires := t.DueDate.Midnight(today.Location()).Add(24 * time.Hour)
		if days < 0 {
			expires = now.Add(24 * time.Hour)
		}
		out = append(out, emit(snap, signal.Draft{
			Type:             signal.TypeDeadlineApproaching,
			Severity:         sev,
			Domain:           snap.DomainForCategory(t.CategoryID, defaultTaskDomain),
			Source:           "deadline",
			Title:            fmt.Sprintf("%s is %s", t.Title, describeDue(days)),
			Context:          fmt.Sprintf("Due %s; status %s.", t.DueDate.Format("Mon Jan 2"), t.Status),
			SuggestedAction:  "Block time for it or renegotiate the date",
			RelatedEntityIDs: []string{t.ID},
			ExpiresAt:        &expires,
		}))
	}

	for _, d := range snap.Deals {
		if !d.IsOpen() || d.ExpectedCloseDate == nil {
			continue
		}
		days := d.ExpectedCloseDate.DaysFrom(today)
		if days > DealCloseWindowDays {
			continue
		}
		sev := signal.SeverityAttention
		title := fmt.Sprintf("%s expected to close in %s", d.Name, plural(days, "day"))
		if days < 0 {
			sev = signal.SeverityUrgent
			title = fmt.Sprintf("%s missed its close date", d.Name)
		}
		out = append(out, emit(snap, signal.Draft{
			Type:             signal.TypeDealUpdate,
			Severity:         sev,
			Domain:           domainOr(d.Domain, defaultDealDomain),
			Source:           "deadline",
			Title:            title,
			Context:          fmt.Sprintf("Stage %s, value %.0f.", d.Stage, d.Value),
			SuggestedAction:  "Confirm next steps with the counterparty",
			RelatedEntityIDs: []string{d.ID},
			ExpiresAt:        signal.ExpiresIn(now, 24*time.Hour),
		}))
	}
	return out
}
