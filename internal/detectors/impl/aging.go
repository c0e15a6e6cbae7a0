package impl

import (
	"context"
	"fmt"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// DefaultStaleTaskDays is how long an active task may sit without a status
// change before it is flagged.
const DefaultStaleTaskDays = 7

// AgingDetector flags unanswered emails and tasks that stopped moving.
type AgingDetector struct {
	StaleTaskDays int
}

// NewAgingDetector creates the detector; staleDays <= 0 uses the default.
func NewAgingDetector(staleDays int) *AgingDetector {
	if staleDays <= 0 {
		staleDays = DefaultStaleTaskDays
	}
	return &AgingDetector{StaleTaskDays: staleDays}
}

func (a *AgingDetector) Name() string { return "aging" }

func (a *AgingDetector) Description() string {
	return "Unreplied emails older than a day and active tasks with no recent status change"
}

func (a *AgingDetector) Detect(_ context.Context, snap *snapshot.Context) ([]signal.Signal, error) {
	var out []signal.Signal
	now := snap.Now()

	for _, e := range snap.Emails {
		if e.IsReplied || e.Promotional() || e.ReceivedAt.IsZero() {
			continue
		}
		age := now.Sub(e.ReceivedAt)
		sev, ok := EmailAgeSeverity(age)
		if !ok {
			continue
		}
		from := e.From
		if from == "" {
			from = "unknown sender"
		}
		out = append(out, emit(snap, signal.Draft{
			Type:             signal.TypeAgingEmail,
			Severity:         sev,
			Domain:           domainOr(e.Domain, defaultEmailDomain),
			Source:           a.Name(),
			Title:            fmt.Sprintf("Reply to %s: %s", from, e.Subject),
			Context:          fmt.Sprintf("Unanswered for %s.", humanDuration(age)),
			SuggestedAction:  "Reply, delegate, or archive",
			RelatedEntityIDs: []string{e.ID},
			ExpiresAt:        signal.ExpiresIn(now, 24*time.Hour),
		}))
	}

	threshold := time.Duration(a.StaleTaskDays) * 24 * time.Hour
	for _, t := range snap.Tasks {
		if !t.IsActive() {
			continue
		}
		last := t.LastMovement()
		if last.IsZero() {
			continue
		}
		idle := now.Sub(last)
		if idle <= threshold {
			continue
		}
		sev := signal.SeverityAttention
		if idle > 2*threshold {
			sev = signal.SeverityUrgent
		}
		out = append(out, emit(snap, signal.Draft{
			Type:             signal.TypeStaleTask,
			Severity:         sev,
			Domain:           snap.DomainForCategory(t.CategoryID, defaultTaskDomain),
			Source:           a.Name(),
			Title:            fmt.Sprintf("Stalled: %s", t.Title),
			Context:          fmt.Sprintf("No status change in %s.", humanDuration(idle)),
			SuggestedAction:  "Move it forward, re-plan, or drop it",
			RelatedEntityIDs: []string{t.ID},
			ExpiresAt:        signal.ExpiresIn(now, 7*24*time.Hour),
		}))
	}

	return out, nil
}

// EmailAgeSeverity maps how long an email has waited to a severity.
// Thresholds are strict: exactly 24h is not yet aging.
func EmailAgeSeverity(age time.Duration) (signal.Severity, bool) {
	switch {
	case age > 72*time.Hour:
		return signal.SeverityCritical, true
	case age > 48*time.Hour:
		return signal.SeverityUrgent, true
	case age > 24*time.Hour:
		return signal.SeverityAttention, true
	default:
		return "", false
	}
}
