/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/

// Package brief projects a snapshot and its prioritized signals into the
// morning brief read model.
package brief

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

// MorningBrief is a point-in-time summary. It owns nothing; regenerate it
// rather than mutating it.
type MorningBrief struct {
	Date            string          `json:"date"`
	Urgent          []signal.Signal `json:"urgent"`
	Attention       []signal.Signal `json:"attention"`
	PortfolioDigest string          `json:"portfolio_digest,omitempty"`
	ActivityDigest  string          `json:"activity_digest"`
	CalendarDigest  string          `json:"calendar_digest"`
	FamilyDigest    string          `json:"family_digest,omitempty"`
	Narrative       string          `json:"narrative"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

var printer = message.NewPrinter(language.English)

// Generate builds the brief. Urgent holds critical and urgent signals,
// Attention the attention ones, both in prioritized order.
func Generate(snap *snapshot.Context, prioritized []signal.Signal, now time.Time) MorningBrief {
	view := snapshot.Context{}
	if snap != nil {
		view = *snap
	}
	snap = &view
	snap.Normalize(now)

	b := MorningBrief{
		Date:        snap.Today,
		Urgent:      make([]signal.Signal, 0),
		Attention:   make([]signal.Signal, 0),
		GeneratedAt: now,
	}
	for _, s := range prioritized {
		if !s.IsActive() {
			continue
		}
		switch s.Severity {
		case signal.SeverityCritical, signal.SeverityUrgent:
			b.Urgent = append(b.Urgent, s)
		case signal.SeverityAttention:
			b.Attention = append(b.Attention, s)
		}
	}

	b.PortfolioDigest = portfolioDigest(snap)
	b.ActivityDigest = activityDigest(snap)
	b.CalendarDigest = calendarDigest(snap)
	b.FamilyDigest = familyDigest(snap)
	b.Narrative = narrative(b)
	return b
}

func portfolioDigest(snap *snapshot.Context) string {
	acct, ok := snap.Brokerage()
	if !ok {
		return ""
	}
	total := acct.TotalValue()
	change := acct.DayChange()

	previous := total.Sub(change)
	pct := decimal.Zero
	if !previous.IsZero() {
		pct = change.Div(previous).Mul(decimal.NewFromInt(100))
	}

	sign := "+"
	if change.IsNegative() {
		sign = "-"
	}
	n := len(acct.Positions)
	return printer.Sprintf("Portfolio $%.2f across %d %s, day %s$%.2f (%s%.2f%%)",
		total.InexactFloat64(), n, plural(n, "position", "positions"),
		sign, change.Abs().InexactFloat64(),
		sign, pct.Abs().InexactFloat64())
}

func activityDigest(snap *snapshot.Context) string {
	today := snap.Date()
	open, dueToday, overdue := 0, 0, 0
	for _, t := range snap.Tasks {
		if !t.IsActive() {
			continue
		}
		open++
		if t.DueDate == nil {
			continue
		}
		switch days := t.DueDate.DaysFrom(today); {
		case days < 0:
			overdue++
		case days == 0:
			dueToday++
		}
	}

	parts := []string{fmt.Sprintf("%d open %s", open, plural(open, "task", "tasks"))}
	if dueToday > 0 {
		parts = append(parts, fmt.Sprintf("%d due today", dueToday))
	}
	if overdue > 0 {
		parts = append(parts, fmt.Sprintf("%d overdue", overdue))
	}

	var best snapshot.Category
	for _, c := range snap.Categories {
		if c.CurrentStreak > best.CurrentStreak {
			best = c
		}
	}
	digest := strings.Join(parts, ", ")
	if best.CurrentStreak > 0 {
		digest += fmt.Sprintf("; best streak %s at %d %s", best.Name, best.CurrentStreak, plural(best.CurrentStreak, "day", "days"))
	}
	return digest
}

func calendarDigest(snap *snapshot.Context) string {
	today := snap.Date()
	var events []snapshot.CalendarEvent
	var booked time.Duration
	for _, e := range snap.CalendarEvents {
		if e.IsAllDay || snapshot.CalendarDays(today, e.Start) != 0 {
			continue
		}
		events = append(events, e)
		booked += e.Duration()
	}
	if len(events) == 0 {
		return "No meetings today."
	}

	sort.SliceStable(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	first := events[0]
	return fmt.Sprintf("%d %s (%.1fh booked), first: %s at %s",
		len(events), plural(len(events), "meeting", "meetings"),
		booked.Hours(), first.Title, first.Start.In(today.Location()).Format("15:04"))
}

func familyDigest(snap *snapshot.Context) string {
	events, ok := snap.FamilyCalendar()
	if !ok {
		return ""
	}
	today := snap.Date()
	var lines []string
	for _, fe := range events {
		if snapshot.CalendarDays(today, fe.Start) != 0 {
			continue
		}
		line := fmt.Sprintf("%s: %s at %s", fe.Member, fe.Title, fe.Start.In(today.Location()).Format("15:04"))
		if fe.Important {
			line += " (important)"
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "Nothing on the family calendar today."
	}
	return strings.Join(lines, "; ")
}

func narrative(b MorningBrief) string {
	var sb strings.Builder
	switch len(b.Urgent) {
	case 0:
		sb.WriteString("Nothing urgent this morning.")
	case 1:
		fmt.Fprintf(&sb, "One thing needs you first: %s.", b.Urgent[0].Title)
	default:
		titles := make([]string, 0, 2)
		for _, s := range b.Urgent[:min(2, len(b.Urgent))] {
			titles = append(titles, s.Title)
		}
		fmt.Fprintf(&sb, "%d urgent items, starting with %s.", len(b.Urgent), strings.Join(titles, " and "))
	}
	if n := len(b.Attention); n > 0 {
		fmt.Fprintf(&sb, " %d more %s your attention today.", n, plural(n, "deserves", "deserve"))
	}
	if b.CalendarDigest != "" {
		sb.WriteString(" " + b.CalendarDigest)
	}
	return sb.String()
}

// Format renders the brief as plain text.
func Format(b MorningBrief) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Morning brief for %s\n", b.Date)
	sb.WriteString(strings.Repeat("-", 50) + "\n")
	sb.WriteString(b.Narrative + "\n")

	writeSignals(&sb, "Urgent", b.Urgent)
	writeSignals(&sb, "Attention", b.Attention)

	sb.WriteString("\nDigest\n")
	for _, line := range []struct{ label, text string }{
		{"Activity", b.ActivityDigest},
		{"Calendar", b.CalendarDigest},
		{"Family", b.FamilyDigest},
		{"Portfolio", b.PortfolioDigest},
	} {
		if line.text != "" {
			fmt.Fprintf(&sb, "- %s: %s\n", line.label, line.text)
		}
	}
	return sb.String()
}

func writeSignals(sb *strings.Builder, heading string, sigs []signal.Signal) {
	if len(sigs) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n%s (%d)\n", heading, len(sigs))
	for _, s := range sigs {
		fmt.Fprintf(sb, "- [%s] %s", s.Domain.Label(), s.Title)
		if s.SuggestedAction != "" {
			fmt.Fprintf(sb, " -> %s", s.SuggestedAction)
		}
		sb.WriteString("\n")
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
