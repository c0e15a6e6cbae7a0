package brief

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/snapshot"
)

var now = time.Date(2026, 3, 2, 7, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2026, 3, day, hour, minute, 0, 0, time.UTC)
}

func fixture() *snapshot.Context {
	dueToday := snapshot.DateOf(at(2, 17, 0))
	overdue := snapshot.DateOf(at(1, 9, 0))
	return &snapshot.Context{
		Today:       "2026-03-02",
		CurrentTime: now,
		Tasks: []snapshot.Task{
			{ID: "t1", Title: "Send invoice", Status: snapshot.TaskTodo, DueDate: &dueToday},
			{ID: "t2", Title: "File taxes", Status: snapshot.TaskInProgress, DueDate: &overdue},
			{ID: "t3", Title: "Done", Status: snapshot.TaskCompleted},
		},
		Categories: []snapshot.Category{
			{ID: "c1", Name: "Fitness", CurrentStreak: 12},
			{ID: "c2", Name: "Reading", CurrentStreak: 3},
		},
		CalendarEvents: []snapshot.CalendarEvent{
			{ID: "e2", Title: "Review", Start: at(2, 14, 0), End: at(2, 16, 0)},
			{ID: "e1", Title: "Standup", Start: at(2, 9, 30), End: at(2, 10, 30)},
			{ID: "e3", Title: "Tomorrow", Start: at(3, 9, 0), End: at(3, 10, 0)},
			{ID: "e4", Title: "Holiday", Start: at(2, 0, 0), End: at(3, 0, 0), IsAllDay: true},
		},
		MCPData: map[string]any{
			snapshot.MCPKeyBrokerage: map[string]any{
				"cash": 1000,
				"positions": []any{
					map[string]any{"symbol": "AAPL", "quantity": 10, "cost_basis": 90, "price": 100, "day_change_pct": 0},
				},
			},
			snapshot.MCPKeyFamilyCalendar: []any{
				map[string]any{"id": "f1", "title": "Recital", "member": "Sam",
					"start": "2026-03-02T18:00:00Z", "end": "2026-03-02T19:00:00Z", "important": true},
				map[string]any{"id": "f2", "title": "Dentist", "member": "Ana",
					"start": "2026-03-04T10:00:00Z", "end": "2026-03-04T11:00:00Z"},
			},
		},
	}
}

func sig(id, title string, sev signal.Severity) signal.Signal {
	return signal.Signal{ID: id, Title: title, Severity: sev, Domain: signal.DomainBusinessTech, Type: signal.TypeAgingEmail}
}

func TestGenerate(t *testing.T) {
	dismissed := sig("d", "Dismissed", signal.SeverityUrgent)
	dismissed.IsDismissed = true

	prioritized := []signal.Signal{
		sig("c", "Server down", signal.SeverityCritical),
		dismissed,
		sig("u", "Reply to Bob", signal.SeverityUrgent),
		sig("a", "Stale task", signal.SeverityAttention),
		sig("i", "FYI", signal.SeverityInfo),
	}

	snap := fixture()
	b := Generate(snap, prioritized, now)

	assert.Equal(t, "2026-03-02", b.Date)
	assert.Equal(t, now, b.GeneratedAt)
	require.Len(t, b.Urgent, 2)
	assert.Equal(t, "c", b.Urgent[0].ID)
	assert.Equal(t, "u", b.Urgent[1].ID)
	require.Len(t, b.Attention, 1)

	assert.Equal(t, "2 open tasks, 1 due today, 1 overdue; best streak Fitness at 12 days", b.ActivityDigest)
	assert.Equal(t, "2 meetings (3.0h booked), first: Standup at 09:30", b.CalendarDigest)
	assert.Equal(t, "Sam: Recital at 18:00 (important)", b.FamilyDigest)
	assert.Contains(t, b.PortfolioDigest, "$2,000.00")
	assert.Contains(t, b.PortfolioDigest, "1 position,")

	assert.Contains(t, b.Narrative, "2 urgent items, starting with Server down and Reply to Bob.")
	assert.Contains(t, b.Narrative, "1 more deserves your attention today.")

	assert.Equal(t, 0, snap.DayOfWeek, "caller snapshot must not be normalized in place")
}

func TestGenerate_EmptySnapshot(t *testing.T) {
	b := Generate(nil, nil, now)

	assert.NotNil(t, b.Urgent)
	assert.NotNil(t, b.Attention)
	assert.Empty(t, b.PortfolioDigest)
	assert.Empty(t, b.FamilyDigest)
	assert.Equal(t, "0 open tasks", b.ActivityDigest)
	assert.Equal(t, "No meetings today.", b.CalendarDigest)
	assert.Equal(t, "Nothing urgent this morning. No meetings today.", b.Narrative)
}

func TestFormat(t *testing.T) {
	s := sig("u", "Reply to Bob", signal.SeverityUrgent)
	s.SuggestedAction = "Reply now"
	b := Generate(fixture(), []signal.Signal{s}, now)

	out := Format(b)
	assert.Contains(t, out, "Morning brief for 2026-03-02")
	assert.Contains(t, out, "Urgent (1)")
	assert.Contains(t, out, "- [Business Tech] Reply to Bob -> Reply now")
	assert.NotContains(t, out, "Attention (")
	assert.Contains(t, out, "- Family: Sam: Recital at 18:00 (important)")
}
