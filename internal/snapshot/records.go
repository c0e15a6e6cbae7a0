package snapshot

import (
	"strings"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskWaiting    TaskStatus = "waiting"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
)

// Task is a unit of work the user has committed to.
type Task struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Status          TaskStatus `json:"status"`
	CategoryID      string     `json:"category_id,omitempty"`
	ProjectID       string     `json:"project_id,omitempty"`
	DueDate         *Date      `json:"due_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	StatusChangedAt *time.Time `json:"status_changed_at,omitempty"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// IsActive reports whether the task is still open.
func (t Task) IsActive() bool {
	return t.Status != TaskCompleted && t.Status != TaskCancelled
}

// LastMovement is the most recent time the task's status changed.
func (t Task) LastMovement() time.Time {
	if t.StatusChangedAt != nil {
		return *t.StatusChangedAt
	}
	if !t.UpdatedAt.IsZero() {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// Project groups tasks toward an outcome.
type Project struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CategoryID string `json:"category_id,omitempty"`
	Status     string `json:"status"`
}

// IsActive reports whether the project is in flight.
func (p Project) IsActive() bool {
	return strings.EqualFold(p.Status, "active")
}

// Category is a life area with an optional habit streak.
type Category struct {
	ID               string        `json:"id"`
	Name             string        `json:"name"`
	Domain           signal.Domain `json:"domain"`
	CurrentStreak    int           `json:"current_streak"`
	LongestStreak    int           `json:"longest_streak"`
	LastActivityDate *Date         `json:"last_activity_date,omitempty"`
}

var promotionalCategories = map[string]bool{
	"promotional": true,
	"newsletter":  true,
	"marketing":   true,
}

// Email is an inbox item as classified upstream.
type Email struct {
	ID            string        `json:"id"`
	From          string        `json:"from"`
	Subject       string        `json:"subject"`
	ReceivedAt    time.Time     `json:"received_at"`
	IsReplied     bool          `json:"is_replied"`
	IsPromotional bool          `json:"is_promotional"`
	Category      string        `json:"category,omitempty"`
	Domain        signal.Domain `json:"domain,omitempty"`
}

// Promotional reports whether the email should be ignored for follow-up.
func (e Email) Promotional() bool {
	return e.IsPromotional || promotionalCategories[strings.ToLower(e.Category)]
}

// CalendarEvent is an entry on the user's own calendar.
type CalendarEvent struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	Domain   signal.Domain `json:"domain,omitempty"`
	Location string        `json:"location,omitempty"`
	IsAllDay bool          `json:"is_all_day"`
}

// Duration is the scheduled length of the event.
func (e CalendarEvent) Duration() time.Duration {
	if e.End.Before(e.Start) {
		return 0
	}
	return e.End.Sub(e.Start)
}

// Overlaps reports whether the two time ranges intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// Deal is an open business opportunity.
type Deal struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	Stage             string        `json:"stage"`
	Value             float64       `json:"value"`
	ContactEmail      string        `json:"contact_email,omitempty"`
	ExpectedCloseDate *Date         `json:"expected_close_date,omitempty"`
	LastContactAt     *time.Time    `json:"last_contact_at,omitempty"`
	Domain            signal.Domain `json:"domain,omitempty"`
}

// IsOpen reports whether the deal is still being worked.
func (d Deal) IsOpen() bool {
	switch strings.ToLower(d.Stage) {
	case "closed_won", "closed_lost":
		return false
	}
	return true
}

// HistoricalPatterns summarises the user's typical behaviour.
type HistoricalPatterns struct {
	AvgDailyCompletions  float64            `json:"avg_daily_completions"`
	CompletionsByWeekday map[string]float64 `json:"completions_by_weekday,omitempty"`
	AvgMeetingHours      float64            `json:"avg_meeting_hours"`
	TypicalEndHour       int                `json:"typical_end_hour"`
}

// ExpectedCompletions is the typical number of completions for a weekday.
func (h HistoricalPatterns) ExpectedCompletions(day time.Weekday) float64 {
	if v, ok := h.CompletionsByWeekday[strings.ToLower(day.String())]; ok {
		return v
	}
	return h.AvgDailyCompletions
}
