// Package snapshot holds the read-only view of the user's world that one
// anticipation cycle runs against, plus loading and caching of it.
package snapshot

import (
	"math"
	"time"

	"github.com/monmacllcapp/daily-progress-tracker-sub000/internal/signal"
)

// DateLayout is the format of the Today field.
const DateLayout = "2006-01-02"

// Context is an immutable snapshot assembled once per cycle.
// Detectors read it concurrently and must never modify it.
type Context struct {
	Tasks              []Task                `json:"tasks"`
	Projects           []Project             `json:"projects"`
	Categories         []Category            `json:"categories"`
	Emails             []Email               `json:"emails"`
	CalendarEvents     []CalendarEvent       `json:"calendarEvents"`
	Deals              []Deal                `json:"deals"`
	Signals            []signal.Signal       `json:"signals"`
	MCPData            map[string]any        `json:"mcpData,omitempty"`
	Today              string                `json:"today"`
	CurrentTime        time.Time             `json:"currentTime"`
	DayOfWeek          int                   `json:"dayOfWeek"`
	HistoricalPatterns HistoricalPatterns    `json:"historicalPatterns"`
	SignalWeights      []signal.SignalWeight `json:"signalWeights,omitempty"`
}

// Now returns the snapshot's notion of the current instant.
func (c *Context) Now() time.Time {
	return c.CurrentTime
}

// Date returns midnight of Today in the location of CurrentTime.
func (c *Context) Date() time.Time {
	loc := c.CurrentTime.Location()
	if c.Today != "" {
		if d, err := time.ParseInLocation(DateLayout, c.Today, loc); err == nil {
			return d
		}
	}
	return StartOfDay(c.CurrentTime)
}

// Weekday is the day of week of Today.
func (c *Context) Weekday() time.Weekday {
	return c.Date().Weekday()
}

// TaskByID finds a task by id.
func (c *Context) TaskByID(id string) (Task, bool) {
	for _, t := range c.Tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}

// CategoryByID finds a category by id.
func (c *Context) CategoryByID(id string) (Category, bool) {
	if id == "" {
		return Category{}, false
	}
	for _, cat := range c.Categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// ProjectByID finds a project by id.
func (c *Context) ProjectByID(id string) (Project, bool) {
	if id == "" {
		return Project{}, false
	}
	for _, p := range c.Projects {
		if p.ID == id {
			return p, true
		}
	}
	return Project{}, false
}

// HasActiveProject reports whether the task belongs to an active project,
// directly or through its category.
func (c *Context) HasActiveProject(t Task) bool {
	if p, ok := c.ProjectByID(t.ProjectID); ok && p.IsActive() {
		return true
	}
	if t.CategoryID == "" {
		return false
	}
	for _, p := range c.Projects {
		if p.CategoryID == t.CategoryID && p.IsActive() {
			return true
		}
	}
	return false
}

// DomainForCategory resolves a category's domain, or fallback.
func (c *Context) DomainForCategory(id string, fallback signal.Domain) signal.Domain {
	if cat, ok := c.CategoryByID(id); ok && cat.Domain.Valid() {
		return cat.Domain
	}
	return fallback
}

// WeightFor returns the effectiveness row for a (type, domain) pair.
func (c *Context) WeightFor(t signal.Type, d signal.Domain) (signal.SignalWeight, bool) {
	for _, w := range c.SignalWeights {
		if w.SignalType == t && w.Domain == d {
			return w, true
		}
	}
	return signal.SignalWeight{}, false
}

// OpenSignals returns signals that are neither dismissed nor acted on.
func (c *Context) OpenSignals() []signal.Signal {
	var out []signal.Signal
	for _, s := range c.Signals {
		if s.IsActive() {
			out = append(out, s)
		}
	}
	return out
}

// WithHistory returns a shallow copy carrying the given open signals and weights.
func (c *Context) WithHistory(open []signal.Signal, weights []signal.SignalWeight) *Context {
	cp := *c
	cp.Signals = open
	cp.SignalWeights = weights
	return &cp
}

// Normalize fills derived fields: CurrentTime defaults to now, Today and
// DayOfWeek follow from it.
func (c *Context) Normalize(now time.Time) {
	if c.CurrentTime.IsZero() {
		c.CurrentTime = now
	}
	if c.Today == "" {
		c.Today = c.CurrentTime.Format(DateLayout)
	}
	c.DayOfWeek = int(c.Weekday())
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// CalendarDays counts whole calendar days from a to b in a's location.
// Negative when b is before a.
func CalendarDays(a, b time.Time) int {
	from := StartOfDay(a)
	bl := b.In(a.Location())
	to := time.Date(bl.Year(), bl.Month(), bl.Day(), 0, 0, 0, 0, a.Location())
	return int(math.Round(to.Sub(from).Hours() / 24))
}
