package snapshot

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Date is a calendar day with no time of day or zone. It decodes from
// "2006-01-02" or RFC 3339; an RFC 3339 value keeps the day written in it,
// so "2026-10-20T00:00:00Z" is October 20 for every reader.
type Date struct {
	day time.Time // midnight UTC
}

// NewDate builds a Date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{day: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar day of t in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate accepts "2006-01-02" or RFC 3339.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return DateOf(t), nil
}

// IsZero reports whether the date is unset.
func (d Date) IsZero() bool { return d.day.IsZero() }

// Midnight is the start of the day in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	y, m, day := d.day.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, loc)
}

// DaysFrom counts calendar days from the day t falls on (in t's location)
// to d. Negative when d is earlier.
func (d Date) DaysFrom(t time.Time) int {
	from := DateOf(t)
	return int(math.Round(d.day.Sub(from.day).Hours() / 24))
}

// Format formats the day with a time layout.
func (d Date) Format(layout string) string { return d.day.Format(layout) }

func (d Date) String() string { return d.day.Format(DateLayout) }

// MarshalJSON writes the date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON reads a date-only or RFC 3339 string.
func (d *Date) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
