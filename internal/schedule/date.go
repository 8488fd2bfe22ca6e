package schedule

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date layout used on every boundary.
const DateLayout = "2006-01-02"

// Day normalizes t to midnight UTC of its calendar date. Clinic dates carry
// no time zone; the calendar date of t in its own location is kept.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("schedule: invalid date %q: %w", s, err)
	}
	return t, nil
}

// MustDate is ParseDate for literals known to be valid.
func MustDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// FormatDate renders an ISO calendar date.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SameDay compares calendar dates.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}
