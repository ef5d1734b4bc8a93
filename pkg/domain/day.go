package domain

import (
	"fmt"
	"time"
)

// DayLayout is the canonical calendar-day format.
const DayLayout = "2006-01-02"

// Day is a calendar date ("YYYY-MM-DD") with no time or zone component. All
// scheduling, projection, and adherence math works in whole calendar days;
// timestamps are kept separately for display ordering only.
type Day string

// ParseDay validates a "YYYY-MM-DD" string.
func ParseDay(s string) (Day, error) {
	if _, err := time.Parse(DayLayout, s); err != nil {
		return "", fmt.Errorf("parse day %q: %w", s, err)
	}
	return Day(s), nil
}

// DayOf truncates a timestamp to its calendar day in the timestamp's location.
func DayOf(t time.Time) Day {
	return Day(t.Format(DayLayout))
}

func (d Day) time() time.Time {
	t, err := time.Parse(DayLayout, string(d))
	if err != nil {
		return time.Time{}
	}
	return t
}

// AddDays returns the day n calendar days after d (n may be negative).
func (d Day) AddDays(n int) Day {
	return DayOf(d.time().AddDate(0, 0, n))
}

// DaysUntil returns the number of calendar days from d to other. Positive when
// other is later than d.
func (d Day) DaysUntil(other Day) int {
	return int(other.time().Sub(d.time()).Hours() / 24)
}

// Before reports whether d is strictly earlier than other. The lexicographic
// comparison matches chronological order for the fixed-width layout.
func (d Day) Before(other Day) bool { return d < other }

// After reports whether d is strictly later than other.
func (d Day) After(other Day) bool { return d > other }

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool { return d == "" }
