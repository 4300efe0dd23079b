package domain

import (
	"fmt"
	"time"
)

// DateLayout is the civil-date layout used for storage, import and display.
const DateLayout = "2006-01-02"

// Day returns the civil date y-m-d at UTC midnight.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// TruncateDay drops the clock part of t, keeping its calendar date in t's own location.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return Day(y, m, d)
}

// AddDays shifts a civil date by n days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// DaysBetween returns the signed number of calendar days from a to b.
func DaysBetween(a, b time.Time) int {
	a, b = TruncateDay(a), TruncateDay(b)
	return int(b.Sub(a).Hours() / 24)
}

// ParseDate parses a YYYY-MM-DD string into a civil date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// DatePtr returns a pointer to a copy of t truncated to its civil date.
func DatePtr(t time.Time) *time.Time {
	d := TruncateDay(t)
	return &d
}

// SameDate reports whether two nullable dates are both nil or the same day.
func SameDate(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return TruncateDay(*a).Equal(TruncateDay(*b))
}

// FormatDate renders a nullable date, or "" when nil.
func FormatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(DateLayout)
}
