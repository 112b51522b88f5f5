package domain

import "time"

const DateLayout = "2006-01-02"

// Day truncates t to its calendar date in t's own location and returns it as 00:00 UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date as observed in loc.
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return Day(now.In(loc))
}

func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func FormatDay(t time.Time) string {
	return t.Format(DateLayout)
}
