package util

import "time"

// DateLayout is the calendar-day format used for stored assessments.
const DateLayout = "2006-01-02"

// NowUTC exposes time.Now for deterministic testing.
func NowUTC() time.Time {
	return time.Now().UTC()
}

// DateOf formats ts as YYYY-MM-DD in UTC.
func DateOf(ts time.Time) string {
	return ts.UTC().Format(DateLayout)
}
