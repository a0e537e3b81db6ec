package utils

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (civil.Date, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// Today is the current calendar date on the server clock. Dates are never
// converted between time zones.
func Today(now time.Time) civil.Date {
	return civil.DateOf(now)
}

// DaysInclusive counts the calendar days in [start, end]. It returns 0 when
// end is before start.
func DaysInclusive(start, end civil.Date) int {
	if end.Before(start) {
		return 0
	}
	return end.DaysSince(start) + 1
}

// DateAtMidnight converts a calendar date to a UTC time for use as a SQL
// DATE parameter.
func DateAtMidnight(d civil.Date) time.Time {
	return d.In(time.UTC)
}
