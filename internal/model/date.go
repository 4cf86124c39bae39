package model

import (
	"fmt"
	"strings"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// Date is a calendar date without time zone, counted in days since 1970-01-01.
type Date int32

// NewDate returns the Date for the given calendar fields.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date(t.Unix() / secondsPerDay)
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// dateLayouts are tried in order by ParseDate. Layouts carrying a time of day
// are truncated to their calendar date as written, without zone conversion.
var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	time.DateTime,
	"2006-01-02T15:04:05",
}

// ParseDate parses an ISO-8601 date (YYYY-MM-DD) or date-time.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return 0, fmt.Errorf("invalid date %q", s)
}

// Time returns midnight UTC of the date.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time().Year()
}

// Month returns the calendar month, 1-12.
func (d Date) Month() int {
	return int(d.Time().Month())
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Time().Format(time.DateOnly)
}
