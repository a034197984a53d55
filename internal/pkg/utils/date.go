package utils

import (
	"math"
	"time"
)

const DateLayout = "2006-01-02"

// CivilDate returns the calendar day of t as observed in loc, normalized to
// midnight UTC. Attendance dates are stored and compared in this form.
func CivilDate(t time.Time, loc *time.Location) time.Time {
	local := t.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

// Normalize truncates a date-like value to midnight UTC without shifting the day.
func Normalize(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// At resolves a civil date and a wall-clock time into an instant in loc.
func At(date time.Time, clock time.Time, loc *time.Location) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), clock.Hour(), clock.Minute(), 0, 0, loc)
}

// DaysBetween counts whole days from a to b (both civil dates).
func DaysBetween(a, b time.Time) int {
	return int(Normalize(b).Sub(Normalize(a)).Hours() / 24)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// RoundHours rounds an hour figure to two decimals.
func RoundHours(h float64) float64 {
	return math.Round(h*100) / 100
}
