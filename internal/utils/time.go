package utils

import (
	"fmt"
	"time"

	"github.com/modtrackin/modtrackin/internal/constants"
)

const minutesPerDay = 24 * 60

// Clock returns the current time. Components take one so tests can pin "today".
type Clock func() time.Time

// SystemClock is the wall clock in the local timezone.
func SystemClock() time.Time { return time.Now() }

// FixedClock returns a Clock that always reports t.
func FixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

// DateString formats t as YYYY-MM-DD in t's own location.
func DateString(t time.Time) string {
	return t.Format(constants.DateFormat)
}

// Today returns clock's current date string.
func Today(clock Clock) string {
	return DateString(clock())
}

// ParseTime parses a time string in the standard format (HH:MM).
func ParseTime(timeStr string) (time.Time, error) {
	return time.Parse(constants.TimeFormat, timeStr)
}

// ParseTimeToMinutes parses a time string (HH:MM) and returns the number of minutes from midnight.
func ParseTimeToMinutes(timeStr string) (int, error) {
	t, err := ParseTime(timeStr)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ParseDate validates and parses a YYYY-MM-DD string in loc.
func ParseDate(dateStr string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation(constants.DateFormat, dateStr, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", dateStr, err)
	}
	return t, nil
}

// CombineDateAndTime combines a date string (YYYY-MM-DD) and time string (HH:MM)
// into a single time.Time in the specified timezone.
func CombineDateAndTime(dateStr, timeStr string, loc *time.Location) (time.Time, error) {
	date, err := ParseDate(dateStr, loc)
	if err != nil {
		return time.Time{}, err
	}

	timeOfDay, err := ParseTime(timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time format: %w", err)
	}

	return time.Date(
		date.Year(), date.Month(), date.Day(),
		timeOfDay.Hour(), timeOfDay.Minute(), 0, 0,
		loc,
	), nil
}

// SleepMinutes returns the minutes slept between two clock times.
// When end is not strictly after start the night crosses midnight, so equal
// times count as a full day.
func SleepMinutes(startMin, endMin int) int {
	if endMin > startMin {
		return endMin - startMin
	}
	untilMidnight := minutesPerDay - startMin
	total := untilMidnight + endMin
	if total < 0 {
		return 0
	}
	return total
}

// SleepHours parses two HH:MM strings and returns the slept duration in hours.
func SleepHours(start, end string) (float64, error) {
	startMin, err := ParseTimeToMinutes(start)
	if err != nil {
		return 0, fmt.Errorf("invalid start time %q: %w", start, err)
	}
	endMin, err := ParseTimeToMinutes(end)
	if err != nil {
		return 0, fmt.Errorf("invalid end time %q: %w", end, err)
	}
	return float64(SleepMinutes(startMin, endMin)) / 60.0, nil
}

// SleepHoursBetween computes the duration from the clock times of two instants,
// ignoring their dates.
func SleepHoursBetween(start, end time.Time) float64 {
	startMin := start.Hour()*60 + start.Minute()
	endMin := end.Hour()*60 + end.Minute()
	return float64(SleepMinutes(startMin, endMin)) / 60.0
}

// FormatMinutes renders a minute count as "1h 30m", "45m" or "2h".
func FormatMinutes(minutes int) string {
	h, m := minutes/60, minutes%60
	switch {
	case h > 0 && m > 0:
		return fmt.Sprintf("%dh %dm", h, m)
	case h > 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dm", m)
	}
}
