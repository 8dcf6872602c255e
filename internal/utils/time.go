package utils

import (
	"fmt"
	"time"

	"github.com/Jackob-K/personal-ai-infra/internal/constants"
)

// LoadLocation loads a timezone location from an IANA timezone name.
// If the timezone is "Local" or empty, it returns the system's local timezone.
func LoadLocation(timezone string) (*time.Location, error) {
	if timezone == "" || timezone == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(timezone)
}

// ParseClock parses a time-of-day string in the standard format (HH:MM).
func ParseClock(clock string) (hour, minute int, err error) {
	t, err := time.Parse(constants.TimeFormat, clock)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q (expected HH:MM): %w", clock, err)
	}
	return t.Hour(), t.Minute(), nil
}

// AtClock places a time-of-day string (HH:MM) on the given day, keeping the
// day's location.
func AtClock(day time.Time, clock string) (time.Time, error) {
	hour, minute, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location()), nil
}

// ParseDate parses a date string (YYYY-MM-DD), accepting "today" as the
// current date in the given location.
func ParseDate(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	if value == "" || value == "today" {
		now := time.Now().In(loc)
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc), nil
	}
	t, err := time.ParseInLocation(constants.DateFormat, value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, use YYYY-MM-DD or 'today': %w", err)
	}
	return t, nil
}

// WeekdayKey returns the lowercase three-letter key (mon..sun) used by fixed
// block rules for the given day.
func WeekdayKey(day time.Time) string {
	switch day.Weekday() {
	case time.Monday:
		return "mon"
	case time.Tuesday:
		return "tue"
	case time.Wednesday:
		return "wed"
	case time.Thursday:
		return "thu"
	case time.Friday:
		return "fri"
	case time.Saturday:
		return "sat"
	default:
		return "sun"
	}
}
