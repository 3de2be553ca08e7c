// Package timezone resolves the configured timezone that decides what
// "today" and "next week" mean for the schedule.
package timezone

import (
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/pkg/errors"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
)

const (
	// TimezoneLocal selects the host timezone.
	TimezoneLocal = "Local"
	// TimezoneUTC is the UTC timezone identifier.
	TimezoneUTC = "UTC"
	// TimezoneAsiaShanghai is the China Standard Time timezone.
	TimezoneAsiaShanghai = "Asia/Shanghai"
)

// ParseTimezone parses an IANA timezone identifier (e.g., "Asia/Shanghai").
// Empty and "Local" mean the host timezone. If the timezone is invalid,
// returns time.Local and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	switch tz {
	case "", TimezoneLocal:
		return time.Local, nil
	case TimezoneUTC:
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Local, errors.Wrapf(err, "invalid timezone %q", tz)
	}
	return loc, nil
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	_, err := ParseTimezone(tz)
	return err == nil
}

// NowInTimezone returns the current time in the given timezone.
func NowInTimezone(tz *time.Location) time.Time {
	if tz == nil {
		tz = time.Local
	}
	return time.Now().In(tz)
}

// StartOfDay returns the start of the day (00:00:00) in the given timezone.
func StartOfDay(t time.Time, tz *time.Location) time.Time {
	if tz == nil {
		tz = time.Local
	}
	in := t.In(tz)
	return time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, tz)
}

// DateKey returns the YYYY-MM-DD key of t as seen in tz.
func DateKey(t time.Time, tz *time.Location) string {
	return normalize.KeyOf(StartOfDay(t, tz))
}
