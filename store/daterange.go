package store

import (
	"time"

	"github.com/pkg/errors"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
)

// ErrInvalidDateRange is returned for ranges whose bounds are not date keys or
// whose start is after the end.
var ErrInvalidDateRange = errors.New("invalid date range")

// DateRange is an inclusive range of date keys. Keys compare correctly as
// strings, so no parsing is needed for membership.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewDateRange validates start and end and returns the range between them.
func NewDateRange(start, end string) (DateRange, error) {
	if !normalize.IsDateKey(start) || !normalize.IsDateKey(end) {
		return DateRange{}, errors.Wrapf(ErrInvalidDateRange, "%q..%q", start, end)
	}
	if start > end {
		return DateRange{}, errors.Wrapf(ErrInvalidDateRange, "start %s is after end %s", start, end)
	}
	return DateRange{Start: start, End: end}, nil
}

// SingleDay returns the range covering only date.
func SingleDay(date string) DateRange {
	return DateRange{Start: date, End: date}
}

// WeekOf returns the Monday to Sunday range containing t.
func WeekOf(t time.Time) DateRange {
	monday := dateOnly(t).AddDate(0, 0, -isoWeekdayIndex(t))
	return DateRange{
		Start: normalize.KeyOf(monday),
		End:   normalize.KeyOf(monday.AddDate(0, 0, 6)),
	}
}

// NextWeek returns the Monday to Sunday range of the week after the one
// containing now. On a Monday it is the following Monday, never today.
func NextWeek(now time.Time) DateRange {
	return WeekOf(dateOnly(now).AddDate(0, 0, 7-isoWeekdayIndex(now)))
}

// Contains reports whether date falls inside the range.
func (r DateRange) Contains(date string) bool {
	return date >= r.Start && date <= r.End
}

// Days lists every date key of the range in order.
func (r DateRange) Days() []string {
	start, err := time.Parse(normalize.DateKeyLayout, r.Start)
	if err != nil {
		return nil
	}
	end, err := time.Parse(normalize.DateKeyLayout, r.End)
	if err != nil {
		return nil
	}

	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, normalize.KeyOf(d))
	}
	return days
}

// Key identifies the range, e.g. "2024-06-10..2024-06-16".
func (r DateRange) Key() string {
	return r.Start + ".." + r.End
}

func (r DateRange) String() string {
	return r.Key()
}

// isoWeekdayIndex is 0 for Monday through 6 for Sunday.
func isoWeekdayIndex(t time.Time) int {
	return (int(t.Weekday()) + 6) % 7
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
