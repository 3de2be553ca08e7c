package schedule

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/teambition/rrule-go"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

// BrushMode selects how the format brush picks its target dates.
type BrushMode string

const (
	// BrushWeekly copies to the chosen weekdays of each of the next four weeks.
	BrushWeekly BrushMode = "weekly"
	// BrushBiweekly copies to one weekday in weeks +1, +3, +5 and +7.
	BrushBiweekly BrushMode = "biweekly"
	// BrushDaily copies to every day of an inclusive date range.
	BrushDaily BrushMode = "daily"
)

const (
	brushWeeks         = 4
	brushBiweeklyCount = 4
)

var isoWeekdays = [...]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// ErrInvalidBrush is returned for a BrushSpec that names no usable targets.
var ErrInvalidBrush = errors.New("invalid format brush")

// BrushSpec describes the target dates of a format brush. Weekdays are ISO
// numbers, 1 for Monday through 7 for Sunday. Biweekly uses the first one.
type BrushSpec struct {
	Mode     BrushMode `json:"mode"`
	Weekdays []int     `json:"weekdays,omitempty"`
	Start    string    `json:"start,omitempty"`
	End      string    `json:"end,omitempty"`
}

// BrushTargets expands spec into ascending date keys relative to from, the
// date the brushed event lives on.
func BrushTargets(from string, spec BrushSpec) ([]string, error) {
	base, err := time.Parse(normalize.DateKeyLayout, from)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidBrush, "source date %q", from)
	}
	nextMonday := store.NextWeek(base).Start

	var opt rrule.ROption
	switch spec.Mode {
	case BrushWeekly:
		days, err := weekdays(spec.Weekdays)
		if err != nil {
			return nil, err
		}
		start := mustDate(nextMonday)
		opt = rrule.ROption{
			Freq:      rrule.WEEKLY,
			Dtstart:   start,
			Until:     start.AddDate(0, 0, brushWeeks*7-1),
			Byweekday: days,
		}
	case BrushBiweekly:
		days, err := weekdays(spec.Weekdays)
		if err != nil {
			return nil, err
		}
		opt = rrule.ROption{
			Freq:      rrule.WEEKLY,
			Interval:  2,
			Count:     brushBiweeklyCount,
			Dtstart:   mustDate(nextMonday),
			Byweekday: days[:1],
		}
	case BrushDaily:
		r, err := store.NewDateRange(spec.Start, spec.End)
		if err != nil {
			return nil, errors.Wrap(ErrInvalidBrush, err.Error())
		}
		opt = rrule.ROption{
			Freq:    rrule.DAILY,
			Dtstart: mustDate(r.Start),
			Until:   mustDate(r.End),
		}
	default:
		return nil, errors.Wrapf(ErrInvalidBrush, "unknown mode %q", spec.Mode)
	}

	rule, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, errors.Wrap(err, "build brush rule")
	}
	occurrences := rule.All()
	targets := make([]string, 0, len(occurrences))
	for _, t := range occurrences {
		targets = append(targets, normalize.KeyOf(t))
	}
	return targets, nil
}

func weekdays(days []int) ([]rrule.Weekday, error) {
	if len(days) == 0 {
		return nil, errors.Wrap(ErrInvalidBrush, "no weekday given")
	}
	out := make([]rrule.Weekday, 0, len(days))
	for _, d := range days {
		if d < 1 || d > 7 {
			return nil, errors.Wrap(ErrInvalidBrush, fmt.Sprintf("weekday %d is not within 1-7", d))
		}
		out = append(out, isoWeekdays[d-1])
	}
	return out, nil
}

func mustDate(key string) time.Time {
	t, _ := time.Parse(normalize.DateKeyLayout, key)
	return t
}
