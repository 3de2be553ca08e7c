package xlsx

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

// Mismatch describes one date whose saved events differ from memory.
type Mismatch struct {
	Date   string `json:"date"`
	Reason string `json:"reason"`
}

// RoundTripError lists every date that did not survive a save and reload.
type RoundTripError struct {
	Path       string
	Mismatches []Mismatch
}

func (e *RoundTripError) Error() string {
	parts := make([]string, 0, len(e.Mismatches))
	for _, m := range e.Mismatches {
		parts = append(parts, m.Date+": "+m.Reason)
	}
	return fmt.Sprintf("%s: round trip mismatch on %d date(s): %s", e.Path, len(e.Mismatches), strings.Join(parts, "; "))
}

// ValidateRoundTrip re-reads path and checks that every date holds the same
// events as s, in the same order. Expected values are compared in the form
// the reader produces them: canonical times and a default completion.
func ValidateRoundTrip(ctx context.Context, s *store.Schedule, path string) error {
	loaded, err := Load(ctx, path)
	if err != nil {
		return err
	}

	expected := expectedDays(s)
	actual := loaded.Snapshot()

	dates := make(map[string]struct{}, len(expected)+len(actual))
	for d := range expected {
		dates[d] = struct{}{}
	}
	for d := range actual {
		dates[d] = struct{}{}
	}
	ordered := make([]string, 0, len(dates))
	for d := range dates {
		ordered = append(ordered, d)
	}
	sort.Strings(ordered)

	var mismatches []Mismatch
	for _, date := range ordered {
		if reason := compareDay(expected[date], actual[date]); reason != "" {
			mismatches = append(mismatches, Mismatch{Date: date, Reason: reason})
		}
	}
	if len(mismatches) > 0 {
		return &RoundTripError{Path: path, Mismatches: mismatches}
	}
	return nil
}

func expectedDays(s *store.Schedule) store.Days {
	out := store.Days{}
	for date, events := range s.Snapshot() {
		day := store.NewSchedule()
		for _, ev := range events {
			if ev.Task == "" {
				continue
			}
			ev.Time = normalize.Time(ev.Time)
			ev.Completion = orDefault(ev.Completion, store.StatusNotStarted)
			day.AppendEvent(date, ev)
		}
		if day.Has(date) {
			out[date] = day.Day(date)
		}
	}
	return out
}

func compareDay(expected, actual []store.Event) string {
	if len(expected) != len(actual) {
		return fmt.Sprintf("expected %d events, found %d", len(expected), len(actual))
	}
	for i := range expected {
		if expected[i] != actual[i] {
			return fmt.Sprintf("event %d: expected %+v, found %+v", i, expected[i], actual[i])
		}
	}
	return ""
}
