package store

import (
	"sort"
	"sync"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
)

// Schedule is the in-memory calendar: date key to time-ordered events.
//
// Every stored day is sorted non-decreasing by normalize.TimeToMinutes and
// holds at least one event. Schedule is safe for concurrent use.
type Schedule struct {
	mu   sync.RWMutex
	days map[string][]Event
}

// NewSchedule creates an empty schedule.
func NewSchedule() *Schedule {
	return &Schedule{days: make(map[string][]Event)}
}

// FromDays builds a schedule by appending every event of days as is. Empty
// lists are dropped.
func FromDays(days Days) *Schedule {
	s := NewSchedule()
	for date, events := range days {
		for _, ev := range events {
			s.appendLocked(date, ev)
		}
	}
	return s
}

// UpsertDay replaces the events of date. Events with an empty task are dropped
// and the rest are sorted by start time. An empty result removes the day.
func (s *Schedule) UpsertDay(date string, events []Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsertLocked(date, events)
}

// DeleteDay removes date. It is a no-op when the day is absent.
func (s *Schedule) DeleteDay(date string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.days, date)
}

// AppendEvent adds ev to date and re-sorts the day. It is the raw ingestion
// path: events with an empty task are kept.
func (s *Schedule) AppendEvent(date string, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appendLocked(date, ev)
}

// Merge upserts every date of r that is present in other and returns how many
// days were written. Dates outside r are ignored.
func (s *Schedule) Merge(other Days, r DateRange) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := 0
	for date, events := range other {
		if !r.Contains(date) {
			continue
		}
		s.upsertLocked(date, events)
		merged++
	}
	return merged
}

// ReplaceAll clears the schedule and upserts every day of other.
func (s *Schedule) ReplaceAll(other Days) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.days = make(map[string][]Event, len(other))
	for date, events := range other {
		s.upsertLocked(date, events)
	}
}

// Restore makes s an exact copy of other, bypassing the upsert filter.
func (s *Schedule) Restore(other Days) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.days = make(map[string][]Event, len(other))
	for date, events := range other {
		if len(events) == 0 {
			continue
		}
		s.days[date] = append([]Event(nil), events...)
	}
}

// Day returns a copy of the events of date, or nil.
func (s *Schedule) Day(date string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events, ok := s.days[date]
	if !ok {
		return nil
	}
	return append([]Event(nil), events...)
}

// Has reports whether date has events.
func (s *Schedule) Has(date string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.days[date]
	return ok
}

// Dates returns the stored date keys in ascending order.
func (s *Schedule) Dates() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dates := make([]string, 0, len(s.days))
	for date := range s.days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// Len returns the number of stored days.
func (s *Schedule) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.days)
}

// EventCount returns the number of events across all days.
func (s *Schedule) EventCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, events := range s.days {
		n += len(events)
	}
	return n
}

// Snapshot returns a deep copy of all days.
func (s *Schedule) Snapshot() Days {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Days, len(s.days))
	for date, events := range s.days {
		out[date] = append([]Event(nil), events...)
	}
	return out
}

// Slice returns every day of r, with an empty list for days without events.
func (s *Schedule) Slice(r DateRange) Days {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Days)
	for _, date := range r.Days() {
		out[date] = append([]Event{}, s.days[date]...)
	}
	return out
}

func (s *Schedule) upsertLocked(date string, events []Event) {
	kept := make([]Event, 0, len(events))
	for _, ev := range events {
		if ev.Task == "" {
			continue
		}
		kept = append(kept, ev)
	}
	if len(kept) == 0 {
		delete(s.days, date)
		return
	}
	sortEvents(kept)
	s.days[date] = kept
}

func (s *Schedule) appendLocked(date string, ev Event) {
	events := append(s.days[date], ev)
	sortEvents(events)
	s.days[date] = events
}

// sortEvents orders events by start time. The sort is stable, so events with
// the same key, including unparseable times at 0, keep their relative order.
func sortEvents(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return normalize.TimeToMinutes(events[i].Time) < normalize.TimeToMinutes(events[j].Time)
	})
}
