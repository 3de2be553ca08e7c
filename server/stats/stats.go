// Package stats provides simple local usage statistics for the schedule.
// Everything is computed on demand from a snapshot; there is no collector.
package stats

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

// streakLimit bounds how far back the streak search walks.
const streakLimit = 365

// Stats represents schedule statistics as of one day.
type Stats struct {
	TotalDays   int `json:"total_days"`
	TotalEvents int `json:"total_events"`

	EventsThisWeek int `json:"events_this_week"`
	EventsNextWeek int `json:"events_next_week"`

	// ByCompletion counts events per completion status.
	ByCompletion map[string]int `json:"by_completion"`
	// CompletionRate is the share of done events among this week's events.
	CompletionRate float64 `json:"completion_rate"`

	ActiveDays int `json:"active_days"` // days with events in the last 30 days
	StreakDays int `json:"streak_days"` // consecutive days with events ending today

	RatedDays     int     `json:"rated_days"`
	AverageRating float64 `json:"average_rating"`

	FirstDate string `json:"first_date,omitempty"`
	LastDate  string `json:"last_date,omitempty"`
	Today     string `json:"today"`
}

// Compute gathers statistics from days and feedback relative to now.
func Compute(days store.Days, feedback store.FeedbackSet, now time.Time) *Stats {
	today := normalize.KeyOf(now)
	thisWeek := store.WeekOf(now)
	nextWeek := store.NextWeek(now)
	monthAgo := normalize.KeyOf(now.AddDate(0, 0, -29))

	s := &Stats{
		ByCompletion: make(map[string]int),
		Today:        today,
	}

	dates := make([]string, 0, len(days))
	doneThisWeek := 0
	for date, events := range days {
		if len(events) == 0 {
			continue
		}
		dates = append(dates, date)
		s.TotalDays++
		s.TotalEvents += len(events)

		for _, ev := range events {
			s.ByCompletion[ev.Completion]++
		}
		switch {
		case thisWeek.Contains(date):
			s.EventsThisWeek += len(events)
			for _, ev := range events {
				if ev.Completion == store.StatusDone {
					doneThisWeek++
				}
			}
		case nextWeek.Contains(date):
			s.EventsNextWeek += len(events)
		}
		if date >= monthAgo && date <= today {
			s.ActiveDays++
		}
	}
	sort.Strings(dates)
	if len(dates) > 0 {
		s.FirstDate, s.LastDate = dates[0], dates[len(dates)-1]
	}
	if s.EventsThisWeek > 0 {
		s.CompletionRate = float64(doneThisWeek) / float64(s.EventsThisWeek)
	}
	s.StreakDays = streakDays(days, now)

	total := 0.0
	for _, fb := range feedback {
		total += fb.Rating
		s.RatedDays++
	}
	if s.RatedDays > 0 {
		s.AverageRating = total / float64(s.RatedDays)
	}
	return s
}

// streakDays counts consecutive days with at least one event, walking back
// from the day of now.
func streakDays(days store.Days, now time.Time) int {
	streak := 0
	for i := 0; i < streakLimit; i++ {
		if len(days[normalize.KeyOf(now.AddDate(0, 0, -i))]) == 0 {
			break
		}
		streak++
	}
	return streak
}

// GetSummary returns a human-readable summary.
func (s *Stats) GetSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 日程统计 (截至: %s)\n\n", s.Today)
	fmt.Fprintf(&b, "📅 日程\n  天数: %d 天\n  事件: %d 个\n  本周: %d 个\n  下周: %d 个\n\n",
		s.TotalDays, s.TotalEvents, s.EventsThisWeek, s.EventsNextWeek)

	b.WriteString("✅ 完成度\n")
	for _, status := range s.statuses() {
		fmt.Fprintf(&b, "  %s: %d 个\n", status, s.ByCompletion[status])
	}
	fmt.Fprintf(&b, "  本周完成率: %.0f%%\n\n", s.CompletionRate*100)

	fmt.Fprintf(&b, "📈 活跃度\n  活跃天数 (30天): %d 天\n  连续天数: %d 天", s.ActiveDays, s.StreakDays)
	if s.RatedDays > 0 {
		fmt.Fprintf(&b, "\n\n⭐ 评分\n  已评价: %d 天\n  平均分: %.1f", s.RatedDays, s.AverageRating)
	}
	return b.String()
}

// statuses lists the known statuses first, then any custom ones in order.
func (s *Stats) statuses() []string {
	out := make([]string, 0, len(s.ByCompletion))
	known := make(map[string]bool, len(store.Statuses))
	for _, status := range store.Statuses {
		known[status] = true
		if s.ByCompletion[status] > 0 {
			out = append(out, status)
		}
	}
	var custom []string
	for status := range s.ByCompletion {
		if !known[status] {
			custom = append(custom, status)
		}
	}
	sort.Strings(custom)
	return append(out, custom...)
}
