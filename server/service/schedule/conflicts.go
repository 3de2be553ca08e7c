package schedule

import (
	"sort"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

const (
	// DayStartMinute and DayEndMinute bound the free slot search (8:00 to 22:00).
	DayStartMinute = 8 * 60
	DayEndMinute   = 22 * 60
)

// Conflict is a pair of events on one day whose time ranges overlap.
type Conflict struct {
	First          int    `json:"first"`
	Second         int    `json:"second"`
	FirstTask      string `json:"first_task"`
	SecondTask     string `json:"second_task"`
	OverlapMinutes int    `json:"overlap_minutes"`
}

// TimeSlot is a free period of a day.
type TimeSlot struct {
	Start string `json:"start"`
	End   string `json:"end"`
	// Minutes is the full length of the gap.
	Minutes int `json:"minutes"`
}

type busyRange struct {
	index      int
	start, end int
}

func busyRanges(events []store.Event) []busyRange {
	var ranges []busyRange
	for i, ev := range events {
		start, end, ok := normalize.Span(ev.Time)
		if !ok {
			continue
		}
		ranges = append(ranges, busyRange{index: i, start: start, end: end})
	}
	sort.SliceStable(ranges, func(i, j int) bool {
		return ranges[i].start < ranges[j].start
	})
	return ranges
}

// DetectConflicts reports every overlapping pair of timed events. Indexes
// refer to positions in events. All-day and malformed times never conflict.
func DetectConflicts(events []store.Event) []Conflict {
	ranges := busyRanges(events)

	var conflicts []Conflict
	for i := 0; i < len(ranges); i++ {
		for j := i + 1; j < len(ranges); j++ {
			a, b := ranges[i], ranges[j]
			if b.start >= a.end {
				break
			}
			overlap := min(a.end, b.end) - b.start
			first, second := a.index, b.index
			if first > second {
				first, second = second, first
			}
			conflicts = append(conflicts, Conflict{
				First:          first,
				Second:         second,
				FirstTask:      events[first].Task,
				SecondTask:     events[second].Task,
				OverlapMinutes: overlap,
			})
		}
	}
	return conflicts
}

// FreeSlots returns the gaps of at least minMinutes between DayStartMinute and
// DayEndMinute that no timed event covers.
func FreeSlots(events []store.Event, minMinutes int) []TimeSlot {
	if minMinutes <= 0 {
		minMinutes = normalize.DefaultSpan
	}

	var slots []TimeSlot
	current := DayStartMinute
	add := func(from, to int) {
		if to-from >= minMinutes {
			slots = append(slots, TimeSlot{
				Start:   normalize.FormatClock(from),
				End:     normalize.FormatClock(to),
				Minutes: to - from,
			})
		}
	}

	for _, busy := range busyRanges(events) {
		if busy.end <= current {
			continue
		}
		if busy.start >= DayEndMinute {
			break
		}
		if busy.start > current {
			add(current, busy.start)
		}
		current = busy.end
	}
	if current < DayEndMinute {
		add(current, DayEndMinute)
	}
	return slots
}
