// Package ical renders the schedule as an iCalendar feed.
package ical

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	"github.com/ROM1024/2025-BEBOP/plugin/normalize"
	"github.com/ROM1024/2025-BEBOP/store"
)

const (
	// ProductID identifies the generator in PRODID.
	ProductID = "-//BEBOP//Schedule//ZH"
	// CalendarName is the X-WR-CALNAME of the feed.
	CalendarName = "日程"

	floatingLayout = "20060102T150405"
	uidDomain      = "bebop"
)

// uidNamespace is the name-based UUID namespace of event UIDs.
var uidNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/ROM1024/2025-BEBOP/ical"))

// Export builds a calendar with one VEVENT per event of s, limited to r when r
// is non-nil. Times are floating local times; a single time lasts one hour
// and a time that does not parse becomes an all-day event.
func Export(s *store.Schedule, r *store.DateRange, now time.Time) string {
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName(CalendarName)

	for _, date := range s.Dates() {
		if r != nil && !r.Contains(date) {
			continue
		}
		day, err := time.Parse(normalize.DateKeyLayout, date)
		if err != nil {
			continue
		}
		for i, ev := range s.Day(date) {
			addEvent(cal, date, day, i, ev, now)
		}
	}
	return cal.Serialize()
}

func addEvent(cal *ics.Calendar, date string, day time.Time, index int, ev store.Event, now time.Time) {
	vevent := cal.AddEvent(EventUID(date, index, ev))
	vevent.SetDtStampTime(now)
	vevent.SetSummary(ev.Task)
	vevent.SetDescription("完成度: " + ev.Completion)

	start, end, ok := normalize.Span(ev.Time)
	if !ok {
		vevent.SetAllDayStartAt(day)
		vevent.SetAllDayEndAt(day.AddDate(0, 0, 1))
		return
	}
	vevent.SetProperty(ics.ComponentPropertyDtStart, day.Add(time.Duration(start)*time.Minute).Format(floatingLayout))
	vevent.SetProperty(ics.ComponentPropertyDtEnd, day.Add(time.Duration(end)*time.Minute).Format(floatingLayout))
}

// EventUID is stable for the same date, position, time and task, so
// re-exports update calendar entries instead of duplicating them.
func EventUID(date string, index int, ev store.Event) string {
	name := fmt.Sprintf("%s|%d|%s|%s", date, index, ev.Time, ev.Task)
	return uuid.NewSHA1(uidNamespace, []byte(name)).String() + "@" + uidDomain
}
