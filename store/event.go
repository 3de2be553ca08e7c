package store

// Completion values offered by the editors. Completion is free text: any other
// value read from the spreadsheet is kept as is.
const (
	StatusNotStarted    = "未开始"
	StatusInProgress    = "进行中"
	StatusDone          = "已完成"
	StatusDeferred      = "延期"
	StatusCancelled     = "取消"
	StatusPendingReview = "待评价"
)

// AllDay is the time written for events saved without a time.
const AllDay = "全天"

// Statuses lists the suggested completion values in display order.
var Statuses = []string{
	StatusNotStarted,
	StatusInProgress,
	StatusDone,
	StatusDeferred,
	StatusCancelled,
	StatusPendingReview,
}

// Event is one scheduled activity on a day.
type Event struct {
	// Time is a CanonicalTimeSpec, e.g. "9:00 - 10:00".
	Time string `json:"time"`
	Task string `json:"task"`
	// Completion is the free-text status of the event.
	Completion string `json:"completion"`
}

// Days maps a CanonicalDateKey to that day's events. Unlike a Schedule, a Days
// value may carry empty lists, which clear a day when merged.
type Days map[string][]Event

// Count returns the total number of events across all days.
func (d Days) Count() int {
	n := 0
	for _, events := range d {
		n += len(events)
	}
	return n
}
