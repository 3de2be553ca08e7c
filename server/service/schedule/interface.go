package schedule

import (
	"context"
	"time"

	"github.com/ROM1024/2025-BEBOP/server/service/optimizer"
	"github.com/ROM1024/2025-BEBOP/store"
)

// Service is the schedule session shared by the CLI and the HTTP API. It owns
// the in-memory schedule and every write to the spreadsheet.
type Service interface {
	// Load replaces the schedule with the spreadsheet contents. A missing
	// file yields an empty schedule; any other failure leaves it untouched.
	Load(ctx context.Context) error
	// Save writes the whole schedule back to the spreadsheet.
	Save(ctx context.Context) error
	// Close saves pending changes.
	Close(ctx context.Context) error
	// Modified reports whether there are unsaved changes.
	Modified() bool

	// Day returns a copy of one day's events.
	Day(date string) ([]store.Event, error)
	// Days returns the non-empty days inside r, or every day when r is nil.
	Days(r *store.DateRange) store.Days
	// Schedule exposes the owned schedule for read-only consumers.
	Schedule() *store.Schedule

	SaveDay(date string, rows []store.Event) ([]store.Event, error)
	AddEvent(date string, ev store.Event) ([]store.Event, error)
	DeleteEvent(date string, index int) ([]store.Event, error)
	ClearDay(date string) error
	// ApplyBrush copies one event to the dates spec selects and returns
	// the number of copies made.
	ApplyBrush(date string, index int, spec BrushSpec) (int, error)

	Conflicts(date string) ([]Conflict, error)
	FreeSlots(date string, minMinutes int) ([]TimeSlot, error)

	// OptimizeNextWeek rebalances the calendar week after now.
	OptimizeNextWeek(ctx context.Context, now time.Time) (*OptimizeResult, error)
	// OptimizeRange reloads the file, rebalances r with the model and saves.
	// It fails with ErrUnsavedChanges while Modified is true.
	OptimizeRange(ctx context.Context, r store.DateRange) (*OptimizeResult, error)

	// ValidateExport saves and re-reads the spreadsheet, reporting any
	// difference from memory.
	ValidateExport(ctx context.Context) error

	Feedback(ctx context.Context) (store.FeedbackSet, error)
	PutFeedback(ctx context.Context, date string, fb store.Feedback) (store.FeedbackSet, error)
	// ImportFeedback merges the rating sheet at path into the feedback file.
	ImportFeedback(ctx context.Context, path string) (int, error)
}

// Codec reads and writes the schedule spreadsheet.
type Codec interface {
	Load(ctx context.Context) (*store.Schedule, error)
	Save(ctx context.Context, s *store.Schedule) error
	ValidateRoundTrip(ctx context.Context, s *store.Schedule) error
}

// Optimizer produces a validated revision of a date range.
type Optimizer interface {
	Optimize(ctx context.Context, src optimizer.Source, r store.DateRange) (*optimizer.Revision, error)
}

// OptimizeResult is the outcome of a merged optimize run.
type OptimizeResult struct {
	RunID  string          `json:"run_id"`
	Range  store.DateRange `json:"range"`
	Merged int             `json:"merged"`
	Days   store.Days      `json:"days"`
}
