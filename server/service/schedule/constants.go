package schedule

import "github.com/pkg/errors"

// Schedule-specific errors that can be checked with errors.Is.
var (
	// ErrInvalidDate is returned for a date that is not a YYYY-MM-DD key.
	ErrInvalidDate = errors.New("invalid date")
	// ErrEventNotFound is returned for an event index outside the day.
	ErrEventNotFound = errors.New("event not found")
	// ErrEmptyTask is returned when an event without a task is brushed or added.
	ErrEmptyTask = errors.New("event has no task")
	// ErrNothingToOptimize is returned when the requested range holds no events.
	ErrNothingToOptimize = errors.New("nothing to optimize")
	// ErrOptimizerDisabled is returned when no LLM is configured.
	ErrOptimizerDisabled = errors.New("optimizer not configured")
	// ErrUnsavedChanges is returned by optimize while in-memory edits are not
	// saved, since the run starts by reloading the file.
	ErrUnsavedChanges = errors.New("schedule has unsaved changes")
	// ErrFeedbackDisabled is returned when no feedback file is configured.
	ErrFeedbackDisabled = errors.New("feedback file not configured")
)
