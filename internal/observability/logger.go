package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	// LogFieldRunID is the field name for optimize run ID.
	LogFieldRunID = "run_id"
	// LogFieldRange is the field name for the date range of a run.
	LogFieldRange = "range"
	// LogFieldStage is the field name for the pipeline stage.
	LogFieldStage = "stage"
	// LogFieldDuration is the field name for duration in milliseconds.
	LogFieldDuration = "duration_ms"
	// LogFieldEventCount is the field name for the number of events involved.
	LogFieldEventCount = "event_count"
	// LogFieldResponseLen is the field name for model response length.
	LogFieldResponseLen = "response_length"
)

// RunContext carries the identity and logger of one optimize run.
type RunContext struct {
	RunID     string
	Range     string
	StartTime time.Time
	Logger    *slog.Logger
}

// NewRunContext creates a run context with a generated run ID. A nil logger
// means slog.Default().
func NewRunContext(logger *slog.Logger, rangeKey string) *RunContext {
	return NewRunContextWithID(logger, generateRunID(), rangeKey)
}

// NewRunContextWithID creates a run context with a specific run ID.
func NewRunContextWithID(logger *slog.Logger, runID, rangeKey string) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunContext{
		RunID:     runID,
		Range:     rangeKey,
		StartTime: time.Now(),
		Logger:    logger,
	}
}

// Info logs an info message.
func (r *RunContext) Info(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelInfo, msg, r.baseAttrsAppended(attrs...)...)
}

// Debug logs a debug message.
func (r *RunContext) Debug(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelDebug, msg, r.baseAttrsAppended(attrs...)...)
}

// Warn logs a warning message.
func (r *RunContext) Warn(msg string, attrs ...slog.Attr) {
	r.Logger.LogAttrs(context.Background(), slog.LevelWarn, msg, r.baseAttrsAppended(attrs...)...)
}

// Error logs an error message with the error and the elapsed time.
func (r *RunContext) Error(msg string, err error, attrs ...slog.Attr) {
	allAttrs := append(attrs, slog.String("error", err.Error()), slog.Int64(LogFieldDuration, r.DurationMs()))
	r.Logger.LogAttrs(context.Background(), slog.LevelError, msg, r.baseAttrsAppended(allAttrs...)...)
}

// Duration returns the elapsed time since the run started.
func (r *RunContext) Duration() time.Duration {
	return time.Since(r.StartTime)
}

// DurationMs returns the elapsed time in milliseconds.
func (r *RunContext) DurationMs() int64 {
	return r.Duration().Milliseconds()
}

func (r *RunContext) baseAttrsAppended(attrs ...slog.Attr) []slog.Attr {
	base := []slog.Attr{
		slog.String(LogFieldRunID, r.RunID),
		slog.String(LogFieldRange, r.Range),
	}
	return append(base, attrs...)
}

// generateRunID generates a unique run ID using full UUID.
func generateRunID() string {
	return uuid.New().String()
}

type ctxKey struct{}

// WithRunContext adds the run context to the context.
func WithRunContext(ctx context.Context, run *RunContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, run)
}

// FromContext extracts the run context from the context.
func FromContext(ctx context.Context) (*RunContext, bool) {
	run, ok := ctx.Value(ctxKey{}).(*RunContext)
	return run, ok
}
