// Package optimizer asks an LLM to rebalance a date range of the schedule and
// returns the validated answer as a revision the caller may merge.
package optimizer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/ROM1024/2025-BEBOP/plugin/ai"
	"github.com/ROM1024/2025-BEBOP/internal/observability"
	"github.com/ROM1024/2025-BEBOP/store"
)

// Stage names one step of an optimize run.
type Stage string

const (
	StageCollecting       Stage = "collecting"
	StagePrompting        Stage = "prompting"
	StageAwaitingResponse Stage = "awaiting_response"
	StageExtracting       Stage = "extracting"
	StageValidating       Stage = "validating"
	StageMerging          Stage = "merging"
	StageRejected         Stage = "rejected"
)

// DefaultMaxTokens is the completion budget for an optimize call.
const DefaultMaxTokens = 2000

// RejectedError reports the stage at which a run was abandoned.
type RejectedError struct {
	Stage Stage
	RunID string
	Cause error
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("optimize run %s rejected at %s: %v", e.RunID, e.Stage, e.Cause)
}

func (e *RejectedError) Unwrap() error {
	return e.Cause
}

// Source is the read side of the schedule the bridge collects from.
type Source interface {
	Slice(r store.DateRange) store.Days
}

// Revision is a validated model answer. Days may hold dates outside Range
// and empty lists; both are resolved by the merge.
type Revision struct {
	RunID string
	Range store.DateRange
	Days  store.Days
	Raw   string
}

// Bridge runs optimize requests against an LLM. Concurrent requests for the
// same range share one model call.
type Bridge struct {
	llm       ai.LLMService
	maxTokens int
	logger    *slog.Logger
	metrics   *observability.Metrics
	group     singleflight.Group
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithMaxTokens overrides DefaultMaxTokens.
func WithMaxTokens(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.maxTokens = n
		}
	}
}

// WithLogger sets the logger runs derive from.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) { b.logger = logger }
}

// WithMetrics records run outcomes into m.
func WithMetrics(m *observability.Metrics) Option {
	return func(b *Bridge) { b.metrics = m }
}

// NewBridge creates a bridge on top of llm.
func NewBridge(llm ai.LLMService, opts ...Option) *Bridge {
	b := &Bridge{
		llm:       llm,
		maxTokens: DefaultMaxTokens,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Metrics returns the recorder attached with WithMetrics, or nil.
func (b *Bridge) Metrics() *observability.Metrics {
	return b.metrics
}

// CallModel sends prompt as a single user message and returns the raw answer.
func (b *Bridge) CallModel(ctx context.Context, prompt string) (string, error) {
	if b.llm == nil {
		return "", errors.New("llm service not configured")
	}
	messages := []ai.Message{ai.UserMessage(prompt)}
	b.logger.DebugContext(ctx, "calling model", "messages", ai.FormatMessages(messages))
	out, err := b.llm.Chat(ctx, messages, ai.WithMaxTokens(b.maxTokens))
	if err != nil {
		return "", errors.Wrap(err, "chat completion")
	}
	return out, nil
}

// Optimize collects r from src, asks the model for a rebalanced version and
// validates the answer. It never writes to src.
func (b *Bridge) Optimize(ctx context.Context, src Source, r store.DateRange) (*Revision, error) {
	v, err, shared := b.group.Do(r.Key(), func() (any, error) {
		return b.run(ctx, src, r)
	})
	if shared && b.metrics != nil {
		b.metrics.RecordShared()
	}
	if err != nil {
		return nil, err
	}
	return v.(*Revision), nil
}

func (b *Bridge) run(ctx context.Context, src Source, r store.DateRange) (*Revision, error) {
	run := observability.NewRunContext(b.logger, r.Key())
	if b.metrics != nil {
		b.metrics.RecordRun()
	}

	reject := func(stage Stage, cause error) (*Revision, error) {
		run.Error("optimize rejected", cause, slog.String(observability.LogFieldStage, string(stage)))
		if b.metrics != nil {
			b.metrics.RecordRejected(string(stage), run.Duration())
		}
		return nil, &RejectedError{Stage: stage, RunID: run.RunID, Cause: cause}
	}

	run.Debug("collecting", slog.String(observability.LogFieldStage, string(StageCollecting)))
	slice := src.Slice(r)
	run.Info("collected range", slog.Int(observability.LogFieldEventCount, slice.Count()))

	prompt, err := BuildPrompt(slice)
	if err != nil {
		return reject(StagePrompting, err)
	}

	if err := ctx.Err(); err != nil {
		return reject(StageAwaitingResponse, err)
	}
	started := time.Now()
	raw, err := b.CallModel(ctx, prompt)
	if err != nil {
		return reject(StageAwaitingResponse, err)
	}
	run.Info("model answered",
		slog.Int(observability.LogFieldResponseLen, len(raw)),
		slog.Int64("model_ms", time.Since(started).Milliseconds()),
	)

	payload, err := ExtractPayload(raw)
	if err != nil {
		return reject(StageExtracting, err)
	}
	if err := ValidatePayload(payload); err != nil {
		return reject(StageValidating, err)
	}

	days := ToDays(payload)
	if b.metrics != nil {
		b.metrics.RecordMerged(run.Duration())
	}
	run.Info("revision ready",
		slog.String(observability.LogFieldStage, string(StageMerging)),
		slog.Int(observability.LogFieldEventCount, days.Count()),
		slog.Int64(observability.LogFieldDuration, run.DurationMs()),
	)
	return &Revision{RunID: run.RunID, Range: r, Days: days, Raw: raw}, nil
}
