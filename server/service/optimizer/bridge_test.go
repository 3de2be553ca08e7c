package optimizer

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ROM1024/2025-BEBOP/plugin/ai"
	"github.com/ROM1024/2025-BEBOP/internal/observability"
	"github.com/ROM1024/2025-BEBOP/store"
)

type fakeLLM struct {
	answer  string
	err     error
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}

	mu       sync.Mutex
	messages []ai.Message
	opts     ai.ChatOptions
}

func (f *fakeLLM) Chat(ctx context.Context, messages []ai.Message, opts ...ai.ChatOption) (string, error) {
	f.calls.Add(1)
	var o ai.ChatOptions
	for _, opt := range opts {
		opt(&o)
	}
	f.mu.Lock()
	f.messages = messages
	f.opts = o
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.answer, f.err
}

func (f *fakeLLM) ChatStream(ctx context.Context, messages []ai.Message, opts ...ai.ChatOption) (<-chan string, <-chan error) {
	content := make(chan string)
	errs := make(chan error, 1)
	close(content)
	errs <- errors.New("not implemented")
	close(errs)
	return content, errs
}

func week(t *testing.T) store.DateRange {
	r, err := store.NewDateRange("2024-06-10", "2024-06-16")
	require.NoError(t, err)
	return r
}

func sampleSchedule() *store.Schedule {
	s := store.NewSchedule()
	s.UpsertDay("2024-06-10", []store.Event{{Time: "9:00 - 10:00", Task: "会议", Completion: "未开始"}})
	return s
}

func TestBridge_Optimize(t *testing.T) {
	llm := &fakeLLM{answer: `here is it: {"2024-06-10":[{"time":"09:00-10:00","task":"会议","completion":"待评价"}]} thanks`}
	metrics := observability.NewMetrics(10)
	b := NewBridge(llm, WithMetrics(metrics))

	src := sampleSchedule()
	before := src.Snapshot()

	rev, err := b.Optimize(context.Background(), src, week(t))
	require.NoError(t, err)

	assert.NotEmpty(t, rev.RunID)
	assert.Equal(t, week(t), rev.Range)
	assert.Equal(t, store.Days{"2024-06-10": {{Time: "09:00 - 10:00", Task: "会议", Completion: "待评价"}}}, rev.Days)
	assert.Equal(t, before, src.Snapshot(), "bridge must not write to the source")

	require.Len(t, llm.messages, 1)
	assert.Equal(t, "user", llm.messages[0].Role)
	assert.Contains(t, llm.messages[0].Content, `"2024-06-16": []`)
	assert.Equal(t, DefaultMaxTokens, llm.opts.MaxTokens)

	snap := metrics.Snapshot()
	assert.Equal(t, int64(1), snap.RunsTotal)
	assert.Equal(t, int64(1), snap.RunsMerged)
}

func TestBridge_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		answer string
		err    error
		stage  Stage
	}{
		{name: "model error", err: errors.New("connection refused"), stage: StageAwaitingResponse},
		{name: "no JSON", answer: "I cannot do that", stage: StageExtracting},
		{name: "single time", answer: `{"2024-06-10":[{"time":"9:00","task":"会议","completion":"待评价"}]}`, stage: StageValidating},
		{name: "bad key", answer: `{"next monday":[]}`, stage: StageValidating},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			metrics := observability.NewMetrics(10)
			b := NewBridge(&fakeLLM{answer: tt.answer, err: tt.err}, WithMetrics(metrics))
			src := sampleSchedule()
			before := src.Snapshot()

			rev, err := b.Optimize(context.Background(), src, week(t))
			assert.Nil(t, rev)

			var rejected *RejectedError
			require.ErrorAs(t, err, &rejected)
			assert.Equal(t, tt.stage, rejected.Stage)
			assert.NotEmpty(t, rejected.RunID)
			assert.Equal(t, before, src.Snapshot())
			assert.Equal(t, int64(1), metrics.Snapshot().Rejections[string(tt.stage)])
		})
	}
}

func TestBridge_ValidationErrorUnwraps(t *testing.T) {
	b := NewBridge(&fakeLLM{answer: `{"2024-06-10":[{"time":"9:00","task":"会议","completion":"待评价"}]}`})
	_, err := b.Optimize(context.Background(), sampleSchedule(), week(t))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "2024-06-10", verr.Key)
	assert.Equal(t, 0, verr.Index)
}

func TestBridge_CanceledContext(t *testing.T) {
	llm := &fakeLLM{answer: "{}"}
	b := NewBridge(llm)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := b.Optimize(ctx, sampleSchedule(), week(t))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, llm.calls.Load())
}

func TestBridge_WithMaxTokens(t *testing.T) {
	llm := &fakeLLM{answer: "{}"}
	b := NewBridge(llm, WithMaxTokens(512))

	_, err := b.CallModel(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, 512, llm.opts.MaxTokens)
}

func TestBridge_CallModelLogsMessages(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	b := NewBridge(&fakeLLM{answer: "{}"}, WithLogger(logger))

	_, err := b.CallModel(context.Background(), "优化下周")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "calling model")
	assert.Contains(t, buf.String(), "user: 优化下周")
}

func TestBridge_SharesInflightRun(t *testing.T) {
	llm := &fakeLLM{
		answer:  `{"2024-06-10":[]}`,
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	metrics := observability.NewMetrics(10)
	b := NewBridge(llm, WithMetrics(metrics))
	src := sampleSchedule()
	r := week(t)

	results := make(chan *Revision, 2)
	go func() {
		rev, _ := b.Optimize(context.Background(), src, r)
		results <- rev
	}()
	<-llm.entered

	go func() {
		rev, _ := b.Optimize(context.Background(), src, r)
		results <- rev
	}()
	// Give the second caller time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(llm.release)

	first, second := <-results, <-results
	require.NotNil(t, first)
	assert.Same(t, first, second)
	assert.Equal(t, int32(1), llm.calls.Load())
	assert.Equal(t, int64(1), metrics.Snapshot().RunsTotal)
}
