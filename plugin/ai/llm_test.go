package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCompletions serves /chat/completions and records the last request.
type fakeCompletions struct {
	reply  string
	chunks []string
	status int

	mu      sync.Mutex
	lastReq openai.ChatCompletionRequest
}

func (f *fakeCompletions) last() openai.ChatCompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastReq
}

func (f *fakeCompletions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/chat/completions" {
		http.NotFound(w, r)
		return
	}
	var req openai.ChatCompletionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.lastReq = req
	f.mu.Unlock()

	if f.status != 0 {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"upstream failure","type":"server_error"}}`))
		return
	}

	if req.Stream {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, chunk := range f.chunks {
			payload, _ := json.Marshal(map[string]any{
				"id":      "chunk",
				"object":  "chat.completion.chunk",
				"choices": []map[string]any{{"index": 0, "delta": map[string]any{"content": chunk}}},
			})
			fmt.Fprintf(w, "data: %s\n\n", payload)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "cmpl",
		"object": "chat.completion",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": f.reply},
			"finish_reason": "stop",
		}},
	})
}

func newTestService(t *testing.T, fake *fakeCompletions) LLMService {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := NewLLMService(&LLMConfig{
		Provider:    "siliconflow",
		Model:       "deepseek-ai/DeepSeek-V3",
		APIKey:      "test-key",
		BaseURL:     srv.URL + "/",
		MaxTokens:   3000,
		Temperature: 0.7,
		TopP:        1.0,
	})
	require.NoError(t, err)
	return svc
}

// TestNewLLMService tests service creation.
func TestNewLLMService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *LLMConfig
		expectError bool
	}{
		{
			name:        "SiliconFlow defaults",
			cfg:         &LLMConfig{Provider: "siliconflow", APIKey: "test-key"},
			expectError: false,
		},
		{
			name: "DeepSeek config",
			cfg: &LLMConfig{
				Provider:    "deepseek",
				Model:       "deepseek-chat",
				APIKey:      "test-key",
				BaseURL:     "https://api.deepseek.com",
				MaxTokens:   2048,
				Temperature: 0.7,
			},
			expectError: false,
		},
		{
			name:        "Ollama without key",
			cfg:         &LLMConfig{Provider: "ollama", Model: "qwen2.5"},
			expectError: false,
		},
		{
			name:        "Missing key",
			cfg:         &LLMConfig{Provider: "openai"},
			expectError: true,
		},
		{
			name:        "Unsupported provider",
			cfg:         &LLMConfig{Provider: "unsupported", APIKey: "k"},
			expectError: true,
		},
		{
			name:        "Nil config",
			cfg:         nil,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLLMService(tt.cfg)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestChat(t *testing.T) {
	fake := &fakeCompletions{reply: `{"2024-06-10": []}`}
	svc := newTestService(t, fake)

	got, err := svc.Chat(context.Background(), []Message{UserMessage("优化下周日程")})
	require.NoError(t, err)
	assert.Equal(t, `{"2024-06-10": []}`, got)

	req := fake.last()
	assert.Equal(t, "deepseek-ai/DeepSeek-V3", req.Model)
	assert.Equal(t, 3000, req.MaxTokens)
	assert.InDelta(t, 0.7, req.Temperature, 1e-6)
	assert.InDelta(t, 1.0, req.TopP, 1e-6)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, openai.ChatMessageRoleUser, req.Messages[0].Role)
}

func TestChat_Options(t *testing.T) {
	fake := &fakeCompletions{reply: "ok"}
	svc := newTestService(t, fake)

	_, err := svc.Chat(context.Background(), []Message{UserMessage("hi")},
		WithMaxTokens(2000), WithModel("deepseek-chat"), WithTemperature(0.2), WithTopP(0.9))
	require.NoError(t, err)
	req := fake.last()

	assert.Equal(t, 2000, req.MaxTokens)
	assert.Equal(t, "deepseek-chat", req.Model)
	assert.InDelta(t, 0.2, req.Temperature, 1e-6)
	assert.InDelta(t, 0.9, req.TopP, 1e-6)
}

func TestChat_UpstreamError(t *testing.T) {
	svc := newTestService(t, &fakeCompletions{status: http.StatusInternalServerError})

	_, err := svc.Chat(context.Background(), []Message{UserMessage("hi")})
	assert.Error(t, err)
}

func TestChatStream(t *testing.T) {
	fake := &fakeCompletions{chunks: []string{"你", "好", "!"}}
	svc := newTestService(t, fake)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	contentChan, errChan := svc.ChatStream(ctx, []Message{{Role: "system", Content: "s"}, UserMessage("hi")})

	var b strings.Builder
	for chunk := range contentChan {
		b.WriteString(chunk)
	}
	assert.NoError(t, <-errChan)
	assert.Equal(t, "你好!", b.String())
	assert.True(t, fake.last().Stream)
}

func TestChatStream_OpenError(t *testing.T) {
	svc := newTestService(t, &fakeCompletions{status: http.StatusUnauthorized})

	contentChan, errChan := svc.ChatStream(context.Background(), []Message{UserMessage("hi")})
	for range contentChan {
	}
	assert.Error(t, <-errChan)
}

// TestConvertMessages tests message conversion.
func TestConvertMessages(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "You are a helpful assistant"},
		{Role: "user", Content: "Hello"},
		{Role: "assistant", Content: "Hi there"},
		{Role: "other", Content: "treated as user"},
	}

	out := convertMessages(messages)

	require.Len(t, out, len(messages))
	assert.Equal(t, openai.ChatMessageRoleSystem, out[0].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, out[1].Role)
	assert.Equal(t, openai.ChatMessageRoleAssistant, out[2].Role)
	assert.Equal(t, openai.ChatMessageRoleUser, out[3].Role)
	assert.Equal(t, "Hi there", out[2].Content)
}

func TestMessageHelpers(t *testing.T) {
	assert.Equal(t, Message{Role: "user", Content: "b"}, UserMessage("b"))
	assert.Equal(t, "system: a\nuser: b", FormatMessages([]Message{{Role: "system", Content: "a"}, UserMessage("b")}))
}
