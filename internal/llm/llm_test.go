package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const chatCompletionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "llama-3.1-8b-instant",
  "choices": [{
    "index": 0,
    "message": {"role": "assistant", "content": "ตลาดปรับตัวขึ้นค่ะ"},
    "finish_reason": "stop"
  }],
  "usage": {"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17}
}`

func newTestProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultProviderConfig()
	cfg.APIKey = "test-key"
	cfg.BaseURL = srv.URL
	cfg.MaxRetries = 0
	p, err := NewOpenAIProvider(cfg)
	require.NoError(t, err)
	return p
}

func TestNewOpenAIProviderRequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(DefaultProviderConfig())
	assert.ErrorIs(t, err, ErrNoAPIKey)

	cfg := DefaultProviderConfig()
	cfg.APIKey = "   "
	_, err = NewOpenAIProvider(cfg)
	assert.ErrorIs(t, err, ErrNoAPIKey)
}

func TestDefaultProviderConfig(t *testing.T) {
	cfg := DefaultProviderConfig()
	assert.Equal(t, ProviderGroq, cfg.Name)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.BaseURL)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.Model)
	assert.Equal(t, 0.5, cfg.Temperature)
}

func TestOpenAIChat(t *testing.T) {
	var body map[string]any
	var auth string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		auth = r.Header.Get("Authorization")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatCompletionJSON)
	})

	resp, err := p.Chat(context.Background(), []Message{UserMessage("ตลาดเป็นอย่างไร")}, nil)
	require.NoError(t, err)

	assert.Equal(t, "ตลาดปรับตัวขึ้นค่ะ", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, ProviderGroq, resp.Provider)
	assert.Equal(t, 17, resp.Usage.TotalTokens)
	assert.Equal(t, "Bearer test-key", auth)

	assert.Equal(t, "llama-3.1-8b-instant", body["model"])
	assert.Equal(t, 0.5, body["temperature"])
	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 1)
	msg := msgs[0].(map[string]any)
	assert.Equal(t, "user", msg["role"])
	assert.Equal(t, "ตลาดเป็นอย่างไร", msg["content"])
}

func TestOpenAIChatOptionsOverride(t *testing.T) {
	var body map[string]any
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, chatCompletionJSON)
	})

	temp := 0.2
	_, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, &ChatOptions{
		Model:       "llama-3.3-70b-versatile",
		Temperature: &temp,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "llama-3.3-70b-versatile", body["model"])
	assert.Equal(t, 0.2, body["temperature"])
	assert.Equal(t, 256.0, body["max_tokens"])
}

func TestOpenAIChatEmptyChoices(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":"x","object":"chat.completion","model":"m","choices":[]}`)
	})

	_, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestOpenAIErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrNoAPIKey},
		{http.StatusTooManyRequests, ErrRateLimit},
		{http.StatusInternalServerError, ErrProviderDown},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				io.WriteString(w, `{"error":{"message":"nope","type":"error","code":"x"}}`)
			})
			_, err := p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestOpenAIUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	cfg := DefaultProviderConfig()
	cfg.APIKey = "k"
	cfg.BaseURL = url
	cfg.MaxRetries = 0
	cfg.Timeout = time.Second
	p, err := NewOpenAIProvider(cfg)
	require.NoError(t, err)

	_, err = p.Chat(context.Background(), []Message{UserMessage("hi")}, nil)
	assert.ErrorIs(t, err, ErrProviderDown)
}

func TestOpenAIPing(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/models"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"object":"list","data":[{"id":"llama-3.1-8b-instant","object":"model","created":0,"owned_by":"Meta"}]}`)
	})
	assert.NoError(t, p.Ping(context.Background()))
}

func TestResponseString(t *testing.T) {
	r := &Response{
		Provider: "groq", Model: "llama-3.1-8b-instant",
		Content: strings.Repeat("ก", 200),
		Usage:   Usage{TotalTokens: 50},
		Latency: 100 * time.Millisecond,
	}
	s := r.String()
	assert.Contains(t, s, "groq/llama-3.1-8b-instant")
	assert.Contains(t, s, "50 tokens")
	assert.Contains(t, s, "...")
}
