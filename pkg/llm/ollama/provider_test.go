package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"commerce-assistant/pkg/llm"
	"commerce-assistant/pkg/resilience"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(chatResponse{
			Model:   got.Model,
			Message: llm.Message{Role: llm.RoleAssistant, Content: "xin chào"},
			Done:    true,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL+"/", "qwen2.5")
	out, err := p.Chat(context.Background(), []llm.Message{
		{Role: "system", Content: "sys"},
		{Role: "bot", Content: "earlier"},
		{Role: "user", Content: "hi"},
	}, llm.WithJSONMode(), llm.WithTemperature(0), llm.WithMaxTokens(64))
	require.NoError(t, err)

	assert.Equal(t, "xin chào", out)
	assert.Equal(t, "qwen2.5", got.Model)
	assert.Equal(t, "json", got.Format)
	assert.False(t, got.Stream)
	assert.Equal(t, llm.RoleAssistant, got.Messages[1].Role)
	assert.Equal(t, 64, got.Options.NumPredict)
	assert.Equal(t, 0.0, got.Options.Temperature)
}

func TestChatEmptyCompletion(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"  "},"done":true}`))
	}))
	defer srv.Close()

	_, err := NewOllamaProvider(srv.URL, "qwen2.5").Generate(context.Background(), "hi")
	assert.ErrorIs(t, err, llm.ErrEmptyCompletion)
}

func TestChatStatusDecidesRetry(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		attempts int32
	}{
		{name: "missing model is permanent", status: http.StatusNotFound, attempts: 1},
		{name: "overloaded backend is retried", status: http.StatusServiceUnavailable, attempts: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			p := NewOllamaProvider(srv.URL, "qwen2.5")
			_, err := resilience.Do(context.Background(), resilience.Policy{Name: "llm", Retries: 2}, nil,
				func(ctx context.Context) (string, error) { return p.Generate(ctx, "hi") })

			var serr *llm.StatusError
			require.True(t, errors.As(err, &serr))
			assert.Equal(t, tt.status, serr.Code)
			assert.Equal(t, tt.attempts, hits.Load())
		})
	}
}
