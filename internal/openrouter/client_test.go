package openrouter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalrunner/internal/llm"
)

func TestChatSendsRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		io.WriteString(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"Plan:\n1. a.b"},"finish_reason":"stop"}],"usage":{"total_tokens":9}}`)
	}))
	defer srv.Close()

	client := NewClient("openrouter", srv.URL+"/api/v1/", "secret", 5*time.Second, zerolog.Nop())
	resp, err := client.Chat(context.Background(), llm.ChatRequest{
		Model:    "m",
		Purpose:  llm.PurposePlan,
		Messages: []llm.Message{{Role: "user", Content: "hi"}},
	})
	require.NoError(t, err)
	require.Len(t, resp.Choices, 1)
	assert.Equal(t, "Plan:\n1. a.b", resp.Choices[0].Message.Content)
	assert.Equal(t, 9, resp.Usage.TotalTokens)
	assert.Equal(t, "m", got["model"])
	assert.NotContains(t, got, "Purpose")
}

func TestChatMapsStatusToProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		http.Error(w, "too many", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient("openai", srv.URL, "k", time.Second, zerolog.Nop()).Chat(context.Background(), llm.ChatRequest{})
	pe, ok := llm.IsProviderError(err)
	require.True(t, ok)
	assert.Equal(t, llm.ErrorTypeRateLimit, pe.Type)
	assert.Equal(t, "openai", pe.Provider)
	require.NotNil(t, pe.RetryAfter)
	assert.Equal(t, 3*time.Second, *pe.RetryAfter)
}
