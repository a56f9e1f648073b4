package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	resp  ChatResponse
	err   error
	calls int
}

func (f *fakeClient) Chat(context.Context, ChatRequest) (ChatResponse, error) {
	f.calls++
	return f.resp, f.err
}

func answer(text string) ChatResponse {
	return ChatResponse{Choices: []ChatChoice{{Message: Message{Role: "assistant", Content: text}}}}
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	text, err := Complete(ctx, &fakeClient{resp: answer("Plan:\n1. a.b")}, ChatRequest{Purpose: PurposePlan})
	require.NoError(t, err)
	assert.Equal(t, "Plan:\n1. a.b", text)

	cases := map[string]Client{
		"nil client":  nil,
		"transport":   &fakeClient{err: errors.New("dial tcp: refused")},
		"no choices":  &fakeClient{},
		"blank reply": &fakeClient{resp: answer("  \n")},
	}
	for name, client := range cases {
		_, err := Complete(ctx, client, ChatRequest{Purpose: PurposeEvaluation})
		ce, ok := IsCollaboratorError(err)
		require.True(t, ok, name)
		assert.Equal(t, PurposeEvaluation, ce.Purpose, name)
	}
}

func TestCompleteKeepsProviderError(t *testing.T) {
	pe := NewProviderError("openrouter", ErrorTypeRateLimit, "429", "slow down")
	_, err := Complete(context.Background(), &fakeClient{err: pe}, ChatRequest{Purpose: PurposeSolution})
	got, ok := IsProviderError(err)
	require.True(t, ok)
	assert.Same(t, pe, got)
	assert.Contains(t, err.Error(), "solution collaborator: request failed: openrouter: slow down")
}

func TestClassifyStatus(t *testing.T) {
	assert.Equal(t, ErrorTypeAuth, ClassifyStatus(401))
	assert.Equal(t, ErrorTypeRateLimit, ClassifyStatus(429))
	assert.Equal(t, ErrorTypeProviderDown, ClassifyStatus(503))
	assert.Equal(t, ErrorTypeUnknown, ClassifyStatus(418))
}

func TestThrottleDelegates(t *testing.T) {
	inner := &fakeClient{resp: answer("ok")}
	assert.Same(t, Client(inner), Throttle(inner, 0))

	throttled := Throttle(inner, 6000)
	for i := 0; i < 2; i++ {
		_, err := throttled.Chat(context.Background(), ChatRequest{})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, inner.calls)
}

func TestThrottleHonoursContext(t *testing.T) {
	inner := &fakeClient{resp: answer("ok")}
	throttled := Throttle(inner, 1)
	_, err := throttled.Chat(context.Background(), ChatRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err = throttled.Chat(ctx, ChatRequest{})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}
