package llm

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Throttled spaces out requests to the wrapped client.
type Throttled struct {
	next    Client
	limiter *rate.Limiter
}

// Throttle wraps client so that at most perMinute requests start per minute.
// A non-positive perMinute returns client unchanged.
func Throttle(client Client, perMinute int) Client {
	if perMinute <= 0 || client == nil {
		return client
	}
	interval := time.Minute / time.Duration(perMinute)
	return &Throttled{
		next:    client,
		limiter: rate.NewLimiter(rate.Every(interval), 1),
	}
}

// Chat waits for a slot and then delegates.
func (t *Throttled) Chat(ctx context.Context, req ChatRequest) (ChatResponse, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return ChatResponse{}, fmt.Errorf("rate limit wait: %w", err)
	}
	return t.next.Chat(ctx, req)
}
