package mockclient

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"goalrunner/internal/llm"
)

// Client is a deterministic llm.Client used for demos and CI. It answers each
// request purpose with a fixed completion so a full goal loop can run offline.
type Client struct {
	prefix string
	plan   string
}

// New returns a mock client whose plan creates a small JSON status document.
func New() *Client {
	return &Client{
		prefix: "MOCK",
		plan:   "Plan:\n1. json_operations.create_json, status: ok, source: mock",
	}
}

// WithPlan overrides the plan text returned for planning requests.
func (c *Client) WithPlan(plan string) *Client {
	c.plan = plan
	return c
}

// Chat satisfies the llm.Client interface.
func (c *Client) Chat(_ context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	var content string
	switch req.Purpose {
	case llm.PurposePlan:
		content = "Reasoning:\n1. The mock planner always proposes the same step.\n\n" + c.plan
	case llm.PurposeStepEvaluation:
		content = "No modification needed."
	case llm.PurposeEvaluation:
		content = "Analysis:\n1. The mock plan ran.\n\nGoal achieved: Yes"
	default:
		last := ""
		if n := len(req.Messages); n > 0 {
			last = strings.TrimSpace(req.Messages[n-1].Content)
		}
		if last == "" {
			content = fmt.Sprintf("%s RESPONSE", c.prefix)
		} else {
			content = fmt.Sprintf("%s RESPONSE: %s", c.prefix, firstLine(last))
		}
	}
	return reply(content), nil
}

// Scripted replays queued completions per purpose and records every request.
type Scripted struct {
	mu        sync.Mutex
	queues    map[llm.Purpose][]Reply
	fallback  map[llm.Purpose]string
	Requests  []llm.ChatRequest
	callCount int
}

// Reply is one queued completion or failure.
type Reply struct {
	Content string
	Err     error
}

// NewScripted returns an empty scripted client.
func NewScripted() *Scripted {
	return &Scripted{
		queues:   make(map[llm.Purpose][]Reply),
		fallback: make(map[llm.Purpose]string),
	}
}

// Queue appends completions for a purpose, consumed in order.
func (s *Scripted) Queue(purpose llm.Purpose, contents ...string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range contents {
		s.queues[purpose] = append(s.queues[purpose], Reply{Content: c})
	}
	return s
}

// QueueError appends a failure for a purpose.
func (s *Scripted) QueueError(purpose llm.Purpose, err error) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[purpose] = append(s.queues[purpose], Reply{Err: err})
	return s
}

// Default sets the completion returned once a purpose's queue is empty.
func (s *Scripted) Default(purpose llm.Purpose, content string) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback[purpose] = content
	return s
}

// Calls returns how many requests were made for purpose ("" counts all).
func (s *Scripted) Calls(purpose llm.Purpose) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if purpose == "" {
		return s.callCount
	}
	n := 0
	for _, r := range s.Requests {
		if r.Purpose == purpose {
			n++
		}
	}
	return n
}

// Chat satisfies the llm.Client interface.
func (s *Scripted) Chat(_ context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.callCount++
	s.Requests = append(s.Requests, req)
	if q := s.queues[req.Purpose]; len(q) > 0 {
		next := q[0]
		s.queues[req.Purpose] = q[1:]
		if next.Err != nil {
			return llm.ChatResponse{}, next.Err
		}
		return reply(next.Content), nil
	}
	if content, ok := s.fallback[req.Purpose]; ok {
		return reply(content), nil
	}
	return reply("noop"), nil
}

func reply(content string) llm.ChatResponse {
	return llm.ChatResponse{
		Choices: []llm.ChatChoice{
			{
				Index:        0,
				Message:      llm.Message{Role: "assistant", Content: content},
				FinishReason: "stop",
			},
		},
		Usage: &llm.Usage{
			PromptTokens:     42,
			CompletionTokens: 7,
			TotalTokens:      49,
		},
	}
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
