package llm

import (
	"context"
	"strings"
)

// Message mirrors the OpenAI/OpenRouter chat schema.
type Message struct {
	Role     string `json:"role"`
	Content  string `json:"content,omitempty"`
	Thinking string `json:"thinking,omitempty"`
}

// Purpose labels what a request is for. It never leaves the process.
type Purpose string

const (
	PurposePlan           Purpose = "plan"
	PurposeStepEvaluation Purpose = "step_evaluation"
	PurposeEvaluation     Purpose = "evaluation"
	PurposeSolution       Purpose = "solution"
)

// ChatRequest is the provider-agnostic message payload for chat completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	Purpose     Purpose   `json:"-"`
}

// ChatChoice captures one response alternative from a completion API.
type ChatChoice struct {
	Index        int     `json:"index"`
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason"`
}

// Usage contains token consumption metrics from the LLM API.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the shared representation of provider responses.
type ChatResponse struct {
	Choices []ChatChoice `json:"choices"`
	Usage   *Usage       `json:"usage,omitempty"`
}

// Client represents an LLM provider capable of servicing chat completions.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResponse, error)
}

// Complete sends req and returns the first choice's text. Transport failures,
// empty choice lists and blank completions all come back as *CollaboratorError.
func Complete(ctx context.Context, client Client, req ChatRequest) (string, error) {
	if client == nil {
		return "", &CollaboratorError{Purpose: req.Purpose, Message: "no client configured"}
	}
	resp, err := client.Chat(ctx, req)
	if err != nil {
		return "", &CollaboratorError{Purpose: req.Purpose, Message: "request failed", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &CollaboratorError{Purpose: req.Purpose, Message: "no choices returned"}
	}
	text := resp.Choices[0].Message.Content
	if strings.TrimSpace(text) == "" {
		return "", &CollaboratorError{Purpose: req.Purpose, Message: "empty completion"}
	}
	return text, nil
}
