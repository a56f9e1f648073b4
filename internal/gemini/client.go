// Package gemini adapts Google's GenAI SDK to the llm.Client interface.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"goalrunner/internal/llm"
)

// Client sends chat requests to Gemini models.
type Client struct {
	models *genai.Models
	logger zerolog.Logger
}

// NewClient creates a Gemini API client for apiKey.
func NewClient(ctx context.Context, apiKey string, logger zerolog.Logger) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Client{models: client.Models, logger: logger}, nil
}

// splitMessages moves system messages into the system instruction and maps the
// remaining roles onto Gemini's user/model roles.
func splitMessages(messages []llm.Message) (string, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			system = append(system, msg.Content)
		case "assistant":
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return strings.Join(system, "\n\n"), contents
}

// Chat satisfies the llm.Client interface.
func (c *Client) Chat(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
	system, contents := splitMessages(req.Messages)
	cfg := &genai.GenerateContentConfig{}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	if req.Temperature > 0 {
		cfg.Temperature = genai.Ptr(float32(req.Temperature))
	}

	c.logger.Debug().Str("model", req.Model).Int("messages", len(req.Messages)).Msg("sending gemini request")
	resp, err := c.models.GenerateContent(ctx, req.Model, contents, cfg)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("generate content: %w", err)
	}
	out := llm.ChatResponse{
		Choices: []llm.ChatChoice{{
			Message:      llm.Message{Role: "assistant", Content: resp.Text()},
			FinishReason: "stop",
		}},
	}
	if meta := resp.UsageMetadata; meta != nil {
		out.Usage = &llm.Usage{
			PromptTokens:     int(meta.PromptTokenCount),
			CompletionTokens: int(meta.CandidatesTokenCount),
			TotalTokens:      int(meta.TotalTokenCount),
		}
	}
	return out, nil
}
