package zai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"goalrunner/internal/llm"
)

// ZAIResponse represents the full response structure from Z.AI API.
type ZAIResponse struct {
	Choices []ZAIChoice `json:"choices"`
	Usage   *llm.Usage  `json:"usage,omitempty"`
}

// ZAIChoice represents a single choice in Z.AI response.
type ZAIChoice struct {
	Index        int        `json:"index"`
	Message      ZAIMessage `json:"message"`
	FinishReason string     `json:"finish_reason"`
}

// ZAIMessage represents message content from Z.AI.
type ZAIMessage struct {
	Content          string         `json:"content,omitempty"`
	ReasoningContent string         `json:"reasoning_content,omitempty"`
	ContentBlocks    []ContentBlock `json:"content_blocks,omitempty"`
}

// ContentBlock represents a structured content block in Z.AI responses.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Client wraps Z.AI chat completion API.
type Client struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	logger     zerolog.Logger
}

// NewClient configures a Z.AI completion client.
func NewClient(endpoint, apiKey string, timeout time.Duration, logger zerolog.Logger) (*Client, error) {
	trimmed := strings.TrimRight(endpoint, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("z.ai endpoint must be provided from config")
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		endpoint:   trimmed,
		apiKey:     apiKey,
		logger:     logger,
	}, nil
}

// toStandard folds reasoning and content blocks into a plain assistant message.
func toStandard(choice ZAIChoice) llm.ChatChoice {
	var mainContent, thinking strings.Builder
	switch {
	case len(choice.Message.ContentBlocks) > 0:
		for _, block := range choice.Message.ContentBlocks {
			switch block.Type {
			case "thinking":
				thinking.WriteString(block.Text)
				thinking.WriteString("\n\n")
			case "text":
				mainContent.WriteString(block.Text)
			}
		}
	default:
		thinking.WriteString(choice.Message.ReasoningContent)
		mainContent.WriteString(choice.Message.Content)
	}
	content := mainContent.String()
	// Some responses carry only reasoning_content.
	if strings.TrimSpace(content) == "" {
		content = thinking.String()
	}
	return llm.ChatChoice{
		Index:        choice.Index,
		Message:      llm.Message{Role: "assistant", Content: content, Thinking: thinking.String()},
		FinishReason: choice.FinishReason,
	}
}

// Chat satisfies the llm.Client interface.
func (c *Client) Chat(ctx context.Context, reqPayload llm.ChatRequest) (llm.ChatResponse, error) {
	body, err := json.Marshal(reqPayload)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept-Language", "en-US,en")

	c.logger.Debug().Int("messages", len(reqPayload.Messages)).Str("model", reqPayload.Model).Msg("[z.ai] sending request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.ChatResponse{}, fmt.Errorf("read response: %w", err)
	}
	c.logger.Debug().Int("status", resp.StatusCode).Int("bytes", len(respBody)).Msg("[z.ai] response")

	// Z.AI can return 200 with an error object (code + msg).
	var errResp struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Code != 0 && errResp.Msg != "" {
		return llm.ChatResponse{}, llm.NewProviderError("zai", llm.ErrorTypeUnknown, strconv.Itoa(errResp.Code), errResp.Msg)
	}
	if resp.StatusCode >= 300 {
		return llm.ChatResponse{}, llm.NewProviderError("zai", llm.ClassifyStatus(resp.StatusCode), strconv.Itoa(resp.StatusCode), strings.TrimSpace(string(respBody)))
	}

	var zaiResp ZAIResponse
	if err := json.Unmarshal(respBody, &zaiResp); err != nil {
		return llm.ChatResponse{}, fmt.Errorf("parse response: %w", err)
	}
	if len(zaiResp.Choices) == 0 {
		return llm.ChatResponse{}, fmt.Errorf("no choices returned")
	}
	out := llm.ChatResponse{Usage: zaiResp.Usage}
	for _, choice := range zaiResp.Choices {
		out.Choices = append(out.Choices, toStandard(choice))
	}
	return out, nil
}
