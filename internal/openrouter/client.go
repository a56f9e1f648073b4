package openrouter

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
	"goalrunner/internal/logging"
)

// Client is a minimal HTTP wrapper around an OpenAI-compatible chat completions
// API. It serves OpenRouter and, with a different base URL, OpenAI itself.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	provider   string
	logger     zerolog.Logger
}

// NewClient wires together the dependencies for API access.
func NewClient(provider, baseURL, apiKey string, timeout time.Duration, logger zerolog.Logger) *Client {
	trimmed := strings.TrimRight(baseURL, "/")
	if provider == "" {
		provider = "openrouter"
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    trimmed,
		apiKey:     apiKey,
		provider:   provider,
		logger:     logger,
	}
}

// Chat executes a single completion request.
func (c *Client) Chat(ctx context.Context, reqPayload llm.ChatRequest) (llm.ChatResponse, error) {
	var respPayload llm.ChatResponse

	payload, err := json.Marshal(reqPayload)
	if err != nil {
		return respPayload, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return respPayload, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("X-Title", "goalrunner")

	c.logger.Debug().
		Int("messages", len(reqPayload.Messages)).
		Str("model", reqPayload.Model).
		Str("purpose", string(reqPayload.Purpose)).
		Msg("sending chat request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return respPayload, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return respPayload, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		logging.ErrorLog("%s API error: %d - %s", c.provider, resp.StatusCode, string(body))
		pe := llm.NewProviderError(c.provider, llm.ClassifyStatus(resp.StatusCode), strconv.Itoa(resp.StatusCode), strings.TrimSpace(string(body)))
		if secs, convErr := strconv.Atoi(resp.Header.Get("Retry-After")); convErr == nil && secs > 0 {
			wait := time.Duration(secs) * time.Second
			pe.RetryAfter = &wait
		}
		return respPayload, pe
	}

	if err := json.Unmarshal(body, &respPayload); err != nil {
		logging.ErrorLog("%s response parse error: %v", c.provider, err)
		return respPayload, fmt.Errorf("parse response: %w", err)
	}
	logging.DevLog("%s: received response with %d choices", c.provider, len(respPayload.Choices))
	return respPayload, nil
}
