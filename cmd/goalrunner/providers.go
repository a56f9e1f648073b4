package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"goalrunner/internal/config"
	"goalrunner/internal/credentials"
	"goalrunner/internal/gemini"
	"goalrunner/internal/llm"
	mockclient "goalrunner/internal/llm/mockclient"
	"goalrunner/internal/openrouter"
	"goalrunner/internal/zai"
)

var keyHints = map[string]string{
	"openrouter": "OPENROUTER_API_KEY",
	"openai":     "OPENAI_API_KEY",
	"zai":        "ZAI_API_KEY",
	"gemini":     "GEMINI_API_KEY",
}

// buildClient returns the collaborator for cfg.Provider, rate limited per config.
func buildClient(ctx context.Context, cfg config.Config, creds *credentials.Credentials, logger zerolog.Logger) (llm.Client, error) {
	provider := cfg.Provider
	if provider == "mock" {
		logger.Info().Msg("using mock collaborator")
		return mockclient.New(), nil
	}

	apiKey := creds.Resolve(provider)
	if apiKey == "" {
		return nil, fmt.Errorf("no API key for %s: run 'goalrunner setup' or set %s", provider, keyHints[provider])
	}
	providerLog := logger.With().Str("provider", provider).Logger()

	var client llm.Client
	switch provider {
	case "openrouter":
		client = openrouter.NewClient("openrouter", cfg.BaseURL, apiKey, cfg.RequestTimeout(), providerLog)
	case "openai":
		client = openrouter.NewClient("openai", cfg.OpenAIBaseURL, apiKey, cfg.RequestTimeout(), providerLog)
	case "zai":
		c, err := zai.NewClient(cfg.ZAIBaseURL, apiKey, cfg.RequestTimeout(), providerLog)
		if err != nil {
			return nil, err
		}
		client = c
	case "gemini":
		c, err := gemini.NewClient(ctx, apiKey, providerLog)
		if err != nil {
			return nil, err
		}
		client = c
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
	providerLog.Info().Str("model", cfg.ModelFor(provider)).Int("requests_per_minute", cfg.RequestsPerMinute).Msg("collaborator ready")
	return llm.Throttle(client, cfg.RequestsPerMinute), nil
}
