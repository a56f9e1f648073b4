package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Provider-specific default model constants
const (
	DefaultOpenRouterModel = "openai/gpt-4o-mini"
	DefaultOpenAIModel     = "gpt-3.5-turbo"
	DefaultZAIModel        = "glm-4.6"
	DefaultGeminiModel     = "gemini-2.5-flash"
	DefaultMockModel       = "mock-model"
)

// DefaultGoal is the goal run when none is given on the command line.
const DefaultGoal = "Search for the latest news about AI, fetch the content of the top result, save it to a file named 'ai_news.txt' in the workspace, and then read the file content"

// Approval modes.
const (
	ApprovalInteractive = "interactive"
	ApprovalAuto        = "auto"
	ApprovalDeny        = "deny"
)

var knownProviders = []string{"openrouter", "openai", "zai", "gemini", "mock"}

// Config captures the tunable runtime settings for the runner.
type Config struct {
	Provider              string            `yaml:"provider" mapstructure:"provider"`
	Model                 string            `yaml:"model" mapstructure:"model"`
	ProviderModels        map[string]string `yaml:"provider_models" mapstructure:"provider_models"`
	BaseURL               string            `yaml:"base_url" mapstructure:"base_url"`
	OpenAIBaseURL         string            `yaml:"openai_base_url" mapstructure:"openai_base_url"`
	ZAIBaseURL            string            `yaml:"zai_base_url" mapstructure:"zai_base_url"`
	Temperature           float64           `yaml:"temperature" mapstructure:"temperature"`
	RequestTimeoutSeconds int               `yaml:"request_timeout_seconds" mapstructure:"request_timeout_seconds"`
	RequestsPerMinute     int               `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
	Goal                  string            `yaml:"goal" mapstructure:"goal"`
	WorkspaceRoot         string            `yaml:"workspace_root" mapstructure:"workspace_root"`
	MaxIterations         int               `yaml:"max_iterations" mapstructure:"max_iterations"`
	HistoryWindow         int               `yaml:"history_window" mapstructure:"history_window"`
	NormalizeResults      bool              `yaml:"normalize_results" mapstructure:"normalize_results"`
	ApprovalMode          string            `yaml:"approval_mode" mapstructure:"approval_mode"`
	HTTPTimeoutSeconds    int               `yaml:"http_timeout_seconds" mapstructure:"http_timeout_seconds"`
	SearchResults         int               `yaml:"search_results" mapstructure:"search_results"`
	SearchBaseURL         string            `yaml:"search_base_url" mapstructure:"search_base_url"`
	JournalPath           string            `yaml:"journal_path" mapstructure:"journal_path"`
	LogPath               string            `yaml:"log_path" mapstructure:"log_path"`
	LogLevel              string            `yaml:"log_level" mapstructure:"log_level"`
	LogConsole            bool              `yaml:"log_console" mapstructure:"log_console"`
	LogMaxSizeMB          int               `yaml:"log_max_size_mb" mapstructure:"log_max_size_mb"`
	LogMaxBackups         int               `yaml:"log_max_backups" mapstructure:"log_max_backups"`
	LogMaxAgeDays         int               `yaml:"log_max_age_days" mapstructure:"log_max_age_days"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	dir := GetConfigDir()
	return Config{
		Provider:              "openrouter",
		BaseURL:               "https://openrouter.ai/api/v1",
		OpenAIBaseURL:         "https://api.openai.com/v1",
		ZAIBaseURL:            "https://api.z.ai/api/coding/paas/v4/chat/completions",
		Temperature:           0.2,
		RequestTimeoutSeconds: 90,
		Goal:                  DefaultGoal,
		WorkspaceRoot:         "workspace",
		MaxIterations:         10,
		HistoryWindow:         5,
		NormalizeResults:      true,
		ApprovalMode:          ApprovalInteractive,
		HTTPTimeoutSeconds:    30,
		SearchResults:         5,
		SearchBaseURL:         "https://www.google.com/search",
		JournalPath:           filepath.Join(dir, "journal.db"),
		LogPath:               filepath.Join(dir, "goalrunner.log"),
		LogLevel:              "info",
		LogMaxSizeMB:          10,
		LogMaxBackups:         3,
		LogMaxAgeDays:         28,
	}
}

// ConfigPath returns the config file location, honoring GOALRUNNER_CONFIG_PATH.
func ConfigPath() string {
	if p := os.Getenv("GOALRUNNER_CONFIG_PATH"); p != "" {
		return p
	}
	return filepath.Join(GetConfigDir(), "config.yaml")
}

// Load reads the YAML file at path (if it exists) through v, which may already
// carry bound command-line flags. GOALRUNNER_* environment variables override
// file values; bound flags override both.
func Load(v *viper.Viper, path string) (Config, error) {
	if v == nil {
		v = viper.New()
	}
	setDefaults(v, Defaults())

	v.SetConfigType("yaml")
	v.SetEnvPrefix("GOALRUNNER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if path == "" {
		path = ConfigPath()
	}
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("stat config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("provider", d.Provider)
	v.SetDefault("model", d.Model)
	v.SetDefault("provider_models", map[string]string{})
	v.SetDefault("base_url", d.BaseURL)
	v.SetDefault("openai_base_url", d.OpenAIBaseURL)
	v.SetDefault("zai_base_url", d.ZAIBaseURL)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("request_timeout_seconds", d.RequestTimeoutSeconds)
	v.SetDefault("requests_per_minute", d.RequestsPerMinute)
	v.SetDefault("goal", d.Goal)
	v.SetDefault("workspace_root", d.WorkspaceRoot)
	v.SetDefault("max_iterations", d.MaxIterations)
	v.SetDefault("history_window", d.HistoryWindow)
	v.SetDefault("normalize_results", d.NormalizeResults)
	v.SetDefault("approval_mode", d.ApprovalMode)
	v.SetDefault("http_timeout_seconds", d.HTTPTimeoutSeconds)
	v.SetDefault("search_results", d.SearchResults)
	v.SetDefault("search_base_url", d.SearchBaseURL)
	v.SetDefault("journal_path", d.JournalPath)
	v.SetDefault("log_path", d.LogPath)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_console", d.LogConsole)
	v.SetDefault("log_max_size_mb", d.LogMaxSizeMB)
	v.SetDefault("log_max_backups", d.LogMaxBackups)
	v.SetDefault("log_max_age_days", d.LogMaxAgeDays)
}

// applyDefaults fills in values that an explicit empty setting would otherwise blank out.
func (c *Config) applyDefaults() {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	c.ApprovalMode = strings.ToLower(strings.TrimSpace(c.ApprovalMode))
	if c.Provider == "" {
		c.Provider = "openrouter"
	}
	if c.ApprovalMode == "" {
		c.ApprovalMode = ApprovalInteractive
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = 90
	}
	if c.HTTPTimeoutSeconds <= 0 {
		c.HTTPTimeoutSeconds = 30
	}
	if c.SearchResults <= 0 {
		c.SearchResults = 5
	}
	if strings.TrimSpace(c.WorkspaceRoot) == "" {
		c.WorkspaceRoot = "workspace"
	}
	if strings.TrimSpace(c.Goal) == "" {
		c.Goal = DefaultGoal
	}
}

func (c Config) validate() error {
	if !slices.Contains(knownProviders, c.Provider) {
		return fmt.Errorf("provider must be one of %s (got %q)", strings.Join(knownProviders, ", "), c.Provider)
	}
	switch c.ApprovalMode {
	case ApprovalInteractive, ApprovalAuto, ApprovalDeny:
	default:
		return fmt.Errorf("approval_mode must be interactive, auto or deny (got %q)", c.ApprovalMode)
	}
	// Temperature validation (typical LLM range is 0-2.0)
	if c.Temperature < 0 || c.Temperature > 2.0 {
		return fmt.Errorf("temperature must be between 0 and 2.0 (got %f)", c.Temperature)
	}
	if c.RequestTimeoutSeconds > 600 {
		return fmt.Errorf("request_timeout_seconds cannot exceed 600 (10 minutes)")
	}
	if c.HTTPTimeoutSeconds > 600 {
		return fmt.Errorf("http_timeout_seconds cannot exceed 600 (10 minutes)")
	}
	if c.MaxIterations < 0 {
		return fmt.Errorf("max_iterations must be >= 0")
	}
	if c.HistoryWindow < 1 {
		return fmt.Errorf("history_window must be >= 1")
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must be >= 0")
	}
	return nil
}

// RequestTimeout turns the integer value into a duration for collaborator clients.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// HTTPTimeout is the timeout applied to capability network calls.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// ModelFor returns the configured model for the given provider key, falling back to provider-appropriate defaults.
func (c Config) ModelFor(provider string) string {
	provider = strings.ToLower(provider)
	if len(c.ProviderModels) > 0 {
		if model := strings.TrimSpace(c.ProviderModels[provider]); model != "" {
			return model
		}
	}
	if model := strings.TrimSpace(c.Model); model != "" && strings.EqualFold(provider, c.Provider) {
		return model
	}
	switch provider {
	case "zai":
		return DefaultZAIModel
	case "openai":
		return DefaultOpenAIModel
	case "gemini":
		return DefaultGeminiModel
	case "mock":
		return DefaultMockModel
	default:
		return DefaultOpenRouterModel
	}
}

// EnsureDefaultConfig writes config.yaml with defaults if it doesn't exist.
func EnsureDefaultConfig(provider string) error {
	configPath := ConfigPath()
	if _, err := os.Stat(configPath); err == nil {
		return nil
	}
	cfg := Defaults()
	if p := strings.ToLower(strings.TrimSpace(provider)); p != "" {
		cfg.Provider = p
	}
	cfg.Model = cfg.ModelFor(cfg.Provider)
	return Save(cfg)
}

// Save writes the config to the user's config file
func Save(c Config) error {
	configPath := ConfigPath()
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// GetConfigDir returns the directory holding config, credentials, logs and the journal.
func GetConfigDir() string {
	if configDir := os.Getenv("GOALRUNNER_CONFIG_DIR"); configDir != "" {
		return configDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".goalrunner"
	}
	return filepath.Join(home, ".goalrunner")
}
