package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
)

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name        string
		modifyFunc  func(*Config)
		expectError bool
		errorString string
	}{
		{
			name:        "defaults pass",
			modifyFunc:  func(c *Config) {},
			expectError: false,
		},
		{
			name: "negative temperature fails",
			modifyFunc: func(c *Config) {
				c.Temperature = -0.5
			},
			expectError: true,
			errorString: "temperature must be between",
		},
		{
			name: "temperature > 2.0 fails",
			modifyFunc: func(c *Config) {
				c.Temperature = 3.0
			},
			expectError: true,
			errorString: "temperature must be between",
		},
		{
			name: "request timeout > 600 fails",
			modifyFunc: func(c *Config) {
				c.RequestTimeoutSeconds = 9999
			},
			expectError: true,
			errorString: "request_timeout_seconds cannot exceed",
		},
		{
			name: "negative max iterations fails",
			modifyFunc: func(c *Config) {
				c.MaxIterations = -1
			},
			expectError: true,
			errorString: "max_iterations",
		},
		{
			name: "zero history window fails",
			modifyFunc: func(c *Config) {
				c.HistoryWindow = 0
			},
			expectError: true,
			errorString: "history_window",
		},
		{
			name: "mock provider passes",
			modifyFunc: func(c *Config) {
				c.Provider = "mock"
			},
			expectError: false,
		},
		{
			name: "unknown provider fails",
			modifyFunc: func(c *Config) {
				c.Provider = "anthropicish"
			},
			expectError: true,
			errorString: "provider must be one of",
		},
		{
			name: "unknown approval mode fails",
			modifyFunc: func(c *Config) {
				c.ApprovalMode = "sometimes"
			},
			expectError: true,
			errorString: "approval_mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modifyFunc(&cfg)

			err := cfg.validate()

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				} else if !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Expected error containing %q, got %q", tt.errorString, err.Error())
				}
			} else if err != nil {
				t.Errorf("Expected no error but got: %v", err)
			}
		})
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	t.Setenv("GOALRUNNER_CONFIG_DIR", t.TempDir())

	cfg, err := Load(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.MaxIterations != 10 {
		t.Errorf("MaxIterations = %d, want 10", cfg.MaxIterations)
	}
	if cfg.WorkspaceRoot != "workspace" {
		t.Errorf("WorkspaceRoot = %q, want workspace", cfg.WorkspaceRoot)
	}
	if !cfg.NormalizeResults {
		t.Errorf("NormalizeResults should default to true")
	}
	if cfg.Goal != DefaultGoal {
		t.Errorf("Goal = %q, want default goal", cfg.Goal)
	}
}

func TestLoadFileAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GOALRUNNER_CONFIG_DIR", dir)
	path := filepath.Join(dir, "config.yaml")
	data := "provider: zai\nmax_iterations: 3\napproval_mode: auto\nprovider_models:\n  zai: glm-4.5\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("GOALRUNNER_MAX_ITERATIONS", "7")

	cfg, err := Load(viper.New(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "zai" {
		t.Errorf("Provider = %q, want zai", cfg.Provider)
	}
	if cfg.MaxIterations != 7 {
		t.Errorf("MaxIterations = %d, want env override 7", cfg.MaxIterations)
	}
	if cfg.ApprovalMode != ApprovalAuto {
		t.Errorf("ApprovalMode = %q, want auto", cfg.ApprovalMode)
	}
	if got := cfg.ModelFor("zai"); got != "glm-4.5" {
		t.Errorf("ModelFor(zai) = %q, want glm-4.5", got)
	}
}

func TestLoadRejectsInvalidFile(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GOALRUNNER_CONFIG_DIR", dir)
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("temperature: 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(viper.New(), path); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestModelForFallbacks(t *testing.T) {
	cfg := Defaults()
	cases := map[string]string{
		"zai":        DefaultZAIModel,
		"openai":     DefaultOpenAIModel,
		"gemini":     DefaultGeminiModel,
		"mock":       DefaultMockModel,
		"openrouter": DefaultOpenRouterModel,
	}
	for provider, want := range cases {
		if got := cfg.ModelFor(provider); got != want {
			t.Errorf("ModelFor(%s) = %q, want %q", provider, got, want)
		}
	}

	cfg.Provider = "openai"
	cfg.Model = "gpt-4o"
	if got := cfg.ModelFor("openai"); got != "gpt-4o" {
		t.Errorf("explicit model ignored: %q", got)
	}
}

func TestEnsureDefaultConfigWritesOnce(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("GOALRUNNER_CONFIG_DIR", dir)
	t.Setenv("GOALRUNNER_CONFIG_PATH", "")

	if err := EnsureDefaultConfig("gemini"); err != nil {
		t.Fatalf("EnsureDefaultConfig: %v", err)
	}
	cfg, err := Load(viper.New(), filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "gemini" || cfg.Model != DefaultGeminiModel {
		t.Errorf("unexpected provider/model %q/%q", cfg.Provider, cfg.Model)
	}

	if err := EnsureDefaultConfig("zai"); err != nil {
		t.Fatalf("second EnsureDefaultConfig: %v", err)
	}
	cfg, err = Load(viper.New(), filepath.Join(dir, "config.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "gemini" {
		t.Errorf("existing config overwritten: provider %q", cfg.Provider)
	}
}
