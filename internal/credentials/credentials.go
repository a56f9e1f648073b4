package credentials

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// envKeys lists the environment variables consulted when a provider has no
// stored key.
var envKeys = map[string][]string{
	"openrouter": {"OPENROUTER_API_KEY"},
	"openai":     {"OPENAI_API_KEY"},
	"zai":        {"ZAI_API_KEY"},
	"gemini":     {"GEMINI_API_KEY", "GOOGLE_API_KEY"},
}

// Credentials stores API keys and provider configuration
type Credentials struct {
	DefaultProvider string              `yaml:"default_provider"`
	Providers       map[string]Provider `yaml:"providers"`
}

// Provider stores authentication details for a single provider
type Provider struct {
	APIKey string `yaml:"api_key"`
}

// Manager handles credential storage and retrieval
type Manager struct {
	path string
}

// NewManager creates a new credential manager.
// Checks GOALRUNNER_CREDENTIALS_PATH first, otherwise uses configDir/credentials.yaml.
func NewManager(configDir string) *Manager {
	credPath := os.Getenv("GOALRUNNER_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = filepath.Join(configDir, "credentials.yaml")
	}
	return &Manager{path: credPath}
}

// Load reads credentials from disk
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Credentials{Providers: make(map[string]Provider)}, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := yaml.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if creds.Providers == nil {
		creds.Providers = make(map[string]Provider)
	}
	return &creds, nil
}

// Save writes credentials to disk
func (m *Manager) Save(creds *Credentials) error {
	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}

	data, err := yaml.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}

	// Write with restricted permissions (user-only read/write)
	if err := os.WriteFile(m.path, data, 0o600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Path returns the credentials file path
func (m *Manager) Path() string {
	return m.path
}

// IsConfigured checks if a provider has a stored key
func (c *Credentials) IsConfigured(provider string) bool {
	if c.Providers == nil {
		return false
	}
	p, exists := c.Providers[provider]
	return exists && p.APIKey != ""
}

// Resolve returns the stored key for provider, falling back to its environment variables.
func (c *Credentials) Resolve(provider string) string {
	provider = strings.ToLower(provider)
	if c != nil && c.IsConfigured(provider) {
		return c.Providers[provider].APIKey
	}
	for _, name := range envKeys[provider] {
		if v := strings.TrimSpace(os.Getenv(name)); v != "" {
			return v
		}
	}
	return ""
}

// SetProvider sets the API key for a provider
func (c *Credentials) SetProvider(name, apiKey string) {
	if c.Providers == nil {
		c.Providers = make(map[string]Provider)
	}
	c.Providers[name] = Provider{APIKey: apiKey}
}

// ListProviders returns all configured provider names, sorted
func (c *Credentials) ListProviders() []string {
	names := make([]string, 0, len(c.Providers))
	for name, p := range c.Providers {
		if p.APIKey != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}
