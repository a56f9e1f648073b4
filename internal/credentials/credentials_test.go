package credentials

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePrefersStoredKey(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "env-key")
	creds := &Credentials{}
	assert.Equal(t, "env-key", creds.Resolve("openrouter"))

	creds.SetProvider("openrouter", "stored-key")
	assert.Equal(t, "stored-key", creds.Resolve("OpenRouter"))
}

func TestResolveGeminiFallsBackToGoogleKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "google-key")
	assert.Equal(t, "google-key", (&Credentials{}).Resolve("gemini"))
}

func TestOnboardSavesChoice(t *testing.T) {
	t.Setenv("GOALRUNNER_CREDENTIALS_PATH", "")
	dir := t.TempDir()
	mgr := NewManager(dir)
	require.Equal(t, filepath.Join(dir, "credentials.yaml"), mgr.Path())

	var out bytes.Buffer
	creds, err := Onboard(mgr, strings.NewReader("3\n\nzai-secret\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "zai", creds.DefaultProvider)
	assert.Contains(t, out.String(), "API key cannot be empty")

	loaded, err := mgr.Load()
	require.NoError(t, err)
	assert.Equal(t, "zai-secret", loaded.Resolve("zai"))
	assert.Equal(t, []string{"zai"}, loaded.ListProviders())
}

func TestOnboardRejectsUnknownChoice(t *testing.T) {
	mgr := NewManager(t.TempDir())
	_, err := Onboard(mgr, strings.NewReader("9\n"), &bytes.Buffer{})
	require.Error(t, err)
}
