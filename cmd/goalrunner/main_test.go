package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goalrunner/internal/config"
	"goalrunner/internal/credentials"
	mockclient "goalrunner/internal/llm/mockclient"
)

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("GOALRUNNER_CONFIG_DIR", dir)
	t.Setenv("GOALRUNNER_CREDENTIALS_PATH", "")
	t.Setenv("GOALRUNNER_CONFIG_PATH", "")
	for _, key := range []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "ZAI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		t.Setenv(key, "")
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestBuildClientMock(t *testing.T) {
	isolate(t)
	cfg := config.Defaults()
	cfg.Provider = "mock"

	client, err := buildClient(context.Background(), cfg, &credentials.Credentials{}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &mockclient.Client{}, client)
}

func TestBuildClientMissingKey(t *testing.T) {
	isolate(t)
	cfg := config.Defaults()
	cfg.Provider = "zai"

	_, err := buildClient(context.Background(), cfg, &credentials.Credentials{}, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "goalrunner setup")
	assert.Contains(t, err.Error(), "ZAI_API_KEY")
}

func TestBuildClientStoredKey(t *testing.T) {
	isolate(t)
	cfg := config.Defaults()
	cfg.Provider = "openai"
	creds := &credentials.Credentials{}
	creds.SetProvider("openai", "sk-test")

	client, err := buildClient(context.Background(), cfg, creds, zerolog.Nop())
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestCapabilitiesCommand(t *testing.T) {
	dir := isolate(t)

	out, err := execute(t, "capabilities", "--workspace", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "file_operations: read_file, write_file")
	assert.Contains(t, out, "json_operations: create_json, get_json_value, parse_json, to_json")
	assert.Contains(t, out, "google_search: google_search")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "goalrunner version dev\n", out)
}

func TestRunGoalWithMockProviderIsJournaled(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, "--provider", "mock", "--approval", "auto", "--workspace", dir, "write a status document")
	require.NoError(t, err)

	out, err := execute(t, "runs", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "write a status document")
	assert.Contains(t, out, "achieved")
}

func TestRunGoalJoinsPositionalWords(t *testing.T) {
	dir := isolate(t)

	_, err := execute(t, "--provider", "mock", "--approval", "auto", "--workspace", dir, "summarize", "the", "news")
	require.NoError(t, err)

	out, err := execute(t, "runs")
	require.NoError(t, err)
	assert.Contains(t, out, "summarize the news")
}

func TestRunsCommandEmptyJournal(t *testing.T) {
	isolate(t)

	out, err := execute(t, "runs")
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded yet.\n", out)
}
