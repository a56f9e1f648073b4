package gemini

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"goalrunner/internal/llm"
)

func TestSplitMessages(t *testing.T) {
	system, contents := splitMessages([]llm.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "goal"},
		{Role: "assistant", Content: "plan"},
	})
	assert.Equal(t, "be brief", system)
	require.Len(t, contents, 2)
	assert.Equal(t, genai.RoleUser, contents[0].Role)
	assert.Equal(t, genai.RoleModel, contents[1].Role)
	assert.Equal(t, "plan", contents[1].Parts[0].Text)
}

func TestNewClientRequiresKey(t *testing.T) {
	_, err := NewClient(context.Background(), "", zerolog.Nop())
	assert.Error(t, err)
}
