package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDisabledProvider(t *testing.T) {
	client, err := New(context.Background(), "", "key", "")
	require.NoError(t, err)
	assert.Nil(t, client)

	client, err = New(context.Background(), "none", "key", "")
	require.NoError(t, err)
	assert.Nil(t, client)
}

func TestNewUnknownProvider(t *testing.T) {
	_, err := New(context.Background(), "palantir", "key", "")
	assert.Error(t, err)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(context.Background(), "gemini", "", "")
	assert.Error(t, err)

	_, err = New(context.Background(), "claude", "", "")
	assert.Error(t, err)
}

func TestClaudeClientDefaults(t *testing.T) {
	c, err := NewClaudeClient("test-key", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultClaudeModel, c.ModelName())

	c, err = NewClaudeClient("test-key", "claude-haiku-3-5")
	require.NoError(t, err)
	assert.Equal(t, "claude-haiku-3-5", c.ModelName())
}
