package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	ctx := context.Background()

	c, err := NewClient(ctx, ProviderAnthropic, "sk-ant-test")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())

	c, err = NewClient(ctx, ProviderOpenAI, "sk-test")
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())

	_, err = NewClient(ctx, "mistral", "key")
	assert.ErrorContains(t, err, "unknown LLM provider")
}

func TestNewClient_RequiresKey(t *testing.T) {
	ctx := context.Background()
	for _, p := range []Provider{ProviderAnthropic, ProviderOpenAI, ProviderGemini} {
		_, err := NewClient(ctx, p, "")
		assert.Error(t, err, "provider %s", p)
	}
}

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()

	e, err := NewEmbedder(ctx, ProviderOpenAI, "sk-test", "")
	require.NoError(t, err)
	assert.Equal(t, "text-embedding-3-small", e.(*OpenAIEmbedder).model)

	_, err = NewEmbedder(ctx, ProviderAnthropic, "key", "")
	assert.ErrorContains(t, err, "does not support embeddings")

	_, err = NewEmbedder(ctx, ProviderGemini, "", "")
	assert.Error(t, err)
}

func TestCompletionResponse_TotalTokens(t *testing.T) {
	r := &CompletionResponse{TokensIn: 12, TokensOut: 30}
	assert.Equal(t, 42, r.TotalTokens())
}
