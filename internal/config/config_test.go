package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, GeneratorLocal, cfg.Generator)
	assert.Equal(t, StoreMemory, cfg.TemplateStore)
	assert.Equal(t, SearchStore, cfg.SearchBackend)
	assert.Equal(t, 2*time.Second, cfg.SimulatedDelayMin)
	assert.Equal(t, 3*time.Second, cfg.SimulatedDelayMax)
	assert.InDelta(t, 0.7, cfg.DefaultTemperature, 1e-9)
	assert.Equal(t, 400, cfg.DefaultMaxTokens)
	assert.Equal(t, "email_templates", cfg.VectorCollection)
	assert.Empty(t, cfg.NATSURL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GENERATOR", GeneratorRemote)
	t.Setenv("GENERATION_API_KEY", "secret")
	t.Setenv("SIMULATED_DELAY_MIN", "0s")
	t.Setenv("STRICT_REMOTE_RESPONSES", "true")
	t.Setenv("DEFAULT_TEMPERATURE", "0.3")
	t.Setenv("REDIS_DB", "4")

	cfg := Load()

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, GeneratorRemote, cfg.Generator)
	assert.Equal(t, "secret", cfg.GenerationAPIKey)
	assert.Equal(t, time.Duration(0), cfg.SimulatedDelayMin)
	assert.True(t, cfg.StrictRemoteResponses)
	assert.InDelta(t, 0.3, cfg.DefaultTemperature, 1e-9)
	assert.Equal(t, 4, cfg.RedisDB)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("RATE_LIMIT_REQUESTS", "many")
	t.Setenv("RATE_LIMIT_WINDOW", "soon")
	t.Setenv("TRACING_ENABLED", "maybe")

	cfg := Load()

	assert.Equal(t, 60, cfg.RateLimitRequests)
	assert.Equal(t, time.Minute, cfg.RateLimitWindow)
	assert.False(t, cfg.TracingEnabled)
}

func TestProviderKeys(t *testing.T) {
	cfg := &Config{
		LLMProvider:       "gemini",
		EmbeddingProvider: "openai",
		AnthropicAPIKey:   "a",
		OpenAIAPIKey:      "o",
		GeminiAPIKey:      "g",
	}

	assert.Equal(t, "g", cfg.LLMAPIKey())
	assert.Equal(t, "o", cfg.EmbeddingAPIKey())

	cfg.LLMProvider = "anthropic"
	assert.Equal(t, "a", cfg.LLMAPIKey())
}
