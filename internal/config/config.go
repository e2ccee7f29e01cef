// Package config provides environment configuration for the API server.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Generator kinds.
const (
	GeneratorLocal  = "local"
	GeneratorRemote = "remote"
	GeneratorLLM    = "llm"
)

// Template store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Search backends.
const (
	SearchStore  = "store"
	SearchRemote = "remote"
	SearchQdrant = "qdrant"
	SearchFinder = "finder"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string
	ServerReadTimeout  time.Duration
	ServerWriteTimeout time.Duration

	// JWT settings
	JWTSecret string

	// Rate limiting
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Logging
	LogLevel string

	// Tracing
	TracingEndpoint string
	TracingEnabled  bool

	// NATS settings; an empty URL disables event publishing
	NATSURL      string
	NATSCAFile   string
	NATSCertFile string
	NATSKeyFile  string
	NATSToken    string

	// Generation
	Generator             string
	GenerationAPIURL      string
	GenerationAPIKey      string
	GenerationTimeout     time.Duration
	StrictRemoteResponses bool
	SimulatedDelayMin     time.Duration
	SimulatedDelayMax     time.Duration
	DefaultTemperature    float64
	DefaultMaxTokens      int

	// LLM settings
	LLMProvider     string
	LLMModel        string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	GeminiAPIKey    string

	// Template store
	TemplateStore  string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string

	// Template search
	SearchBackend      string
	SearchRanker       string
	TemplateFinderURL  string
	VectorStoreURL     string
	VectorStoreAPIKey  string
	VectorCollection   string
	QdrantHost         string
	QdrantPort         int
	EmbeddingProvider  string
	EmbeddingModel     string
	EmbeddingDimension int
}

// Load reads configuration from environment variables, after loading an
// optional .env file from the working directory.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		// Server
		ServerPort:         getEnv("PORT", "8080"),
		ServerReadTimeout:  getDurationEnv("SERVER_READ_TIMEOUT", 30*time.Second),
		ServerWriteTimeout: getDurationEnv("SERVER_WRITE_TIMEOUT", 120*time.Second),

		// JWT
		JWTSecret: getEnv("JWT_SECRET", "development-secret-change-in-production"),

		// Rate limiting
		RateLimitRequests: getIntEnv("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow:   getDurationEnv("RATE_LIMIT_WINDOW", time.Minute),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "info"),

		// Tracing
		TracingEndpoint: getEnv("TRACING_ENDPOINT", "localhost:4318"),
		TracingEnabled:  getBoolEnv("TRACING_ENABLED", false),

		// NATS
		NATSURL:      getEnv("NATS_URL", ""),
		NATSCAFile:   getEnv("NATS_CA_FILE", ""),
		NATSCertFile: getEnv("NATS_CERT_FILE", ""),
		NATSKeyFile:  getEnv("NATS_KEY_FILE", ""),
		NATSToken:    getEnv("NATS_TOKEN", ""),

		// Generation
		Generator:             getEnv("GENERATOR", GeneratorLocal),
		GenerationAPIURL:      getEnv("GENERATION_API_URL", "http://localhost:3000/api/langchain/generate-email"),
		GenerationAPIKey:      getEnv("GENERATION_API_KEY", ""),
		GenerationTimeout:     getDurationEnv("GENERATION_TIMEOUT", 60*time.Second),
		StrictRemoteResponses: getBoolEnv("STRICT_REMOTE_RESPONSES", false),
		SimulatedDelayMin:     getDurationEnv("SIMULATED_DELAY_MIN", 2*time.Second),
		SimulatedDelayMax:     getDurationEnv("SIMULATED_DELAY_MAX", 3*time.Second),
		DefaultTemperature:    getFloatEnv("DEFAULT_TEMPERATURE", 0.7),
		DefaultMaxTokens:      getIntEnv("DEFAULT_MAX_TOKENS", 400),

		// LLM
		LLMProvider:     getEnv("LLM_PROVIDER", "anthropic"),
		LLMModel:        getEnv("LLM_MODEL", ""),
		AnthropicAPIKey: getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:    getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),

		// Template store
		TemplateStore:  getEnv("TEMPLATE_STORE", StoreMemory),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getIntEnv("REDIS_DB", 0),
		RedisKeyPrefix: getEnv("REDIS_KEY_PREFIX", "coldmail"),

		// Template search
		SearchBackend:      getEnv("SEARCH_BACKEND", SearchStore),
		SearchRanker:       getEnv("SEARCH_RANKER", "passthrough"),
		TemplateFinderURL:  getEnv("TEMPLATE_FINDER_URL", "http://localhost:3000/api/langchain/find-templates"),
		VectorStoreURL:     getEnv("VECTOR_STORE_URL", "http://localhost:3000/api/chroma"),
		VectorStoreAPIKey:  getEnv("VECTOR_STORE_API_KEY", ""),
		VectorCollection:   getEnv("VECTOR_COLLECTION", "email_templates"),
		QdrantHost:         getEnv("QDRANT_HOST", "localhost"),
		QdrantPort:         getIntEnv("QDRANT_PORT", 6334),
		EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "openai"),
		EmbeddingModel:     getEnv("EMBEDDING_MODEL", ""),
		EmbeddingDimension: getIntEnv("EMBEDDING_DIMENSION", 1536),
	}
}

// LLMAPIKey returns the key configured for the selected LLM provider.
func (c *Config) LLMAPIKey() string {
	return c.providerKey(c.LLMProvider)
}

// EmbeddingAPIKey returns the key configured for the embedding provider.
func (c *Config) EmbeddingAPIKey() string {
	return c.providerKey(c.EmbeddingProvider)
}

func (c *Config) providerKey(provider string) string {
	switch provider {
	case "openai":
		return c.OpenAIAPIKey
	case "gemini":
		return c.GeminiAPIKey
	default:
		return c.AnthropicAPIKey
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
