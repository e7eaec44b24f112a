package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	// HTTP configuration
	HTTPAddr    string
	FrontendURL string

	// OpenRouter configuration
	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	OpenRouterModel   string
	OpenRouterTimeout time.Duration

	// Embedding configuration
	EmbeddingModel string
	EmbeddingDim   int

	// Qdrant configuration
	QdrantURL        string
	QdrantAPIKey     string
	QdrantCollection string

	// Session store configuration
	SessionStore         string // "memory" or "redis"
	RedisURL             string
	SessionMaxTurns      int
	SessionMaxAge        time.Duration
	SessionSweepInterval time.Duration

	// NATS configuration (optional; transport disabled when URL empty)
	NatsURL         string
	NatsChatSubject string
	NatsTimeout     time.Duration

	// Service configuration
	ServiceName string
}

func Load() *Config {
	return &Config{
		// HTTP settings
		HTTPAddr:    getEnv("HTTP_ADDR", ":8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3001"),

		// OpenRouter settings
		OpenRouterAPIKey:  getEnv("OPENROUTER_API_KEY", ""),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		OpenRouterModel:   getEnv("OPENROUTER_MODEL", "openai/gpt-3.5-turbo"),
		OpenRouterTimeout: getDurationEnv("OPENROUTER_TIMEOUT", 60*time.Second),

		// Embedding settings
		EmbeddingModel: getEnv("EMBEDDING_MODEL", "text-embedding-3-small"),
		EmbeddingDim:   getIntEnv("EMBEDDING_DIM", 1536),

		// Qdrant settings
		QdrantURL:        getEnv("QDRANT_URL", "http://localhost:6334"),
		QdrantAPIKey:     getEnv("QDRANT_API_KEY", ""),
		QdrantCollection: getEnv("QDRANT_COLLECTION", "knowledge"),

		// Session settings
		SessionStore:         getEnv("SESSION_STORE", "memory"),
		RedisURL:             getEnv("REDIS_URL", "redis://localhost:6379/0"),
		SessionMaxTurns:      getIntEnv("SESSION_MAX_TURNS", 20),
		SessionMaxAge:        getDurationEnv("SESSION_MAX_AGE", 24*time.Hour),
		SessionSweepInterval: getDurationEnv("SESSION_SWEEP_INTERVAL", time.Hour),

		// NATS settings
		NatsURL:         getEnv("NATS_URL", ""),
		NatsChatSubject: getEnv("NATS_CHAT_SUBJECT", "chat.request"),
		NatsTimeout:     getDurationEnv("NATS_TIMEOUT", 30*time.Second),

		// Service settings
		ServiceName: getEnv("SERVICE_NAME", "chatrag"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
