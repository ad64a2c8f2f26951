package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the font detection service
type Config struct {
	// Server configuration
	Host string
	Port string

	// LLM provider selection: "gemini", "openai" or "stub"
	LLMProvider string

	// Gemini configuration
	GeminiAPIKey string
	GeminiModel  string

	// OpenAI configuration
	OpenAIAPIKey string
	OpenAIModel  string

	// Upload limits
	MaxUploadBytes int64

	// Session lifecycle
	SessionTTL    time.Duration
	SweepInterval time.Duration

	// Rate limiting
	RateLimitPerMinute int

	// CORS
	AllowedOrigins string

	// Logging
	LogLevel string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		// Server defaults
		Host: getEnv("HOST", "0.0.0.0"),
		Port: getEnv("PORT", "8080"),

		// Provider defaults
		LLMProvider: getEnv("LLM_PROVIDER", "gemini"),

		// Gemini defaults
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		// OpenAI defaults
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o"),

		// Upload defaults (8 MiB)
		MaxUploadBytes: getInt64Env("MAX_UPLOAD_BYTES", 8<<20),

		// Session defaults
		SessionTTL:    getDurationEnv("SESSION_TTL", 30*time.Minute),
		SweepInterval: getDurationEnv("SESSION_SWEEP_INTERVAL", time.Minute),

		// Rate limit defaults
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 30),

		// CORS defaults
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "*"),

		// Logging defaults
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getInt64Env gets a 64-bit integer environment variable or returns a default value
func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
