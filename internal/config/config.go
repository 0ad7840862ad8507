package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port               string
	AllowedOrigins     []string
	LogLevel           string
	Environment        string
	DatabaseURL        string
	RedisURL           string
	BotToken           string
	BotAPIBaseURL      string // Overridable for tests; defaults to the Telegram API
	GroupID            string // Chat ID of the managed group ("mainGroup" alias)
	ChannelID          string // Chat ID of the archive channel ("mainChannel" alias)
	ServiceTokenSecret string
	ProposalTTL        time.Duration
	ProposalPollEvery  time.Duration
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		Environment:        getEnv("ENVIRONMENT", "production"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		RedisURL:           getEnv("REDIS_URL", ""),
		BotToken:           getEnv("BOT_TOKEN", ""),
		BotAPIBaseURL:      getEnv("BOT_API_BASE_URL", "https://api.telegram.org"),
		GroupID:            getEnv("GROUP_ID", ""),
		ChannelID:          getEnv("CHANNEL_ID", ""),
		ServiceTokenSecret: getEnv("SERVICE_TOKEN_SECRET", ""),
		ProposalTTL:        getDurationEnv("PROPOSAL_TTL", 24*time.Hour),
		ProposalPollEvery:  getDurationEnv("PROPOSAL_POLL_INTERVAL", 30*time.Second),
	}, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
