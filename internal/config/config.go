package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         int
	DataDir      string
	DatabaseURL  string
	NatsURL      string
	NatsToken    string
	LogLevel     string
	APIToken     string
	Provider     string
	OpenAIKey    string
	AnthropicKey string
	Model        string
	UseAIReview  bool
}

// Load reads configuration from the environment, with a .env file as a
// lower-priority source for local development. Missing optional values
// fall back to defaults; required values are checked at startup.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port:         envInt("PROMPTSMITH_PORT", 8760),
		DataDir:      envStr("PROMPTSMITH_DATA_DIR", "data"),
		DatabaseURL:  envStr("DATABASE_URL", ""),
		NatsURL:      envStr("NATS_URL", ""),
		NatsToken:    envStr("NATS_TOKEN", ""),
		LogLevel:     envStr("LOG_LEVEL", "info"),
		APIToken:     envStr("PROMPTSMITH_API_TOKEN", ""),
		Provider:     envStr("AI_PROVIDER", "openai"),
		OpenAIKey:    envStr("OPENAI_API_KEY", ""),
		AnthropicKey: envStr("ANTHROPIC_API_KEY", ""),
		Model:        envStr("PROMPTSMITH_MODEL", ""),
		UseAIReview:  envBool("USE_AI_REVIEW", false),
	}
}

// ProviderKey returns the API key for the configured provider.
func (c Config) ProviderKey() string {
	if c.Provider == "anthropic" {
		return c.AnthropicKey
	}
	return c.OpenAIKey
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
