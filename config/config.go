package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	Port        string

	LLMBaseURL string
	LLMAPIKey  string
	LLMModel   string
	EmbedModel string

	EphemeralDir string
	SweepAge     time.Duration
	CorpusPath   string

	CollectorBudget   time.Duration
	CollectorMinItems int
	CollectorMaxItems int

	SlackToken         string
	SlackSigningSecret string

	NaverClientID     string
	NaverClientSecret string
}

// LoadConfig loads configuration from environment variables.
// It first tries to load from a .env file, then falls back to the
// system environment.
func LoadConfig() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug(".env file not loaded", "error", err)
	}

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		Port:        getEnv("PORT", "8080"),

		LLMBaseURL: getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
		LLMAPIKey:  getEnv("LLM_API_KEY", ""),
		LLMModel:   getEnv("LLM_MODEL", "gpt-4o"),
		EmbedModel: getEnv("LLM_EMBED_MODEL", "text-embedding-3-large"),

		EphemeralDir: getEnv("EPHEMERAL_DIR", "./ephemeral_db"),
		SweepAge:     getEnvDuration("SWEEP_AGE", 5*time.Minute),
		CorpusPath:   getEnv("TECHNIQUE_CORPUS_PATH", "./techniques.yaml"),

		CollectorBudget:   getEnvDuration("COLLECTOR_BUDGET", 30*time.Second),
		CollectorMinItems: getEnvInt("COLLECTOR_MIN_ITEMS", 10),
		CollectorMaxItems: getEnvInt("COLLECTOR_MAX_ITEMS", 20),

		SlackToken:         getEnv("SLACK_BOT_TOKEN", ""),
		SlackSigningSecret: getEnv("SLACK_SIGNING_SECRET", ""),

		NaverClientID:     getEnv("NAVER_CLIENT_ID", ""),
		NaverClientSecret: getEnv("NAVER_CLIENT_SECRET", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("invalid integer in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		slog.Warn("invalid duration in environment, using default", "key", key, "value", value)
		return defaultValue
	}
	return d
}

// Validate checks the settings every deployment needs. Slack and Naver
// credentials stay optional since those surfaces are opt-in.
func (c *Config) Validate() error {
	if c.LLMAPIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if c.EphemeralDir == "" {
		return fmt.Errorf("EPHEMERAL_DIR is required")
	}
	if c.CollectorMinItems <= 0 || c.CollectorMaxItems < c.CollectorMinItems {
		return fmt.Errorf("collector item bounds are invalid: min=%d max=%d", c.CollectorMinItems, c.CollectorMaxItems)
	}
	return nil
}

// SlackEnabled reports whether the Slack surface can be started.
func (c *Config) SlackEnabled() bool {
	return c.SlackToken != "" && c.SlackSigningSecret != ""
}
