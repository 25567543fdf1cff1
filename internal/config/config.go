package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	Postgres  PostgresConfig
	Instagram InstagramConfig
	Gemini    GeminiConfig
	OpenAI    OpenAIConfig
	Cache     CacheConfig
	Logging   LoggingConfig
	Env       string
}

type ServerConfig struct {
	Port           int
	AllowedOrigins []string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
}

type InstagramConfig struct {
	BaseURL      string
	APIVersion   string
	AccessToken  string
	MaxPosts     int
	RetryCount   int
	InitialDelay time.Duration
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	MaxRetries int
	Timeout    time.Duration
}

type OpenAIConfig struct {
	APIKey         string
	Model          string
	EnableFallback bool
}

type CacheConfig struct {
	SocialTTL      time.Duration
	SuggestionsTTL time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvInt("SERVER_PORT", 8080),
			AllowedOrigins: parseCommaSeparated(getEnv("ALLOWED_ORIGIN", "https://giftguru.ai")),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "giftguru"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "giftguru"),
		},
		Instagram: InstagramConfig{
			BaseURL:      getEnv("INSTAGRAM_BASE_URL", "https://graph.instagram.com"),
			APIVersion:   getEnv("INSTAGRAM_API_VERSION", "v18.0"),
			AccessToken:  getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			MaxPosts:     getEnvInt("SCRAPER_MAX_POSTS", 50),
			RetryCount:   getEnvInt("SCRAPER_RETRY_COUNT", 3),
			InitialDelay: time.Duration(getEnvInt("SCRAPER_INITIAL_DELAY_MS", 500)) * time.Millisecond,
		},
		Gemini: GeminiConfig{
			APIKey:     getEnv("GEMINI_API_KEY", ""),
			Model:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
			MaxRetries: getEnvInt("GEMINI_MAX_RETRIES", 3),
			Timeout:    time.Duration(getEnvInt("GEMINI_TIMEOUT_MS", 10000)) * time.Millisecond,
		},
		OpenAI: OpenAIConfig{
			APIKey:         getEnv("OPENAI_API_KEY", ""),
			Model:          getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
			EnableFallback: getEnvBool("OPENAI_ENABLE_FALLBACK", true),
		},
		Cache: CacheConfig{
			SocialTTL:      time.Duration(getEnvInt("SOCIAL_CACHE_TTL", 86400)) * time.Second,
			SuggestionsTTL: time.Duration(getEnvInt("SUGGESTIONS_CACHE_TTL", 3600)) * time.Second,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
		Env: getEnv("APP_ENV", "production"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("SERVER_PORT must be a valid port number")
	}
	if c.Instagram.BaseURL == "" {
		return fmt.Errorf("INSTAGRAM_BASE_URL is required")
	}
	if c.Instagram.MaxPosts <= 0 {
		return fmt.Errorf("SCRAPER_MAX_POSTS must be positive")
	}
	if !c.IsDevelopment() && c.Gemini.APIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required outside development")
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseCommaSeparated(value string) []string {
	if value == "" {
		return []string{}
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
