package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	// Server configuration
	ServerPort string
	ServerHost string

	// Database configuration
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis configuration
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int
	RedisURL      string

	// JWT configuration
	JWTSecret string

	// Vision model configuration. An empty APIKey puts the analyzer
	// in demo mode: no outbound calls, canned result.
	OpenAIAPIKey    string
	OpenAIAPIURL    string
	OpenAIModel     string
	OpenAIMaxTokens int
	OpenAITimeout   time.Duration

	// Analyze endpoint limits
	RateLimitWindow   time.Duration
	RateLimitRequests int
	DailyFreeAnalyses int
	MockDelay         time.Duration
}

// LoadConfig creates a new Config instance with values from environment variables or secrets
func LoadConfig() (*Config, error) {
	env := GetEnvironment()
	cfg := &Config{}

	if env == Development || env == Test {
		// A local .env file is optional; real deployments use secrets.
		_ = godotenv.Load()
	}

	switch env {
	case CI, Development, Test:
		loadEnvConfig(cfg)
	case Production:
		loadProdConfig(cfg)
	default:
		return nil, fmt.Errorf("unknown environment: %s", env)
	}

	loadAnalyzerConfig(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadEnvConfig loads configuration from plain environment variables
func loadEnvConfig(cfg *Config) {
	cfg.ServerPort = envOr("SERVER_PORT", "8080")
	cfg.ServerHost = envOr("SERVER_HOST", "0.0.0.0")
	cfg.DBHost = envOr("DB_HOST", "localhost")
	cfg.DBPort = envOr("DB_PORT", "5432")
	cfg.DBUser = os.Getenv("DB_USER")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = os.Getenv("DB_NAME")
	cfg.DBSSLMode = envOr("DB_SSL_MODE", "disable")
	cfg.RedisHost = envOr("REDIS_HOST", "localhost")
	cfg.RedisPort = envOr("REDIS_PORT", "6379")
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.RedisURL = os.Getenv("REDIS_URL")
	cfg.RedisDB = 0
	cfg.JWTSecret = os.Getenv("JWT_SECRET")
}

// loadProdConfig loads configuration for production using ONLY Docker secrets
func loadProdConfig(cfg *Config) {
	cfg.ServerPort = readSecret("server_port")
	cfg.ServerHost = readSecret("server_host")
	cfg.DBHost = readSecret("db_host")
	cfg.DBPort = readSecret("db_port")
	cfg.DBUser = readSecret("db_user")
	cfg.DBPassword = readSecret("db_password")
	cfg.DBName = readSecret("db_name")
	cfg.DBSSLMode = readSecret("db_ssl_mode")
	cfg.RedisHost = readSecret("redis_host")
	cfg.RedisPort = readSecret("redis_port")
	cfg.RedisPassword = readSecret("redis_password")
	cfg.RedisURL = readSecret("redis_url")
	cfg.RedisDB = 0
	cfg.JWTSecret = readSecret("jwt_secret")
}

// loadAnalyzerConfig loads the vision model and limiter settings. These are
// tunables rather than secrets (except the API key) and come from the
// environment in every deployment mode.
func loadAnalyzerConfig(cfg *Config) {
	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	if cfg.OpenAIAPIKey == "" {
		if keyFile := os.Getenv("OPENAI_API_KEY_FILE"); keyFile != "" {
			if data, err := os.ReadFile(keyFile); err == nil {
				cfg.OpenAIAPIKey = strings.TrimSpace(string(data))
			}
		}
	}

	cfg.OpenAIAPIURL = envOr("OPENAI_API_URL", "https://api.openai.com/v1/chat/completions")
	cfg.OpenAIModel = envOr("OPENAI_MODEL", "gpt-4o")
	cfg.OpenAIMaxTokens = envIntOr("OPENAI_MAX_TOKENS", 500)
	cfg.OpenAITimeout = time.Duration(envIntOr("OPENAI_TIMEOUT_SECONDS", 60)) * time.Second

	cfg.RateLimitWindow = time.Duration(envIntOr("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	cfg.RateLimitRequests = envIntOr("RATE_LIMIT_MAX_REQUESTS", 60)
	cfg.DailyFreeAnalyses = envIntOr("DAILY_FREE_ANALYSES", 2)
	cfg.MockDelay = time.Duration(envIntOr("MOCK_DELAY_SECONDS", 2)) * time.Second
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

// readSecret reads a Docker secret from the secrets directory
func readSecret(name string) string {
	secretsDir := os.Getenv("SECRETS_DIR")
	if secretsDir == "" {
		secretsDir = "/run/secrets"
	}
	secretPath := filepath.Join(secretsDir, name)
	if data, err := os.ReadFile(secretPath); err == nil {
		return strings.TrimSpace(string(data))
	}
	return ""
}
