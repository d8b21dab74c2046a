package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateConfig checks that the loaded configuration is usable in the
// current environment. Sensitive values must be present everywhere; the
// vision API key is deliberately optional (demo mode).
func ValidateConfig(cfg *Config) error {
	var errors []string

	if cfg.ServerPort == "" {
		errors = append(errors, "server port is required")
	}
	if cfg.DBHost == "" || cfg.DBPort == "" || cfg.DBName == "" {
		errors = append(errors, "database host, port and name are required")
	}
	if cfg.DBUser == "" {
		errors = append(errors, "database user is required")
	}
	if cfg.DBPassword == "" {
		errors = append(errors, "database password is required")
	}
	if cfg.JWTSecret == "" {
		errors = append(errors, "JWT secret is required")
	}
	if cfg.RedisHost == "" && cfg.RedisURL == "" {
		errors = append(errors, "redis host or redis URL is required")
	}
	if cfg.OpenAIMaxTokens <= 0 {
		errors = append(errors, "OPENAI_MAX_TOKENS must be positive")
	}
	if cfg.RateLimitRequests <= 0 {
		errors = append(errors, "RATE_LIMIT_MAX_REQUESTS must be positive")
	}
	if cfg.DailyFreeAnalyses <= 0 {
		errors = append(errors, "DAILY_FREE_ANALYSES must be positive")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errors, "\n"))
	}

	return nil
}
