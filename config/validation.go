package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a configuration validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// sensitiveRequired lists the environments in which secrets have no defaults
var sensitiveRequired = map[Environment]bool{
	CI:         true,
	Production: true,
}

// ValidateConfig checks the configuration and reports every problem at once
func ValidateConfig(cfg *Config) error {
	var errs []string

	if cfg.ServerPort == "" {
		errs = append(errs, "SERVER_PORT must not be empty")
	}
	if cfg.RecipesLimit < 0 {
		errs = append(errs, "RECIPES_LIMIT must not be negative")
	}
	if cfg.PageSize <= 0 {
		errs = append(errs, "PAGE_SIZE must be positive")
	}
	if cfg.JWTTTL <= 0 {
		errs = append(errs, "JWT_TTL must be positive")
	}
	if cfg.RateLimitMax <= 0 || cfg.RateLimitWindow < time.Second {
		errs = append(errs, "RATE_LIMIT_MAX must be positive and RATE_LIMIT_WINDOW at least 1s")
	}

	if sensitiveRequired[cfg.Env] {
		if cfg.JWTSecret == "" {
			errs = append(errs, "JWT_SECRET environment variable or jwt_secret secret is required")
		}
		if cfg.DBDSN == "" && cfg.DBPassword == "" {
			errs = append(errs, "DB_DSN or DB_PASSWORD (db_password secret) is required")
		}
	} else if cfg.JWTSecret == "" {
		errs = append(errs, "JWT_SECRET must not be empty")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%s", strings.Join(errs, "\n"))
	}

	return nil
}
