package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	// EnvDevelopment is the only environment allowed to run without an
	// operator-supplied signing secret.
	EnvDevelopment = "development"

	// devSecret is substituted in development when JWT_SECRET is unset.
	// Any other environment refuses to start instead.
	devSecret = "campuslink-dev-only-do-not-deploy"

	defaultTokenTTLHours = 168 // 7 days
)

// Config holds runtime configuration sourced from env vars.
type Config struct {
	Env         string
	Port        string
	DatabaseURL string
	JWTSecret   string
	JWTIssuer   string
	JWTTTL      time.Duration
	CORSOrigins []string
	LogLevel    string

	// DevSecretInUse is set when the development fallback secret was
	// substituted, so startup can log a loud warning.
	DevSecretInUse bool
}

// Load reads configuration from the environment and validates it.
// A missing JWT_SECRET outside development is a startup failure, not
// a silent fallback.
func Load() (Config, error) {
	cfg := Config{
		Env:         fallback(os.Getenv("APP_ENV"), EnvDevelopment),
		Port:        fallback(os.Getenv("PORT"), "8080"),
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		JWTSecret:   strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTIssuer:   fallback(os.Getenv("JWT_ISSUER"), "campuslink"),
		CORSOrigins: parseCSV(fallback(os.Getenv("CORS_ALLOWED_ORIGINS"), "*")),
		LogLevel:    fallback(os.Getenv("LOG_LEVEL"), "info"),
	}

	hours := fallback(os.Getenv("JWT_TTL_HOURS"), strconv.Itoa(defaultTokenTTLHours))
	if ttlHours, err := strconv.Atoi(hours); err == nil && ttlHours > 0 {
		cfg.JWTTTL = time.Duration(ttlHours) * time.Hour
	} else {
		cfg.JWTTTL = defaultTokenTTLHours * time.Hour
	}

	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		if cfg.Env != EnvDevelopment {
			return Config{}, fmt.Errorf("JWT_SECRET is required when APP_ENV=%s", cfg.Env)
		}
		cfg.JWTSecret = devSecret
		cfg.DevSecretInUse = true
	}

	return cfg, nil
}

// HTTPAddress returns the host:port pair for the HTTP server to bind to.
func (c Config) HTTPAddress() string {
	return fmt.Sprintf(":%s", c.Port)
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return strings.TrimSpace(value)
}

func parseCSV(input string) []string {
	parts := strings.Split(input, ",")
	var out []string
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
