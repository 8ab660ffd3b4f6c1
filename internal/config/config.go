// Package config handles loading application configuration from environment
// variables. All config is centralized here so no other package reads env
// vars directly. Sensible defaults are provided for development.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration. Populated from environment
// variables at startup. Passed to other packages via dependency injection.
type Config struct {
	// Env is the runtime environment: "development" or "production".
	Env string

	// Port is the HTTP listen port (default: 8080).
	Port int

	// BaseURL is the public-facing URL of the dashboard.
	BaseURL string

	// LogLevel controls log verbosity: "debug", "info", "warn", "error".
	LogLevel string

	// TrustedProxies lists the CIDRs whose X-Forwarded-For / X-Real-IP
	// headers are believed when resolving the client IP.
	TrustedProxies []string

	// Redis holds Redis connection settings.
	Redis RedisConfig

	// Auth holds dashboard session settings.
	Auth AuthConfig

	// API holds settings for the remote cost API.
	API APIConfig

	// Identity holds settings for the identity provider.
	Identity IdentityConfig

	// Notifications holds toast settings.
	Notifications NotificationConfig
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	// URL is the Redis connection URL (e.g., "redis://localhost:6379").
	// Empty selects the in-memory token store (development only).
	URL string
}

// AuthConfig holds dashboard session settings.
type AuthConfig struct {
	// SecretKey seals tokens at rest. Must be 32+ characters in production.
	SecretKey string

	// SessionTTL is how long a persisted token slot survives without use.
	SessionTTL time.Duration

	// WorkspaceIdleTTL is how long an in-memory workspace lives without
	// requests before it is torn down.
	WorkspaceIdleTTL time.Duration
}

// APIConfig holds settings for the remote cost API.
type APIConfig struct {
	// BaseURL is the REST API root (default: "http://localhost:8000").
	BaseURL string

	// Timeout bounds every outbound request.
	Timeout time.Duration

	// RateLimit is the sustained outbound request rate per workspace (req/sec).
	RateLimit float64

	// RateBurst is the outbound burst size per workspace.
	RateBurst int

	// ProxyPublicURL is the proxy URL shown in integration snippets.
	// Defaults to BaseURL.
	ProxyPublicURL string
}

// IdentityConfig holds settings for the GoTrue-compatible identity provider.
type IdentityConfig struct {
	// URL is the provider project URL (e.g., "https://xyz.supabase.co").
	URL string

	// AnonKey is the public API key sent in the "apikey" header.
	AnonKey string

	// SignInFallback controls whether registration attempts an immediate
	// sign-in when the provider reports the new account as unconfirmed.
	SignInFallback bool
}

// NotificationConfig holds toast settings.
type NotificationConfig struct {
	// DefaultTTL is the auto-dismiss delay used when a page does not pick one.
	DefaultTTL time.Duration
}

// Load reads configuration from environment variables with sensible defaults.
// Returns an error if required variables are missing or malformed.
func Load() (*Config, error) {
	cfg := &Config{
		Env:      getEnv("ENV", "development"),
		Port:     getEnvInt("PORT", 8080),
		BaseURL:  getEnv("BASE_URL", "http://localhost:8080"),
		LogLevel: getEnv("LOG_LEVEL", ""),

		TrustedProxies: getEnvList("TRUSTED_PROXIES", []string{
			"127.0.0.0/8",
			"10.0.0.0/8",
			"172.16.0.0/12",
			"192.168.0.0/16",
			"fd00::/8",
		}),

		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", ""),
		},

		Auth: AuthConfig{
			SecretKey:        getEnv("SECRET_KEY", ""),
			SessionTTL:       getEnvDuration("SESSION_TTL", 720*time.Hour),
			WorkspaceIdleTTL: getEnvDuration("WORKSPACE_IDLE_TTL", 30*time.Minute),
		},

		API: APIConfig{
			BaseURL:        strings.TrimRight(getEnv("API_URL", "http://localhost:8000"), "/"),
			Timeout:        getEnvDuration("API_TIMEOUT", 15*time.Second),
			RateLimit:      getEnvFloat("API_RATE_LIMIT", 10),
			RateBurst:      getEnvInt("API_RATE_BURST", 20),
			ProxyPublicURL: strings.TrimRight(getEnv("PROXY_PUBLIC_URL", ""), "/"),
		},

		Identity: IdentityConfig{
			URL:            strings.TrimRight(getEnv("IDENTITY_URL", ""), "/"),
			AnonKey:        getEnv("IDENTITY_ANON_KEY", ""),
			SignInFallback: getEnvBool("IDENTITY_SIGNIN_FALLBACK", true),
		},

		Notifications: NotificationConfig{
			DefaultTTL: getEnvDuration("NOTIFICATION_TTL", 5*time.Second),
		},
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.IsDevelopment() {
			cfg.LogLevel = "debug"
		}
	}

	if cfg.API.ProxyPublicURL == "" {
		cfg.API.ProxyPublicURL = cfg.API.BaseURL
	}

	if err := validateHTTPURL(cfg.API.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid API_URL: %w", err)
	}

	if cfg.Identity.URL == "" {
		return nil, fmt.Errorf("IDENTITY_URL is required")
	}
	if err := validateHTTPURL(cfg.Identity.URL); err != nil {
		return nil, fmt.Errorf("invalid IDENTITY_URL: %w", err)
	}

	// Validate required fields in production. Case-insensitive check catches
	// common variants like "Production", "prod", etc.
	if !cfg.IsDevelopment() {
		if len(cfg.Auth.SecretKey) < 32 {
			return nil, fmt.Errorf("SECRET_KEY must be at least 32 characters in production")
		}
		if cfg.Redis.URL == "" {
			return nil, fmt.Errorf("REDIS_URL is required in production")
		}
		if cfg.Identity.AnonKey == "" {
			return nil, fmt.Errorf("IDENTITY_ANON_KEY is required in production")
		}
	}

	// Provide a dev-only default secret so local dev works without .env.
	if cfg.Auth.SecretKey == "" {
		cfg.Auth.SecretKey = "dev-secret-key-do-not-use-in-production!!"
	}

	return cfg, nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	env := strings.ToLower(c.Env)
	return env == "development" || env == "dev"
}

// validateHTTPURL ensures a URL is absolute and uses http or https.
func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL must use http or https scheme, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL must include a host")
	}
	return nil
}

// --- Helper functions for reading environment variables ---

// getEnv reads a string env var or returns the default.
func getEnv(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvInt reads an integer env var or returns the default.
func getEnvInt(key string, defaultVal int) int {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

// getEnvFloat reads a float env var or returns the default.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvBool reads a boolean env var ("true", "1", "false", ...) or returns the default.
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}

// getEnvDuration reads a duration env var (e.g., "720h") or returns the default.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

// getEnvList reads a comma-separated environment variable, dropping empty
// items. Falls back to defaultVal when the variable is unset or blank.
func getEnvList(key string, defaultVal []string) []string {
	val := os.Getenv(key)
	if strings.TrimSpace(val) == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
