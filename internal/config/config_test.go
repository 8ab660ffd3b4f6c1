package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("IDENTITY_URL", "https://project.supabase.co/")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "http://localhost:8000", cfg.API.BaseURL)
	assert.Equal(t, "http://localhost:8000", cfg.API.ProxyPublicURL)
	assert.Equal(t, "https://project.supabase.co", cfg.Identity.URL)
	assert.True(t, cfg.Identity.SignInFallback)
	assert.Equal(t, 5*time.Second, cfg.Notifications.DefaultTTL)
	assert.Equal(t, 30*time.Minute, cfg.Auth.WorkspaceIdleTTL)
	assert.NotEmpty(t, cfg.Auth.SecretKey)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Contains(t, cfg.TrustedProxies, "10.0.0.0/8")
}

func TestLoad_TrustedProxiesList(t *testing.T) {
	t.Setenv("IDENTITY_URL", "https://id.example.com")
	t.Setenv("TRUSTED_PROXIES", " 10.1.0.0/16, ,192.168.1.0/24 ")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1.0.0/16", "192.168.1.0/24"}, cfg.TrustedProxies)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("IDENTITY_URL", "https://id.example.com")
	t.Setenv("API_URL", "https://api.example.com/")
	t.Setenv("PROXY_PUBLIC_URL", "https://proxy.example.com")
	t.Setenv("IDENTITY_SIGNIN_FALLBACK", "false")
	t.Setenv("NOTIFICATION_TTL", "8s")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, "https://proxy.example.com", cfg.API.ProxyPublicURL)
	assert.False(t, cfg.Identity.SignInFallback)
	assert.Equal(t, 8*time.Second, cfg.Notifications.DefaultTTL)
	assert.InDelta(t, 2.5, cfg.API.RateLimit, 0.0001)
	assert.Equal(t, 8080, cfg.Port, "malformed values fall back to defaults")
}

func TestLoad_RequiresIdentityURL(t *testing.T) {
	t.Setenv("IDENTITY_URL", "")

	_, err := Load()
	assert.ErrorContains(t, err, "IDENTITY_URL")
}

func TestLoad_RejectsBadAPIURL(t *testing.T) {
	t.Setenv("IDENTITY_URL", "https://id.example.com")
	t.Setenv("API_URL", "ftp://api.example.com")

	_, err := Load()
	assert.ErrorContains(t, err, "API_URL")
}

func TestLoad_ProductionRequirements(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("IDENTITY_URL", "https://id.example.com")
	t.Setenv("SECRET_KEY", "short")

	_, err := Load()
	assert.ErrorContains(t, err, "SECRET_KEY")

	t.Setenv("SECRET_KEY", "0123456789abcdef0123456789abcdef")
	_, err = Load()
	assert.ErrorContains(t, err, "REDIS_URL")

	t.Setenv("REDIS_URL", "redis://localhost:6379")
	_, err = Load()
	assert.ErrorContains(t, err, "IDENTITY_ANON_KEY")

	t.Setenv("IDENTITY_ANON_KEY", "anon")
	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "info", cfg.LogLevel)
}
