package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SESSION_EXPIRY_DAYS", "")
	t.Setenv("VERIFICATION_TTL", "")
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("TRUST_PROXY", "")

	cfg := Load()

	assert.Equal(t, StoreDynamo, cfg.StoreDriver)
	assert.Equal(t, 30, cfg.SessionExpiryDays)
	assert.Equal(t, 10*time.Minute, cfg.VerificationTTL)
	assert.Equal(t, "verifications", cfg.DynamoTables.Verifications)
	assert.False(t, cfg.TrustProxy)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_BASE_URL", "https://auth.example.com/")
	t.Setenv("STORE_DRIVER", StorePostgres)
	t.Setenv("SESSION_EXPIRY_DAYS", "7")
	t.Setenv("VERIFICATION_TTL", "5m")
	t.Setenv("COOKIE_SECURE", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()

	assert.Equal(t, "https://auth.example.com", cfg.AppBaseURL)
	assert.Equal(t, StorePostgres, cfg.StoreDriver)
	assert.Equal(t, 7, cfg.SessionExpiryDays)
	assert.Equal(t, 5*time.Minute, cfg.VerificationTTL)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.TrustProxy)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("SESSION_EXPIRY_DAYS", "thirty")
	t.Setenv("VERIFICATION_TTL", "ten minutes")

	cfg := Load()

	assert.Equal(t, 30, cfg.SessionExpiryDays)
	assert.Equal(t, 10*time.Minute, cfg.VerificationTTL)
}
