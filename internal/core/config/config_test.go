package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requiredEnv is the minimal set of variables a live-mode config needs.
var requiredEnv = map[string]string{
	"WEBHOOK_SHARED_SECRET":   "whsec_test",
	"SHOPIFY_SHOP_DOMAIN":     "example.myshopify.com",
	"SHOPIFY_ACCESS_TOKEN":    "shpat_test",
	"PAYMENTS_BASE_URL":       "https://payments.test",
	"PAYMENTS_MERCHANT_ID":    "m_123",
	"PAYMENTS_SIGNING_SECRET": "sk_test",
	"PAYMENTS_CURRENCY_TOKEN": "USD",
	"SMTP_HOST":               "smtp.test",
	"MAIL_FROM_ADDRESS":       "noreply@example.com",
}

func setRequiredEnv(t *testing.T) {
	t.Helper()
	for k, v := range requiredEnv {
		t.Setenv(k, v)
	}
}

// TestLoad_Defaults verifies that default values are used when env vars are missing.
func TestLoad_Defaults(t *testing.T) {
	os.Unsetenv("APP_ENV")
	os.Unsetenv("LOG_LEVEL")
	os.Unsetenv("SERVER_PORT")
	setRequiredEnv(t)

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "2024-10", cfg.Shopify.APIVersion)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 120, cfg.Claims.TTLSeconds)
	assert.False(t, cfg.Payments.SandboxMode)
}

// TestLoad_EnvVars verifies that environment variables override defaults.
func TestLoad_EnvVars(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SHOPIFY_API_VERSION", "2025-01")
	t.Setenv("CLAIMS_REDIS_URL", "redis://localhost:6379")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "production", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, "example.myshopify.com", cfg.Shopify.ShopDomain)
	assert.Equal(t, "2025-01", cfg.Shopify.APIVersion)
	assert.Equal(t, "redis://localhost:6379", cfg.Claims.RedisURL)
}

// TestLoad_File verifies that values are loaded from a .env file.
func TestLoad_File(t *testing.T) {
	setRequiredEnv(t)

	content := []byte(`
APP_ENV=staging
LOG_LEVEL=warn
SERVER_PORT=7070
`)
	err := os.WriteFile(".env", content, 0644)
	require.NoError(t, err)
	defer os.Remove(".env")

	cfg, err := Load(".")
	require.NoError(t, err)

	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 7070, cfg.ServerPort)
}

// TestLoad_ValidationFailure verifies that missing required fields return an error.
func TestLoad_ValidationFailure(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("WEBHOOK_SHARED_SECRET", "")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "missing required configuration")
}

// TestLoad_SandboxRejectsLiveCredentials verifies that sandbox mode refuses
// to start alongside live payment credentials.
func TestLoad_SandboxRejectsLiveCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYMENTS_SANDBOX_MODE", "true")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "sandbox mode cannot be combined with live payment credentials")
}

// TestLoad_SandboxWithoutCredentials verifies sandbox mode needs no live credentials.
func TestLoad_SandboxWithoutCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYMENTS_SANDBOX_MODE", "true")
	t.Setenv("PAYMENTS_BASE_URL", "")
	t.Setenv("PAYMENTS_MERCHANT_ID", "")
	t.Setenv("PAYMENTS_SIGNING_SECRET", "")

	cfg, err := Load(".")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.True(t, cfg.Payments.SandboxMode)
}

// TestLoad_LiveRequiresCredentials verifies live mode demands the full credential set.
func TestLoad_LiveRequiresCredentials(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("PAYMENTS_SIGNING_SECRET", "")

	cfg, err := Load(".")
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "PAYMENTS_SIGNING_SECRET")
}
