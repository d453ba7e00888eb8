package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("POLICY_CLIENT_COMMENTS", "")
	t.Setenv("DASHBOARD_DEFAULT_WINDOW_DAYS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "helpdesk", cfg.App.Name)
	assert.Equal(t, 7, cfg.Dashboard.DefaultWindowDays)
	assert.False(t, cfg.Policy.AllowClientComments)
	assert.Empty(t, cfg.Postgres.DSN)
	assert.Equal(t, "migrations", cfg.Postgres.MigrationsDir)
	assert.Equal(t, time.Hour, cfg.Auth.AccessTokenTTL())
	assert.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("POLICY_CLIENT_COMMENTS", "true")
	t.Setenv("DASHBOARD_DEFAULT_WINDOW_DAYS", "30")
	t.Setenv("RATE_LIMIT_RPS", "2.5")
	t.Setenv("AUTH_ACCESS_TOKEN_TTL_MINUTES", "15")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.True(t, cfg.Policy.AllowClientComments)
	assert.Equal(t, 30, cfg.Dashboard.DefaultWindowDays)
	assert.InDelta(t, 2.5, cfg.RateLimit.RPS, 1e-9)
	assert.Equal(t, 15*time.Minute, cfg.Auth.AccessTokenTTL())
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("REDIS_DB", "x")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("REDIS_DB", "0")
	t.Setenv("DASHBOARD_DEFAULT_WINDOW_DAYS", "0")
	_, err = Load()
	assert.Error(t, err)
}

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("HELPDESK_TEST_INT", "nope")
	t.Setenv("HELPDESK_TEST_BOOL", "maybe")
	assert.Equal(t, 3, getEnvAsInt("HELPDESK_TEST_INT", 3))
	assert.True(t, getEnvAsBool("HELPDESK_TEST_BOOL", true))
}
