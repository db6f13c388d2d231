package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "task-service", cfg.App.Name)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	assert.Equal(t, 10*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 10*time.Minute, cfg.Auth.SweepInterval())
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.True(t, cfg.Postgres.RunMigrations)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("AUTH_TOKEN_TTL_HOURS", "2")
	t.Setenv("AUTH_SWEEP_INTERVAL_MINUTES", "5")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.App.Addr())
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL())
	assert.Equal(t, 5*time.Minute, cfg.Auth.SweepInterval())
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestLoadInvalidIntFallsBack(t *testing.T) {
	t.Setenv("AUTH_TOKEN_TTL_HOURS", "ten")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Hour, cfg.Auth.TokenTTL())
}

func TestAuthConfigGuardsNonPositiveValues(t *testing.T) {
	cfg := AuthConfig{TokenTTLHours: 0, SweepIntervalMinutes: -1}
	assert.Equal(t, 10*time.Hour, cfg.TokenTTL())
	assert.Equal(t, 10*time.Minute, cfg.SweepInterval())
}
