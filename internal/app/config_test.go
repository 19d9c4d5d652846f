package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("HEARTH_AUTH_JWT_SECRET", "test-secret")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	require.Equal(t, "http://localhost:3000", cfg.Server.BaseURL)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 6, cfg.Invites.CodeLength)
	require.Equal(t, 10, cfg.Invites.MaxAttempts)
	require.Equal(t, 14*24*time.Hour, cfg.Invites.TTL)
	require.Equal(t, 5, cfg.Auth.LockoutThreshold)
	require.Equal(t, "@hourly", cfg.Maintenance.Schedule)
	require.False(t, cfg.SMTP.Enabled)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	t.Setenv("HEARTH_AUTH_JWT_SECRET", "test-secret")
	t.Setenv("HEARTH_SERVER_PORT", "9090")
	t.Setenv("HEARTH_INVITES_TTL", "168h")
	t.Setenv("HEARTH_DATABASE_DRIVER", "postgres")

	cfg, err := LoadConfig("")
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, 7*24*time.Hour, cfg.Invites.TTL)
	require.Equal(t, "postgres", cfg.Database.ToDatabase().Driver)
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("HEARTH_AUTH_JWT_SECRET", "")

	_, err := LoadConfig("")
	require.Error(t, err)
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv("HEARTH_AUTH_JWT_SECRET", "test-secret")

	_, err := LoadConfig("/does/not/exist.yaml")
	require.Error(t, err)
}
