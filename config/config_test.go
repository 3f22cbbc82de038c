package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg := &Config{}
	err := LoadConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Taskly", cfg.App.Name)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.True(t, cfg.Database.AutoMigrate)
	assert.Equal(t, 587, cfg.Mail.Port)
	assert.Equal(t, 10*time.Minute, cfg.OTP.Expiry)
	assert.Equal(t, 5, cfg.OTP.MaxAttempts)
	assert.Equal(t, time.Hour, cfg.OTP.PendingExpiry)
	assert.Equal(t, 24*time.Hour, cfg.JWT.AccessExpiry)
	assert.Equal(t, "taskly", cfg.JWT.Issuer)
	assert.True(t, cfg.Cleanup.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Cleanup.Interval)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("TASKLY_APP_NAME", "Taskly Test")
	t.Setenv("TASKLY_OTP_EXPIRY", "5m")
	t.Setenv("TASKLY_OTP_MAX_ATTEMPTS", "3")
	t.Setenv("TASKLY_DATABASE_DRIVER", "postgres")
	t.Setenv("TASKLY_CLEANUP_ENABLED", "false")

	cfg := &Config{}
	err := LoadConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, "Taskly Test", cfg.App.Name)
	assert.Equal(t, 5*time.Minute, cfg.OTP.Expiry)
	assert.Equal(t, 3, cfg.OTP.MaxAttempts)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.False(t, cfg.Cleanup.Enabled)
}
