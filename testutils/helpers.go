package testutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskly-app/identity/config"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func SetupTestDB(t *testing.T, models ...interface{}) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	if len(models) > 0 {
		err = db.AutoMigrate(models...)
		require.NoError(t, err)
	}

	return db
}

func GetTestConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{
			Name: "Taskly Test",
			URL:  "http://localhost:8080",
		},
		Auth: config.AuthConfig{
			BcryptCost:    bcrypt.MinCost,
			MinLength:     4,
			RequireUpper:  false,
			RequireLower:  false,
			RequireNumber: false,
		},
		OTP: config.OTPConfig{
			Expiry:        10 * time.Minute,
			MaxAttempts:   5,
			PendingExpiry: time.Hour,
		},
		JWT: config.JWTConfig{
			SecretKey:    "test-secret-key-that-is-long-enough",
			Issuer:       "taskly-test",
			AccessExpiry: time.Hour,
		},
		Cleanup: config.CleanupConfig{
			Enabled:  true,
			Interval: time.Hour,
		},
	}
}
