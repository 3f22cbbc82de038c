package otp

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/taskly-app/identity/config"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendOTP(email string, purpose Purpose, code string) error {
	args := m.Called(email, purpose, code)
	return args.Error(0)
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&Code{}))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		OTP: config.OTPConfig{
			Expiry:      10 * time.Minute,
			MaxAttempts: 5,
		},
	}
}

func TestService_Issue(t *testing.T) {
	testEmail := "user@example.com"

	t.Run("creates a single fresh record and notifies", func(t *testing.T) {
		db := setupTestDB(t)
		notifier := &mockNotifier{}
		notifier.On("SendOTP", testEmail, PurposeEmailVerification, mock.AnythingOfType("string")).Return(nil)
		service := NewService(testConfig(), db, notifier, nil)

		record, err := service.Issue(testEmail, PurposeEmailVerification)

		require.NoError(t, err)
		assert.Equal(t, testEmail, record.Email)
		assert.Len(t, record.Code, 6)
		assert.Equal(t, 0, record.Attempts)
		assert.False(t, record.Used)
		assert.True(t, record.ExpiresAt.After(time.Now()))

		var count int64
		db.Model(&Code{}).Where("email = ? AND purpose = ?", testEmail, PurposeEmailVerification).Count(&count)
		assert.Equal(t, int64(1), count)
		notifier.AssertExpectations(t)
	})

	t.Run("normalizes the email", func(t *testing.T) {
		db := setupTestDB(t)
		notifier := &mockNotifier{}
		notifier.On("SendOTP", testEmail, PurposeEmailVerification, mock.AnythingOfType("string")).Return(nil)
		service := NewService(testConfig(), db, notifier, nil)

		record, err := service.Issue("  User@Example.COM ", PurposeEmailVerification)

		require.NoError(t, err)
		assert.Equal(t, testEmail, record.Email)
	})

	t.Run("replaces prior codes for the same key", func(t *testing.T) {
		db := setupTestDB(t)
		notifier := &mockNotifier{}
		notifier.On("SendOTP", testEmail, PurposeEmailVerification, mock.AnythingOfType("string")).Return(nil)
		service := NewService(testConfig(), db, notifier, nil)

		first, err := service.Issue(testEmail, PurposeEmailVerification)
		require.NoError(t, err)
		second, err := service.Issue(testEmail, PurposeEmailVerification)
		require.NoError(t, err)

		var count int64
		db.Model(&Code{}).Where("email = ? AND purpose = ?", testEmail, PurposeEmailVerification).Count(&count)
		assert.Equal(t, int64(1), count)

		var remaining Code
		require.NoError(t, db.Where("email = ?", testEmail).First(&remaining).Error)
		assert.Equal(t, second.ID, remaining.ID)
		assert.NotEqual(t, first.ID, remaining.ID)
	})

	t.Run("reissue clears an attempt-locked record", func(t *testing.T) {
		db := setupTestDB(t)
		notifier := &mockNotifier{}
		notifier.On("SendOTP", testEmail, PurposeEmailVerification, mock.AnythingOfType("string")).Return(nil)
		service := NewService(testConfig(), db, notifier, nil)

		record, err := service.Issue(testEmail, PurposeEmailVerification)
		require.NoError(t, err)
		require.NoError(t, db.Model(record).Update("attempts", 5).Error)

		err = service.Verify(testEmail, record.Code, PurposeEmailVerification)
		require.ErrorIs(t, err, ErrAttemptsExceeded)

		fresh, err := service.Issue(testEmail, PurposeEmailVerification)
		require.NoError(t, err)
		require.NoError(t, service.Verify(testEmail, fresh.Code, PurposeEmailVerification))
	})

	t.Run("codes differ across purposes", func(t *testing.T) {
		db := setupTestDB(t)
		notifier := &mockNotifier{}
		notifier.On("SendOTP", testEmail, mock.AnythingOfType("Purpose"), mock.AnythingOfType("string")).Return(nil)
		service := NewService(testConfig(), db, notifier, nil)

		_, err := service.Issue(testEmail, PurposeEmailVerification)
		require.NoError(t, err)
		_, err = service.Issue(testEmail, PurposePasswordReset)
		require.NoError(t, err)

		var count int64
		db.Model(&Code{}).Where("email = ?", testEmail).Count(&count)
		assert.Equal(t, int64(2), count)
	})

	t.Run("deletes the record when delivery fails", func(t *testing.T) {
		db := setupTestDB(t)
		notifier := &mockNotifier{}
		notifier.On("SendOTP", testEmail, PurposeEmailVerification, mock.AnythingOfType("string")).
			Return(errors.New("smtp unreachable"))
		service := NewService(testConfig(), db, notifier, nil)

		record, err := service.Issue(testEmail, PurposeEmailVerification)

		assert.Nil(t, record)
		require.ErrorIs(t, err, ErrDeliveryFailed)

		var count int64
		db.Model(&Code{}).Where("email = ?", testEmail).Count(&count)
		assert.Equal(t, int64(0), count)
	})

	t.Run("rejects an unknown purpose", func(t *testing.T) {
		service := NewService(testConfig(), setupTestDB(t), &mockNotifier{}, nil)

		_, err := service.Issue(testEmail, Purpose("carrier_pigeon"))

		require.ErrorIs(t, err, ErrInvalidPurpose)
	})
}

func TestService_Verify(t *testing.T) {
	testEmail := "user@example.com"

	issue := func(t *testing.T, db *gorm.DB, service *Service) *Code {
		t.Helper()
		notifier := service.notifier.(*mockNotifier)
		notifier.On("SendOTP", testEmail, PurposeEmailVerification, mock.AnythingOfType("string")).Return(nil)
		record, err := service.Issue(testEmail, PurposeEmailVerification)
		require.NoError(t, err)
		return record
	}

	t.Run("accepts the correct code once", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewService(testConfig(), db, &mockNotifier{}, nil)
		record := issue(t, db, service)

		require.NoError(t, service.Verify(testEmail, record.Code, PurposeEmailVerification))

		err := service.Verify(testEmail, record.Code, PurposeEmailVerification)
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("wrong code charges an attempt and reports the remainder", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewService(testConfig(), db, &mockNotifier{}, nil)
		record := issue(t, db, service)

		err := service.Verify(testEmail, "000000", PurposeEmailVerification)

		var invalidCode *InvalidCodeError
		require.ErrorAs(t, err, &invalidCode)
		assert.Equal(t, 4, invalidCode.Remaining)

		var stored Code
		require.NoError(t, db.First(&stored, record.ID).Error)
		assert.Equal(t, 1, stored.Attempts)
	})

	t.Run("locks after five wrong attempts, even for the correct code", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewService(testConfig(), db, &mockNotifier{}, nil)
		record := issue(t, db, service)

		for i := 0; i < 5; i++ {
			err := service.Verify(testEmail, "000000", PurposeEmailVerification)
			var invalidCode *InvalidCodeError
			require.ErrorAs(t, err, &invalidCode)
			assert.Equal(t, 4-i, invalidCode.Remaining)
		}

		err := service.Verify(testEmail, record.Code, PurposeEmailVerification)
		require.ErrorIs(t, err, ErrAttemptsExceeded)
	})

	t.Run("rejects an expired code regardless of correctness", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewService(testConfig(), db, &mockNotifier{}, nil)
		record := issue(t, db, service)

		require.NoError(t, db.Model(record).Update("expires_at", time.Now().Add(-time.Minute)).Error)

		err := service.Verify(testEmail, record.Code, PurposeEmailVerification)
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("fails when no code was issued", func(t *testing.T) {
		service := NewService(testConfig(), setupTestDB(t), &mockNotifier{}, nil)

		err := service.Verify(testEmail, "123456", PurposeEmailVerification)
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("purpose scopes the lookup", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewService(testConfig(), db, &mockNotifier{}, nil)
		record := issue(t, db, service)

		err := service.Verify(testEmail, record.Code, PurposePasswordReset)
		require.ErrorIs(t, err, ErrInvalidOrExpired)
	})

	t.Run("selects the newest record when duplicates race in", func(t *testing.T) {
		db := setupTestDB(t)
		service := NewService(testConfig(), db, &mockNotifier{}, nil)

		older := &Code{
			Email:     testEmail,
			Code:      "111111",
			Purpose:   PurposeEmailVerification,
			ExpiresAt: time.Now().Add(10 * time.Minute),
		}
		require.NoError(t, db.Create(older).Error)
		newer := &Code{
			Email:     testEmail,
			Code:      "222222",
			Purpose:   PurposeEmailVerification,
			ExpiresAt: time.Now().Add(10 * time.Minute),
		}
		require.NoError(t, db.Create(newer).Error)

		err := service.Verify(testEmail, "111111", PurposeEmailVerification)
		var invalidCode *InvalidCodeError
		require.ErrorAs(t, err, &invalidCode)

		require.NoError(t, service.Verify(testEmail, "222222", PurposeEmailVerification))
	})
}

func TestService_HasPending(t *testing.T) {
	testEmail := "user@example.com"
	db := setupTestDB(t)
	notifier := &mockNotifier{}
	notifier.On("SendOTP", testEmail, PurposeLoginVerification, mock.AnythingOfType("string")).Return(nil)
	service := NewService(testConfig(), db, notifier, nil)

	pending, err := service.HasPending(testEmail, PurposeLoginVerification)
	require.NoError(t, err)
	assert.False(t, pending)

	record, err := service.Issue(testEmail, PurposeLoginVerification)
	require.NoError(t, err)

	pending, err = service.HasPending(testEmail, PurposeLoginVerification)
	require.NoError(t, err)
	assert.True(t, pending)

	require.NoError(t, db.Model(record).Update("expires_at", time.Now().Add(-time.Second)).Error)

	pending, err = service.HasPending(testEmail, PurposeLoginVerification)
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestService_RemainingTime(t *testing.T) {
	testEmail := "user@example.com"
	db := setupTestDB(t)
	notifier := &mockNotifier{}
	notifier.On("SendOTP", testEmail, PurposeEmailVerification, mock.AnythingOfType("string")).Return(nil)
	service := NewService(testConfig(), db, notifier, nil)

	remaining, err := service.RemainingTime(testEmail, PurposeEmailVerification)
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), remaining)

	_, err = service.Issue(testEmail, PurposeEmailVerification)
	require.NoError(t, err)

	remaining, err = service.RemainingTime(testEmail, PurposeEmailVerification)
	require.NoError(t, err)
	assert.Greater(t, remaining, 9*time.Minute)
	assert.LessOrEqual(t, remaining, 10*time.Minute)
}

func TestService_CleanupExpired(t *testing.T) {
	db := setupTestDB(t)
	service := NewService(testConfig(), db, &mockNotifier{}, nil)

	expired := &Code{
		Email:     "old@example.com",
		Code:      "123456",
		Purpose:   PurposeEmailVerification,
		ExpiresAt: time.Now().Add(-time.Hour),
	}
	require.NoError(t, db.Create(expired).Error)
	active := &Code{
		Email:     "new@example.com",
		Code:      "654321",
		Purpose:   PurposeEmailVerification,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	require.NoError(t, db.Create(active).Error)

	removed, err := service.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	var count int64
	db.Model(&Code{}).Count(&count)
	assert.Equal(t, int64(1), count)
}
