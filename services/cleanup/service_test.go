package cleanup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskly-app/identity/services/otp"
	"github.com/taskly-app/identity/services/user"
	"github.com/taskly-app/identity/testutils"
	"gorm.io/gorm"
)

func setupService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()

	db := testutils.SetupTestDB(t, &otp.Code{}, &user.User{}, &user.PendingRegistration{})
	cfg := testutils.GetTestConfig()
	cfg.Cleanup.Interval = 10 * time.Millisecond

	otps := otp.NewService(cfg, db, &testutils.RecordingNotifier{}, nil)
	users := user.NewService(cfg, db, otps, &testutils.MockTokenIssuer{}, nil)

	return NewService(cfg, otps, users, nil), db
}

func seedExpired(t *testing.T, db *gorm.DB) {
	t.Helper()

	require.NoError(t, db.Create(&otp.Code{
		Email: "old@x.com", Code: "123456",
		Purpose:   otp.PurposeEmailVerification,
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)
	require.NoError(t, db.Create(&user.PendingRegistration{
		Name: "Old", Email: "old@x.com", Password: "hash",
		ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)
}

func TestService_RunOnce(t *testing.T) {
	service, db := setupService(t)
	seedExpired(t, db)

	require.NoError(t, db.Create(&otp.Code{
		Email: "new@x.com", Code: "654321",
		Purpose:   otp.PurposeEmailVerification,
		ExpiresAt: time.Now().Add(time.Hour),
	}).Error)

	removed, err := service.RunOnce()

	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	var otpCount, pendingCount int64
	db.Model(&otp.Code{}).Count(&otpCount)
	db.Model(&user.PendingRegistration{}).Count(&pendingCount)
	assert.Equal(t, int64(1), otpCount)
	assert.Equal(t, int64(0), pendingCount)
}

func TestService_StartSweepsImmediately(t *testing.T) {
	service, db := setupService(t)
	seedExpired(t, db)

	service.Start()
	defer service.Stop()

	assert.Eventually(t, func() bool {
		var count int64
		db.Model(&user.PendingRegistration{}).Count(&count)
		return count == 0
	}, time.Second, 5*time.Millisecond)
}

func TestService_StartDisabled(t *testing.T) {
	service, _ := setupService(t)
	service.config.Cleanup.Enabled = false

	service.Start()

	// Stop on a never-started service must not panic or block.
	assert.NotPanics(t, func() { service.Stop() })
}
