package otp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/services/logging"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidPurpose   = errors.New("invalid OTP purpose")
	ErrInvalidOrExpired = errors.New("invalid or expired OTP")
	ErrAttemptsExceeded = errors.New("maximum attempts exceeded, please request a new OTP")
	ErrDeliveryFailed   = errors.New("failed to send verification email")
	ErrNotifierUnset    = errors.New("notifier is not configured")
	ErrDatabaseRequired = errors.New("database is required for OTP functionality")
)

// InvalidCodeError reports a wrong code together with how many attempts
// remain before the record locks.
type InvalidCodeError struct {
	Remaining int
}

func (e *InvalidCodeError) Error() string {
	return fmt.Sprintf("invalid OTP, %d attempts remaining", e.Remaining)
}

// Notifier delivers a code to its recipient. A send error must be reported
// distinctly so the issuer can compensate.
type Notifier interface {
	SendOTP(email string, purpose Purpose, code string) error
}

type Service struct {
	config   *config.Config
	db       *gorm.DB
	notifier Notifier
	logger   *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, notifier Notifier, logger *logging.Service) *Service {
	if cfg.OTP.MaxAttempts <= 0 {
		cfg.OTP.MaxAttempts = 5
	}
	if cfg.OTP.Expiry <= 0 {
		cfg.OTP.Expiry = 10 * time.Minute
	}
	return &Service{
		config:   cfg,
		db:       db,
		notifier: notifier,
		logger:   logger,
	}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Issue replaces any existing codes for (email, purpose) with a fresh one and
// dispatches it. Deleting prior rows both caps active codes at one and clears
// an attempt-locked record. If delivery fails the new row is deleted again so
// no undeliverable code stays active.
func (s *Service) Issue(email string, purpose Purpose) (*Code, error) {
	if !purpose.Valid() {
		return nil, ErrInvalidPurpose
	}
	if s.db == nil {
		return nil, ErrDatabaseRequired
	}
	if s.notifier == nil {
		return nil, ErrNotifierUnset
	}

	normalized := NormalizeEmail(email)

	s.logger.Info("issuing OTP",
		zap.String("email", normalized),
		zap.String("purpose", string(purpose)))

	if err := s.db.Where("email = ? AND purpose = ?", normalized, purpose).
		Unscoped().Delete(&Code{}).Error; err != nil {
		return nil, fmt.Errorf("failed to invalidate previous OTPs: %w", err)
	}

	code, err := GenerateCode()
	if err != nil {
		s.logger.Error("OTP generation failed", zap.Error(err))
		return nil, err
	}

	record := &Code{
		Email:     normalized,
		Code:      code,
		Purpose:   purpose,
		Attempts:  0,
		Used:      false,
		ExpiresAt: time.Now().Add(s.config.OTP.Expiry),
	}

	if err := s.db.Create(record).Error; err != nil {
		return nil, fmt.Errorf("failed to create OTP record: %w", err)
	}

	if err := s.notifier.SendOTP(normalized, purpose, code); err != nil {
		s.logger.Error("OTP delivery failed, discarding record",
			zap.Error(err),
			zap.String("email", normalized),
			zap.String("purpose", string(purpose)))

		if delErr := s.compensate(record); delErr != nil {
			s.logger.Error("failed to discard undelivered OTP", zap.Error(delErr), zap.Uint("otp_id", record.ID))
		}
		return nil, fmt.Errorf("%w: %v", ErrDeliveryFailed, err)
	}

	s.logger.Info("OTP issued",
		zap.String("email", normalized),
		zap.String("purpose", string(purpose)),
		zap.Time("expires_at", record.ExpiresAt))

	return record, nil
}

// compensate removes a record created by Issue whose code was never
// delivered. Safe to run more than once.
func (s *Service) compensate(record *Code) error {
	return s.db.Unscoped().Where("id = ?", record.ID).Delete(&Code{}).Error
}

// Verify checks a submitted code against the active record for the key.
// The attempt is charged before the comparison so a wrong guess always
// counts. When concurrent Issue calls leave more than one active record,
// the most recently created wins; the others stay inert.
func (s *Service) Verify(email, code string, purpose Purpose) error {
	if !purpose.Valid() {
		return ErrInvalidPurpose
	}
	if s.db == nil {
		return ErrDatabaseRequired
	}

	normalized := NormalizeEmail(email)

	var record Code
	err := s.db.Where("email = ? AND purpose = ? AND used = ? AND expires_at > ?",
		normalized, purpose, false, time.Now()).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("OTP verification failed: no active code",
				zap.String("email", normalized),
				zap.String("purpose", string(purpose)))
			return ErrInvalidOrExpired
		}
		return fmt.Errorf("failed to look up OTP record: %w", err)
	}

	if record.Attempts >= s.config.OTP.MaxAttempts {
		s.logger.Warn("OTP verification rejected: attempts exhausted",
			zap.String("email", normalized),
			zap.String("purpose", string(purpose)))
		return ErrAttemptsExceeded
	}

	record.Attempts++
	if err := s.db.Model(&record).Update("attempts", record.Attempts).Error; err != nil {
		return fmt.Errorf("failed to record OTP attempt: %w", err)
	}

	if record.Code != code {
		remaining := s.config.OTP.MaxAttempts - record.Attempts
		s.logger.Warn("OTP verification failed: wrong code",
			zap.String("email", normalized),
			zap.String("purpose", string(purpose)),
			zap.Int("attempts_remaining", remaining))
		return &InvalidCodeError{Remaining: remaining}
	}

	now := time.Now()
	record.Used = true
	record.UsedAt = &now
	if err := s.db.Model(&record).Updates(map[string]any{"used": true, "used_at": now}).Error; err != nil {
		return fmt.Errorf("failed to mark OTP as used: %w", err)
	}

	s.logger.Info("OTP verified",
		zap.String("email", normalized),
		zap.String("purpose", string(purpose)))

	return nil
}

// HasPending reports whether an active code exists for the key.
func (s *Service) HasPending(email string, purpose Purpose) (bool, error) {
	if s.db == nil {
		return false, ErrDatabaseRequired
	}

	var count int64
	err := s.db.Model(&Code{}).
		Where("email = ? AND purpose = ? AND used = ? AND expires_at > ?",
			NormalizeEmail(email), purpose, false, time.Now()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check pending OTP: %w", err)
	}
	return count > 0, nil
}

// RemainingTime returns how long the active code for the key stays valid,
// or zero when there is none.
func (s *Service) RemainingTime(email string, purpose Purpose) (time.Duration, error) {
	if s.db == nil {
		return 0, ErrDatabaseRequired
	}

	var record Code
	err := s.db.Where("email = ? AND purpose = ? AND used = ? AND expires_at > ?",
		NormalizeEmail(email), purpose, false, time.Now()).
		Order("created_at DESC, id DESC").
		First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to look up OTP record: %w", err)
	}

	remaining := time.Until(record.ExpiresAt)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CleanupExpired purges rows past their expiry. Verification never depends on
// this running; it is housekeeping for the store.
func (s *Service) CleanupExpired() (int64, error) {
	if s.db == nil {
		return 0, ErrDatabaseRequired
	}

	result := s.db.Unscoped().Where("expires_at < ?", time.Now()).Delete(&Code{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired OTPs: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("expired OTPs cleaned up", zap.Int64("removed", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

// MaxAttempts exposes the configured attempt budget.
func (s *Service) MaxAttempts() int {
	return s.config.OTP.MaxAttempts
}
