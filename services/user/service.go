package user

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/taskly-app/identity/config"
	"github.com/taskly-app/identity/services/logging"
	"github.com/taskly-app/identity/services/otp"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrAlreadyRegistered     = errors.New("user already exists")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailNotVerified      = errors.New("email address is not verified")
	ErrPasswordHashingFailed = errors.New("failed to hash password")
)

// TokenIssuer mints a session token for an account id.
type TokenIssuer interface {
	GenerateToken(userID uint) (string, error)
}

// ConfirmationSender notifies a user after a sensitive change. Optional;
// failures are logged, never propagated.
type ConfirmationSender interface {
	SendPasswordChanged(email string) error
}

type Service struct {
	config *config.Config
	db     *gorm.DB
	otps   *otp.Service
	tokens TokenIssuer
	mailer ConfirmationSender
	logger *logging.Service
}

func NewService(cfg *config.Config, db *gorm.DB, otps *otp.Service, tokens TokenIssuer, logger *logging.Service) *Service {
	if cfg.Auth.BcryptCost < bcrypt.MinCost || cfg.Auth.BcryptCost > bcrypt.MaxCost {
		cfg.Auth.BcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		config: cfg,
		db:     db,
		otps:   otps,
		tokens: tokens,
		logger: logger,
	}
}

func (s *Service) SetMailService(mailer ConfirmationSender) {
	s.mailer = mailer
}

func (s *Service) ValidatePassword(password string) error {
	if len(password) < s.config.Auth.MinLength {
		return fmt.Errorf("password must be at least %d characters", s.config.Auth.MinLength)
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	var missing []string

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if s.config.Auth.RequireUpper && !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if s.config.Auth.RequireLower && !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if s.config.Auth.RequireNumber && !hasNumber {
		missing = append(missing, "one number")
	}
	if s.config.Auth.RequireSpecial && !hasSpecial {
		missing = append(missing, "one special character")
	}

	if len(missing) > 0 {
		return fmt.Errorf("password must contain at least %s", strings.Join(missing, ", "))
	}

	return nil
}

func (s *Service) HashPassword(password string) (string, error) {
	if err := s.ValidatePassword(password); err != nil {
		return "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.config.Auth.BcryptCost)
	if err != nil {
		s.logger.Error("password hashing failed", zap.Error(err))
		return "", ErrPasswordHashingFailed
	}

	return string(hash), nil
}

func (s *Service) VerifyPassword(hashedPassword, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Register parks a signup as a pending registration and emails a
// verification code. No account exists until the code is confirmed. A repeat
// signup for the same email before verification overwrites the pending row.
func (s *Service) Register(name, email, password string) (*RegisterOutcome, error) {
	normalized := otp.NormalizeEmail(email)

	s.logger.Info("registration requested", zap.String("email", normalized))

	var count int64
	if err := s.db.Model(&User{}).Where("email = ?", normalized).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		s.logger.Warn("registration rejected: email already registered", zap.String("email", normalized))
		return nil, ErrAlreadyRegistered
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if err := s.db.Unscoped().Where("email = ?", normalized).Delete(&PendingRegistration{}).Error; err != nil {
		return nil, fmt.Errorf("failed to clear previous pending registration: %w", err)
	}

	pending := &PendingRegistration{
		Name:      strings.TrimSpace(name),
		Email:     normalized,
		Password:  hash,
		ExpiresAt: time.Now().Add(s.config.OTP.PendingExpiry),
	}
	if err := s.db.Create(pending).Error; err != nil {
		return nil, fmt.Errorf("failed to create pending registration: %w", err)
	}

	if _, err := s.otps.Issue(normalized, otp.PurposeEmailVerification); err != nil {
		s.logger.Error("verification email failed, discarding pending registration",
			zap.Error(err), zap.String("email", normalized))

		if delErr := s.db.Unscoped().Where("id = ?", pending.ID).Delete(&PendingRegistration{}).Error; delErr != nil {
			s.logger.Error("failed to discard pending registration", zap.Error(delErr), zap.Uint("pending_id", pending.ID))
		}
		return nil, err
	}

	s.logger.Info("registration pending verification", zap.String("email", normalized))
	return &RegisterOutcome{Email: normalized}, nil
}

// CompleteEmailVerification consumes an email_verification code. A pending
// registration is promoted into an account and logged in; an existing
// unverified account is just marked verified, no token.
func (s *Service) CompleteEmailVerification(email, code string) (*VerificationOutcome, error) {
	normalized := otp.NormalizeEmail(email)

	if err := s.otps.Verify(normalized, code, otp.PurposeEmailVerification); err != nil {
		return nil, err
	}

	var pending PendingRegistration
	err := s.db.Where("email = ? AND expires_at > ?", normalized, time.Now()).First(&pending).Error
	switch {
	case err == nil:
		return s.activatePending(&pending)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return s.verifyExistingUser(normalized)
	default:
		return nil, fmt.Errorf("failed to look up pending registration: %w", err)
	}
}

func (s *Service) activatePending(pending *PendingRegistration) (*VerificationOutcome, error) {
	now := time.Now()
	verified := true
	account := &User{
		Name:            pending.Name,
		Email:           pending.Email,
		Password:        pending.Password,
		EmailVerified:   &verified,
		EmailVerifiedAt: &now,
	}

	if err := s.db.Create(account).Error; err != nil {
		return nil, fmt.Errorf("failed to create user account: %w", err)
	}

	if err := s.db.Unscoped().Where("id = ?", pending.ID).Delete(&PendingRegistration{}).Error; err != nil {
		s.logger.Error("failed to remove promoted pending registration",
			zap.Error(err), zap.Uint("pending_id", pending.ID))
	}

	token, err := s.tokens.GenerateToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.logger.Info("account activated", zap.String("email", account.Email), zap.Uint("user_id", account.ID))

	return &VerificationOutcome{
		Result: NewAccountActivated,
		User:   account,
		Token:  token,
	}, nil
}

func (s *Service) verifyExistingUser(email string) (*VerificationOutcome, error) {
	var account User
	if err := s.db.Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.markVerified(&account); err != nil {
		return nil, err
	}

	s.logger.Info("existing account verified", zap.String("email", email), zap.Uint("user_id", account.ID))

	return &VerificationOutcome{
		Result: ExistingAccountVerified,
		User:   &account,
	}, nil
}

func (s *Service) markVerified(account *User) error {
	now := time.Now()
	verified := true
	if err := s.db.Model(account).Updates(map[string]any{
		"email_verified":    true,
		"email_verified_at": now,
	}).Error; err != nil {
		return fmt.Errorf("failed to mark email as verified: %w", err)
	}
	account.EmailVerified = &verified
	account.EmailVerifiedAt = &now
	return nil
}

// Login checks credentials and the verification gate. Accounts that predate
// email verification are backfilled as verified on their first login.
func (s *Service) Login(email, password string) (*LoginOutcome, error) {
	normalized := otp.NormalizeEmail(email)

	var account User
	if err := s.db.Where("email = ?", normalized).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("login failed: unknown email", zap.String("email", normalized))
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := s.VerifyPassword(account.Password, password); err != nil {
		s.logger.Warn("login failed: wrong password", zap.String("email", normalized))
		return nil, err
	}

	if account.VerificationStatus() == StatusUnmigrated {
		if err := s.markVerified(&account); err != nil {
			return nil, err
		}
		s.logger.Info("legacy account migrated to verified", zap.Uint("user_id", account.ID))
	}

	if account.VerificationStatus() == StatusUnverified {
		s.logger.Info("login deferred: email not verified", zap.String("email", normalized))
		return &LoginOutcome{
			Status: LoginNeedsEmailVerification,
			Email:  normalized,
		}, nil
	}

	token, err := s.tokens.GenerateToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	s.logger.Info("login succeeded", zap.Uint("user_id", account.ID))

	return &LoginOutcome{
		Status: LoginSucceeded,
		Email:  normalized,
		User:   &account,
		Token:  token,
	}, nil
}

// VerifyLoginOTP consumes a login_verification code and logs the account in.
func (s *Service) VerifyLoginOTP(email, code string) (*LoginOutcome, error) {
	normalized := otp.NormalizeEmail(email)

	if err := s.otps.Verify(normalized, code, otp.PurposeLoginVerification); err != nil {
		return nil, err
	}

	var account User
	if err := s.db.Where("email = ?", normalized).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	token, err := s.tokens.GenerateToken(account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	return &LoginOutcome{
		Status: LoginSucceeded,
		Email:  normalized,
		User:   &account,
		Token:  token,
	}, nil
}

// SendEmailVerification issues a verification code for a pending
// registration or an unverified account.
func (s *Service) SendEmailVerification(email string) error {
	normalized := otp.NormalizeEmail(email)

	var pendingCount int64
	if err := s.db.Model(&PendingRegistration{}).
		Where("email = ? AND expires_at > ?", normalized, time.Now()).
		Count(&pendingCount).Error; err != nil {
		return fmt.Errorf("failed to check pending registration: %w", err)
	}

	if pendingCount == 0 {
		var account User
		if err := s.db.Where("email = ?", normalized).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to look up user: %w", err)
		}
	}

	_, err := s.otps.Issue(normalized, otp.PurposeEmailVerification)
	return err
}

// ResendOTP reissues a code for any purpose. Abuse control is the calling
// gateway's concern.
func (s *Service) ResendOTP(email string, purpose otp.Purpose) error {
	_, err := s.otps.Issue(otp.NormalizeEmail(email), purpose)
	return err
}

// ForgotPassword starts an OTP-gated reset. Unverified accounts must verify
// their email first; no code is issued for them.
func (s *Service) ForgotPassword(email string) error {
	normalized := otp.NormalizeEmail(email)

	var account User
	if err := s.db.Where("email = ?", normalized).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn("password reset requested for unknown email", zap.String("email", normalized))
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	if account.VerificationStatus() == StatusUnverified {
		s.logger.Warn("password reset rejected: email not verified", zap.String("email", normalized))
		return ErrEmailNotVerified
	}

	_, err := s.otps.Issue(normalized, otp.PurposePasswordReset)
	return err
}

// ResetPassword consumes a password_reset code and replaces the password.
// The code is the proof of control; the old password is not required.
func (s *Service) ResetPassword(email, code, newPassword string) error {
	normalized := otp.NormalizeEmail(email)

	if err := s.otps.Verify(normalized, code, otp.PurposePasswordReset); err != nil {
		return err
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}

	result := s.db.Model(&User{}).Where("email = ?", normalized).Update("password", hash)
	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}

	s.logger.Info("password reset completed", zap.String("email", normalized))

	if s.mailer != nil {
		if err := s.mailer.SendPasswordChanged(normalized); err != nil {
			s.logger.Warn("failed to send password change confirmation", zap.Error(err))
		}
	}

	return nil
}

// CleanupExpiredPending purges pending registrations past their expiry.
func (s *Service) CleanupExpiredPending() (int64, error) {
	result := s.db.Unscoped().Where("expires_at < ?", time.Now()).Delete(&PendingRegistration{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to cleanup expired pending registrations: %w", result.Error)
	}

	if result.RowsAffected > 0 {
		s.logger.Info("expired pending registrations cleaned up", zap.Int64("removed", result.RowsAffected))
	}
	return result.RowsAffected, nil
}
