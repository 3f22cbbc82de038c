package user

import (
	"time"

	"gorm.io/gorm"
)

// VerificationStatus is the tri-state read of a user's email verification.
// Accounts created before verification existed carry no value at all; the
// login path migrates them exactly once.
type VerificationStatus int

const (
	StatusUnmigrated VerificationStatus = iota
	StatusVerified
	StatusUnverified
)

type User struct {
	gorm.Model
	Name            string     `json:"name" gorm:"not null"`
	Email           string     `json:"email" gorm:"uniqueIndex;not null"`
	Password        string     `json:"-" gorm:"not null"`
	EmailVerified   *bool      `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) VerificationStatus() VerificationStatus {
	switch {
	case u.EmailVerified == nil:
		return StatusUnmigrated
	case *u.EmailVerified:
		return StatusVerified
	default:
		return StatusUnverified
	}
}

// PendingRegistration holds a signup until its email is proven reachable.
// Promotion to a User deletes it; so does expiry or a newer signup for the
// same email.
type PendingRegistration struct {
	gorm.Model
	Name      string    `json:"name" gorm:"not null"`
	Email     string    `json:"email" gorm:"uniqueIndex;not null"`
	Password  string    `json:"-" gorm:"not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index;not null"`
}

func (PendingRegistration) TableName() string {
	return "pending_registrations"
}
