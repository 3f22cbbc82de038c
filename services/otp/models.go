package otp

import (
	"time"

	"gorm.io/gorm"
)

// Purpose scopes a code to the flow that may consume it.
type Purpose string

const (
	PurposeEmailVerification Purpose = "email_verification"
	PurposeLoginVerification Purpose = "login_verification"
	PurposePasswordReset     Purpose = "password_reset"
)

func (p Purpose) Valid() bool {
	switch p {
	case PurposeEmailVerification, PurposeLoginVerification, PurposePasswordReset:
		return true
	}
	return false
}

type Code struct {
	gorm.Model
	Email     string     `json:"email" gorm:"index:idx_otp_email_purpose;not null"`
	Code      string     `json:"-" gorm:"not null"`
	Purpose   Purpose    `json:"purpose" gorm:"index:idx_otp_email_purpose;not null"`
	Attempts  int        `json:"attempts" gorm:"default:0"`
	Used      bool       `json:"used" gorm:"default:false"`
	UsedAt    *time.Time `json:"used_at,omitempty"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
}

func (Code) TableName() string {
	return "otp_codes"
}
