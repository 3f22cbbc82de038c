package user

// RegisterOutcome reports a registration parked as pending until the email
// is verified.
type RegisterOutcome struct {
	Email string `json:"email"`
}

type LoginStatus string

const (
	LoginSucceeded              LoginStatus = "logged_in"
	LoginNeedsEmailVerification LoginStatus = "needs_email_verification"
)

type LoginOutcome struct {
	Status LoginStatus `json:"status"`
	Email  string      `json:"email"`
	User   *User       `json:"user,omitempty"`
	Token  string      `json:"token,omitempty"`
}

type VerificationResult string

const (
	// NewAccountActivated means a pending registration was promoted into a
	// real account and a session token was issued.
	NewAccountActivated VerificationResult = "new_account_activated"
	// ExistingAccountVerified means a previously unverified account was
	// marked verified; the caller logs in explicitly afterwards.
	ExistingAccountVerified VerificationResult = "existing_account_verified"
)

type VerificationOutcome struct {
	Result VerificationResult `json:"result"`
	User   *User              `json:"user,omitempty"`
	Token  string             `json:"token,omitempty"`
}
