package testutils

import (
	"github.com/stretchr/testify/mock"
	"github.com/taskly-app/identity/services/otp"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendOTP(email string, purpose otp.Purpose, code string) error {
	args := m.Called(email, purpose, code)
	return args.Error(0)
}

// RecordingNotifier captures delivered codes so end-to-end tests can replay
// them against verification.
type RecordingNotifier struct {
	Codes []DeliveredCode
	Err   error
}

type DeliveredCode struct {
	Email   string
	Purpose otp.Purpose
	Code    string
}

func (n *RecordingNotifier) SendOTP(email string, purpose otp.Purpose, code string) error {
	if n.Err != nil {
		return n.Err
	}
	n.Codes = append(n.Codes, DeliveredCode{Email: email, Purpose: purpose, Code: code})
	return nil
}

func (n *RecordingNotifier) LastCode() string {
	if len(n.Codes) == 0 {
		return ""
	}
	return n.Codes[len(n.Codes)-1].Code
}

type MockTokenIssuer struct {
	mock.Mock
}

func (m *MockTokenIssuer) GenerateToken(userID uint) (string, error) {
	args := m.Called(userID)
	return args.String(0), args.Error(1)
}
