package otp

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const codeDigits = 6

var codeSpace = big.NewInt(1000000)

// GenerateCode draws a zero-padded 6-digit code from crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate verification code: %w", err)
	}
	return fmt.Sprintf("%0*d", codeDigits, n), nil
}
