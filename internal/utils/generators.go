package utils

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// VerificationTokenBytes is the entropy behind each ticket's QR token.
const VerificationTokenBytes = 32

// GenerateVerificationToken returns 256 random bits, base64url encoded without padding.
func GenerateVerificationToken() (string, error) {
	buf := make([]byte, VerificationTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate verification token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// GenerateInPersonSessionID stands in for a checkout session id on door sales.
func GenerateInPersonSessionID() string {
	return "in-person-" + uuid.NewString()
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
