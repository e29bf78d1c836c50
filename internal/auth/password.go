package auth

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plaintext password using bcrypt with DefaultCost.
func HashPassword(pw string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	return string(b), err
}

// CheckPassword compares a bcrypt hash with a candidate plaintext password.
func CheckPassword(hash, pw string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw))
}

// HashToken hashes a raw refresh token for at-rest storage. Same primitive
// as passwords: salted, so equal tokens produce different hashes. Tokens
// exceed bcrypt's 72-byte input limit, so the raw string is digested first.
func HashToken(raw string) (string, error) {
	d := sha256.Sum256([]byte(raw))
	b, err := bcrypt.GenerateFromPassword(d[:], bcrypt.DefaultCost)
	return string(b), err
}

// CheckToken compares a stored token hash with a presented raw token.
func CheckToken(hash, raw string) error {
	d := sha256.Sum256([]byte(raw))
	return bcrypt.CompareHashAndPassword([]byte(hash), d[:])
}
