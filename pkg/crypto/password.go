package crypto

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// ErrPasswordMismatch is returned when a plaintext does not match its hash.
var ErrPasswordMismatch = errors.New("password mismatch")

// placeholderHash is compared against when no stored hash exists so that
// unknown accounts cost the same as wrong passwords.
var placeholderHash, _ = bcrypt.GenerateFromPassword([]byte("placeholder-password"), bcrypt.DefaultCost)

// HashPassword hashes plaintext using bcrypt.
func HashPassword(plain string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
}

// ComparePassword compares plaintext to hashed secret.
func ComparePassword(hash []byte, plain string) error {
	if err := bcrypt.CompareHashAndPassword(hash, []byte(plain)); err != nil {
		return ErrPasswordMismatch
	}
	return nil
}

// ComparePlaceholder burns one bcrypt comparison and always reports a mismatch.
func ComparePlaceholder(plain string) error {
	_ = bcrypt.CompareHashAndPassword(placeholderHash, []byte(plain))
	return ErrPasswordMismatch
}
