package security

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"bearer-auth/internal/domain"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// HashPassword returns a salted bcrypt hash of plaintext.
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", domain.NewError(domain.KindInvalidInput, "password is required", nil)
	}
	if len(plaintext) > maxPasswordBytes {
		return "", domain.NewError(domain.KindInvalidInput, fmt.Sprintf("password must be at most %d bytes", maxPasswordBytes), nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", domain.NewError(domain.KindInvalidInput, "password is too long", err)
		}
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether plaintext matches storedHash.
// A malformed hash is a mismatch, not an error. bcrypt only compares the
// first 72 bytes, so longer input never matches.
func CheckPassword(plaintext, storedHash string) bool {
	if storedHash == "" || len(plaintext) > maxPasswordBytes {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}
