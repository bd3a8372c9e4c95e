package service

import (
	"errors"
	"fmt"

	"github.com/elevare/elevare-backend-go/internal/domain"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 10

// dummyHash is compared against when the email is unknown so a failed
// lookup costs the same as a wrong password.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("elevare-placeholder-password"), bcryptCost)

// HashPassword returns the bcrypt hash of plain. bcrypt reads at most 72
// bytes, so longer input is a validation error.
func HashPassword(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", domain.NewValidation(`"password" must be at most 72 bytes`)
	}
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// CheckPassword reports whether plain matches hash. An empty hash runs the
// comparison against a placeholder and always fails.
func CheckPassword(hash, plain string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plain))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
