package account

import (
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances hashing latency against brute force resistance.
const bcryptCost = 12

// HashPassword generates a password hash for storage.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errValidation("Password is required")
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(h), err
}

// ComparePasswordAndHash validates the given cleartext password against the
// stored hash. A mismatch reports Forbidden, matching the sign-in contract.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return errForbidden("Incorrect password")
		}
		return goerrors.Wrap(err, goerrors.CategoryInternal, "password comparison failed")
	}
	return nil
}
