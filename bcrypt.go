package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost balances login latency against brute-force resistance. The cost
// is fixed for the process; stored hashes carry their own cost so it can be
// raised later without invalidating credentials.
const bcryptCost = 12

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrNoEmptyString
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	return string(h), err
}

// ComparePasswordAndHash validates the given cleartext password against the
// stored hash. bcrypt's comparison is constant time; a mismatch is reported
// as ErrInvalidCredentials so callers cannot distinguish it from an unknown
// account.
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}
