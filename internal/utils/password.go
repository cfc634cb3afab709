package utils

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummyHash is compared against when a user has no password set, so the
// no-password path costs the same as a mismatch.
var dummyHash = []byte("$2a$12$8Kt0Xv5yT1rZb9mQpLnWHOYd3eG6jC4sFhA7uNw2iRxB0cDqEoSVa")

// HashPassword hashes a password using bcrypt
func HashPassword(password string, cost int) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash compares a password with a hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// BurnPasswordCheck performs a bcrypt comparison against a throwaway hash.
// Called on code paths that reject before reaching a real hash, to keep
// their timing in line with a genuine mismatch.
func BurnPasswordCheck(password string) {
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}
