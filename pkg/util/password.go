package util

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const (
	bcryptCost = 12
	// bcrypt ignores everything past 72 bytes
	maxPasswordBytes = 72
)

var (
	ErrEmptyPassword   = errors.New("password must not be empty")
	ErrPasswordTooLong = errors.New("password must be at most 72 bytes")
)

// HashPassword bcrypt-hashes a reviewer or driver password.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// PlaceholderPasswordHash hashes a random secret nobody knows. Accounts seeded
// with it cannot log in until a real password is set.
func PlaceholderPasswordHash() (string, error) {
	secret, err := RandomToken(24)
	if err != nil {
		return "", err
	}
	return HashPassword(secret)
}

// VerifyPassword reports whether password matches the stored hash.
func VerifyPassword(hashedPassword, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}
