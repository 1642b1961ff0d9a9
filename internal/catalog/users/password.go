package users

import (
	"github.com/mscwg/catalog/internal/errors"
	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a password after checking the length policy.
func HashPassword(password string) (string, error) {
	if err := CheckPasswordPolicy(password); err != nil {
		return "", err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeUnknown, "hash password")
	}
	return string(hash), nil
}

// VerifyPassword checks a password against a stored hash. rehash reports
// that the hash was made with a weaker cost than currently used, so the
// caller should store a fresh hash on successful sign-in.
func VerifyPassword(hash, password string) (ok, rehash bool) {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return false, false
	}
	cost, err := bcrypt.Cost([]byte(hash))
	return true, err == nil && cost < bcrypt.DefaultCost
}
