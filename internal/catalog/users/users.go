// Package users holds account types and credentials: third-party sign-in
// identities for the editing interface and password-protected API
// accounts with bearer tokens.
package users

import (
	"fmt"
	"strings"

	"github.com/mscwg/catalog/internal/errors"
)

// User is an editor signed in through a third-party provider. UserID is
// "provider$subject", stable across profile changes at the provider.
type User struct {
	UserID string `json:"userid"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// APIUser is an account with write access to the API, authenticated by
// password and then by bearer token.
type APIUser struct {
	UserID       string `json:"userid"`
	Name         string `json:"name"`
	PasswordHash string `json:"password_hash"`
}

// MinPasswordLen is the shortest accepted API account password.
const MinPasswordLen = 8

// UserID joins a provider name and subject into a stable account ID.
func UserID(provider, subject string) string {
	return provider + "$" + subject
}

// SplitUserID splits an account ID back into provider and subject.
func SplitUserID(userID string) (provider, subject string, err error) {
	provider, subject, ok := strings.Cut(userID, "$")
	if !ok || provider == "" || subject == "" {
		return "", "", errors.New(errors.CodeUserProfileInvalid,
			fmt.Sprintf("malformed user ID %q", userID))
	}
	return provider, subject, nil
}

// CheckPasswordPolicy rejects passwords below the minimum length.
func CheckPasswordPolicy(password string) error {
	if len(password) < MinPasswordLen {
		return errors.New(errors.CodeUserPasswordTooWeak,
			fmt.Sprintf("password must be at least %d characters", MinPasswordLen))
	}
	return nil
}
