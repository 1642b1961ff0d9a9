package users

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mscwg/catalog/internal/errors"
)

func TestUserIDRoundTrip(t *testing.T) {
	id := UserID("orcid", "0000-0002-1825-0097")
	if id != "orcid$0000-0002-1825-0097" {
		t.Fatalf("UserID = %q", id)
	}
	provider, subject, err := SplitUserID(id)
	if err != nil {
		t.Fatalf("SplitUserID error: %v", err)
	}
	if provider != "orcid" || subject != "0000-0002-1825-0097" {
		t.Errorf("SplitUserID = %q, %q", provider, subject)
	}
	if _, _, err := SplitUserID("no-separator"); err == nil {
		t.Error("malformed user ID accepted")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword error: %v", err)
	}
	if ok, _ := VerifyPassword(hash, "correct horse battery"); !ok {
		t.Error("correct password rejected")
	}
	if ok, _ := VerifyPassword(hash, "wrong password"); ok {
		t.Error("wrong password accepted")
	}
}

func TestPasswordPolicy(t *testing.T) {
	_, err := HashPassword("short")
	if !errors.IsCode(err, errors.CodeUserPasswordTooWeak) {
		t.Errorf("short password error = %v, want CodeUserPasswordTooWeak", err)
	}
}

func TestPasswordRehashOnWeakCost(t *testing.T) {
	weak, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("GenerateFromPassword error: %v", err)
	}
	ok, rehash := VerifyPassword(string(weak), "correct horse battery")
	if !ok {
		t.Fatal("correct password rejected")
	}
	if !rehash {
		t.Error("low-cost hash not flagged for rehash")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret"))
	token, err := ti.Issue("api$alice")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	userID, err := ti.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if userID != "api$alice" {
		t.Errorf("Verify = %q, want %q", userID, "api$alice")
	}
}

func TestTokenExpiry(t *testing.T) {
	ti := NewTokenIssuer([]byte("test-secret"))
	issued := time.Now()
	ti.now = func() time.Time { return issued }
	token, err := ti.Issue("api$alice")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	ti.now = func() time.Time { return issued.Add(TokenTTL + time.Minute) }
	_, err = ti.Verify(token)
	if !errors.IsCode(err, errors.CodeTokenExpired) {
		t.Errorf("expired token error = %v, want CodeTokenExpired", err)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewTokenIssuer([]byte("one secret")).Issue("api$alice")
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	_, err = NewTokenIssuer([]byte("another secret")).Verify(token)
	if !errors.IsCode(err, errors.CodeBadCredentials) {
		t.Errorf("forged token error = %v, want CodeBadCredentials", err)
	}
}

func TestIdentityFromClaims(t *testing.T) {
	github := []byte(`{"id": 12345, "login": "octocat", "name": "Octo Cat", "email": "octo@example.com"}`)
	user, err := IdentityFromClaims("github", github)
	if err != nil {
		t.Fatalf("IdentityFromClaims error: %v", err)
	}
	if user.UserID != "github$12345" {
		t.Errorf("UserID = %q, want %q", user.UserID, "github$12345")
	}
	if user.Name != "Octo Cat" || user.Email != "octo@example.com" {
		t.Errorf("user = %+v", user)
	}

	oidc := []byte(`{"sub": "0000-0002-1825-0097"}`)
	user, err = IdentityFromClaims("orcid", oidc)
	if err != nil {
		t.Fatalf("IdentityFromClaims error: %v", err)
	}
	if user.UserID != "orcid$0000-0002-1825-0097" {
		t.Errorf("UserID = %q", user.UserID)
	}
	if user.Name != "0000-0002-1825-0097" {
		t.Errorf("Name fallback = %q, want subject", user.Name)
	}

	if _, err := IdentityFromClaims("x", []byte(`{"name": "no subject"}`)); err == nil {
		t.Error("claims without subject accepted")
	}
}
