package users

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mscwg/catalog/internal/errors"
)

// TokenTTL is how long issued API tokens stay valid.
const TokenTTL = 600 * time.Second

// TokenIssuer signs and verifies API bearer tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenIssuer(secret []byte) *TokenIssuer {
	return &TokenIssuer{secret: secret, ttl: TokenTTL, now: time.Now}
}

// Issue signs a token for an API account.
func (ti *TokenIssuer) Issue(userID string) (string, error) {
	now := ti.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", errors.Wrap(err, errors.CodeUnknown, "sign token")
	}
	return signed, nil
}

// Verify parses a bearer token and returns the account ID it was issued
// to. Expired tokens fail with CodeTokenExpired, anything else with
// CodeBadCredentials.
func (ti *TokenIssuer) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return ti.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(ti.now),
	)
	switch {
	case err == nil:
	case stderrors.Is(err, jwt.ErrTokenExpired):
		return "", errors.Wrap(err, errors.CodeTokenExpired, "token expired")
	default:
		return "", errors.Wrap(err, errors.CodeBadCredentials, "invalid token")
	}
	if claims.Subject == "" {
		return "", errors.New(errors.CodeBadCredentials, "token has no subject")
	}
	return claims.Subject, nil
}
