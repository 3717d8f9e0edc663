// Package auth issues and checks the session tokens handed to API clients.
//
// A token is an HS256 JWT:
//
//	sub  the user id, in decimal
//	jti  the session's sid
//	iss  "linkedin-lite"
//	exp  issue time + TTL
//
// A valid signature is necessary but not sufficient. The token also has to
// name the session currently stored, which the service layer checks through
// the Authenticator the middleware is given. Logging in again or logging
// out therefore revokes every earlier token.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Issuer is the iss claim of every token.
const Issuer = "linkedin-lite"

// DefaultTTL is how long a token is accepted after it was issued.
const DefaultTTL = 24 * time.Hour

// ErrInvalidToken is returned (wrapped) for any token that fails to verify.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService signs and verifies tokens with one HMAC secret.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService returns a TokenService issuing tokens valid for
// DefaultTTL. The secret must be at least 16 characters.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), ttl: DefaultTTL}, nil
}

// Claims is what a verified token says.
type Claims struct {
	UserID int64
	SID    string
}

// Generate signs a token for the user's session sid.
func (s *TokenService) Generate(userID int64, sid string) (string, error) {
	return s.GenerateWithTTL(userID, sid, s.ttl)
}

// GenerateWithTTL is Generate with an explicit lifetime. A negative ttl
// yields an already expired token.
func (s *TokenService) GenerateWithTTL(userID int64, sid string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		ID:        sid,
		Issuer:    Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}
	return signed, nil
}

// Validate verifies signature, algorithm, issuer and expiry, and returns
// the claims. Every failure wraps ErrInvalidToken.
func (s *TokenService) Validate(tokenStr string) (Claims, error) {
	var c jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(
		tokenStr,
		&c,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
		jwt.WithExpirationRequired(),
	)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return Claims{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	if err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	userID, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return Claims{}, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}
	if c.ID == "" {
		return Claims{}, fmt.Errorf("%w: no session id", ErrInvalidToken)
	}
	return Claims{UserID: userID, SID: c.ID}, nil
}
