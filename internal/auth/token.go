package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "social-network"

// TokenService signs and verifies the value of the session cookie.
//
// COOKIE CONTENTS:
// The cookie is a JWT whose "jti" is the server-side session ID and whose
// "sub" is the user ID. The signature lets the guard reject forged or
// tampered cookies before touching the session store; the store still has
// the final say, so deleting a session logs the user out even though the
// JWT itself has not expired.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService. The secret must be at least 16
// characters.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// SessionClaims is what a verified cookie says about its holder.
type SessionClaims struct {
	SessionID string
	UserID    string
	ExpiresAt time.Time
}

// Issue signs a cookie value for sessionID/userID that expires at expiresAt.
// Signing method is HS256.
func (s *TokenService) Issue(sessionID, userID string, expiresAt time.Time) (string, error) {
	c := jwt.RegisteredClaims{
		ID:        sessionID,
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    issuer,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing session token: %w", err)
	}
	return signed, nil
}

// Parse verifies signature, algorithm, issuer and expiry, and returns the
// claims. jwt.WithValidMethods pins HS256 so a token declaring "none" or an
// asymmetric algorithm is refused.
func (s *TokenService) Parse(tokenStr string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&jwt.RegisteredClaims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.New("auth: session token expired")
		}
		return nil, fmt.Errorf("auth: invalid session token: %w", err)
	}

	c, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid {
		return nil, errors.New("auth: invalid session token claims")
	}
	if c.ID == "" || c.Subject == "" {
		return nil, errors.New("auth: session token missing jti or sub")
	}

	return &SessionClaims{
		SessionID: c.ID,
		UserID:    c.Subject,
		ExpiresAt: c.ExpiresAt.Time,
	}, nil
}
