// Package auth holds the credential and session machinery: bcrypt password
// hashing, the signed session cookie, the server-side session lifecycle and
// the RequireAuth middleware that guards protected routes.
//
// PASSWORDS:
// bcrypt embeds a random salt and the work factor in its output, so the
// stored string is all that is needed to verify a login later:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (2^12 rounds)
//	 version
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used outside tests.
const defaultCost = 12

// MaxPasswordBytes is bcrypt's input limit. Longer passwords are rejected
// instead of being silently truncated.
const MaxPasswordBytes = 72

var (
	ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")
	ErrInvalidPassword = errors.New("auth: invalid password")
)

// PasswordService hashes and verifies passwords. The cost is a field so
// tests can drop to bcrypt.MinCost.
type PasswordService struct {
	cost int
}

func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// NewPasswordServiceForTest returns a PasswordService with the given cost.
// Other packages' tests pass bcrypt.MinCost (4) to keep runs fast. Never use
// it in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash returns the bcrypt hash of plaintext, or ErrPasswordTooLong.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}
	return string(hashed), nil
}

// Verify returns nil when plaintext matches hash and ErrInvalidPassword when
// it does not. Any other error means the stored hash itself is unusable.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidPassword
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
