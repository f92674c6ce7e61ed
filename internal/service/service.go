// Package service contains the business rules of the social network.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)        → parses requests, writes responses
//	Service (this layer)  → validates input, checks ownership and existence
//	Repository (storage)  → reads/writes rows, keeps counters transactional
//
// Services take repository interfaces, never *sqlite.DB, so tests run them
// against in-memory fakes. They return apperror values and know nothing
// about status codes.
package service

import (
	"fmt"
	"net/mail"
	"strings"

	"github.com/sakif/social-network/internal/apperror"
)

// requireOwner is the single ownership rule for every mutating operation:
// the caller's session identity must match the stored owner reference.
func requireOwner(resource, ownerID, callerID string) error {
	if callerID == "" || ownerID != callerID {
		return apperror.Forbidden(fmt.Sprintf("you can only modify your own %s", resource))
	}
	return nil
}

// required trims value and fails with a validation error naming field when
// nothing is left.
func required(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperror.ValidationFailed(field, field+" is required")
	}
	return value, nil
}

// normalizeEmail lowercases value and accepts it only when it is a bare
// mailbox. Display-name forms like "Alice <alice@example.com>" parse fine
// but would let one mailbox register under many spellings.
func normalizeEmail(value string) (string, error) {
	email, err := required("email", value)
	if err != nil {
		return "", err
	}
	email = strings.ToLower(email)
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", apperror.ValidationFailed("email", "email is not a valid address")
	}
	return email, nil
}
