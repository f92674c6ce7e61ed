// Package model defines the data structures used throughout the application.
package model

import "time"

// User represents a registered account.
//
// WHY PasswordHash HAS json:"-":
// The hash must never leave the server. Tagging it with "-" means
// encoding/json skips the field entirely, so no handler can leak it by
// accident, even one that serialises the whole struct.
//
// WHY ProfilePicture *string?
// The picture is optional. A nil pointer serialises as JSON null and maps to
// SQL NULL, which keeps "no picture" distinct from an empty URL.
type User struct {
	ID             string    `json:"id"`
	Username       string    `json:"username"`
	Email          string    `json:"email"`
	PasswordHash   string    `json:"-"`
	ProfilePicture *string   `json:"profilePicture"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

// UserSummary is the slice of a user that gets joined onto posts, comments
// and likes: enough to render an avatar and a name.
type UserSummary struct {
	ID             string  `json:"id"`
	Username       string  `json:"username"`
	ProfilePicture *string `json:"profilePicture"`
}

// UserUpdate carries a partial profile update. Nil fields are left unchanged.
type UserUpdate struct {
	Username       *string
	Email          *string
	ProfilePicture *string
}
