package model

import "time"

// Session is a server-side login session. The cookie only carries a signed
// reference to it; destroying the record logs the user out even if the
// cookie is still held by the browser.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Expired reports whether the session is no longer usable at time now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
