package model

import "time"

// Like records that UserID liked PostID. There is at most one per pair.
type Like struct {
	ID        string       `json:"id"`
	PostID    string       `json:"postId"`
	UserID    string       `json:"userId"`
	User      *UserSummary `json:"user,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}
