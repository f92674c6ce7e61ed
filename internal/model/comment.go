package model

import "time"

// Comment is a reply attached to a post.
type Comment struct {
	ID        string       `json:"id"`
	PostID    string       `json:"postId"`
	AuthorID  string       `json:"authorId"`
	Author    *UserSummary `json:"author,omitempty"`
	Content   string       `json:"content"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}
