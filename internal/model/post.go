package model

import "time"

// Post is a piece of user-authored content.
//
// LikesCount and CommentsCount are denormalised: they are maintained by the
// like and comment writes (in the same transaction) and periodically
// recomputed from the likes/comments tables.
//
// Author is only populated on reads that join the users table.
type Post struct {
	ID            string       `json:"id"`
	AuthorID      string       `json:"authorId"`
	Author        *UserSummary `json:"author,omitempty"`
	Content       string       `json:"content"`
	LikesCount    int          `json:"likesCount"`
	CommentsCount int          `json:"commentsCount"`
	CreatedAt     time.Time    `json:"createdAt"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}
