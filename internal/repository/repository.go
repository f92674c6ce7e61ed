package repository

import (
	"context"

	"github.com/sakif/social-network/internal/model"
)

type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	UpdateUser(ctx context.Context, user *model.User) error
}

type PostRepository interface {
	CreatePost(ctx context.Context, post *model.Post) error
	GetPostByID(ctx context.Context, id string) (*model.Post, error)
	ListPosts(ctx context.Context) ([]model.Post, error)
	UpdatePost(ctx context.Context, post *model.Post) error
	// DeletePost removes the post together with its comments and likes.
	DeletePost(ctx context.Context, id string) error
	// ReconcileCounters recomputes likesCount/commentsCount from the source
	// tables and returns how many posts had drifted.
	ReconcileCounters(ctx context.Context) (int64, error)
}

// CommentRepository implementations keep Post.CommentsCount in step with
// CreateComment and DeleteComment.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *model.Comment) error
	GetCommentByID(ctx context.Context, id string) (*model.Comment, error)
	ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error)
	UpdateComment(ctx context.Context, comment *model.Comment) error
	DeleteComment(ctx context.Context, id string) (*model.Comment, error)
}

// LikeRepository implementations keep Post.LikesCount in step with
// CreateLike and DeleteLike.
type LikeRepository interface {
	CreateLike(ctx context.Context, like *model.Like) error
	GetLike(ctx context.Context, postID, userID string) (*model.Like, error)
	DeleteLike(ctx context.Context, postID, userID string) error
	ListLikesByPost(ctx context.Context, postID string) ([]model.Like, error)
	ListLikedPosts(ctx context.Context, userID string) ([]model.Post, error)
}

type StatsRepository interface {
	GetStatistics(ctx context.Context) (*model.Statistics, error)
}

// SessionRepository is the server-side session store. GetSession returns
// apperror.ErrNotFound for both unknown and expired sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session *model.Session) error
	GetSession(ctx context.Context, id string) (*model.Session, error)
	DeleteSession(ctx context.Context, id string) error
	DeleteExpiredSessions(ctx context.Context) (int64, error)
}
