package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

// LikeService manages likes. Likes are always created and removed on
// behalf of the caller, so ownership holds by construction.
type LikeService struct {
	likes  repository.LikeRepository
	posts  repository.PostRepository
	logger *slog.Logger
}

func NewLikeService(likes repository.LikeRepository, posts repository.PostRepository, logger *slog.Logger) *LikeService {
	return &LikeService{likes: likes, posts: posts, logger: logger}
}

// Like records that callerID likes postID and increments likesCount.
// Liking twice is a Conflict and leaves the counter alone.
func (s *LikeService) Like(ctx context.Context, callerID, postID string) (*model.Like, error) {
	postID, err := required("postId", postID)
	if err != nil {
		return nil, err
	}
	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}

	_, err = s.likes.GetLike(ctx, postID, callerID)
	switch {
	case err == nil:
		return nil, apperror.Conflict("postId", "post already liked")
	case !errors.Is(err, apperror.ErrNotFound):
		return nil, fmt.Errorf("checking existing like: %w", err)
	}

	// The unique index still catches a duplicate that races past the check.
	like := &model.Like{PostID: postID, UserID: callerID}
	if err := s.likes.CreateLike(ctx, like); err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to like post",
			slog.String("postID", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("liking post: %w", err)
	}

	s.logger.Info("post liked",
		slog.String("postID", postID),
		slog.String("userID", callerID),
	)
	return like, nil
}

// Unlike removes callerID's like and decrements likesCount. Without a like
// it fails with NotFound.
func (s *LikeService) Unlike(ctx context.Context, callerID, postID string) error {
	postID, err := required("postId", postID)
	if err != nil {
		return err
	}
	if err := s.likes.DeleteLike(ctx, postID, callerID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrValidation) {
			return err
		}
		s.logger.Error("failed to unlike post",
			slog.String("postID", postID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("unliking post: %w", err)
	}

	s.logger.Info("post unliked",
		slog.String("postID", postID),
		slog.String("userID", callerID),
	)
	return nil
}

// ListByPost returns the likers of a post.
func (s *LikeService) ListByPost(ctx context.Context, postID string) ([]model.Like, error) {
	postID, err := required("postId", postID)
	if err != nil {
		return nil, err
	}
	likes, err := s.likes.ListLikesByPost(ctx, postID)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			return nil, err
		}
		return nil, fmt.Errorf("listing likes: %w", err)
	}
	return likes, nil
}

// LikedPosts returns the posts callerID has liked, most recent like first.
// Likes pointing at deleted posts are skipped.
func (s *LikeService) LikedPosts(ctx context.Context, callerID string) ([]model.Post, error) {
	posts, err := s.likes.ListLikedPosts(ctx, callerID)
	if err != nil {
		s.logger.Error("failed to list liked posts",
			slog.String("userID", callerID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing liked posts: %w", err)
	}
	return posts, nil
}
