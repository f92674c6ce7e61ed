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

type CommentService struct {
	comments repository.CommentRepository
	posts    repository.PostRepository
	users    repository.UserRepository
	logger   *slog.Logger
}

func NewCommentService(
	comments repository.CommentRepository,
	posts repository.PostRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *CommentService {
	return &CommentService{comments: comments, posts: posts, users: users, logger: logger}
}

// Create adds a comment to a post.
//
// The request names the author explicitly (userID). Both the post and the
// user must exist, and the author must be the caller. The repository bumps
// the post's commentsCount in the same transaction as the insert.
func (s *CommentService) Create(ctx context.Context, callerID, postID, userID, content string) (*model.Comment, error) {
	postID, err := required("postId", postID)
	if err != nil {
		return nil, err
	}
	userID, err = required("userId", userID)
	if err != nil {
		return nil, err
	}
	content, err = validContent(content)
	if err != nil {
		return nil, err
	}

	if _, err := s.posts.GetPostByID(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetUserByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := requireOwner("comments", userID, callerID); err != nil {
		return nil, err
	}

	comment := &model.Comment{PostID: postID, AuthorID: userID, Content: content}
	if err := s.comments.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to create comment",
			slog.String("postID", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.logger.Info("comment created",
		slog.String("commentID", comment.ID),
		slog.String("postID", postID),
	)
	return s.comments.GetCommentByID(ctx, comment.ID)
}

// ListByPost returns a post's comments, newest first.
func (s *CommentService) ListByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	postID, err := required("postId", postID)
	if err != nil {
		return nil, err
	}
	comments, err := s.comments.ListCommentsByPost(ctx, postID)
	if err != nil {
		if errors.Is(err, apperror.ErrValidation) {
			return nil, err
		}
		s.logger.Error("failed to list comments",
			slog.String("postID", postID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	return comments, nil
}

func (s *CommentService) GetByID(ctx context.Context, id string) (*model.Comment, error) {
	id, err := required("id", id)
	if err != nil {
		return nil, err
	}
	return s.comments.GetCommentByID(ctx, id)
}

// Update replaces a comment's content. Author only.
func (s *CommentService) Update(ctx context.Context, callerID, id, content string) (*model.Comment, error) {
	comment, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner("comments", comment.AuthorID, callerID); err != nil {
		return nil, err
	}
	content, err = validContent(content)
	if err != nil {
		return nil, err
	}

	comment.Content = content
	if err := s.comments.UpdateComment(ctx, comment); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("updating comment: %w", err)
	}

	s.logger.Info("comment updated", slog.String("commentID", comment.ID))
	return s.comments.GetCommentByID(ctx, comment.ID)
}

// Delete removes a comment and decrements its post's commentsCount. Author
// only. A missing comment is NotFound and no counter moves.
func (s *CommentService) Delete(ctx context.Context, callerID, id string) error {
	comment, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner("comments", comment.AuthorID, callerID); err != nil {
		return err
	}

	if _, err := s.comments.DeleteComment(ctx, comment.ID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete comment",
			slog.String("commentID", comment.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting comment: %w", err)
	}

	s.logger.Info("comment deleted",
		slog.String("commentID", comment.ID),
		slog.String("postID", comment.PostID),
	)
	return nil
}
