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

const MaxPostLength = 5000

type PostService struct {
	posts  repository.PostRepository
	logger *slog.Logger
}

func NewPostService(posts repository.PostRepository, logger *slog.Logger) *PostService {
	return &PostService{posts: posts, logger: logger}
}

// Create stores a post authored by authorID. Whitespace-only content is
// rejected. The returned post has its author joined in.
func (s *PostService) Create(ctx context.Context, authorID, content string) (*model.Post, error) {
	content, err := validContent(content)
	if err != nil {
		return nil, err
	}

	post := &model.Post{AuthorID: authorID, Content: content}
	if err := s.posts.CreatePost(ctx, post); err != nil {
		s.logger.Error("failed to create post",
			slog.String("authorID", authorID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.logger.Info("post created",
		slog.String("postID", post.ID),
		slog.String("authorID", authorID),
	)
	return s.posts.GetPostByID(ctx, post.ID)
}

func (s *PostService) GetByID(ctx context.Context, id string) (*model.Post, error) {
	id, err := required("id", id)
	if err != nil {
		return nil, err
	}
	return s.posts.GetPostByID(ctx, id)
}

// List returns every post, newest first.
func (s *PostService) List(ctx context.Context) ([]model.Post, error) {
	posts, err := s.posts.ListPosts(ctx)
	if err != nil {
		s.logger.Error("failed to list posts", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing posts: %w", err)
	}
	return posts, nil
}

// Update replaces a post's content. Checks run in this order: the post
// exists, the caller wrote it, the new content is non-empty.
func (s *PostService) Update(ctx context.Context, callerID, id, content string) (*model.Post, error) {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner("posts", post.AuthorID, callerID); err != nil {
		return nil, err
	}
	content, err = validContent(content)
	if err != nil {
		return nil, err
	}

	post.Content = content
	if err := s.posts.UpdatePost(ctx, post); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update post",
			slog.String("postID", post.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating post: %w", err)
	}

	s.logger.Info("post updated", slog.String("postID", post.ID))
	return s.posts.GetPostByID(ctx, post.ID)
}

// Delete removes a post together with its comments and likes. Only the
// author may delete it.
func (s *PostService) Delete(ctx context.Context, callerID, id string) error {
	post, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := requireOwner("posts", post.AuthorID, callerID); err != nil {
		return err
	}

	if err := s.posts.DeletePost(ctx, post.ID); err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return err
		}
		s.logger.Error("failed to delete post",
			slog.String("postID", post.ID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting post: %w", err)
	}

	s.logger.Info("post deleted", slog.String("postID", post.ID))
	return nil
}

func validContent(content string) (string, error) {
	content, err := required("content", content)
	if err != nil {
		return "", err
	}
	if len(content) > MaxPostLength {
		return "", apperror.ValidationFailed("content",
			fmt.Sprintf("content must be %d characters or less", MaxPostLength))
	}
	return content, nil
}
