package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

var _ repository.PostRepository = (*DB)(nil)

// selectPosts joins every post with its author summary. Callers append a
// WHERE/ORDER BY clause.
const selectPosts = `
	SELECT p.id, p.author_id, p.content, p.likes_count, p.comments_count,
	       p.created_at, p.updated_at,
	       u.id, u.username, u.profile_picture
	FROM posts p
	JOIN users u ON u.id = p.author_id`

// scanner is the part of *sql.Row and *sql.Rows that scanPost needs.
type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (model.Post, error) {
	var (
		p       model.Post
		author  model.UserSummary
		picture sql.NullString
	)
	err := s.Scan(&p.ID, &p.AuthorID, &p.Content, &p.LikesCount, &p.CommentsCount,
		&p.CreatedAt, &p.UpdatedAt,
		&author.ID, &author.Username, &picture)
	if err != nil {
		return p, err
	}
	author.ProfilePicture = nullString(picture)
	p.Author = &author
	return p, nil
}

// CreatePost inserts a post with zeroed counters.
func (db *DB) CreatePost(ctx context.Context, post *model.Post) error {
	now := time.Now().UTC()
	post.ID = xid.New().String()
	post.LikesCount = 0
	post.CommentsCount = 0
	post.CreatedAt = now
	post.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO posts (id, author_id, content, likes_count, comments_count, created_at, updated_at)
		 VALUES (?, ?, ?, 0, 0, ?, ?)`,
		post.ID,
		post.AuthorID,
		post.Content,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating post: %w", err)
	}
	return nil
}

// GetPostByID returns the post with its author joined in.
func (db *DB) GetPostByID(ctx context.Context, id string) (*model.Post, error) {
	if err := checkID("post", id); err != nil {
		return nil, err
	}
	p, err := scanPost(db.conn.QueryRowContext(ctx, selectPosts+` WHERE p.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("post", id)
		}
		return nil, fmt.Errorf("sqlite: getting post %s: %w", id, err)
	}
	return &p, nil
}

// ListPosts returns every post, newest first. There is no pagination.
func (db *DB) ListPosts(ctx context.Context) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		selectPosts+` ORDER BY p.created_at DESC, p.id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts: %w", err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

func collectPosts(rows *sql.Rows) ([]model.Post, error) {
	posts := make([]model.Post, 0)
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning post row: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating posts: %w", err)
	}
	return posts, nil
}

// UpdatePost replaces the content of a post. Counters and author are not
// touched.
func (db *DB) UpdatePost(ctx context.Context, post *model.Post) error {
	if err := checkID("post", post.ID); err != nil {
		return err
	}
	post.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE posts SET content = ?, updated_at = ? WHERE id = ?`,
		post.Content, post.UpdatedAt, post.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating post %s: %w", post.ID, err)
	}
	return rowsAffected(res, "post", post.ID)
}

// DeletePost removes a post. The foreign keys on comments and likes cascade,
// so the post's comments and likes disappear in the same statement.
func (db *DB) DeletePost(ctx context.Context, id string) error {
	if err := checkID("post", id); err != nil {
		return err
	}
	res, err := db.conn.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting post %s: %w", id, err)
	}
	return rowsAffected(res, "post", id)
}

// ReconcileCounters recomputes likes_count and comments_count from the likes
// and comments tables, touching only the posts whose counters drifted.
func (db *DB) ReconcileCounters(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `
		UPDATE posts
		SET likes_count    = (SELECT COUNT(*) FROM likes    WHERE likes.post_id    = posts.id),
		    comments_count = (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)
		WHERE likes_count    != (SELECT COUNT(*) FROM likes    WHERE likes.post_id    = posts.id)
		   OR comments_count != (SELECT COUNT(*) FROM comments WHERE comments.post_id = posts.id)`)
	if err != nil {
		return 0, fmt.Errorf("sqlite: reconciling post counters: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: reconciling post counters: %w", err)
	}
	return n, nil
}
