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

var _ repository.CommentRepository = (*DB)(nil)

const selectComments = `
	SELECT c.id, c.post_id, c.author_id, c.content, c.created_at, c.updated_at,
	       u.id, u.username, u.profile_picture
	FROM comments c
	JOIN users u ON u.id = c.author_id`

func scanComment(s scanner) (model.Comment, error) {
	var (
		c       model.Comment
		author  model.UserSummary
		picture sql.NullString
	)
	err := s.Scan(&c.ID, &c.PostID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&author.ID, &author.Username, &picture)
	if err != nil {
		return c, err
	}
	author.ProfilePicture = nullString(picture)
	c.Author = &author
	return c, nil
}

// CreateComment inserts the comment and bumps the parent post's
// comments_count in one transaction. If the post is gone by the time the
// counter is updated, nothing is written and NotFound is returned.
func (db *DB) CreateComment(ctx context.Context, comment *model.Comment) error {
	if err := checkID("post", comment.PostID); err != nil {
		return err
	}
	now := time.Now().UTC()
	comment.ID = xid.New().String()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE posts SET comments_count = comments_count + 1 WHERE id = ?`,
			comment.PostID)
		if err != nil {
			return fmt.Errorf("sqlite: incrementing comments_count on %s: %w", comment.PostID, err)
		}
		if err := rowsAffected(res, "post", comment.PostID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO comments (id, post_id, author_id, content, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			comment.ID,
			comment.PostID,
			comment.AuthorID,
			comment.Content,
			comment.CreatedAt,
			comment.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("sqlite: inserting comment: %w", err)
		}
		return nil
	})
}

func (db *DB) GetCommentByID(ctx context.Context, id string) (*model.Comment, error) {
	if err := checkID("comment", id); err != nil {
		return nil, err
	}
	c, err := scanComment(db.conn.QueryRowContext(ctx, selectComments+` WHERE c.id = ?`, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("comment", id)
		}
		return nil, fmt.Errorf("sqlite: getting comment %s: %w", id, err)
	}
	return &c, nil
}

// ListCommentsByPost returns a post's comments, newest first. An unknown
// post simply has no comments.
func (db *DB) ListCommentsByPost(ctx context.Context, postID string) ([]model.Comment, error) {
	if err := checkID("post", postID); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx,
		selectComments+` WHERE c.post_id = ? ORDER BY c.created_at DESC, c.id DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing comments for post %s: %w", postID, err)
	}
	defer rows.Close()

	comments := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning comment row: %w", err)
		}
		comments = append(comments, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating comments: %w", err)
	}
	return comments, nil
}

func (db *DB) UpdateComment(ctx context.Context, comment *model.Comment) error {
	if err := checkID("comment", comment.ID); err != nil {
		return err
	}
	comment.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE comments SET content = ?, updated_at = ? WHERE id = ?`,
		comment.Content, comment.UpdatedAt, comment.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating comment %s: %w", comment.ID, err)
	}
	return rowsAffected(res, "comment", comment.ID)
}

// DeleteComment removes the comment and decrements the parent post's
// comments_count in one transaction, returning the deleted row. A missing
// comment is NotFound and leaves every counter untouched.
func (db *DB) DeleteComment(ctx context.Context, id string) (*model.Comment, error) {
	if err := checkID("comment", id); err != nil {
		return nil, err
	}

	var deleted model.Comment
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		c, err := scanComment(tx.QueryRowContext(ctx, selectComments+` WHERE c.id = ?`, id))
		if err != nil {
			if err == sql.ErrNoRows {
				return apperror.NotFound("comment", id)
			}
			return fmt.Errorf("sqlite: loading comment %s: %w", id, err)
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id); err != nil {
			return fmt.Errorf("sqlite: deleting comment %s: %w", id, err)
		}
		// MAX keeps a drifted counter from going negative; reconciliation
		// fixes the rest.
		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET comments_count = MAX(comments_count - 1, 0) WHERE id = ?`,
			c.PostID); err != nil {
			return fmt.Errorf("sqlite: decrementing comments_count on %s: %w", c.PostID, err)
		}
		deleted = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &deleted, nil
}
