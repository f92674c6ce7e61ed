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

var _ repository.LikeRepository = (*DB)(nil)

// CreateLike inserts the like and increments the post's likes_count in one
// transaction. The UNIQUE(post_id, user_id) index turns a concurrent
// duplicate into a Conflict instead of a second row.
func (db *DB) CreateLike(ctx context.Context, like *model.Like) error {
	if err := checkID("post", like.PostID); err != nil {
		return err
	}
	like.ID = xid.New().String()
	like.CreatedAt = time.Now().UTC()

	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE posts SET likes_count = likes_count + 1 WHERE id = ?`, like.PostID)
		if err != nil {
			return fmt.Errorf("sqlite: incrementing likes_count on %s: %w", like.PostID, err)
		}
		if err := rowsAffected(res, "post", like.PostID); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO likes (id, post_id, user_id, created_at) VALUES (?, ?, ?, ?)`,
			like.ID, like.PostID, like.UserID, like.CreatedAt,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return apperror.Conflict("postId", "post already liked")
			}
			return fmt.Errorf("sqlite: inserting like: %w", err)
		}
		return nil
	})
}

// GetLike returns userID's like on postID, or NotFound.
func (db *DB) GetLike(ctx context.Context, postID, userID string) (*model.Like, error) {
	if err := checkID("post", postID); err != nil {
		return nil, err
	}
	var l model.Like
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, post_id, user_id, created_at FROM likes WHERE post_id = ? AND user_id = ?`,
		postID, userID,
	).Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, likeNotFound(postID)
		}
		return nil, fmt.Errorf("sqlite: getting like on %s: %w", postID, err)
	}
	return &l, nil
}

// DeleteLike removes userID's like on postID and decrements likes_count in
// one transaction. Without a matching like nothing changes and NotFound is
// returned.
func (db *DB) DeleteLike(ctx context.Context, postID, userID string) error {
	if err := checkID("post", postID); err != nil {
		return err
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE post_id = ? AND user_id = ?`, postID, userID)
		if err != nil {
			return fmt.Errorf("sqlite: deleting like on %s: %w", postID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("sqlite: checking rows affected: %w", err)
		}
		if n == 0 {
			return likeNotFound(postID)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE posts SET likes_count = MAX(likes_count - 1, 0) WHERE id = ?`,
			postID); err != nil {
			return fmt.Errorf("sqlite: decrementing likes_count on %s: %w", postID, err)
		}
		return nil
	})
}

// ListLikesByPost returns the likes on a post with each liker's summary.
func (db *DB) ListLikesByPost(ctx context.Context, postID string) ([]model.Like, error) {
	if err := checkID("post", postID); err != nil {
		return nil, err
	}
	rows, err := db.conn.QueryContext(ctx,
		`SELECT l.id, l.post_id, l.user_id, l.created_at,
		        u.id, u.username, u.profile_picture
		 FROM likes l
		 JOIN users u ON u.id = l.user_id
		 WHERE l.post_id = ?
		 ORDER BY l.created_at DESC, l.id DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing likes for post %s: %w", postID, err)
	}
	defer rows.Close()

	likes := make([]model.Like, 0)
	for rows.Next() {
		var (
			l       model.Like
			user    model.UserSummary
			picture sql.NullString
		)
		if err := rows.Scan(&l.ID, &l.PostID, &l.UserID, &l.CreatedAt,
			&user.ID, &user.Username, &picture); err != nil {
			return nil, fmt.Errorf("sqlite: scanning like row: %w", err)
		}
		user.ProfilePicture = nullString(picture)
		l.User = &user
		likes = append(likes, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating likes: %w", err)
	}
	return likes, nil
}

// ListLikedPosts returns the posts userID has liked, most recently liked
// first. The inner join drops likes whose post no longer exists.
func (db *DB) ListLikedPosts(ctx context.Context, userID string) ([]model.Post, error) {
	rows, err := db.conn.QueryContext(ctx,
		selectPosts+`
		 JOIN likes l ON l.post_id = p.id
		 WHERE l.user_id = ?
		 ORDER BY l.created_at DESC, l.id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing posts liked by %s: %w", userID, err)
	}
	defer rows.Close()
	return collectPosts(rows)
}

func likeNotFound(postID string) *apperror.AppError {
	return &apperror.AppError{
		Err:     apperror.ErrNotFound,
		Message: fmt.Sprintf("like not found on post %s", postID),
	}
}
