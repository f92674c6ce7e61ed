package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

var _ repository.StatsRepository = (*DB)(nil)

// GetStatistics answers the leaderboard questions from the source tables.
// The denormalised counters on posts are never read here, so a drifted
// counter cannot skew the result. Ties go to whichever group SQLite emits
// first, which is unspecified.
func (db *DB) GetStatistics(ctx context.Context) (*model.Statistics, error) {
	stats := &model.Statistics{}

	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users`).Scan(&stats.TotalUsers); err != nil {
		return nil, fmt.Errorf("sqlite: counting users: %w", err)
	}

	var mostPosts model.UserPostCount
	err := db.conn.QueryRowContext(ctx, `
		SELECT u.username, COUNT(p.id) AS n
		FROM posts p
		JOIN users u ON u.id = p.author_id
		GROUP BY p.author_id
		ORDER BY n DESC
		LIMIT 1`).Scan(&mostPosts.Username, &mostPosts.PostCount)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("sqlite: finding user with most posts: %w", err)
	default:
		stats.UserWithMostPosts = &mostPosts
	}

	var mostLiked model.PostLikeCount
	err = db.conn.QueryRowContext(ctx, `
		SELECT p.id, p.content, u.username, COUNT(l.id) AS n
		FROM likes l
		JOIN posts p ON p.id = l.post_id
		JOIN users u ON u.id = p.author_id
		GROUP BY l.post_id
		ORDER BY n DESC
		LIMIT 1`).Scan(&mostLiked.PostID, &mostLiked.PostContent,
		&mostLiked.PostAuthorUsername, &mostLiked.LikeCount)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("sqlite: finding post with most likes: %w", err)
	default:
		stats.PostWithMostLikes = &mostLiked
	}

	var totalLikes model.UserTotalLikes
	err = db.conn.QueryRowContext(ctx, `
		SELECT u.username, COUNT(l.id) AS n
		FROM likes l
		JOIN posts p ON p.id = l.post_id
		JOIN users u ON u.id = p.author_id
		GROUP BY p.author_id
		ORDER BY n DESC
		LIMIT 1`).Scan(&totalLikes.Username, &totalLikes.TotalLikeCount)
	switch {
	case err == sql.ErrNoRows:
	case err != nil:
		return nil, fmt.Errorf("sqlite: finding user with most likes received: %w", err)
	default:
		stats.UserWithMostTotalLikes = &totalLikes
	}

	return stats, nil
}
