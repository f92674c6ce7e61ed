package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

var _ repository.SessionRepository = (*DB)(nil)

func (db *DB) CreateSession(ctx context.Context, session *model.Session) error {
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.UserID, session.CreatedAt, session.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating session: %w", err)
	}
	return nil
}

// GetSession returns a live session. Expired rows are reported as NotFound
// even before the maintenance loop purges them.
func (db *DB) GetSession(ctx context.Context, id string) (*model.Session, error) {
	var (
		s       model.Session
		expires int64
	)
	err := db.conn.QueryRowContext(ctx,
		`SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`, id,
	).Scan(&s.ID, &s.UserID, &s.CreatedAt, &expires)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("session", id)
		}
		return nil, fmt.Errorf("sqlite: getting session: %w", err)
	}
	s.ExpiresAt = time.Unix(expires, 0).UTC()
	if s.Expired(time.Now()) {
		return nil, apperror.NotFound("session", id)
	}
	return &s, nil
}

// DeleteSession is idempotent: deleting an unknown session is not an error.
func (db *DB) DeleteSession(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting session: %w", err)
	}
	return nil
}

func (db *DB) DeleteExpiredSessions(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`, time.Now().Unix())
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite: purging expired sessions: %w", err)
	}
	return n, nil
}
