// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY modernc.org/sqlite?
// It is a pure Go translation of the SQLite C code, so the server builds and
// cross-compiles without a C toolchain. Tests open ":memory:" databases and
// get a fresh, isolated store per test.
//
// ONE CONNECTION:
// sql.DB is a pool, but this store pins it to a single connection. SQLite
// serialises writers anyway, and an in-memory database only exists on the
// connection that created it. The consequence for the code in this package:
// never keep a *sql.Rows open while issuing another query on the same DB,
// and run every statement of a transaction through the *sql.Tx.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/xid"
	"github.com/sakif/social-network/internal/apperror"

	// The driver registers itself as "sqlite" with database/sql; the lib
	// package carries the extended result codes used to spot UNIQUE
	// violations.
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// DB wraps a sql.DB and implements every repository interface of the
// application: users, posts, comments, likes, sessions and statistics.
type DB struct {
	conn *sql.DB
}

// New opens the SQLite database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/social.db"  → file-based database (persistent)
//   - ":memory:"        → in-memory database (tests)
func New(dbPath string) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. The schema relies on them
	// for ON DELETE CASCADE from posts to comments and likes.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the underlying connection. The server calls it once during
// graceful shutdown.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping reports whether the database is reachable. Used by /healthz.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// migrate creates the schema. CREATE ... IF NOT EXISTS keeps it idempotent,
// so it runs on every start.
func (db *DB) migrate() error {
	steps := []struct {
		name string
		sql  string
	}{
		{"users", `
			CREATE TABLE IF NOT EXISTS users (
				id              TEXT PRIMARY KEY,
				username        TEXT NOT NULL UNIQUE,
				email           TEXT NOT NULL UNIQUE,
				password_hash   TEXT NOT NULL,
				profile_picture TEXT,
				created_at      DATETIME NOT NULL,
				updated_at      DATETIME NOT NULL
			);`},
		{"posts", `
			CREATE TABLE IF NOT EXISTS posts (
				id             TEXT PRIMARY KEY,
				author_id      TEXT NOT NULL REFERENCES users(id),
				content        TEXT NOT NULL,
				likes_count    INTEGER NOT NULL DEFAULT 0 CHECK (likes_count >= 0),
				comments_count INTEGER NOT NULL DEFAULT 0 CHECK (comments_count >= 0),
				created_at     DATETIME NOT NULL,
				updated_at     DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts(author_id);
			CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts(created_at);`},
		{"comments", `
			CREATE TABLE IF NOT EXISTS comments (
				id         TEXT PRIMARY KEY,
				post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				author_id  TEXT NOT NULL REFERENCES users(id),
				content    TEXT NOT NULL,
				created_at DATETIME NOT NULL,
				updated_at DATETIME NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments(post_id);`},
		{"likes", `
			CREATE TABLE IF NOT EXISTS likes (
				id         TEXT PRIMARY KEY,
				post_id    TEXT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
				user_id    TEXT NOT NULL REFERENCES users(id),
				created_at DATETIME NOT NULL,
				UNIQUE (post_id, user_id)
			);
			CREATE INDEX IF NOT EXISTS idx_likes_user_id ON likes(user_id);`},
		// expires_at is unix seconds so expiry can be compared in SQL.
		{"sessions", `
			CREATE TABLE IF NOT EXISTS sessions (
				id         TEXT PRIMARY KEY,
				user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
				created_at DATETIME NOT NULL,
				expires_at INTEGER NOT NULL
			);
			CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at);`},
	}

	for _, step := range steps {
		if _, err := db.conn.Exec(step.sql); err != nil {
			return fmt.Errorf("creating %s table: %w", step.name, err)
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing transaction: %w", err)
	}
	return nil
}

// checkID rejects identifiers that could never have been produced by this
// store. A well-formed but unknown ID is left for the query to report as
// NotFound.
func checkID(resource, id string) error {
	if _, err := xid.FromString(id); err != nil {
		return apperror.InvalidID(resource)
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint error.
func isUniqueViolation(err error) bool {
	var serr *msqlite.Error
	if errors.As(err, &serr) {
		return serr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}

// nullString converts a nullable column into the *string the model uses.
func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

// rowsAffected returns NotFound for resource/id when res touched no rows.
func rowsAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if n == 0 {
		return apperror.NotFound(resource, id)
	}
	return nil
}
