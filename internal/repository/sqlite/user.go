package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

// compile-time check that *DB implements repository.UserRepository
var _ repository.UserRepository = (*DB)(nil)

const userColumns = `id, username, email, password_hash, profile_picture, created_at, updated_at`

// CreateUser inserts a new user, assigning its ID and timestamps.
//
// The service checks username and email before calling this, but two
// registrations can race between that check and the INSERT. The UNIQUE
// indexes are the last word, and their violation comes back as a Conflict.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	now := time.Now().UTC()
	user.ID = xid.New().String()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.ProfilePicture,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return userConflict(err)
		}
		return fmt.Errorf("sqlite: inserting user %q: %w", user.Username, err)
	}
	return nil
}

// GetUserByID retrieves a user by ID.
// Returns apperror.ErrValidation for a malformed ID and apperror.ErrNotFound
// if no user exists with that ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if err := checkID("user", id); err != nil {
		return nil, err
	}
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row, "id", id)
}

func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row, "email", email)
}

func (db *DB) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row, "username", username)
}

// ListUsers returns every user, oldest account first.
func (db *DB) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0)
	for rows.Next() {
		var (
			u       model.User
			picture sql.NullString
		)
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
			&picture, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning user row: %w", err)
		}
		u.ProfilePicture = nullString(picture)
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating users: %w", err)
	}
	return users, nil
}

// UpdateUser writes username, email and profile picture back. The password
// hash and created_at are immutable here.
func (db *DB) UpdateUser(ctx context.Context, user *model.User) error {
	if err := checkID("user", user.ID); err != nil {
		return err
	}
	user.UpdatedAt = time.Now().UTC()

	res, err := db.conn.ExecContext(ctx,
		`UPDATE users
		 SET username = ?, email = ?, profile_picture = ?, updated_at = ?
		 WHERE id = ?`,
		user.Username,
		user.Email,
		user.ProfilePicture,
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return userConflict(err)
		}
		return fmt.Errorf("sqlite: updating user %s: %w", user.ID, err)
	}
	return rowsAffected(res, "user", user.ID)
}

// userConflict names the column whose UNIQUE index fired. SQLite reports
// it as "UNIQUE constraint failed: users.email".
func userConflict(err error) error {
	if strings.Contains(err.Error(), "users.email") {
		return apperror.Conflict("email", "email already registered")
	}
	return apperror.Conflict("username", "username already taken")
}

// scanUser reads one users row. key/value only shape the NotFound message.
func scanUser(row *sql.Row, key, value string) (*model.User, error) {
	var (
		u       model.User
		picture sql.NullString
	)
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash,
		&picture, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			if key == "id" {
				return nil, apperror.NotFound("user", value)
			}
			return nil, &apperror.AppError{
				Err:     apperror.ErrNotFound,
				Message: fmt.Sprintf("user not found with %s %s", key, value),
			}
		}
		return nil, fmt.Errorf("sqlite: getting user by %s: %w", key, err)
	}
	u.ProfilePicture = nullString(picture)
	return &u, nil
}
