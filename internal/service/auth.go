package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/social-network/internal/apperror"
	"github.com/sakif/social-network/internal/auth"
	"github.com/sakif/social-network/internal/model"
	"github.com/sakif/social-network/internal/repository"
)

const MaxUsernameLength = 50

// AuthService handles registration, login and logout.
//
//	UserHandler → AuthService → UserRepository
//	                          ↘ SessionManager (session store + signed cookie)
//	                          ↘ PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	sessions  *auth.SessionManager
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	sessions *auth.SessionManager,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		sessions:  sessions,
		passwords: passwords,
		logger:    logger,
	}
}

type RegisterInput struct {
	Username       string
	Email          string
	Password       string
	ProfilePicture *string
}

// AuthResult bundles what the handler needs to answer a login: the user,
// the cookie value, and when it expires.
type AuthResult struct {
	User      *model.User
	Token     string
	SessionID string
	ExpiresAt time.Time
}

// Register creates an account.
//
// Order of checks: required fields, then well-formedness, then uniqueness
// of username and email. The password is stored only as a bcrypt hash.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	username, err := required("username", in.Username)
	if err != nil {
		return nil, err
	}
	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if in.Password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}
	if len(username) > MaxUsernameLength {
		return nil, apperror.ValidationFailed("username",
			fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
	}
	if err := checkUnique(ctx, s.users, username, email, ""); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperror.ValidationFailed("password",
				fmt.Sprintf("password must be %d bytes or fewer", auth.MaxPasswordBytes))
		}
		return nil, fmt.Errorf("service/auth: hashing password: %w", err)
	}

	user := &model.User{
		Username:       username,
		Email:          email,
		PasswordHash:   hash,
		ProfilePicture: normalizePicture(in.ProfilePicture),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}
		s.logger.Error("failed to create user",
			slog.String("username", username),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user registered",
		slog.String("userID", user.ID),
		slog.String("username", user.Username),
	)
	return user, nil
}

// Login verifies credentials and starts a session. An unknown email and a
// wrong password produce the same AuthError so callers cannot probe which
// accounts exist. On failure no session is created.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email, err := required("email", email)
	if err != nil {
		return nil, err
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	invalid := apperror.Unauthorized("invalid email or password")

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			s.logger.Info("login rejected", slog.String("userID", user.ID))
			return nil, invalid
		}
		return nil, fmt.Errorf("service/auth: verifying password: %w", err)
	}

	session, token, err := s.sessions.Start(ctx, user.ID)
	if err != nil {
		s.logger.Error("failed to start session",
			slog.String("userID", user.ID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))
	return &AuthResult{
		User:      user,
		Token:     token,
		SessionID: session.ID,
		ExpiresAt: session.ExpiresAt,
	}, nil
}

// Logout destroys the server-side session. A store failure is returned as
// a server error; the handler must not pretend the user is logged out.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.End(ctx, sessionID); err != nil {
		s.logger.Error("failed to destroy session", slog.String("error", err.Error()))
		return fmt.Errorf("service/auth: %w", err)
	}
	return nil
}

// checkUnique fails with a Conflict when username or email belongs to a
// user other than exceptID. Empty values are not checked.
func checkUnique(ctx context.Context, users repository.UserRepository, username, email, exceptID string) error {
	if username != "" {
		existing, err := users.GetUserByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != exceptID:
			return apperror.Conflict("username", "username already taken")
		case err != nil && !errors.Is(err, apperror.ErrNotFound):
			return fmt.Errorf("checking username: %w", err)
		}
	}
	if email != "" {
		existing, err := users.GetUserByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != exceptID:
			return apperror.Conflict("email", "email already registered")
		case err != nil && !errors.Is(err, apperror.ErrNotFound):
			return fmt.Errorf("checking email: %w", err)
		}
	}
	return nil
}

// normalizePicture maps an empty or blank picture URL to "no picture".
func normalizePicture(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}
