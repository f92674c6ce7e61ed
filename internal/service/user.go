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

// UserService serves public profile reads and profile updates.
type UserService struct {
	users  repository.UserRepository
	logger *slog.Logger
}

func NewUserService(users repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{users: users, logger: logger}
}

// GetByID returns apperror.ErrValidation for a malformed id and
// apperror.ErrNotFound for an unknown one.
func (s *UserService) GetByID(ctx context.Context, id string) (*model.User, error) {
	id, err := required("id", id)
	if err != nil {
		return nil, err
	}
	return s.users.GetUserByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		s.logger.Error("failed to list users", slog.String("error", err.Error()))
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}

// Update applies a partial profile update. Only the account owner may
// change it; nil fields are left alone. A blank profile picture clears it.
func (s *UserService) Update(ctx context.Context, callerID, id string, upd model.UserUpdate) (*model.User, error) {
	id, err := required("id", id)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := requireOwner("profile", user.ID, callerID); err != nil {
		return nil, err
	}

	var newUsername, newEmail string
	if upd.Username != nil {
		username, err := required("username", *upd.Username)
		if err != nil {
			return nil, err
		}
		if len(username) > MaxUsernameLength {
			return nil, apperror.ValidationFailed("username",
				fmt.Sprintf("username must be %d characters or less", MaxUsernameLength))
		}
		if username != user.Username {
			newUsername = username
		}
		user.Username = username
	}
	if upd.Email != nil {
		email, err := normalizeEmail(*upd.Email)
		if err != nil {
			return nil, err
		}
		if email != user.Email {
			newEmail = email
		}
		user.Email = email
	}
	if upd.ProfilePicture != nil {
		user.ProfilePicture = normalizePicture(upd.ProfilePicture)
	}

	if err := checkUnique(ctx, s.users, newUsername, newEmail, user.ID); err != nil {
		return nil, err
	}

	if err := s.users.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) || errors.Is(err, apperror.ErrNotFound) {
			return nil, err
		}
		s.logger.Error("failed to update user",
			slog.String("userID", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating user: %w", err)
	}

	s.logger.Info("user updated", slog.String("userID", user.ID))
	return user, nil
}
