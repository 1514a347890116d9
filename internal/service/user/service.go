package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/repository"
)

// Service reads and edits the caller's own profile.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger) Service {
	return Service{users: users, logger: logger}
}

var (
	errEmailInUse = domain.Conflict("email already in use")
	errNameEmpty  = domain.Validation("name cannot be empty",
		domain.FieldError{Field: "name", Message: "name cannot be empty"})
)

// ProfileUpdate lists profile fields to change. Nil fields are left alone; a
// present name must not be blank.
type ProfileUpdate struct {
	Name  *string
	Email *string
}

// Profile returns the user identified by userID.
func (s Service) Profile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpdateProfile changes name and/or email. A new email must not belong to another user.
func (s Service) UpdateProfile(ctx context.Context, userID string, in ProfileUpdate) (*domain.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, errNameEmpty
		}
		user.Name = name
	}
	if in.Email != nil {
		if email := domain.NormalizeEmail(*in.Email); email != "" && email != user.Email {
			existing, err := s.users.GetUserByEmail(ctx, email)
			switch {
			case err == nil && existing.ID != user.ID:
				return nil, errEmailInUse
			case err != nil && !errors.Is(err, repository.ErrNotFound):
				return nil, fmt.Errorf("lookup user by email: %w", err)
			}
			user.Email = email
		}
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return nil, errEmailInUse
		case errors.Is(err, repository.ErrNotFound):
			return nil, domain.NotFound("user not found")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	s.logger.Info("profile updated", "user_id", user.ID)
	return user, nil
}
