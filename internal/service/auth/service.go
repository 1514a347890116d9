package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"log/slog"

	"github.com/vinayak200306/primetrade-assignment/internal/domain"
	"github.com/vinayak200306/primetrade-assignment/internal/repository"
	"github.com/vinayak200306/primetrade-assignment/pkg/crypto"
)

// TokenIssuer signs and verifies bearer tokens.
type TokenIssuer interface {
	Issue(userID string) (string, error)
	Verify(token string) (string, error)
}

// Service handles registration, login and token authorization.
type Service struct {
	users  repository.UserRepository
	tokens TokenIssuer
	logger *slog.Logger
}

// New constructs a Service.
func New(users repository.UserRepository, tokens TokenIssuer, logger *slog.Logger) Service {
	return Service{users: users, tokens: tokens, logger: logger}
}

var (
	errEmailTaken         = domain.Conflict("user already exists with this email")
	errInvalidCredentials = domain.Unauthenticated("invalid credentials")
	errNotAuthorized      = domain.Unauthenticated("not authorized to access this route")
)

// SignupInput carries registration fields.
type SignupInput struct {
	Name     string
	Email    string
	Password string
}

// Signup registers a new user and issues a token for it.
func (s Service) Signup(ctx context.Context, in SignupInput) (*domain.User, string, error) {
	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	if name == "" {
		return nil, "", domain.Validation("name is required")
	}
	if email == "" {
		return nil, "", domain.Validation("email is required")
	}

	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, "", errEmailTaken
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := &domain.User{
		ID:           domain.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", errEmailTaken
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("user registered", "user_id", user.ID)
	return user, token, nil
}

// Login authenticates a user and returns a token. Unknown emails and wrong
// passwords yield the same error.
func (s Service) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	user, err := s.users.GetUserByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = crypto.ComparePlaceholder(password)
			return nil, "", errInvalidCredentials
		}
		return nil, "", fmt.Errorf("lookup user by email: %w", err)
	}
	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", errInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("issue token: %w", err)
	}
	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// Authorize validates a bearer token and returns the associated user.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, errNotAuthorized
	}
	userID, err := s.tokens.Verify(trimmed)
	if err != nil {
		return nil, errNotAuthorized
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.Unauthenticated("user not found")
		}
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}
