package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pokecatch/pokecatch/internal/auth"
	"github.com/pokecatch/pokecatch/internal/metrics"
	"github.com/pokecatch/pokecatch/internal/model"
	"github.com/pokecatch/pokecatch/internal/repository"
)

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
}

// AuthService handles registration and login.
type AuthService struct {
	users   UserStore
	hasher  *auth.PasswordHasher
	issuer  *auth.TokenIssuer
	metrics metrics.Recorder
	now     func() time.Time
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher *auth.PasswordHasher, issuer *auth.TokenIssuer, recorder metrics.Recorder) *AuthService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &AuthService{
		users:   users,
		hasher:  hasher,
		issuer:  issuer,
		metrics: recorder,
		now:     time.Now,
	}
}

// Register creates an account. It returns ErrEmailExists if the email is
// already registered.
func (s *AuthService) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()
	return user, nil
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token     string
	User      *model.User
	ExpiresAt time.Time
}

// Login verifies credentials and issues a bearer token.
// Unknown emails and wrong passwords both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, invalid("email", "is required")
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.VerifyDummy(password)
			s.metrics.IncAuthFailure("credentials")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncAuthFailure("credentials")
		return nil, ErrInvalidCredentials
	}

	token, expiresAt, err := s.issuer.IssueAt(user.ID, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &LoginResult{
		Token:     token,
		User:      user,
		ExpiresAt: expiresAt,
	}, nil
}
