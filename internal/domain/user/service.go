package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/averdin/tienda-api/internal/domain/auth"
)

// Service handles registration, login, and account listing.
type Service struct {
	users  Repository
	tokens *auth.TokenCodec
}

// NewService creates a user Service.
func NewService(users Repository, tokens *auth.TokenCodec) *Service {
	return &Service{users: users, tokens: tokens}
}

// Register creates a new account with role "user". Elevated roles are only
// assigned out of band (see cmd/seed-db).
func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.Wrap(err, "hash password")
	}

	u := &User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         auth.RoleUser,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and returns a signed bearer token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Issue(auth.Identity{UserID: u.ID, Role: u.Role}, time.Now()), nil
}

// List returns all accounts. Admin only.
func (s *Service) List(ctx context.Context, id auth.Identity) ([]User, error) {
	if id.Role != auth.RoleAdmin {
		return nil, auth.ErrForbidden
	}
	return s.users.List(ctx)
}
