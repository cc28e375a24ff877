package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"

	"github.com/averdin/tienda-api/internal/domain/auth"
)

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")

	// ErrEmailTaken is returned when registering with an email that already
	// has an account.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials is returned on login with a wrong email or
	// password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// User is a registered account. PasswordHash is opaque to everything except
// the registration and login paths.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash []byte
	Role         auth.Role
	CreatedAt    time.Time
}

// Repository defines persistence operations for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	List(ctx context.Context) ([]User, error)
}
