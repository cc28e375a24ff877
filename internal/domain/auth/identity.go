package auth

import "github.com/go-faster/errors"

// Role is the access level assigned to a user account.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// Identity is the caller identity derived from a verified bearer token.
// Downstream components trust it as-is and perform no further credential
// checks.
type Identity struct {
	UserID string
	Role   Role
}

var (
	// ErrUnauthenticated indicates a missing or invalid bearer token.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrForbidden indicates the identity is not allowed to perform the
	// operation. It deliberately carries no detail about the target resource.
	ErrForbidden = errors.New("forbidden")
)
