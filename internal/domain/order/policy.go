package order

import "github.com/averdin/tienda-api/internal/domain/auth"

// Policy decides who may create, list, and view orders. It is a pure mapping
// from (identity, resource) to a decision: no I/O, no state, independently
// testable without a database.
type Policy struct{}

// Scope narrows a listing to a single owner unless All is set.
type Scope struct {
	All     bool
	OwnerID string
}

// CanCreate reports whether the identity may place an order. Any
// authenticated role may, admins included — no role is excluded from
// creating their own orders.
func (Policy) CanCreate(id auth.Identity) bool {
	return id.Role.Valid()
}

// CanListAll reports whether the identity may list every order in the system.
func (Policy) CanListAll(id auth.Identity) bool {
	return id.Role == auth.RoleAdmin
}

// ListScope returns the listing scope for the identity: unscoped for admins,
// owner-scoped otherwise.
func (p Policy) ListScope(id auth.Identity) Scope {
	if p.CanListAll(id) {
		return Scope{All: true}
	}
	return Scope{OwnerID: id.UserID}
}

// CanView reports whether the identity may read the given order: admins
// always, owners their own.
func (Policy) CanView(id auth.Identity, o *Order) bool {
	return id.Role == auth.RoleAdmin || o.UserID == id.UserID
}
