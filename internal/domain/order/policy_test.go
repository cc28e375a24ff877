package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/averdin/tienda-api/internal/domain/auth"
)

func TestPolicy_CanCreate(t *testing.T) {
	var p Policy

	assert.True(t, p.CanCreate(auth.Identity{UserID: "u1", Role: auth.RoleUser}))
	assert.True(t, p.CanCreate(auth.Identity{UserID: "a1", Role: auth.RoleAdmin}))
	assert.False(t, p.CanCreate(auth.Identity{}))
	assert.False(t, p.CanCreate(auth.Identity{UserID: "u1", Role: "superuser"}))
}

func TestPolicy_ListScope(t *testing.T) {
	var p Policy

	tests := []struct {
		name string
		id   auth.Identity
		want Scope
	}{
		{
			name: "user scoped to own orders",
			id:   auth.Identity{UserID: "u1", Role: auth.RoleUser},
			want: Scope{OwnerID: "u1"},
		},
		{
			name: "admin unscoped",
			id:   auth.Identity{UserID: "a1", Role: auth.RoleAdmin},
			want: Scope{All: true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.ListScope(tt.id))
		})
	}
}

func TestPolicy_CanView(t *testing.T) {
	var p Policy
	o := &Order{ID: "o1", UserID: "u1"}

	assert.True(t, p.CanView(auth.Identity{UserID: "u1", Role: auth.RoleUser}, o))
	assert.True(t, p.CanView(auth.Identity{UserID: "a1", Role: auth.RoleAdmin}, o))
	assert.False(t, p.CanView(auth.Identity{UserID: "u2", Role: auth.RoleUser}, o))
}

func TestPolicy_CanListAll(t *testing.T) {
	var p Policy

	assert.False(t, p.CanListAll(auth.Identity{UserID: "u1", Role: auth.RoleUser}))
	assert.True(t, p.CanListAll(auth.Identity{UserID: "a1", Role: auth.RoleAdmin}))
}
