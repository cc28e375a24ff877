package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenCodec_RoundTrip(t *testing.T) {
	c := NewTokenCodec([]byte("test-secret"), time.Hour)
	now := time.Now()

	token := c.Issue(Identity{UserID: "u1", Role: RoleAdmin}, now)

	id, err := c.Verify(token, now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "u1", id.UserID)
	assert.Equal(t, RoleAdmin, id.Role)
}

func TestTokenCodec_Expired(t *testing.T) {
	c := NewTokenCodec([]byte("test-secret"), time.Hour)
	now := time.Now()

	token := c.Issue(Identity{UserID: "u1", Role: RoleUser}, now)

	_, err := c.Verify(token, now.Add(2*time.Hour))
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenCodec_TamperedPayload(t *testing.T) {
	c := NewTokenCodec([]byte("test-secret"), time.Hour)
	now := time.Now()

	// Re-encode the payload with the role swapped to admin, keeping the
	// original signature.
	token := c.Issue(Identity{UserID: "u1", Role: RoleUser}, now)
	forged := NewTokenCodec([]byte("other-secret"), time.Hour).
		Issue(Identity{UserID: "u1", Role: RoleAdmin}, now)
	parts := strings.SplitN(token, ".", 2)
	forgedParts := strings.SplitN(forged, ".", 2)

	_, err := c.Verify(forgedParts[0]+"."+parts[1], now)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenCodec_WrongSecret(t *testing.T) {
	issuer := NewTokenCodec([]byte("secret-a"), time.Hour)
	verifier := NewTokenCodec([]byte("secret-b"), time.Hour)
	now := time.Now()

	token := issuer.Issue(Identity{UserID: "u1", Role: RoleUser}, now)

	_, err := verifier.Verify(token, now)
	require.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokenCodec_Garbage(t *testing.T) {
	c := NewTokenCodec([]byte("test-secret"), time.Hour)

	for _, token := range []string{"", "no-dot", "a.b.c.d", "!!!.???"} {
		_, err := c.Verify(token, time.Now())
		assert.ErrorIs(t, err, ErrUnauthenticated, "token %q", token)
	}
}
