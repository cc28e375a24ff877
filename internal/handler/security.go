package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/averdin/tienda-api/internal/domain/auth"
)

type identityKey struct{}

// authenticate extracts and verifies the bearer token, storing the resulting
// identity in the request context. Requests without a valid token get 401.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(raw, "Bearer ")
		if !ok || token == "" {
			h.writeError(w, r, auth.ErrUnauthenticated)
			return
		}

		id, err := h.tokens.Verify(token, time.Now())
		if err != nil {
			h.writeError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), identityKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// identityFrom returns the authenticated identity stored by authenticate.
func identityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(auth.Identity)
	return id, ok
}
