package handler

import (
	"net/http"

	"github.com/averdin/tienda-api/internal/domain/auth"
)

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthenticated)
		return
	}

	users, err := h.users.List(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]userResponse, len(users))
	for i, u := range users {
		resp[i] = userResponse{
			ID:        u.ID,
			Name:      u.Name,
			Email:     u.Email,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt,
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}
