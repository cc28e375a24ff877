package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/averdin/tienda-api/internal/domain/auth"
	"github.com/averdin/tienda-api/internal/domain/order"
	"github.com/averdin/tienda-api/internal/domain/product"
	"github.com/averdin/tienda-api/internal/domain/user"
)

type errorResponse struct {
	Error string `json:"error"`
}

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

// writeError translates domain errors into HTTP responses. Anything without a
// mapping is an internal error: logged with its cause, reported without it.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		status = http.StatusInternalServerError
		msg    = "internal error"
	)

	var (
		badReq     *badRequestError
		invalidQty *order.InvalidQuantityError
		missing    *order.ProductNotFoundError
		outOfStock *order.InsufficientStockError
	)
	switch {
	case errors.As(err, &badReq):
		status, msg = http.StatusBadRequest, badReq.msg
	case errors.Is(err, auth.ErrUnauthenticated), errors.Is(err, user.ErrInvalidCredentials):
		status, msg = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, auth.ErrForbidden):
		status, msg = http.StatusForbidden, "forbidden"
	case errors.Is(err, user.ErrNotFound), errors.Is(err, product.ErrNotFound), errors.Is(err, order.ErrNotFound):
		status, msg = http.StatusNotFound, "not found"
	case errors.Is(err, user.ErrEmailTaken):
		status, msg = http.StatusConflict, "email already registered"
	case errors.Is(err, order.ErrEmptyItems):
		status, msg = http.StatusUnprocessableEntity, err.Error()
	case errors.As(err, &invalidQty):
		status, msg = http.StatusUnprocessableEntity, invalidQty.Error()
	case errors.As(err, &missing):
		status, msg = http.StatusUnprocessableEntity, missing.Error()
	case errors.As(err, &outOfStock):
		status, msg = http.StatusConflict, outOfStock.Error()
	case errors.Is(err, order.ErrRetryExhausted):
		status, msg = http.StatusConflict, "order could not be placed, try again"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusServiceUnavailable, "service unavailable"
	}

	if status >= http.StatusInternalServerError {
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	writeJSON(w, r, status, errorResponse{Error: msg})
}
