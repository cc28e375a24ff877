// Package handler exposes the HTTP API: authentication, catalog reads, and
// order placement.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/averdin/tienda-api/internal/domain/auth"
	"github.com/averdin/tienda-api/internal/domain/order"
	"github.com/averdin/tienda-api/internal/domain/product"
	"github.com/averdin/tienda-api/internal/domain/user"
)

// OrderService is the order surface the handler needs.
type OrderService interface {
	PlaceOrder(ctx context.Context, id auth.Identity, reqs []order.LineRequest) (*order.Order, error)
	List(ctx context.Context, id auth.Identity) ([]order.Order, error)
	Get(ctx context.Context, id auth.Identity, orderID string) (*order.Order, error)
}

// UserService is the account surface the handler needs.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (*user.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	List(ctx context.Context, id auth.Identity) ([]user.User, error)
}

// ProductCatalog is the read-only catalog surface the handler needs.
type ProductCatalog interface {
	List(ctx context.Context, f product.Filter) ([]product.Product, error)
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Handler routes API requests to the domain services.
type Handler struct {
	orders  OrderService
	users   UserService
	catalog ProductCatalog
	tokens  *auth.TokenCodec
}

// New creates a Handler.
func New(orders OrderService, users UserService, catalog ProductCatalog, tokens *auth.TokenCodec) *Handler {
	return &Handler{
		orders:  orders,
		users:   users,
		catalog: catalog,
		tokens:  tokens,
	}
}

// Routes builds the API router. Catalog reads and auth endpoints are public;
// everything else requires a bearer token.
func (h *Handler) Routes() *chi.Mux {
	r := chi.NewRouter()

	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)

	r.Get("/products", h.listProducts)
	r.Get("/products/{productID}", h.getProduct)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Post("/orders", h.placeOrder)
		r.Get("/orders", h.listOrders)
		r.Get("/orders/{orderID}", h.getOrder)

		r.Get("/users", h.listUsers)
	})

	return r
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zctx.From(r.Context()).Warn("Encode response", zap.Error(err))
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
