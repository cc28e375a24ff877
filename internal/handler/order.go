package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/averdin/tienda-api/internal/domain/auth"
	"github.com/averdin/tienda-api/internal/domain/order"
)

type placeOrderRequest struct {
	Items []orderItemRequest `json:"items"`
}

type orderItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type orderResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"userId"`
	Owner     *userResponse       `json:"owner,omitempty"`
	Total     float64             `json:"total"`
	Lines     []orderLineResponse `json:"lines"`
	CreatedAt time.Time           `json:"createdAt"`
}

type orderLineResponse struct {
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Subtotal    float64 `json:"subtotal"`
}

func toOrderResponse(o order.Order) orderResponse {
	resp := orderResponse{
		ID:        o.ID,
		UserID:    o.UserID,
		Total:     o.Total.InexactFloat64(),
		Lines:     make([]orderLineResponse, len(o.Lines)),
		CreatedAt: o.CreatedAt,
	}
	if o.Owner != nil {
		resp.Owner = &userResponse{
			ID:        o.Owner.ID,
			Name:      o.Owner.Name,
			Email:     o.Owner.Email,
			Role:      string(o.Owner.Role),
			CreatedAt: o.Owner.CreatedAt,
		}
	}
	for i, l := range o.Lines {
		resp.Lines[i] = orderLineResponse{
			ProductID:   l.ProductID,
			ProductName: l.ProductName,
			Quantity:    l.Quantity,
			UnitPrice:   l.UnitPrice.InexactFloat64(),
			Subtotal:    l.Subtotal().InexactFloat64(),
		}
	}
	return resp
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthenticated)
		return
	}

	var req placeOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, &badRequestError{msg: "invalid request body"})
		return
	}

	reqs := make([]order.LineRequest, len(req.Items))
	for i, item := range req.Items {
		reqs[i] = order.LineRequest{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	o, err := h.orders.PlaceOrder(r.Context(), id, reqs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, toOrderResponse(*o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthenticated)
		return
	}

	orders, err := h.orders.List(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]orderResponse, len(orders))
	for i, o := range orders {
		resp[i] = toOrderResponse(o)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFrom(r.Context())
	if !ok {
		h.writeError(w, r, auth.ErrUnauthenticated)
		return
	}

	o, err := h.orders.Get(r.Context(), id, chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, toOrderResponse(*o))
}
