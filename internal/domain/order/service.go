package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/averdin/tienda-api/internal/domain/auth"
	"github.com/averdin/tienda-api/internal/domain/product"
)

const (
	reserveRetries      = 3
	reserveRetryBackoff = 25 * time.Millisecond
)

// Service is the pricing and reservation engine: it turns a submitted item
// list into a durable, correctly priced, stock-safe order.
type Service struct {
	products product.Repository
	orders   Repository
	policy   Policy
}

// NewService creates an order Service with the required domain dependencies.
func NewService(products product.Repository, orders Repository, policy Policy) *Service {
	return &Service{
		products: products,
		orders:   orders,
		policy:   policy,
	}
}

// PlaceOrder validates and prices the requested lines against a catalog
// snapshot, then persists the order together with the matching stock
// decrements in one transaction.
//
// Duplicate product IDs are merged into a single line with summed quantity
// before any check runs, so quantity splitting cannot sidestep the per-line
// stock check. Unit prices are frozen from the snapshot; the stock check is
// re-derived inside the transaction, so two concurrent placements can never
// drive stock negative. Lost conflicts are retried with backoff before
// giving up with ErrRetryExhausted.
func (s *Service) PlaceOrder(ctx context.Context, id auth.Identity, reqs []LineRequest) (*Order, error) {
	if !s.policy.CanCreate(id) {
		return nil, auth.ErrForbidden
	}
	if len(reqs) == 0 {
		return nil, ErrEmptyItems
	}

	merged, err := mergeLines(reqs)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(merged))
	for i, m := range merged {
		ids[i] = m.ProductID
	}

	snap, err := s.products.Snapshot(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "catalog snapshot")
	}
	if len(snap.Missing) > 0 {
		return nil, &ProductNotFoundError{ProductIDs: snap.Missing}
	}

	// Price each line from the snapshot. The availability check here is
	// advisory: it produces a precise error without opening a transaction,
	// while the authoritative check happens in the repository's conditional
	// decrement.
	lines := make([]Line, len(merged))
	total := decimal.Zero
	for i, m := range merged {
		p := snap.Products[m.ProductID]
		if m.Quantity > p.Stock {
			return nil, &InsufficientStockError{
				ProductID: m.ProductID,
				Requested: m.Quantity,
				Available: p.Stock,
			}
		}
		lines[i] = Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    m.Quantity,
			UnitPrice:   p.Price,
		}
		total = total.Add(lines[i].Subtotal())
	}

	o := &Order{
		ID:     uuid.New().String(),
		UserID: id.UserID,
		Total:  total.Round(2),
		Lines:  lines,
	}

	backoff := retry.WithMaxRetries(reserveRetries, retry.NewFibonacci(reserveRetryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, o); err != nil {
			if errors.Is(err, ErrConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			return nil, ErrRetryExhausted
		}
		return nil, errors.Wrap(err, "create order")
	}

	return o, nil
}

// List returns orders visible to the identity: every order for admins, own
// orders otherwise. Results are ordered by creation time descending.
func (s *Service) List(ctx context.Context, id auth.Identity) ([]Order, error) {
	scope := s.policy.ListScope(id)
	if scope.All {
		return s.orders.ListAll(ctx)
	}
	return s.orders.ListByOwner(ctx, scope.OwnerID)
}

// Get returns a single order if the identity may view it. Ownership is only
// known after the fetch, so the policy check runs on the loaded order; a
// denial reveals nothing beyond auth.ErrForbidden.
func (s *Service) Get(ctx context.Context, id auth.Identity, orderID string) (*Order, error) {
	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !s.policy.CanView(id, o) {
		return nil, auth.ErrForbidden
	}
	return o, nil
}

// mergeLines validates quantities and collapses duplicate product IDs into
// one line with the summed quantity, preserving first-seen order.
func mergeLines(reqs []LineRequest) ([]LineRequest, error) {
	merged := make([]LineRequest, 0, len(reqs))
	index := make(map[string]int, len(reqs))
	for _, r := range reqs {
		if r.Quantity < 1 {
			return nil, &InvalidQuantityError{ProductID: r.ProductID, Quantity: r.Quantity}
		}
		if i, ok := index[r.ProductID]; ok {
			merged[i].Quantity += r.Quantity
			continue
		}
		index[r.ProductID] = len(merged)
		merged = append(merged, r)
	}
	return merged, nil
}
