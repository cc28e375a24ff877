package order

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/averdin/tienda-api/internal/domain/user"
)

// Sentinel errors for order placement and reads.
var (
	// ErrNotFound is returned when a requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrEmptyItems is returned when a placement request has no line items.
	ErrEmptyItems = errors.New("items required")

	// ErrConflict marks a reservation attempt that lost to a concurrent
	// writer and is safe to retry. Repositories wrap serialization failures
	// and deadlocks with it.
	ErrConflict = errors.New("reservation conflict")

	// ErrRetryExhausted is returned when placement keeps losing reservation
	// conflicts after all retries.
	ErrRetryExhausted = errors.New("reservation conflict: retries exhausted")
)

// InvalidQuantityError indicates a line item with a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
	Quantity  int
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity %d for product %s: must be at least 1", e.Quantity, e.ProductID)
}

// ProductNotFoundError names every requested product missing from the catalog.
type ProductNotFoundError struct {
	ProductIDs []string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("products not found: %s", strings.Join(e.ProductIDs, ", "))
}

// InsufficientStockError indicates a line quantity exceeding the product's
// available stock.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Order is an immutable record of a purchase: who bought what, at what price,
// for what total. Lines keep their submission order for display.
type Order struct {
	ID        string
	UserID    string
	Owner     *user.User // populated on reads
	Total     decimal.Decimal
	CreatedAt time.Time
	Lines     []Line
}

// Line is one priced line item. UnitPrice is frozen at purchase time and
// never tracks later catalog price changes.
type Line struct {
	ProductID   string
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Subtotal returns UnitPrice * Quantity.
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineRequest is a client-submitted (product, quantity) pair.
type LineRequest struct {
	ProductID string
	Quantity  int
}

// Repository defines persistence operations for orders.
//
// Create must write the order, its lines, and the matching stock decrements
// as one atomic unit: either everything commits or nothing does. When a
// product's stock no longer covers its line as of the transaction snapshot,
// Create returns *InsufficientStockError; when it lost to a concurrent
// writer, it returns an error wrapping ErrConflict.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	ListByOwner(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context) ([]Order, error)
}
