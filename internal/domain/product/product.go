package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product is a catalog item available for purchase. Price and Stock are the
// live catalog values; order lines capture their own price snapshot at
// purchase time.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	CreatedAt   time.Time
}

// Filter narrows catalog listings.
type Filter struct {
	Category string
	Limit    int
	Offset   int
}

// Snapshot is a point-in-time view of a set of products, keyed by ID.
// Requested IDs that do not exist are reported in Missing rather than
// silently omitted. A snapshot alone is not enough to reserve stock safely;
// the order repository re-checks availability inside its transaction.
type Snapshot struct {
	Products map[string]Product
	Missing  []string
}

// Repository defines read operations for the product catalog.
type Repository interface {
	List(ctx context.Context, f Filter) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Snapshot(ctx context.Context, ids []string) (*Snapshot, error)
}
