package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/averdin/tienda-api/internal/domain/auth"
	"github.com/averdin/tienda-api/internal/domain/order"
	"github.com/averdin/tienda-api/internal/domain/user"
)

const (
	// reserveStockSQL is the conditional decrement: it only touches rows that
	// still have enough stock, so two concurrent reservations can never drive
	// stock negative. Zero rows affected means the check failed as of this
	// transaction's snapshot.
	reserveStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`

	productStockSQL = `SELECT stock FROM products WHERE id = $1`

	insertOrderSQL = `INSERT INTO orders (id, user_id, total) VALUES ($1, $2, $3)
		RETURNING created_at`

	insertLineSQL = `INSERT INTO order_lines (order_id, position, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4, $5)`

	orderColumns = `o.id, o.total, o.created_at,
		u.id, u.name, u.email, u.role, u.created_at`

	getOrderByIDSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.id = $1`

	listOrdersByOwnerSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id DESC`

	listAllOrdersSQL = `SELECT ` + orderColumns + `
		FROM orders o JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id DESC`

	getLinesSQL = `SELECT l.order_id, l.product_id, p.name, l.quantity, l.unit_price
		FROM order_lines l JOIN products p ON p.id = l.product_id
		WHERE l.order_id = ANY($1)
		ORDER BY l.order_id, l.position`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create reserves stock and persists the order with its lines in a single
// transaction. Either every stock decrement and the order commit together,
// or nothing does.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, l := range o.Lines {
		tag, err := tx.Exec(ctx, reserveStockSQL, l.ProductID, l.Quantity)
		if err != nil {
			return classifyTxError(err, "reserving stock")
		}
		if tag.RowsAffected() == 0 {
			// Re-derive the failure as of this transaction's snapshot: the
			// product either ran short since the caller's pre-check, or was
			// deleted from the catalog.
			var available int
			err := tx.QueryRow(ctx, productStockSQL, l.ProductID).Scan(&available)
			if errors.Is(err, pgx.ErrNoRows) {
				return &order.ProductNotFoundError{ProductIDs: []string{l.ProductID}}
			}
			if err != nil {
				return fmt.Errorf("checking stock for %q: %w", l.ProductID, err)
			}
			return &order.InsufficientStockError{
				ProductID: l.ProductID,
				Requested: l.Quantity,
				Available: available,
			}
		}
	}

	if err := tx.QueryRow(ctx, insertOrderSQL, o.ID, o.UserID, o.Total).Scan(&o.CreatedAt); err != nil {
		return classifyTxError(err, "inserting order")
	}

	for i, l := range o.Lines {
		if _, err := tx.Exec(ctx, insertLineSQL, o.ID, i, l.ProductID, l.Quantity, l.UnitPrice); err != nil {
			return classifyTxError(err, "inserting order line")
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return classifyTxError(err, "committing order")
	}
	return nil
}

// GetByID returns the order with its lines and owner populated.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	if err := r.loadLines(ctx, []*order.Order{&o}); err != nil {
		return nil, err
	}
	return &o, nil
}

// ListByOwner returns the owner's orders, newest first.
func (r *OrderRepository) ListByOwner(ctx context.Context, userID string) ([]order.Order, error) {
	return r.list(ctx, listOrdersByOwnerSQL, userID)
}

// ListAll returns every order in the system, newest first.
func (r *OrderRepository) ListAll(ctx context.Context) ([]order.Order, error) {
	return r.list(ctx, listAllOrdersSQL)
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}

	refs := make([]*order.Order, len(orders))
	for i := range orders {
		refs[i] = &orders[i]
	}
	if err := r.loadLines(ctx, refs); err != nil {
		return nil, err
	}
	return orders, nil
}

// loadLines populates Lines for every given order with one batched query.
func (r *OrderRepository) loadLines(ctx context.Context, orders []*order.Order) error {
	if len(orders) == 0 {
		return nil
	}

	ids := make([]string, len(orders))
	byID := make(map[string]*order.Order, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
		byID[o.ID] = o
	}

	rows, err := r.pool.Query(ctx, getLinesSQL, ids)
	if err != nil {
		return fmt.Errorf("loading order lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			orderID string
			l       order.Line
		)
		if err := rows.Scan(&orderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPrice); err != nil {
			return fmt.Errorf("scanning order line: %w", err)
		}
		byID[orderID].Lines = append(byID[orderID].Lines, l)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("loading order lines: %w", err)
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o    order.Order
		u    user.User
		role string
	)
	err := row.Scan(
		&o.ID, &o.Total, &o.CreatedAt,
		&u.ID, &u.Name, &u.Email, &role, &u.CreatedAt,
	)
	u.Role = auth.Role(role)
	o.UserID = u.ID
	o.Owner = &u
	return o, err
}

// classifyTxError wraps serialization failures and deadlocks with
// order.ErrConflict so the engine knows the attempt is safe to retry.
func classifyTxError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected:
			return fmt.Errorf("%s: %w: %w", op, order.ErrConflict, err)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
