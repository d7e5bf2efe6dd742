// Package repository implements order persistence for PostgreSQL and MySQL.
// An order row is always written together with its items; the status history
// is append-only and never updated or deleted.
package repository

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	orderDomain "github.com/allisson/orders/internal/order/domain"
)

// ListFilter narrows List results. Nil fields are ignored.
type ListFilter struct {
	CustomerID *uuid.UUID
	Status     *orderDomain.OrderStatus
	Limit      int
	Offset     int
}

// classifyUniqueViolation maps a duplicate key error onto the violated
// business rule. The constraint name carries the column for PostgreSQL; MySQL
// only exposes the key name inside the message.
func classifyUniqueViolation(err error) error {
	name := database.UniqueConstraintName(err)
	if name == "" {
		name = err.Error()
	}
	switch {
	case strings.Contains(name, "idempotency"):
		return orderDomain.ErrDuplicateIdempotencyKey
	case strings.Contains(name, "order_number"):
		return orderDomain.ErrDuplicateOrderNumber
	default:
		return apperrors.Wrap(err, "unique constraint violation on orders")
	}
}

// PostgreSQLOrderRepository implements order persistence for PostgreSQL databases.
type PostgreSQLOrderRepository struct {
	db *sql.DB
}

// NewPostgreSQLOrderRepository creates a new PostgreSQL order repository instance.
func NewPostgreSQLOrderRepository(db *sql.DB) *PostgreSQLOrderRepository {
	return &PostgreSQLOrderRepository{db: db}
}

// Create inserts the order and its items. Must run inside a transaction so
// the rows commit or roll back together with the stock mutation.
func (p *PostgreSQLOrderRepository) Create(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO orders (id, order_number, customer_id, status, total_cents, notes, idempotency_key, created_at, updated_at, deleted_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		order.ID,
		order.OrderNumber,
		order.CustomerID,
		order.Status,
		order.TotalCents,
		order.Notes,
		order.IdempotencyKey,
		order.CreatedAt,
		order.UpdatedAt,
		order.DeletedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return classifyUniqueViolation(err)
		}
		return apperrors.Wrap(err, "failed to create order")
	}

	return p.insertItems(ctx, order.ID, order.Items)
}

func (p *PostgreSQLOrderRepository) insertItems(ctx context.Context, orderID uuid.UUID, items []*orderDomain.OrderItem) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO order_items (id, order_id, product_id, quantity, unit_price_cents, subtotal_cents)
			  VALUES ($1, $2, $3, $4, $5, $6)`

	for _, item := range items {
		_, err := querier.ExecContext(
			ctx,
			query,
			item.ID,
			orderID,
			item.ProductID,
			item.Quantity,
			item.UnitPriceCents,
			item.SubtotalCents,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to create order item")
		}
	}
	return nil
}

// AddHistory appends a status history entry.
func (p *PostgreSQLOrderRepository) AddHistory(ctx context.Context, history *orderDomain.StatusHistory) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO order_status_history (id, order_id, previous_status, new_status, actor, note, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		history.ID,
		history.OrderID,
		history.PreviousStatus,
		history.NewStatus,
		history.Actor,
		history.Note,
		history.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to add order status history")
	}
	return nil
}

const pgOrderColumns = `id, order_number, customer_id, status, total_cents, notes, idempotency_key, created_at, updated_at, deleted_at`

func (p *PostgreSQLOrderRepository) scanOrder(row interface{ Scan(dest ...any) error }) (*orderDomain.Order, error) {
	var order orderDomain.Order
	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&order.CustomerID,
		&order.Status,
		&order.TotalCents,
		&order.Notes,
		&order.IdempotencyKey,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetByID retrieves a live order with its items and history.
func (p *PostgreSQLOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgOrderColumns + `
			  FROM orders
			  WHERE id = $1 AND deleted_at IS NULL`

	order, err := p.scanOrder(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orderDomain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by id")
	}

	if err := p.loadItems(ctx, order); err != nil {
		return nil, err
	}
	if err := p.loadHistory(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByOrderNumber retrieves a live order with its items and history.
func (p *PostgreSQLOrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*orderDomain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgOrderColumns + `
			  FROM orders
			  WHERE order_number = $1 AND deleted_at IS NULL`

	order, err := p.scanOrder(querier.QueryRowContext(ctx, query, orderNumber))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orderDomain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by order number")
	}

	if err := p.loadItems(ctx, order); err != nil {
		return nil, err
	}
	if err := p.loadHistory(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetForUpdate locks the order row and loads its items. Status transitions
// read the current status under this lock so concurrent transitions serialize.
func (p *PostgreSQLOrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgOrderColumns + `
			  FROM orders
			  WHERE id = $1 AND deleted_at IS NULL
			  FOR UPDATE`

	order, err := p.scanOrder(querier.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orderDomain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to lock order")
	}

	if err := p.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderIDByIdempotencyKey resolves an idempotency key against committed
// orders. Implements the durable fallback of the idempotency guard.
func (p *PostgreSQLOrderRepository) GetOrderIDByIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id
			  FROM orders
			  WHERE idempotency_key = $1 AND deleted_at IS NULL`

	var id uuid.UUID
	err := querier.QueryRowContext(ctx, query, key).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, apperrors.ErrNotFound
		}
		return uuid.Nil, apperrors.Wrap(err, "failed to get order by idempotency key")
	}
	return id, nil
}

// UpdateStatus persists a new status for the order.
func (p *PostgreSQLOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status orderDomain.OrderStatus) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE orders
			  SET status = $1, updated_at = $2
			  WHERE id = $3 AND deleted_at IS NULL`

	result, err := querier.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return orderDomain.ErrOrderNotFound
	}
	return nil
}

// ReplaceItems swaps the order's line items and persists the new total. Must
// run inside a transaction together with the compensating stock adjustments.
func (p *PostgreSQLOrderRepository) ReplaceItems(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, p.db)

	if _, err := querier.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = $1`, order.ID); err != nil {
		return apperrors.Wrap(err, "failed to delete order items")
	}

	if err := p.insertItems(ctx, order.ID, order.Items); err != nil {
		return err
	}

	query := `UPDATE orders
			  SET total_cents = $1, updated_at = $2
			  WHERE id = $3 AND deleted_at IS NULL`

	_, err := querier.ExecContext(ctx, query, order.TotalCents, time.Now().UTC(), order.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order total")
	}
	return nil
}

// List retrieves live orders matching the filter, newest first. Items and
// history are not loaded; listings only need the order rows.
func (p *PostgreSQLOrderRepository) List(ctx context.Context, filter ListFilter) ([]*orderDomain.Order, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgOrderColumns + ` FROM orders WHERE deleted_at IS NULL`
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		query += ` AND customer_id = $` + strconv.Itoa(len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += ` AND status = $` + strconv.Itoa(len(args))
	}

	args = append(args, filter.Limit)
	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(len(args))
	args = append(args, filter.Offset)
	query += ` OFFSET $` + strconv.Itoa(len(args))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}
	defer rows.Close() //nolint:errcheck

	var orders []*orderDomain.Order
	for rows.Next() {
		order, err := p.scanOrder(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan order")
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate orders")
	}

	return orders, nil
}

// ClearExpiredIdempotencyKeys nulls idempotency keys on orders created before
// the cutoff, freeing the unique index for key reuse after the TTL.
func (p *PostgreSQLOrderRepository) ClearExpiredIdempotencyKeys(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE orders
			  SET idempotency_key = NULL
			  WHERE idempotency_key IS NOT NULL AND created_at < $1`

	result, err := querier.ExecContext(ctx, query, before)
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to clear expired idempotency keys")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.Wrap(err, "failed to read affected rows")
	}
	return affected, nil
}

func (p *PostgreSQLOrderRepository) loadItems(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, order_id, product_id, quantity, unit_price_cents, subtotal_cents
			  FROM order_items
			  WHERE order_id = $1
			  ORDER BY id ASC`

	rows, err := querier.QueryContext(ctx, query, order.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to load order items")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var item orderDomain.OrderItem
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.SubtotalCents,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to scan order item")
		}
		order.Items = append(order.Items, &item)
	}

	return rows.Err()
}

func (p *PostgreSQLOrderRepository) loadHistory(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, order_id, previous_status, new_status, actor, note, created_at
			  FROM order_status_history
			  WHERE order_id = $1
			  ORDER BY created_at ASC`

	rows, err := querier.QueryContext(ctx, query, order.ID)
	if err != nil {
		return apperrors.Wrap(err, "failed to load order status history")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var entry orderDomain.StatusHistory
		err := rows.Scan(
			&entry.ID,
			&entry.OrderID,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.Actor,
			&entry.Note,
			&entry.CreatedAt,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to scan order status history")
		}
		order.History = append(order.History, &entry)
	}

	return rows.Err()
}
