package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	orderDomain "github.com/allisson/orders/internal/order/domain"
)

// MySQLOrderRepository implements order persistence for MySQL databases.
// UUIDs are stored as BINARY(16).
type MySQLOrderRepository struct {
	db *sql.DB
}

// NewMySQLOrderRepository creates a new MySQL order repository instance.
func NewMySQLOrderRepository(db *sql.DB) *MySQLOrderRepository {
	return &MySQLOrderRepository{db: db}
}

const mysqlOrderColumns = `id, order_number, customer_id, status, total_cents, notes, idempotency_key, created_at, updated_at, deleted_at`

func scanMySQLOrder(scan func(dest ...any) error) (*orderDomain.Order, error) {
	var order orderDomain.Order
	var id, customerID []byte

	err := scan(
		&id,
		&order.OrderNumber,
		&customerID,
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

	order.ID, err = uuid.FromBytes(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse order id")
	}
	order.CustomerID, err = uuid.FromBytes(customerID)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse customer id")
	}
	return &order, nil
}

// Create inserts the order and its items. Must run inside a transaction so
// the rows commit or roll back together with the stock mutation.
func (m *MySQLOrderRepository) Create(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO orders (id, order_number, customer_id, status, total_cents, notes, idempotency_key, created_at, updated_at, deleted_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}
	customerID, err := order.CustomerID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal customer id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		order.OrderNumber,
		customerID,
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

	return m.insertItems(ctx, order.ID, order.Items)
}

func (m *MySQLOrderRepository) insertItems(ctx context.Context, orderID uuid.UUID, items []*orderDomain.OrderItem) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO order_items (id, order_id, product_id, quantity, unit_price_cents, subtotal_cents)
			  VALUES (?, ?, ?, ?, ?, ?)`

	binOrderID, err := orderID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	for _, item := range items {
		itemID, err := item.ID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal order item id")
		}
		productID, err := item.ProductID.MarshalBinary()
		if err != nil {
			return apperrors.Wrap(err, "failed to marshal product id")
		}

		_, err = querier.ExecContext(
			ctx,
			query,
			itemID,
			binOrderID,
			productID,
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
func (m *MySQLOrderRepository) AddHistory(ctx context.Context, history *orderDomain.StatusHistory) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO order_status_history (id, order_id, previous_status, new_status, actor, note, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	id, err := history.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal history id")
	}
	orderID, err := history.OrderID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		orderID,
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

// GetByID retrieves a live order with its items and history.
func (m *MySQLOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlOrderColumns + `
			  FROM orders
			  WHERE id = ? AND deleted_at IS NULL`

	binID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal order id")
	}

	row := querier.QueryRowContext(ctx, query, binID)
	order, err := scanMySQLOrder(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orderDomain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by id")
	}

	if err := m.loadItems(ctx, order); err != nil {
		return nil, err
	}
	if err := m.loadHistory(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetByOrderNumber retrieves a live order with its items and history.
func (m *MySQLOrderRepository) GetByOrderNumber(ctx context.Context, orderNumber string) (*orderDomain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlOrderColumns + `
			  FROM orders
			  WHERE order_number = ? AND deleted_at IS NULL`

	row := querier.QueryRowContext(ctx, query, orderNumber)
	order, err := scanMySQLOrder(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orderDomain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get order by order number")
	}

	if err := m.loadItems(ctx, order); err != nil {
		return nil, err
	}
	if err := m.loadHistory(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetForUpdate locks the order row and loads its items. Status transitions
// read the current status under this lock so concurrent transitions serialize.
func (m *MySQLOrderRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlOrderColumns + `
			  FROM orders
			  WHERE id = ? AND deleted_at IS NULL
			  FOR UPDATE`

	binID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal order id")
	}

	row := querier.QueryRowContext(ctx, query, binID)
	order, err := scanMySQLOrder(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, orderDomain.ErrOrderNotFound
		}
		return nil, apperrors.Wrap(err, "failed to lock order")
	}

	if err := m.loadItems(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderIDByIdempotencyKey resolves an idempotency key against committed
// orders. Implements the durable fallback of the idempotency guard.
func (m *MySQLOrderRepository) GetOrderIDByIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id
			  FROM orders
			  WHERE idempotency_key = ? AND deleted_at IS NULL`

	var id []byte
	err := querier.QueryRowContext(ctx, query, key).Scan(&id)
	if err != nil {
		if err == sql.ErrNoRows {
			return uuid.Nil, apperrors.ErrNotFound
		}
		return uuid.Nil, apperrors.Wrap(err, "failed to get order by idempotency key")
	}

	orderID, err := uuid.FromBytes(id)
	if err != nil {
		return uuid.Nil, apperrors.Wrap(err, "failed to parse order id")
	}
	return orderID, nil
}

// UpdateStatus persists a new status for the order.
func (m *MySQLOrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status orderDomain.OrderStatus) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE orders
			  SET status = ?, updated_at = ?
			  WHERE id = ? AND deleted_at IS NULL`

	binID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	result, err := querier.ExecContext(ctx, query, status, time.Now().UTC(), binID)
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
func (m *MySQLOrderRepository) ReplaceItems(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, m.db)

	binID, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	if _, err := querier.ExecContext(ctx, `DELETE FROM order_items WHERE order_id = ?`, binID); err != nil {
		return apperrors.Wrap(err, "failed to delete order items")
	}

	if err := m.insertItems(ctx, order.ID, order.Items); err != nil {
		return err
	}

	query := `UPDATE orders
			  SET total_cents = ?, updated_at = ?
			  WHERE id = ? AND deleted_at IS NULL`

	_, err = querier.ExecContext(ctx, query, order.TotalCents, time.Now().UTC(), binID)
	if err != nil {
		return apperrors.Wrap(err, "failed to update order total")
	}
	return nil
}

// List retrieves live orders matching the filter, newest first. Items and
// history are not loaded; listings only need the order rows.
func (m *MySQLOrderRepository) List(ctx context.Context, filter ListFilter) ([]*orderDomain.Order, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlOrderColumns + ` FROM orders WHERE deleted_at IS NULL`
	args := []any{}

	if filter.CustomerID != nil {
		customerID, err := filter.CustomerID.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal customer id")
		}
		query += ` AND customer_id = ?`
		args = append(args, customerID)
	}
	if filter.Status != nil {
		query += ` AND status = ?`
		args = append(args, *filter.Status)
	}

	query += ` ORDER BY created_at DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list orders")
	}
	defer rows.Close() //nolint:errcheck

	var orders []*orderDomain.Order
	for rows.Next() {
		order, err := scanMySQLOrder(rows.Scan)
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
func (m *MySQLOrderRepository) ClearExpiredIdempotencyKeys(ctx context.Context, before time.Time) (int64, error) {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE orders
			  SET idempotency_key = NULL
			  WHERE idempotency_key IS NOT NULL AND created_at < ?`

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

func (m *MySQLOrderRepository) loadItems(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, order_id, product_id, quantity, unit_price_cents, subtotal_cents
			  FROM order_items
			  WHERE order_id = ?
			  ORDER BY id ASC`

	binID, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	rows, err := querier.QueryContext(ctx, query, binID)
	if err != nil {
		return apperrors.Wrap(err, "failed to load order items")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var item orderDomain.OrderItem
		var itemID, orderID, productID []byte

		err := rows.Scan(
			&itemID,
			&orderID,
			&productID,
			&item.Quantity,
			&item.UnitPriceCents,
			&item.SubtotalCents,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to scan order item")
		}

		if item.ID, err = uuid.FromBytes(itemID); err != nil {
			return apperrors.Wrap(err, "failed to parse order item id")
		}
		if item.OrderID, err = uuid.FromBytes(orderID); err != nil {
			return apperrors.Wrap(err, "failed to parse order id")
		}
		if item.ProductID, err = uuid.FromBytes(productID); err != nil {
			return apperrors.Wrap(err, "failed to parse product id")
		}
		order.Items = append(order.Items, &item)
	}

	return rows.Err()
}

func (m *MySQLOrderRepository) loadHistory(ctx context.Context, order *orderDomain.Order) error {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, order_id, previous_status, new_status, actor, note, created_at
			  FROM order_status_history
			  WHERE order_id = ?
			  ORDER BY created_at ASC`

	binID, err := order.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal order id")
	}

	rows, err := querier.QueryContext(ctx, query, binID)
	if err != nil {
		return apperrors.Wrap(err, "failed to load order status history")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var entry orderDomain.StatusHistory
		var entryID, orderID []byte

		err := rows.Scan(
			&entryID,
			&orderID,
			&entry.PreviousStatus,
			&entry.NewStatus,
			&entry.Actor,
			&entry.Note,
			&entry.CreatedAt,
		)
		if err != nil {
			return apperrors.Wrap(err, "failed to scan order status history")
		}

		if entry.ID, err = uuid.FromBytes(entryID); err != nil {
			return apperrors.Wrap(err, "failed to parse history id")
		}
		if entry.OrderID, err = uuid.FromBytes(orderID); err != nil {
			return apperrors.Wrap(err, "failed to parse order id")
		}
		order.History = append(order.History, &entry)
	}

	return rows.Err()
}
