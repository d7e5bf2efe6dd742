package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/orders/internal/errors"
	orderDomain "github.com/allisson/orders/internal/order/domain"
)

var orderColumns = []string{
	"id", "order_number", "customer_id", "status", "total_cents", "notes",
	"idempotency_key", "created_at", "updated_at", "deleted_at",
}

var itemColumns = []string{
	"id", "order_id", "product_id", "quantity", "unit_price_cents", "subtotal_cents",
}

var historyColumns = []string{
	"id", "order_id", "previous_status", "new_status", "actor", "note", "created_at",
}

func newOrder() *orderDomain.Order {
	now := time.Now().UTC()
	key := "req-0001"
	order := &orderDomain.Order{
		ID:             uuid.Must(uuid.NewV7()),
		OrderNumber:    orderDomain.NewOrderNumber(now),
		CustomerID:     uuid.Must(uuid.NewV7()),
		Status:         orderDomain.OrderStatusPending,
		Notes:          "leave at the door",
		IdempotencyKey: &key,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	order.Items = []*orderDomain.OrderItem{
		{
			ID:             uuid.Must(uuid.NewV7()),
			OrderID:        order.ID,
			ProductID:      uuid.Must(uuid.NewV7()),
			Quantity:       2,
			UnitPriceCents: 1500,
		},
	}
	order.RecalculateTotal()
	return order
}

func orderRow(order *orderDomain.Order) *sqlmock.Rows {
	return sqlmock.NewRows(orderColumns).AddRow(
		order.ID, order.OrderNumber, order.CustomerID, order.Status,
		order.TotalCents, order.Notes, order.IdempotencyKey,
		order.CreatedAt, order.UpdatedAt, order.DeletedAt,
	)
}

func itemRows(order *orderDomain.Order) *sqlmock.Rows {
	rows := sqlmock.NewRows(itemColumns)
	for _, item := range order.Items {
		rows.AddRow(item.ID, item.OrderID, item.ProductID, item.Quantity,
			item.UnitPriceCents, item.SubtotalCents)
	}
	return rows
}

func TestPostgreSQLOrderRepository_Create(t *testing.T) {
	t.Run("InsertsOrderAndItems", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		order := newOrder()
		mock.ExpectExec("INSERT INTO orders").
			WithArgs(
				order.ID, order.OrderNumber, order.CustomerID, order.Status,
				order.TotalCents, order.Notes, order.IdempotencyKey,
				order.CreatedAt, order.UpdatedAt, nil,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("INSERT INTO order_items").
			WithArgs(
				order.Items[0].ID, order.ID, order.Items[0].ProductID,
				order.Items[0].Quantity, order.Items[0].UnitPriceCents,
				order.Items[0].SubtotalCents,
			).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLOrderRepository(db)
		require.NoError(t, repo.Create(context.Background(), order))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("DuplicateIdempotencyKey", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		mock.ExpectExec("INSERT INTO orders").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_idempotency_key_key"})

		repo := NewPostgreSQLOrderRepository(db)
		err = repo.Create(context.Background(), newOrder())
		assert.ErrorIs(t, err, orderDomain.ErrDuplicateIdempotencyKey)
		assert.True(t, apperrors.Is(err, apperrors.ErrConflict))
	})

	t.Run("DuplicateOrderNumber", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		mock.ExpectExec("INSERT INTO orders").
			WillReturnError(&pq.Error{Code: "23505", Constraint: "orders_order_number_key"})

		repo := NewPostgreSQLOrderRepository(db)
		err = repo.Create(context.Background(), newOrder())
		assert.ErrorIs(t, err, orderDomain.ErrDuplicateOrderNumber)
	})
}

func TestPostgreSQLOrderRepository_GetByID(t *testing.T) {
	t.Run("LoadsItemsAndHistory", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		order := newOrder()
		previous := orderDomain.OrderStatusPending

		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(order.ID).
			WillReturnRows(orderRow(order))
		mock.ExpectQuery("SELECT (.+) FROM order_items").
			WithArgs(order.ID).
			WillReturnRows(itemRows(order))
		mock.ExpectQuery("SELECT (.+) FROM order_status_history").
			WithArgs(order.ID).
			WillReturnRows(sqlmock.NewRows(historyColumns).
				AddRow(uuid.Must(uuid.NewV7()), order.ID, nil,
					orderDomain.OrderStatusPending, "system", "", order.CreatedAt).
				AddRow(uuid.Must(uuid.NewV7()), order.ID, &previous,
					orderDomain.OrderStatusConfirmed, "admin", "", order.CreatedAt.Add(time.Minute)))

		repo := NewPostgreSQLOrderRepository(db)
		got, err := repo.GetByID(context.Background(), order.ID)
		require.NoError(t, err)

		assert.Equal(t, order.OrderNumber, got.OrderNumber)
		require.Len(t, got.Items, 1)
		assert.Equal(t, int64(3000), got.TotalCents)
		require.Len(t, got.History, 2)
		assert.Nil(t, got.History[0].PreviousStatus)
		require.NotNil(t, got.History[1].PreviousStatus)
		assert.Equal(t, orderDomain.OrderStatusPending, *got.History[1].PreviousStatus)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		id := uuid.Must(uuid.NewV7())
		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(orderColumns))

		repo := NewPostgreSQLOrderRepository(db)
		_, err = repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, orderDomain.ErrOrderNotFound)
	})
}

func TestPostgreSQLOrderRepository_GetForUpdate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	order := newOrder()
	mock.ExpectQuery("SELECT (.+) FROM orders(.+)FOR UPDATE").
		WithArgs(order.ID).
		WillReturnRows(orderRow(order))
	mock.ExpectQuery("SELECT (.+) FROM order_items").
		WithArgs(order.ID).
		WillReturnRows(itemRows(order))

	repo := NewPostgreSQLOrderRepository(db)
	got, err := repo.GetForUpdate(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	require.Len(t, got.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOrderRepository_GetOrderIDByIdempotencyKey(t *testing.T) {
	t.Run("Found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		id := uuid.Must(uuid.NewV7())
		mock.ExpectQuery("SELECT id FROM orders").
			WithArgs("req-0001").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))

		repo := NewPostgreSQLOrderRepository(db)
		got, err := repo.GetOrderIDByIdempotencyKey(context.Background(), "req-0001")
		require.NoError(t, err)
		assert.Equal(t, id, got)
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		mock.ExpectQuery("SELECT id FROM orders").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		repo := NewPostgreSQLOrderRepository(db)
		_, err = repo.GetOrderIDByIdempotencyKey(context.Background(), "missing")
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestPostgreSQLOrderRepository_UpdateStatus(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		id := uuid.Must(uuid.NewV7())
		mock.ExpectExec("UPDATE orders").
			WithArgs(orderDomain.OrderStatusConfirmed, sqlmock.AnyArg(), id).
			WillReturnResult(sqlmock.NewResult(0, 1))

		repo := NewPostgreSQLOrderRepository(db)
		require.NoError(t, repo.UpdateStatus(context.Background(), id, orderDomain.OrderStatusConfirmed))
	})

	t.Run("NotFound", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		mock.ExpectExec("UPDATE orders").
			WillReturnResult(sqlmock.NewResult(0, 0))

		repo := NewPostgreSQLOrderRepository(db)
		err = repo.UpdateStatus(context.Background(), uuid.Must(uuid.NewV7()), orderDomain.OrderStatusConfirmed)
		assert.ErrorIs(t, err, orderDomain.ErrOrderNotFound)
	})
}

func TestPostgreSQLOrderRepository_ReplaceItems(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	order := newOrder()
	mock.ExpectExec("DELETE FROM order_items").
		WithArgs(order.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO order_items").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE orders").
		WithArgs(order.TotalCents, sqlmock.AnyArg(), order.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgreSQLOrderRepository(db)
	require.NoError(t, repo.ReplaceItems(context.Background(), order))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgreSQLOrderRepository_List(t *testing.T) {
	t.Run("NoFilter", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		order := newOrder()
		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(20, 0).
			WillReturnRows(orderRow(order))

		repo := NewPostgreSQLOrderRepository(db)
		orders, err := repo.List(context.Background(), ListFilter{Limit: 20, Offset: 0})
		require.NoError(t, err)
		require.Len(t, orders, 1)
	})

	t.Run("StatusAndCustomerFilter", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close() //nolint:errcheck

		order := newOrder()
		status := orderDomain.OrderStatusPending
		mock.ExpectQuery("SELECT (.+) FROM orders").
			WithArgs(order.CustomerID, status, 10, 5).
			WillReturnRows(orderRow(order))

		repo := NewPostgreSQLOrderRepository(db)
		orders, err := repo.List(context.Background(), ListFilter{
			CustomerID: &order.CustomerID,
			Status:     &status,
			Limit:      10,
			Offset:     5,
		})
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgreSQLOrderRepository_ClearExpiredIdempotencyKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close() //nolint:errcheck

	cutoff := time.Now().UTC().Add(-24 * time.Hour)
	mock.ExpectExec("UPDATE orders").
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 7))

	repo := NewPostgreSQLOrderRepository(db)
	cleared, err := repo.ClearExpiredIdempotencyKeys(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cleared)
}
