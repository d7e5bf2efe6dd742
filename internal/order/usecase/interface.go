// Package usecase implements the order lifecycle business logic: idempotent
// creation with atomic stock reservation, state machine transitions with
// compensating stock release, and the transactional outbox records that
// accompany every mutation.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	catalogDomain "github.com/allisson/orders/internal/catalog/domain"
	customerDomain "github.com/allisson/orders/internal/customer/domain"
	idempotencyService "github.com/allisson/orders/internal/idempotency/service"
	orderDomain "github.com/allisson/orders/internal/order/domain"
	orderRepository "github.com/allisson/orders/internal/order/repository"
	outboxDomain "github.com/allisson/orders/internal/outbox/domain"
	stockService "github.com/allisson/orders/internal/stock/service"
)

// OrderRepository defines the interface for order persistence operations.
type OrderRepository interface {
	Create(ctx context.Context, order *orderDomain.Order) error
	AddHistory(ctx context.Context, history *orderDomain.StatusHistory) error
	GetByID(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*orderDomain.Order, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	GetOrderIDByIdempotencyKey(ctx context.Context, key string) (uuid.UUID, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status orderDomain.OrderStatus) error
	ReplaceItems(ctx context.Context, order *orderDomain.Order) error
	List(ctx context.Context, filter orderRepository.ListFilter) ([]*orderDomain.Order, error)
	ClearExpiredIdempotencyKeys(ctx context.Context, before time.Time) (int64, error)
}

// CustomerRepository defines the customer lookups order creation needs.
type CustomerRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*customerDomain.Customer, error)
}

// StockLedger reserves and releases product stock. Both methods must run
// inside the caller's transaction.
type StockLedger interface {
	Reserve(ctx context.Context, lines []stockService.Line) (map[uuid.UUID]*catalogDomain.Product, error)
	Release(ctx context.Context, lines []stockService.Line) error
}

// IdempotencyGuard deduplicates order creation requests by client key.
type IdempotencyGuard interface {
	Begin(ctx context.Context, key string) (idempotencyService.BeginResult, error)
	Complete(key string, orderID uuid.UUID)
	Release(key string)
}

// OutboxEventRepository records events in the transactional outbox.
type OutboxEventRepository interface {
	Create(ctx context.Context, event *outboxDomain.OutboxEvent) error
}

// CreateOrderItemInput is one requested line of a new order.
type CreateOrderItemInput struct {
	ProductID uuid.UUID
	Quantity  int64
}

// CreateOrderInput carries everything needed to create an order.
type CreateOrderInput struct {
	CustomerID     uuid.UUID
	IdempotencyKey string
	Notes          string
	Items          []CreateOrderItemInput
}

// UpdateStatusInput carries a requested status transition.
type UpdateStatusInput struct {
	Status orderDomain.OrderStatus
	Actor  string
	Note   string
}

// OrderUseCase defines the interface for order lifecycle business logic.
type OrderUseCase interface {
	// CreateOrder atomically reserves stock and creates the order. Requests
	// carrying an idempotency key already bound to an order return that order
	// without side effects.
	CreateOrder(ctx context.Context, input CreateOrderInput) (*orderDomain.Order, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (*orderDomain.Order, error)
	ListOrders(ctx context.Context, filter orderRepository.ListFilter) ([]*orderDomain.Order, error)
	// UpdateStatus applies a state machine transition. Transitions to CANCELLED
	// release the reserved stock in the same transaction.
	UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput) (*orderDomain.Order, error)
	// CancelOrder is shorthand for UpdateStatus to CANCELLED.
	CancelOrder(ctx context.Context, id uuid.UUID, actor, note string) (*orderDomain.Order, error)
	// UpdateItems replaces the line items of a PENDING order, adjusting stock
	// reservations to match.
	UpdateItems(ctx context.Context, id uuid.UUID, items []CreateOrderItemInput) (*orderDomain.Order, error)
	// ClearExpiredIdempotencyKeys frees keys older than the retention window.
	ClearExpiredIdempotencyKeys(ctx context.Context) (int64, error)
}
