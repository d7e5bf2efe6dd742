package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/metrics"
	orderDomain "github.com/allisson/orders/internal/order/domain"
	orderRepository "github.com/allisson/orders/internal/order/repository"
)

// orderUseCaseWithMetrics decorates OrderUseCase with metrics instrumentation.
type orderUseCaseWithMetrics struct {
	next    OrderUseCase
	metrics metrics.BusinessMetrics
}

// NewOrderUseCaseWithMetrics wraps an OrderUseCase with metrics recording.
func NewOrderUseCaseWithMetrics(useCase OrderUseCase, m metrics.BusinessMetrics) OrderUseCase {
	return &orderUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (o *orderUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	o.metrics.RecordOperation(ctx, "orders", operation, status)
	o.metrics.RecordDuration(ctx, "orders", operation, time.Since(start), status)
}

func (o *orderUseCaseWithMetrics) CreateOrder(ctx context.Context, input CreateOrderInput) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := o.next.CreateOrder(ctx, input)
	o.record(ctx, "order_create", start, err)
	return order, err
}

func (o *orderUseCaseWithMetrics) GetOrder(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := o.next.GetOrder(ctx, id)
	o.record(ctx, "order_get", start, err)
	return order, err
}

func (o *orderUseCaseWithMetrics) GetOrderByNumber(ctx context.Context, orderNumber string) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := o.next.GetOrderByNumber(ctx, orderNumber)
	o.record(ctx, "order_get_by_number", start, err)
	return order, err
}

func (o *orderUseCaseWithMetrics) ListOrders(ctx context.Context, filter orderRepository.ListFilter) ([]*orderDomain.Order, error) {
	start := time.Now()
	orders, err := o.next.ListOrders(ctx, filter)
	o.record(ctx, "order_list", start, err)
	return orders, err
}

func (o *orderUseCaseWithMetrics) UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := o.next.UpdateStatus(ctx, id, input)
	o.record(ctx, "order_status_update", start, err)
	return order, err
}

func (o *orderUseCaseWithMetrics) CancelOrder(ctx context.Context, id uuid.UUID, actor, note string) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := o.next.CancelOrder(ctx, id, actor, note)
	o.record(ctx, "order_cancel", start, err)
	return order, err
}

func (o *orderUseCaseWithMetrics) UpdateItems(ctx context.Context, id uuid.UUID, items []CreateOrderItemInput) (*orderDomain.Order, error) {
	start := time.Now()
	order, err := o.next.UpdateItems(ctx, id, items)
	o.record(ctx, "order_items_update", start, err)
	return order, err
}

func (o *orderUseCaseWithMetrics) ClearExpiredIdempotencyKeys(ctx context.Context) (int64, error) {
	start := time.Now()
	cleared, err := o.next.ClearExpiredIdempotencyKeys(ctx)
	o.record(ctx, "idempotency_keys_clear", start, err)
	return cleared, err
}
