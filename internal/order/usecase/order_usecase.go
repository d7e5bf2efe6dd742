package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
	orderDomain "github.com/allisson/orders/internal/order/domain"
	orderRepository "github.com/allisson/orders/internal/order/repository"
	outboxDomain "github.com/allisson/orders/internal/outbox/domain"
	stockService "github.com/allisson/orders/internal/stock/service"
)

// DefaultOrderUseCase implements OrderUseCase.
type DefaultOrderUseCase struct {
	txManager         database.TxManager
	orders            OrderRepository
	customers         CustomerRepository
	ledger            StockLedger
	guard             IdempotencyGuard
	outbox            OutboxEventRepository
	idempotencyKeyTTL time.Duration
	logger            *slog.Logger
}

// NewOrderUseCase creates a new DefaultOrderUseCase.
func NewOrderUseCase(
	txManager database.TxManager,
	orders OrderRepository,
	customers CustomerRepository,
	ledger StockLedger,
	guard IdempotencyGuard,
	outbox OutboxEventRepository,
	idempotencyKeyTTL time.Duration,
	logger *slog.Logger,
) *DefaultOrderUseCase {
	return &DefaultOrderUseCase{
		txManager:         txManager,
		orders:            orders,
		customers:         customers,
		ledger:            ledger,
		guard:             guard,
		outbox:            outbox,
		idempotencyKeyTTL: idempotencyKeyTTL,
		logger:            logger,
	}
}

// CreateOrder atomically reserves stock and creates the order. The guard
// ensures exactly one of the concurrent requests carrying the same key reaches
// the reservation phase; replays return the original order.
func (uc *DefaultOrderUseCase) CreateOrder(ctx context.Context, input CreateOrderInput) (*orderDomain.Order, error) {
	if strings.TrimSpace(input.IdempotencyKey) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "idempotency key is required")
	}
	if len(input.Items) == 0 {
		return nil, orderDomain.ErrEmptyOrder
	}

	claim, err := uc.guard.Begin(ctx, input.IdempotencyKey)
	if err != nil {
		return nil, err
	}
	if !claim.IsNew {
		return uc.GetOrder(ctx, *claim.OrderID)
	}

	order, err := uc.createOrder(ctx, input)
	if err != nil {
		if apperrors.Is(err, orderDomain.ErrDuplicateIdempotencyKey) {
			// The durable unique index caught a race the fast store missed.
			return uc.recoverExistingOrder(ctx, input.IdempotencyKey)
		}
		uc.guard.Release(input.IdempotencyKey)
		return nil, err
	}

	uc.guard.Complete(input.IdempotencyKey, order.ID)
	if uc.logger != nil {
		uc.logger.Info("order created",
			slog.String("order_id", order.ID.String()),
			slog.String("order_number", order.OrderNumber),
			slog.String("customer_id", order.CustomerID.String()),
			slog.Int64("total_cents", order.TotalCents),
		)
	}
	return order, nil
}

func (uc *DefaultOrderUseCase) createOrder(ctx context.Context, input CreateOrderInput) (*orderDomain.Order, error) {
	customer, err := uc.customers.GetByID(ctx, input.CustomerID)
	if err != nil {
		return nil, err
	}
	if !customer.CanPlaceOrders() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "customer cannot place orders")
	}

	// Retry on order number collisions; the random suffix makes these rare.
	var order *orderDomain.Order
	for attempt := 0; attempt < orderDomain.OrderNumberMaxRetries(); attempt++ {
		order, err = uc.createOrderTx(ctx, input)
		if err == nil {
			return order, nil
		}
		if !apperrors.Is(err, orderDomain.ErrDuplicateOrderNumber) {
			return nil, err
		}
	}
	return nil, orderDomain.ErrOrderNumberExhausted
}

// createOrderTx runs one order creation attempt: reserve stock, persist the
// order with price snapshots read under the product row locks, record the
// initial history entry and the outbox event. All in a single transaction.
func (uc *DefaultOrderUseCase) createOrderTx(ctx context.Context, input CreateOrderInput) (*orderDomain.Order, error) {
	var order *orderDomain.Order

	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		lines := make([]stockService.Line, 0, len(input.Items))
		for _, item := range input.Items {
			lines = append(lines, stockService.Line{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		products, err := uc.ledger.Reserve(ctx, lines)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		key := input.IdempotencyKey
		order = &orderDomain.Order{
			ID:             uuid.Must(uuid.NewV7()),
			OrderNumber:    orderDomain.NewOrderNumber(now),
			CustomerID:     input.CustomerID,
			Status:         orderDomain.OrderStatusPending,
			Notes:          input.Notes,
			IdempotencyKey: &key,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		for _, item := range input.Items {
			product := products[item.ProductID]
			order.Items = append(order.Items, &orderDomain.OrderItem{
				ID:             uuid.Must(uuid.NewV7()),
				OrderID:        order.ID,
				ProductID:      item.ProductID,
				Quantity:       item.Quantity,
				UnitPriceCents: product.PriceCents,
			})
		}
		order.RecalculateTotal()

		if err := uc.orders.Create(ctx, order); err != nil {
			return err
		}

		history := &orderDomain.StatusHistory{
			ID:        uuid.Must(uuid.NewV7()),
			OrderID:   order.ID,
			NewStatus: orderDomain.OrderStatusPending,
			Actor:     "system",
			CreatedAt: now,
		}
		if err := uc.orders.AddHistory(ctx, history); err != nil {
			return err
		}
		order.History = append(order.History, history)

		return uc.recordOrderCreated(ctx, order, now)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (uc *DefaultOrderUseCase) recordOrderCreated(ctx context.Context, order *orderDomain.Order, now time.Time) error {
	payload := orderDomain.OrderCreatedPayload{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		CustomerID:  order.CustomerID,
		TotalCents:  order.TotalCents,
		Items:       itemPayloads(order.Items),
		OccurredAt:  now,
	}

	event, err := outboxDomain.NewOutboxEvent(
		orderDomain.AggregateTypeOrder,
		order.ID.String(),
		orderDomain.EventTypeOrderCreated,
		payload,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to build order created event")
	}
	return uc.outbox.Create(ctx, event)
}

// recoverExistingOrder resolves a lost idempotency race by binding the key to
// the order that won.
func (uc *DefaultOrderUseCase) recoverExistingOrder(ctx context.Context, key string) (*orderDomain.Order, error) {
	orderID, err := uc.orders.GetOrderIDByIdempotencyKey(ctx, key)
	if err != nil {
		uc.guard.Release(key)
		return nil, err
	}
	uc.guard.Complete(key, orderID)
	return uc.GetOrder(ctx, orderID)
}

// GetOrder retrieves an order with its items and history.
func (uc *DefaultOrderUseCase) GetOrder(ctx context.Context, id uuid.UUID) (*orderDomain.Order, error) {
	return uc.orders.GetByID(ctx, id)
}

// GetOrderByNumber retrieves an order by its human-readable number.
func (uc *DefaultOrderUseCase) GetOrderByNumber(ctx context.Context, orderNumber string) (*orderDomain.Order, error) {
	return uc.orders.GetByOrderNumber(ctx, orderNumber)
}

// ListOrders retrieves orders matching the filter.
func (uc *DefaultOrderUseCase) ListOrders(ctx context.Context, filter orderRepository.ListFilter) ([]*orderDomain.Order, error) {
	return uc.orders.List(ctx, filter)
}

// UpdateStatus applies a state machine transition under the order row lock.
// Concurrent transitions on the same order serialize; the loser revalidates
// against the committed status and is rejected if the edge is no longer legal.
func (uc *DefaultOrderUseCase) UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput) (*orderDomain.Order, error) {
	if !input.Status.IsValid() {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown order status")
	}

	var order *orderDomain.Order
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = uc.orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		previous := order.Status
		if err := orderDomain.ValidateTransition(previous, input.Status); err != nil {
			return err
		}

		if err := uc.orders.UpdateStatus(ctx, id, input.Status); err != nil {
			return err
		}
		order.Status = input.Status

		now := time.Now().UTC()
		history := &orderDomain.StatusHistory{
			ID:             uuid.Must(uuid.NewV7()),
			OrderID:        id,
			PreviousStatus: &previous,
			NewStatus:      input.Status,
			Actor:          input.Actor,
			Note:           input.Note,
			CreatedAt:      now,
		}
		if err := uc.orders.AddHistory(ctx, history); err != nil {
			return err
		}
		order.History = append(order.History, history)

		if input.Status == orderDomain.OrderStatusCancelled {
			if err := uc.compensateCancellation(ctx, order, previous, input.Actor, now); err != nil {
				return err
			}
		}

		return uc.recordStatusChanged(ctx, order, previous, input.Actor, now)
	})
	if err != nil {
		return nil, err
	}

	if uc.logger != nil {
		uc.logger.Info("order status updated",
			slog.String("order_id", order.ID.String()),
			slog.String("status", string(order.Status)),
		)
	}
	return order, nil
}

// compensateCancellation releases the stock the order reserved and records the
// cancellation events. Runs inside the transition transaction so the status
// flip and the stock release commit together.
func (uc *DefaultOrderUseCase) compensateCancellation(
	ctx context.Context,
	order *orderDomain.Order,
	previous orderDomain.OrderStatus,
	actor string,
	now time.Time,
) error {
	lines := make([]stockService.Line, 0, len(order.Items))
	for _, item := range order.Items {
		lines = append(lines, stockService.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	if err := uc.ledger.Release(ctx, lines); err != nil {
		return err
	}

	cancelled, err := outboxDomain.NewOutboxEvent(
		orderDomain.AggregateTypeOrder,
		order.ID.String(),
		orderDomain.EventTypeOrderCancelled,
		orderDomain.OrderCancelledPayload{
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			PreviousStatus: previous,
			Actor:          actor,
			OccurredAt:     now,
		},
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to build order cancelled event")
	}
	if err := uc.outbox.Create(ctx, cancelled); err != nil {
		return err
	}

	released, err := outboxDomain.NewOutboxEvent(
		orderDomain.AggregateTypeOrder,
		order.ID.String(),
		orderDomain.EventTypeStockReleased,
		orderDomain.StockReleasedPayload{
			OrderID:    order.ID,
			Items:      itemPayloads(order.Items),
			OccurredAt: now,
		},
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to build stock released event")
	}
	return uc.outbox.Create(ctx, released)
}

func (uc *DefaultOrderUseCase) recordStatusChanged(
	ctx context.Context,
	order *orderDomain.Order,
	previous orderDomain.OrderStatus,
	actor string,
	now time.Time,
) error {
	event, err := outboxDomain.NewOutboxEvent(
		orderDomain.AggregateTypeOrder,
		order.ID.String(),
		orderDomain.EventTypeOrderStatusChanged,
		orderDomain.OrderStatusChangedPayload{
			OrderID:        order.ID,
			OrderNumber:    order.OrderNumber,
			PreviousStatus: previous,
			NewStatus:      order.Status,
			Actor:          actor,
			OccurredAt:     now,
		},
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to build status changed event")
	}
	return uc.outbox.Create(ctx, event)
}

// CancelOrder is shorthand for UpdateStatus to CANCELLED.
func (uc *DefaultOrderUseCase) CancelOrder(ctx context.Context, id uuid.UUID, actor, note string) (*orderDomain.Order, error) {
	return uc.UpdateStatus(ctx, id, UpdateStatusInput{
		Status: orderDomain.OrderStatusCancelled,
		Actor:  actor,
		Note:   note,
	})
}

// UpdateItems replaces the line items of a PENDING order. The previous
// reservation is released and the new lines reserved in the same transaction,
// with fresh price snapshots for the new items.
func (uc *DefaultOrderUseCase) UpdateItems(ctx context.Context, id uuid.UUID, items []CreateOrderItemInput) (*orderDomain.Order, error) {
	if len(items) == 0 {
		return nil, orderDomain.ErrEmptyOrder
	}

	var order *orderDomain.Order
	err := uc.txManager.WithTx(ctx, func(ctx context.Context) error {
		var err error
		order, err = uc.orders.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !order.ItemsMutable() {
			return orderDomain.ErrOrderLocked
		}

		oldLines := make([]stockService.Line, 0, len(order.Items))
		for _, item := range order.Items {
			oldLines = append(oldLines, stockService.Line{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		if err := uc.ledger.Release(ctx, oldLines); err != nil {
			return err
		}

		newLines := make([]stockService.Line, 0, len(items))
		for _, item := range items {
			newLines = append(newLines, stockService.Line{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		products, err := uc.ledger.Reserve(ctx, newLines)
		if err != nil {
			return err
		}

		order.Items = order.Items[:0]
		for _, item := range items {
			product := products[item.ProductID]
			order.Items = append(order.Items, &orderDomain.OrderItem{
				ID:             uuid.Must(uuid.NewV7()),
				OrderID:        order.ID,
				ProductID:      item.ProductID,
				Quantity:       item.Quantity,
				UnitPriceCents: product.PriceCents,
			})
		}
		order.RecalculateTotal()

		return uc.orders.ReplaceItems(ctx, order)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// ClearExpiredIdempotencyKeys frees keys on orders older than the retention
// window so clients can reuse them.
func (uc *DefaultOrderUseCase) ClearExpiredIdempotencyKeys(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-uc.idempotencyKeyTTL)
	cleared, err := uc.orders.ClearExpiredIdempotencyKeys(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if uc.logger != nil && cleared > 0 {
		uc.logger.Info("cleared expired idempotency keys", slog.Int64("count", cleared))
	}
	return cleared, nil
}

func itemPayloads(items []*orderDomain.OrderItem) []orderDomain.OrderItemPayload {
	payloads := make([]orderDomain.OrderItemPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, orderDomain.OrderItemPayload{
			ProductID:      item.ProductID,
			Quantity:       item.Quantity,
			UnitPriceCents: item.UnitPriceCents,
			SubtotalCents:  item.SubtotalCents,
		})
	}
	return payloads
}
