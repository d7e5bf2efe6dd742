package domain

import (
	"time"

	"github.com/google/uuid"
)

// AggregateTypeOrder tags outbox events produced by the order aggregate.
const AggregateTypeOrder = "order"

// Event types recorded in the outbox for order lifecycle transitions.
const (
	EventTypeOrderCreated       = "order.created"
	EventTypeOrderStatusChanged = "order.status_changed"
	EventTypeOrderCancelled     = "order.cancelled"
	EventTypeStockReleased      = "stock.released"
)

// OrderCreatedPayload describes a newly created order, including the stock
// reserved for each line item.
type OrderCreatedPayload struct {
	OrderID     uuid.UUID          `json:"order_id"`
	OrderNumber string             `json:"order_number"`
	CustomerID  uuid.UUID          `json:"customer_id"`
	TotalCents  int64              `json:"total_cents"`
	Items       []OrderItemPayload `json:"items"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

// OrderItemPayload is the event representation of a line item.
type OrderItemPayload struct {
	ProductID      uuid.UUID `json:"product_id"`
	Quantity       int64     `json:"quantity"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	SubtotalCents  int64     `json:"subtotal_cents"`
}

// OrderStatusChangedPayload describes a status transition.
type OrderStatusChangedPayload struct {
	OrderID        uuid.UUID   `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	PreviousStatus OrderStatus `json:"previous_status"`
	NewStatus      OrderStatus `json:"new_status"`
	Actor          string      `json:"actor"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// OrderCancelledPayload describes a cancellation.
type OrderCancelledPayload struct {
	OrderID        uuid.UUID   `json:"order_id"`
	OrderNumber    string      `json:"order_number"`
	PreviousStatus OrderStatus `json:"previous_status"`
	Actor          string      `json:"actor"`
	OccurredAt     time.Time   `json:"occurred_at"`
}

// StockReleasedPayload describes the compensating stock release performed
// when an order is cancelled.
type StockReleasedPayload struct {
	OrderID    uuid.UUID          `json:"order_id"`
	Items      []OrderItemPayload `json:"items"`
	OccurredAt time.Time          `json:"occurred_at"`
}
