// Package domain defines the order aggregate: orders, line items, the status
// state machine, and the append-only status history. An order exclusively owns
// its items and history entries; customers and products are referenced by id
// only, never as live object pointers across aggregate boundaries.
package domain

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

// orderNumberMaxRetries bounds the unique order number generation loop.
const orderNumberMaxRetries = 5

// Order is the aggregate root for a customer order.
type Order struct {
	// ID is the unique identifier used for all internal references and lookups.
	ID uuid.UUID
	// OrderNumber is a human-readable unique identifier (ORD-YYYYMMDD-XXXXXX).
	OrderNumber string
	// CustomerID references the customer by id only.
	CustomerID uuid.UUID
	// Status is the current lifecycle state; mutations go through the
	// state machine in status.go.
	Status OrderStatus
	// TotalCents is the order total in the smallest currency unit; always
	// equals the sum of item subtotals.
	TotalCents int64
	// Notes is an optional free-text note from the customer.
	Notes string
	// IdempotencyKey is the client-supplied deduplication key; nil for orders
	// created outside the public API. Unique across non-expired records.
	IdempotencyKey *string
	// Items are the line items; at least one once persisted, immutable after
	// the order leaves PENDING.
	Items []*OrderItem
	// History is the append-only status transition log, oldest first.
	History []*StatusHistory
	// CreatedAt is the UTC timestamp when the order was created.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last mutation.
	UpdatedAt time.Time
	// DeletedAt marks when this order was soft-deleted (nil if alive).
	DeletedAt *time.Time
}

// OrderItem is a line item owned by exactly one order. UnitPriceCents is a
// value snapshot taken at creation time, independent of later price changes.
type OrderItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	ProductID      uuid.UUID
	Quantity       int64
	UnitPriceCents int64
	SubtotalCents  int64
}

// StatusHistory is an append-only log entry recording one status transition.
// PreviousStatus is nil only for the initial PENDING entry.
type StatusHistory struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	PreviousStatus *OrderStatus
	NewStatus      OrderStatus
	Actor          string
	Note           string
	CreatedAt      time.Time
}

// ItemsMutable reports whether line items may still be added, removed or
// modified. Items are locked the moment the order leaves PENDING.
func (o *Order) ItemsMutable() bool {
	return o.Status == OrderStatusPending
}

// RecalculateTotal recomputes each item subtotal and the order total.
func (o *Order) RecalculateTotal() {
	var total int64
	for _, item := range o.Items {
		item.SubtotalCents = item.Quantity * item.UnitPriceCents
		total += item.SubtotalCents
	}
	o.TotalCents = total
}

// NewOrderNumber generates a human-readable order number in the form
// ORD-YYYYMMDD-XXXXXX with a cryptographically random suffix.
func NewOrderNumber(now time.Time) string {
	buf := make([]byte, 3)
	_, _ = rand.Read(buf)
	suffix := strings.ToUpper(hex.EncodeToString(buf))
	return "ORD-" + now.UTC().Format("20060102") + "-" + suffix
}

// OrderNumberMaxRetries returns the bound for uniqueness retries when
// generating order numbers.
func OrderNumberMaxRetries() int {
	return orderNumberMaxRetries
}
