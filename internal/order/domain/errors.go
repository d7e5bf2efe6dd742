package domain

import (
	"fmt"

	"github.com/allisson/orders/internal/errors"
)

// Order-specific error definitions.
var (
	// ErrOrderNotFound indicates the order does not exist or was soft-deleted.
	ErrOrderNotFound = errors.Wrap(errors.ErrNotFound, "order not found")

	// ErrOrderLocked indicates an item mutation was attempted after the order
	// left PENDING.
	ErrOrderLocked = errors.Wrap(errors.ErrLocked, "order items are immutable after confirmation")

	// ErrEmptyOrder indicates an order creation request without line items.
	ErrEmptyOrder = errors.Wrap(errors.ErrInvalidInput, "order must contain at least one item")

	// ErrDuplicateIdempotencyKey indicates another order already holds the
	// idempotency key. The caller must resolve the race by returning the
	// already-persisted order, never by surfacing a conflict.
	ErrDuplicateIdempotencyKey = errors.Wrap(errors.ErrConflict, "idempotency key already used")

	// ErrDuplicateOrderNumber indicates an order number collision; the caller
	// regenerates and retries up to a bound.
	ErrDuplicateOrderNumber = errors.Wrap(errors.ErrConflict, "order number already exists")

	// ErrOrderNumberExhausted indicates unique order number generation failed
	// after the retry bound.
	ErrOrderNumberExhausted = errors.New("failed to generate a unique order number")
)

// InvalidTransitionError reports a status transition rejected by the state
// machine. The rejected request mutates nothing: no status change, no history
// entry, no outbox event.
type InvalidTransitionError struct {
	Current   OrderStatus
	Requested OrderStatus
}

// Error implements the error interface.
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition from %s to %s", e.Current, e.Requested)
}

// Unwrap maps invalid transitions onto the invalid input sentinel (HTTP 400).
func (e *InvalidTransitionError) Unwrap() error {
	return errors.ErrInvalidInput
}
