package domain

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/allisson/orders/internal/errors"
)

// Catalog-specific error definitions.
var (
	// ErrProductNotFound indicates the product does not exist or was soft-deleted.
	ErrProductNotFound = errors.Wrap(errors.ErrNotFound, "product not found")

	// ErrProductInactive indicates the product exists but cannot be sold.
	ErrProductInactive = errors.Wrap(errors.ErrInvalidInput, "product is inactive")

	// ErrInvalidQuantity indicates a requested quantity is zero or negative.
	ErrInvalidQuantity = errors.Wrap(errors.ErrInvalidInput, "quantity must be greater than zero")

	// ErrDuplicateSKU indicates another product already uses the SKU.
	ErrDuplicateSKU = errors.Wrap(errors.ErrConflict, "sku already exists")

	// ErrInvalidPrice indicates a price that is not strictly positive.
	ErrInvalidPrice = errors.Wrap(errors.ErrInvalidInput, "price must be greater than zero")
)

// InsufficientStockError reports a failed reservation with enough context for
// the caller to retry with an adjusted quantity. Available reflects the stock
// observed under the row lock, never a stale read.
type InsufficientStockError struct {
	ProductID uuid.UUID
	SKU       string
	Requested int64
	Available int64
}

// Error implements the error interface.
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %s (%s): requested %d, available %d",
		e.ProductID, e.SKU, e.Requested, e.Available,
	)
}

// Unwrap maps insufficient stock onto the conflict sentinel (HTTP 409).
func (e *InsufficientStockError) Unwrap() error {
	return errors.ErrConflict
}
