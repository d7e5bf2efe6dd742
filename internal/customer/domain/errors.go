package domain

import (
	"github.com/allisson/orders/internal/errors"
)

// Customer-specific error definitions.
var (
	// ErrCustomerNotFound indicates the customer does not exist or was soft-deleted.
	ErrCustomerNotFound = errors.Wrap(errors.ErrNotFound, "customer not found")

	// ErrCustomerInactive indicates the customer exists but cannot place orders.
	ErrCustomerInactive = errors.Wrap(errors.ErrInvalidInput, "customer is inactive")

	// ErrDuplicateCustomer indicates the email or document is already registered.
	ErrDuplicateCustomer = errors.Wrap(errors.ErrConflict, "customer already exists")
)
