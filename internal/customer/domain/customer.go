// Package domain defines the core domain models for customers.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Customer represents a customer able to place orders. Orders hold only the
// customer id, never an embedded customer object.
type Customer struct {
	// ID is the unique identifier of the customer.
	ID uuid.UUID
	// Name is the customer's full name.
	Name string
	// Email is globally unique.
	Email string
	// Document is a government-issued identifier, digits only, globally unique.
	Document string
	// Phone is an optional contact number.
	Phone string
	// Address is an optional free-text address.
	Address string
	// Active controls whether the customer can place new orders.
	Active bool
	// CreatedAt is the UTC timestamp when the customer was created.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last mutation.
	UpdatedAt time.Time
	// DeletedAt marks when this customer was soft-deleted (nil if alive).
	DeletedAt *time.Time
}

// CanPlaceOrders reports whether new orders may reference this customer.
func (c *Customer) CanPlaceOrders() bool {
	return c.Active && c.DeletedAt == nil
}
