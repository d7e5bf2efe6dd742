// Package usecase implements customer management business logic. The order
// orchestrator reads customers through its own narrow interface; this package
// carries the admin-facing CRUD surface.
package usecase

import (
	"context"

	"github.com/google/uuid"

	customerDomain "github.com/allisson/orders/internal/customer/domain"
)

// CustomerRepository defines the interface for customer persistence operations.
type CustomerRepository interface {
	Create(ctx context.Context, customer *customerDomain.Customer) error
	GetByID(ctx context.Context, id uuid.UUID) (*customerDomain.Customer, error)
	List(ctx context.Context, limit, offset int) ([]*customerDomain.Customer, error)
	Update(ctx context.Context, customer *customerDomain.Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateCustomerInput carries everything needed to register a customer.
type CreateCustomerInput struct {
	Name     string
	Email    string
	Document string
	Phone    string
	Address  string
}

// UpdateCustomerInput carries a partial customer update. Nil fields keep the
// current value.
type UpdateCustomerInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
	Active  *bool
}

// CustomerUseCase defines the interface for customer management business logic.
type CustomerUseCase interface {
	CreateCustomer(ctx context.Context, input CreateCustomerInput) (*customerDomain.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*customerDomain.Customer, error)
	ListCustomers(ctx context.Context, limit, offset int) ([]*customerDomain.Customer, error)
	UpdateCustomer(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*customerDomain.Customer, error)
	DeleteCustomer(ctx context.Context, id uuid.UUID) error
}
