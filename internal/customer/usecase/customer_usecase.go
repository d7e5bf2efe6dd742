package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	customerDomain "github.com/allisson/orders/internal/customer/domain"
	apperrors "github.com/allisson/orders/internal/errors"
	"github.com/allisson/orders/internal/validation"
)

// customerUseCase implements the CustomerUseCase interface.
type customerUseCase struct {
	customers CustomerRepository
	logger    *slog.Logger
}

// NewCustomerUseCase creates a new customer use case instance.
func NewCustomerUseCase(customers CustomerRepository, logger *slog.Logger) CustomerUseCase {
	return &customerUseCase{customers: customers, logger: logger}
}

// CreateCustomer registers a customer. New customers start active.
func (c *customerUseCase) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*customerDomain.Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "name is required")
	}
	if err := validation.Email.Validate(input.Email); err != nil {
		return nil, validation.WrapValidationError(err)
	}
	if err := validation.Document.Validate(input.Document); err != nil {
		return nil, validation.WrapValidationError(err)
	}

	now := time.Now().UTC()
	customer := &customerDomain.Customer{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      input.Name,
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Document:  input.Document,
		Phone:     input.Phone,
		Address:   input.Address,
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	if c.logger != nil {
		c.logger.Info("customer created", slog.String("customer_id", customer.ID.String()))
	}
	return customer, nil
}

// GetCustomer retrieves a customer by its id.
func (c *customerUseCase) GetCustomer(ctx context.Context, id uuid.UUID) (*customerDomain.Customer, error) {
	return c.customers.GetByID(ctx, id)
}

// ListCustomers retrieves customers ordered by creation with pagination.
func (c *customerUseCase) ListCustomers(ctx context.Context, limit, offset int) ([]*customerDomain.Customer, error) {
	return c.customers.List(ctx, limit, offset)
}

// UpdateCustomer applies a partial update. The document is immutable; the
// active flag gates new order creation without touching existing orders.
func (c *customerUseCase) UpdateCustomer(ctx context.Context, id uuid.UUID, input UpdateCustomerInput) (*customerDomain.Customer, error) {
	customer, err := c.customers.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "name is required")
		}
		customer.Name = *input.Name
	}
	if input.Email != nil {
		if err := validation.Email.Validate(*input.Email); err != nil {
			return nil, validation.WrapValidationError(err)
		}
		customer.Email = strings.ToLower(strings.TrimSpace(*input.Email))
	}
	if input.Phone != nil {
		customer.Phone = *input.Phone
	}
	if input.Address != nil {
		customer.Address = *input.Address
	}
	if input.Active != nil {
		customer.Active = *input.Active
	}
	customer.UpdatedAt = time.Now().UTC()

	if err := c.customers.Update(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

// DeleteCustomer performs a soft delete. Existing orders keep the customer id.
func (c *customerUseCase) DeleteCustomer(ctx context.Context, id uuid.UUID) error {
	return c.customers.Delete(ctx, id)
}
