// Package dto provides data transfer objects for customer HTTP request and
// response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	customerDomain "github.com/allisson/orders/internal/customer/domain"
	customerUseCase "github.com/allisson/orders/internal/customer/usecase"
	customValidation "github.com/allisson/orders/internal/validation"
)

// CreateCustomerRequest contains the parameters for registering a customer.
type CreateCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Document string `json:"document"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

// Validate checks if the create customer request is valid.
func (r *CreateCustomerRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank),
		validation.Field(&r.Email, validation.Required, customValidation.Email),
		validation.Field(&r.Document, validation.Required, customValidation.Document),
	)
}

// ToInput converts the request to a use case input.
func (r *CreateCustomerRequest) ToInput() customerUseCase.CreateCustomerInput {
	return customerUseCase.CreateCustomerInput{
		Name:     r.Name,
		Email:    r.Email,
		Document: r.Document,
		Phone:    r.Phone,
		Address:  r.Address,
	}
}

// UpdateCustomerRequest contains a partial customer update. Absent fields keep
// their current values.
type UpdateCustomerRequest struct {
	Name    *string `json:"name"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
	Active  *bool   `json:"active"`
}

// Validate checks if the update customer request is valid.
func (r *UpdateCustomerRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty),
		validation.Field(&r.Email, customValidation.Email),
	)
}

// ToInput converts the request to a use case input.
func (r *UpdateCustomerRequest) ToInput() customerUseCase.UpdateCustomerInput {
	return customerUseCase.UpdateCustomerInput{
		Name:    r.Name,
		Email:   r.Email,
		Phone:   r.Phone,
		Address: r.Address,
		Active:  r.Active,
	}
}

// CustomerResponse represents a customer in API responses.
type CustomerResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Document  string    `json:"document"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ListCustomersResponse represents a paginated customer list.
type ListCustomersResponse struct {
	Customers []CustomerResponse `json:"customers"`
	Count     int                `json:"count"`
}

// MapCustomerToResponse converts a domain customer to an API response.
func MapCustomerToResponse(customer *customerDomain.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        customer.ID.String(),
		Name:      customer.Name,
		Email:     customer.Email,
		Document:  customer.Document,
		Phone:     customer.Phone,
		Address:   customer.Address,
		Active:    customer.Active,
		CreatedAt: customer.CreatedAt,
		UpdatedAt: customer.UpdatedAt,
	}
}

// MapCustomersToListResponse converts domain customers to a list response.
func MapCustomersToListResponse(customers []*customerDomain.Customer) ListCustomersResponse {
	responses := make([]CustomerResponse, 0, len(customers))
	for _, customer := range customers {
		responses = append(responses, MapCustomerToResponse(customer))
	}
	return ListCustomersResponse{Customers: responses, Count: len(responses)}
}
