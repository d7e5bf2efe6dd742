// Package dto provides data transfer objects for product HTTP request and
// response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	catalogDomain "github.com/allisson/orders/internal/catalog/domain"
	catalogUseCase "github.com/allisson/orders/internal/catalog/usecase"
	customValidation "github.com/allisson/orders/internal/validation"
)

// CreateProductRequest contains the parameters for creating a product.
type CreateProductRequest struct {
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	PriceCents    int64  `json:"price_cents"`
	StockQuantity int64  `json:"stock_quantity"`
}

// Validate checks if the create product request is valid.
func (r *CreateProductRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.SKU, validation.Required, customValidation.SKU),
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank),
		validation.Field(&r.PriceCents, validation.Required, validation.Min(int64(1))),
		validation.Field(&r.StockQuantity, validation.Min(int64(0))),
	)
}

// ToInput converts the request to a use case input.
func (r *CreateProductRequest) ToInput() catalogUseCase.CreateProductInput {
	return catalogUseCase.CreateProductInput{
		SKU:           r.SKU,
		Name:          r.Name,
		Description:   r.Description,
		PriceCents:    r.PriceCents,
		StockQuantity: r.StockQuantity,
	}
}

// UpdateProductRequest contains a partial product update. Absent fields keep
// their current values.
type UpdateProductRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Status      *string `json:"status"`
}

// Validate checks if the update product request is valid.
func (r *UpdateProductRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.NilOrNotEmpty),
		validation.Field(&r.PriceCents, validation.Min(int64(1))),
		validation.Field(&r.Status, validation.In("active", "inactive")),
	)
}

// ToInput converts the request to a use case input.
func (r *UpdateProductRequest) ToInput() catalogUseCase.UpdateProductInput {
	input := catalogUseCase.UpdateProductInput{
		Name:        r.Name,
		Description: r.Description,
		PriceCents:  r.PriceCents,
	}
	if r.Status != nil {
		status := catalogDomain.ProductStatus(*r.Status)
		input.Status = &status
	}
	return input
}

// ProductResponse represents a product in API responses.
type ProductResponse struct {
	ID            string    `json:"id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	PriceCents    int64     `json:"price_cents"`
	StockQuantity int64     `json:"stock_quantity"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ListProductsResponse represents a paginated product list.
type ListProductsResponse struct {
	Products []ProductResponse `json:"products"`
	Count    int               `json:"count"`
}

// MapProductToResponse converts a domain product to an API response.
func MapProductToResponse(product *catalogDomain.Product) ProductResponse {
	return ProductResponse{
		ID:            product.ID.String(),
		SKU:           product.SKU,
		Name:          product.Name,
		Description:   product.Description,
		PriceCents:    product.PriceCents,
		StockQuantity: product.StockQuantity,
		Status:        string(product.Status),
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
}

// MapProductsToListResponse converts domain products to a list response.
func MapProductsToListResponse(products []*catalogDomain.Product) ListProductsResponse {
	responses := make([]ProductResponse, 0, len(products))
	for _, product := range products {
		responses = append(responses, MapProductToResponse(product))
	}
	return ListProductsResponse{Products: responses, Count: len(responses)}
}
