// Package usecase implements the product catalog business logic: CRUD with
// SKU uniqueness, price and stock invariants, and sales status management.
// Stock counters are never mutated here; only the stock ledger writes them.
package usecase

import (
	"context"

	"github.com/google/uuid"

	catalogDomain "github.com/allisson/orders/internal/catalog/domain"
)

// ProductRepository defines the interface for product persistence operations.
type ProductRepository interface {
	Create(ctx context.Context, product *catalogDomain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*catalogDomain.Product, error)
	GetBySKU(ctx context.Context, sku string) (*catalogDomain.Product, error)
	List(ctx context.Context, limit, offset int) ([]*catalogDomain.Product, error)
	Update(ctx context.Context, product *catalogDomain.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// CreateProductInput carries everything needed to create a product.
type CreateProductInput struct {
	SKU           string
	Name          string
	Description   string
	PriceCents    int64
	StockQuantity int64
}

// UpdateProductInput carries a partial product update. Nil fields keep the
// current value; SKU is immutable and intentionally absent.
type UpdateProductInput struct {
	Name        *string
	Description *string
	PriceCents  *int64
	Status      *catalogDomain.ProductStatus
}

// ProductUseCase defines the interface for product catalog business logic.
type ProductUseCase interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*catalogDomain.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*catalogDomain.Product, error)
	GetProductBySKU(ctx context.Context, sku string) (*catalogDomain.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]*catalogDomain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*catalogDomain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}
