package usecase

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	catalogDomain "github.com/allisson/orders/internal/catalog/domain"
	apperrors "github.com/allisson/orders/internal/errors"
)

// productUseCase implements the ProductUseCase interface.
type productUseCase struct {
	products ProductRepository
	logger   *slog.Logger
}

// NewProductUseCase creates a new product use case instance.
func NewProductUseCase(products ProductRepository, logger *slog.Logger) ProductUseCase {
	return &productUseCase{products: products, logger: logger}
}

// CreateProduct creates a product with a normalized SKU. New products start
// active unless explicitly deactivated later.
func (p *productUseCase) CreateProduct(ctx context.Context, input CreateProductInput) (*catalogDomain.Product, error) {
	if input.PriceCents <= 0 {
		return nil, catalogDomain.ErrInvalidPrice
	}
	if input.StockQuantity < 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "stock quantity must not be negative")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "name is required")
	}

	now := time.Now().UTC()
	product := &catalogDomain.Product{
		ID:            uuid.Must(uuid.NewV7()),
		SKU:           catalogDomain.NormalizeSKU(input.SKU),
		Name:          input.Name,
		Description:   input.Description,
		PriceCents:    input.PriceCents,
		StockQuantity: input.StockQuantity,
		Status:        catalogDomain.ProductStatusActive,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := p.products.Create(ctx, product); err != nil {
		return nil, err
	}

	if p.logger != nil {
		p.logger.Info("product created",
			slog.String("product_id", product.ID.String()),
			slog.String("sku", product.SKU),
		)
	}
	return product, nil
}

// GetProduct retrieves a product by its id.
func (p *productUseCase) GetProduct(ctx context.Context, id uuid.UUID) (*catalogDomain.Product, error) {
	return p.products.GetByID(ctx, id)
}

// GetProductBySKU retrieves a product by its normalized SKU.
func (p *productUseCase) GetProductBySKU(ctx context.Context, sku string) (*catalogDomain.Product, error) {
	return p.products.GetBySKU(ctx, sku)
}

// ListProducts retrieves products ordered by SKU with pagination.
func (p *productUseCase) ListProducts(ctx context.Context, limit, offset int) ([]*catalogDomain.Product, error) {
	return p.products.List(ctx, limit, offset)
}

// UpdateProduct applies a partial update. The SKU and the stock counter are
// immutable through this path; stock moves only via reservations and releases.
func (p *productUseCase) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*catalogDomain.Product, error) {
	product, err := p.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "name is required")
		}
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents <= 0 {
			return nil, catalogDomain.ErrInvalidPrice
		}
		product.PriceCents = *input.PriceCents
	}
	if input.Status != nil {
		if *input.Status != catalogDomain.ProductStatusActive && *input.Status != catalogDomain.ProductStatusInactive {
			return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "unknown product status")
		}
		product.Status = *input.Status
	}
	product.UpdatedAt = time.Now().UTC()

	if err := p.products.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct performs a soft delete. Existing order items keep their price
// snapshots; pending cancellations skip the missing product on release.
func (p *productUseCase) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return p.products.Delete(ctx, id)
}
