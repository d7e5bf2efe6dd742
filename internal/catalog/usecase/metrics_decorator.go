package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	catalogDomain "github.com/allisson/orders/internal/catalog/domain"
	"github.com/allisson/orders/internal/metrics"
)

// productUseCaseWithMetrics decorates ProductUseCase with metrics instrumentation.
type productUseCaseWithMetrics struct {
	next    ProductUseCase
	metrics metrics.BusinessMetrics
}

// NewProductUseCaseWithMetrics wraps a ProductUseCase with metrics recording.
func NewProductUseCaseWithMetrics(useCase ProductUseCase, m metrics.BusinessMetrics) ProductUseCase {
	return &productUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

func (p *productUseCaseWithMetrics) record(ctx context.Context, operation string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordOperation(ctx, "catalog", operation, status)
	p.metrics.RecordDuration(ctx, "catalog", operation, time.Since(start), status)
}

func (p *productUseCaseWithMetrics) CreateProduct(ctx context.Context, input CreateProductInput) (*catalogDomain.Product, error) {
	start := time.Now()
	product, err := p.next.CreateProduct(ctx, input)
	p.record(ctx, "product_create", start, err)
	return product, err
}

func (p *productUseCaseWithMetrics) GetProduct(ctx context.Context, id uuid.UUID) (*catalogDomain.Product, error) {
	start := time.Now()
	product, err := p.next.GetProduct(ctx, id)
	p.record(ctx, "product_get", start, err)
	return product, err
}

func (p *productUseCaseWithMetrics) GetProductBySKU(ctx context.Context, sku string) (*catalogDomain.Product, error) {
	start := time.Now()
	product, err := p.next.GetProductBySKU(ctx, sku)
	p.record(ctx, "product_get_by_sku", start, err)
	return product, err
}

func (p *productUseCaseWithMetrics) ListProducts(ctx context.Context, limit, offset int) ([]*catalogDomain.Product, error) {
	start := time.Now()
	products, err := p.next.ListProducts(ctx, limit, offset)
	p.record(ctx, "product_list", start, err)
	return products, err
}

func (p *productUseCaseWithMetrics) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*catalogDomain.Product, error) {
	start := time.Now()
	product, err := p.next.UpdateProduct(ctx, id, input)
	p.record(ctx, "product_update", start, err)
	return product, err
}

func (p *productUseCaseWithMetrics) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	start := time.Now()
	err := p.next.DeleteProduct(ctx, id)
	p.record(ctx, "product_delete", start, err)
	return err
}
