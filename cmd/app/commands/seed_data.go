package commands

import (
	"context"
	"fmt"
	"log/slog"

	catalogDomain "github.com/allisson/orders/internal/catalog/domain"
	catalogUsecase "github.com/allisson/orders/internal/catalog/usecase"
	customerDomain "github.com/allisson/orders/internal/customer/domain"
	customerUsecase "github.com/allisson/orders/internal/customer/usecase"

	"github.com/allisson/orders/internal/app"
	"github.com/allisson/orders/internal/config"
	apperrors "github.com/allisson/orders/internal/errors"
)

// RunSeedData creates sample products and customers for local development.
// Safe to run repeatedly: existing rows are skipped.
func RunSeedData(ctx context.Context) error {
	cfg := config.Load()

	container := app.NewContainer(cfg)

	logger := container.Logger()
	logger.Info("seeding sample data")

	defer closeContainer(container, logger)

	productUseCase, err := container.ProductUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize product use case: %w", err)
	}

	customerUseCase, err := container.CustomerUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize customer use case: %w", err)
	}

	products := []catalogUsecase.CreateProductInput{
		{SKU: "KB-0001", Name: "Mechanical Keyboard", Description: "87-key tenkeyless, brown switches", PriceCents: 14900, StockQuantity: 50},
		{SKU: "MS-0001", Name: "Wireless Mouse", Description: "Ergonomic, 2.4GHz receiver", PriceCents: 4900, StockQuantity: 120},
		{SKU: "MN-0001", Name: "27in Monitor", Description: "2560x1440 IPS panel", PriceCents: 32900, StockQuantity: 30},
		{SKU: "HS-0001", Name: "USB Headset", Description: "Noise-cancelling microphone", PriceCents: 8900, StockQuantity: 75},
	}

	for _, input := range products {
		product, err := productUseCase.CreateProduct(ctx, input)
		if err != nil {
			if apperrors.Is(err, catalogDomain.ErrDuplicateSKU) {
				logger.Info("product already exists, skipping", slog.String("sku", input.SKU))
				continue
			}
			return fmt.Errorf("failed to create product %s: %w", input.SKU, err)
		}
		logger.Info("created product",
			slog.String("id", product.ID.String()),
			slog.String("sku", product.SKU),
		)
	}

	customers := []customerUsecase.CreateCustomerInput{
		{Name: "Maria Silva", Email: "maria.silva@example.com", Document: "12345678901", Phone: "+55 11 91234-5678", Address: "Rua das Flores 100, Sao Paulo"},
		{Name: "Joao Santos", Email: "joao.santos@example.com", Document: "98765432100", Phone: "+55 21 99876-5432", Address: "Av Atlantica 200, Rio de Janeiro"},
	}

	for _, input := range customers {
		customer, err := customerUseCase.CreateCustomer(ctx, input)
		if err != nil {
			if apperrors.Is(err, customerDomain.ErrDuplicateCustomer) {
				logger.Info("customer already exists, skipping", slog.String("email", input.Email))
				continue
			}
			return fmt.Errorf("failed to create customer %s: %w", input.Email, err)
		}
		logger.Info("created customer",
			slog.String("id", customer.ID.String()),
			slog.String("email", customer.Email),
		)
	}

	logger.Info("seed data completed")
	return nil
}
