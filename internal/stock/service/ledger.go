// Package service implements the stock ledger, the only writer of product
// stock counters. Reservation and release always lock product rows in
// ascending id order so two concurrent multi-item operations cannot deadlock.
package service

import (
	"bytes"
	"context"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	catalogdomain "github.com/allisson/orders/internal/catalog/domain"
)

// Line is a (product, quantity) pair submitted to the ledger.
type Line struct {
	ProductID uuid.UUID
	Quantity  int64
}

// ProductRepository is the catalog access the ledger needs. Both methods must
// run inside the caller's transaction: ListForUpdate takes row locks that are
// only meaningful until commit.
type ProductRepository interface {
	// ListForUpdate loads live products by id with SELECT ... FOR UPDATE,
	// ordered by id ascending. Missing ids are simply absent from the result.
	ListForUpdate(ctx context.Context, ids []uuid.UUID) ([]*catalogdomain.Product, error)
	// AdjustStock applies delta to the product's stock counter.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int64) error
}

// Ledger reserves and releases product stock atomically across multiple lines.
type Ledger struct {
	products ProductRepository
	logger   *slog.Logger
}

// NewLedger creates a Ledger.
func NewLedger(products ProductRepository, logger *slog.Logger) *Ledger {
	return &Ledger{products: products, logger: logger}
}

// Reserve decrements stock for every line or for none. It must run inside a
// transaction; on any error the caller's rollback restores all counters. The
// locked products are returned keyed by id so the caller can snapshot prices
// read under the same lock.
func (l *Ledger) Reserve(ctx context.Context, lines []Line) (map[uuid.UUID]*catalogdomain.Product, error) {
	merged, err := mergeLines(lines)
	if err != nil {
		return nil, err
	}

	products, err := l.lockProducts(ctx, merged)
	if err != nil {
		return nil, err
	}

	for id, quantity := range merged {
		product, ok := products[id]
		if !ok {
			return nil, catalogdomain.ErrProductNotFound
		}
		if !product.IsActive() {
			return nil, catalogdomain.ErrProductInactive
		}
		if product.StockQuantity < quantity {
			return nil, &catalogdomain.InsufficientStockError{
				ProductID: product.ID,
				SKU:       product.SKU,
				Requested: quantity,
				Available: product.StockQuantity,
			}
		}
	}

	for id, quantity := range merged {
		if err := l.products.AdjustStock(ctx, id, -quantity); err != nil {
			return nil, err
		}
		products[id].StockQuantity -= quantity
	}

	return products, nil
}

// Release increments stock for every line, compensating a prior reservation.
// Products that no longer exist are skipped: releasing stock for a deleted
// product must not block an order cancellation.
func (l *Ledger) Release(ctx context.Context, lines []Line) error {
	merged, err := mergeLines(lines)
	if err != nil {
		return err
	}

	products, err := l.lockProducts(ctx, merged)
	if err != nil {
		return err
	}

	for id, quantity := range merged {
		if _, ok := products[id]; !ok {
			if l.logger != nil {
				l.logger.Warn("skipping stock release for missing product",
					slog.String("product_id", id.String()),
					slog.Int64("quantity", quantity),
				)
			}
			continue
		}
		if err := l.products.AdjustStock(ctx, id, quantity); err != nil {
			return err
		}
	}

	return nil
}

// lockProducts locks the rows for the given ids in ascending id order and
// returns them keyed by id.
func (l *Ledger) lockProducts(ctx context.Context, merged map[uuid.UUID]int64) (map[uuid.UUID]*catalogdomain.Product, error) {
	ids := make([]uuid.UUID, 0, len(merged))
	for id := range merged {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int {
		return bytes.Compare(a[:], b[:])
	})

	products, err := l.products.ListForUpdate(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]*catalogdomain.Product, len(products))
	for _, product := range products {
		byID[product.ID] = product
	}
	return byID, nil
}

// mergeLines validates quantities and collapses duplicate product ids so each
// row is locked and adjusted exactly once.
func mergeLines(lines []Line) (map[uuid.UUID]int64, error) {
	if len(lines) == 0 {
		return nil, catalogdomain.ErrInvalidQuantity
	}

	merged := make(map[uuid.UUID]int64, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, catalogdomain.ErrInvalidQuantity
		}
		merged[line.ProductID] += line.Quantity
	}
	return merged, nil
}
