// Package domain defines the core domain models for the product catalog.
// Products carry the stock counters mutated by the stock ledger; all other
// stock access goes through reservation and release operations.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProductStatus represents the sales availability of a product.
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

// Product represents a catalog product with finite stock.
type Product struct {
	// ID is the unique identifier of the product.
	ID uuid.UUID
	// SKU is the immutable, globally unique stock keeping unit. Stored
	// uppercase to prevent visual duplicates ("sku-01" vs "SKU-01").
	SKU string
	// Name is the display name of the product.
	Name string
	// Description is an optional free-text description.
	Description string
	// PriceCents is the unit price in the smallest currency unit; always > 0.
	PriceCents int64
	// StockQuantity is the available stock; never negative. Mutated only by
	// the stock ledger inside a reservation or release operation.
	StockQuantity int64
	// Status controls whether the product can be sold.
	Status ProductStatus
	// CreatedAt is the UTC timestamp when the product was created.
	CreatedAt time.Time
	// UpdatedAt is the UTC timestamp of the last mutation.
	UpdatedAt time.Time
	// DeletedAt marks when this product was soft-deleted (nil if alive).
	DeletedAt *time.Time
}

// IsActive reports whether the product can currently be sold.
func (p *Product) IsActive() bool {
	return p.Status == ProductStatusActive && p.DeletedAt == nil
}

// NormalizeSKU uppercases and trims a SKU for storage and lookups.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}
