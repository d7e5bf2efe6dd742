// Package repository implements product persistence for PostgreSQL and MySQL.
// All reads exclude soft-deleted rows; stock counters are only mutated through
// ListForUpdate and AdjustStock so callers hold the row lock first.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	catalogDomain "github.com/allisson/orders/internal/catalog/domain"
	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
)

// PostgreSQLProductRepository implements product persistence for PostgreSQL databases.
type PostgreSQLProductRepository struct {
	db *sql.DB
}

// NewPostgreSQLProductRepository creates a new PostgreSQL product repository instance.
func NewPostgreSQLProductRepository(db *sql.DB) *PostgreSQLProductRepository {
	return &PostgreSQLProductRepository{db: db}
}

// Create inserts a new product.
func (p *PostgreSQLProductRepository) Create(ctx context.Context, product *catalogDomain.Product) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO products (id, sku, name, description, price_cents, stock_quantity, status, created_at, updated_at, deleted_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		product.ID,
		product.SKU,
		product.Name,
		product.Description,
		product.PriceCents,
		product.StockQuantity,
		product.Status,
		product.CreatedAt,
		product.UpdatedAt,
		product.DeletedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return catalogDomain.ErrDuplicateSKU
		}
		return apperrors.Wrap(err, "failed to create product")
	}
	return nil
}

// GetByID retrieves a live product by its id.
func (p *PostgreSQLProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalogDomain.Product, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, sku, name, description, price_cents, stock_quantity, status, created_at, updated_at, deleted_at
			  FROM products
			  WHERE id = $1 AND deleted_at IS NULL`

	var product catalogDomain.Product
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.PriceCents,
		&product.StockQuantity,
		&product.Status,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalogDomain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product by id")
	}

	return &product, nil
}

// GetBySKU retrieves a live product by its normalized SKU.
func (p *PostgreSQLProductRepository) GetBySKU(ctx context.Context, sku string) (*catalogDomain.Product, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, sku, name, description, price_cents, stock_quantity, status, created_at, updated_at, deleted_at
			  FROM products
			  WHERE sku = $1 AND deleted_at IS NULL`

	var product catalogDomain.Product
	err := querier.QueryRowContext(ctx, query, catalogDomain.NormalizeSKU(sku)).Scan(
		&product.ID,
		&product.SKU,
		&product.Name,
		&product.Description,
		&product.PriceCents,
		&product.StockQuantity,
		&product.Status,
		&product.CreatedAt,
		&product.UpdatedAt,
		&product.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalogDomain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product by sku")
	}

	return &product, nil
}

// List retrieves live products ordered by creation, newest first.
func (p *PostgreSQLProductRepository) List(ctx context.Context, limit, offset int) ([]*catalogDomain.Product, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, sku, name, description, price_cents, stock_quantity, status, created_at, updated_at, deleted_at
			  FROM products
			  WHERE deleted_at IS NULL
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list products")
	}
	defer rows.Close() //nolint:errcheck

	var products []*catalogDomain.Product
	for rows.Next() {
		var product catalogDomain.Product
		err := rows.Scan(
			&product.ID,
			&product.SKU,
			&product.Name,
			&product.Description,
			&product.PriceCents,
			&product.StockQuantity,
			&product.Status,
			&product.CreatedAt,
			&product.UpdatedAt,
			&product.DeletedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan product")
		}
		products = append(products, &product)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate products")
	}

	return products, nil
}

// ListForUpdate loads live products by id with row locks, ordered by id
// ascending. Missing ids are simply absent from the result.
func (p *PostgreSQLProductRepository) ListForUpdate(ctx context.Context, ids []uuid.UUID) ([]*catalogDomain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	querier := database.GetTx(ctx, p.db)

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT id, sku, name, description, price_cents, stock_quantity, status, created_at, updated_at, deleted_at
			  FROM products
			  WHERE id IN (%s) AND deleted_at IS NULL
			  ORDER BY id ASC
			  FOR UPDATE`, strings.Join(placeholders, ", "))

	rows, err := querier.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to lock products")
	}
	defer rows.Close() //nolint:errcheck

	var products []*catalogDomain.Product
	for rows.Next() {
		var product catalogDomain.Product
		err := rows.Scan(
			&product.ID,
			&product.SKU,
			&product.Name,
			&product.Description,
			&product.PriceCents,
			&product.StockQuantity,
			&product.Status,
			&product.CreatedAt,
			&product.UpdatedAt,
			&product.DeletedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan product")
		}
		products = append(products, &product)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate locked products")
	}

	return products, nil
}

// AdjustStock applies delta to the product's stock counter. Callers must hold
// the row lock via ListForUpdate in the same transaction.
func (p *PostgreSQLProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int64) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE products
			  SET stock_quantity = stock_quantity + $1, updated_at = $2
			  WHERE id = $3`

	_, err := querier.ExecContext(ctx, query, delta, time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to adjust product stock")
	}
	return nil
}

// Update persists mutable product fields. SKU is immutable and not updated.
func (p *PostgreSQLProductRepository) Update(ctx context.Context, product *catalogDomain.Product) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE products
			  SET name = $1, description = $2, price_cents = $3, status = $4, updated_at = $5
			  WHERE id = $6 AND deleted_at IS NULL`

	result, err := querier.ExecContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.PriceCents,
		product.Status,
		time.Now().UTC(),
		product.ID,
	)
	if err != nil {
		return apperrors.Wrap(err, "failed to update product")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return catalogDomain.ErrProductNotFound
	}
	return nil
}

// Delete performs a soft delete by setting the DeletedAt timestamp.
func (p *PostgreSQLProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE products
			  SET deleted_at = $1
			  WHERE id = $2 AND deleted_at IS NULL`

	result, err := querier.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete product")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return catalogDomain.ErrProductNotFound
	}
	return nil
}
