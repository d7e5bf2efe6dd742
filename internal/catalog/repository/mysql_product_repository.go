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

// MySQLProductRepository implements product persistence for MySQL databases.
// UUIDs are stored as BINARY(16).
type MySQLProductRepository struct {
	db *sql.DB
}

// NewMySQLProductRepository creates a new MySQL product repository instance.
func NewMySQLProductRepository(db *sql.DB) *MySQLProductRepository {
	return &MySQLProductRepository{db: db}
}

func scanMySQLProduct(scan func(dest ...any) error) (*catalogDomain.Product, error) {
	var product catalogDomain.Product
	var id []byte

	err := scan(
		&id,
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
		return nil, err
	}

	product.ID, err = uuid.FromBytes(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse product id")
	}
	return &product, nil
}

// Create inserts a new product.
func (m *MySQLProductRepository) Create(ctx context.Context, product *catalogDomain.Product) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO products (id, sku, name, description, price_cents, stock_quantity, status, created_at, updated_at, deleted_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := product.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*catalogDomain.Product, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, sku, name, description, price_cents, stock_quantity, status, created_at, updated_at, deleted_at
			  FROM products
			  WHERE id = ? AND deleted_at IS NULL`

	binID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal product id")
	}

	row := querier.QueryRowContext(ctx, query, binID)
	product, err := scanMySQLProduct(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalogDomain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product by id")
	}
	return product, nil
}

// GetBySKU retrieves a live product by its normalized SKU.
func (m *MySQLProductRepository) GetBySKU(ctx context.Context, sku string) (*catalogDomain.Product, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, sku, name, description, price_cents, stock_quantity, status, created_at, updated_at, deleted_at
			  FROM products
			  WHERE sku = ? AND deleted_at IS NULL`

	row := querier.QueryRowContext(ctx, query, catalogDomain.NormalizeSKU(sku))
	product, err := scanMySQLProduct(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, catalogDomain.ErrProductNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get product by sku")
	}
	return product, nil
}

// List retrieves live products ordered by creation, newest first.
func (m *MySQLProductRepository) List(ctx context.Context, limit, offset int) ([]*catalogDomain.Product, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, sku, name, description, price_cents, stock_quantity, status, created_at, updated_at, deleted_at
			  FROM products
			  WHERE deleted_at IS NULL
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list products")
	}
	defer rows.Close() //nolint:errcheck

	var products []*catalogDomain.Product
	for rows.Next() {
		product, err := scanMySQLProduct(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan product")
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate products")
	}

	return products, nil
}

// ListForUpdate loads live products by id with row locks, ordered by id
// ascending. Missing ids are simply absent from the result.
func (m *MySQLProductRepository) ListForUpdate(ctx context.Context, ids []uuid.UUID) ([]*catalogDomain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	querier := database.GetTx(ctx, m.db)

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		binID, err := id.MarshalBinary()
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to marshal product id")
		}
		placeholders[i] = "?"
		args[i] = binID
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
		product, err := scanMySQLProduct(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan product")
		}
		products = append(products, product)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate locked products")
	}

	return products, nil
}

// AdjustStock applies delta to the product's stock counter. Callers must hold
// the row lock via ListForUpdate in the same transaction.
func (m *MySQLProductRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int64) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE products
			  SET stock_quantity = stock_quantity + ?, updated_at = ?
			  WHERE id = ?`

	binID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	_, err = querier.ExecContext(ctx, query, delta, time.Now().UTC(), binID)
	if err != nil {
		return apperrors.Wrap(err, "failed to adjust product stock")
	}
	return nil
}

// Update persists mutable product fields. SKU is immutable and not updated.
func (m *MySQLProductRepository) Update(ctx context.Context, product *catalogDomain.Product) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE products
			  SET name = ?, description = ?, price_cents = ?, status = ?, updated_at = ?
			  WHERE id = ? AND deleted_at IS NULL`

	binID, err := product.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	result, err := querier.ExecContext(
		ctx,
		query,
		product.Name,
		product.Description,
		product.PriceCents,
		product.Status,
		time.Now().UTC(),
		binID,
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
func (m *MySQLProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE products
			  SET deleted_at = ?
			  WHERE id = ? AND deleted_at IS NULL`

	binID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal product id")
	}

	result, err := querier.ExecContext(ctx, query, time.Now().UTC(), binID)
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
