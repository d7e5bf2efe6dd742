// Package repository implements customer persistence for PostgreSQL and MySQL.
package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	customerDomain "github.com/allisson/orders/internal/customer/domain"
	"github.com/allisson/orders/internal/database"
	apperrors "github.com/allisson/orders/internal/errors"
)

// PostgreSQLCustomerRepository implements customer persistence for PostgreSQL databases.
type PostgreSQLCustomerRepository struct {
	db *sql.DB
}

// NewPostgreSQLCustomerRepository creates a new PostgreSQL customer repository instance.
func NewPostgreSQLCustomerRepository(db *sql.DB) *PostgreSQLCustomerRepository {
	return &PostgreSQLCustomerRepository{db: db}
}

// Create inserts a new customer.
func (p *PostgreSQLCustomerRepository) Create(ctx context.Context, customer *customerDomain.Customer) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO customers (id, name, email, document, phone, address, active, created_at, updated_at, deleted_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := querier.ExecContext(
		ctx,
		query,
		customer.ID,
		customer.Name,
		customer.Email,
		customer.Document,
		customer.Phone,
		customer.Address,
		customer.Active,
		customer.CreatedAt,
		customer.UpdatedAt,
		customer.DeletedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return customerDomain.ErrDuplicateCustomer
		}
		return apperrors.Wrap(err, "failed to create customer")
	}
	return nil
}

// GetByID retrieves a live customer by its id.
func (p *PostgreSQLCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customerDomain.Customer, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, email, document, phone, address, active, created_at, updated_at, deleted_at
			  FROM customers
			  WHERE id = $1 AND deleted_at IS NULL`

	var customer customerDomain.Customer
	err := querier.QueryRowContext(ctx, query, id).Scan(
		&customer.ID,
		&customer.Name,
		&customer.Email,
		&customer.Document,
		&customer.Phone,
		&customer.Address,
		&customer.Active,
		&customer.CreatedAt,
		&customer.UpdatedAt,
		&customer.DeletedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, customerDomain.ErrCustomerNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get customer by id")
	}

	return &customer, nil
}

// List retrieves live customers ordered by creation, newest first.
func (p *PostgreSQLCustomerRepository) List(ctx context.Context, limit, offset int) ([]*customerDomain.Customer, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, email, document, phone, address, active, created_at, updated_at, deleted_at
			  FROM customers
			  WHERE deleted_at IS NULL
			  ORDER BY created_at DESC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list customers")
	}
	defer rows.Close() //nolint:errcheck

	var customers []*customerDomain.Customer
	for rows.Next() {
		var customer customerDomain.Customer
		err := rows.Scan(
			&customer.ID,
			&customer.Name,
			&customer.Email,
			&customer.Document,
			&customer.Phone,
			&customer.Address,
			&customer.Active,
			&customer.CreatedAt,
			&customer.UpdatedAt,
			&customer.DeletedAt,
		)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan customer")
		}
		customers = append(customers, &customer)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate customers")
	}

	return customers, nil
}

// Update persists mutable customer fields.
func (p *PostgreSQLCustomerRepository) Update(ctx context.Context, customer *customerDomain.Customer) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE customers
			  SET name = $1, email = $2, document = $3, phone = $4, address = $5, active = $6, updated_at = $7
			  WHERE id = $8 AND deleted_at IS NULL`

	result, err := querier.ExecContext(
		ctx,
		query,
		customer.Name,
		customer.Email,
		customer.Document,
		customer.Phone,
		customer.Address,
		customer.Active,
		time.Now().UTC(),
		customer.ID,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return customerDomain.ErrDuplicateCustomer
		}
		return apperrors.Wrap(err, "failed to update customer")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return customerDomain.ErrCustomerNotFound
	}
	return nil
}

// Delete performs a soft delete by setting the DeletedAt timestamp.
func (p *PostgreSQLCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `UPDATE customers
			  SET deleted_at = $1
			  WHERE id = $2 AND deleted_at IS NULL`

	result, err := querier.ExecContext(ctx, query, time.Now().UTC(), id)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete customer")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read affected rows")
	}
	if affected == 0 {
		return customerDomain.ErrCustomerNotFound
	}
	return nil
}
