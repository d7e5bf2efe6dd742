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

// MySQLCustomerRepository implements customer persistence for MySQL databases.
// UUIDs are stored as BINARY(16).
type MySQLCustomerRepository struct {
	db *sql.DB
}

// NewMySQLCustomerRepository creates a new MySQL customer repository instance.
func NewMySQLCustomerRepository(db *sql.DB) *MySQLCustomerRepository {
	return &MySQLCustomerRepository{db: db}
}

func scanMySQLCustomer(scan func(dest ...any) error) (*customerDomain.Customer, error) {
	var customer customerDomain.Customer
	var id []byte

	err := scan(
		&id,
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
		return nil, err
	}

	customer.ID, err = uuid.FromBytes(id)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to parse customer id")
	}
	return &customer, nil
}

// Create inserts a new customer.
func (m *MySQLCustomerRepository) Create(ctx context.Context, customer *customerDomain.Customer) error {
	querier := database.GetTx(ctx, m.db)

	query := `INSERT INTO customers (id, name, email, document, phone, address, active, created_at, updated_at, deleted_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := customer.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal customer id")
	}

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
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
func (m *MySQLCustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customerDomain.Customer, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, email, document, phone, address, active, created_at, updated_at, deleted_at
			  FROM customers
			  WHERE id = ? AND deleted_at IS NULL`

	binID, err := id.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal customer id")
	}

	row := querier.QueryRowContext(ctx, query, binID)
	customer, err := scanMySQLCustomer(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, customerDomain.ErrCustomerNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get customer by id")
	}
	return customer, nil
}

// List retrieves live customers ordered by creation, newest first.
func (m *MySQLCustomerRepository) List(ctx context.Context, limit, offset int) ([]*customerDomain.Customer, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, email, document, phone, address, active, created_at, updated_at, deleted_at
			  FROM customers
			  WHERE deleted_at IS NULL
			  ORDER BY created_at DESC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list customers")
	}
	defer rows.Close() //nolint:errcheck

	var customers []*customerDomain.Customer
	for rows.Next() {
		customer, err := scanMySQLCustomer(rows.Scan)
		if err != nil {
			return nil, apperrors.Wrap(err, "failed to scan customer")
		}
		customers = append(customers, customer)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate customers")
	}

	return customers, nil
}

// Update persists mutable customer fields.
func (m *MySQLCustomerRepository) Update(ctx context.Context, customer *customerDomain.Customer) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE customers
			  SET name = ?, email = ?, document = ?, phone = ?, address = ?, active = ?, updated_at = ?
			  WHERE id = ? AND deleted_at IS NULL`

	binID, err := customer.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal customer id")
	}

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
		binID,
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
func (m *MySQLCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	query := `UPDATE customers
			  SET deleted_at = ?
			  WHERE id = ? AND deleted_at IS NULL`

	binID, err := id.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal customer id")
	}

	result, err := querier.ExecContext(ctx, query, time.Now().UTC(), binID)
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
