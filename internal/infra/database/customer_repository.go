package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xavierca1/ligue-reviews/internal/entity"
)

type CustomerRepository struct {
	DB *sql.DB
}

func NewCustomerRepository(db *sql.DB) *CustomerRepository {
	return &CustomerRepository{DB: db}
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, businessID, email string) (*entity.Customer, error) {
	query := `
		SELECT id, business_id, email, name, phone, source, created_at, updated_at
		FROM customers
		WHERE business_id = $1 AND email = $2
	`

	var c entity.Customer
	var name, phone sql.NullString

	err := r.DB.QueryRowContext(ctx, query, businessID, entity.NormalizeEmail(email)).Scan(
		&c.ID,
		&c.BusinessID,
		&c.Email,
		&name,
		&phone,
		&c.Source,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrCustomerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find customer: %w", err)
	}

	c.Name = name.String
	c.Phone = phone.String
	return &c, nil
}

func (r *CustomerRepository) Create(ctx context.Context, c *entity.Customer) error {
	query := `
		INSERT INTO customers (id, business_id, email, name, phone, source, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.DB.ExecContext(ctx, query,
		c.ID,
		c.BusinessID,
		c.Email,
		nullString(c.Name),
		nullString(c.Phone),
		c.Source,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if isUniqueViolation(err) {
		return entity.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) UpdateContact(ctx context.Context, id, name, phone string) error {
	query := `
		UPDATE customers
		SET name = COALESCE($2, name),
		    phone = COALESCE($3, phone),
		    updated_at = NOW()
		WHERE id = $1
	`

	res, err := r.DB.ExecContext(ctx, query, id, nullString(name), nullString(phone))
	if err != nil {
		return fmt.Errorf("update customer contact: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return entity.ErrCustomerNotFound
	}
	return nil
}
