package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

type CustomerRepo struct{ db *sqlx.DB }

func NewCustomerRepo(db *sqlx.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// FindByPhone returns nil, nil when the business has no customer with that phone.
func (r *CustomerRepo) FindByPhone(ctx context.Context, businessID, phone string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.db.GetContext(ctx, &c, `
		SELECT id, business_id, name, email, phone, location, gender, created_at
		FROM customers
		WHERE business_id = ? AND phone = ?
		LIMIT 1
	`, businessID, phone)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert assigns the id and returns the stored record.
func (r *CustomerRepo) Insert(ctx context.Context, c domain.Customer) (*domain.Customer, error) {
	c.ID = uuid.NewString()
	if _, err := r.db.ExecContext(ctx, `
		INSERT INTO customers(id, business_id, name, email, phone, location, gender, created_at)
		VALUES(?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
	`, c.ID, c.BusinessID, c.Name, c.Email, c.Phone, c.Location, c.Gender); err != nil {
		return nil, err
	}
	var out domain.Customer
	if err := r.db.GetContext(ctx, &out, `
		SELECT id, business_id, name, email, phone, location, gender, created_at
		FROM customers WHERE id = ?
	`, c.ID); err != nil {
		return nil, err
	}
	return &out, nil
}
