package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

func (r *ProductRepo) ListByBusiness(ctx context.Context, businessID string) ([]domain.Product, error) {
	out := []domain.Product{}
	err := r.db.SelectContext(ctx, &out, `
	  SELECT id, business_id, name, description, price, image, active, COALESCE(created_at,'') AS created_at
	  FROM products
	  WHERE business_id = ? AND active = 1
	  ORDER BY name
	`, businessID)
	return out, err
}

func (r *ProductRepo) Get(ctx context.Context, businessID, id string) (domain.Product, error) {
	var p domain.Product
	err := r.db.GetContext(ctx, &p, `
	  SELECT id, business_id, name, description, price, image, active, COALESCE(created_at,'') AS created_at
	  FROM products
	  WHERE business_id = ? AND id = ? AND active = 1
	`, businessID, id)
	return p, err
}
