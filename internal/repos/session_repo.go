package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

// CheckoutSessionRepo persists per-visitor checkout state keyed by the sid cookie.
type CheckoutSessionRepo struct{ db *sqlx.DB }

func NewCheckoutSessionRepo(db *sqlx.DB) *CheckoutSessionRepo { return &CheckoutSessionRepo{db: db} }

// Get returns an empty session (ID set) when none was stored yet.
func (r *CheckoutSessionRepo) Get(ctx context.Context, sid string) (domain.CheckoutSession, error) {
	var s domain.CheckoutSession
	err := r.db.GetContext(ctx, &s, `
		SELECT id, checkout_phone, customer_id, order_id, delivery_location, COALESCE(updated_at,'') AS updated_at
		FROM checkout_sessions WHERE id = ?
	`, sid)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.CheckoutSession{ID: sid}, nil
	}
	return s, err
}

func (r *CheckoutSessionRepo) Save(ctx context.Context, s domain.CheckoutSession) error {
	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO checkout_sessions(id, checkout_phone, customer_id, order_id, delivery_location, updated_at)
		VALUES(:id, :checkout_phone, :customer_id, :order_id, :delivery_location, CURRENT_TIMESTAMP)
		ON CONFLICT(id) DO UPDATE SET
		  checkout_phone = excluded.checkout_phone,
		  customer_id = excluded.customer_id,
		  order_id = excluded.order_id,
		  delivery_location = excluded.delivery_location,
		  updated_at = CURRENT_TIMESTAMP
	`, s)
	return err
}
