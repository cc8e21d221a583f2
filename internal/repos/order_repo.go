package repos

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"shopfront/internal/domain"
)

type OrderRepo struct{ db *sqlx.DB }

func NewOrderRepo(db *sqlx.DB) *OrderRepo { return &OrderRepo{db: db} }

const orderColumns = `id, business_id, customer_id, checkout_session_id, total_amount, order_status,
	order_payment_status, delivery_location, products, pipeline_state, cart_snapshot,
	COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

// Insert stores a new order header. The id is assigned here and the stored row is returned.
func (r *OrderRepo) Insert(ctx context.Context, o domain.Order) (*domain.Order, error) {
	o.ID = uuid.NewString()
	if o.Products == nil {
		o.Products = domain.Manifest{}
	}
	if o.CartSnapshot == nil {
		o.CartSnapshot = domain.CartSnapshot{}
	}
	if _, err := r.db.NamedExecContext(ctx, `
	  INSERT INTO orders
	    (id, business_id, customer_id, checkout_session_id, total_amount, order_status, order_payment_status,
	     delivery_location, products, pipeline_state, cart_snapshot, created_at, updated_at)
	  VALUES
	    (:id, :business_id, :customer_id, :checkout_session_id, :total_amount, :order_status, :order_payment_status,
	     :delivery_location, :products, :pipeline_state, :cart_snapshot, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	`, o); err != nil {
		return nil, err
	}
	return r.Get(ctx, o.ID)
}

// Get returns ErrOrderNotFound when no row matches.
func (r *OrderRepo) Get(ctx context.Context, orderID string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.GetContext(ctx, &o, `SELECT `+orderColumns+` FROM orders WHERE id = ?`, orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// SetPipelineState advances the creation pipeline marker.
func (r *OrderRepo) SetPipelineState(ctx context.Context, orderID string, state domain.PipelineState) error {
	return r.exec(ctx, `UPDATE orders SET pipeline_state = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, state, orderID)
}

// AttachProducts writes the manifest and marks the pipeline attached in one statement.
func (r *OrderRepo) AttachProducts(ctx context.Context, orderID string, m domain.Manifest) error {
	if m == nil {
		m = domain.Manifest{}
	}
	return r.exec(ctx, `
		UPDATE orders SET products = ?, pipeline_state = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, m, domain.PipelineAttached, orderID)
}

func (r *OrderRepo) UpdateStatus(ctx context.Context, orderID string, status domain.OrderStatus) error {
	return r.exec(ctx, `UPDATE orders SET order_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, orderID)
}

func (r *OrderRepo) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) error {
	return r.exec(ctx, `UPDATE orders SET order_payment_status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, status, orderID)
}

func (r *OrderRepo) ListLatest(ctx context.Context, businessID string, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 100
	}
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE business_id = ?
		ORDER BY datetime(created_at) DESC
		LIMIT ?
	`, businessID, limit)
	return out, err
}

// ListUnattached returns orders whose pipeline stopped before the manifest was attached.
func (r *OrderRepo) ListUnattached(ctx context.Context, businessID string) ([]domain.Order, error) {
	out := []domain.Order{}
	err := r.db.SelectContext(ctx, &out, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE business_id = ? AND pipeline_state != ?
		ORDER BY datetime(created_at)
	`, businessID, domain.PipelineAttached)
	return out, err
}

// FindUnattachedBySession returns the newest unfinished order placed from a
// checkout session, or ErrOrderNotFound.
func (r *OrderRepo) FindUnattachedBySession(ctx context.Context, businessID, sessionID string) (*domain.Order, error) {
	var o domain.Order
	err := r.db.GetContext(ctx, &o, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE business_id = ? AND checkout_session_id = ? AND pipeline_state != ?
		ORDER BY datetime(created_at) DESC
		LIMIT 1
	`, businessID, sessionID, domain.PipelineAttached)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %v", domain.ErrOrderNotFound, args[len(args)-1])
	}
	return nil
}
