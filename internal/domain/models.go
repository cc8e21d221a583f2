package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var ErrOrderNotFound = errors.New("order not found")

type Product struct {
	ID          string          `db:"id" json:"id"`
	BusinessID  string          `db:"business_id" json:"-"`
	Name        string          `db:"name" json:"name"`
	Description string          `db:"description" json:"description"`
	Price       decimal.Decimal `db:"price" json:"price"`
	Image       string          `db:"image" json:"image"`
	Active      bool            `db:"active" json:"-"`
	CreatedAt   string          `db:"created_at" json:"-"`
}

// Customer identity is scoped to (BusinessID, Phone); Phone is always normalized.
type Customer struct {
	ID         string `db:"id" json:"id"`
	BusinessID string `db:"business_id" json:"business_id"`
	Name       string `db:"name" json:"name"`
	Email      string `db:"email" json:"email"`
	Phone      string `db:"phone" json:"phone"`
	Location   string `db:"location" json:"location"`
	Gender     string `db:"gender" json:"gender"`
	CreatedAt  string `db:"created_at" json:"created_at"`
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderConfirmed OrderStatus = "confirmed"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderConfirmed, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentFailed  PaymentStatus = "failed"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentFailed:
		return true
	}
	return false
}

// PipelineState tracks how far order creation got: created -> images_uploaded -> attached.
type PipelineState string

const (
	PipelineCreated        PipelineState = "created"
	PipelineImagesUploaded PipelineState = "images_uploaded"
	PipelineAttached       PipelineState = "attached"
)

// ManifestEntry is the snapshot of one cart line stored on an order.
type ManifestEntry struct {
	ProductID   string `json:"product_id"`
	Quantity    int    `json:"quantity"`
	Instruction string `json:"instruction,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
}

type Manifest []ManifestEntry

func (m Manifest) Value() (driver.Value, error) { return jsonValue(m) }
func (m *Manifest) Scan(src any) error         { return jsonScan(src, m) }

// CartSnapshot is the cart as it was when the order was created.
type CartSnapshot []CartItem

func (s CartSnapshot) Value() (driver.Value, error) { return jsonValue(s) }
func (s *CartSnapshot) Scan(src any) error         { return jsonScan(src, s) }

type Order struct {
	ID                string          `db:"id" json:"id"`
	BusinessID        string          `db:"business_id" json:"business_id"`
	CustomerID        string          `db:"customer_id" json:"customer_id"`
	CheckoutSessionID string          `db:"checkout_session_id" json:"-"`
	TotalAmount       decimal.Decimal `db:"total_amount" json:"total_amount"`
	Status            OrderStatus     `db:"order_status" json:"order_status"`
	PaymentStatus     PaymentStatus   `db:"order_payment_status" json:"order_payment_status"`
	DeliveryLocation  string          `db:"delivery_location" json:"delivery_location"`
	Products          Manifest        `db:"products" json:"products"`
	PipelineState     PipelineState   `db:"pipeline_state" json:"pipeline_state"`
	CartSnapshot      CartSnapshot    `db:"cart_snapshot" json:"-"`
	CreatedAt         string          `db:"created_at" json:"created_at"`
	UpdatedAt         string          `db:"updated_at" json:"updated_at"`
}

// NumberOfItems sums quantities over the attached manifest, falling back to
// the cart snapshot while the manifest is not attached yet.
func (o *Order) NumberOfItems() int {
	n := 0
	if len(o.Products) > 0 {
		for _, p := range o.Products {
			n += p.Quantity
		}
		return n
	}
	for _, it := range o.CartSnapshot {
		n += it.Quantity
	}
	return n
}

func jsonValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func jsonScan(src any, dst any) error {
	var b []byte
	switch v := src.(type) {
	case nil:
		return nil
	case string:
		b = []byte(v)
	case []byte:
		b = v
	default:
		return fmt.Errorf("unsupported json column type %T", src)
	}
	if len(b) == 0 {
		return nil
	}
	return json.Unmarshal(b, dst)
}
