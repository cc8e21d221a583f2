package services

import (
	"context"

	"shopfront/internal/domain"
)

type CustomerStore interface {
	FindByPhone(ctx context.Context, businessID, phone string) (*domain.Customer, error)
	Insert(ctx context.Context, c domain.Customer) (*domain.Customer, error)
}

type OrderStore interface {
	Insert(ctx context.Context, o domain.Order) (*domain.Order, error)
	Get(ctx context.Context, orderID string) (*domain.Order, error)
	SetPipelineState(ctx context.Context, orderID string, state domain.PipelineState) error
	AttachProducts(ctx context.Context, orderID string, m domain.Manifest) error
	ListUnattached(ctx context.Context, businessID string) ([]domain.Order, error)
	FindUnattachedBySession(ctx context.Context, businessID, sessionID string) (*domain.Order, error)
}

type BlobStore interface {
	Upload(ctx context.Context, key string, data []byte) error
	Exists(ctx context.Context, key string) (bool, error)
	PublicURL(key string) string
}

type SessionStore interface {
	Get(ctx context.Context, sid string) (domain.CheckoutSession, error)
	Save(ctx context.Context, s domain.CheckoutSession) error
}
