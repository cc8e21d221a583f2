package cache

import (
	"context"
	"errors"

	"shopfront/internal/domain"
)

// CartCache holds one cart per session id.
type CartCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)
	Set(ctx context.Context, sessionID string, cart *domain.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

var ErrCacheMiss = errors.New("cache miss")
