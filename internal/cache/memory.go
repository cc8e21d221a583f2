package cache

import (
	"context"
	"sync"

	"shopfront/internal/domain"
)

// MemoryCache keeps carts in process memory. Values are copied in and out so
// callers never share a live cart.
type MemoryCache struct {
	mu    sync.RWMutex
	carts map[string]*domain.Cart
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{carts: make(map[string]*domain.Cart)}
}

func (m *MemoryCache) Get(_ context.Context, sessionID string) (*domain.Cart, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.carts[sessionID]
	if !ok {
		return nil, ErrCacheMiss
	}
	return c.Clone(), nil
}

func (m *MemoryCache) Set(_ context.Context, sessionID string, cart *domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[sessionID] = cart.Clone()
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, sessionID)
	return nil
}
