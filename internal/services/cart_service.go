package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"shopfront/internal/cache"
	"shopfront/internal/domain"
	applog "shopfront/internal/log"
)

// CartService owns one cart per session. Mutations for a session run one at a
// time: load, apply, store. A failed store leaves the previous cart in place.
type CartService struct {
	carts cache.CartCache
	locks keyedMutex
}

func NewCartService(carts cache.CartCache) *CartService {
	return &CartService{carts: carts}
}

func (s *CartService) View(ctx context.Context, sessionID string) (*domain.Cart, error) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()
	return s.load(ctx, sessionID)
}

func (s *CartService) Add(ctx context.Context, sessionID, productID, name string, price decimal.Decimal, image string) domain.CartResult {
	res, _ := s.mutate(ctx, sessionID, "cart.add", func(c *domain.Cart) domain.CartResult {
		return c.Add(productID, name, price, image)
	})
	return res
}

func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID string, qty int) domain.CartResult {
	res, _ := s.mutate(ctx, sessionID, "cart.update_quantity", func(c *domain.Cart) domain.CartResult {
		return c.UpdateQuantity(productID, qty)
	})
	return res
}

// Remove drops every line for productID and deletes their staged images.
func (s *CartService) Remove(ctx context.Context, sessionID, productID string) domain.CartResult {
	var staged []string
	res, saved := s.mutate(ctx, sessionID, "cart.remove", func(c *domain.Cart) domain.CartResult {
		staged = c.StagedImages(productID)
		return c.Remove(productID)
	})
	if saved {
		removeStaged(staged...)
	}
	return res
}

// Customize attaches an instruction and optionally a staged image to a line.
// The staged file is owned by the cart from here on: it is deleted when the
// update does not stick, and the image it replaces is deleted when it does.
func (s *CartService) Customize(ctx context.Context, sessionID, productID, instruction, stagedPath string) domain.CartResult {
	var replaced string
	res, saved := s.mutate(ctx, sessionID, "cart.customize", func(c *domain.Cart) domain.CartResult {
		r, prev := c.Customize(productID, instruction, stagedPath)
		replaced = prev
		return r
	})
	if !saved {
		removeStaged(stagedPath)
		return res
	}
	removeStaged(replaced)
	return res
}

// ClearOrdered removes the lines an order was built from. Lines added or
// customized while the order was being placed stay in the cart.
func (s *CartService) ClearOrdered(ctx context.Context, sessionID string, ordered []domain.CartItem) error {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		return err
	}
	orphaned := cart.DropOrdered(ordered)
	if cart.Empty() {
		err = s.carts.Delete(ctx, sessionID)
	} else {
		err = s.carts.Set(ctx, sessionID, cart)
	}
	if err != nil {
		return err
	}
	removeStaged(orphaned...)
	return nil
}

func (s *CartService) load(ctx context.Context, sessionID string) (*domain.Cart, error) {
	c, err := s.carts.Get(ctx, sessionID)
	if errors.Is(err, cache.ErrCacheMiss) {
		return &domain.Cart{}, nil
	}
	return c, err
}

// mutate reports whether the new cart was stored.
func (s *CartService) mutate(ctx context.Context, sessionID, action string, op func(*domain.Cart) domain.CartResult) (domain.CartResult, bool) {
	unlock := s.locks.Lock(sessionID)
	defer unlock()

	cart, err := s.load(ctx, sessionID)
	if err != nil {
		applog.Error(nil, action+".load.fail", err, map[string]any{"sid": sessionID})
		empty := &domain.Cart{}
		return empty.Result(false, domain.MsgServerError), false
	}
	before := cart.Clone()

	res := op(cart)
	if !res.Success {
		return res, false
	}
	if err := s.carts.Set(ctx, sessionID, cart); err != nil {
		applog.Error(nil, action+".save.fail", err, map[string]any{"sid": sessionID})
		return before.Result(false, domain.MsgServerError), false
	}
	return res, true
}
