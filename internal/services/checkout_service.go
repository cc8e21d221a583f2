package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/validate"
)

// Step names the page a checkout action sends the visitor to next.
type Step string

const (
	StepCheckout Step = "checkout"
	StepCustomer Step = "customer"
	StepPayout   Step = "payout"
)

type Outcome struct {
	Next    Step
	Message string
}

// FinalizeResult describes the order a session ended up with. Created is set
// only on the call that inserted the order; Pending means its manifest is not
// attached yet. Review fills Cart instead of Order while no order exists.
type FinalizeResult struct {
	Success          bool
	Message          string
	Next             Step
	Order            *domain.Order
	Cart             *domain.Cart
	AccumulatedTotal decimal.Decimal
	NumberOfItems    int
	Created          bool
	Pending          bool
}

const (
	msgInvalidPhone   = "Please enter a valid phone number"
	msgNeedPhone      = "Please enter your phone number to continue"
	msgNeedCustomer   = "Please tell us a little about yourself"
	msgCustomerFailed = "We could not save your details. Please try again."
	msgEmptyCart      = "Your cart is empty"
	msgOrderFailed    = "We could not place your order. Please try again."
	msgOrderMissing   = "We could not find your previous order. Please check out again."
	msgTryAgain       = "Something went wrong. Please try again."
)

// CheckoutGuard moves a session through NoPhone, PhoneKnown, CustomerKnown
// and OrderCreated. Once an order id is recorded the session keeps showing
// that order until Reset. Calls for one session run one at a time.
type CheckoutGuard struct {
	sessions  SessionStore
	customers *CustomerDirectory
	pipeline  *OrderPipeline
	carts     *CartService
	flights   singleflight.Group
	locks     keyedMutex
}

func NewCheckoutGuard(sessions SessionStore, customers *CustomerDirectory, pipeline *OrderPipeline, carts *CartService) *CheckoutGuard {
	return &CheckoutGuard{sessions: sessions, customers: customers, pipeline: pipeline, carts: carts}
}

func (g *CheckoutGuard) Session(ctx context.Context, sid string) (domain.CheckoutSession, error) {
	return g.sessions.Get(ctx, sid)
}

// SubmitPhone records the visitor's phone and delivery location. Known
// customers skip the intake form.
func (g *CheckoutGuard) SubmitPhone(ctx context.Context, sid, rawPhone, location string) Outcome {
	unlock := g.locks.Lock(sid)
	defer unlock()

	s, err := g.sessions.Get(ctx, sid)
	if err != nil {
		applog.Error(nil, "checkout.phone.session.fail", err, nil)
		return Outcome{Next: StepCheckout, Message: msgTryAgain}
	}
	if s.OrderID != "" {
		return Outcome{Next: StepPayout}
	}
	phone, err := validate.NormalizePhone(rawPhone)
	if err != nil {
		return Outcome{Next: StepCheckout, Message: msgInvalidPhone}
	}
	found := g.customers.Find(ctx, phone)
	if found.Error != "" {
		return Outcome{Next: StepCheckout, Message: msgTryAgain}
	}

	s.CheckoutPhone = phone
	s.CustomerID = ""
	if location != "" {
		s.DeliveryLocation = location
	}
	next := StepCustomer
	if found.Exists {
		s.CustomerID = found.Customer.ID
		if s.DeliveryLocation == "" {
			s.DeliveryLocation = found.Customer.Location
		}
		next = StepPayout
	}
	if err := g.sessions.Save(ctx, s); err != nil {
		applog.Error(nil, "checkout.phone.save.fail", err, nil)
		return Outcome{Next: StepCheckout, Message: msgTryAgain}
	}
	applog.Info(nil, "checkout.phone", map[string]any{"sid": sid, "known": found.Exists})
	return Outcome{Next: next}
}

// SubmitCustomer creates the customer for the phone already on the session.
func (g *CheckoutGuard) SubmitCustomer(ctx context.Context, sid string, nc NewCustomer) Outcome {
	unlock := g.locks.Lock(sid)
	defer unlock()

	s, err := g.sessions.Get(ctx, sid)
	if err != nil {
		applog.Error(nil, "checkout.customer.session.fail", err, nil)
		return Outcome{Next: StepCustomer, Message: msgTryAgain}
	}
	if s.OrderID != "" {
		return Outcome{Next: StepPayout}
	}
	if s.CheckoutPhone == "" {
		return Outcome{Next: StepCheckout, Message: msgNeedPhone}
	}
	nc.Phone = s.CheckoutPhone
	c, err := g.customers.Create(ctx, nc)
	if err != nil {
		return Outcome{Next: StepCustomer, Message: msgCustomerFailed}
	}
	s.CustomerID = c.ID
	if s.DeliveryLocation == "" {
		s.DeliveryLocation = c.Location
	}
	if err := g.sessions.Save(ctx, s); err != nil {
		applog.Error(nil, "checkout.customer.save.fail", err, nil)
		return Outcome{Next: StepCustomer, Message: msgTryAgain}
	}
	return Outcome{Next: StepPayout}
}

// Review reports the order the session already has, or the cart Finalize
// would order from. It never creates an order.
func (g *CheckoutGuard) Review(ctx context.Context, sid string) FinalizeResult {
	unlock := g.locks.Lock(sid)
	defer unlock()

	s, res, done := g.recorded(ctx, sid)
	if done {
		return res
	}
	cart, res, ok := g.orderable(ctx, s)
	if !ok {
		return res
	}
	n := 0
	for _, it := range cart.Items {
		n += it.Quantity
	}
	return FinalizeResult{
		Success:          true,
		Next:             StepPayout,
		Cart:             cart,
		AccumulatedTotal: cart.Total,
		NumberOfItems:    n,
	}
}

// Finalize creates the session's order, or reports the one it already has.
// Concurrent calls for one session share a single run.
func (g *CheckoutGuard) Finalize(ctx context.Context, sid string) FinalizeResult {
	v, _, _ := g.flights.Do(sid, func() (any, error) {
		unlock := g.locks.Lock(sid)
		defer unlock()
		return g.finalize(ctx, sid), nil
	})
	return v.(FinalizeResult)
}

func (g *CheckoutGuard) finalize(ctx context.Context, sid string) FinalizeResult {
	s, res, done := g.recorded(ctx, sid)
	if done {
		return res
	}
	cart, res, ok := g.orderable(ctx, s)
	if !ok {
		return res
	}
	snapshot := cart.Clone().Items

	o, err := g.pipeline.CreateOrder(ctx, s.CustomerID, sid, s.DeliveryLocation, cart.Total, snapshot)
	if err != nil {
		return FinalizeResult{Next: StepCheckout, Message: msgOrderFailed}
	}
	// From here on the order owns the staged files.
	defer g.pipeline.DiscardStaged(snapshot)

	// A failed write is recovered by recorded(), which finds the order by
	// its checkout_session_id while it is unattached.
	s.OrderID = o.ID
	if err := g.sessions.Save(ctx, s); err != nil {
		applog.Error(nil, "checkout.finalize.record.fail", err, map[string]any{"order_id": o.ID})
	}

	manifest, uerr := g.pipeline.UploadOrderImages(ctx, o.ID, snapshot)
	if uerr != nil {
		applog.Warn(nil, "checkout.finalize.upload.partial", uerr, map[string]any{"order_id": o.ID})
	}
	res = FinalizeResult{
		Success:          true,
		Next:             StepPayout,
		Order:            o,
		AccumulatedTotal: o.TotalAmount,
		NumberOfItems:    o.NumberOfItems(),
		Created:          true,
	}
	if err := g.pipeline.AttachProducts(ctx, o.ID, manifest); err != nil {
		res.Pending = true
		return res
	}
	if err := g.carts.ClearOrdered(ctx, sid, snapshot); err != nil {
		applog.Error(nil, "checkout.finalize.cart_clear.fail", err, map[string]any{"order_id": o.ID})
	}
	o.Products = manifest
	o.PipelineState = domain.PipelineAttached
	res.NumberOfItems = o.NumberOfItems()
	applog.Audit(nil, "checkout.finalize", map[string]any{"sid": sid, "order_id": o.ID})
	return res
}

// recorded loads the session and, when it already has an order, reports it.
// An unfinished order placed from the session is adopted even if its id never
// made it onto the session. done is false when no order exists yet.
func (g *CheckoutGuard) recorded(ctx context.Context, sid string) (domain.CheckoutSession, FinalizeResult, bool) {
	s, err := g.sessions.Get(ctx, sid)
	if err != nil {
		applog.Error(nil, "checkout.finalize.session.fail", err, nil)
		return s, FinalizeResult{Next: StepCheckout, Message: msgTryAgain}, true
	}
	if s.OrderID != "" {
		return s, g.existing(ctx, s), true
	}
	o, err := g.pipeline.UnfinishedForSession(ctx, sid)
	if errors.Is(err, domain.ErrOrderNotFound) {
		return s, FinalizeResult{}, false
	}
	if err != nil {
		applog.Error(nil, "checkout.finalize.lookup.fail", err, nil)
		return s, FinalizeResult{Next: StepCheckout, Message: msgTryAgain}, true
	}
	applog.Warn(nil, "checkout.finalize.adopt", nil, map[string]any{"sid": sid, "order_id": o.ID})
	s.OrderID = o.ID
	if err := g.sessions.Save(ctx, s); err != nil {
		applog.Error(nil, "checkout.finalize.record.fail", err, map[string]any{"order_id": o.ID})
	}
	return s, g.existing(ctx, s), true
}

// orderable checks that s may place an order and returns its cart.
func (g *CheckoutGuard) orderable(ctx context.Context, s domain.CheckoutSession) (*domain.Cart, FinalizeResult, bool) {
	switch s.Stage() {
	case domain.StageNoPhone:
		return nil, FinalizeResult{Next: StepCheckout, Message: msgNeedPhone}, false
	case domain.StagePhoneKnown:
		return nil, FinalizeResult{Next: StepCustomer, Message: msgNeedCustomer}, false
	}
	cart, err := g.carts.View(ctx, s.ID)
	if err != nil {
		applog.Error(nil, "checkout.finalize.cart.fail", err, nil)
		return nil, FinalizeResult{Next: StepCheckout, Message: msgTryAgain}, false
	}
	if cart.Empty() {
		return nil, FinalizeResult{Next: StepCheckout, Message: msgEmptyCart}, false
	}
	return cart, FinalizeResult{}, true
}

// existing reports the order already recorded on s, finishing its pipeline
// if it was interrupted. A vanished order sends the visitor back to checkout.
func (g *CheckoutGuard) existing(ctx context.Context, s domain.CheckoutSession) FinalizeResult {
	o, err := g.pipeline.Order(ctx, s.OrderID)
	if errors.Is(err, domain.ErrOrderNotFound) {
		applog.Warn(nil, "checkout.finalize.order_missing", err, map[string]any{"order_id": s.OrderID})
		s.OrderID = ""
		if err := g.sessions.Save(ctx, s); err != nil {
			applog.Error(nil, "checkout.finalize.reset.fail", err, nil)
		}
		return FinalizeResult{Next: StepCheckout, Message: msgOrderMissing}
	}
	if err != nil {
		applog.Error(nil, "checkout.finalize.order.fail", err, map[string]any{"order_id": s.OrderID})
		return FinalizeResult{Next: StepCheckout, Message: msgTryAgain}
	}

	pending := false
	if o.PipelineState != domain.PipelineAttached {
		if o, err = g.finish(ctx, s.ID, o); err != nil {
			pending = true
		}
	}
	return FinalizeResult{
		Success:          true,
		Next:             StepPayout,
		Order:            o,
		AccumulatedTotal: o.TotalAmount,
		NumberOfItems:    o.NumberOfItems(),
		Pending:          pending,
	}
}

// finish resumes an unattached order and takes its lines out of the cart.
// On failure the original order is returned with the error.
func (g *CheckoutGuard) finish(ctx context.Context, sid string, o *domain.Order) (*domain.Order, error) {
	resumed, err := g.pipeline.Resume(ctx, o.ID)
	if err != nil {
		return o, err
	}
	if err := g.carts.ClearOrdered(ctx, sid, resumed.CartSnapshot); err != nil {
		applog.Error(nil, "checkout.finalize.cart_clear.fail", err, map[string]any{"order_id": o.ID})
	}
	return resumed, nil
}

// Reset forgets the session's order so the visitor can start a new one. The
// phone and customer are kept. An order still being placed is finished first;
// if that fails the session keeps it.
func (g *CheckoutGuard) Reset(ctx context.Context, sid string) error {
	unlock := g.locks.Lock(sid)
	defer unlock()

	s, err := g.sessions.Get(ctx, sid)
	if err != nil {
		return err
	}
	if s.OrderID == "" {
		return nil
	}
	o, err := g.pipeline.Order(ctx, s.OrderID)
	switch {
	case errors.Is(err, domain.ErrOrderNotFound):
	case err != nil:
		return err
	case o.PipelineState != domain.PipelineAttached:
		if _, err := g.finish(ctx, sid, o); err != nil {
			return fmt.Errorf("finish order %s: %w", o.ID, err)
		}
	}
	applog.Audit(nil, "checkout.reset", map[string]any{"sid": sid, "order_id": s.OrderID})
	s.OrderID = ""
	return g.sessions.Save(ctx, s)
}
