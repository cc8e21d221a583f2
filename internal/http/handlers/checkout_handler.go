package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type CheckoutHandler struct {
	Guard *services.CheckoutGuard
	Cart  *services.CartService
}

var stepPaths = map[services.Step]string{
	services.StepCheckout: "/checkout",
	services.StepCustomer: "/customer",
	services.StepPayout:   "/payout",
}

func (h *CheckoutHandler) follow(c *fiber.Ctx, next services.Step, msg string) error {
	setFlash(c, msg)
	path, ok := stepPaths[next]
	if !ok {
		path = "/checkout"
	}
	return c.Redirect(path)
}

// GET /checkout
func (h *CheckoutHandler) Checkout(c *fiber.Ctx) error {
	sid := sessionID(c)
	cart, err := h.Cart.View(c.UserContext(), sid)
	if err != nil {
		applog.Error(c, "checkout.load", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load your cart"})
	}
	s, err := h.Guard.Session(c.UserContext(), sid)
	if err != nil {
		applog.Error(c, "checkout.session.load", err, nil)
	}
	return render(c, "checkout", fiber.Map{
		"Cart":     cart,
		"Total":    cart.Total.StringFixed(2),
		"Phone":    s.CheckoutPhone,
		"Location": s.DeliveryLocation,
		"HasOrder": s.OrderID != "",
	})
}

// POST /pay-now
func (h *CheckoutHandler) PayNow(c *fiber.Ctx) error {
	location, ok := validate.Location(c.FormValue("location"))
	if !ok {
		applog.Security(c, "validation.fail", map[string]any{"field": "location"})
		return h.follow(c, services.StepCheckout, "Delivery location is too long")
	}
	out := h.Guard.SubmitPhone(c.UserContext(), sessionID(c), c.FormValue("phone"), location)
	if out.Next == services.StepCheckout {
		applog.Info(c, "checkout.phone.rejected", map[string]any{"message": out.Message})
	}
	return h.follow(c, out.Next, out.Message)
}

// GET /customer
func (h *CheckoutHandler) CustomerForm(c *fiber.Ctx) error {
	s, err := h.Guard.Session(c.UserContext(), sessionID(c))
	if err != nil || s.CheckoutPhone == "" {
		return h.follow(c, services.StepCheckout, "Please enter your phone number to continue")
	}
	return render(c, "customer", fiber.Map{"Phone": s.CheckoutPhone, "Location": s.DeliveryLocation})
}

// POST /customer
func (h *CheckoutHandler) SubmitCustomer(c *fiber.Ctx) error {
	invalid := func(field, msg string) error {
		applog.Security(c, "validation.fail", map[string]any{"field": field})
		c.Status(fiber.StatusBadRequest)
		return render(c, "customer", fiber.Map{"Err": msg, "Location": c.FormValue("location")})
	}
	name, ok := validate.Name(c.FormValue("name"))
	if !ok {
		return invalid("name", "Please enter your name (up to 60 characters)")
	}
	email, ok := validate.Email(c.FormValue("email"))
	if !ok {
		return invalid("email", "Please enter a valid email address")
	}
	location, ok := validate.Location(c.FormValue("location"))
	if !ok {
		return invalid("location", "Delivery location is too long")
	}
	gender, ok := validate.Gender(c.FormValue("gender"))
	if !ok {
		return invalid("gender", "Please choose a valid option")
	}
	out := h.Guard.SubmitCustomer(c.UserContext(), sessionID(c), services.NewCustomer{
		Name:     name,
		Email:    email,
		Location: location,
		Gender:   gender,
	})
	return h.follow(c, out.Next, out.Message)
}

// GET /payout
// Shows the session's order, or the cart with a button to place it. Never
// creates an order, so it is safe to refresh or link to.
func (h *CheckoutHandler) Payout(c *fiber.Ctx) error {
	res := h.Guard.Review(c.UserContext(), sessionID(c))
	if !res.Success {
		return h.follow(c, res.Next, res.Message)
	}
	if res.Order == nil {
		return render(c, "payout", fiber.Map{
			"Cart":  res.Cart,
			"Total": res.AccumulatedTotal.StringFixed(2),
			"Count": res.NumberOfItems,
		})
	}
	return render(c, "payout", fiber.Map{
		"Order":   res.Order,
		"Total":   res.AccumulatedTotal.StringFixed(2),
		"Count":   res.NumberOfItems,
		"Pending": res.Pending,
	})
}

// POST /payout
func (h *CheckoutHandler) PlaceOrder(c *fiber.Ctx) error {
	res := h.Guard.Finalize(c.UserContext(), sessionID(c))
	if !res.Success {
		return h.follow(c, res.Next, res.Message)
	}
	msg := ""
	if res.Created {
		applog.Audit(c, "order.place", map[string]any{"order_id": res.Order.ID, "total": res.AccumulatedTotal.StringFixed(2)})
		msg = "Order placed"
	}
	return h.follow(c, services.StepPayout, msg)
}

// POST /checkout/reset
func (h *CheckoutHandler) Reset(c *fiber.Ctx) error {
	if err := h.Guard.Reset(c.UserContext(), sessionID(c)); err != nil {
		applog.Error(c, "checkout.reset.fail", err, nil)
		return h.follow(c, services.StepPayout, "Could not start a new order. Please try again.")
	}
	return c.Redirect("/")
}

// GET /paid
func (h *CheckoutHandler) Paid(c *fiber.Ctx) error {
	return render(c, "paid", nil)
}

// GET /contact
func (h *CheckoutHandler) Contact(c *fiber.Ctx) error {
	return render(c, "contact", nil)
}
