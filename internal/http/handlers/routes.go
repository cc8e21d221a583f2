package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

// Mount registers the storefront, auth and admin routes. Global middleware
// (sid, csrf, helmet) is the caller's job.
func Mount(app fiber.Router, d *Deps, auth *services.AuthService) {
	authH := &AuthHandler{Auth: auth}

	app.Get("/", d.ProductHandler.Home)
	app.Get("/contact", d.CheckoutHandler.Contact)
	app.Get("/paid", d.CheckoutHandler.Paid)

	// Cart (JSON)
	app.Get("/cart", d.CartHandler.View)
	app.Post("/add-to-cart", d.CartHandler.Add)
	app.Post("/update-quantity", d.CartHandler.UpdateQuantity)
	app.Post("/remove-from-cart", d.CartHandler.Remove)
	app.Post("/cart/customize", d.CartHandler.Customize)

	// Checkout
	app.Get("/checkout", d.CheckoutHandler.Checkout)
	app.Post("/pay-now", limiter.New(limiter.Config{
		Max:        10,
		Expiration: time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.checkout.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("notfound", fiber.Map{"Message": "Too many attempts. Please try again later."})
		},
	}), d.CheckoutHandler.PayNow)
	app.Get("/customer", d.CheckoutHandler.CustomerForm)
	app.Post("/customer", d.CheckoutHandler.SubmitCustomer)
	app.Get("/payout", d.CheckoutHandler.Payout)
	app.Post("/payout", d.CheckoutHandler.PlaceOrder)
	app.Post("/checkout/reset", d.CheckoutHandler.Reset)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Admin
	admin := app.Group("/admin", RequireAdmin(auth))
	admin.Get("/orders", d.AdminHandler.OrdersPage)
	admin.Post("/orders/:id/status", d.AdminHandler.UpdateOrderStatus)
	admin.Post("/orders/:id/payment", d.AdminHandler.UpdatePaymentStatus)
	admin.Post("/orders/:id/resume", d.AdminHandler.ResumeOrder)

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
}
