package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/google/uuid"

	"shopfront/internal/services"
)

// SessionID makes sure every visitor carries a sid cookie. The id is also
// put in Locals so the first request can use it before the cookie round trips.
func SessionID(secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			sid = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     "sid",
				Value:    sid,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
				Secure:   secure,
			})
		}
		c.Locals("sid", sid)
		return c.Next()
	}
}

func sessionID(c *fiber.Ctx) string {
	if sid, ok := c.Locals("sid").(string); ok && sid != "" {
		return sid
	}
	return c.Cookies("sid")
}

// CartSummary exposes the visitor's item count and total to templates.
func CartSummary(carts *services.CartService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Method() == fiber.MethodGet {
			if cart, err := carts.View(c.UserContext(), sessionID(c)); err == nil {
				c.Locals("CartCount", len(cart.Items))
				c.Locals("CartTotal", cart.Total.StringFixed(2))
			}
		}
		return c.Next()
	}
}

// setFlash carries a one-shot message across a redirect.
func setFlash(c *fiber.Ctx, msg string) {
	if msg == "" {
		return
	}
	c.Cookie(&fiber.Cookie{Name: "flash", Value: url.QueryEscape(msg), Path: "/", HTTPOnly: true, MaxAge: 60})
}

func takeFlash(c *fiber.Ctx) string {
	raw := c.Cookies("flash")
	if raw == "" {
		return ""
	}
	c.ClearCookie("flash")
	msg, err := url.QueryUnescape(raw)
	if err != nil {
		return ""
	}
	return msg
}

// CSRFToken reads the csrf token from the X-Csrf-Token header (cart calls)
// or the csrf form field (pages).
func CSRFToken(c *fiber.Ctx) (string, error) {
	if tok, err := csrf.CsrfFromHeader(csrf.HeaderName)(c); err == nil {
		return tok, nil
	}
	return csrf.CsrfFromForm("csrf")(c)
}
