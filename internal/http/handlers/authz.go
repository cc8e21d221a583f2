package handlers

import (
	"github.com/gofiber/fiber/v2"

	applog "shopfront/internal/log"
	"shopfront/internal/services"
)

// CurrentUser puts the signed-in back office user, if any, into Locals.
func CurrentUser(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if u := auth.CurrentUser(c.UserContext(), c.Cookies("sid")); u != nil {
			c.Locals("user", u)
		}
		return c.Next()
	}
}

func RequireAdmin(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid := c.Cookies("sid")
		if sid == "" {
			return c.Redirect("/login")
		}
		u := auth.CurrentUser(c.UserContext(), sid)
		if u == nil {
			return c.Redirect("/login")
		}
		if !u.IsAdmin() {
			applog.Security(c, "access.denied.admin", map[string]any{"user": u.Email})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Access denied"})
		}
		c.Locals("user", u)
		return c.Next()
	}
}
