package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type AuthHandler struct {
	Auth *services.AuthService
}

func (h *AuthHandler) LoginForm(c *fiber.Ctx) error {
	return render(c, "login", fiber.Map{"Err": ""})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	sid := sessionID(c)
	email := c.FormValue("email")
	pass := c.FormValue("password")
	fail := func(reason string) error {
		log.Security(c, "auth.login.fail", map[string]any{"email": email, "reason": reason})
		c.Status(fiber.StatusUnauthorized)
		return render(c, "login", fiber.Map{"Err": "Invalid email or password"})
	}
	if e, ok := validate.Email(email); !ok || e == "" {
		return fail("bad_format")
	}
	if !validate.Password(pass) {
		return fail("bad_password_format")
	}
	u, err := h.Auth.Login(c.UserContext(), sid, email, pass)
	if err != nil {
		return fail("bad_credentials")
	}

	log.Audit(c, "auth.login.success", map[string]any{"email": email})
	if u.IsAdmin() {
		return c.Redirect("/admin/orders")
	}
	return c.Redirect("/")
}

func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	sid := sessionID(c)
	_ = h.Auth.Logout(c.UserContext(), sid)
	c.Cookie(&fiber.Cookie{
		Name:     "sid",
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", nil)
	return c.Redirect("/")
}
