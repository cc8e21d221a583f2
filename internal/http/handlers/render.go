package handlers

import "github.com/gofiber/fiber/v2"

func render(c *fiber.Ctx, tmpl string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	if u := c.Locals("user"); u != nil {
		data["User"] = u
	}
	if n, ok := c.Locals("CartCount").(int); ok {
		data["CartCount"] = n
		data["CartTotal"] = c.Locals("CartTotal")
	}
	if _, ok := data["Flash"]; !ok {
		if msg := takeFlash(c); msg != "" {
			data["Flash"] = msg
		}
	}
	// token from the CSRF middleware, falling back to its cookie
	tok, _ := c.Locals("CSRFToken").(string)
	if tok == "" {
		tok = c.Cookies("csrf_")
	}
	if tok != "" {
		data["CSRFToken"] = tok
	}
	return c.Render(tmpl, data)
}

func notFound(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": msg})
}
