package handlers

import (
	"github.com/gofiber/fiber/v2"

	"shopfront/internal/log"
	"shopfront/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// GET /
func (h *ProductHandler) Home(c *fiber.Ctx) error {
	products, err := h.Catalog.ListProducts(c.UserContext())
	if err != nil {
		log.Error(c, "products.list.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{"Message": "Could not load products"})
	}
	return render(c, "index", fiber.Map{"Products": products})
}
