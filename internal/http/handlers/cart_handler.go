package handlers

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/services"
	"shopfront/internal/validate"
)

type CartHandler struct {
	Cart       *services.CartService
	Catalog    *services.CatalogService
	StagingDir string
}

// flexValue accepts a JSON string or a bare literal (number) and keeps its
// text as-is, so ids like 7 and "7" match the same cart line.
type flexValue string

func (v *flexValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = flexValue(s)
		return nil
	}
	*v = flexValue(b)
	return nil
}

func (v flexValue) String() string { return strings.TrimSpace(string(v)) }

type addRequest struct {
	ID    flexValue `json:"id"`
	Name  string    `json:"name"`
	Price flexValue `json:"price"`
	Image string    `json:"image"`
}

type quantityRequest struct {
	ProductID flexValue `json:"product_id"`
	Quantity  flexValue `json:"quantity"`
}

type removeRequest struct {
	ProductID flexValue `json:"product_id"`
}

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true}

var reUnsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func cartStatus(res domain.CartResult) int {
	switch {
	case res.Success:
		return fiber.StatusOK
	case res.Message == domain.MsgServerError:
		return fiber.StatusInternalServerError
	case res.Message == domain.MsgItemNotFound:
		return fiber.StatusNotFound
	default:
		return fiber.StatusBadRequest
	}
}

func (h *CartHandler) reply(c *fiber.Ctx, action string, res domain.CartResult) error {
	if !res.Success {
		applog.Info(c, action+".rejected", map[string]any{"message": res.Message})
	}
	return c.Status(cartStatus(res)).JSON(res)
}

func (h *CartHandler) badRequest(c *fiber.Ctx, field string) error {
	applog.Security(c, "validation.fail", map[string]any{"field": field})
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid request"})
}

// GET /cart
func (h *CartHandler) View(c *fiber.Ctx) error {
	cart, err := h.Cart.View(c.UserContext(), sessionID(c))
	if err != nil {
		applog.Error(c, "cart.view.fail", err, nil)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false, "message": domain.MsgServerError})
	}
	return c.JSON(fiber.Map{
		"items":             cart.Items,
		"accumulated_total": cart.Total,
		"number_of_items":   len(cart.Items),
	})
}

// POST /add-to-cart
// Name, price and image are taken from the catalog; the client's copy is only checked.
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var req addRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "body")
	}
	id := req.ID.String()
	if id == "" {
		return h.reply(c, "cart.add", (&domain.Cart{}).Result(false, domain.MsgMissingProduct))
	}
	if _, ok := validate.ID(id); !ok {
		return h.badRequest(c, "id")
	}
	price, ok := validate.Price(req.Price.String())
	if !ok {
		return h.reply(c, "cart.add", (&domain.Cart{}).Result(false, domain.MsgInvalidPrice))
	}
	p, err := h.Catalog.GetProduct(c.UserContext(), id)
	if err != nil {
		applog.Security(c, "cart.add.unknown_product", map[string]any{"product_id": id})
		return h.reply(c, "cart.add", (&domain.Cart{}).Result(false, domain.MsgItemNotFound))
	}
	if !p.Price.Equal(price) {
		applog.Info(c, "cart.add.price_mismatch", map[string]any{"product_id": id, "client": price.String(), "server": p.Price.String()})
	}
	res := h.Cart.Add(c.UserContext(), sessionID(c), id, p.Name, p.Price, p.Image)
	return h.reply(c, "cart.add", res)
}

// POST /update-quantity
func (h *CartHandler) UpdateQuantity(c *fiber.Ctx) error {
	var req quantityRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "body")
	}
	qty, ok := validate.Quantity(req.Quantity.String())
	if !ok {
		return h.badRequest(c, "quantity")
	}
	res := h.Cart.UpdateQuantity(c.UserContext(), sessionID(c), req.ProductID.String(), qty)
	return h.reply(c, "cart.update_quantity", res)
}

// POST /remove-from-cart
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	var req removeRequest
	if err := c.BodyParser(&req); err != nil {
		return h.badRequest(c, "body")
	}
	res := h.Cart.Remove(c.UserContext(), sessionID(c), req.ProductID.String())
	return h.reply(c, "cart.remove", res)
}

// POST /cart/customize (multipart: product_id, instruction, image)
func (h *CartHandler) Customize(c *fiber.Ctx) error {
	pid := strings.TrimSpace(c.FormValue("product_id"))
	instruction, ok := validate.Instruction(c.FormValue("instruction"))
	if !ok {
		return h.badRequest(c, "instruction")
	}

	staged := ""
	if fh, err := c.FormFile("image"); err == nil {
		ext := strings.ToLower(filepath.Ext(fh.Filename))
		if !imageExts[ext] {
			return h.badRequest(c, "image")
		}
		base := reUnsafeName.ReplaceAllString(strings.TrimSuffix(filepath.Base(fh.Filename), filepath.Ext(fh.Filename)), "_")
		staged = filepath.Join(h.StagingDir, uuid.NewString()+"_"+base+ext)
		if err := c.SaveFile(fh, staged); err != nil {
			applog.Error(c, "cart.customize.stage.fail", err, nil)
			return h.reply(c, "cart.customize", (&domain.Cart{}).Result(false, domain.MsgServerError))
		}
	}

	res := h.Cart.Customize(c.UserContext(), sessionID(c), pid, instruction, staged)
	return h.reply(c, "cart.customize", res)
}
