package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"shopfront/internal/domain"
	applog "shopfront/internal/log"
	"shopfront/internal/repos"
	"shopfront/internal/services"
)

type AdminHandler struct {
	Orders     *repos.OrderRepo
	Pipeline   *services.OrderPipeline
	BusinessID string
}

// GET /admin/orders
func (h *AdminHandler) OrdersPage(c *fiber.Ctx) error {
	ords, err := h.Orders.ListLatest(c.UserContext(), h.BusinessID, 100)
	if err != nil {
		applog.Error(c, "admin.orders.list.fail", err, nil)
		return c.Status(500).Render("notfound", fiber.Map{"Message": "Could not load orders"})
	}
	return render(c, "admin_orders", fiber.Map{
		"Orders":          ords,
		"OrderStatuses":   []domain.OrderStatus{domain.OrderPending, domain.OrderConfirmed, domain.OrderDelivered, domain.OrderCancelled},
		"PaymentStatuses": []domain.PaymentStatus{domain.PaymentPending, domain.PaymentPaid, domain.PaymentFailed},
	})
}

// POST /admin/orders/:id/status
func (h *AdminHandler) UpdateOrderStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := domain.OrderStatus(c.FormValue("status"))
	if id == "" || !status.Valid() {
		return c.Status(400).SendString("missing id or status")
	}
	if err := h.Orders.UpdateStatus(c.UserContext(), id, status); err != nil {
		return h.updateFailed(c, "admin.orders.update.fail", id, err)
	}
	applog.Audit(c, "admin.orders.update", map[string]any{"order_id": id, "status": status})
	return c.Redirect("/admin/orders")
}

// POST /admin/orders/:id/payment
// Payments are confirmed by hand; there is no gateway callback.
func (h *AdminHandler) UpdatePaymentStatus(c *fiber.Ctx) error {
	id := c.Params("id")
	status := domain.PaymentStatus(c.FormValue("payment_status"))
	if id == "" || !status.Valid() {
		return c.Status(400).SendString("missing id or payment status")
	}
	if err := h.Orders.UpdatePaymentStatus(c.UserContext(), id, status); err != nil {
		return h.updateFailed(c, "admin.orders.payment.fail", id, err)
	}
	applog.Audit(c, "admin.orders.payment", map[string]any{"order_id": id, "payment_status": status})
	return c.Redirect("/admin/orders")
}

// POST /admin/orders/:id/resume
func (h *AdminHandler) ResumeOrder(c *fiber.Ctx) error {
	id := c.Params("id")
	o, err := h.Pipeline.Resume(c.UserContext(), id)
	if err != nil {
		return h.updateFailed(c, "admin.orders.resume.fail", id, err)
	}
	applog.Audit(c, "admin.orders.resume", map[string]any{"order_id": id, "pipeline_state": o.PipelineState})
	return c.Redirect("/admin/orders")
}

func (h *AdminHandler) updateFailed(c *fiber.Ctx, action, id string, err error) error {
	if errors.Is(err, domain.ErrOrderNotFound) {
		return c.Status(404).SendString("order not found")
	}
	applog.Error(c, action, err, map[string]any{"order_id": id})
	return c.Status(400).SendString("could not update order")
}
