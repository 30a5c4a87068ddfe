package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_orders/internal/orders"
)

// RegisterOrderRoutes wires the caller's order endpoints.
func RegisterOrderRoutes(r fiber.Router, h *orders.Handler, requireClient fiber.Handler) {
	group := r.Group("/orders", requireClient)
	group.Post("/", h.Create)
	group.Get("/", h.List)
	group.Get("/:orderId", h.Get)
}
