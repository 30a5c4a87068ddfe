package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_orders/internal/identity"
)

// RegisterUserRoutes wires user management endpoints. Changes and deletions
// are admin only.
func RegisterUserRoutes(r fiber.Router, h *identity.Handler, adminOnly fiber.Handler) {
	group := r.Group("/users")
	group.Get("/", h.List)
	group.Post("/create", h.Create)
	group.Get("/:clientId", h.Get)
	group.Patch("/:clientId", adminOnly, h.Update)
	group.Delete("/:clientId", adminOnly, h.Delete)
}
