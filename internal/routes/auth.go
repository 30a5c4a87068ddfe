package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_orders/internal/auth"
)

// RegisterAuthRoutes wires authentication endpoints.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, requireClient fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/login", h.Login)
	group.Post("/register", h.Register)
	group.Get("/profile", requireClient, h.Profile)
}
