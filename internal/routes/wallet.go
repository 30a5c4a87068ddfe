package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/wallet_orders/internal/wallet"
)

// RegisterWalletRoutes wires caller wallet reads and admin balance changes.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, requireClient, adminOnly fiber.Handler) {
	own := r.Group("/wallet", requireClient)
	own.Get("/balance", h.Balance)
	own.Get("/transactions", h.Transactions)

	admin := r.Group("/admin", adminOnly)
	admin.Post("/wallet/credit", h.Credit)
	admin.Post("/wallet/debit", h.Debit)
	admin.Get("/wallet/:clientId/entries", h.Entries)
}
