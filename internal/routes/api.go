package routes

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/walletd/walletd/internal/catalog"
	"github.com/walletd/walletd/internal/identity"
	"github.com/walletd/walletd/internal/transfer"
	"github.com/walletd/walletd/internal/wallet"
)

// RegisterCatalogRoutes exposes the supported currency list.
func RegisterCatalogRoutes(r fiber.Router, c catalog.Catalog) {
	r.Get("/currencies", func(ctx *fiber.Ctx) error {
		return ctx.Status(http.StatusOK).JSON(fiber.Map{"currencies": c.GetCurrencies(ctx.UserContext())})
	})
}

// RegisterWalletRoutes wires wallet endpoints.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler) {
	r.Post("/wallets", h.Create)
	r.Get("/wallets", h.List)
	r.Get("/wallets/:walletId", h.Get)
	r.Get("/wallets/:walletId/transactions", h.Transactions)
}

// RegisterTransferRoutes wires the transfer endpoint behind the rate limiter.
func RegisterTransferRoutes(r fiber.Router, h *transfer.Handler, rateLimiter fiber.Handler) {
	r.Post("/transfers", rateLimiter, h.Create)
}

// RegisterDevRoutes exposes user seeding for local environments.
func RegisterDevRoutes(r fiber.Router, h *identity.Handler) {
	r.Post("/dev/users", h.Register)
}
