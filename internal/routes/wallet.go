package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moba-pay/moba_wallet/internal/middleware"
	"github.com/moba-pay/moba_wallet/internal/wallet"
)

// RegisterWalletRoutes wires wallet endpoints. The secret-question listing is
// public (allow-listed); the rest sit behind the gate. PIN changes carry an
// idempotency guard when Redis is available.
func RegisterWalletRoutes(r fiber.Router, h *wallet.Handler, d Deps) {
	r.Post("/wallets/secret-question", h.ListBySecretQuestion)
	r.Get("/wallets/me", h.ListMine)
	if d.Cache != nil {
		r.Post("/wallets/pin", middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger), h.ChangePin)
	} else {
		r.Post("/wallets/pin", h.ChangePin)
	}
}
