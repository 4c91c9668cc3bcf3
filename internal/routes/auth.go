package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moba-pay/moba_wallet/internal/auth"
)

// RegisterAuthRoutes wires the unauthenticated endpoints: everything under
// /auth plus the three exact allow-listed paths.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/otp/request", h.RequestOTP)

	r.Post("/otp/verify", h.VerifyOTP)
	r.Post("/customers/register", h.Register)
}
