package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/moba-pay/moba_wallet/internal/security"
)

const requestIDHeader = "X-Request-ID"

// RequestID ensures each request carries a stable reference for tracing and
// logging. Generated references follow the wallet convention: YYMMDD date
// prefix plus six random digits.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = security.GenerateRequestID()
			c.Set(requestIDHeader, reqID)
		}

		c.Locals(requestIDHeader, reqID)

		return c.Next()
	}
}
