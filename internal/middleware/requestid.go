package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/walletd/walletd/internal/logging"
)

const requestIDHeader = "X-Request-ID"

// RequestID ensures each request has a stable request identifier for tracing
// and logging. The id is echoed in the response and carried on the request's
// user context so services can tag their log lines with it.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqID := c.Get(requestIDHeader)
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set(requestIDHeader, reqID)
		c.Locals(requestIDHeader, reqID)
		c.SetUserContext(logging.WithRequestID(c.UserContext(), reqID))

		return c.Next()
	}
}
