package middleware

import (
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/walletd/walletd/internal/auth"
)

// UserIDKey is the fiber.Locals key holding the authenticated user id.
const UserIDKey = "user_id"

// JWTAuth validates bearer access tokens and exposes the subject as the caller id.
// Whether the id still maps to a user is left to the services.
func JWTAuth(issuer *auth.Issuer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authz := c.Get(fiber.HeaderAuthorization)
		if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		tokenStr := strings.TrimSpace(authz[len("Bearer "):])
		sub, err := issuer.Subject(tokenStr)
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}

		c.Locals(UserIDKey, sub)
		return c.Next()
	}
}
