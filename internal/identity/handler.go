package identity

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/walletd/walletd/internal/auth"
)

// Handler exposes the development user seeding endpoint.
type Handler struct {
	service *Service
	issuer  *auth.Issuer
}

// NewHandler constructs an identity HTTP handler.
func NewHandler(service *Service, issuer *auth.Issuer) *Handler {
	return &Handler{service: service, issuer: issuer}
}

type registerRequest struct {
	Username string `json:"username"`
}

type registerResponse struct {
	UserID      string    `json:"user_id"`
	Username    string    `json:"username"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Register seeds a user and returns an access token for it.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.Register(c.UserContext(), req.Username)
	switch {
	case errors.Is(err, ErrInvalidUsername):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrUsernameTaken):
		return fiber.NewError(http.StatusConflict, "username already taken")
	case err != nil:
		return fiber.NewError(http.StatusServiceUnavailable, "user store unavailable")
	}

	token, exp, err := h.issuer.Sign(user.ID)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "token issuance failed")
	}
	return c.Status(http.StatusCreated).JSON(registerResponse{
		UserID:      user.ID,
		Username:    user.Username,
		AccessToken: token,
		ExpiresAt:   exp,
	})
}
