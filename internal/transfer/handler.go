package transfer

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// statusClientClosedRequest is reported when the caller cancelled the request.
const statusClientClosedRequest = 499

// Handler exposes the transfer endpoint.
type Handler struct {
	service *Service
}

// NewHandler constructs a transfer handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type transferRequest struct {
	Username string          `json:"username"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

type transferResponse struct {
	IsSuccessful        bool   `json:"is_successful"`
	Outcome             string `json:"outcome,omitempty"`
	FailureReason       string `json:"failure_reason,omitempty"`
	TransactionID       string `json:"transaction_id,omitempty"`
	SourceBalance       string `json:"source_balance,omitempty"`
	DestinationWalletID string `json:"destination_wallet_id,omitempty"`
}

// Create processes a transfer from the authenticated user.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req transferRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	res, err := h.service.MakeTransfer(c.UserContext(), Input{
		UserID:              uid,
		DestinationUsername: req.Username,
		Currency:            req.Currency,
		Amount:              req.Amount,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fiber.NewError(statusClientClosedRequest, "request cancelled")
		}
		return fiber.NewError(http.StatusServiceUnavailable, "transfer could not be committed")
	}
	if !res.Successful {
		return c.Status(http.StatusUnprocessableEntity).JSON(transferResponse{FailureReason: string(res.FailureReason)})
	}

	return c.Status(http.StatusCreated).JSON(transferResponse{
		IsSuccessful:        true,
		Outcome:             string(res.Outcome),
		TransactionID:       res.Transaction.ID,
		SourceBalance:       res.Source.Amount.String(),
		DestinationWalletID: res.Destination.ID,
	})
}
