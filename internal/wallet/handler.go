package wallet

import (
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/walletd/walletd/internal/domain"
	"github.com/walletd/walletd/internal/store"
)

const maxHistoryLimit = 200

// Handler exposes wallet HTTP endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a wallet HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type createRequest struct {
	Currency string `json:"currency"`
}

type createResponse struct {
	IsSuccessful  bool   `json:"is_successful"`
	FailureReason string `json:"failure_reason,omitempty"`
	WalletID      string `json:"wallet_id,omitempty"`
	Currency      string `json:"currency,omitempty"`
	Amount        string `json:"amount,omitempty"`
}

type walletResponse struct {
	ID        string    `json:"id"`
	Currency  string    `json:"currency"`
	Amount    string    `json:"amount"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type transactionResponse struct {
	ID                  string    `json:"id"`
	SourceWalletID      string    `json:"source_wallet_id"`
	DestinationWalletID string    `json:"destination_wallet_id"`
	Amount              string    `json:"amount"`
	CreatedAt           time.Time `json:"created_at"`
}

// Create provisions a wallet for the authenticated user.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req createRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	res, err := h.service.CreateWallet(c.UserContext(), uid, req.Currency)
	if err != nil {
		return fiber.NewError(http.StatusServiceUnavailable, "wallet store unavailable")
	}
	if !res.Successful {
		return c.Status(http.StatusUnprocessableEntity).JSON(createResponse{FailureReason: string(res.FailureReason)})
	}
	return c.Status(http.StatusCreated).JSON(createResponse{
		IsSuccessful: true,
		WalletID:     res.Wallet.ID,
		Currency:     res.Wallet.Currency,
		Amount:       res.Wallet.Amount.String(),
	})
}

// List returns the authenticated user's wallets.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	wallets, err := h.service.List(c.UserContext(), uid)
	if err != nil {
		return mapError(err)
	}
	out := make([]walletResponse, 0, len(wallets))
	for _, w := range wallets {
		out = append(out, toWalletResponse(w))
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallets": out})
}

// Get returns a single wallet with its balance.
func (h *Handler) Get(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	w, err := h.service.Get(c.UserContext(), uid, c.Params("walletId"))
	if err != nil {
		return mapError(err)
	}
	return c.Status(http.StatusOK).JSON(toWalletResponse(w))
}

// Transactions returns the wallet's ledger history, newest first.
func (h *Handler) Transactions(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	limit := c.QueryInt("limit", 50)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	walletID := c.Params("walletId")
	txs, err := h.service.Transactions(c.UserContext(), uid, walletID, limit)
	if err != nil {
		return mapError(err)
	}
	out := make([]transactionResponse, 0, len(txs))
	for _, tx := range txs {
		out = append(out, transactionResponse{
			ID:                  tx.ID,
			SourceWalletID:      tx.SourceWalletID,
			DestinationWalletID: tx.DestinationWalletID,
			Amount:              tx.Amount.String(),
			CreatedAt:           tx.CreatedAt,
		})
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"wallet_id": walletID, "transactions": out})
}

func toWalletResponse(w domain.Wallet) walletResponse {
	return walletResponse{
		ID:        w.ID,
		Currency:  w.Currency,
		Amount:    w.Amount.String(),
		CreatedAt: w.CreatedAt,
		UpdatedAt: w.UpdatedAt,
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, store.ErrWalletNotFound), errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusNotFound, "wallet not found")
	case errors.Is(err, store.ErrUserNotFound):
		return fiber.NewError(http.StatusUnauthorized, "unknown user")
	default:
		return fiber.NewError(http.StatusServiceUnavailable, "wallet store unavailable")
	}
}
