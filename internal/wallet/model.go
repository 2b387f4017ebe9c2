package wallet

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/domain"
)

// FailureReason names a business-rule rejection of CreateWallet.
type FailureReason string

const (
	FailureInvalidCurrency FailureReason = "INVALID_CURRENCY"
	FailureUnknownUser     FailureReason = "UNKNOWN_USER"
	FailureWalletExists    FailureReason = "WALLET_ALREADY_EXISTS"
)

// CreateResult is the outcome of CreateWallet. When Successful is false no
// wallet was written and FailureReason says why.
type CreateResult struct {
	Successful    bool
	FailureReason FailureReason
	Wallet        domain.Wallet
}

func failed(reason FailureReason) CreateResult {
	return CreateResult{FailureReason: reason}
}

// New builds an unsaved wallet for the user. It is the single creation step
// shared by explicit provisioning and by lazy provisioning during transfers.
func New(userID, currency string, amount decimal.Decimal, at time.Time) domain.Wallet {
	return domain.Wallet{
		ID:        uuid.NewString(),
		UserID:    userID,
		Currency:  currency,
		Amount:    amount,
		CreatedAt: at,
		UpdatedAt: at,
	}
}
