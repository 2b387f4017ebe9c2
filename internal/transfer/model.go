package transfer

import (
	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/domain"
)

// Outcome distinguishes successful transfers that had to open a wallet for
// the recipient.
type Outcome string

const (
	OutcomeSuccess                     Outcome = "Success"
	OutcomeSuccessNewDestinationWallet Outcome = "SuccessNewDestinationWallet"
)

// FailureReason names a business-rule rejection of a transfer.
type FailureReason string

const (
	FailureInvalidAmount          FailureReason = "ErrorInvalidAmount"
	FailureUnknownUser            FailureReason = "ErrorUnknownUser"
	FailureMissingSourceWallet    FailureReason = "ErrorMissingSourceWallet"
	FailureMissingDestinationUser FailureReason = "ErrorMissingDestinationUser"
	FailureSameWallet             FailureReason = "ErrorSameWallet"
	FailureInsufficientFunds      FailureReason = "ErrorInsufficientFunds"
)

// Input captures a transfer request from UserID to the user named
// DestinationUsername.
type Input struct {
	UserID              string
	DestinationUsername string
	Currency            string
	Amount              decimal.Decimal
}

// Result is the outcome of MakeTransfer. On failure nothing was written.
type Result struct {
	Successful    bool
	Outcome       Outcome
	FailureReason FailureReason
	Transaction   domain.Transaction
	Source        domain.Wallet
	Destination   domain.Wallet
}

func failed(reason FailureReason) Result {
	return Result{FailureReason: reason}
}
