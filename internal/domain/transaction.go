package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is an immutable ledger entry for a completed transfer. Both
// wallets share a currency, so the currency is not stored on the record.
type Transaction struct {
	ID                  string
	SourceWalletID      string
	DestinationWalletID string
	Amount              decimal.Decimal
	CreatedAt           time.Time
}
