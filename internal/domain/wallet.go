package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is a per-user, per-currency balance. Amount never goes below zero.
type Wallet struct {
	ID        string
	UserID    string
	Currency  string
	Amount    decimal.Decimal
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizeCurrency canonicalises a currency code as received from callers.
func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
