// Package promotion decides the opening balance granted to new wallets.
package promotion

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/walletd/walletd/internal/domain"
)

// Policy returns the bonus credited to a wallet when it is created.
type Policy interface {
	GetDefaultAmount(ctx context.Context, currency string) decimal.Decimal
}

// Flat grants the same bonus for every currency unless an override exists.
type Flat struct {
	fallback  decimal.Decimal
	overrides map[string]decimal.Decimal
}

// NewFlat builds a Flat policy.
func NewFlat(fallback decimal.Decimal, overrides map[string]decimal.Decimal) *Flat {
	normalised := make(map[string]decimal.Decimal, len(overrides))
	for code, amount := range overrides {
		normalised[domain.NormalizeCurrency(code)] = amount
	}
	return &Flat{fallback: fallback, overrides: normalised}
}

// GetDefaultAmount returns the override for currency, or the fallback amount.
func (f *Flat) GetDefaultAmount(_ context.Context, currency string) decimal.Decimal {
	if amount, ok := f.overrides[currency]; ok {
		return amount
	}
	return f.fallback
}

// ParseOverrides reads "EUR:10,BTC:0.001" style pairs.
func ParseOverrides(raw string) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		code, value, ok := strings.Cut(pair, ":")
		if !ok {
			return nil, fmt.Errorf("bonus override %q: expected CODE:AMOUNT", pair)
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(value))
		if err != nil {
			return nil, fmt.Errorf("bonus override %q: %w", pair, err)
		}
		if amount.IsNegative() {
			return nil, fmt.Errorf("bonus override %q: amount must not be negative", pair)
		}
		out[domain.NormalizeCurrency(code)] = amount
	}
	return out, nil
}
