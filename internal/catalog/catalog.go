// Package catalog exposes the set of currency codes the service accepts.
package catalog

import (
	"context"
	"slices"

	"github.com/walletd/walletd/internal/domain"
)

// Catalog returns the currencies wallets may be opened in.
type Catalog interface {
	GetCurrencies(ctx context.Context) []string
}

// Static is a Catalog with a fixed currency list, loaded from configuration.
type Static struct {
	codes []string
}

// NewStatic builds a Static catalog. Codes are normalised and de-duplicated
// while keeping their configured order.
func NewStatic(codes ...string) *Static {
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		code = domain.NormalizeCurrency(code)
		if code == "" || slices.Contains(out, code) {
			continue
		}
		out = append(out, code)
	}
	return &Static{codes: out}
}

// GetCurrencies returns a copy of the configured codes.
func (s *Static) GetCurrencies(_ context.Context) []string {
	return slices.Clone(s.codes)
}

// Contains reports whether code is offered by the catalog.
func Contains(ctx context.Context, c Catalog, code string) bool {
	return slices.Contains(c.GetCurrencies(ctx), code)
}
