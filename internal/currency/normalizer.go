// Package currency converts donation amounts into the platform's canonical
// accounting currency using a static table of pairwise exchange rates.
package currency

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"server/internal/domain"
)

// Normalizer converts amounts into the canonical currency. Rates are static
// configuration keyed "FROM_TO_TO" (e.g. "USD_TO_ETB"); there is no live-rate
// feed and no transitive computation through a base currency: a pair missing
// from the table is an ErrUnsupportedConversion, full stop.
type Normalizer struct {
	canonical string
	rates     map[string]decimal.Decimal
}

// NewNormalizer builds a Normalizer for the given canonical currency code.
func NewNormalizer(canonical string, rates map[string]decimal.Decimal) *Normalizer {
	normalized := make(map[string]decimal.Decimal, len(rates))
	for pair, rate := range rates {
		normalized[strings.ToUpper(strings.TrimSpace(pair))] = rate
	}
	return &Normalizer{
		canonical: strings.ToUpper(strings.TrimSpace(canonical)),
		rates:     normalized,
	}
}

// Canonical returns the canonical currency code.
func (n *Normalizer) Canonical() string {
	return n.canonical
}

// ToCanonical converts amount from the given currency into the canonical
// currency. Amounts already in the canonical currency pass through unchanged.
func (n *Normalizer) ToCanonical(amount decimal.Decimal, currencyCode string) (decimal.Decimal, error) {
	code := strings.ToUpper(strings.TrimSpace(currencyCode))
	if code == "" {
		return decimal.Zero, fmt.Errorf("currency code is required: %w", domain.ErrUnsupportedConversion)
	}
	if code == n.canonical {
		return amount, nil
	}
	rate, ok := n.rates[code+"_TO_"+n.canonical]
	if !ok {
		return decimal.Zero, fmt.Errorf("no rate for %s->%s: %w", code, n.canonical, domain.ErrUnsupportedConversion)
	}
	return amount.Mul(rate), nil
}
