// Package exposure implements position limits that account for
// correlation between markets in the same category.
//
// A trader buying YES across every senate race carries one correlated
// political bet, not twenty independent ones. This package groups
// markets by ticker category and enforces an aggregate exposure limit
// per group on top of the per-market limit.
package exposure

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/contract"
)

var (
	// ErrPerMarketLimitExceeded is returned when a trade would push a
	// single market's position beyond the per-market maximum.
	ErrPerMarketLimitExceeded = errors.New("exposure: per-market position limit exceeded")

	// ErrCategoryLimitExceeded is returned when a trade would push the
	// aggregate exposure across same-category markets beyond the
	// category maximum.
	ErrCategoryLimitExceeded = errors.New("exposure: category exposure limit exceeded")
)

// Limiter enforces position limits with category correlation awareness.
// Markets whose tickers parse to the same category form one correlated
// group; unparseable tickers each form their own group.
type Limiter struct {
	// MaxPerMarket is the maximum absolute net position in any single
	// market.
	MaxPerMarket decimal.Decimal

	// MaxPerCategory is the maximum aggregate absolute exposure across
	// all markets sharing a category.
	MaxPerCategory decimal.Decimal
}

// NewLimiter creates a limiter with the given per-market and category
// exposure limits.
func NewLimiter(maxPerMarket, maxPerCategory decimal.Decimal) *Limiter {
	return &Limiter{
		MaxPerMarket:   maxPerMarket,
		MaxPerCategory: maxPerCategory,
	}
}

// CheckLimit validates whether a trade respects position limits.
//
// Parameters:
//   - ticker: market being traded
//   - exposureDelta: signed change in exposure (+YES / -NO direction)
//   - existing: map of ticker → current net exposure for this trader
//
// Returns nil if the trade is within limits, or an error describing
// the violation.
func (l *Limiter) CheckLimit(
	ticker string,
	exposureDelta decimal.Decimal,
	existing map[string]decimal.Decimal,
) error {
	newPosition := existing[ticker].Add(exposureDelta)
	if newPosition.Abs().GreaterThan(l.MaxPerMarket) {
		return ErrPerMarketLimitExceeded
	}

	targetGroup := categoryOf(ticker)
	totalCorrelated := newPosition.Abs()

	for other, exp := range existing {
		if other == ticker {
			continue // already counted via newPosition above
		}
		if categoryOf(other) == targetGroup {
			totalCorrelated = totalCorrelated.Add(exp.Abs())
		}
	}

	if totalCorrelated.GreaterThan(l.MaxPerCategory) {
		return ErrCategoryLimitExceeded
	}
	return nil
}

// categoryOf extracts the correlation group key for a ticker.
// Unparseable tickers correlate only with themselves.
func categoryOf(ticker string) string {
	c, err := contract.ParseTicker(ticker)
	if err != nil {
		return ticker
	}
	return c.Category
}
