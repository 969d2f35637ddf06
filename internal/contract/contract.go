// Package contract handles binary market ticker parsing and validation,
// and derivation of a pool seeding depth from forecast dispersion.
package contract

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

// Supported market categories.
const (
	CategoryPolitics = "POLITICS"
	CategorySports   = "SPORTS"
	CategoryCrypto   = "CRYPTO"
	CategoryWeather  = "WEATHER"
)

var validCategories = map[string]bool{
	CategoryPolitics: true,
	CategorySports:   true,
	CategoryCrypto:   true,
	CategoryWeather:  true,
}

// tickerRegex matches: YN-{category}-{slug}-{YYYYMMDD}
// Example: YN-CRYPTO-btc100k-20261231
var tickerRegex = regexp.MustCompile(
	`^YN-([A-Z]+)-([0-9a-z]+(?:_[0-9a-z]+)*)-(\d{8})$`,
)

var (
	ErrInvalidTicker   = errors.New("contract: invalid ticker format")
	ErrInvalidCategory = errors.New("contract: unsupported category")
	ErrExpired         = errors.New("contract: market already expired")
)

// Contract represents a parsed binary market identifier.
type Contract struct {
	Ticker     string    `json:"ticker"`
	Category   string    `json:"category"`
	Slug       string    `json:"slug"`
	ExpiryDate time.Time `json:"expiry_date"`
}

// ParseTicker parses and validates a market ticker string.
// Format: YN-{category}-{slug}-{YYYYMMDD}
func ParseTicker(ticker string) (*Contract, error) {
	matches := tickerRegex.FindStringSubmatch(ticker)
	if matches == nil {
		return nil, fmt.Errorf("%w: %s (expected YN-{category}-{slug}-{YYYYMMDD})",
			ErrInvalidTicker, ticker)
	}

	category := matches[1]
	slug := matches[2]
	dateStr := matches[3]

	if !validCategories[category] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCategory, category)
	}

	expiry, err := time.Parse("20060102", dateStr)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %s", ErrInvalidTicker, dateStr)
	}

	return &Contract{
		Ticker:     ticker,
		Category:   category,
		Slug:       slug,
		ExpiryDate: expiry,
	}, nil
}

// ValidateOpen checks that the contract has not passed its expiry date.
func (c *Contract) ValidateOpen(now time.Time) error {
	// Markets trade through the end of the expiry day.
	cutoff := c.ExpiryDate.Add(24 * time.Hour)
	if !now.Before(cutoff) {
		return fmt.Errorf("%w: %s expired %s", ErrExpired, c.Ticker,
			c.ExpiryDate.Format("2006-01-02"))
	}
	return nil
}

// ForecastDispersion holds percentile values from an external forecast
// or polling ensemble used to size initial pool liquidity.
type ForecastDispersion struct {
	Percentile25 decimal.Decimal `json:"percentile_25"`
	Percentile50 decimal.Decimal `json:"percentile_50"` // median
	Percentile75 decimal.Decimal `json:"percentile_75"`
}

// DeriveSeedDepth computes a pool seeding depth from forecast
// dispersion. The interquartile range relative to the median measures
// uncertainty: wider spread means a deeper seed so early trades do not
// whipsaw the price.
func DeriveSeedDepth(f ForecastDispersion, baseVolume decimal.Decimal) (decimal.Decimal, error) {
	iqr := f.Percentile75.Sub(f.Percentile25)
	median := f.Percentile50
	minDepth := decimal.NewFromInt(10)

	if median.LessThanOrEqual(decimal.Zero) {
		// Degenerate median, fall back to absolute spread.
		if iqr.LessThanOrEqual(decimal.Zero) {
			return minDepth, nil
		}
		depth := baseVolume.Mul(iqr)
		if depth.LessThan(minDepth) {
			return minDepth, nil
		}
		return depth.Round(2), nil
	}

	cv := iqr.Div(median)
	depth := baseVolume.Mul(cv)
	if depth.LessThan(minDepth) {
		return minDepth, nil
	}
	return depth.Round(2), nil
}
