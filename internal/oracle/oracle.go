// Package oracle provides a simulated multi-source price feed for
// development and testing. Sources return fixed quotes; the aggregator
// reduces them to a median and flags staleness.
//
// Freshness is advisory: a stale quote is flagged, not rejected, so the
// caller decides whether to proceed. Only a feed where every source has
// gone stale is an error.
package oracle

import (
	"errors"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoFreshQuotes is returned when every source is older than the
// freshness threshold.
var ErrNoFreshQuotes = errors.New("oracle: no quotes within freshness threshold")

// ErrNoQuotes is returned for an empty quote set.
var ErrNoQuotes = errors.New("oracle: no quotes supplied")

// Quote is one source's price observation.
type Quote struct {
	Source    string          `json:"source"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// Snapshot is the aggregated feed state handed to callers.
type Snapshot struct {
	Price        decimal.Decimal `json:"price"` // median of fresh quotes
	Sources      int             `json:"sources"`
	FreshSources int             `json:"fresh_sources"`
	Stale        bool            `json:"stale"` // advisory: at least one source lagged
	ObservedAt   time.Time       `json:"observed_at"`
}

// Aggregator reduces multi-source quotes to one price.
type Aggregator struct {
	maxAge time.Duration
}

// NewAggregator creates an aggregator with the given freshness threshold.
// Non-positive thresholds fall back to 5 minutes.
func NewAggregator(maxAge time.Duration) *Aggregator {
	if maxAge <= 0 {
		maxAge = 5 * time.Minute
	}
	return &Aggregator{maxAge: maxAge}
}

// Aggregate computes the median of all quotes fresher than maxAge.
// Stale quotes are dropped from the median but reported via the Stale
// flag so the caller can decide whether the result is trustworthy.
func (a *Aggregator) Aggregate(quotes []Quote, now time.Time) (*Snapshot, error) {
	if len(quotes) == 0 {
		return nil, ErrNoQuotes
	}

	cutoff := now.Add(-a.maxAge)
	fresh := make([]decimal.Decimal, 0, len(quotes))
	for _, q := range quotes {
		if q.Timestamp.After(cutoff) {
			fresh = append(fresh, q.Price)
		}
	}
	if len(fresh) == 0 {
		return nil, ErrNoFreshQuotes
	}

	sort.Slice(fresh, func(i, j int) bool { return fresh[i].LessThan(fresh[j]) })

	var median decimal.Decimal
	mid := len(fresh) / 2
	if len(fresh)%2 == 1 {
		median = fresh[mid]
	} else {
		median = fresh[mid-1].Add(fresh[mid]).Div(decimal.NewFromInt(2))
	}

	return &Snapshot{
		Price:        median,
		Sources:      len(quotes),
		FreshSources: len(fresh),
		Stale:        len(fresh) < len(quotes),
		ObservedAt:   now,
	}, nil
}

// SimulatedSources returns the fixed development quotes. Real deployments
// replace this with live adapters behind the same Quote shape.
func SimulatedSources(now time.Time) []Quote {
	return []Quote{
		{Source: "chainlink-sim", Price: decimal.NewFromFloat(0.52), Timestamp: now},
		{Source: "pyth-sim", Price: decimal.NewFromFloat(0.53), Timestamp: now},
		{Source: "internal-twap", Price: decimal.NewFromFloat(0.51), Timestamp: now},
	}
}
