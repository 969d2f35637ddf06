// Package leaderboard ranks forecasters by calibration. Skill is
// derived from the Brier score of resolved predictions: lower Brier is
// better, so skill = 1 - brier maps [0,1] onto an intuitive
// higher-is-better scale.
package leaderboard

import (
	"errors"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
)

// ErrInvalidProbability is returned for forecasts outside (0, 1).
var ErrInvalidProbability = errors.New("leaderboard: probability must be in (0, 1)")

// ErrUnknownForecaster is returned when looking up an unrecorded name.
var ErrUnknownForecaster = errors.New("leaderboard: unknown forecaster")

// minResolved is the resolution count below which a forecaster is
// excluded from rankings. Small samples make Brier scores noisy.
const minResolved = 3

// Outcome is a resolved binary event.
type Outcome struct {
	Forecast decimal.Decimal // predicted probability of YES
	Resolved bool            // true if YES occurred
}

// Entry is one ranked row.
type Entry struct {
	Forecaster string          `json:"forecaster"`
	Resolved   int             `json:"resolved"`
	Brier      decimal.Decimal `json:"brier"`
	Skill      decimal.Decimal `json:"skill"`
}

// Board accumulates resolved forecasts and produces rankings.
// Safe for concurrent use.
type Board struct {
	mu      sync.RWMutex
	records map[string][]Outcome
}

// NewBoard creates an empty leaderboard.
func NewBoard() *Board {
	return &Board{records: make(map[string][]Outcome)}
}

// Record adds one resolved forecast for the named forecaster.
func (b *Board) Record(forecaster string, forecast decimal.Decimal, resolved bool) error {
	one := decimal.NewFromInt(1)
	if forecast.LessThanOrEqual(decimal.Zero) || forecast.GreaterThanOrEqual(one) {
		return ErrInvalidProbability
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.records[forecaster] = append(b.records[forecaster], Outcome{Forecast: forecast, Resolved: resolved})
	return nil
}

// Score returns the forecaster's current Brier and skill scores.
func (b *Board) Score(forecaster string) (Entry, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	outcomes, ok := b.records[forecaster]
	if !ok {
		return Entry{}, ErrUnknownForecaster
	}
	return entryFor(forecaster, outcomes), nil
}

// Rankings returns entries with at least minResolved resolutions,
// ordered best skill first. Ties break alphabetically for stable output.
func (b *Board) Rankings() []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	entries := make([]Entry, 0, len(b.records))
	for name, outcomes := range b.records {
		if len(outcomes) < minResolved {
			continue
		}
		entries = append(entries, entryFor(name, outcomes))
	}

	sort.Slice(entries, func(i, j int) bool {
		if !entries[i].Skill.Equal(entries[j].Skill) {
			return entries[i].Skill.GreaterThan(entries[j].Skill)
		}
		return entries[i].Forecaster < entries[j].Forecaster
	})
	return entries
}

// entryFor computes the mean Brier score over resolved outcomes.
// Brier for one forecast is (p - outcome)^2 with outcome in {0, 1}.
func entryFor(name string, outcomes []Outcome) Entry {
	sum := decimal.Zero
	for _, o := range outcomes {
		actual := decimal.Zero
		if o.Resolved {
			actual = decimal.NewFromInt(1)
		}
		diff := o.Forecast.Sub(actual)
		sum = sum.Add(diff.Mul(diff))
	}
	brier := sum.Div(decimal.NewFromInt(int64(len(outcomes))))
	return Entry{
		Forecaster: name,
		Resolved:   len(outcomes),
		Brier:      brier,
		Skill:      decimal.NewFromInt(1).Sub(brier),
	}
}
