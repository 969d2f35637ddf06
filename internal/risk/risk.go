// Package risk computes position risk metrics: parametric value-at-risk,
// the liquidation predicate, and the perpetual-style funding rate.
//
// The engine holds only static parameters fixed at construction. Every
// operation is a stateless pure computation over its inputs; acting on a
// liquidation signal, accruing funding, or closing a position is the
// position manager's job.
package risk

import (
	"errors"
	"math"

	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/model"
)

var (
	// ErrInvalidHorizon is returned for a non-positive time horizon.
	ErrInvalidHorizon = errors.New("risk: time horizon must be positive")

	// ErrInvalidPrice is returned for non-positive prices.
	ErrInvalidPrice = errors.New("risk: price must be positive")

	// ErrInvalidInterval is returned for a non-positive funding interval.
	ErrInvalidInterval = errors.New("risk: funding interval must be positive")
)

// Scale is the number of decimal places for risk metric rounding.
const Scale int32 = 8

// MaxFundingRate bounds the per-interval funding rate to ±0.5%.
var MaxFundingRate = decimal.NewFromFloat(0.005)

// zScores maps VaR confidence levels to one-sided normal quantiles.
// Unlisted confidences fall back to the 95% quantile.
var zScores = map[string]float64{
	"0.9":  1.282,
	"0.95": 1.645,
	"0.99": 2.326,
}

const defaultZScore = 1.645

// Parameters is the static risk configuration, immutable for the
// engine's lifetime.
type Parameters struct {
	MaxLeverage           decimal.Decimal `json:"max_leverage" yaml:"max_leverage"`
	MaintenanceMarginRate decimal.Decimal `json:"maintenance_margin_rate" yaml:"maintenance_margin_rate"`
	InitialMarginRate     decimal.Decimal `json:"initial_margin_rate" yaml:"initial_margin_rate"`
	MaxDrawdown           decimal.Decimal `json:"max_drawdown" yaml:"max_drawdown"`
	VaRConfidence         decimal.Decimal `json:"var_confidence" yaml:"var_confidence"`
}

// DefaultParameters returns a conservative static configuration.
func DefaultParameters() Parameters {
	return Parameters{
		MaxLeverage:           decimal.NewFromInt(5),
		MaintenanceMarginRate: decimal.NewFromFloat(0.05),
		InitialMarginRate:     decimal.NewFromFloat(0.10),
		MaxDrawdown:           decimal.NewFromFloat(0.20),
		VaRConfidence:         decimal.NewFromFloat(0.95),
	}
}

// Engine computes risk metrics against one fixed parameter set.
type Engine struct {
	params Parameters
	z      float64
}

// NewEngine creates a risk engine. The parameters are copied and cannot
// change afterwards.
func NewEngine(params Parameters) *Engine {
	z, ok := zScores[params.VaRConfidence.String()]
	if !ok {
		z = defaultZScore
	}
	return &Engine{params: params, z: z}
}

// Parameters returns a copy of the static configuration.
func (e *Engine) Parameters() Parameters {
	return e.params
}

// ValueAtRisk computes parametric VaR over the given horizon (in the
// same time unit the volatility is annualized against, typically years):
//
//	VaR = positionSize * volatility * sqrt(horizon) * z
//
// A closed-form normal approximation — adequate for sizing guidance, not
// a tail-risk model.
func (e *Engine) ValueAtRisk(positionSize decimal.Decimal, volatility, timeHorizon float64) (decimal.Decimal, error) {
	if timeHorizon <= 0 {
		return decimal.Zero, ErrInvalidHorizon
	}
	v := positionSize.Abs().InexactFloat64() * volatility * math.Sqrt(timeHorizon) * e.z
	return decimal.NewFromFloat(v).Round(Scale), nil
}

// LiquidationCheck is the detailed result of the liquidation predicate.
type LiquidationCheck struct {
	Liquidatable           bool            `json:"liquidatable"`
	Equity                 decimal.Decimal `json:"equity"`
	MaintenanceRequirement decimal.Decimal `json:"maintenance_requirement"`
}

// CheckLiquidation evaluates whether a position has fallen below its
// maintenance margin at the current price:
//
//	equity      = margin + size*(currentPrice - entryPrice)
//	requirement = |size| * currentPrice * maintenanceMarginRate
//
// Pure predicate; the act of liquidating is external.
func (e *Engine) CheckLiquidation(pos model.Position, currentPrice decimal.Decimal) (*LiquidationCheck, error) {
	if currentPrice.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidPrice
	}

	equity := pos.Margin.Add(pos.Size.Mul(currentPrice.Sub(pos.EntryPrice)))
	requirement := pos.Size.Abs().Mul(currentPrice).Mul(e.params.MaintenanceMarginRate)

	return &LiquidationCheck{
		Liquidatable:           equity.LessThan(requirement),
		Equity:                 equity.Round(Scale),
		MaintenanceRequirement: requirement.Round(Scale),
	}, nil
}

// FundingRate computes the per-hour funding rate that pulls the mark
// price toward the index price:
//
//	premium = (mark - index) / index
//	rate    = clamp(premium / intervalHours, -0.005, 0.005)
func (e *Engine) FundingRate(markPrice, indexPrice decimal.Decimal, intervalHours float64) (decimal.Decimal, error) {
	if indexPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidPrice
	}
	if intervalHours <= 0 {
		return decimal.Zero, ErrInvalidInterval
	}

	premium := markPrice.Sub(indexPrice).DivRound(indexPrice, Scale+4)
	rate := premium.DivRound(decimal.NewFromFloat(intervalHours), Scale)

	if rate.GreaterThan(MaxFundingRate) {
		return MaxFundingRate, nil
	}
	if rate.LessThan(MaxFundingRate.Neg()) {
		return MaxFundingRate.Neg(), nil
	}
	return rate, nil
}
