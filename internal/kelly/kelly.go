// Package kelly converts probability estimates into bounded, risk-adjusted
// bet sizes via fractional Kelly sizing.
//
// All sizing functions are pure: inputs in, decision out, no retained
// state. Fractions are decimals at the API boundary; the transcendental
// growth/variance math runs in float64 and converts back immediately.
// Bet sizes — the only custodial output — are exact integers floored from
// bankroll * finalFraction.
package kelly

import (
	"errors"
	"math"
	"math/big"

	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidProbability is returned when probability is outside (0, 1).
	ErrInvalidProbability = errors.New("kelly: probability must be in (0, 1)")

	// ErrInvalidOdds is returned when odds are not positive.
	ErrInvalidOdds = errors.New("kelly: odds must be positive")

	// ErrInvalidBankroll is returned for a nil or negative bankroll.
	ErrInvalidBankroll = errors.New("kelly: bankroll must be non-negative")
)

// Defaults for the fractional-Kelly scalar and the bankroll cap.
var (
	DefaultMultiplier  = decimal.NewFromFloat(0.25)
	DefaultMaxPosition = decimal.NewFromFloat(0.10)
)

// FractionScale is the number of decimal places for fraction rounding.
const FractionScale int32 = 8

// Sizer computes bounded bet sizes. The multiplier is the fractional
// Kelly scalar; maxPosition caps the bankroll fraction of any single
// decision (and the summed fraction of a multi-bet batch).
type Sizer struct {
	multiplier  decimal.Decimal
	maxPosition decimal.Decimal
}

// NewSizer creates a sizer with explicit scalars. Non-positive values
// fall back to the defaults; there are no hidden module-level knobs.
func NewSizer(multiplier, maxPosition decimal.Decimal) *Sizer {
	if multiplier.LessThanOrEqual(decimal.Zero) {
		multiplier = DefaultMultiplier
	}
	if maxPosition.LessThanOrEqual(decimal.Zero) {
		maxPosition = DefaultMaxPosition
	}
	return &Sizer{multiplier: multiplier, maxPosition: maxPosition}
}

// DefaultSizer returns a sizer with quarter-Kelly and a 10% cap.
func DefaultSizer() *Sizer {
	return &Sizer{multiplier: DefaultMultiplier, maxPosition: DefaultMaxPosition}
}

// MaxPosition returns the configured bankroll-fraction cap.
func (s *Sizer) MaxPosition() decimal.Decimal {
	return s.maxPosition
}

// Decision is the outcome of a sizing computation.
type Decision struct {
	KellyFraction    decimal.Decimal `json:"kelly_fraction"`    // raw (p*b-(1-p))/b
	AdjustedFraction decimal.Decimal `json:"adjusted_fraction"` // after confidence and multiplier
	FinalFraction    decimal.Decimal `json:"final_fraction"`    // clamped to [0, maxPosition]
	BetSize          *big.Int        `json:"bet_size"`
	ExpectedGrowth   decimal.Decimal `json:"expected_growth"` // E[log growth] at FinalFraction
	Risk             decimal.Decimal `json:"risk"`            // return stddev at FinalFraction
}

// SingleBet sizes one bet from a probability estimate, decimal odds b
// (net payout per unit staked), a confidence multiplier in [0, 1], and
// the bankroll in base units.
//
//	kelly    = (p*b - (1-p)) / b
//	adjusted = kelly * confidence * multiplier
//	final    = clamp(adjusted, 0, maxPosition)
//
// A negative edge yields a zero bet, never a short.
func (s *Sizer) SingleBet(probability, odds, confidence decimal.Decimal, bankroll *big.Int) (*Decision, error) {
	if probability.LessThanOrEqual(decimal.Zero) || probability.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, ErrInvalidProbability
	}
	if odds.LessThanOrEqual(decimal.Zero) {
		return nil, ErrInvalidOdds
	}
	if bankroll == nil || bankroll.Sign() < 0 {
		return nil, ErrInvalidBankroll
	}
	if confidence.IsNegative() {
		confidence = decimal.Zero
	}

	p := probability
	q := decimal.NewFromInt(1).Sub(p)

	kelly := p.Mul(odds).Sub(q).DivRound(odds, FractionScale)
	adjusted := kelly.Mul(confidence).Mul(s.multiplier).Round(FractionScale)

	final := adjusted
	if final.IsNegative() {
		final = decimal.Zero
	}
	if final.GreaterThan(s.maxPosition) {
		final = s.maxPosition
	}

	betSize := decimal.NewFromBigInt(bankroll, 0).Mul(final).Floor().BigInt()
	growth, risk := betStatistics(p.InexactFloat64(), odds.InexactFloat64(), final.InexactFloat64())

	return &Decision{
		KellyFraction:    kelly,
		AdjustedFraction: adjusted,
		FinalFraction:    final,
		BetSize:          betSize,
		ExpectedGrowth:   decimal.NewFromFloat(growth).Round(FractionScale),
		Risk:             decimal.NewFromFloat(risk).Round(FractionScale),
	}, nil
}

// betStatistics evaluates expected logarithmic growth and the standard
// deviation of the per-bet return, both at fraction f:
//
//	growth = p*ln(1+f*b) + (1-p)*ln(1-f)
//
// The return is +f*b with probability p and -f otherwise.
func betStatistics(p, b, f float64) (growth, stddev float64) {
	if f <= 0 {
		return 0, 0
	}
	q := 1 - p
	growth = p*math.Log(1+f*b) + q*math.Log(1-f)

	mean := p*f*b - q*f
	variance := p*math.Pow(f*b-mean, 2) + q*math.Pow(-f-mean, 2)
	return growth, math.Sqrt(variance)
}
