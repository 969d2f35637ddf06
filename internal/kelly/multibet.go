package kelly

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// BetInput describes one leg of a correlated multi-bet batch.
// Correlation is the leg's assumed correlation with the rest of the
// batch, in [0, 1].
type BetInput struct {
	Probability decimal.Decimal `json:"probability"`
	Odds        decimal.Decimal `json:"odds"`
	Correlation decimal.Decimal `json:"correlation"`
}

// BatchDecision is the sized outcome of a multi-bet batch.
type BatchDecision struct {
	Fractions     []decimal.Decimal `json:"fractions"` // per leg, after penalty and rescale
	BetSizes      []*big.Int        `json:"bet_sizes"`
	TotalFraction decimal.Decimal   `json:"total_fraction"`
	Rescaled      bool              `json:"rescaled"` // true when the cap forced a downscale
}

var correlationPenalty = decimal.NewFromFloat(0.5)

// MultiBet sizes a batch of correlated bets.
//
// Each leg gets its individual Kelly fraction, then a linear correlation
// penalty f*(1-correlation*0.5)*multiplier. If the summed fractions
// exceed maxPosition the whole batch is uniformly rescaled down — never
// up — so the batch stays inside the single-position cap.
//
// This is a deliberate linear approximation of the covariance-matrix
// multi-bet Kelly optimum; higher fidelity would need a constrained
// quadratic solver.
func (s *Sizer) MultiBet(bets []BetInput, bankroll *big.Int) (*BatchDecision, error) {
	if bankroll == nil || bankroll.Sign() < 0 {
		return nil, ErrInvalidBankroll
	}

	one := decimal.NewFromInt(1)
	fractions := make([]decimal.Decimal, len(bets))
	total := decimal.Zero

	for i, bet := range bets {
		p := bet.Probability
		if p.LessThanOrEqual(decimal.Zero) || p.GreaterThanOrEqual(one) {
			return nil, ErrInvalidProbability
		}
		if bet.Odds.LessThanOrEqual(decimal.Zero) {
			return nil, ErrInvalidOdds
		}
		corr := bet.Correlation
		if corr.IsNegative() {
			corr = decimal.Zero
		}
		if corr.GreaterThan(one) {
			corr = one
		}

		kelly := p.Mul(bet.Odds).Sub(one.Sub(p)).DivRound(bet.Odds, FractionScale)
		f := kelly.Mul(one.Sub(corr.Mul(correlationPenalty))).Mul(s.multiplier)
		if f.IsNegative() {
			f = decimal.Zero
		}
		fractions[i] = f.Round(FractionScale)
		total = total.Add(fractions[i])
	}

	rescaled := false
	if total.GreaterThan(s.maxPosition) && total.IsPositive() {
		// Truncate both the scale and the rescaled legs so rounding
		// error always lands below the cap, never above it.
		scale, _ := s.maxPosition.QuoRem(total, FractionScale)
		for i := range fractions {
			fractions[i] = fractions[i].Mul(scale).Truncate(FractionScale)
		}
		rescaled = true
		total = decimal.Zero
		for _, f := range fractions {
			total = total.Add(f)
		}
	}

	bankrollDec := decimal.NewFromBigInt(bankroll, 0)
	sizes := make([]*big.Int, len(fractions))
	for i, f := range fractions {
		sizes[i] = bankrollDec.Mul(f).Floor().BigInt()
	}

	return &BatchDecision{
		Fractions:     fractions,
		BetSizes:      sizes,
		TotalFraction: total,
		Rescaled:      rescaled,
	}, nil
}
