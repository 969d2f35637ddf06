// Package settle implements market resolution math: protocol fee
// splits, pro-rata parimutuel payouts, and implied probabilities in
// basis points.
//
// All custodial amounts are *big.Int and every division truncates, so
// the sum of payouts never exceeds the pool. Probability math uses
// float64 internally with max-subtraction for stability, then returns
// integer basis points.
package settle

import (
	"errors"
	"math"
	"math/big"

	"github.com/yesnofun/pricing-engine/internal/model"
	"github.com/yesnofun/pricing-engine/internal/numutil"
)

var (
	// ErrInvalidFee is returned when the fee exceeds MaxFeeBps.
	ErrInvalidFee = errors.New("settle: fee exceeds maximum basis points")

	// ErrInvalidAmount is returned for nil or negative amounts.
	ErrInvalidAmount = errors.New("settle: amount must be non-negative")

	// ErrEmptyWinningPool is returned when the winning side holds no
	// stake; there is nobody to pay out.
	ErrEmptyWinningPool = errors.New("settle: winning pool is empty")
)

const (
	// BpsDenom is the basis-point denominator.
	BpsDenom = 10_000

	// MaxFeeBps caps the protocol fee at 10%.
	MaxFeeBps = 1_000
)

// SplitFee divides an amount into the protocol fee and the net stake.
// The fee is floored, so the net never loses more than feeBps/10000.
func SplitFee(amount *big.Int, feeBps uint16) (fee, net *big.Int, err error) {
	if amount == nil || amount.Sign() < 0 {
		return nil, nil, ErrInvalidAmount
	}
	if feeBps > MaxFeeBps {
		return nil, nil, ErrInvalidFee
	}

	fee = numutil.MulDiv(amount, big.NewInt(int64(feeBps)), big.NewInt(BpsDenom))
	net = new(big.Int).Sub(amount, fee)
	return fee, net, nil
}

// Winnings computes the parimutuel payout for one winning stake:
//
//	payout = stake * totalPool / winningPool
//
// Truncation guarantees the pool covers every claim even when the
// division is inexact.
func Winnings(stake, winningPool, losingPool *big.Int) (*big.Int, error) {
	if stake == nil || stake.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if winningPool == nil || losingPool == nil || winningPool.Sign() < 0 || losingPool.Sign() < 0 {
		return nil, ErrInvalidAmount
	}
	if winningPool.Sign() == 0 {
		return nil, ErrEmptyWinningPool
	}

	totalPool := new(big.Int).Add(winningPool, losingPool)
	return numutil.MulDiv(stake, totalPool, winningPool), nil
}

// StakeProbabilityBps returns the YES probability implied by raw stake
// totals, in basis points. An empty market reads as even money.
func StakeProbabilityBps(yesStake, noStake *big.Int) (int64, error) {
	if yesStake == nil || noStake == nil || yesStake.Sign() < 0 || noStake.Sign() < 0 {
		return 0, ErrInvalidAmount
	}

	total := new(big.Int).Add(yesStake, noStake)
	if total.Sign() == 0 {
		return BpsDenom / 2, nil
	}
	return numutil.MulDiv(yesStake, big.NewInt(BpsDenom), total).Int64(), nil
}

// ScoringProbabilityBps returns the YES probability from a logarithmic
// scoring rule over share quantities, in basis points:
//
//	p = exp(yes/b) / (exp(yes/b) + exp(no/b))
//
// Max-subtraction keeps exp arguments non-positive so large quantities
// never overflow float64. A liquidity parameter below 1 is raised to 1.
func ScoringProbabilityBps(yesShares, noShares *big.Int, liquidity float64) (int64, error) {
	if yesShares == nil || noShares == nil || yesShares.Sign() < 0 || noShares.Sign() < 0 {
		return 0, ErrInvalidAmount
	}
	if liquidity < 1 {
		liquidity = 1
	}

	yf, _ := new(big.Float).SetInt(yesShares).Float64()
	nf, _ := new(big.Float).SetInt(noShares).Float64()

	yOverB := yf / liquidity
	nOverB := nf / liquidity
	maxVal := math.Max(yOverB, nOverB)

	expYes := math.Exp(yOverB - maxVal)
	expNo := math.Exp(nOverB - maxVal)
	p := expYes / (expYes + expNo)

	return int64(p * BpsDenom), nil
}

// Resolution distributes a resolved market's pools across winners.
type Resolution struct {
	Winner      model.Side `json:"winner"`
	WinningPool *big.Int   `json:"winning_pool"`
	LosingPool  *big.Int   `json:"losing_pool"`
}

// NewResolution captures final pool sizes for the given winning side.
func NewResolution(winner model.Side, yesPool, noPool *big.Int) (*Resolution, error) {
	if !winner.Valid() {
		return nil, errors.New("settle: invalid winning side")
	}
	if yesPool == nil || noPool == nil || yesPool.Sign() < 0 || noPool.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	res := &Resolution{Winner: winner}
	if winner == model.SideYes {
		res.WinningPool = new(big.Int).Set(yesPool)
		res.LosingPool = new(big.Int).Set(noPool)
	} else {
		res.WinningPool = new(big.Int).Set(noPool)
		res.LosingPool = new(big.Int).Set(yesPool)
	}
	return res, nil
}

// Claim pays out one stake on the winning side.
func (r *Resolution) Claim(stake *big.Int) (*big.Int, error) {
	return Winnings(stake, r.WinningPool, r.LosingPool)
}
