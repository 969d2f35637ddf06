// Package cfmm implements the constant-product market maker for binary
// outcome pools.
//
// Every operation is a pure state transition: (old MarketState, request)
// → (result carrying a new MarketState, error). The pool never retains a
// reference to the canonical state; serializing concurrent requests and
// atomically swapping old-for-new is the caller's job.
//
// Reserves, fee amounts, and LP tokens are arbitrary-precision integers
// with truncating division — the only rounding direction that keeps the
// reserve product non-decreasing. Prices, fee rates, and impact ratios
// are decimals derived from the integers; they are diagnostic, never
// custodial.
package cfmm

import (
	"errors"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/model"
	"github.com/yesnofun/pricing-engine/internal/numutil"
)

var (
	// ErrInvalidAmount is returned for non-positive or missing amounts.
	ErrInvalidAmount = errors.New("cfmm: amount must be positive")

	// ErrInvalidSide is returned when the swap side is neither YES nor NO.
	ErrInvalidSide = errors.New("cfmm: side must be YES or NO")

	// ErrInsufficientLiquidity is returned when a swap would exhaust or
	// invert a reserve side.
	ErrInsufficientLiquidity = errors.New("cfmm: insufficient liquidity")

	// ErrRatioMismatch is returned when a liquidity deposit deviates from
	// the current reserve ratio beyond the allowed tolerance.
	ErrRatioMismatch = errors.New("cfmm: deposit ratio does not match pool ratio")

	// ErrInsufficientBalance is returned when a redemption requests more
	// LP tokens than exist. Per-holder balances are validated by the
	// settlement layer; this is a defensive total-supply check.
	ErrInsufficientBalance = errors.New("cfmm: LP tokens exceed supply")

	// ErrInvalidBaseFee is returned when the base fee is outside the
	// allowed fee band.
	ErrInvalidBaseFee = errors.New("cfmm: base fee outside [0.001, 0.01]")
)

var (
	// MinFee and MaxFee bound the dynamic fee after adjustment.
	MinFee = decimal.NewFromFloat(0.001)
	MaxFee = decimal.NewFromFloat(0.01)

	// DefaultBaseFee is the 30bps base used when no fee is configured.
	DefaultBaseFee = decimal.NewFromFloat(0.003)

	// PriceScale is the number of decimal places for price rounding.
	PriceScale int32 = 8
)

// feeVolumeScale is the 24h volume at which the full fee discount applies.
const feeVolumeScale = 1e6

// Pool computes CFMM state transitions. It is stateless apart from the
// configured base fee.
type Pool struct {
	baseFee decimal.Decimal
}

// NewPool creates a pool calculator with the given base fee fraction.
// The base fee must already sit inside the dynamic fee band.
func NewPool(baseFee decimal.Decimal) (*Pool, error) {
	if baseFee.LessThan(MinFee) || baseFee.GreaterThan(MaxFee) {
		return nil, ErrInvalidBaseFee
	}
	return &Pool{baseFee: baseFee}, nil
}

// DefaultPool returns a pool calculator with the default 30bps base fee.
func DefaultPool() *Pool {
	return &Pool{baseFee: DefaultBaseFee}
}

// BaseFee returns the configured base fee fraction.
func (p *Pool) BaseFee() decimal.Decimal {
	return p.baseFee
}

// NewMarketState creates an empty pool state. Reserves stay zero until
// the first AddLiquidity establishes the price ratio.
func NewMarketState(poolID, ticker string, createdAt time.Time) *model.MarketState {
	return &model.MarketState{
		PoolID: poolID,
		Ticker: ticker,
		Reserves: model.Reserves{
			Yes:      new(big.Int),
			No:       new(big.Int),
			Constant: new(big.Int),
		},
		TotalLiquidity: new(big.Int),
		Fee:            DefaultBaseFee,
		Volume24h:      new(big.Int),
		LPTokenSupply:  new(big.Int),
		ProtocolFees:   new(big.Int),
		CreatedAt:      createdAt,
	}
}

// SwapParams is a request-scoped value object for one swap. MinAmountOut
// and Deadline are advisory: the settlement layer checks them against the
// returned result; the transition function itself does not enforce them.
type SwapParams struct {
	AmountIn     *big.Int   `json:"amount_in"`
	AssetIn      model.Side `json:"asset_in"`
	MinAmountOut *big.Int   `json:"min_amount_out,omitempty"`
	Deadline     time.Time  `json:"deadline,omitempty"`
	Timestamp    time.Time  `json:"timestamp"`
}

// SwapResult carries the full outcome of a swap computation.
type SwapResult struct {
	AmountOut       *big.Int           `json:"amount_out"`
	FeeAmount       *big.Int           `json:"fee_amount"`
	FeeRate         decimal.Decimal    `json:"fee_rate"`
	SpotPriceBefore decimal.Decimal    `json:"spot_price_before"`
	ExecutionPrice  decimal.Decimal    `json:"execution_price"`
	PriceImpact     decimal.Decimal    `json:"price_impact"`
	NewState        *model.MarketState `json:"new_state"`
}

// Swap computes the output of swapping amountIn of assetIn against the
// pool, returning the deltas and the successor state.
//
//	amountOut = floor(reserveOut * amountInAfterFee / (reserveIn + amountInAfterFee))
//
// The fee is taken off the input and accrues to ProtocolFees. Truncating
// division guarantees newYes*newNo >= yes*no, with equality only when the
// division is exact.
func (p *Pool) Swap(state *model.MarketState, params SwapParams) (*SwapResult, error) {
	if !params.AssetIn.Valid() {
		return nil, ErrInvalidSide
	}
	if params.AmountIn == nil || params.AmountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	reserveIn, reserveOut := state.Reserves.Yes, state.Reserves.No
	if params.AssetIn == model.SideNo {
		reserveIn, reserveOut = state.Reserves.No, state.Reserves.Yes
	}
	if reserveOut.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}

	fee := p.DynamicFee(state.Volatility, state.Volume24h)
	feeAmount := decimal.NewFromBigInt(params.AmountIn, 0).Mul(fee).Floor().BigInt()
	amountInAfterFee := new(big.Int).Sub(params.AmountIn, feeAmount)

	denom := new(big.Int).Add(reserveIn, amountInAfterFee)
	if denom.Sign() == 0 {
		return nil, ErrInsufficientLiquidity
	}
	amountOut := numutil.MulDiv(reserveOut, amountInAfterFee, denom)
	if amountOut.Cmp(reserveOut) >= 0 {
		return nil, ErrInsufficientLiquidity
	}

	// Spot price of the output asset in input units, before the trade.
	var spotBefore decimal.Decimal
	if reserveIn.Sign() > 0 {
		spotBefore = decimal.NewFromBigInt(reserveIn, 0).
			DivRound(decimal.NewFromBigInt(reserveOut, 0), PriceScale)
	}

	var execPrice, priceImpact decimal.Decimal
	if amountOut.Sign() > 0 && spotBefore.IsPositive() {
		execPrice = decimal.NewFromBigInt(params.AmountIn, 0).
			DivRound(decimal.NewFromBigInt(amountOut, 0), PriceScale)
		priceImpact = execPrice.Sub(spotBefore).Abs().
			DivRound(spotBefore, PriceScale)
	}

	next := state.Clone()
	if params.AssetIn == model.SideYes {
		next.Reserves.Yes.Add(next.Reserves.Yes, amountInAfterFee)
		next.Reserves.No.Sub(next.Reserves.No, amountOut)
	} else {
		next.Reserves.No.Add(next.Reserves.No, amountInAfterFee)
		next.Reserves.Yes.Sub(next.Reserves.Yes, amountOut)
	}
	next.Reserves.Constant.Mul(next.Reserves.Yes, next.Reserves.No)
	next.ProtocolFees.Add(next.ProtocolFees, feeAmount)
	// Accrues here; the state owner re-windows it from the price history.
	next.Volume24h.Add(next.Volume24h, params.AmountIn)
	next.Fee = fee

	if yesPrice, err := SpotPrice(next, model.SideYes); err == nil {
		next.PriceHistory = append(next.PriceHistory, model.PricePoint{
			Timestamp: params.Timestamp,
			Price:     yesPrice,
			Volume:    new(big.Int).Set(params.AmountIn),
			Liquidity: new(big.Int).Set(next.TotalLiquidity),
		})
	}

	return &SwapResult{
		AmountOut:       amountOut,
		FeeAmount:       feeAmount,
		FeeRate:         fee,
		SpotPriceBefore: spotBefore,
		ExecutionPrice:  execPrice,
		PriceImpact:     priceImpact,
		NewState:        next,
	}, nil
}

// DynamicFee derives the effective fee fraction from current volatility
// and rolling 24h volume:
//
//	fee = clamp(base * (1 + min(vol*2, 1)) * (1 - min(vol24h/1e6, 0.5)*0.3), 0.001, 0.01)
//
// Deterministic in its inputs; no hidden state.
func (p *Pool) DynamicFee(vol float64, volume24h *big.Int) decimal.Decimal {
	volMult := 1 + min(vol*2, 1)

	var volumeF float64
	if volume24h != nil {
		volumeF = decimal.NewFromBigInt(volume24h, 0).InexactFloat64()
	}
	discount := 1 - min(volumeF/feeVolumeScale, 0.5)*0.3

	fee := p.baseFee.InexactFloat64() * volMult * discount
	return numutil.ClampDecimal(
		decimal.NewFromFloat(fee).Round(PriceScale), MinFee, MaxFee)
}

// SpotPrice returns the instantaneous price of one side in units of the
// other: spotPrice(YES) = reserveNo/reserveYes, and symmetrically.
func SpotPrice(state *model.MarketState, side model.Side) (decimal.Decimal, error) {
	if !side.Valid() {
		return decimal.Zero, ErrInvalidSide
	}
	num, den := state.Reserves.No, state.Reserves.Yes
	if side == model.SideNo {
		num, den = state.Reserves.Yes, state.Reserves.No
	}
	if den.Sign() == 0 {
		return decimal.Zero, ErrInsufficientLiquidity
	}
	return decimal.NewFromBigInt(num, 0).
		DivRound(decimal.NewFromBigInt(den, 0), PriceScale), nil
}

// ImpermanentLoss computes the two-asset constant-product IL for a price
// ratio r = currentPrice/initialPrice:
//
//	IL = |2*sqrt(r)/(1+r) - 1|
//
// Always non-negative, zero at r=1. A simplified closed form kept for
// behavioral parity; not a production hedging input.
func ImpermanentLoss(currentPrice, initialPrice decimal.Decimal) (decimal.Decimal, error) {
	if currentPrice.LessThanOrEqual(decimal.Zero) || initialPrice.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, ErrInvalidAmount
	}
	r := currentPrice.InexactFloat64() / initialPrice.InexactFloat64()
	il := math.Abs(2*math.Sqrt(r)/(1+r) - 1)
	return decimal.NewFromFloat(il).Round(PriceScale), nil
}
