package cfmm

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/model"
	"github.com/yesnofun/pricing-engine/internal/numutil"
)

// ratioToleranceDenom encodes the 0.1% deposit-ratio tolerance:
// |inputRatio - poolRatio| <= poolRatio/1000, checked cross-multiplied so
// the comparison stays exact.
var ratioToleranceDenom = big.NewInt(1000)

// LiquidityParams is a request-scoped value object for liquidity
// provision or redemption.
type LiquidityParams struct {
	AmountYes *big.Int  `json:"amount_yes,omitempty"`
	AmountNo  *big.Int  `json:"amount_no,omitempty"`
	LPTokens  *big.Int  `json:"lp_tokens,omitempty"` // redemption only
	Timestamp time.Time `json:"timestamp"`
}

// AddLiquidityResult reports the minted tokens, the amounts actually
// consumed, and the depositor's resulting pool share.
type AddLiquidityResult struct {
	LPTokensMinted *big.Int           `json:"lp_tokens_minted"`
	ConsumedYes    *big.Int           `json:"consumed_yes"`
	ConsumedNo     *big.Int           `json:"consumed_no"`
	ShareOfPool    decimal.Decimal    `json:"share_of_pool"`
	NewState       *model.MarketState `json:"new_state"`
}

// RemoveLiquidityResult reports the pro-rata redemption amounts.
type RemoveLiquidityResult struct {
	AmountYes *big.Int           `json:"amount_yes"`
	AmountNo  *big.Int           `json:"amount_no"`
	FeeShare  *big.Int           `json:"fee_share"`
	NewState  *model.MarketState `json:"new_state"`
}

// AddLiquidity computes a liquidity deposit.
//
// The first deposit (supply == 0) takes both amounts as given — it
// establishes the price ratio — and mints isqrt(amountYes*amountNo)
// tokens. Subsequent deposits must match the reserve ratio within 0.1%;
// tokens mint as min(amountYes*supply/reserveYes, amountNo*supply/reserveNo)
// and the consumed amounts are recomputed from the minted count, rounding
// up, so rounding loss always accrues to the depositor and never dilutes
// existing holders.
func (p *Pool) AddLiquidity(state *model.MarketState, params LiquidityParams) (*AddLiquidityResult, error) {
	aYes, aNo := params.AmountYes, params.AmountNo
	if aYes == nil || aNo == nil || aYes.Sign() <= 0 || aNo.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	next := state.Clone()
	supply := state.LPTokenSupply

	var minted, consumedYes, consumedNo *big.Int

	if supply.Sign() == 0 {
		product := new(big.Int).Mul(aYes, aNo)
		root, err := numutil.Isqrt(product)
		if err != nil || root.Sign() == 0 {
			return nil, ErrInvalidAmount
		}
		minted = root
		consumedYes = new(big.Int).Set(aYes)
		consumedNo = new(big.Int).Set(aNo)
	} else {
		rYes, rNo := state.Reserves.Yes, state.Reserves.No

		// 1000*|aYes*rNo - rYes*aNo| <= rYes*aNo  ⇔  |aYes/aNo - rYes/rNo| <= (rYes/rNo)/1000
		cross := new(big.Int).Sub(
			new(big.Int).Mul(aYes, rNo),
			new(big.Int).Mul(rYes, aNo),
		)
		cross.Abs(cross).Mul(cross, ratioToleranceDenom)
		if cross.Cmp(new(big.Int).Mul(rYes, aNo)) > 0 {
			return nil, ErrRatioMismatch
		}

		minted = numutil.Min(
			numutil.MulDiv(aYes, supply, rYes),
			numutil.MulDiv(aNo, supply, rNo),
		)
		if minted.Sign() == 0 {
			return nil, ErrInvalidAmount
		}

		// minted was floored, so ceil(minted*r/supply) <= amount provided.
		consumedYes = numutil.MulDivCeil(minted, rYes, supply)
		consumedNo = numutil.MulDivCeil(minted, rNo, supply)
	}

	next.Reserves.Yes.Add(next.Reserves.Yes, consumedYes)
	next.Reserves.No.Add(next.Reserves.No, consumedNo)
	next.Reserves.Constant.Mul(next.Reserves.Yes, next.Reserves.No)
	next.LPTokenSupply.Add(next.LPTokenSupply, minted)
	next.TotalLiquidity.Add(next.Reserves.Yes, next.Reserves.No)

	share := decimal.NewFromBigInt(minted, 0).
		DivRound(decimal.NewFromBigInt(next.LPTokenSupply, 0), PriceScale)

	return &AddLiquidityResult{
		LPTokensMinted: minted,
		ConsumedYes:    consumedYes,
		ConsumedNo:     consumedNo,
		ShareOfPool:    share,
		NewState:       next,
	}, nil
}

// RemoveLiquidity redeems LP tokens pro rata against both reserves and
// the accumulated protocol fee reserve. Whether the holder actually owns
// the tokens is the settlement layer's check; the supply comparison here
// is defensive.
func (p *Pool) RemoveLiquidity(state *model.MarketState, params LiquidityParams) (*RemoveLiquidityResult, error) {
	lp := params.LPTokens
	if lp == nil || lp.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}
	supply := state.LPTokenSupply
	if lp.Cmp(supply) > 0 {
		return nil, ErrInsufficientBalance
	}

	amountYes := numutil.MulDiv(lp, state.Reserves.Yes, supply)
	amountNo := numutil.MulDiv(lp, state.Reserves.No, supply)
	feeShare := numutil.MulDiv(lp, state.ProtocolFees, supply)

	next := state.Clone()
	next.Reserves.Yes.Sub(next.Reserves.Yes, amountYes)
	next.Reserves.No.Sub(next.Reserves.No, amountNo)
	next.Reserves.Constant.Mul(next.Reserves.Yes, next.Reserves.No)
	next.LPTokenSupply.Sub(next.LPTokenSupply, lp)
	next.ProtocolFees.Sub(next.ProtocolFees, feeShare)
	next.TotalLiquidity.Add(next.Reserves.Yes, next.Reserves.No)

	return &RemoveLiquidityResult{
		AmountYes: amountYes,
		AmountNo:  amountNo,
		FeeShare:  feeShare,
		NewState:  next,
	}, nil
}
