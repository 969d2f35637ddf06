// Package model defines the core domain types shared across the pricing
// engine. Transferable amounts (reserves, LP tokens, fees, bet sizes) are
// arbitrary-precision integers in a fixed base unit — never float64.
// Prices, fee rates, and probabilities use shopspring/decimal.
package model

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// Side identifies one leg of a binary market.
type Side string

const (
	SideYes Side = "YES"
	SideNo  Side = "NO"
)

// Valid reports whether s is one of the two recognized sides.
func (s Side) Valid() bool {
	return s == SideYes || s == SideNo
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == SideYes {
		return SideNo
	}
	return SideYes
}

// Reserves holds the pool's two asset balances and their product.
// Constant is derived state: it is recomputed from Yes*No after every
// mutating operation and never trusted as stored truth mid-operation.
type Reserves struct {
	Yes      *big.Int `json:"yes"`
	No       *big.Int `json:"no"`
	Constant *big.Int `json:"constant"`
}

// Clone returns a deep copy.
func (r Reserves) Clone() Reserves {
	return Reserves{
		Yes:      new(big.Int).Set(r.Yes),
		No:       new(big.Int).Set(r.No),
		Constant: new(big.Int).Set(r.Constant),
	}
}

// PricePoint is one entry of a pool's append-only price history.
type PricePoint struct {
	Timestamp time.Time       `json:"timestamp"`
	Price     decimal.Decimal `json:"price"`
	Volume    *big.Int        `json:"volume"`
	Liquidity *big.Int        `json:"liquidity"`
}

// MarketState is the authoritative snapshot of one liquidity pool.
// The pool component operates on a state value it is given and returns a
// new value; the canonical copy is owned by the settlement layer (here,
// the engine service and its store).
type MarketState struct {
	PoolID         string          `json:"pool_id"`
	Ticker         string          `json:"ticker"`
	Reserves       Reserves        `json:"reserves"`
	TotalLiquidity *big.Int        `json:"total_liquidity"`
	Fee            decimal.Decimal `json:"fee"`        // last-applied effective fee
	Volatility     float64         `json:"volatility"` // annualized realized vol
	Volume24h      *big.Int        `json:"volume_24h"`
	PriceHistory   []PricePoint    `json:"price_history"`
	LPTokenSupply  *big.Int        `json:"lp_token_supply"`
	ProtocolFees   *big.Int        `json:"protocol_fees"`
	CreatedAt      time.Time       `json:"created_at"`
}

// Clone returns a deep copy so transition functions never alias the input.
func (s *MarketState) Clone() *MarketState {
	out := *s
	out.Reserves = s.Reserves.Clone()
	out.TotalLiquidity = new(big.Int).Set(s.TotalLiquidity)
	out.Volume24h = new(big.Int).Set(s.Volume24h)
	out.LPTokenSupply = new(big.Int).Set(s.LPTokenSupply)
	out.ProtocolFees = new(big.Int).Set(s.ProtocolFees)
	out.PriceHistory = make([]PricePoint, len(s.PriceHistory))
	copy(out.PriceHistory, s.PriceHistory)
	return &out
}

// SwapRecord is an immutable record of an executed swap.
// Once created, these are never modified or deleted.
type SwapRecord struct {
	ID          string          `json:"id" db:"id"`
	PoolID      string          `json:"pool_id" db:"pool_id"`
	UserID      string          `json:"user_id" db:"user_id"`
	AssetIn     Side            `json:"asset_in" db:"asset_in"`
	AmountIn    *big.Int        `json:"amount_in" db:"amount_in"`
	AmountOut   *big.Int        `json:"amount_out" db:"amount_out"`
	FeeAmount   *big.Int        `json:"fee_amount" db:"fee_amount"`
	FeeRate     decimal.Decimal `json:"fee_rate" db:"fee_rate"`
	PriceImpact decimal.Decimal `json:"price_impact" db:"price_impact"`
	Timestamp   time.Time       `json:"timestamp" db:"timestamp"`
}

// Position is a perpetual-style position owned by an external position
// manager. The risk engine only computes predicates and metrics over a
// value passed in; it never creates, stores, or destroys positions.
type Position struct {
	Size           decimal.Decimal `json:"size"` // signed: +long, -short
	EntryPrice     decimal.Decimal `json:"entry_price"`
	Margin         decimal.Decimal `json:"margin"`
	FundingAccrued decimal.Decimal `json:"funding_accrued"`
}
