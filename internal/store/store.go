// Package store defines the persistence interface for the pricing
// engine. Implementations include PostgreSQL (source of truth), Redis
// (read-through cache), and in-memory (for testing).
package store

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/model"
)

var (
	// ErrPoolNotFound is returned when no pool matches the lookup key.
	ErrPoolNotFound = errors.New("store: pool not found")

	// ErrDuplicatePool is returned when creating a pool whose ID or
	// ticker is already taken.
	ErrDuplicatePool = errors.New("store: pool already exists")
)

// Store is the persistence interface. PostgreSQL is the source of
// truth; Redis provides a read-through cache layer. Pool state is
// written as a full snapshot because the pricing core returns new
// state values rather than mutating in place.
type Store interface {
	// --- Pool operations ---

	// CreatePool persists a new pool snapshot.
	CreatePool(ctx context.Context, state *model.MarketState) error

	// GetPool retrieves a pool by its ID.
	GetPool(ctx context.Context, poolID string) (*model.MarketState, error)

	// GetPoolByTicker retrieves a pool by its market ticker.
	GetPoolByTicker(ctx context.Context, ticker string) (*model.MarketState, error)

	// ListPools returns all pools.
	ListPools(ctx context.Context) ([]model.MarketState, error)

	// UpdatePool replaces a pool's snapshot after a state transition.
	UpdatePool(ctx context.Context, state *model.MarketState) error

	// --- Immutable swap ledger ---

	// InsertSwap appends an immutable swap record.
	InsertSwap(ctx context.Context, rec *model.SwapRecord) error

	// GetSwapsByPool returns all swaps against a pool.
	GetSwapsByPool(ctx context.Context, poolID string) ([]model.SwapRecord, error)

	// GetSwapsByUser returns all swaps by a user.
	GetSwapsByUser(ctx context.Context, userID string) ([]model.SwapRecord, error)

	// --- Exposure queries ---

	// GetUserExposures returns net directional exposure per ticker,
	// positive for YES and negative for NO.
	GetUserExposures(ctx context.Context, userID string) (map[string]decimal.Decimal, error)
}

// swapExposure is the signed share delta one swap contributes to a
// trader's exposure. Paying NO into the pool takes YES shares out, so
// the trader is long; paying YES in is the short direction.
func swapExposure(rec *model.SwapRecord) decimal.Decimal {
	out := decimal.NewFromBigInt(rec.AmountOut, 0)
	if rec.AssetIn == model.SideNo {
		return out
	}
	return out.Neg()
}
