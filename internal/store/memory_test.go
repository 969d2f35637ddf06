package store

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yesnofun/pricing-engine/internal/cfmm"
	"github.com/yesnofun/pricing-engine/internal/model"
)

func seedPool(t *testing.T, s Store, ticker string) *model.MarketState {
	t.Helper()
	st := cfmm.NewMarketState(uuid.NewString(), ticker, time.Now())
	st.Reserves.Yes = big.NewInt(1_000_000)
	st.Reserves.No = big.NewInt(1_000_000)
	st.Reserves.Constant = new(big.Int).Mul(st.Reserves.Yes, st.Reserves.No)
	st.TotalLiquidity = big.NewInt(2_000_000)
	st.LPTokenSupply = big.NewInt(1_000_000)
	require.NoError(t, s.CreatePool(context.Background(), st))
	return st
}

func swapRec(poolID, userID string, assetIn model.Side, out int64) *model.SwapRecord {
	return &model.SwapRecord{
		ID:          uuid.NewString(),
		PoolID:      poolID,
		UserID:      userID,
		AssetIn:     assetIn,
		AmountIn:    big.NewInt(out + 10),
		AmountOut:   big.NewInt(out),
		FeeAmount:   big.NewInt(3),
		FeeRate:     decimal.NewFromFloat(0.003),
		PriceImpact: decimal.NewFromFloat(0.001),
		Timestamp:   time.Now(),
	}
}

func TestMemoryStoreCreateAndGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st := seedPool(t, s, "YN-CRYPTO-btc100k-20261231")

	got, err := s.GetPool(ctx, st.PoolID)
	require.NoError(t, err)
	assert.Equal(t, st.PoolID, got.PoolID)
	assert.Equal(t, 0, got.Reserves.Yes.Cmp(big.NewInt(1_000_000)))

	byTicker, err := s.GetPoolByTicker(ctx, st.Ticker)
	require.NoError(t, err)
	assert.Equal(t, st.PoolID, byTicker.PoolID)
}

func TestMemoryStoreDuplicateRejected(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st := seedPool(t, s, "YN-CRYPTO-btc100k-20261231")

	err := s.CreatePool(ctx, st)
	assert.ErrorIs(t, err, ErrDuplicatePool)

	other := cfmm.NewMarketState(uuid.NewString(), st.Ticker, time.Now())
	err = s.CreatePool(ctx, other)
	assert.ErrorIs(t, err, ErrDuplicatePool)
}

func TestMemoryStoreNotFound(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, err := s.GetPool(ctx, "missing")
	assert.ErrorIs(t, err, ErrPoolNotFound)

	_, err = s.GetPoolByTicker(ctx, "YN-SPORTS-nope-20261231")
	assert.ErrorIs(t, err, ErrPoolNotFound)

	err = s.UpdatePool(ctx, cfmm.NewMarketState("missing", "x", time.Now()))
	assert.ErrorIs(t, err, ErrPoolNotFound)
}

func TestMemoryStoreUpdateReplacesSnapshot(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st := seedPool(t, s, "YN-CRYPTO-btc100k-20261231")
	st.Reserves.Yes = big.NewInt(900_000)
	st.Volume24h = big.NewInt(5_000)
	require.NoError(t, s.UpdatePool(ctx, st))

	got, err := s.GetPool(ctx, st.PoolID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Reserves.Yes.Cmp(big.NewInt(900_000)))
	assert.Equal(t, 0, got.Volume24h.Cmp(big.NewInt(5_000)))
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st := seedPool(t, s, "YN-CRYPTO-btc100k-20261231")

	got, err := s.GetPool(ctx, st.PoolID)
	require.NoError(t, err)

	// Mutating the returned copy must not touch the stored snapshot.
	got.Reserves.Yes.SetInt64(1)

	again, err := s.GetPool(ctx, st.PoolID)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Reserves.Yes.Cmp(big.NewInt(1_000_000)))
}

func TestMemoryStoreSwapLedger(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st := seedPool(t, s, "YN-CRYPTO-btc100k-20261231")

	require.NoError(t, s.InsertSwap(ctx, swapRec(st.PoolID, "alice", model.SideNo, 100)))
	require.NoError(t, s.InsertSwap(ctx, swapRec(st.PoolID, "bob", model.SideYes, 50)))
	require.NoError(t, s.InsertSwap(ctx, swapRec("other-pool", "alice", model.SideNo, 25)))

	byPool, err := s.GetSwapsByPool(ctx, st.PoolID)
	require.NoError(t, err)
	assert.Len(t, byPool, 2)

	byUser, err := s.GetSwapsByUser(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, byUser, 2)
}

func TestMemoryStoreExposuresNetBySide(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	st := seedPool(t, s, "YN-CRYPTO-btc100k-20261231")

	// Long 100 YES, then short 30 via the opposite side.
	require.NoError(t, s.InsertSwap(ctx, swapRec(st.PoolID, "alice", model.SideNo, 100)))
	require.NoError(t, s.InsertSwap(ctx, swapRec(st.PoolID, "alice", model.SideYes, 30)))

	exposures, err := s.GetUserExposures(ctx, "alice")
	require.NoError(t, err)
	require.Contains(t, exposures, st.Ticker)
	assert.True(t, exposures[st.Ticker].Equal(decimal.NewFromInt(70)),
		"net exposure = %s, want 70", exposures[st.Ticker])
}
