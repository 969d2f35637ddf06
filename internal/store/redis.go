package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/model"
)

// CachedStore wraps a primary Store (PostgreSQL) with a Redis
// read-through cache. Writes go to the primary store and refresh or
// invalidate the cache; reads check Redis first then fall back.
type CachedStore struct {
	primary Store
	rdb     *redis.Client
	ttl     time.Duration
}

// NewCachedStore creates a cached wrapper around a primary store.
func NewCachedStore(primary Store, rdb *redis.Client, ttl time.Duration) *CachedStore {
	return &CachedStore{
		primary: primary,
		rdb:     rdb,
		ttl:     ttl,
	}
}

// --- Write-through (write to primary, refresh cache) ---

func (s *CachedStore) CreatePool(ctx context.Context, st *model.MarketState) error {
	if err := s.primary.CreatePool(ctx, st); err != nil {
		return err
	}
	s.cachePool(ctx, st)
	return nil
}

func (s *CachedStore) UpdatePool(ctx context.Context, st *model.MarketState) error {
	if err := s.primary.UpdatePool(ctx, st); err != nil {
		return err
	}
	// Invalidate; next read re-populates from the primary.
	s.rdb.Del(ctx, poolKey(st.PoolID))
	return nil
}

func (s *CachedStore) InsertSwap(ctx context.Context, rec *model.SwapRecord) error {
	if err := s.primary.InsertSwap(ctx, rec); err != nil {
		return err
	}
	s.rdb.Del(ctx, exposuresKey(rec.UserID))
	return nil
}

// --- Read-through (check cache first) ---

func (s *CachedStore) GetPool(ctx context.Context, poolID string) (*model.MarketState, error) {
	data, err := s.rdb.Get(ctx, poolKey(poolID)).Bytes()
	if err == nil {
		var st model.MarketState
		if json.Unmarshal(data, &st) == nil {
			return &st, nil
		}
	}

	st, err := s.primary.GetPool(ctx, poolID)
	if err != nil {
		return nil, err
	}

	s.cachePool(ctx, st)
	return st, nil
}

func (s *CachedStore) GetPoolByTicker(ctx context.Context, ticker string) (*model.MarketState, error) {
	// Try cache via ticker→poolID mapping.
	poolID, err := s.rdb.Get(ctx, tickerKey(ticker)).Result()
	if err == nil {
		return s.GetPool(ctx, poolID)
	}

	st, err := s.primary.GetPoolByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	// Cache both the pool and the ticker→ID mapping.
	s.cachePool(ctx, st)
	s.rdb.Set(ctx, tickerKey(ticker), st.PoolID, s.ttl)
	return st, nil
}

func (s *CachedStore) GetUserExposures(ctx context.Context, userID string) (map[string]decimal.Decimal, error) {
	data, err := s.rdb.Get(ctx, exposuresKey(userID)).Bytes()
	if err == nil {
		var exposures map[string]decimal.Decimal
		if json.Unmarshal(data, &exposures) == nil {
			return exposures, nil
		}
	}

	exposures, err := s.primary.GetUserExposures(ctx, userID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(exposures); err == nil {
		s.rdb.Set(ctx, exposuresKey(userID), data, s.ttl)
	}
	return exposures, nil
}

// --- Passthrough (not cached) ---

func (s *CachedStore) ListPools(ctx context.Context) ([]model.MarketState, error) {
	return s.primary.ListPools(ctx)
}

func (s *CachedStore) GetSwapsByPool(ctx context.Context, poolID string) ([]model.SwapRecord, error) {
	return s.primary.GetSwapsByPool(ctx, poolID)
}

func (s *CachedStore) GetSwapsByUser(ctx context.Context, userID string) ([]model.SwapRecord, error) {
	return s.primary.GetSwapsByUser(ctx, userID)
}

// --- Cache helpers ---

func (s *CachedStore) cachePool(ctx context.Context, st *model.MarketState) {
	if data, err := json.Marshal(st); err == nil {
		s.rdb.Set(ctx, poolKey(st.PoolID), data, s.ttl)
	}
}

func poolKey(id string) string          { return fmt.Sprintf("pool:%s", id) }
func tickerKey(ticker string) string    { return fmt.Sprintf("ticker:%s", ticker) }
func exposuresKey(userID string) string { return fmt.Sprintf("exposures:%s", userID) }
