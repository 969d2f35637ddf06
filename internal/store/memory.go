package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/model"
)

// MemoryStore implements Store with in-memory maps. Used for testing
// and development. Not suitable for production (no persistence).
type MemoryStore struct {
	mu    sync.RWMutex
	pools map[string]*model.MarketState
	swaps []model.SwapRecord
}

// NewMemoryStore creates a new in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		pools: make(map[string]*model.MarketState),
	}
}

func (s *MemoryStore) CreatePool(_ context.Context, state *model.MarketState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pools[state.PoolID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicatePool, state.PoolID)
	}
	for _, existing := range s.pools {
		if existing.Ticker == state.Ticker {
			return fmt.Errorf("%w: ticker %s", ErrDuplicatePool, state.Ticker)
		}
	}

	// Store a copy to avoid external mutation.
	s.pools[state.PoolID] = state.Clone()
	return nil
}

func (s *MemoryStore) GetPool(_ context.Context, poolID string) (*model.MarketState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.pools[poolID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
	}
	return st.Clone(), nil
}

func (s *MemoryStore) GetPoolByTicker(_ context.Context, ticker string) (*model.MarketState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, st := range s.pools {
		if st.Ticker == ticker {
			return st.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: ticker %s", ErrPoolNotFound, ticker)
}

func (s *MemoryStore) ListPools(_ context.Context) ([]model.MarketState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pools := make([]model.MarketState, 0, len(s.pools))
	for _, st := range s.pools {
		pools = append(pools, *st.Clone())
	}
	return pools, nil
}

func (s *MemoryStore) UpdatePool(_ context.Context, state *model.MarketState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.pools[state.PoolID]; !ok {
		return fmt.Errorf("%w: %s", ErrPoolNotFound, state.PoolID)
	}
	s.pools[state.PoolID] = state.Clone()
	return nil
}

func (s *MemoryStore) InsertSwap(_ context.Context, rec *model.SwapRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.swaps = append(s.swaps, *rec)
	return nil
}

func (s *MemoryStore) GetSwapsByPool(_ context.Context, poolID string) ([]model.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.SwapRecord
	for _, rec := range s.swaps {
		if rec.PoolID == poolID {
			result = append(result, rec)
		}
	}
	return result, nil
}

func (s *MemoryStore) GetSwapsByUser(_ context.Context, userID string) ([]model.SwapRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []model.SwapRecord
	for _, rec := range s.swaps {
		if rec.UserID == userID {
			result = append(result, rec)
		}
	}
	return result, nil
}

// GetUserExposures nets signed swap deltas per pool ticker.
func (s *MemoryStore) GetUserExposures(_ context.Context, userID string) (map[string]decimal.Decimal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exposures := make(map[string]decimal.Decimal)
	for i := range s.swaps {
		rec := &s.swaps[i]
		if rec.UserID != userID {
			continue
		}
		ticker := rec.PoolID
		if st, ok := s.pools[rec.PoolID]; ok {
			ticker = st.Ticker
		}
		exposures[ticker] = exposures[ticker].Add(swapExposure(rec))
	}
	return exposures, nil
}
