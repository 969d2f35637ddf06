// Package engine provides the HTTP handlers and coordination logic for
// the pricing engine: pool lifecycle, swap execution, liquidity
// provision, bet sizing, and risk queries.
//
// The pricing core is pure; this layer owns the canonical pool state,
// serializes writes behind a mutex, and enforces the advisory swap
// guards (min output, deadline) against computed results. For
// horizontal scaling, replace the mutex with database-level optimistic
// concurrency.
package engine

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/cfmm"
	"github.com/yesnofun/pricing-engine/internal/contract"
	"github.com/yesnofun/pricing-engine/internal/exposure"
	"github.com/yesnofun/pricing-engine/internal/kelly"
	"github.com/yesnofun/pricing-engine/internal/leaderboard"
	"github.com/yesnofun/pricing-engine/internal/metrics"
	"github.com/yesnofun/pricing-engine/internal/model"
	"github.com/yesnofun/pricing-engine/internal/oracle"
	"github.com/yesnofun/pricing-engine/internal/risk"
	"github.com/yesnofun/pricing-engine/internal/sentiment"
	"github.com/yesnofun/pricing-engine/internal/settle"
	"github.com/yesnofun/pricing-engine/internal/store"
	"github.com/yesnofun/pricing-engine/internal/volatility"
)

// ErrDeadlineExceeded is returned when a swap arrives after its deadline.
var ErrDeadlineExceeded = errors.New("engine: swap deadline exceeded")

// ErrSlippageExceeded is returned when the computed output falls below
// the caller's minimum.
var ErrSlippageExceeded = errors.New("engine: output below min_amount_out")

// Service handles pool operations. Swap and liquidity execution is
// serialized behind a mutex (single-instance).
type Service struct {
	store   store.Store
	pool    *cfmm.Pool
	sizer   *kelly.Sizer
	risk    *risk.Engine
	vol     *volatility.Estimator
	limiter *exposure.Limiter
	oracle  *oracle.Aggregator
	board   *leaderboard.Board
	mu      sync.Mutex
	wsHub   *WSHub // optional hub for real-time broadcasts
}

// NewService creates a new engine service.
// Pass nil for hub if WebSocket broadcasting is not needed.
func NewService(
	st store.Store,
	pool *cfmm.Pool,
	sizer *kelly.Sizer,
	riskEngine *risk.Engine,
	vol *volatility.Estimator,
	limiter *exposure.Limiter,
	agg *oracle.Aggregator,
	hub *WSHub,
) *Service {
	return &Service{
		store:   st,
		pool:    pool,
		sizer:   sizer,
		risk:    riskEngine,
		vol:     vol,
		limiter: limiter,
		oracle:  agg,
		board:   leaderboard.NewBoard(),
		wsHub:   hub,
	}
}

// --- Request/Response types ---

// CreatePoolRequest is the JSON body for pool creation. Seeding both
// amounts performs the initial deposit in the same call.
type CreatePoolRequest struct {
	Ticker    string   `json:"ticker"` // YN-{category}-{slug}-{YYYYMMDD}
	AmountYes *big.Int `json:"amount_yes,omitempty"`
	AmountNo  *big.Int `json:"amount_no,omitempty"`
}

// SwapRequest is the JSON body for POST /swap.
type SwapRequest struct {
	UserID       string     `json:"user_id"`
	Ticker       string     `json:"ticker"`
	AssetIn      model.Side `json:"asset_in"`
	AmountIn     *big.Int   `json:"amount_in"`
	MinAmountOut *big.Int   `json:"min_amount_out,omitempty"`
	Deadline     *time.Time `json:"deadline,omitempty"`
}

// SwapResponse is the JSON body returned from POST /swap.
type SwapResponse struct {
	SwapID      string          `json:"swap_id"`
	PoolID      string          `json:"pool_id"`
	AmountOut   *big.Int        `json:"amount_out"`
	FeeAmount   *big.Int        `json:"fee_amount"`
	FeeRate     decimal.Decimal `json:"fee_rate"`
	PriceImpact decimal.Decimal `json:"price_impact"`
	PriceYes    decimal.Decimal `json:"price_yes"`
	PriceNo     decimal.Decimal `json:"price_no"`
}

// LiquidityRequest is the JSON body for add/remove liquidity.
type LiquidityRequest struct {
	AmountYes *big.Int `json:"amount_yes,omitempty"`
	AmountNo  *big.Int `json:"amount_no,omitempty"`
	LPTokens  *big.Int `json:"lp_tokens,omitempty"`
}

// SizeRequest is the JSON body for POST /size. Headlines, when present,
// tilt the confidence input by lexicon sentiment.
type SizeRequest struct {
	Probability decimal.Decimal `json:"probability"`
	Odds        decimal.Decimal `json:"odds"`
	Confidence  decimal.Decimal `json:"confidence"`
	Bankroll    *big.Int        `json:"bankroll"`
	Headlines   []string        `json:"headlines,omitempty"`
}

// BatchSizeRequest is the JSON body for POST /size/batch.
type BatchSizeRequest struct {
	Bets     []kelly.BetInput `json:"bets"`
	Bankroll *big.Int         `json:"bankroll"`
}

// VaRRequest is the JSON body for POST /risk/var.
type VaRRequest struct {
	PositionSize decimal.Decimal `json:"position_size"`
	Volatility   float64         `json:"volatility"`
	HorizonHours float64         `json:"horizon_hours"`
}

// LiquidationRequest is the JSON body for POST /risk/liquidation.
type LiquidationRequest struct {
	Position     model.Position  `json:"position"`
	CurrentPrice decimal.Decimal `json:"current_price"`
}

// FundingRequest is the JSON body for POST /risk/funding.
type FundingRequest struct {
	MarkPrice     decimal.Decimal `json:"mark_price"`
	IndexPrice    decimal.Decimal `json:"index_price"`
	IntervalHours float64         `json:"interval_hours"`
}

// ResolveRequest is the JSON body for POST /pools/{poolID}/resolve.
type ResolveRequest struct {
	Winner model.Side `json:"winner"`
	FeeBps uint16     `json:"fee_bps"`
}

// ClaimRequest is the JSON body for POST /pools/{poolID}/claim.
type ClaimRequest struct {
	Winner model.Side `json:"winner"`
	Stake  *big.Int   `json:"stake"`
}

// ForecastRequest is the JSON body for POST /forecasts.
type ForecastRequest struct {
	Forecaster string          `json:"forecaster"`
	Forecast   decimal.Decimal `json:"forecast"`
	Resolved   bool            `json:"resolved"`
}

// --- Pool handlers ---

// CreatePool handles POST /api/v1/pools
func (s *Service) CreatePool(w http.ResponseWriter, r *http.Request) {
	var req CreatePoolRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	parsed, err := contract.ParseTicker(req.Ticker)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := parsed.ValidateOpen(time.Now().UTC()); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	state := cfmm.NewMarketState(uuid.New().String(), req.Ticker, now)

	// Optional initial deposit seeds the price ratio.
	if req.AmountYes != nil || req.AmountNo != nil {
		res, err := s.pool.AddLiquidity(state, cfmm.LiquidityParams{
			AmountYes: req.AmountYes,
			AmountNo:  req.AmountNo,
			Timestamp: now,
		})
		if err != nil {
			writeError(w, err.Error(), http.StatusBadRequest)
			return
		}
		state = res.NewState
	}

	if err := s.store.CreatePool(r.Context(), state); err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	metrics.ActivePools.Inc()

	slog.Info("pool created",
		"pool_id", state.PoolID,
		"ticker", req.Ticker,
		"category", parsed.Category,
		"reserve_yes", state.Reserves.Yes.String(),
		"reserve_no", state.Reserves.No.String(),
	)

	writeJSON(w, http.StatusCreated, state)
}

// ListPools handles GET /api/v1/pools
// Returns all pools, optionally filtered by ?category=<category>.
func (s *Service) ListPools(w http.ResponseWriter, r *http.Request) {
	pools, err := s.store.ListPools(r.Context())
	if err != nil {
		writeError(w, "failed to list pools", http.StatusInternalServerError)
		return
	}
	if pools == nil {
		pools = []model.MarketState{}
	}

	if category := r.URL.Query().Get("category"); category != "" {
		filtered := []model.MarketState{}
		for _, p := range pools {
			if c, err := contract.ParseTicker(p.Ticker); err == nil && c.Category == category {
				filtered = append(filtered, p)
			}
		}
		pools = filtered
	}

	writeJSON(w, http.StatusOK, pools)
}

// GetPool handles GET /api/v1/pools/{poolID}
func (s *Service) GetPool(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	state, err := s.store.GetPool(r.Context(), poolID)
	if err != nil {
		writeError(w, "pool not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, state)
}

// GetPrice handles GET /api/v1/pools/{poolID}/price
func (s *Service) GetPrice(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	state, err := s.store.GetPool(r.Context(), poolID)
	if err != nil {
		writeError(w, "pool not found", http.StatusNotFound)
		return
	}

	priceYes, err := cfmm.SpotPrice(state, model.SideYes)
	if err != nil {
		writeError(w, err.Error(), http.StatusConflict)
		return
	}
	priceNo, _ := cfmm.SpotPrice(state, model.SideNo)

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{
		"yes": priceYes,
		"no":  priceNo,
	})
}

// GetHistory handles GET /api/v1/pools/{poolID}/history
func (s *Service) GetHistory(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	swaps, err := s.store.GetSwapsByPool(r.Context(), poolID)
	if err != nil {
		writeError(w, "failed to get pool history", http.StatusInternalServerError)
		return
	}
	if swaps == nil {
		swaps = []model.SwapRecord{}
	}

	writeJSON(w, http.StatusOK, swaps)
}

// --- Swap execution ---

// ExecuteSwap handles POST /api/v1/swap
func (s *Service) ExecuteSwap(w http.ResponseWriter, r *http.Request) {
	var req SwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if req.UserID == "" {
		writeError(w, "user_id is required", http.StatusBadRequest)
		return
	}
	if !req.AssetIn.Valid() {
		writeError(w, "asset_in must be YES or NO", http.StatusBadRequest)
		return
	}
	if req.AmountIn == nil || req.AmountIn.Sign() <= 0 {
		writeError(w, "amount_in must be positive", http.StatusBadRequest)
		return
	}

	now := time.Now().UTC()
	if req.Deadline != nil && now.After(*req.Deadline) {
		writeError(w, ErrDeadlineExceeded.Error(), http.StatusConflict)
		return
	}

	ctx := r.Context()
	start := time.Now()

	// Serialize swap execution.
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.GetPoolByTicker(ctx, req.Ticker)
	if err != nil {
		writeError(w, "pool not found for ticker: "+req.Ticker, http.StatusNotFound)
		return
	}

	// Exposure limit check runs on the signed share delta the swap
	// would produce; estimate with the computed output below, so run
	// the transition first and reject before persisting.
	result, err := s.pool.Swap(state, cfmm.SwapParams{
		AmountIn:  req.AmountIn,
		AssetIn:   req.AssetIn,
		Timestamp: now,
	})
	if err != nil {
		writeError(w, err.Error(), swapStatus(err))
		return
	}

	if req.MinAmountOut != nil && result.AmountOut.Cmp(req.MinAmountOut) < 0 {
		writeError(w, ErrSlippageExceeded.Error(), http.StatusConflict)
		return
	}

	delta := decimal.NewFromBigInt(result.AmountOut, 0)
	if req.AssetIn == model.SideYes {
		delta = delta.Neg()
	}
	exposures, err := s.store.GetUserExposures(ctx, req.UserID)
	if err != nil {
		writeError(w, "failed to check exposure limits", http.StatusInternalServerError)
		return
	}
	if err := s.limiter.CheckLimit(req.Ticker, delta, exposures); err != nil {
		metrics.ExposureRejections.Inc()
		writeError(w, err.Error(), http.StatusConflict)
		return
	}

	// Refresh realized volatility and re-window the rolling volume so
	// the next dynamic fee sees both.
	next := result.NewState
	next.Volatility = s.vol.Realized(next.PriceHistory, now)
	next.Volume24h = s.vol.RollingVolume(next.PriceHistory, now)

	if err := s.store.UpdatePool(ctx, next); err != nil {
		writeError(w, "failed to update pool state", http.StatusInternalServerError)
		return
	}

	rec := &model.SwapRecord{
		ID:          uuid.New().String(),
		PoolID:      state.PoolID,
		UserID:      req.UserID,
		AssetIn:     req.AssetIn,
		AmountIn:    req.AmountIn,
		AmountOut:   result.AmountOut,
		FeeAmount:   result.FeeAmount,
		FeeRate:     result.FeeRate,
		PriceImpact: result.PriceImpact,
		Timestamp:   now,
	}
	if err := s.store.InsertSwap(ctx, rec); err != nil {
		writeError(w, "failed to record swap", http.StatusInternalServerError)
		return
	}

	priceYes, _ := cfmm.SpotPrice(next, model.SideYes)
	priceNo, _ := cfmm.SpotPrice(next, model.SideNo)

	metrics.SwapsTotal.WithLabelValues(string(req.AssetIn)).Inc()
	metrics.SwapLatency.WithLabelValues(string(req.AssetIn)).Observe(time.Since(start).Seconds())
	metrics.PoolVolume.WithLabelValues(state.PoolID, string(req.AssetIn)).
		Add(decimal.NewFromBigInt(req.AmountIn, 0).InexactFloat64())

	slog.Info("swap executed",
		"swap_id", rec.ID,
		"user", req.UserID,
		"ticker", req.Ticker,
		"asset_in", req.AssetIn,
		"amount_in", req.AmountIn.String(),
		"amount_out", result.AmountOut.String(),
		"fee", result.FeeAmount.String(),
		"price_impact", result.PriceImpact.String(),
	)

	if s.wsHub != nil {
		s.wsHub.Broadcast(WSMessage{
			Type:      "swap_executed",
			PoolID:    state.PoolID,
			Ticker:    req.Ticker,
			PriceYes:  priceYes.String(),
			PriceNo:   priceNo.String(),
			AssetIn:   string(req.AssetIn),
			AmountIn:  req.AmountIn.String(),
			AmountOut: result.AmountOut.String(),
		})
	}

	writeJSON(w, http.StatusOK, SwapResponse{
		SwapID:      rec.ID,
		PoolID:      state.PoolID,
		AmountOut:   result.AmountOut,
		FeeAmount:   result.FeeAmount,
		FeeRate:     result.FeeRate,
		PriceImpact: result.PriceImpact,
		PriceYes:    priceYes,
		PriceNo:     priceNo,
	})
}

// --- Liquidity handlers ---

// AddLiquidity handles POST /api/v1/pools/{poolID}/liquidity
func (s *Service) AddLiquidity(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	var req LiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.GetPool(ctx, poolID)
	if err != nil {
		writeError(w, "pool not found", http.StatusNotFound)
		return
	}

	res, err := s.pool.AddLiquidity(state, cfmm.LiquidityParams{
		AmountYes: req.AmountYes,
		AmountNo:  req.AmountNo,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		writeError(w, err.Error(), liquidityStatus(err))
		return
	}

	if err := s.store.UpdatePool(ctx, res.NewState); err != nil {
		writeError(w, "failed to update pool state", http.StatusInternalServerError)
		return
	}
	metrics.LiquidityEventsTotal.WithLabelValues("add").Inc()

	slog.Info("liquidity added",
		"pool_id", poolID,
		"minted", res.LPTokensMinted.String(),
		"consumed_yes", res.ConsumedYes.String(),
		"consumed_no", res.ConsumedNo.String(),
	)

	writeJSON(w, http.StatusOK, res)
}

// RemoveLiquidity handles POST /api/v1/pools/{poolID}/liquidity/remove
func (s *Service) RemoveLiquidity(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	var req LiquidityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.store.GetPool(ctx, poolID)
	if err != nil {
		writeError(w, "pool not found", http.StatusNotFound)
		return
	}

	res, err := s.pool.RemoveLiquidity(state, cfmm.LiquidityParams{
		LPTokens:  req.LPTokens,
		Timestamp: time.Now().UTC(),
	})
	if err != nil {
		writeError(w, err.Error(), liquidityStatus(err))
		return
	}

	if err := s.store.UpdatePool(ctx, res.NewState); err != nil {
		writeError(w, "failed to update pool state", http.StatusInternalServerError)
		return
	}
	metrics.LiquidityEventsTotal.WithLabelValues("remove").Inc()

	slog.Info("liquidity removed",
		"pool_id", poolID,
		"burned", req.LPTokens.String(),
		"amount_yes", res.AmountYes.String(),
		"amount_no", res.AmountNo.String(),
		"fee_share", res.FeeShare.String(),
	)

	writeJSON(w, http.StatusOK, res)
}

// --- Sizing handlers ---

// SizeBet handles POST /api/v1/size
func (s *Service) SizeBet(w http.ResponseWriter, r *http.Request) {
	var req SizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	confidence := req.Confidence
	if len(req.Headlines) > 0 {
		// Tilt confidence by headline sentiment, clamped to [0, 1].
		tilt := decimal.NewFromFloat(sentiment.ScoreBatch(req.Headlines) * 0.1)
		confidence = confidence.Add(tilt)
		if confidence.GreaterThan(decimal.NewFromInt(1)) {
			confidence = decimal.NewFromInt(1)
		}
		if confidence.IsNegative() {
			confidence = decimal.Zero
		}
	}

	decision, err := s.sizer.SingleBet(req.Probability, req.Odds, confidence, req.Bankroll)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	metrics.SizingRequestsTotal.Inc()

	writeJSON(w, http.StatusOK, decision)
}

// SizeBatch handles POST /api/v1/size/batch
func (s *Service) SizeBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	decision, err := s.sizer.MultiBet(req.Bets, req.Bankroll)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	metrics.SizingRequestsTotal.Inc()

	writeJSON(w, http.StatusOK, decision)
}

// --- Risk handlers ---

// ComputeVaR handles POST /api/v1/risk/var
func (s *Service) ComputeVaR(w http.ResponseWriter, r *http.Request) {
	var req VaRRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	v, err := s.risk.ValueAtRisk(req.PositionSize, req.Volatility, req.HorizonHours)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"value_at_risk": v})
}

// CheckLiquidation handles POST /api/v1/risk/liquidation
func (s *Service) CheckLiquidation(w http.ResponseWriter, r *http.Request) {
	var req LiquidationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	check, err := s.risk.CheckLiquidation(req.Position, req.CurrentPrice)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, check)
}

// ComputeFunding handles POST /api/v1/risk/funding
func (s *Service) ComputeFunding(w http.ResponseWriter, r *http.Request) {
	var req FundingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rate, err := s.risk.FundingRate(req.MarkPrice, req.IndexPrice, req.IntervalHours)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"funding_rate": rate})
}

// --- Resolution handlers ---

// ResolvePool handles POST /api/v1/pools/{poolID}/resolve
// Splits the pooled stakes into protocol fee and payout pools.
func (s *Service) ResolvePool(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	var req ResolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	state, err := s.store.GetPool(r.Context(), poolID)
	if err != nil {
		writeError(w, "pool not found", http.StatusNotFound)
		return
	}

	res, err := settle.NewResolution(req.Winner, state.Reserves.Yes, state.Reserves.No)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	fee, netLosing, err := settle.SplitFee(res.LosingPool, req.FeeBps)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	res.LosingPool = netLosing

	slog.Info("pool resolved",
		"pool_id", poolID,
		"winner", req.Winner,
		"winning_pool", res.WinningPool.String(),
		"losing_pool", res.LosingPool.String(),
		"protocol_fee", fee.String(),
	)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"winner":       res.Winner,
		"winning_pool": res.WinningPool,
		"losing_pool":  res.LosingPool,
		"protocol_fee": fee,
	})
}

// ClaimWinnings handles POST /api/v1/pools/{poolID}/claim
func (s *Service) ClaimWinnings(w http.ResponseWriter, r *http.Request) {
	poolID := chi.URLParam(r, "poolID")

	var req ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	state, err := s.store.GetPool(r.Context(), poolID)
	if err != nil {
		writeError(w, "pool not found", http.StatusNotFound)
		return
	}

	res, err := settle.NewResolution(req.Winner, state.Reserves.Yes, state.Reserves.No)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	payout, err := res.Claim(req.Stake)
	if err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*big.Int{"payout": payout})
}

// --- Oracle and leaderboard handlers ---

// GetOracle handles GET /api/v1/oracle
func (s *Service) GetOracle(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	snap, err := s.oracle.Aggregate(oracle.SimulatedSources(now), now)
	if err != nil {
		writeError(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// RecordForecast handles POST /api/v1/forecasts
func (s *Service) RecordForecast(w http.ResponseWriter, r *http.Request) {
	var req ForecastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Forecaster == "" {
		writeError(w, "forecaster is required", http.StatusBadRequest)
		return
	}

	if err := s.board.Record(req.Forecaster, req.Forecast, req.Resolved); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetLeaderboard handles GET /api/v1/leaderboard
func (s *Service) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	rankings := s.board.Rankings()
	if rankings == nil {
		rankings = []leaderboard.Entry{}
	}
	writeJSON(w, http.StatusOK, rankings)
}

// --- Helpers ---

func swapStatus(err error) int {
	switch {
	case errors.Is(err, cfmm.ErrInsufficientLiquidity):
		return http.StatusConflict
	case errors.Is(err, cfmm.ErrInvalidAmount), errors.Is(err, cfmm.ErrInvalidSide):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func liquidityStatus(err error) int {
	switch {
	case errors.Is(err, cfmm.ErrRatioMismatch), errors.Is(err, cfmm.ErrInsufficientBalance):
		return http.StatusConflict
	case errors.Is(err, cfmm.ErrInvalidAmount):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
