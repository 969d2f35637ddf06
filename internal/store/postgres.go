package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/model"
)

// PostgresStore implements Store using PostgreSQL as the source of
// truth. Integer amounts are stored as NUMERIC and moved over the wire
// as text so precision is never lost; price history rides along as
// JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const poolColumns = `pool_id, ticker,
	reserve_yes::TEXT, reserve_no::TEXT, pool_constant::TEXT,
	total_liquidity::TEXT, fee::TEXT, volatility,
	volume_24h::TEXT, price_history,
	lp_token_supply::TEXT, protocol_fees::TEXT, created_at`

func (s *PostgresStore) CreatePool(ctx context.Context, st *model.MarketState) error {
	history, err := json.Marshal(st.PriceHistory)
	if err != nil {
		return fmt.Errorf("marshal price history: %w", err)
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO pools (pool_id, ticker, reserve_yes, reserve_no, pool_constant,
		                    total_liquidity, fee, volatility, volume_24h, price_history,
		                    lp_token_supply, protocol_fees, created_at)
		 VALUES ($1, $2, $3::NUMERIC, $4::NUMERIC, $5::NUMERIC,
		         $6::NUMERIC, $7::NUMERIC, $8, $9::NUMERIC, $10,
		         $11::NUMERIC, $12::NUMERIC, $13)`,
		st.PoolID, st.Ticker,
		st.Reserves.Yes.String(), st.Reserves.No.String(), st.Reserves.Constant.String(),
		st.TotalLiquidity.String(), st.Fee.String(), st.Volatility,
		st.Volume24h.String(), history,
		st.LPTokenSupply.String(), st.ProtocolFees.String(), st.CreatedAt,
	)
	return err
}

func (s *PostgresStore) GetPool(ctx context.Context, poolID string) (*model.MarketState, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+poolColumns+` FROM pools WHERE pool_id = $1`, poolID)
	st, err := scanPool(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrPoolNotFound, poolID)
		}
		return nil, fmt.Errorf("get pool %s: %w", poolID, err)
	}
	return st, nil
}

func (s *PostgresStore) GetPoolByTicker(ctx context.Context, ticker string) (*model.MarketState, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+poolColumns+` FROM pools WHERE ticker = $1`, ticker)
	st, err := scanPool(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: ticker %s", ErrPoolNotFound, ticker)
		}
		return nil, fmt.Errorf("get pool by ticker %s: %w", ticker, err)
	}
	return st, nil
}

func (s *PostgresStore) ListPools(ctx context.Context) ([]model.MarketState, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+poolColumns+` FROM pools ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pools []model.MarketState
	for rows.Next() {
		st, err := scanPool(rows)
		if err != nil {
			return nil, err
		}
		pools = append(pools, *st)
	}
	return pools, rows.Err()
}

func (s *PostgresStore) UpdatePool(ctx context.Context, st *model.MarketState) error {
	history, err := json.Marshal(st.PriceHistory)
	if err != nil {
		return fmt.Errorf("marshal price history: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE pools
		 SET reserve_yes = $2::NUMERIC, reserve_no = $3::NUMERIC,
		     pool_constant = $4::NUMERIC, total_liquidity = $5::NUMERIC,
		     fee = $6::NUMERIC, volatility = $7, volume_24h = $8::NUMERIC,
		     price_history = $9, lp_token_supply = $10::NUMERIC,
		     protocol_fees = $11::NUMERIC
		 WHERE pool_id = $1`,
		st.PoolID,
		st.Reserves.Yes.String(), st.Reserves.No.String(), st.Reserves.Constant.String(),
		st.TotalLiquidity.String(), st.Fee.String(), st.Volatility,
		st.Volume24h.String(), history,
		st.LPTokenSupply.String(), st.ProtocolFees.String(),
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", ErrPoolNotFound, st.PoolID)
	}
	return nil
}

func (s *PostgresStore) InsertSwap(ctx context.Context, rec *model.SwapRecord) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO swaps (id, pool_id, user_id, asset_in, amount_in, amount_out,
		                    fee_amount, fee_rate, price_impact, timestamp)
		 VALUES ($1, $2, $3, $4, $5::NUMERIC, $6::NUMERIC,
		         $7::NUMERIC, $8::NUMERIC, $9::NUMERIC, $10)`,
		rec.ID, rec.PoolID, rec.UserID, string(rec.AssetIn),
		rec.AmountIn.String(), rec.AmountOut.String(),
		rec.FeeAmount.String(), rec.FeeRate.String(), rec.PriceImpact.String(),
		rec.Timestamp,
	)
	return err
}

func (s *PostgresStore) GetSwapsByPool(ctx context.Context, poolID string) ([]model.SwapRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, pool_id, user_id, asset_in,
		        amount_in::TEXT, amount_out::TEXT, fee_amount::TEXT,
		        fee_rate::TEXT, price_impact::TEXT, timestamp
		 FROM swaps WHERE pool_id = $1 ORDER BY timestamp`, poolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSwaps(rows)
}

func (s *PostgresStore) GetSwapsByUser(ctx context.Context, userID string) ([]model.SwapRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, pool_id, user_id, asset_in,
		        amount_in::TEXT, amount_out::TEXT, fee_amount::TEXT,
		        fee_rate::TEXT, price_impact::TEXT, timestamp
		 FROM swaps WHERE user_id = $1 ORDER BY timestamp`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSwaps(rows)
}

func (s *PostgresStore) GetUserExposures(ctx context.Context, userID string) (map[string]decimal.Decimal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT p.ticker,
		        COALESCE(SUM(CASE WHEN sw.asset_in = 'NO'  THEN sw.amount_out
		                          WHEN sw.asset_in = 'YES' THEN -sw.amount_out
		                          ELSE 0 END), 0)::TEXT AS net_exposure
		 FROM swaps sw
		 JOIN pools p ON p.pool_id = sw.pool_id
		 WHERE sw.user_id = $1
		 GROUP BY p.ticker`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	exposures := make(map[string]decimal.Decimal)
	for rows.Next() {
		var ticker, expStr string
		if err := rows.Scan(&ticker, &expStr); err != nil {
			return nil, err
		}
		exp, _ := decimal.NewFromString(expStr)
		exposures[ticker] = exp
	}
	return exposures, rows.Err()
}

// pgxRow abstracts QueryRow results and Rows for shared scanning.
type pgxRow interface {
	Scan(dest ...interface{}) error
}

func scanPool(row pgxRow) (*model.MarketState, error) {
	var st model.MarketState
	var yesS, noS, constS, liqS, feeS, volS, supplyS, protoS string
	var history []byte

	if err := row.Scan(&st.PoolID, &st.Ticker,
		&yesS, &noS, &constS,
		&liqS, &feeS, &st.Volatility,
		&volS, &history,
		&supplyS, &protoS, &st.CreatedAt); err != nil {
		return nil, err
	}

	st.Reserves.Yes = parseBig(yesS)
	st.Reserves.No = parseBig(noS)
	st.Reserves.Constant = parseBig(constS)
	st.TotalLiquidity = parseBig(liqS)
	st.Fee, _ = decimal.NewFromString(feeS)
	st.Volume24h = parseBig(volS)
	st.LPTokenSupply = parseBig(supplyS)
	st.ProtocolFees = parseBig(protoS)

	if len(history) > 0 {
		if err := json.Unmarshal(history, &st.PriceHistory); err != nil {
			return nil, fmt.Errorf("unmarshal price history: %w", err)
		}
	}
	return &st, nil
}

func scanSwaps(rows pgx.Rows) ([]model.SwapRecord, error) {
	var records []model.SwapRecord
	for rows.Next() {
		var rec model.SwapRecord
		var side, inS, outS, feeS, rateS, impactS string

		if err := rows.Scan(&rec.ID, &rec.PoolID, &rec.UserID, &side,
			&inS, &outS, &feeS, &rateS, &impactS, &rec.Timestamp); err != nil {
			return nil, err
		}

		rec.AssetIn = model.Side(side)
		rec.AmountIn = parseBig(inS)
		rec.AmountOut = parseBig(outS)
		rec.FeeAmount = parseBig(feeS)
		rec.FeeRate, _ = decimal.NewFromString(rateS)
		rec.PriceImpact, _ = decimal.NewFromString(impactS)

		records = append(records, rec)
	}
	return records, rows.Err()
}

func parseBig(s string) *big.Int {
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return n
}
