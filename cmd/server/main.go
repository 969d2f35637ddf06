package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/cfmm"
	"github.com/yesnofun/pricing-engine/internal/config"
	"github.com/yesnofun/pricing-engine/internal/engine"
	"github.com/yesnofun/pricing-engine/internal/exposure"
	"github.com/yesnofun/pricing-engine/internal/kelly"
	"github.com/yesnofun/pricing-engine/internal/metrics"
	"github.com/yesnofun/pricing-engine/internal/oracle"
	"github.com/yesnofun/pricing-engine/internal/risk"
	"github.com/yesnofun/pricing-engine/internal/store"
	"github.com/yesnofun/pricing-engine/internal/volatility"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configPath := flag.String("config", "", "path to YAML config (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if cfg.Storage.DatabaseURL != "" {
		pool, err := pgxpool.New(context.Background(), cfg.Storage.DatabaseURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if cfg.Storage.RedisURL != "" {
			opt, err := redis.ParseURL(cfg.Storage.RedisURL)
			if err != nil {
				slog.Error("invalid redis url", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, cfg.CacheTTL())
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("database_url not set, using in-memory store (data will not persist)")
		st = store.NewMemoryStore()
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Pricing core ---
	pool, err := cfmm.NewPool(decimal.NewFromFloat(cfg.Pricing.BaseFee))
	if err != nil {
		slog.Error("invalid base fee", "err", err)
		os.Exit(1)
	}
	vol := volatility.NewEstimator(cfg.VolatilityWindow())
	sizer := kelly.NewSizer(
		decimal.NewFromFloat(cfg.Sizing.KellyMultiplier),
		decimal.NewFromFloat(cfg.Sizing.MaxPosition),
	)
	riskEngine := risk.NewEngine(risk.Parameters{
		MaxLeverage:           decimal.NewFromFloat(cfg.Risk.MaxLeverage),
		MaintenanceMarginRate: decimal.NewFromFloat(cfg.Risk.MaintenanceMarginRate),
		InitialMarginRate:     decimal.NewFromFloat(cfg.Risk.InitialMarginRate),
		MaxDrawdown:           decimal.NewFromFloat(cfg.Risk.MaxDrawdown),
		VaRConfidence:         decimal.NewFromFloat(cfg.Risk.VaRConfidence),
	})
	limiter := exposure.NewLimiter(
		decimal.NewFromFloat(cfg.Limits.MaxPerMarket),
		decimal.NewFromFloat(cfg.Limits.MaxPerCategory),
	)
	agg := oracle.NewAggregator(cfg.OracleMaxAge())

	// --- WebSocket hub ---
	wsHub := engine.NewWSHub()
	go wsHub.Run()

	// --- Engine service ---
	svc := engine.NewService(st, pool, sizer, riskEngine, vol, limiter, agg, wsHub)

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	rl := engine.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	r.Use(rl.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"pricing-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoint for real-time price updates.
		r.Get("/ws", wsHub.HandleWS)

		// Pool management.
		r.Get("/pools", svc.ListPools)
		r.Post("/pools", svc.CreatePool)
		r.Get("/pools/{poolID}", svc.GetPool)
		r.Get("/pools/{poolID}/price", svc.GetPrice)
		r.Get("/pools/{poolID}/history", svc.GetHistory)

		// Liquidity provision.
		r.Post("/pools/{poolID}/liquidity", svc.AddLiquidity)
		r.Post("/pools/{poolID}/liquidity/remove", svc.RemoveLiquidity)

		// Resolution.
		r.Post("/pools/{poolID}/resolve", svc.ResolvePool)
		r.Post("/pools/{poolID}/claim", svc.ClaimWinnings)

		// Swap execution.
		r.Post("/swap", svc.ExecuteSwap)

		// Bet sizing.
		r.Post("/size", svc.SizeBet)
		r.Post("/size/batch", svc.SizeBatch)

		// Risk queries.
		r.Post("/risk/var", svc.ComputeVaR)
		r.Post("/risk/liquidation", svc.CheckLiquidation)
		r.Post("/risk/funding", svc.ComputeFunding)

		// Oracle feed and forecaster leaderboard.
		r.Get("/oracle", svc.GetOracle)
		r.Post("/forecasts", svc.RecordForecast)
		r.Get("/leaderboard", svc.GetLeaderboard)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("pricing-engine listening", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down pricing-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("pricing-engine stopped")
}
