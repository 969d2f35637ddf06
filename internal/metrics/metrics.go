// Package metrics provides Prometheus instrumentation for the pricing engine.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SwapsTotal counts executed swaps, partitioned by input side.
	SwapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_swaps_total",
		Help: "Total number of swaps executed",
	}, []string{"asset_in"})

	// SwapLatency tracks swap execution latency.
	SwapLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_swap_latency_seconds",
		Help:    "Swap execution latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"asset_in"})

	// ActivePools tracks the number of live pools.
	ActivePools = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_active_pools",
		Help: "Number of live liquidity pools",
	})

	// LiquidityEventsTotal counts liquidity deposits and redemptions.
	LiquidityEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_liquidity_events_total",
		Help: "Liquidity add/remove operations",
	}, []string{"kind"})

	// SizingRequestsTotal counts Kelly sizing computations.
	SizingRequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_sizing_requests_total",
		Help: "Kelly sizing computations served",
	})

	// ExposureRejections counts swaps rejected by the exposure limiter.
	ExposureRejections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pricing_exposure_rejections_total",
		Help: "Swaps rejected by the exposure limiter",
	})

	// WebSocketClients tracks connected WebSocket clients.
	WebSocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "pricing_websocket_clients",
		Help: "Number of connected WebSocket clients",
	})

	// HTTPRequestsTotal counts HTTP requests by method, path, and status.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "path", "status"})

	// HTTPRequestDuration tracks request duration by method and path.
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricing_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"method", "path"})

	// PoolVolume tracks cumulative swap volume per pool.
	PoolVolume = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricing_pool_volume_total",
		Help: "Cumulative swap volume in base units",
	}, []string{"pool_id", "asset_in"})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Middleware returns an HTTP middleware that records request metrics.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		duration := time.Since(start).Seconds()

		// Use the raw path for the label; routes here are low cardinality.
		path := r.URL.Path
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(wrapped.status)).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// statusWriter wraps http.ResponseWriter to capture the status code.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
