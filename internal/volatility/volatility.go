// Package volatility estimates realized volatility from windowed price
// history and provides a coarse closed-form implied volatility proxy.
//
// Both estimators are advisory: their outputs feed the dynamic fee and
// VaR calculations but never touch custodial arithmetic, so plain float64
// is used throughout.
package volatility

import (
	"math"
	"math/big"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/model"
	"github.com/yesnofun/pricing-engine/internal/numutil"
)

// Implied-volatility clamp bounds.
const (
	MinImpliedVol = 0.01
	MaxImpliedVol = 3.0
)

const hoursPerYear = 365 * 24

// Estimator computes realized volatility over a fixed lookback window.
// It filters history by the window cutoff itself but does not own
// retention; callers prune entries older than the window.
type Estimator struct {
	window time.Duration
}

// NewEstimator creates an estimator with the given lookback window.
// Non-positive windows fall back to 24h.
func NewEstimator(window time.Duration) *Estimator {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Estimator{window: window}
}

// Window returns the lookback window.
func (e *Estimator) Window() time.Duration {
	return e.window
}

// Realized computes annualized realized volatility from the price history.
//
// Entries older than now-window are dropped. If fewer than 2 points
// remain there is not enough data and the result is 0 — an insufficient
// data policy, not an error. Log-returns between consecutive time-ordered
// points are reduced to their population standard deviation and
// annualized by sqrt(periodsPerYear), where periodsPerYear is derived
// from the window length.
func (e *Estimator) Realized(history []model.PricePoint, now time.Time) float64 {
	cutoff := now.Add(-e.window)

	var points []model.PricePoint
	for _, p := range history {
		if p.Timestamp.After(cutoff) {
			points = append(points, p)
		}
	}
	if len(points) < 2 {
		return 0
	}

	sort.Slice(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp)
	})

	returns := make([]float64, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		prev := points[i-1].Price.InexactFloat64()
		cur := points[i].Price.InexactFloat64()
		if prev <= 0 || cur <= 0 {
			continue
		}
		returns = append(returns, math.Log(cur/prev))
	}
	if len(returns) < 1 {
		return 0
	}

	std := populationStdDev(returns)

	periodsPerYear := hoursPerYear / e.window.Hours()
	return std * math.Sqrt(periodsPerYear)
}

// RollingVolume sums the trade volume of history entries inside the
// window. Swap entries carry their input amount as Volume, so this
// re-windows a pool's Volume24h each time the owner of the canonical
// state refreshes it; without the re-window the figure only ever grows
// and the volume fee discount saturates permanently.
func (e *Estimator) RollingVolume(history []model.PricePoint, now time.Time) *big.Int {
	cutoff := now.Add(-e.window)
	total := new(big.Int)
	for _, p := range history {
		if p.Volume != nil && p.Timestamp.After(cutoff) {
			total.Add(total, p.Volume)
		}
	}
	return total
}

// Implied approximates implied volatility from price, strike, and time to
// expiry (in years):
//
//	iv = clamp(|ln(price/strike)| / sqrt(T) * 2.5, 0.01, 3.0)
//
// This is a Brenner–Subrahmanyam style initial guess, not an iterative
// Black–Scholes inversion; it trades accuracy for a closed form.
func Implied(price, strike decimal.Decimal, timeToExpiry float64) float64 {
	if price.LessThanOrEqual(decimal.Zero) || strike.LessThanOrEqual(decimal.Zero) || timeToExpiry <= 0 {
		return MinImpliedVol
	}
	moneyness := math.Abs(math.Log(price.InexactFloat64() / strike.InexactFloat64()))
	iv := moneyness / math.Sqrt(timeToExpiry) * 2.5
	return numutil.ClampFloat(iv, MinImpliedVol, MaxImpliedVol)
}

// populationStdDev computes the population (not sample) standard deviation.
func populationStdDev(xs []float64) float64 {
	n := float64(len(xs))
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean := sum / n

	var variance float64
	for _, x := range xs {
		d := x - mean
		variance += d * d
	}
	variance /= n
	return math.Sqrt(variance)
}
