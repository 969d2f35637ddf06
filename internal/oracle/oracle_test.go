package oracle

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func q(source string, price float64, at time.Time) Quote {
	return Quote{Source: source, Price: decimal.NewFromFloat(price), Timestamp: at}
}

func TestAggregateMedianOdd(t *testing.T) {
	now := time.Now()
	agg := NewAggregator(5 * time.Minute)

	snap, err := agg.Aggregate([]Quote{
		q("a", 0.51, now),
		q("b", 0.53, now),
		q("c", 0.52, now),
	}, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !snap.Price.Equal(decimal.NewFromFloat(0.52)) {
		t.Errorf("median = %s, want 0.52", snap.Price)
	}
	if snap.Stale {
		t.Error("all fresh quotes should not flag stale")
	}
	if snap.FreshSources != 3 {
		t.Errorf("fresh sources = %d, want 3", snap.FreshSources)
	}
}

func TestAggregateMedianEven(t *testing.T) {
	now := time.Now()
	agg := NewAggregator(5 * time.Minute)

	snap, err := agg.Aggregate([]Quote{
		q("a", 0.50, now),
		q("b", 0.54, now),
	}, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !snap.Price.Equal(decimal.NewFromFloat(0.52)) {
		t.Errorf("median = %s, want 0.52", snap.Price)
	}
}

func TestAggregateStaleFlagged(t *testing.T) {
	now := time.Now()
	agg := NewAggregator(5 * time.Minute)

	snap, err := agg.Aggregate([]Quote{
		q("fresh", 0.60, now),
		q("lagged", 0.10, now.Add(-time.Hour)),
	}, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !snap.Stale {
		t.Error("expected stale flag when a source lags")
	}
	// Lagged source excluded from the median.
	if !snap.Price.Equal(decimal.NewFromFloat(0.60)) {
		t.Errorf("median = %s, want 0.60", snap.Price)
	}
	if snap.FreshSources != 1 || snap.Sources != 2 {
		t.Errorf("got %d/%d sources, want 1/2", snap.FreshSources, snap.Sources)
	}
}

func TestAggregateAllStale(t *testing.T) {
	now := time.Now()
	agg := NewAggregator(5 * time.Minute)

	_, err := agg.Aggregate([]Quote{
		q("a", 0.50, now.Add(-time.Hour)),
		q("b", 0.55, now.Add(-2*time.Hour)),
	}, now)
	if !errors.Is(err, ErrNoFreshQuotes) {
		t.Errorf("err = %v, want ErrNoFreshQuotes", err)
	}
}

func TestAggregateEmpty(t *testing.T) {
	agg := NewAggregator(5 * time.Minute)
	if _, err := agg.Aggregate(nil, time.Now()); !errors.Is(err, ErrNoQuotes) {
		t.Errorf("err = %v, want ErrNoQuotes", err)
	}
}

func TestDefaultFreshness(t *testing.T) {
	now := time.Now()
	agg := NewAggregator(0)

	// 4 minutes old sits inside the 5 minute default.
	snap, err := agg.Aggregate([]Quote{q("a", 0.50, now.Add(-4 * time.Minute))}, now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if snap.Stale {
		t.Error("quote within default threshold flagged stale")
	}
}

func TestSimulatedSources(t *testing.T) {
	now := time.Now()
	agg := NewAggregator(5 * time.Minute)

	snap, err := agg.Aggregate(SimulatedSources(now), now)
	if err != nil {
		t.Fatalf("Aggregate: %v", err)
	}
	if !snap.Price.Equal(decimal.NewFromFloat(0.52)) {
		t.Errorf("simulated median = %s, want 0.52", snap.Price)
	}
}
