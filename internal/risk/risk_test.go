package risk

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/yesnofun/pricing-engine/internal/model"
)

func d(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestCheckLiquidation_ScenarioD(t *testing.T) {
	// margin=100, size=10, entry=1.0, current=0.8, maintenance rate=0.05
	// equity = 100 + 10*(0.8-1.0) = 98; requirement = 10*0.8*0.05 = 0.4
	eng := NewEngine(DefaultParameters())

	check, err := eng.CheckLiquidation(model.Position{
		Size:       d(10),
		EntryPrice: d(1.0),
		Margin:     d(100),
	}, d(0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if check.Liquidatable {
		t.Error("position with 98 equity vs 0.4 requirement must not be liquidatable")
	}
	if !check.Equity.Equal(d(98)) {
		t.Errorf("equity = %s, want 98", check.Equity)
	}
	if !check.MaintenanceRequirement.Equal(d(0.4)) {
		t.Errorf("requirement = %s, want 0.4", check.MaintenanceRequirement)
	}
}

func TestCheckLiquidation_Underwater(t *testing.T) {
	eng := NewEngine(DefaultParameters())

	// Thin margin wiped out by the price move.
	check, err := eng.CheckLiquidation(model.Position{
		Size:       d(100),
		EntryPrice: d(1.0),
		Margin:     d(5),
	}, d(0.9))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// equity = 5 + 100*(-0.1) = -5; requirement = 100*0.9*0.05 = 4.5
	if !check.Liquidatable {
		t.Error("underwater position should be liquidatable")
	}
}

func TestCheckLiquidation_ShortPosition(t *testing.T) {
	eng := NewEngine(DefaultParameters())

	// Short 50 at 0.5, price rises to 0.7: equity = 10 + (-50)*0.2 = 0.
	// Requirement uses |size|: 50*0.7*0.05 = 1.75 > 0 → liquidatable.
	check, err := eng.CheckLiquidation(model.Position{
		Size:       d(-50),
		EntryPrice: d(0.5),
		Margin:     d(10),
	}, d(0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !check.Liquidatable {
		t.Error("short squeezed past margin should be liquidatable")
	}
}

func TestCheckLiquidation_InvalidPrice(t *testing.T) {
	eng := NewEngine(DefaultParameters())
	if _, err := eng.CheckLiquidation(model.Position{}, d(0)); err != ErrInvalidPrice {
		t.Errorf("expected ErrInvalidPrice, got %v", err)
	}
}

func TestValueAtRisk_Formula(t *testing.T) {
	eng := NewEngine(DefaultParameters())

	v, err := eng.ValueAtRisk(d(10_000), 0.3, 1.0/365)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 10_000 * 0.3 * math.Sqrt(1.0/365) * 1.645
	if got := v.InexactFloat64(); math.Abs(got-want) > 1e-6 {
		t.Errorf("VaR = %f, want %f", got, want)
	}
}

func TestValueAtRisk_ConfidenceQuantiles(t *testing.T) {
	size, vol, horizon := d(1000), 0.5, 1.0

	p90 := DefaultParameters()
	p90.VaRConfidence = d(0.9)
	p99 := DefaultParameters()
	p99.VaRConfidence = d(0.99)

	low, _ := NewEngine(p90).ValueAtRisk(size, vol, horizon)
	mid, _ := NewEngine(DefaultParameters()).ValueAtRisk(size, vol, horizon)
	high, _ := NewEngine(p99).ValueAtRisk(size, vol, horizon)

	if !low.LessThan(mid) || !mid.LessThan(high) {
		t.Errorf("VaR should grow with confidence: %s < %s < %s", low, mid, high)
	}
}

func TestValueAtRisk_UnknownConfidenceFallsBack(t *testing.T) {
	odd := DefaultParameters()
	odd.VaRConfidence = d(0.97)

	got, _ := NewEngine(odd).ValueAtRisk(d(1000), 0.5, 1.0)
	want, _ := NewEngine(DefaultParameters()).ValueAtRisk(d(1000), 0.5, 1.0)
	if !got.Equal(want) {
		t.Errorf("unlisted confidence should use the 95%% quantile: %s vs %s", got, want)
	}
}

func TestValueAtRisk_ShortUsesAbsoluteSize(t *testing.T) {
	eng := NewEngine(DefaultParameters())
	long, _ := eng.ValueAtRisk(d(1000), 0.5, 1.0)
	short, _ := eng.ValueAtRisk(d(-1000), 0.5, 1.0)
	if !long.Equal(short) {
		t.Errorf("VaR must be direction-agnostic: long=%s short=%s", long, short)
	}
}

func TestValueAtRisk_InvalidHorizon(t *testing.T) {
	eng := NewEngine(DefaultParameters())
	if _, err := eng.ValueAtRisk(d(1000), 0.5, 0); err != ErrInvalidHorizon {
		t.Errorf("expected ErrInvalidHorizon, got %v", err)
	}
}

func TestFundingRate_PullsTowardIndex(t *testing.T) {
	eng := NewEngine(DefaultParameters())

	// Mark above index → longs pay → positive rate.
	rate, err := eng.FundingRate(d(0.52), d(0.50), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rate.IsPositive() {
		t.Errorf("mark > index should give positive rate, got %s", rate)
	}

	// premium = 0.04, /8 = 0.005 → exactly at the cap.
	if !rate.Equal(d(0.005)) {
		t.Errorf("rate = %s, want 0.005", rate)
	}

	// Mark below index → negative rate.
	rate, _ = eng.FundingRate(d(0.49), d(0.50), 8)
	if !rate.IsNegative() {
		t.Errorf("mark < index should give negative rate, got %s", rate)
	}
}

func TestFundingRate_Clamped(t *testing.T) {
	eng := NewEngine(DefaultParameters())

	rate, _ := eng.FundingRate(d(1.0), d(0.5), 1)
	if !rate.Equal(MaxFundingRate) {
		t.Errorf("rate should clamp to %s, got %s", MaxFundingRate, rate)
	}

	rate, _ = eng.FundingRate(d(0.1), d(0.5), 1)
	if !rate.Equal(MaxFundingRate.Neg()) {
		t.Errorf("rate should clamp to %s, got %s", MaxFundingRate.Neg(), rate)
	}
}

func TestFundingRate_BalancedMarketIsZero(t *testing.T) {
	eng := NewEngine(DefaultParameters())
	rate, _ := eng.FundingRate(d(0.5), d(0.5), 8)
	if !rate.IsZero() {
		t.Errorf("mark == index should give zero rate, got %s", rate)
	}
}

func TestFundingRate_InvalidInputs(t *testing.T) {
	eng := NewEngine(DefaultParameters())
	if _, err := eng.FundingRate(d(0.5), d(0), 8); err != ErrInvalidPrice {
		t.Errorf("zero index: expected ErrInvalidPrice, got %v", err)
	}
	if _, err := eng.FundingRate(d(0.5), d(0.5), 0); err != ErrInvalidInterval {
		t.Errorf("zero interval: expected ErrInvalidInterval, got %v", err)
	}
}
