package kelly

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMultiBet_UncorrelatedMatchesSingle(t *testing.T) {
	s := DefaultSizer()

	batch, err := s.MultiBet([]BetInput{
		{Probability: d(0.6), Odds: d(1), Correlation: decimal.Zero},
	}, bi(10_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	single, _ := s.SingleBet(d(0.6), d(1), d(1), bi(10_000))
	if !batch.Fractions[0].Equal(single.FinalFraction) {
		t.Errorf("uncorrelated single-leg batch = %s, want %s",
			batch.Fractions[0], single.FinalFraction)
	}
	if batch.BetSizes[0].Cmp(single.BetSize) != 0 {
		t.Errorf("batch bet = %s, want %s", batch.BetSizes[0], single.BetSize)
	}
}

func TestMultiBet_CorrelationPenalty(t *testing.T) {
	s := DefaultSizer()

	// Full correlation halves the fraction: f*(1 - 1*0.5).
	batch, err := s.MultiBet([]BetInput{
		{Probability: d(0.6), Odds: d(1), Correlation: d(1)},
	}, bi(10_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !batch.Fractions[0].Equal(d(0.025)) {
		t.Errorf("fully correlated fraction = %s, want 0.025", batch.Fractions[0])
	}
}

func TestMultiBet_CapRescalesDown(t *testing.T) {
	s := DefaultSizer()

	// Five strong uncorrelated edges: each 0.05, sum 0.25 > cap 0.10.
	bets := make([]BetInput, 5)
	for i := range bets {
		bets[i] = BetInput{Probability: d(0.6), Odds: d(1), Correlation: decimal.Zero}
	}

	batch, err := s.MultiBet(bets, bi(100_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !batch.Rescaled {
		t.Error("batch above cap should report rescaling")
	}
	if batch.TotalFraction.GreaterThan(s.MaxPosition()) {
		t.Errorf("total fraction %s exceeds cap %s", batch.TotalFraction, s.MaxPosition())
	}

	// Uniform rescale preserves equality among identical legs.
	for i := 1; i < len(batch.Fractions); i++ {
		if !batch.Fractions[i].Equal(batch.Fractions[0]) {
			t.Errorf("legs diverged after rescale: %s vs %s",
				batch.Fractions[i], batch.Fractions[0])
		}
	}
}

func TestMultiBet_RescaleRoundsTowardZero(t *testing.T) {
	s := DefaultSizer()

	// Three 0.05 legs total 0.15; scale 0.1/0.15 truncates to
	// 0.66666666, so each leg lands at 0.03333333 and the sum stays
	// strictly under the cap instead of rounding half-up past it.
	bets := make([]BetInput, 3)
	for i := range bets {
		bets[i] = BetInput{Probability: d(0.6), Odds: d(1), Correlation: decimal.Zero}
	}

	batch, err := s.MultiBet(bets, bi(100_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, f := range batch.Fractions {
		if !f.Equal(d(0.03333333)) {
			t.Errorf("leg %d fraction = %s, want 0.03333333", i, f)
		}
	}
	if !batch.TotalFraction.Equal(d(0.09999999)) {
		t.Errorf("total fraction = %s, want 0.09999999", batch.TotalFraction)
	}
	if batch.TotalFraction.GreaterThan(s.MaxPosition()) {
		t.Errorf("total fraction %s exceeds cap %s", batch.TotalFraction, s.MaxPosition())
	}
}

func TestMultiBet_NeverRescalesUp(t *testing.T) {
	s := DefaultSizer()

	// Tiny edges: sum well under the cap — must stay untouched.
	batch, err := s.MultiBet([]BetInput{
		{Probability: d(0.51), Odds: d(1), Correlation: decimal.Zero},
		{Probability: d(0.52), Odds: d(1), Correlation: decimal.Zero},
	}, bi(100_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if batch.Rescaled {
		t.Error("batch under cap must not be rescaled")
	}
	if !batch.Fractions[0].Equal(d(0.005)) {
		t.Errorf("leg 0 fraction = %s, want 0.005", batch.Fractions[0])
	}
}

func TestMultiBet_NegativeEdgeLegsZeroed(t *testing.T) {
	s := DefaultSizer()

	batch, err := s.MultiBet([]BetInput{
		{Probability: d(0.3), Odds: d(1), Correlation: decimal.Zero}, // negative edge
		{Probability: d(0.6), Odds: d(1), Correlation: decimal.Zero},
	}, bi(10_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !batch.Fractions[0].IsZero() {
		t.Errorf("negative-edge leg should be zero, got %s", batch.Fractions[0])
	}
	if batch.Fractions[1].IsZero() {
		t.Error("positive-edge leg should survive")
	}
}

func TestMultiBet_InvalidLegRejectsBatch(t *testing.T) {
	s := DefaultSizer()

	if _, err := s.MultiBet([]BetInput{
		{Probability: d(0.6), Odds: d(1)},
		{Probability: d(1.2), Odds: d(1)},
	}, bi(10_000)); err != ErrInvalidProbability {
		t.Errorf("expected ErrInvalidProbability, got %v", err)
	}

	if _, err := s.MultiBet([]BetInput{
		{Probability: d(0.6), Odds: d(0)},
	}, bi(10_000)); err != ErrInvalidOdds {
		t.Errorf("expected ErrInvalidOdds, got %v", err)
	}
}

func TestMultiBet_EmptyBatch(t *testing.T) {
	s := DefaultSizer()
	batch, err := s.MultiBet(nil, bi(10_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(batch.Fractions) != 0 || !batch.TotalFraction.IsZero() {
		t.Errorf("empty batch should size to nothing, got %v", batch)
	}
}

func TestMultiBet_CorrelationClamped(t *testing.T) {
	s := DefaultSizer()

	// Correlation above 1 behaves as 1; below 0 behaves as 0.
	over, err := s.MultiBet([]BetInput{
		{Probability: d(0.6), Odds: d(1), Correlation: d(3)},
	}, bi(10_000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exact, _ := s.MultiBet([]BetInput{
		{Probability: d(0.6), Odds: d(1), Correlation: d(1)},
	}, bi(10_000))
	if !over.Fractions[0].Equal(exact.Fractions[0]) {
		t.Errorf("correlation>1 should clamp: %s vs %s", over.Fractions[0], exact.Fractions[0])
	}
}
