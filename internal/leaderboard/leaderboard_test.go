package leaderboard

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func record(t *testing.T, b *Board, name string, forecast float64, resolved bool) {
	t.Helper()
	if err := b.Record(name, decimal.NewFromFloat(forecast), resolved); err != nil {
		t.Fatalf("Record(%s, %v, %v): %v", name, forecast, resolved, err)
	}
}

func TestScoreSingleForecast(t *testing.T) {
	b := NewBoard()
	record(t, b, "alice", 0.8, true)

	entry, err := b.Score("alice")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	// (0.8 - 1)^2 = 0.04
	if !entry.Brier.Equal(decimal.NewFromFloat(0.04)) {
		t.Errorf("brier = %s, want 0.04", entry.Brier)
	}
	if !entry.Skill.Equal(decimal.NewFromFloat(0.96)) {
		t.Errorf("skill = %s, want 0.96", entry.Skill)
	}
}

func TestScoreMeanOverOutcomes(t *testing.T) {
	b := NewBoard()
	record(t, b, "bob", 0.9, true)  // 0.01
	record(t, b, "bob", 0.9, false) // 0.81

	entry, err := b.Score("bob")
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if !entry.Brier.Equal(decimal.NewFromFloat(0.41)) {
		t.Errorf("brier = %s, want 0.41", entry.Brier)
	}
	if entry.Resolved != 2 {
		t.Errorf("resolved = %d, want 2", entry.Resolved)
	}
}

func TestScoreUnknown(t *testing.T) {
	b := NewBoard()
	if _, err := b.Score("ghost"); !errors.Is(err, ErrUnknownForecaster) {
		t.Errorf("err = %v, want ErrUnknownForecaster", err)
	}
}

func TestRecordInvalidProbability(t *testing.T) {
	b := NewBoard()
	for _, p := range []float64{0, 1, -0.2, 1.5} {
		if err := b.Record("x", decimal.NewFromFloat(p), true); !errors.Is(err, ErrInvalidProbability) {
			t.Errorf("Record(p=%v) err = %v, want ErrInvalidProbability", p, err)
		}
	}
}

func TestRankingsOrderAndThreshold(t *testing.T) {
	b := NewBoard()

	// Sharp forecaster: confident and right.
	for i := 0; i < 4; i++ {
		record(t, b, "sharp", 0.9, true)
	}
	// Hedger: always 50/50.
	for i := 0; i < 4; i++ {
		record(t, b, "hedger", 0.5, i%2 == 0)
	}
	// Contrarian: confident and wrong.
	for i := 0; i < 4; i++ {
		record(t, b, "contrarian", 0.9, false)
	}
	// Too few resolutions to be ranked.
	record(t, b, "newcomer", 0.8, true)

	rankings := b.Rankings()
	if len(rankings) != 3 {
		t.Fatalf("rankings length = %d, want 3", len(rankings))
	}
	want := []string{"sharp", "hedger", "contrarian"}
	for i, name := range want {
		if rankings[i].Forecaster != name {
			t.Errorf("rank %d = %s, want %s", i, rankings[i].Forecaster, name)
		}
	}
	for i := 1; i < len(rankings); i++ {
		if rankings[i].Skill.GreaterThan(rankings[i-1].Skill) {
			t.Errorf("rankings not ordered by skill at %d", i)
		}
	}
}

func TestRankingsTieBreakAlphabetical(t *testing.T) {
	b := NewBoard()
	for i := 0; i < 3; i++ {
		record(t, b, "zed", 0.7, true)
		record(t, b, "amy", 0.7, true)
	}

	rankings := b.Rankings()
	if len(rankings) != 2 {
		t.Fatalf("rankings length = %d, want 2", len(rankings))
	}
	if rankings[0].Forecaster != "amy" || rankings[1].Forecaster != "zed" {
		t.Errorf("tie break order = %s, %s; want amy, zed",
			rankings[0].Forecaster, rankings[1].Forecaster)
	}
}
