package contract

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func d(f float64) decimal.Decimal {
	return decimal.NewFromFloat(f)
}

func TestParseTicker_Valid(t *testing.T) {
	c, err := ParseTicker("YN-CRYPTO-btc100k-20261231")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Category != CategoryCrypto {
		t.Errorf("expected category=CRYPTO, got %s", c.Category)
	}
	if c.Slug != "btc100k" {
		t.Errorf("expected slug=btc100k, got %s", c.Slug)
	}
	expected := time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC)
	if !c.ExpiryDate.Equal(expected) {
		t.Errorf("expected expiry=%v, got %v", expected, c.ExpiryDate)
	}
}

func TestParseTicker_UnderscoreSlug(t *testing.T) {
	c, err := ParseTicker("YN-POLITICS-senate_majority_2026-20261103")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Slug != "senate_majority_2026" {
		t.Errorf("expected slug=senate_majority_2026, got %s", c.Slug)
	}
}

func TestParseTicker_InvalidFormat(t *testing.T) {
	tests := []string{
		"",
		"INVALID",
		"YN-CRYPTO",
		"YN-CRYPTO-btc100k",
		"YN-CRYPTO-btc100k-notadate",
		"XX-CRYPTO-btc100k-20261231",  // wrong prefix
		"YN-CRYPTO-BTC100K-20261231",  // uppercase slug
		"YN-crypto-btc100k-20261231",  // lowercase category
		"YN-CRYPTO--20261231",         // empty slug
		"YN-CRYPTO-btc100k-2026123",   // short date
	}
	for _, ticker := range tests {
		_, err := ParseTicker(ticker)
		if err == nil {
			t.Errorf("expected error for ticker %q", ticker)
		}
	}
}

func TestParseTicker_InvalidCategory(t *testing.T) {
	_, err := ParseTicker("YN-MEMES-doge-20261231")
	if !errors.Is(err, ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestParseTicker_AllCategories(t *testing.T) {
	categories := []string{"POLITICS", "SPORTS", "CRYPTO", "WEATHER"}
	for _, cat := range categories {
		ticker := "YN-" + cat + "-somemarket-20261231"
		c, err := ParseTicker(ticker)
		if err != nil {
			t.Errorf("unexpected error for category %s: %v", cat, err)
		}
		if c.Category != cat {
			t.Errorf("expected category=%s, got %s", cat, c.Category)
		}
	}
}

func TestValidateOpen(t *testing.T) {
	c, err := ParseTicker("YN-SPORTS-finals_game7-20261001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Trading continues through the expiry day itself.
	during := time.Date(2026, 10, 1, 18, 0, 0, 0, time.UTC)
	if err := c.ValidateOpen(during); err != nil {
		t.Errorf("unexpected error on expiry day: %v", err)
	}

	after := time.Date(2026, 10, 2, 0, 0, 0, 0, time.UTC)
	if err := c.ValidateOpen(after); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired, got %v", err)
	}
}

func TestDeriveSeedDepth_WiderSpreadDeeperSeed(t *testing.T) {
	base := d(100)

	wide := ForecastDispersion{
		Percentile25: d(10),
		Percentile50: d(25),
		Percentile75: d(40),
	}
	narrow := ForecastDispersion{
		Percentile25: d(20),
		Percentile50: d(25),
		Percentile75: d(30),
	}

	dWide, err := DeriveSeedDepth(wide, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dNarrow, err := DeriveSeedDepth(narrow, base)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if dWide.LessThanOrEqual(dNarrow) {
		t.Errorf("wider spread should give deeper seed: wide=%s narrow=%s", dWide, dNarrow)
	}
}

func TestDeriveSeedDepth_ZeroMedian(t *testing.T) {
	f := ForecastDispersion{
		Percentile25: d(0),
		Percentile50: d(0),
		Percentile75: d(5),
	}
	depth, err := DeriveSeedDepth(f, d(100))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if depth.LessThanOrEqual(decimal.Zero) {
		t.Errorf("depth should be positive, got %s", depth)
	}
}

func TestDeriveSeedDepth_Minimum(t *testing.T) {
	f := ForecastDispersion{
		Percentile25: d(24.9),
		Percentile50: d(25),
		Percentile75: d(25.1),
	}
	depth, err := DeriveSeedDepth(f, d(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if depth.LessThan(d(10)) {
		t.Errorf("depth should be at least 10, got %s", depth)
	}
}
