// Package numutil provides exact arithmetic helpers over arbitrary-precision
// non-negative integers. Rounding here must be deterministic and
// reproducible: Isqrt floors, Quo truncates toward zero.
package numutil

import (
	"errors"
	"math/big"

	"github.com/shopspring/decimal"
)

// ErrNegativeInput is returned by Isqrt for negative arguments.
var ErrNegativeInput = errors.New("numutil: negative input")

// Isqrt returns the floor of the square root of x as a new integer.
func Isqrt(x *big.Int) (*big.Int, error) {
	if x.Sign() < 0 {
		return nil, ErrNegativeInput
	}
	return new(big.Int).Sqrt(x), nil
}

// Min returns the smaller of a and b as a new integer.
func Min(a, b *big.Int) *big.Int {
	if a.Cmp(b) <= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// Max returns the larger of a and b as a new integer.
func Max(a, b *big.Int) *big.Int {
	if a.Cmp(b) >= 0 {
		return new(big.Int).Set(a)
	}
	return new(big.Int).Set(b)
}

// Abs returns |x| as a new integer.
func Abs(x *big.Int) *big.Int {
	return new(big.Int).Abs(x)
}

// MulDiv returns floor(a*b/d). Panics on d == 0 like big.Int division;
// callers must validate the denominator first.
func MulDiv(a, b, d *big.Int) *big.Int {
	n := new(big.Int).Mul(a, b)
	return n.Quo(n, d)
}

// MulDivCeil returns ceil(a*b/d) for non-negative a, b and positive d.
func MulDivCeil(a, b, d *big.Int) *big.Int {
	n := new(big.Int).Mul(a, b)
	n.Add(n, new(big.Int).Sub(d, big.NewInt(1)))
	return n.Quo(n, d)
}

// ClampDecimal bounds v to [lo, hi].
func ClampDecimal(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// ClampFloat bounds v to [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
