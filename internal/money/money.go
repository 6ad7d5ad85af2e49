// Package money carries prices as integer minor units (pence) so that every
// fee, discount and cap is exact to the penny. Ratios are expressed in basis
// points: 10000 bps is a factor of 1.0, 1000 bps is 10%.
package money

import (
	"errors"
	"fmt"
	"math"
)

// ErrOverflow means a calculation left the range of an Amount.
var ErrOverflow = errors.New("amount out of range")

// BpsScale is the number of basis points in a factor of 1.0.
const BpsScale = 10000

// Amount is a quantity of money in minor units (pence for GBP).
type Amount int64

// FromMajor converts a major-unit value such as 128.00 into an Amount,
// rounding half away from zero to the nearest penny.
func FromMajor(v float64) Amount {
	return Amount(math.Round(v * 100))
}

// Major returns the amount in major units. Use only for display.
func (a Amount) Major() float64 {
	return float64(a) / 100
}

// MulBps returns a × bps / 10000 rounded half-up to the nearest penny.
// Negative amounts round half away from zero.
func (a Amount) MulBps(bps int64) Amount {
	if a < 0 {
		return -(-a).MulBps(bps)
	}
	return Amount((int64(a)*bps + BpsScale/2) / BpsScale)
}

// Times returns a × n, or ErrOverflow when the product does not fit.
func (a Amount) Times(n int64) (Amount, error) {
	if a == 0 || n == 0 {
		return 0, nil
	}
	p := int64(a) * n
	if p/n != int64(a) || (int64(a) == -1 && n == math.MinInt64) || (n == -1 && int64(a) == math.MinInt64) {
		return 0, ErrOverflow
	}
	return Amount(p), nil
}

// Plus returns a + b, or ErrOverflow when the sum does not fit.
func (a Amount) Plus(b Amount) (Amount, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, ErrOverflow
	}
	return s, nil
}

// CheckedMulBps is MulBps that reports ErrOverflow instead of wrapping.
func (a Amount) CheckedMulBps(bps int64) (Amount, error) {
	if a < 0 {
		r, err := (-a).CheckedMulBps(bps)
		return -r, err
	}
	if bps < 0 || (bps > 0 && int64(a) > (math.MaxInt64-BpsScale/2)/bps) {
		return 0, ErrOverflow
	}
	return a.MulBps(bps), nil
}

// MulBpsFloor returns a × bps / 10000 rounded down to the whole penny, for
// ceilings that must never be exceeded.  It reports ErrOverflow instead of
// wrapping.
func (a Amount) MulBpsFloor(bps int64) (Amount, error) {
	if a < 0 || bps < 0 {
		return 0, ErrOverflow
	}
	if bps > 0 && int64(a) > math.MaxInt64/bps {
		return 0, ErrOverflow
	}
	return Amount(int64(a) * bps / BpsScale), nil
}

// String renders the amount with two decimals, e.g. "563.20".
func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// RatioToBps converts a real factor (1.10, 2.0, 0.07) into basis points.
func RatioToBps(r float64) int64 {
	return int64(math.Round(r * BpsScale))
}

// BpsToRatio is the inverse of RatioToBps.
func BpsToRatio(bps int64) float64 {
	return float64(bps) / BpsScale
}
