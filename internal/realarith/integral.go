package realarith

import (
	"math/big"

	"github.com/roach88/constfold/internal/ir"
)

// RoundFunc selects one of the round-to-integer operations.
type RoundFunc uint8

const (
	Floor RoundFunc = iota
	Ceil
	Trunc
	// Round rounds halfway cases away from zero.
	Round
	// RoundEven rounds halfway cases to even.
	RoundEven
)

// ToIntegral rounds v to an integer value in format f. NaNs, infinities and
// zeros are returned unchanged. A zero result keeps the sign of v, so
// ceil(-0.5) is -0.
func ToIntegral(fn RoundFunc, v ir.RealValue, f *ir.Format) ir.RealValue {
	if v.Class != ir.ClassNormal {
		return v
	}
	x := v.Rat()
	num, den := x.Num(), x.Denom()

	// Floor division: q = floor(x), rem = x - q in [0, 1).
	q, m := new(big.Int).DivMod(num, den, new(big.Int))
	frac := new(big.Rat).SetFrac(m, den)
	half := big.NewRat(1, 2)

	switch fn {
	case Floor:
	case Ceil:
		if m.Sign() != 0 {
			q.Add(q, big.NewInt(1))
		}
	case Trunc:
		if m.Sign() != 0 && v.Negative {
			q.Add(q, big.NewInt(1))
		}
	case Round:
		c := frac.Cmp(half)
		if c > 0 || (c == 0 && !v.Negative) {
			q.Add(q, big.NewInt(1))
		}
	case RoundEven:
		c := frac.Cmp(half)
		if c > 0 || (c == 0 && q.Bit(0) == 1) {
			q.Add(q, big.NewInt(1))
		}
	default:
		panic("realarith: unknown rounding function")
	}

	r, _ := f.Round(new(big.Rat).SetInt(q), v.Negative)
	return r
}
