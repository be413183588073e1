package realarith

import (
	"math/big"

	"github.com/roach88/constfold/internal/ir"
)

// Ldexp returns v × 2^n exactly, without rounding into any format.
// NaNs, infinities and zeros are returned unchanged.
func Ldexp(v ir.RealValue, n int64) ir.RealValue {
	if v.Class != ir.ClassNormal {
		return v
	}
	scale := ir.RatPow(2, int(n))
	return ir.FromRat(new(big.Rat).Mul(v.Rat(), scale), v.Negative)
}

// NextAfter returns the value adjacent to x in the direction of y in
// format f. raised reports that the step overflowed to infinity or landed
// on zero or a subnormal, which at run time raises an exception and may
// set errno.
//
// f must be a binary format with infinities and denormals.
func NextAfter(x, y ir.RealValue, f *ir.Format) (r ir.RealValue, raised bool) {
	if x.IsNaN() || y.IsNaN() {
		return ir.QNaN(false, nil), false
	}
	cmp := x.Cmp(y)
	if cmp == 0 {
		r, _ := f.RoundValue(y)
		return r, false
	}
	switch x.Class {
	case ir.ClassZero:
		return f.MinSubnormal(y.Negative), false
	case ir.ClassInf:
		return f.MaxFinite(x.Negative), false
	}

	e := max(f.Exponent(x), f.Emin)
	ulp := ir.RatPow(f.Radix, e-f.Precision)
	mag := new(big.Rat).Set(x.Mag)

	away := (cmp < 0) != x.Negative
	if away {
		mag.Add(mag, ulp)
		if mag.Cmp(f.MaxFinite(false).Mag) > 0 {
			return ir.Inf(x.Negative), true
		}
	} else {
		// Stepping down from an exact power of the radix crosses into the
		// binade below, whose spacing is one radix digit finer.
		if f.Exponent(x) > f.Emin && mag.Cmp(ir.RatPow(f.Radix, f.Exponent(x)-1)) == 0 {
			ulp.Quo(ulp, big.NewRat(int64(f.Radix), 1))
		}
		mag.Sub(mag, ulp)
		if mag.Sign() == 0 {
			return ir.Zero(x.Negative), true
		}
	}
	r = ir.RealValue{Class: ir.ClassNormal, Negative: x.Negative, Mag: mag}
	return r, f.IsSubnormal(r)
}

// Powi returns x^n the way the compiler's own real arithmetic evaluates
// it: repeated squaring at 160 bits, then a single rounding into f. inexact
// reports whether any step lost precision.
func Powi(x ir.RealValue, n int64, f *ir.Format) (r ir.RealValue, inexact bool) {
	if n == 0 {
		return ir.FromInt64(1), false
	}
	odd := n%2 != 0
	switch x.Class {
	case ir.ClassNaN:
		return x.Quiet(), false
	case ir.ClassZero, ir.ClassInf:
		neg := x.Negative && odd
		if (x.Class == ir.ClassZero) == (n > 0) {
			return ir.Zero(neg), false
		}
		return ir.Inf(neg), false
	}

	const workPrec = 160
	base := ToFloat(x, workPrec)
	acc := new(big.Float).SetPrec(workPrec).SetInt64(1)
	k := n
	if k < 0 {
		k = -k
	}
	for k > 0 {
		if k&1 == 1 {
			acc.Mul(acc, base)
			inexact = inexact || acc.Acc() != big.Exact
		}
		k >>= 1
		if k > 0 {
			base.Mul(base, base)
			inexact = inexact || base.Acc() != big.Exact
		}
	}
	if n < 0 {
		one := new(big.Float).SetPrec(workPrec).SetInt64(1)
		acc.Quo(one, acc)
		inexact = inexact || acc.Acc() != big.Exact
	}
	if acc.IsInf() {
		return ir.Inf(acc.Signbit()), true
	}
	lo, hi := BinaryExponentRange(f)
	if exp := acc.MantExp(nil); exp > hi {
		return ir.Inf(acc.Signbit()), true
	} else if exp < lo {
		return ir.Zero(acc.Signbit()), true
	}
	r, cond := f.RoundValue(FromFloat(acc))
	return r, inexact || cond.Has(ir.CondInexact)
}
