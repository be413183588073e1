package realarith

import (
	"math/big"

	"github.com/roach88/constfold/internal/ir"
)

// ToFloat returns v as a big.Float of the given precision. NaNs have no
// big.Float representation and yield nil.
func ToFloat(v ir.RealValue, prec uint) *big.Float {
	x := new(big.Float).SetPrec(prec)
	switch v.Class {
	case ir.ClassNaN:
		return nil
	case ir.ClassInf:
		return x.SetInf(v.Negative)
	case ir.ClassZero:
		if v.Negative {
			x.Neg(x)
		}
		return x
	default:
		return x.SetRat(v.Rat())
	}
}

// FromFloat returns the exact value of x. A nil x is a quiet NaN.
func FromFloat(x *big.Float) ir.RealValue {
	switch {
	case x == nil:
		return ir.QNaN(false, nil)
	case x.IsInf():
		return ir.Inf(x.Signbit())
	case x.Sign() == 0:
		return ir.Zero(x.Signbit())
	default:
		r, _ := x.Rat(nil)
		return ir.FromRat(r, false)
	}
}

// BinaryExponentRange returns binary exponent bounds outside of which a
// big.Float certainly overflows or underflows to zero in f. Checking them
// before converting avoids materializing enormous rationals.
func BinaryExponentRange(f *ir.Format) (lo, hi int) {
	if f.Radix == 2 {
		return f.Emin - f.Precision - 1, f.Emax + 1
	}
	// log2(10) < 4
	return (f.Emin-f.Precision)*4 - 4, f.Emax*4 + 4
}
