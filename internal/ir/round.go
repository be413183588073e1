package ir

import (
	"math"
	"math/big"
)

// RoundingMode selects how inexact values are rounded into a format.
type RoundingMode uint8

const (
	RoundNearestEven RoundingMode = iota
	RoundTowardZero
)

// Condition is a set of floating-point exception conditions raised while
// rounding.
type Condition uint8

const (
	CondInexact Condition = 1 << iota
	CondOverflow
	CondUnderflow
)

// Has reports whether all conditions in c2 are set in c.
func (c Condition) Has(c2 Condition) bool { return c&c2 == c2 }

// Mode returns the rounding mode the format mandates for folding.
func (f *Format) Mode() RoundingMode {
	if f.RoundTowardsZero {
		return RoundTowardZero
	}
	return RoundNearestEven
}

// Round rounds x into f using the format's own rounding mode.
func (f *Format) Round(x *big.Rat, negZero bool) (RealValue, Condition) {
	return f.RoundMode(x, negZero, f.Mode())
}

// RoundValue rounds an exact finite value into f. Infinities and NaNs are
// returned unchanged.
func (f *Format) RoundValue(v RealValue) (RealValue, Condition) {
	if !v.IsFinite() {
		return v, 0
	}
	return f.Round(v.Rat(), v.Negative)
}

// RoundMode rounds x into f with the given mode. Results below the normal
// range become subnormal when the format has denormals and flush to zero
// otherwise. Results above the range become infinite, or the largest finite
// value when rounding toward zero.
func (f *Format) RoundMode(x *big.Rat, negZero bool, mode RoundingMode) (RealValue, Condition) {
	if x.Sign() == 0 {
		return Zero(negZero), 0
	}
	neg := x.Sign() < 0
	a := new(big.Rat).Abs(x)

	e := ilog(a, f.Radix)
	if !f.HasDenorm && e < f.Emin {
		return Zero(neg), CondInexact | CondUnderflow
	}

	qexp := e
	if qexp < f.Emin {
		qexp = f.Emin
	}
	qexp -= f.Precision

	// n = a / radix^qexp, rounded to an integer.
	scaled := new(big.Rat).Mul(a, RatPow(f.Radix, -qexp))
	n, rem := new(big.Int).QuoRem(scaled.Num(), scaled.Denom(), new(big.Int))
	var cond Condition
	if rem.Sign() != 0 {
		cond |= CondInexact
		if mode == RoundNearestEven {
			// Compare 2*rem with the denominator.
			twice := new(big.Int).Lsh(rem, 1)
			switch twice.Cmp(scaled.Denom()) {
			case 1:
				n.Add(n, big.NewInt(1))
			case 0:
				if n.Bit(0) == 1 {
					n.Add(n, big.NewInt(1))
				}
			}
		}
		if e < f.Emin {
			cond |= CondUnderflow
		}
	}

	if n.Sign() == 0 {
		return Zero(neg), cond | CondUnderflow
	}

	r := new(big.Rat).Mul(new(big.Rat).SetInt(n), RatPow(f.Radix, qexp))
	if ilog(r, f.Radix) > f.Emax {
		cond |= CondOverflow | CondInexact
		if mode == RoundTowardZero || !f.HasInf {
			return f.MaxFinite(neg), cond
		}
		return Inf(neg), cond
	}
	if !f.HasDenorm && ilog(r, f.Radix) < f.Emin {
		return Zero(neg), cond | CondInexact | CondUnderflow
	}
	return RealValue{Class: ClassNormal, Negative: neg, Mag: r}, cond
}

// MaxFinite returns the largest finite value of f with the given sign.
func (f *Format) MaxFinite(negative bool) RealValue {
	n := new(big.Int).Exp(big.NewInt(int64(f.Radix)), big.NewInt(int64(f.Precision)), nil)
	n.Sub(n, big.NewInt(1))
	m := new(big.Rat).Mul(new(big.Rat).SetInt(n), RatPow(f.Radix, f.Emax-f.Precision))
	return RealValue{Class: ClassNormal, Negative: negative, Mag: m}
}

// MinNormal returns the smallest positive normal value of f.
func (f *Format) MinNormal(negative bool) RealValue {
	return RealValue{Class: ClassNormal, Negative: negative, Mag: RatPow(f.Radix, f.Emin-1)}
}

// MinSubnormal returns the smallest positive subnormal value of f.
func (f *Format) MinSubnormal(negative bool) RealValue {
	return RealValue{Class: ClassNormal, Negative: negative, Mag: RatPow(f.Radix, f.Emin-f.Precision)}
}

// Exponent returns e such that Radix^(e-1) <= |v| < Radix^e for a normal v.
func (f *Format) Exponent(v RealValue) int {
	return ilog(v.Mag, f.Radix)
}

// BinaryExponent returns e such that 2^(e-1) <= |v| < 2^e for a normal v.
func BinaryExponent(v RealValue) int {
	return ilog(v.Mag, 2)
}

// IsSubnormal reports whether v is a nonzero finite value below the normal
// range of f.
func (f *Format) IsSubnormal(v RealValue) bool {
	return v.Class == ClassNormal && f.Exponent(v) < f.Emin
}

// Representable reports whether v is exactly representable in f.
func (f *Format) Representable(v RealValue) bool {
	switch v.Class {
	case ClassInf:
		return f.HasInf
	case ClassNaN:
		return f.HasNaN
	case ClassZero:
		return true
	}
	r, cond := f.RoundMode(v.Rat(), v.Negative, RoundNearestEven)
	return cond == 0 && r.Identical(v)
}

// ilog returns e with b^(e-1) <= a < b^e for a > 0.
func ilog(a *big.Rat, b int) int {
	bits := a.Num().BitLen() - a.Denom().BitLen()
	e := bits
	if b != 2 {
		e = int(math.Floor(float64(bits) * math.Ln2 / math.Log(float64(b))))
	}
	for RatPow(b, e).Cmp(a) <= 0 {
		e++
	}
	for RatPow(b, e-1).Cmp(a) > 0 {
		e--
	}
	return e
}

// RatPow returns b^k exactly for any integer k.
func RatPow(b, k int) *big.Rat {
	if k >= 0 {
		return new(big.Rat).SetInt(new(big.Int).Exp(big.NewInt(int64(b)), big.NewInt(int64(k)), nil))
	}
	d := new(big.Int).Exp(big.NewInt(int64(b)), big.NewInt(int64(-k)), nil)
	return new(big.Rat).SetFrac(big.NewInt(1), d)
}
