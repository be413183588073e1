package ir

import (
	"fmt"
	"math/big"
)

// RealClass is the value class of a floating-point value.
type RealClass uint8

const (
	ClassZero RealClass = iota
	ClassNormal
	ClassInf
	ClassNaN
)

func (c RealClass) String() string {
	switch c {
	case ClassZero:
		return "zero"
	case ClassNormal:
		return "normal"
	case ClassInf:
		return "inf"
	case ClassNaN:
		return "nan"
	default:
		return fmt.Sprintf("RealClass(%d)", uint8(c))
	}
}

// RealValue is an exact floating-point datum independent of its format.
//
// ClassNormal covers every finite nonzero value, subnormals included; Mag
// holds its magnitude exactly. NaNs carry a payload and a signaling bit.
// A RealValue is immutable: operations return new values and never modify
// the receiver's Mag or Payload.
type RealValue struct {
	Class     RealClass
	Negative  bool
	Signaling bool
	Payload   *big.Int
	Mag       *big.Rat
}

// Zero returns a signed zero.
func Zero(negative bool) RealValue {
	return RealValue{Class: ClassZero, Negative: negative}
}

// Inf returns a signed infinity.
func Inf(negative bool) RealValue {
	return RealValue{Class: ClassInf, Negative: negative}
}

// QNaN returns a quiet NaN with the given payload (nil for zero).
func QNaN(negative bool, payload *big.Int) RealValue {
	return RealValue{Class: ClassNaN, Negative: negative, Payload: payload}
}

// SNaN returns a signaling NaN with the given payload (nil for zero).
func SNaN(negative bool, payload *big.Int) RealValue {
	return RealValue{Class: ClassNaN, Negative: negative, Signaling: true, Payload: payload}
}

// FromRat returns the exact value x, which need not be representable in any
// format. A zero x yields a zero signed by negZero.
func FromRat(x *big.Rat, negZero bool) RealValue {
	switch x.Sign() {
	case 0:
		return Zero(negZero)
	case -1:
		return RealValue{Class: ClassNormal, Negative: true, Mag: new(big.Rat).Abs(x)}
	default:
		return RealValue{Class: ClassNormal, Mag: new(big.Rat).Set(x)}
	}
}

// FromInt64 returns the exact value n.
func FromInt64(n int64) RealValue {
	return FromRat(new(big.Rat).SetInt64(n), false)
}

func (v RealValue) IsZero() bool { return v.Class == ClassZero }

func (v RealValue) IsInf() bool { return v.Class == ClassInf }

func (v RealValue) IsNaN() bool { return v.Class == ClassNaN }

func (v RealValue) IsFinite() bool { return v.Class == ClassZero || v.Class == ClassNormal }

func (v RealValue) IsSignaling() bool { return v.Class == ClassNaN && v.Signaling }

// Rat returns the signed exact value of a finite v. Zeros yield 0.
func (v RealValue) Rat() *big.Rat {
	if v.Class != ClassNormal {
		return new(big.Rat)
	}
	r := new(big.Rat).Set(v.Mag)
	if v.Negative {
		r.Neg(r)
	}
	return r
}

// Neg flips the sign, including for zeros, infinities and NaNs.
func (v RealValue) Neg() RealValue {
	v.Negative = !v.Negative
	return v
}

// Abs clears the sign.
func (v RealValue) Abs() RealValue {
	v.Negative = false
	return v
}

// WithSign returns v with its sign set to negative.
func (v RealValue) WithSign(negative bool) RealValue {
	v.Negative = negative
	return v
}

// Quiet returns a NaN with the signaling bit cleared; other values are
// returned unchanged.
func (v RealValue) Quiet() RealValue {
	if v.Class == ClassNaN {
		v.Signaling = false
	}
	return v
}

// IsInteger reports whether v is a finite integral value.
func (v RealValue) IsInteger() bool {
	switch v.Class {
	case ClassZero:
		return true
	case ClassNormal:
		return v.Mag.IsInt()
	default:
		return false
	}
}

// Identical reports bitwise identity: class, sign, signaling bit, payload
// and value all agree. -0 and +0 are not identical.
func (v RealValue) Identical(w RealValue) bool {
	if v.Class != w.Class || v.Negative != w.Negative {
		return false
	}
	switch v.Class {
	case ClassNormal:
		return v.Mag.Cmp(w.Mag) == 0
	case ClassNaN:
		return v.Signaling == w.Signaling && payloadCmp(v.Payload, w.Payload) == 0
	default:
		return true
	}
}

// Equal is the floating-point == relation: NaNs compare unequal to
// everything and the two zeros compare equal.
func (v RealValue) Equal(w RealValue) bool {
	if v.IsNaN() || w.IsNaN() {
		return false
	}
	return v.Cmp(w) == 0
}

// Cmp orders two non-NaN values, with -0 == +0. It panics on NaN.
func (v RealValue) Cmp(w RealValue) int {
	if v.IsNaN() || w.IsNaN() {
		panic("ir: Cmp on NaN")
	}
	rank := func(x RealValue) int {
		if x.Class == ClassInf {
			if x.Negative {
				return -1
			}
			return 1
		}
		return 0
	}
	rv, rw := rank(v), rank(w)
	if rv != rw {
		if rv < rw {
			return -1
		}
		return 1
	}
	if rv != 0 {
		return 0
	}
	return v.Rat().Cmp(w.Rat())
}

func payloadCmp(a, b *big.Int) int {
	if a == nil {
		a = new(big.Int)
	}
	if b == nil {
		b = new(big.Int)
	}
	return a.Cmp(b)
}

func (v RealValue) String() string {
	switch v.Class {
	case ClassZero:
		if v.Negative {
			return "-0"
		}
		return "0"
	case ClassInf:
		if v.Negative {
			return "-inf"
		}
		return "inf"
	case ClassNaN:
		s := "nan"
		if v.Signaling {
			s = "snan"
		}
		if v.Payload != nil && v.Payload.Sign() != 0 {
			s += fmt.Sprintf("(0x%x)", v.Payload)
		}
		if v.Negative {
			s = "-" + s
		}
		return s
	default:
		return v.Rat().RatString()
	}
}
