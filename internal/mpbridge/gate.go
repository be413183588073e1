package mpbridge

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/realarith"
)

// Reasons the bridge or the gate refuses a result.
var (
	ErrFormat     = errors.New("format has no binary working precision")
	ErrArgument   = errors.New("argument is not finite")
	ErrNotNumber  = errors.New("result is not a finite number")
	ErrRange      = errors.New("result overflowed or underflowed")
	ErrInexact    = errors.New("result is inexact under rounding-math")
	ErrNotFinite  = errors.New("converted result is not finite")
	ErrHiddenZero = errors.New("conversion changed whether the result is zero")
	ErrRoundTrip  = errors.New("converted result does not round-trip")
)

// ComplexValue is a complex number as a pair of exact reals.
type ComplexValue struct {
	Re, Im ir.RealValue
}

// Mode returns the working rounding mode for results in f.
func Mode(f *ir.Format) big.RoundingMode {
	if f.RoundTowardsZero {
		return big.ToZero
	}
	return big.ToNearestEven
}

// Check certifies a real backend result for format f. The returned value
// is exactly representable in f and equal to the working value.
func Check(res Result, f *ir.Format, roundingMath bool) (ir.RealValue, error) {
	switch {
	case res.Overflow || res.Underflow:
		return ir.RealValue{}, ErrRange
	case res.Value == nil || res.Value.IsInf():
		return ir.RealValue{}, ErrNotNumber
	case roundingMath && res.Inexact:
		return ir.RealValue{}, ErrInexact
	}
	return certify(res.Value, f)
}

// CheckComplex certifies both parts of a complex backend result.
func CheckComplex(res ComplexResult, f *ir.Format, roundingMath bool) (ComplexValue, error) {
	re, im := res.Value.Re, res.Value.Im
	switch {
	case res.Overflow || res.Underflow:
		return ComplexValue{}, ErrRange
	case re == nil || im == nil || re.IsInf() || im.IsInf():
		return ComplexValue{}, ErrNotNumber
	case roundingMath && res.Inexact:
		return ComplexValue{}, ErrInexact
	}
	r, err := certify(re, f)
	if err != nil {
		return ComplexValue{}, fmt.Errorf("real part: %w", err)
	}
	i, err := certify(im, f)
	if err != nil {
		return ComplexValue{}, fmt.Errorf("imaginary part: %w", err)
	}
	return ComplexValue{Re: r, Im: i}, nil
}

func certify(v *big.Float, f *ir.Format) (ir.RealValue, error) {
	if v.Sign() != 0 {
		lo, hi := realarith.BinaryExponentRange(f)
		switch e := v.MantExp(nil); {
		case e > hi:
			return ir.RealValue{}, ErrNotFinite
		case e < lo:
			return ir.RealValue{}, ErrHiddenZero
		}
	}
	working := realarith.FromFloat(v)
	r, _ := f.RoundValue(working)
	switch {
	case !r.IsFinite():
		return ir.RealValue{}, ErrNotFinite
	case r.IsZero() != working.IsZero():
		return ir.RealValue{}, ErrHiddenZero
	case !r.Identical(working):
		return ir.RealValue{}, ErrRoundTrip
	}
	return r, nil
}

// EvalReal evaluates op on finite arguments in binary format f and
// certifies the result.
func EvalReal(be Backend, op Op, args []ir.RealValue, f *ir.Format, roundingMath bool) (ir.RealValue, error) {
	if f.Radix != 2 {
		return ir.RealValue{}, ErrFormat
	}
	prec := uint(f.Precision)
	xs := make([]*big.Float, len(args))
	for i, a := range args {
		if !a.IsFinite() {
			return ir.RealValue{}, ErrArgument
		}
		xs[i] = realarith.ToFloat(a, prec)
	}
	res, err := be.Real(op, xs, prec, Mode(f))
	if err != nil {
		return ir.RealValue{}, err
	}
	return Check(res, f, roundingMath)
}

// EvalComplex is EvalReal for complex functions.
func EvalComplex(be Backend, op Op, args []ComplexValue, f *ir.Format, roundingMath bool) (ComplexValue, error) {
	if f.Radix != 2 {
		return ComplexValue{}, ErrFormat
	}
	prec := uint(f.Precision)
	zs := make([]Complex, len(args))
	for i, a := range args {
		if !a.Re.IsFinite() || !a.Im.IsFinite() {
			return ComplexValue{}, ErrArgument
		}
		zs[i] = Complex{Re: realarith.ToFloat(a.Re, prec), Im: realarith.ToFloat(a.Im, prec)}
	}
	res, err := be.Complex(op, zs, prec, Mode(f))
	if err != nil {
		return ComplexValue{}, err
	}
	return CheckComplex(res, f, roundingMath)
}
