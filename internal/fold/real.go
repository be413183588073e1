package fold

import (
	"math/big"

	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/mpbridge"
	"github.com/roach88/constfold/internal/realarith"
)

// bridge evaluates op on finite binary arguments and certifies the result.
func (f *Folder) bridge(op mpbridge.Op, fm *ir.Format, args ...ir.RealValue) (ir.RealValue, error) {
	v, err := mpbridge.EvalReal(f.backend, op, args, fm, f.flags.RoundingMath)
	if err != nil {
		return ir.RealValue{}, bridgeDecline(op, err)
	}
	return v, nil
}

// generic runs the table entry's domain guard and then the bridge.
func (f *Folder) generic(c *call, fm *ir.Format, args ...ir.RealValue) (ir.RealValue, error) {
	if g := c.spec.guard; g != nil && !g(args) {
		return ir.RealValue{}, decline(classDomain, "argument of %s outside its domain", c.fn)
	}
	return f.bridge(c.spec.op, fm, args...)
}

func (f *Folder) foldRealToReal(c *call) (ir.Constant, error) {
	if c.spec.family != familyRealToReal || c.spec.op == "" {
		c.unhandled("real")
	}
	fm, err := c.realResult(0)
	if err != nil {
		return nil, err
	}
	v, err := f.generic(c, fm, c.ops[0].real())
	if err != nil {
		return nil, err
	}
	return ir.NewReal(c.result, v), nil
}

func (f *Folder) foldRealReal(c *call) (ir.Constant, error) {
	positions := []int{0, 1}
	if c.fn == Nexttoward {
		// The direction may be given in a wider format.
		positions = positions[:1]
	}
	fm, err := c.realResult(positions...)
	if err != nil {
		return nil, err
	}
	x, y := c.ops[0].real(), c.ops[1].real()

	var v ir.RealValue
	switch c.fn {
	case Remainder, Atan2, Atan2pi, Fdim, Fmod, Hypot, Fmin, Fmax:
		v, err = f.generic(c, fm, x, y)
	case Copysign:
		v = x.WithSign(y.Negative)
	case Pow:
		v, err = f.pow(c, fm, x, y)
	case Nextafter, Nexttoward:
		v, err = f.nextAfter(fm, x, y)
	default:
		c.unhandled("real,real")
	}
	if err != nil {
		return nil, err
	}
	return ir.NewReal(c.result, v), nil
}

// pow tries the backend and falls back to repeated multiplication for an
// integral exponent.
func (f *Folder) pow(c *call, fm *ir.Format, x, y ir.RealValue) (ir.RealValue, error) {
	v, err := f.generic(c, fm, x, y)
	if err == nil {
		return v, nil
	}
	n, ok := integralExponent(y)
	if !ok {
		return ir.RealValue{}, err
	}
	// 0^-n divides by zero at run time.
	if n <= 0 && (f.flags.TrappingMath || f.flags.ErrnoMath) && x.Equal(ir.Zero(false)) {
		return ir.RealValue{}, decline(classSideEffect, "pow(0, %d) raises divide-by-zero", n)
	}
	r, inexact := realarith.Powi(x, n, fm)
	if f.flags.UnsafeMathOptimizations || (!inexact && !(f.flags.SignalingNaNs && x.IsSignaling())) {
		return r, nil
	}
	if inexact {
		return ir.RealValue{}, decline(classPrecision, "pow(%s, %d) is inexact", x, n)
	}
	return ir.RealValue{}, decline(classSideEffect, "pow of a signaling NaN")
}

// integralExponent returns y as an int64 when it is bitwise identical to
// that integer converted back; -0 does not qualify.
func integralExponent(y ir.RealValue) (int64, bool) {
	switch y.Class {
	case ir.ClassZero:
		return 0, !y.Negative
	case ir.ClassNormal:
		if !y.Mag.IsInt() || !y.Mag.Num().IsInt64() {
			return 0, false
		}
		n := y.Mag.Num().Int64()
		if y.Negative {
			n = -n
		}
		return n, true
	}
	return 0, false
}

func (f *Folder) nextAfter(fm *ir.Format, x, y ir.RealValue) (ir.RealValue, error) {
	if x.IsSignaling() || y.IsSignaling() {
		return ir.RealValue{}, decline(classSideEffect, "signaling NaN operand")
	}
	if fm.Composite || fm.Radix != 2 || !fm.HasInf || !fm.HasDenorm {
		return ir.RealValue{}, decline(classFormat, "%s cannot step between values", fm)
	}
	r, raised := realarith.NextAfter(x, y, fm)
	if raised && (f.flags.TrappingMath || f.flags.ErrnoMath) {
		return ir.RealValue{}, decline(classSideEffect, "step from %s raises overflow or underflow", x)
	}
	if f.flags.TrappingMath && x.IsZero() && !r.IsZero() {
		return ir.RealValue{}, decline(classSideEffect, "step away from zero raises underflow")
	}
	return r, nil
}

func (f *Folder) foldRealInt(c *call) (ir.Constant, error) {
	fm, err := c.realResult(0)
	if err != nil {
		return nil, err
	}
	x, n := c.ops[0].real(), c.ops[1].integer().Value

	var v ir.RealValue
	switch c.fn {
	case Ldexp:
		v, err = f.loadExponent(fm, x, n)
	case Scalbn, Scalbln:
		if fm.Radix != 2 {
			return nil, decline(classFormat, "%s needs a binary format", c.fn)
		}
		v, err = f.loadExponent(fm, x, n)
	case Powi:
		if !f.flags.UnsafeMathOptimizations && f.flags.SignalingNaNs && x.IsSignaling() {
			return nil, decline(classSideEffect, "powi of a signaling NaN")
		}
		if !n.IsInt64() {
			return nil, decline(classDomain, "powi exponent %s out of range", n)
		}
		v, _ = realarith.Powi(x, n.Int64(), fm)
	default:
		c.unhandled("real,int")
	}
	if err != nil {
		return nil, err
	}
	return ir.NewReal(c.result, v), nil
}

// loadExponent computes x × 2^n when the result is exactly representable.
func (f *Folder) loadExponent(fm *ir.Format, x ir.RealValue, n *big.Int) (ir.RealValue, error) {
	span := int64(fm.Emax - fm.Emin)
	if span < 0 {
		span = -span
	}
	limit := big.NewInt(2 * span)
	if n.CmpAbs(limit) >= 0 {
		return ir.RealValue{}, decline(classDomain, "exponent adjustment %s exceeds ±%s", n, limit)
	}
	if !f.flags.UnsafeMathOptimizations && f.flags.SignalingNaNs && x.IsSignaling() {
		return ir.RealValue{}, decline(classSideEffect, "signaling NaN operand")
	}
	raw := realarith.Ldexp(x, n.Int64())
	if raw.IsInf() {
		return ir.RealValue{}, decline(classDomain, "infinite result")
	}
	r, _ := fm.RoundValue(raw)
	if !r.Equal(raw) {
		return ir.RealValue{}, decline(classPrecision, "%s × 2^%s does not fit %s", x, n, fm)
	}
	return r, nil
}

func (f *Folder) foldIntReal(c *call) (ir.Constant, error) {
	if c.fn != Jn && c.fn != Yn {
		c.unhandled("int,real")
	}
	fm, err := c.realResult(1)
	if err != nil {
		return nil, err
	}
	n := c.ops[0].integer().Value
	if !n.IsInt64() || n.BitLen() > fm.Precision {
		return nil, decline(classDomain, "order %s out of range", n)
	}
	order := ir.FromRat(new(big.Rat).SetInt(n), false)
	v, err := f.generic(c, fm, order, c.ops[1].real())
	if err != nil {
		return nil, err
	}
	return ir.NewReal(c.result, v), nil
}

func (f *Folder) foldReal3(c *call) (ir.Constant, error) {
	fm, err := c.realResult(0, 1, 2)
	if err != nil {
		return nil, err
	}
	a, b, d := c.ops[0].real(), c.ops[1].real(), c.ops[2].real()
	switch c.fn {
	case Fma:
	case Fms:
		d = d.Neg()
	case Fnma:
		a = a.Neg()
	case Fnms:
		a, d = a.Neg(), d.Neg()
	default:
		c.unhandled("real,real,real")
	}
	v, err := f.generic(c, fm, a, b, d)
	if err != nil {
		return nil, err
	}
	return ir.NewReal(c.result, v), nil
}
