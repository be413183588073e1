package realarith

import (
	"math/big"

	"github.com/roach88/constfold/internal/ir"
)

// BinOp is a scalar binary operation on real values.
type BinOp uint8

const (
	Add BinOp = iota
	Sub
	Mul
	Min
	Max
)

func (op BinOp) String() string {
	return [...]string{"add", "sub", "mul", "min", "max"}[op]
}

// Arith computes a op b rounded into f. inexact reports that the exact
// result was not representable. A NaN operand is returned quieted; invalid
// operations such as inf - inf produce the default quiet NaN.
func Arith(op BinOp, a, b ir.RealValue, f *ir.Format) (r ir.RealValue, inexact bool) {
	if a.IsNaN() {
		return a.Quiet(), false
	}
	if b.IsNaN() {
		return b.Quiet(), false
	}
	switch op {
	case Min:
		if a.Cmp(b) < 0 {
			return a, false
		}
		return b, false
	case Max:
		if a.Cmp(b) > 0 {
			return a, false
		}
		return b, false
	case Sub:
		return Arith(Add, a, b.Neg(), f)
	case Add:
		return add(a, b, f)
	case Mul:
		return mul(a, b, f)
	default:
		panic("realarith: unknown binary operation")
	}
}

func add(a, b ir.RealValue, f *ir.Format) (ir.RealValue, bool) {
	switch {
	case a.IsInf() && b.IsInf():
		if a.Negative != b.Negative {
			return ir.QNaN(false, nil), false
		}
		return a, false
	case a.IsInf():
		return a, false
	case b.IsInf():
		return b, false
	case a.IsZero() && b.IsZero():
		return ir.Zero(a.Negative && b.Negative), false
	}
	sum := new(big.Rat).Add(a.Rat(), b.Rat())
	// An exact zero sum of nonzero operands is +0 in every mode folded here.
	r, cond := f.Round(sum, false)
	return r, cond.Has(ir.CondInexact)
}

func mul(a, b ir.RealValue, f *ir.Format) (ir.RealValue, bool) {
	neg := a.Negative != b.Negative
	switch {
	case (a.IsInf() && b.IsZero()) || (a.IsZero() && b.IsInf()):
		return ir.QNaN(false, nil), false
	case a.IsInf() || b.IsInf():
		return ir.Inf(neg), false
	case a.IsZero() || b.IsZero():
		return ir.Zero(neg), false
	}
	prod := new(big.Rat).Mul(a.Rat(), b.Rat())
	r, cond := f.Round(prod, neg)
	return r, cond.Has(ir.CondInexact)
}
