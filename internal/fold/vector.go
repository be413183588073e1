package fold

import (
	"math/big"

	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/realarith"
)

// binop is a scalar operation used by reductions.
type binop uint8

const (
	opPlus binop = iota
	opMax
	opMin
	opAnd
	opIor
	opXor
)

func (op binop) String() string {
	return [...]string{"plus", "max", "min", "and", "ior", "xor"}[op]
}

var reductions = map[Func]binop{
	ReducPlus:    opPlus,
	ReducMax:     opMax,
	ReducMin:     opMin,
	ReducAnd:     opAnd,
	ReducIor:     opIor,
	ReducXor:     opXor,
	FoldLeftPlus: opPlus,
}

func (f *Folder) foldVector(c *call) (ir.Constant, error) {
	switch c.fn {
	case ReducPlus, ReducMax, ReducMin, ReducAnd, ReducIor, ReducXor:
		lanes, err := fixedLanes(c.ops[0].vector())
		if err != nil {
			return nil, err
		}
		return f.reduce(reductions[c.fn], c.result, lanes[0], lanes[1:])
	case FoldLeftPlus:
		lanes, err := fixedLanes(c.ops[1].vector())
		if err != nil {
			return nil, err
		}
		return f.reduce(opPlus, c.result, c.ops[0].c, lanes)
	case VecConvert:
		return f.vecConvert(c.result, c.ops[0].vector())
	case WhileUlt:
		return whileULT(c.result, c.ops[0].integer().Value, c.ops[1].integer().Value)
	default:
		c.unhandled("vector")
		return nil, nil
	}
}

// fixedLanes returns the lanes of a vector with a known lane count.
func fixedLanes(v *ir.VectorConstant) ([]ir.Constant, error) {
	if v.Typ.Scalable {
		return nil, decline(classShape, "lane count of %s is not a constant", v.Typ)
	}
	if len(v.Lanes) == 0 || len(v.Lanes) != v.Typ.Lanes {
		return nil, decline(classShape, "vector has %d lanes, type %s", len(v.Lanes), v.Typ)
	}
	for i, l := range v.Lanes {
		if sh, err := classify(l); err != nil || !shapeScalar.accepts(sh) {
			return nil, decline(classShape, "lane %d is not a foldable scalar", i)
		}
	}
	return v.Lanes, nil
}

// reduce applies op to acc and each lane in turn, strictly left to right.
func (f *Folder) reduce(op binop, t *ir.Type, acc ir.Constant, lanes []ir.Constant) (ir.Constant, error) {
	var err error
	for _, l := range lanes {
		acc, err = f.binop(op, t, acc, l)
		if err != nil {
			return nil, err
		}
	}
	if !acc.Type().Equal(t) {
		return nil, decline(classShape, "lane type %s does not match %s", acc.Type(), t)
	}
	return acc, nil
}

// binop evaluates a op b in type t under the compiler's constant
// arithmetic rules.
func (f *Folder) binop(op binop, t *ir.Type, a, b ir.Constant) (ir.Constant, error) {
	if !a.Type().Equal(t) || !b.Type().Equal(t) {
		return nil, decline(classShape, "%s of %s and %s in %s", op, a.Type(), b.Type(), t)
	}
	switch x := a.(type) {
	case *ir.IntegerConstant:
		return intBinop(op, t, x, b.(*ir.IntegerConstant)), nil
	case *ir.RealConstant:
		v, err := f.realBinop(op, t.Format, x.Value, b.(*ir.RealConstant).Value)
		if err != nil {
			return nil, err
		}
		return ir.NewReal(t, v), nil
	}
	return nil, decline(classShape, "%s is not a scalar", a)
}

// intBinop wraps to t. Signed overflow, or an overflowed operand, marks
// the result.
func intBinop(op binop, t *ir.Type, a, b *ir.IntegerConstant) *ir.IntegerConstant {
	x, y := a.Value, b.Value
	z := new(big.Int)
	switch op {
	case opPlus:
		z.Add(x, y)
	case opMax:
		z.Set(x)
		if y.Cmp(x) > 0 {
			z.Set(y)
		}
	case opMin:
		z.Set(x)
		if y.Cmp(x) < 0 {
			z.Set(y)
		}
	case opAnd:
		z.And(x, y)
	case opIor:
		z.Or(x, y)
	case opXor:
		z.Xor(x, y)
	}
	r := ir.NewInteger(t, z)
	r.Overflow = a.Overflow || b.Overflow || (!t.Unsigned && !t.Fits(z))
	return r
}

var realOps = map[binop]realarith.BinOp{
	opPlus: realarith.Add,
	opMax:  realarith.Max,
	opMin:  realarith.Min,
}

func (f *Folder) realBinop(op binop, fm *ir.Format, a, b ir.RealValue) (ir.RealValue, error) {
	rop, ok := realOps[op]
	if !ok {
		return ir.RealValue{}, decline(classShape, "no %s on reals", op)
	}
	if f.flags.honorSNaNs(fm) && (a.IsSignaling() || b.IsSignaling()) {
		return ir.RealValue{}, decline(classSideEffect, "signaling NaN operand")
	}
	r, inexact := realarith.Arith(rop, a, b, fm)
	operandsNaN := a.IsNaN() || b.IsNaN()
	switch {
	case operandsNaN:
		return r, nil
	case f.flags.TrappingMath && fm.HasNaN && r.IsNaN():
		return ir.RealValue{}, decline(classSideEffect, "%s of %s and %s raises invalid", op, a, b)
	case f.flags.TrappingMath && fm.HasInf && r.IsInf() && !a.IsInf() && !b.IsInf():
		return ir.RealValue{}, decline(classSideEffect, "%s of %s and %s overflows", op, a, b)
	case inexact && (f.flags.RoundingMath || (fm.Composite && !f.flags.UnsafeMathOptimizations)):
		return ir.RealValue{}, decline(classSideEffect, "%s of %s and %s is inexact", op, a, b)
	}
	return r, nil
}

func (f *Folder) vecConvert(t *ir.Type, v *ir.VectorConstant) (ir.Constant, error) {
	lanes, err := fixedLanes(v)
	if err != nil {
		return nil, err
	}
	if t.Scalable || t.Lanes != len(lanes) {
		return nil, decline(classShape, "cannot convert %s to %s", v.Typ, t)
	}
	out := make([]ir.Constant, len(lanes))
	for i, l := range lanes {
		out[i], err = f.convert(t.Elem, l)
		if err != nil {
			return nil, err
		}
	}
	return ir.NewVector(t, out), nil
}

// convert converts one scalar lane to type t.
func (f *Folder) convert(t *ir.Type, c ir.Constant) (ir.Constant, error) {
	switch x := c.(type) {
	case *ir.IntegerConstant:
		switch t.Kind {
		case ir.KindInteger:
			r := ir.NewInteger(t, x.Value)
			r.Overflow = !t.Unsigned && !t.Fits(x.Value)
			return r, nil
		case ir.KindReal:
			v, _ := t.Format.Round(new(big.Rat).SetInt(x.Value), false)
			return ir.NewReal(t, v), nil
		}
	case *ir.RealConstant:
		switch t.Kind {
		case ir.KindInteger:
			return truncToInt(t, x.Value), nil
		case ir.KindReal:
			v, err := f.convertReal(t.Format, x)
			if err != nil {
				return nil, err
			}
			return ir.NewReal(t, v), nil
		}
	}
	return nil, decline(classShape, "cannot convert %s to %s", c, t)
}

// truncToInt converts toward zero, saturating and marking overflow when
// the value is NaN or out of range.
func truncToInt(t *ir.Type, v ir.RealValue) *ir.IntegerConstant {
	switch {
	case v.IsNaN():
		return &ir.IntegerConstant{Typ: t, Value: new(big.Int), Overflow: true}
	case v.IsInf():
		lim := t.Max()
		if v.Negative {
			lim = t.Min()
		}
		return &ir.IntegerConstant{Typ: t, Value: lim, Overflow: true}
	}
	n := new(big.Int).Quo(v.Rat().Num(), v.Rat().Denom())
	switch {
	case n.Cmp(t.Min()) < 0:
		return &ir.IntegerConstant{Typ: t, Value: t.Min(), Overflow: true}
	case n.Cmp(t.Max()) > 0:
		return &ir.IntegerConstant{Typ: t, Value: t.Max(), Overflow: true}
	}
	return ir.NewInteger(t, n)
}

func (f *Folder) convertReal(to *ir.Format, x *ir.RealConstant) (ir.RealValue, error) {
	v := x.Value
	if f.flags.honorSNaNs(x.Format()) && v.IsSignaling() {
		return ir.RealValue{}, decline(classSideEffect, "conversion of a signaling NaN")
	}
	switch v.Class {
	case ir.ClassNaN:
		if !to.HasNaN {
			return ir.RealValue{}, decline(classFormat, "%s has no NaN", to)
		}
		if v.Payload != nil {
			mod := new(big.Int).Lsh(big.NewInt(1), uint(to.PayloadBits()))
			v.Payload = new(big.Int).Mod(v.Payload, mod)
		}
		return v, nil
	case ir.ClassInf:
		if !to.HasInf {
			return ir.RealValue{}, decline(classFormat, "%s has no infinity", to)
		}
		return v, nil
	}
	r, cond := to.RoundValue(v)
	if f.flags.RoundingMath && cond.Has(ir.CondInexact) {
		return ir.RealValue{}, decline(classSideEffect, "conversion to %s is inexact", to)
	}
	return r, nil
}

// whileULT builds the mask whose first b-a lanes are all ones.
func whileULT(t *ir.Type, a, b *big.Int) (ir.Constant, error) {
	if t.Scalable {
		return nil, decline(classShape, "lane count of %s is not a constant", t)
	}
	if t.Elem == nil || t.Elem.Kind != ir.KindInteger {
		return nil, decline(classShape, "%s is not an integer mask type", t)
	}
	if a.Sign() < 0 || b.Sign() < 0 {
		return nil, decline(classDomain, "while_ult bounds must be unsigned")
	}
	active := 0
	if d := new(big.Int).Sub(b, a); d.Sign() > 0 {
		active = t.Lanes
		if d.IsInt64() && d.Int64() < int64(t.Lanes) {
			active = int(d.Int64())
		}
	}
	lanes := make([]ir.Constant, t.Lanes)
	for i := range lanes {
		lanes[i] = ir.NewInt64(t.Elem, -b2i(i < active))
	}
	return ir.NewVector(t, lanes), nil
}
