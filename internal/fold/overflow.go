package fold

import (
	"math/big"

	"github.com/roach88/constfold/internal/ir"
)

type arithOp func(z, x, y *big.Int) *big.Int

var overflowOps = map[Func]arithOp{
	AddOverflow:   (*big.Int).Add,
	SubOverflow:   (*big.Int).Sub,
	MulOverflow:   (*big.Int).Mul,
	UbsanCheckAdd: (*big.Int).Add,
	UbsanCheckSub: (*big.Int).Sub,
	UbsanCheckMul: (*big.Int).Mul,
	Uaddc:         (*big.Int).Add,
	Usubc:         (*big.Int).Sub,
}

// checked returns x op y wrapped to t and whether the exact result lies
// outside t.
func checked(op arithOp, t *ir.Type, x, y *big.Int) (*big.Int, bool) {
	exact := op(new(big.Int), x, y)
	return t.Wrap(exact), !t.Fits(exact)
}

func (f *Folder) foldOverflow(c *call) (ir.Constant, error) {
	op, ok := overflowOps[c.fn]
	if !ok {
		c.unhandled("overflow")
	}
	itype := c.result
	if c.result.Kind == ir.KindComplex {
		itype = c.result.Elem
	}
	if itype == nil || itype.Kind != ir.KindInteger {
		return nil, decline(classShape, "%s needs an integer result, got %s", c.fn, c.result)
	}
	x, y := c.ops[0].integer().Value, c.ops[1].integer().Value

	r, ovf := checked(op, itype, x, y)
	switch c.fn {
	case UbsanCheckAdd, UbsanCheckSub, UbsanCheckMul:
		if ovf {
			return nil, decline(classSideEffect, "%s overflows %s", c.fn, itype)
		}
		return ir.NewInteger(itype, r), nil
	case Uaddc, Usubc:
		carry := c.ops[2].integer().Value
		var ovf2 bool
		r, ovf2 = checked(op, itype, r, carry)
		ovf = ovf || ovf2
	}
	return ir.NewComplex(c.result, ir.NewInteger(itype, r), ir.NewInt64(itype, b2i(ovf))), nil
}
