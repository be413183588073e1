package fold

import (
	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/mpbridge"
)

func newComplex(t *ir.Type, v mpbridge.ComplexValue) *ir.ComplexConstant {
	return ir.NewComplex(t, ir.NewReal(t.Elem, v.Re), ir.NewReal(t.Elem, v.Im))
}

func (f *Folder) bridgeComplex(op mpbridge.Op, fm *ir.Format, args ...mpbridge.ComplexValue) (mpbridge.ComplexValue, error) {
	v, err := mpbridge.EvalComplex(f.backend, op, args, fm, f.flags.RoundingMath)
	if err != nil {
		return mpbridge.ComplexValue{}, bridgeDecline(op, err)
	}
	return v, nil
}

// foldRealToComplex handles cexpi(x) = cos x + i sin x.
func (f *Folder) foldRealToComplex(c *call) (ir.Constant, error) {
	if c.fn != Cexpi {
		c.unhandled("real to complex")
	}
	fm, err := complexElem(c.result)
	if err != nil {
		return nil, err
	}
	if t := c.ops[0].c.Type(); !t.Equal(c.result.Elem) {
		return nil, decline(classShape, "argument type %s does not match %s", t, c.result)
	}
	x := c.ops[0].real()
	cos, err := f.bridge(mpbridge.OpCos, fm, x)
	if err != nil {
		return nil, err
	}
	sin, err := f.bridge(mpbridge.OpSin, fm, x)
	if err != nil {
		return nil, err
	}
	return newComplex(c.result, mpbridge.ComplexValue{Re: cos, Im: sin}), nil
}

// foldComplexToReal handles cabs(z) = hypot(re, im).
func (f *Folder) foldComplexToReal(c *call) (ir.Constant, error) {
	if c.fn != Cabs {
		c.unhandled("complex to real")
	}
	if t := c.ops[0].c.Type(); !t.Elem.Equal(c.result) {
		return nil, decline(classShape, "argument type %s does not match %s", t, c.result)
	}
	z := c.ops[0].complex()
	v, err := f.bridge(c.spec.op, c.result.Format, z.Re, z.Im)
	if err != nil {
		return nil, err
	}
	return ir.NewReal(c.result, v), nil
}

func (f *Folder) foldComplexToComplex(c *call) (ir.Constant, error) {
	if c.spec.family != familyComplexToComplex {
		c.unhandled("complex")
	}
	fm, err := f.complexOperands(c)
	if err != nil {
		return nil, err
	}
	z := c.ops[0].complex()
	if c.fn == Cproj {
		return newComplex(c.result, cproj(z)), nil
	}
	v, err := f.bridgeComplex(c.spec.op, fm, z)
	if err != nil {
		return nil, err
	}
	return newComplex(c.result, v), nil
}

// cproj projects infinities onto the Riemann sphere's point at infinity.
func cproj(z mpbridge.ComplexValue) mpbridge.ComplexValue {
	if z.Re.IsInf() || z.Im.IsInf() {
		return mpbridge.ComplexValue{Re: ir.Inf(false), Im: ir.Zero(z.Im.Negative)}
	}
	return z
}

func (f *Folder) foldComplex2(c *call) (ir.Constant, error) {
	if c.fn != Cpow {
		c.unhandled("complex,complex")
	}
	fm, err := f.complexOperands(c)
	if err != nil {
		return nil, err
	}
	v, err := f.bridgeComplex(c.spec.op, fm, c.ops[0].complex(), c.ops[1].complex())
	if err != nil {
		return nil, err
	}
	return newComplex(c.result, v), nil
}

// complexOperands checks that every operand has the complex result type.
func (f *Folder) complexOperands(c *call) (*ir.Format, error) {
	fm, err := complexElem(c.result)
	if err != nil {
		return nil, err
	}
	for i, o := range c.ops {
		if t := o.c.Type(); !t.Equal(c.result) {
			return nil, decline(classShape, "argument %d has type %s, result is %s", i, t, c.result)
		}
	}
	return fm, nil
}
