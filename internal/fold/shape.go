package fold

import (
	"bytes"
	"fmt"

	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/mpbridge"
)

// shape is the classification of one operand.
type shape uint8

const (
	shapeInteger shape = iota + 1
	shapeReal
	shapeComplex
	shapeBytes
	shapeVector

	// shapeScalar appears only in table entries and accepts an integer or
	// a real operand.
	shapeScalar
)

func (s shape) String() string {
	switch s {
	case shapeInteger:
		return "integer"
	case shapeReal:
		return "real"
	case shapeComplex:
		return "complex"
	case shapeBytes:
		return "bytes"
	case shapeVector:
		return "vector"
	case shapeScalar:
		return "scalar"
	default:
		return fmt.Sprintf("shape(%d)", uint8(s))
	}
}

// accepts reports whether an operand of shape got may stand where the
// table entry expects want.
func (want shape) accepts(got shape) bool {
	if want == shapeScalar {
		return got == shapeInteger || got == shapeReal
	}
	return want == got
}

// classify returns the shape of a foldable constant. Opaque operands,
// integers carrying an overflow marker and integer complex values are not
// foldable.
func classify(c ir.Constant) (shape, error) {
	switch v := c.(type) {
	case *ir.IntegerConstant:
		if v.Overflow {
			return 0, fmt.Errorf("%s carries an overflow marker", v)
		}
		return shapeInteger, nil
	case *ir.RealConstant:
		if v.Typ.Format == nil {
			return 0, fmt.Errorf("%s has no format", v)
		}
		return shapeReal, nil
	case *ir.ComplexConstant:
		if _, _, ok := v.RealParts(); !ok {
			return 0, fmt.Errorf("%s is not a floating complex value", v)
		}
		return shapeComplex, nil
	case *ir.ByteLiteral, *ir.AddressConstant:
		return shapeBytes, nil
	case *ir.VectorConstant:
		return shapeVector, nil
	case nil:
		return 0, fmt.Errorf("missing operand")
	default:
		return 0, fmt.Errorf("%s is not a foldable constant", c)
	}
}

// operand is a classified argument. The accessors assume the shape has
// been checked.
type operand struct {
	shape shape
	c     ir.Constant
}

func (o operand) integer() *ir.IntegerConstant { return o.c.(*ir.IntegerConstant) }

func (o operand) real() ir.RealValue { return o.c.(*ir.RealConstant).Value }

func (o operand) complex() mpbridge.ComplexValue {
	re, im, _ := o.c.(*ir.ComplexConstant).RealParts()
	return mpbridge.ComplexValue{Re: re, Im: im}
}

func (o operand) vector() *ir.VectorConstant { return o.c.(*ir.VectorConstant) }

func (o operand) bytes() byteRef {
	switch v := o.c.(type) {
	case *ir.ByteLiteral:
		return byteRef{base: v}
	case *ir.AddressConstant:
		return byteRef{base: v.Base, off: v.Offset}
	}
	panic(fmt.Sprintf("fold: %s is not a byte operand", o.c))
}

// byteRef is a position inside a byte buffer.
type byteRef struct {
	base *ir.ByteLiteral
	off  int64
}

func (b byteRef) sideEffects() bool {
	return b.base != nil && b.base.SideEffects
}

// rep returns the bytes from the position to the end of the buffer when
// they are known and reading them has no observable effect.
func (b byteRef) rep() ([]byte, bool) {
	if b.base == nil || !b.base.Known || b.base.SideEffects {
		return nil, false
	}
	if b.off < 0 || b.off > int64(len(b.base.Data)) {
		return nil, false
	}
	return b.base.Data[b.off:], true
}

// cString returns the NUL-terminated string at the position, without its
// terminator. The buffer must contain the terminator.
func (b byteRef) cString() ([]byte, bool) {
	data, ok := b.rep()
	if !ok {
		return nil, false
	}
	n := bytes.IndexByte(data, 0)
	if n < 0 {
		return nil, false
	}
	return data[:n], true
}

// at returns a pointer of type t that is n bytes past the position.
func (b byteRef) at(t *ir.Type, n int) *ir.AddressConstant {
	return ir.NewAddress(t, b.base, b.off+int64(n))
}
