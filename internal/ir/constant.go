package ir

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// Constant is a sealed interface over compile-time constant operands and
// results. Only IntegerConstant, RealConstant, ComplexConstant, ByteLiteral,
// AddressConstant, VectorConstant and Opaque implement it.
type Constant interface {
	Type() *Type
	String() string
	constant() // Sealed
}

// IntegerConstant is an exact integer of a fixed width. Value is always
// normalized to the type's range.
type IntegerConstant struct {
	Typ   *Type
	Value *big.Int

	// Overflow marks a value produced by an overflowing computation in the
	// surrounding compiler. Such constants are not foldable operands.
	Overflow bool
}

func (*IntegerConstant) constant() {}

// Type returns the constant's type.
func (c *IntegerConstant) Type() *Type { return c.Typ }

// NewInteger returns v truncated and sign-extended to the width of t.
func NewInteger(t *Type, v *big.Int) *IntegerConstant {
	return &IntegerConstant{Typ: t, Value: t.Wrap(v)}
}

// NewInt64 is NewInteger for small values.
func NewInt64(t *Type, v int64) *IntegerConstant {
	return NewInteger(t, big.NewInt(v))
}

// Uint64 returns the value as a uint64 and whether it fits.
func (c *IntegerConstant) Uint64() (uint64, bool) {
	if c.Value.Sign() < 0 || !c.Value.IsUint64() {
		return 0, false
	}
	return c.Value.Uint64(), true
}

func (c *IntegerConstant) String() string {
	return c.Typ.String() + "=" + c.valueString()
}

func (c *IntegerConstant) valueString() string {
	if c.Overflow {
		return "overflow(" + c.Value.String() + ")"
	}
	return c.Value.String()
}

// RealConstant is a floating-point constant in the format of its type.
type RealConstant struct {
	Typ   *Type
	Value RealValue
}

func (*RealConstant) constant() {}

// Type returns the constant's type.
func (c *RealConstant) Type() *Type { return c.Typ }

// NewReal wraps v, which must already be representable in t's format.
func NewReal(t *Type, v RealValue) *RealConstant {
	return &RealConstant{Typ: t, Value: v}
}

// Format returns the constant's floating-point format.
func (c *RealConstant) Format() *Format { return c.Typ.Format }

func (c *RealConstant) String() string {
	return c.Typ.String() + "=" + c.valueString()
}

func (c *RealConstant) valueString() string {
	return FormatReal(c.Value, c.Typ.Format)
}

// ComplexConstant is a (real, imaginary) pair. The parts are RealConstants
// for floating complex types and IntegerConstants for integer complex types.
type ComplexConstant struct {
	Typ    *Type
	Re, Im Constant
}

func (*ComplexConstant) constant() {}

// Type returns the constant's type.
func (c *ComplexConstant) Type() *Type { return c.Typ }

// NewComplex builds a complex constant from two parts of the element type.
func NewComplex(t *Type, re, im Constant) *ComplexConstant {
	return &ComplexConstant{Typ: t, Re: re, Im: im}
}

// RealParts returns both parts as real values. ok is false for integer
// complex constants.
func (c *ComplexConstant) RealParts() (re, im RealValue, ok bool) {
	r, ok1 := c.Re.(*RealConstant)
	i, ok2 := c.Im.(*RealConstant)
	if !ok1 || !ok2 {
		return RealValue{}, RealValue{}, false
	}
	return r.Value, i.Value, true
}

func (c *ComplexConstant) String() string {
	return c.Typ.String() + "=" + c.valueString()
}

func (c *ComplexConstant) valueString() string {
	return "(" + valueString(c.Re) + "," + valueString(c.Im) + ")"
}

// ByteLiteral is a fixed-length byte buffer such as a string literal. When
// Known is false only the length is known. SideEffects marks an operand
// whose evaluation is observable, so calls on it must still execute.
type ByteLiteral struct {
	Typ         *Type
	Data        []byte
	Known       bool
	SideEffects bool
}

func (*ByteLiteral) constant() {}

// Type returns the constant's type.
func (c *ByteLiteral) Type() *Type { return c.Typ }

// NewByteLiteral returns a known buffer holding a copy of data.
func NewByteLiteral(data []byte) *ByteLiteral {
	return &ByteLiteral{Typ: PointerType(), Data: append([]byte(nil), data...), Known: true}
}

// NewString returns a known buffer holding s and its terminating NUL.
func NewString(s string) *ByteLiteral {
	return NewByteLiteral(append([]byte(s), 0))
}

func (c *ByteLiteral) String() string {
	return c.Typ.String() + "=" + c.valueString()
}

func (c *ByteLiteral) valueString() string {
	var s string
	if c.Known {
		s = quoteBytes(c.Data)
	} else {
		s = fmt.Sprintf("unknown(%d)", len(c.Data))
	}
	if c.SideEffects {
		s = "sidefx(" + s + ")"
	}
	return s
}

// AddressConstant points Offset bytes into a ByteLiteral. String searches
// that find their target produce one.
type AddressConstant struct {
	Typ    *Type
	Base   *ByteLiteral
	Offset int64
}

func (*AddressConstant) constant() {}

// Type returns the constant's type.
func (c *AddressConstant) Type() *Type { return c.Typ }

// NewAddress returns a pointer offset bytes into base.
func NewAddress(t *Type, base *ByteLiteral, offset int64) *AddressConstant {
	return &AddressConstant{Typ: t, Base: base, Offset: offset}
}

func (c *AddressConstant) String() string {
	return c.Typ.String() + "=" + c.valueString()
}

func (c *AddressConstant) valueString() string {
	return c.Base.valueString() + "+" + strconv.FormatInt(c.Offset, 10)
}

// VectorConstant holds one constant per lane.
type VectorConstant struct {
	Typ   *Type
	Lanes []Constant
}

func (*VectorConstant) constant() {}

// Type returns the constant's type.
func (c *VectorConstant) Type() *Type { return c.Typ }

// NewVector builds a vector constant.
func NewVector(t *Type, lanes []Constant) *VectorConstant {
	return &VectorConstant{Typ: t, Lanes: lanes}
}

func (c *VectorConstant) String() string {
	return c.Typ.String() + "=" + c.valueString()
}

func (c *VectorConstant) valueString() string {
	parts := make([]string, len(c.Lanes))
	for i, l := range c.Lanes {
		parts[i] = valueString(l)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Opaque stands for any operand that is not a foldable constant, such as a
// symbolic expression.
type Opaque struct {
	Typ  *Type
	Name string
}

func (*Opaque) constant() {}

// Type returns the constant's type.
func (c *Opaque) Type() *Type { return c.Typ }

func (c *Opaque) String() string {
	return c.Typ.String() + "=" + c.valueString()
}

func (c *Opaque) valueString() string { return "?" + c.Name }

// valueString renders a constant without its type prefix.
func valueString(c Constant) string {
	switch v := c.(type) {
	case *IntegerConstant:
		return v.valueString()
	case *RealConstant:
		return v.valueString()
	case *ComplexConstant:
		return v.valueString()
	case *ByteLiteral:
		return v.valueString()
	case *AddressConstant:
		return v.valueString()
	case *VectorConstant:
		return v.valueString()
	case *Opaque:
		return v.valueString()
	default:
		return fmt.Sprintf("%v", c)
	}
}

// Identical reports whether two constants have equal types and bitwise
// identical values.
func Identical(a, b Constant) bool {
	if a == nil || b == nil {
		return a == b
	}
	if !a.Type().Equal(b.Type()) {
		return false
	}
	switch x := a.(type) {
	case *IntegerConstant:
		y, ok := b.(*IntegerConstant)
		return ok && x.Overflow == y.Overflow && x.Value.Cmp(y.Value) == 0
	case *RealConstant:
		y, ok := b.(*RealConstant)
		return ok && x.Value.Identical(y.Value)
	case *ComplexConstant:
		y, ok := b.(*ComplexConstant)
		return ok && Identical(x.Re, y.Re) && Identical(x.Im, y.Im)
	case *ByteLiteral:
		y, ok := b.(*ByteLiteral)
		return ok && x.Known == y.Known && x.SideEffects == y.SideEffects &&
			string(x.Data) == string(y.Data)
	case *AddressConstant:
		y, ok := b.(*AddressConstant)
		return ok && x.Offset == y.Offset && Identical(x.Base, y.Base)
	case *VectorConstant:
		y, ok := b.(*VectorConstant)
		if !ok || len(x.Lanes) != len(y.Lanes) {
			return false
		}
		for i := range x.Lanes {
			if !Identical(x.Lanes[i], y.Lanes[i]) {
				return false
			}
		}
		return true
	case *Opaque:
		y, ok := b.(*Opaque)
		return ok && x.Name == y.Name
	default:
		return false
	}
}

func quoteBytes(b []byte) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, c := range b {
		switch {
		case c == '"' || c == '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		case c >= 0x20 && c < 0x7f:
			sb.WriteByte(c)
		default:
			fmt.Fprintf(&sb, "\\x%02x", c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
