package ir

import (
	"fmt"
	"math/big"
)

// TypeKind classifies a constant's type.
type TypeKind uint8

const (
	KindInteger TypeKind = iota + 1
	KindReal
	KindComplex
	KindVector
	KindPointer
)

func (k TypeKind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindReal:
		return "real"
	case KindComplex:
		return "complex"
	case KindVector:
		return "vector"
	case KindPointer:
		return "pointer"
	default:
		return fmt.Sprintf("TypeKind(%d)", uint8(k))
	}
}

// Type describes the type of a constant or of a call's result.
//
// Only the fields relevant to Kind are meaningful:
//   - Integer: Bits, Unsigned, BitInt
//   - Real: Format
//   - Complex, Vector: Elem (Vector also Lanes, Scalable)
type Type struct {
	Kind TypeKind

	Bits     int
	Unsigned bool
	// BitInt marks arbitrary-width _BitInt(N) types, which have no machine
	// mode and therefore no target-defined count at zero.
	BitInt bool

	Format *Format

	Elem     *Type
	Lanes    int
	Scalable bool
}

// IntType returns an integer type of the given width and signedness.
func IntType(bits int, unsigned bool) *Type {
	return &Type{Kind: KindInteger, Bits: bits, Unsigned: unsigned}
}

// BitIntType returns a _BitInt(bits) type.
func BitIntType(bits int, unsigned bool) *Type {
	return &Type{Kind: KindInteger, Bits: bits, Unsigned: unsigned, BitInt: true}
}

// RealType returns a scalar floating type in format f.
func RealType(f *Format) *Type {
	return &Type{Kind: KindReal, Format: f}
}

// ComplexType returns a complex type whose parts have type elem.
func ComplexType(elem *Type) *Type {
	return &Type{Kind: KindComplex, Elem: elem}
}

// VectorType returns a fixed-length vector type.
func VectorType(elem *Type, lanes int) *Type {
	return &Type{Kind: KindVector, Elem: elem, Lanes: lanes}
}

// ScalableVectorType returns a vector type whose lane count is only known
// at run time as a multiple of minLanes.
func ScalableVectorType(elem *Type, minLanes int) *Type {
	return &Type{Kind: KindVector, Elem: elem, Lanes: minLanes, Scalable: true}
}

// PointerType returns the generic pointer type.
func PointerType() *Type {
	return &Type{Kind: KindPointer, Bits: 64, Unsigned: true}
}

// Common integer types.
var (
	Int8    = IntType(8, false)
	Uint8   = IntType(8, true)
	Int16   = IntType(16, false)
	Uint16  = IntType(16, true)
	Int32   = IntType(32, false)
	Uint32  = IntType(32, true)
	Int64   = IntType(64, false)
	Uint64  = IntType(64, true)
	Int128  = IntType(128, false)
	Uint128 = IntType(128, true)
	SizeT   = Uint64
)

// Equal reports whether two types are structurally identical.
// Formats compare by identity of name.
func (t *Type) Equal(u *Type) bool {
	if t == nil || u == nil {
		return t == u
	}
	if t.Kind != u.Kind {
		return false
	}
	switch t.Kind {
	case KindInteger:
		return t.Bits == u.Bits && t.Unsigned == u.Unsigned && t.BitInt == u.BitInt
	case KindReal:
		return t.Format.Name == u.Format.Name
	case KindComplex:
		return t.Elem.Equal(u.Elem)
	case KindVector:
		return t.Lanes == u.Lanes && t.Scalable == u.Scalable && t.Elem.Equal(u.Elem)
	default:
		return true
	}
}

// IsIntegral reports whether values of t are integers, including pointers.
func (t *Type) IsIntegral() bool {
	return t.Kind == KindInteger || t.Kind == KindPointer
}

// Min returns the smallest value of an integer type.
func (t *Type) Min() *big.Int {
	if t.Unsigned {
		return new(big.Int)
	}
	return new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(t.Bits-1)))
}

// Max returns the largest value of an integer type.
func (t *Type) Max() *big.Int {
	if t.Unsigned {
		m := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
		return m.Sub(m, big.NewInt(1))
	}
	m := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits-1))
	return m.Sub(m, big.NewInt(1))
}

// Fits reports whether v lies within the range of integer type t.
func (t *Type) Fits(v *big.Int) bool {
	return v.Cmp(t.Min()) >= 0 && v.Cmp(t.Max()) <= 0
}

// Wrap truncates v to the width of integer type t and sign-extends it when
// t is signed.
func (t *Type) Wrap(v *big.Int) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
	r := new(big.Int).Mod(v, mod)
	if !t.Unsigned && r.Bit(t.Bits-1) == 1 {
		r.Sub(r, mod)
	}
	return r
}

// Pattern returns the two's complement bit pattern of v at the width of t,
// as a non-negative integer.
func (t *Type) Pattern(v *big.Int) *big.Int {
	mod := new(big.Int).Lsh(big.NewInt(1), uint(t.Bits))
	return new(big.Int).Mod(v, mod)
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindInteger:
		prefix := "i"
		if t.Unsigned {
			prefix = "u"
		}
		if t.BitInt {
			prefix += "bi"
		}
		return fmt.Sprintf("%s%d", prefix, t.Bits)
	case KindReal:
		return t.Format.Name
	case KindComplex:
		return fmt.Sprintf("complex(%s)", t.Elem)
	case KindVector:
		if t.Scalable {
			return fmt.Sprintf("vecx%d(%s)", t.Lanes, t.Elem)
		}
		return fmt.Sprintf("vec%d(%s)", t.Lanes, t.Elem)
	case KindPointer:
		return "ptr"
	default:
		return t.Kind.String()
	}
}
