package ir

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Text syntax for constants is "type=value":
//
//	u8=200
//	i32=overflow(7)
//	ieee_double=0x1p-3
//	ieee_double=-nan(0x5)
//	complex(ieee_single)=(1,-0)
//	vec4(i32)=[1,2,3,4]
//	ptr="abc\x00"
//	ptr=sidefx("abc\x00")+1
//	ieee_double=?x

// ParseType parses a type name such as "u8", "ubi7", "ieee_double",
// "complex(ieee_single)", "vec4(i32)", "vecx4(i32)" or "ptr".
func ParseType(s string, reg *Registry) (*Type, error) {
	s = strings.TrimSpace(s)
	switch {
	case s == "ptr":
		return PointerType(), nil
	case strings.HasPrefix(s, "complex(") && strings.HasSuffix(s, ")"):
		elem, err := ParseType(s[len("complex("):len(s)-1], reg)
		if err != nil {
			return nil, fmt.Errorf("complex element: %w", err)
		}
		if elem.Kind != KindReal && elem.Kind != KindInteger {
			return nil, fmt.Errorf("complex element must be scalar, got %s", elem)
		}
		return ComplexType(elem), nil
	case strings.HasPrefix(s, "vec"):
		return parseVectorType(s, reg)
	}
	if t, ok := parseIntType(s); ok {
		return t, nil
	}
	f, err := reg.Lookup(s)
	if err != nil {
		return nil, err
	}
	return RealType(f), nil
}

func parseVectorType(s string, reg *Registry) (*Type, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("malformed vector type %q", s)
	}
	head := s[len("vec"):open]
	scalable := strings.HasPrefix(head, "x")
	head = strings.TrimPrefix(head, "x")
	lanes, err := strconv.Atoi(head)
	if err != nil || lanes <= 0 {
		return nil, fmt.Errorf("malformed lane count in %q", s)
	}
	elem, err := ParseType(s[open+1:len(s)-1], reg)
	if err != nil {
		return nil, fmt.Errorf("vector element: %w", err)
	}
	if scalable {
		return ScalableVectorType(elem, lanes), nil
	}
	return VectorType(elem, lanes), nil
}

func parseIntType(s string) (*Type, bool) {
	var unsigned, bitint bool
	switch {
	case strings.HasPrefix(s, "ibi"):
		bitint, s = true, s[3:]
	case strings.HasPrefix(s, "ubi"):
		bitint, unsigned, s = true, true, s[3:]
	case strings.HasPrefix(s, "i"):
		s = s[1:]
	case strings.HasPrefix(s, "u"):
		unsigned, s = true, s[1:]
	default:
		return nil, false
	}
	bits, err := strconv.Atoi(s)
	if err != nil || bits <= 0 || bits > 65535 {
		return nil, false
	}
	if bitint {
		return BitIntType(bits, unsigned), true
	}
	return IntType(bits, unsigned), true
}

// ParseConstant parses the "type=value" text form.
func ParseConstant(s string, reg *Registry) (Constant, error) {
	eq := strings.IndexByte(s, '=')
	if eq < 0 {
		return nil, fmt.Errorf("constant %q: missing '='", s)
	}
	t, err := ParseType(s[:eq], reg)
	if err != nil {
		return nil, fmt.Errorf("constant %q: %w", s, err)
	}
	c, err := ParseValue(t, s[eq+1:])
	if err != nil {
		return nil, fmt.Errorf("constant %q: %w", s, err)
	}
	return c, nil
}

// MustParseConstant is like ParseConstant against the default registry but
// panics on error. Use only in tests.
func MustParseConstant(s string) Constant {
	c, err := ParseConstant(s, DefaultRegistry())
	if err != nil {
		panic(err)
	}
	return c
}

// ParseValue parses the value part of the text form for type t.
func ParseValue(t *Type, s string) (Constant, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "?") {
		return &Opaque{Typ: t, Name: s[1:]}, nil
	}
	switch t.Kind {
	case KindInteger:
		return parseInteger(t, s)
	case KindPointer:
		if s != "" && (s[0] == '"' || strings.HasPrefix(s, "unknown(") || strings.HasPrefix(s, "sidefx(")) {
			return parseByteOperand(t, s)
		}
		return parseInteger(t, s)
	case KindReal:
		v, err := ParseReal(s, t.Format)
		if err != nil {
			return nil, err
		}
		return NewReal(t, v), nil
	case KindComplex:
		if !strings.HasPrefix(s, "(") || !strings.HasSuffix(s, ")") {
			return nil, fmt.Errorf("complex value must be (re,im), got %q", s)
		}
		parts := splitTop(s[1 : len(s)-1])
		if len(parts) != 2 {
			return nil, fmt.Errorf("complex value needs 2 parts, got %d", len(parts))
		}
		re, err := ParseValue(t.Elem, parts[0])
		if err != nil {
			return nil, fmt.Errorf("real part: %w", err)
		}
		im, err := ParseValue(t.Elem, parts[1])
		if err != nil {
			return nil, fmt.Errorf("imaginary part: %w", err)
		}
		return NewComplex(t, re, im), nil
	case KindVector:
		if !strings.HasPrefix(s, "[") || !strings.HasSuffix(s, "]") {
			return nil, fmt.Errorf("vector value must be [a,b,...], got %q", s)
		}
		parts := splitTop(s[1 : len(s)-1])
		if len(parts) != t.Lanes {
			return nil, fmt.Errorf("vector needs %d lanes, got %d", t.Lanes, len(parts))
		}
		lanes := make([]Constant, len(parts))
		for i, p := range parts {
			l, err := ParseValue(t.Elem, p)
			if err != nil {
				return nil, fmt.Errorf("lane %d: %w", i, err)
			}
			lanes[i] = l
		}
		return NewVector(t, lanes), nil
	default:
		return nil, fmt.Errorf("unsupported type %s", t)
	}
}

func parseInteger(t *Type, s string) (Constant, error) {
	overflow := false
	if strings.HasPrefix(s, "overflow(") && strings.HasSuffix(s, ")") {
		overflow = true
		s = s[len("overflow(") : len(s)-1]
	}
	v, ok := new(big.Int).SetString(s, 0)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	// Signed types also accept their unsigned bit pattern, e.g. i8=0xff.
	if !t.Fits(v) && (v.Sign() < 0 || v.BitLen() > t.Bits) {
		return nil, fmt.Errorf("integer %s does not fit %s", s, t)
	}
	c := NewInteger(t, v)
	c.Overflow = overflow
	return c, nil
}

func parseByteOperand(t *Type, s string) (Constant, error) {
	if i := strings.LastIndexByte(s, '+'); i > 0 && (s[i-1] == '"' || s[i-1] == ')') {
		off, err := strconv.ParseInt(s[i+1:], 10, 64)
		if err == nil {
			base, err := parseByteLiteral(s[:i])
			if err != nil {
				return nil, err
			}
			if off < 0 || off > int64(len(base.Data)) {
				return nil, fmt.Errorf("offset %d outside buffer of %d bytes", off, len(base.Data))
			}
			return NewAddress(t, base, off), nil
		}
	}
	return parseByteLiteral(s)
}

func parseByteLiteral(s string) (*ByteLiteral, error) {
	if strings.HasPrefix(s, "sidefx(") && strings.HasSuffix(s, ")") {
		b, err := parseByteLiteral(s[len("sidefx(") : len(s)-1])
		if err != nil {
			return nil, err
		}
		b.SideEffects = true
		return b, nil
	}
	if strings.HasPrefix(s, "unknown(") && strings.HasSuffix(s, ")") {
		n, err := strconv.Atoi(s[len("unknown(") : len(s)-1])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid unknown length in %q", s)
		}
		return &ByteLiteral{Typ: PointerType(), Data: make([]byte, n)}, nil
	}
	u, err := strconv.Unquote(s)
	if err != nil {
		return nil, fmt.Errorf("invalid byte literal %s: %w", s, err)
	}
	return NewByteLiteral([]byte(u)), nil
}

// ParseReal parses a real literal and rounds it into f. Accepted forms are
// decimal and hexadecimal floating literals, "inf", "nan", "snan" and NaNs
// with a payload such as "nan(0x5)", each optionally signed.
func ParseReal(s string, f *Format) (RealValue, error) {
	s = strings.TrimSpace(s)
	neg := false
	switch {
	case strings.HasPrefix(s, "-"):
		neg, s = true, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	switch {
	case s == "inf" || s == "infinity":
		if !f.HasInf {
			return RealValue{}, fmt.Errorf("format %s has no infinities", f)
		}
		return Inf(neg), nil
	case strings.HasPrefix(s, "nan") || strings.HasPrefix(s, "snan"):
		signaling := strings.HasPrefix(s, "snan")
		rest := strings.TrimPrefix(strings.TrimPrefix(s, "s"), "nan")
		var payload *big.Int
		if rest != "" {
			if !strings.HasPrefix(rest, "(") || !strings.HasSuffix(rest, ")") {
				return RealValue{}, fmt.Errorf("malformed NaN %q", s)
			}
			p, ok := new(big.Int).SetString(rest[1:len(rest)-1], 0)
			if !ok || p.Sign() < 0 {
				return RealValue{}, fmt.Errorf("malformed NaN payload %q", rest)
			}
			if p.Sign() != 0 {
				payload = p
			}
		}
		if !f.HasNaN || (signaling && !f.HasSignalingNaN) {
			return RealValue{}, fmt.Errorf("format %s cannot represent %q", f, s)
		}
		if signaling {
			return SNaN(neg, payload), nil
		}
		return QNaN(neg, payload), nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return RealValue{}, fmt.Errorf("invalid real literal %q", s)
	}
	if neg {
		r.Neg(r)
	}
	v, _ := f.RoundMode(r, neg, RoundNearestEven)
	return v, nil
}

// FormatReal renders v as the shortest literal that ParseReal maps back to
// the same value in f.
func FormatReal(v RealValue, f *Format) string {
	if v.Class != ClassNormal {
		return v.String()
	}
	if f != nil && f.Radix == 10 {
		if d, ok := decimalOf(v.Rat()); ok {
			return d.String()
		}
		return v.Rat().RatString()
	}
	prec := uint(64)
	if f != nil {
		prec = uint(f.Precision)
	}
	x := new(big.Float).SetPrec(prec).SetRat(v.Rat())
	return x.Text('g', -1)
}

// decimalOf returns x as a finite decimal when its denominator has no prime
// factors other than 2 and 5.
func decimalOf(x *big.Rat) (*apd.Decimal, bool) {
	den := new(big.Int).Set(x.Denom())
	twos, fives := 0, 0
	two, five := big.NewInt(2), big.NewInt(5)
	mod := new(big.Int)
	for {
		q, m := new(big.Int).QuoRem(den, two, mod)
		if m.Sign() != 0 {
			break
		}
		den, twos = q, twos+1
	}
	for {
		q, m := new(big.Int).QuoRem(den, five, mod)
		if m.Sign() != 0 {
			break
		}
		den, fives = q, fives+1
	}
	if den.Cmp(big.NewInt(1)) != 0 {
		return nil, false
	}
	k := max(twos, fives)
	n := new(big.Int).Mul(x.Num(), new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(k)), nil))
	n.Quo(n, x.Denom())
	exp := -k
	ten := big.NewInt(10)
	for n.Sign() != 0 {
		q, m := new(big.Int).QuoRem(n, ten, mod)
		if m.Sign() != 0 {
			break
		}
		n, exp = q, exp+1
	}
	return apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(n), int32(exp)), true
}

// splitTop splits s on commas that are not nested inside brackets,
// parentheses or quotes.
func splitTop(s string) []string {
	var parts []string
	depth, start := 0, 0
	inQuote := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inQuote:
			if c == '\\' {
				i++
			} else if c == '"' {
				inQuote = false
			}
		case c == '"':
			inQuote = true
		case c == '(' || c == '[':
			depth++
		case c == ')' || c == ']':
			depth--
		case c == ',' && depth == 0:
			parts = append(parts, strings.TrimSpace(s[start:i]))
			start = i + 1
		}
	}
	if strings.TrimSpace(s) != "" {
		parts = append(parts, strings.TrimSpace(s[start:]))
	}
	return parts
}
