package fold

import (
	"math/big"

	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/realarith"
)

var roundFuncs = map[Func]realarith.RoundFunc{
	Floor:     realarith.Floor,
	Ceil:      realarith.Ceil,
	Trunc:     realarith.Trunc,
	Round:     realarith.Round,
	RoundEven: realarith.RoundEven,
	Iceil:     realarith.Ceil,
	Ifloor:    realarith.Floor,
	Iround:    realarith.Round,
}

func (f *Folder) foldRealSpecial(c *call) (ir.Constant, error) {
	fm, err := c.realResult(0)
	if err != nil {
		return nil, err
	}
	x := c.ops[0].real()

	var v ir.RealValue
	switch c.fn {
	case Floor, Ceil, Trunc, Round, RoundEven:
		if x.IsSignaling() {
			return nil, decline(classSideEffect, "%s of a signaling NaN", c.fn)
		}
		v = realarith.ToIntegral(roundFuncs[c.fn], x, fm)
	case Logb:
		v, err = logb(fm, x)
	case Significand:
		v, err = significand(fm, x)
	default:
		c.unhandled("special")
	}
	if err != nil {
		return nil, err
	}
	return ir.NewReal(c.result, v), nil
}

func logb(fm *ir.Format, x ir.RealValue) (ir.RealValue, error) {
	switch x.Class {
	case ir.ClassNaN:
		return x, nil
	case ir.ClassInf:
		return x.Abs(), nil
	case ir.ClassZero:
		return ir.RealValue{}, decline(classSideEffect, "logb(0) raises divide-by-zero")
	}
	if fm.Radix != 2 {
		return ir.RealValue{}, decline(classFormat, "logb needs a binary format")
	}
	return ir.FromInt64(int64(ir.BinaryExponent(x) - 1)), nil
}

// significand scales a normal x into [1, 2), keeping its sign.
func significand(fm *ir.Format, x ir.RealValue) (ir.RealValue, error) {
	if x.Class != ir.ClassNormal {
		return x, nil
	}
	if fm.Radix != 2 {
		return ir.RealValue{}, decline(classFormat, "significand needs a binary format")
	}
	m := new(big.Rat).Mul(x.Mag, ir.RatPow(2, 1-ir.BinaryExponent(x)))
	return ir.RealValue{Class: ir.ClassNormal, Negative: x.Negative, Mag: m}, nil
}

func (f *Folder) foldRealToInt(c *call) (ir.Constant, error) {
	x := c.ops[0].real()
	fm := c.ops[0].c.Type().Format

	var n int64
	switch c.fn {
	case Signbit:
		n = b2i(x.Negative)
	case Ilogb:
		// The value for zero, infinity and NaN is target-defined.
		if x.Class != ir.ClassNormal || fm.Radix != 2 {
			return nil, decline(classFormat, "ilogb(%s) is target-defined", x)
		}
		n = int64(ir.BinaryExponent(x) - 1)
	case Iceil, Ifloor, Iround:
		return toInteger(c.result, roundFuncs[c.fn], x, fm)
	case Irint:
		return nil, decline(classSideEffect, "%s depends on the run-time rounding mode", c.fn)
	case Isfinite:
		n = b2i(x.IsFinite())
	case Isinf:
		switch {
		case !x.IsInf():
		case x.Negative:
			n = -1
		default:
			n = 1
		}
	case Isnan:
		n = b2i(x.IsNaN())
	case Issignaling:
		n = b2i(x.IsSignaling())
	default:
		c.unhandled("real to integer")
	}
	return ir.NewInt64(c.result, n), nil
}

// toInteger rounds a finite x and converts it to integer type t.
func toInteger(t *ir.Type, fn realarith.RoundFunc, x ir.RealValue, fm *ir.Format) (ir.Constant, error) {
	if !x.IsFinite() {
		return nil, decline(classDomain, "cannot convert %s to an integer", x)
	}
	v := realarith.ToIntegral(fn, x, fm).Rat().Num()
	if !t.Fits(v) {
		return nil, decline(classSideEffect, "%s does not fit %s", v, t)
	}
	return ir.NewInteger(t, v), nil
}

func (f *Folder) foldNan(c *call) (ir.Constant, error) {
	fm, err := c.realResult()
	if err != nil {
		return nil, err
	}
	quiet := c.fn == Nan
	if c.fn != Nan && c.fn != Nans {
		c.unhandled("nan")
	}
	if !fm.HasNaN || (!quiet && !fm.HasSignalingNaN) {
		return nil, decline(classFormat, "%s has no such NaN", fm)
	}
	s, ok := c.ops[0].bytes().cString()
	if !ok {
		return nil, decline(classDomain, "payload is not a known string")
	}
	payload, ok := parseNaNPayload(s)
	if !ok {
		return nil, decline(classDomain, "malformed NaN payload %q", s)
	}
	payload.Mod(payload, new(big.Int).Lsh(big.NewInt(1), uint(fm.PayloadBits())))
	if payload.Sign() == 0 {
		payload = nil
	}
	if quiet {
		return ir.NewReal(c.result, ir.QNaN(false, payload)), nil
	}
	return ir.NewReal(c.result, ir.SNaN(false, payload)), nil
}

// parseNaNPayload reads a payload the way strtol would: optional leading
// white space and sign, then a decimal, octal (leading 0) or hexadecimal
// (leading 0x) number. The whole string must be consumed. The sign is
// ignored.
func parseNaNPayload(s []byte) (*big.Int, bool) {
	v := new(big.Int)
	if len(s) == 0 {
		return v, true
	}
	i := 0
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		i++
	}
	base := 10
	if i < len(s) && s[i] == '0' {
		i++
		base = 8
		if i < len(s) && (s[i] == 'x' || s[i] == 'X') {
			i++
			base = 16
		}
	}
	b := big.NewInt(int64(base))
	for ; i < len(s); i++ {
		d := digitValue(s[i])
		if d >= base {
			return nil, false
		}
		v.Mul(v, b)
		v.Add(v, big.NewInt(int64(d)))
	}
	return v, true
}

func isSpace(c byte) bool {
	return c == ' ' || (c >= '\t' && c <= '\r')
}

func digitValue(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10
	}
	return 99
}
