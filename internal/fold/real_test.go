package fold

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/realarith"
)

type foldCase struct {
	name   string
	fn     Func
	result string
	args   []ir.Constant
	want   ir.Constant
}

type declineCase struct {
	name   string
	fn     Func
	result string
	args   []ir.Constant
	class  declineClass
}

func runFolds(t *testing.T, f *Folder, tests []foldCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertFolds(t, f, tt.fn, tt.result, tt.want, tt.args...)
		})
	}
}

func runDeclines(t *testing.T, f *Folder, tests []declineCase) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDeclines(t, f, tt.fn, tt.result, tt.class, tt.args...)
		})
	}
}

func args(cs ...ir.Constant) []ir.Constant { return cs }

// sgl returns an IEEE single constant.
func sgl(x float32) ir.Constant {
	return ir.NewReal(ir.RealType(ir.IEEESingle), realarith.FromFloat(big.NewFloat(float64(x))))
}

const dbl = "ieee_double"

func TestRealToReal(t *testing.T) {
	runFolds(t, newFolder(), []foldCase{
		{"sqrt exact", Sqrt, dbl, args(d(4)), d(2)},
		{"sqrt rounded", Sqrt, dbl, args(d(2)), d(math.Sqrt2)},
		{"sqrt -0", Sqrt, dbl, ks("ieee_double=-0"), k("ieee_double=-0")},
		{"cbrt", Cbrt, dbl, args(d(27)), d(3)},
		{"cbrt negative", Cbrt, dbl, args(d(-8)), d(-2)},
		{"exp 0", Exp, dbl, args(d(0)), d(1)},
		{"exp 1", Exp, dbl, args(d(1)), d(math.E)},
		{"exp single", Exp, "ieee_single", args(sgl(1)), sgl(float32(math.E))},
		{"exp2", Exp2, dbl, args(d(10)), d(1024)},
		{"exp10", Exp10, dbl, args(d(3)), d(1000)},
		{"log 1", Log, dbl, args(d(1)), d(0)},
		{"log 2", Log, dbl, args(d(2)), d(math.Ln2)},
		{"log2", Log2, dbl, args(d(8)), d(3)},
		{"log10", Log10, dbl, args(d(1000)), d(3)},
		{"sinh", Sinh, dbl, args(d(math.Ln2)), d(0.75)},
		{"cosh", Cosh, dbl, args(d(math.Ln2)), d(1.25)},
		{"tanh", Tanh, dbl, args(d(math.Ln2)), d(0.6)},
		{"acosh 1", Acosh, dbl, args(d(1)), d(0)},
		{"tgamma 2", Tgamma, dbl, args(d(2)), d(1)},
		{"tgamma 3", Tgamma, dbl, args(d(3)), d(2)},
		{"tgamma half", Tgamma, dbl, args(d(0.5)), d(math.SqrtPi)},
		{"cos 0", Cos, dbl, args(d(0)), d(1)},
		{"sin -0", Sin, dbl, ks("ieee_double=-0"), k("ieee_double=-0")},
		{"sin 1", Sin, dbl, args(d(1)), d(0.8414709848078965)},
		{"cos 1", Cos, dbl, args(d(1)), d(0.5403023058681398)},
		{"atan 1", Atan, dbl, args(d(1)), d(math.Pi / 4)},
		{"acos -1", Acos, dbl, args(d(-1)), d(math.Pi)},
		{"sinpi 1", Sinpi, dbl, args(d(1)), d(0)},
		{"sinpi -1", Sinpi, dbl, args(d(-1)), k("ieee_double=-0")},
		{"cospi half", Cospi, dbl, args(d(0.5)), d(0)},
		{"acospi half", Acospi, dbl, args(d(0.5)), d(1.0 / 3)},
		{"erf 1", Erf, dbl, args(d(1)), d(0.8427007929497149)},
		{"erfc 1", Erfc, dbl, args(d(1)), d(0.15729920705028513)},
		{"expm1 tiny", Expm1, dbl, args(d(0x1p-60)), d(0x1p-60)},
		{"log1p tiny", Log1p, dbl, args(d(-0x1p-60)), d(-0x1p-60)},
		{"sinh tiny", Sinh, dbl, args(d(0x1p-100)), d(0x1p-100)},
		{"atanh tiny", Atanh, dbl, args(d(0x1p-40)), d(0x1p-40)},
	})
}

func TestRealToRealDeclines(t *testing.T) {
	runDeclines(t, newFolder(), []declineCase{
		{"sqrt negative", Sqrt, dbl, args(d(-1)), classDomain},
		{"sqrt nan", Sqrt, dbl, ks("ieee_double=nan"), classDomain},
		{"sqrt inf", Sqrt, dbl, ks("ieee_double=inf"), classDomain},
		{"log 0", Log, dbl, args(d(0)), classDomain},
		{"log negative", Log, dbl, args(d(-1)), classDomain},
		{"log1p -1", Log1p, dbl, args(d(-1)), classDomain},
		{"asin 2", Asin, dbl, args(d(2)), classDomain},
		{"acos -2", Acos, dbl, args(d(-2)), classDomain},
		{"acosh 0", Acosh, dbl, args(d(0)), classDomain},
		{"atanh 1", Atanh, dbl, args(d(1)), classDomain},
		{"atanh 2", Atanh, dbl, args(d(2)), classDomain},
		{"y0 0", Y0, dbl, args(d(0)), classDomain},
		{"exp overflow", Exp, dbl, args(d(1000)), classPrecision},
		{"exp underflow", Exp, dbl, args(d(-1000)), classPrecision},
		{"tgamma pole", Tgamma, dbl, args(d(0)), classDomain},
		{"tgamma negative integer", Tgamma, dbl, args(d(-2)), classDomain},
		{"tgamma overflow", Tgamma, dbl, args(d(3000)), classSideEffect},
		{"tanpi pole", Tanpi, dbl, args(d(0.5)), classDomain},
		{"decimal format", Sqrt, "decimal64", ks("decimal64=4"), classFormat},
	})
}

func TestRoundingMathKeepsOnlyExactResults(t *testing.T) {
	f := newFolder(WithFlags(Flags{RoundingMath: true}))
	assertFolds(t, f, Sqrt, dbl, d(2), d(4))
	assertDeclines(t, f, Sqrt, dbl, classSideEffect, d(2))
	assertDeclines(t, f, Exp, dbl, classSideEffect, d(1))
	assertDeclines(t, f, Sin, dbl, classSideEffect, d(1))
	assertFolds(t, f, Tgamma, dbl, d(24), d(5))
	assertFolds(t, f, Sinpi, dbl, d(-1), d(1.5))
}

func TestRealReal(t *testing.T) {
	runFolds(t, newFolder(), []foldCase{
		{"hypot", Hypot, dbl, args(d(3), d(4)), d(5)},
		{"fmod", Fmod, dbl, args(d(5.5), d(2)), d(1.5)},
		{"remainder", Remainder, dbl, args(d(5.5), d(2)), d(-0.5)},
		{"fdim", Fdim, dbl, args(d(5), d(2)), d(3)},
		{"fdim below", Fdim, dbl, args(d(2), d(5)), d(0)},
		{"fmin", Fmin, dbl, args(d(1), d(2)), d(1)},
		{"fmax zeros", Fmax, dbl, ks("ieee_double=-0", "ieee_double=0"), d(0)},
		{"atan2 zero", Atan2, dbl, args(d(0), d(1)), d(0)},
		{"copysign", Copysign, dbl, ks("ieee_double=3", "ieee_double=-0"), d(-3)},
		{"copysign nan", Copysign, dbl, ks("ieee_double=nan(0x5)", "ieee_double=-1"), k("ieee_double=-nan(0x5)")},
		{"pow", Pow, dbl, args(d(2), d(10)), d(1024)},
		{"pow half", Pow, dbl, args(d(9), d(1.5)), d(27)},
		{"pow negative base", Pow, dbl, args(d(-2), d(3)), d(-8)},
		{"pow negative exponent", Pow, dbl, args(d(2), d(-2)), d(0.25)},
		{"pow nan base", Pow, dbl, ks("ieee_double=nan(0x3)", "ieee_double=2"), k("ieee_double=nan(0x3)")},
	})
	runDeclines(t, newFolder(), []declineCase{
		{"fmod by zero", Fmod, dbl, args(d(1), d(0)), classDomain},
		{"pow fractional negative", Pow, dbl, args(d(-2), d(0.5)), classDomain},
		{"mixed formats", Hypot, dbl, args(d(3), sgl(4)), classShape},
	})
}

func TestPowFallback(t *testing.T) {
	inf := k("ieee_double=inf")

	// 0^-1 divides by zero.
	assertDeclines(t, newFolder(), Pow, dbl, classSideEffect, d(0), d(-1))
	assertDeclines(t, newFolder(WithFlags(Flags{ErrnoMath: true})), Pow, dbl, classSideEffect, d(0), d(-1))
	assertDeclines(t, newFolder(WithFlags(Flags{TrappingMath: true})), Pow, dbl, classSideEffect, d(0), d(-1))
	assertFolds(t, newFolder(WithFlags(Flags{})), Pow, dbl, inf, d(0), d(-1))

	// 10^400 overflows double.
	assertDeclines(t, newFolder(), Pow, dbl, classPrecision, d(10), d(400))
	assertFolds(t, newFolder(WithFlags(Flags{UnsafeMathOptimizations: true})), Pow, dbl, inf, d(10), d(400))

	// A signaling NaN base is quieted unless sNaNs are honored.
	snan := k("ieee_double=snan(0x2)")
	assertFolds(t, newFolder(), Pow, dbl, k("ieee_double=nan(0x2)"), snan, d(3))
	assertDeclines(t, newFolder(WithFlags(Flags{SignalingNaNs: true})), Pow, dbl, classSideEffect, snan, d(3))

	// -0 is not an integral exponent for the fallback.
	_, ok := integralExponent(ir.Zero(true))
	if ok {
		t.Error("-0 accepted as an integral exponent")
	}
}

func TestNextAfter(t *testing.T) {
	f := newFolder()
	lenient := newFolder(WithFlags(Flags{}))
	runFolds(t, f, []foldCase{
		{"up", Nextafter, dbl, args(d(1), d(2)), d(math.Nextafter(1, 2))},
		{"down", Nextafter, dbl, args(d(1), d(0)), d(math.Nextafter(1, 0))},
		{"equal", Nextafter, dbl, args(d(1), d(1)), d(1)},
		{"toward wider", Nexttoward, dbl, args(d(1), k("x87_extended=2")), d(math.Nextafter(1, 2))},
		{"single", Nextafter, "ieee_single", args(sgl(1), sgl(2)), sgl(math.Nextafter32(1, 2))},
	})
	runFolds(t, lenient, []foldCase{
		{"from zero", Nextafter, dbl, args(d(0), d(1)), d(math.SmallestNonzeroFloat64)},
		{"overflow", Nextafter, dbl, args(d(math.MaxFloat64), k("ieee_double=inf")), k("ieee_double=inf")},
	})
	runDeclines(t, f, []declineCase{
		{"from zero traps", Nextafter, dbl, args(d(0), d(1)), classSideEffect},
		{"overflow traps", Nextafter, dbl, args(d(math.MaxFloat64), k("ieee_double=inf")), classSideEffect},
		{"signaling", Nextafter, dbl, ks("ieee_double=snan", "ieee_double=1"), classSideEffect},
		{"composite", Nextafter, "ibm_extended", ks("ibm_extended=1", "ibm_extended=2"), classFormat},
		{"decimal", Nextafter, "decimal64", ks("decimal64=1", "decimal64=2"), classFormat},
	})
	assertDeclines(t, newFolder(WithFlags(Flags{ErrnoMath: true})), Nextafter, dbl, classSideEffect,
		d(math.MaxFloat64), k("ieee_double=inf"))
}

func TestLoadExponent(t *testing.T) {
	f := newFolder()
	runFolds(t, f, []foldCase{
		{"ldexp", Ldexp, dbl, ks("ieee_double=1", "i32=10"), d(1024)},
		{"ldexp down", Ldexp, dbl, ks("ieee_double=3", "i32=-1"), d(1.5)},
		{"ldexp subnormal", Ldexp, dbl, ks("ieee_double=1", "i32=-1074"), d(math.SmallestNonzeroFloat64)},
		{"ldexp zero", Ldexp, dbl, ks("ieee_double=-0", "i32=4089"), k("ieee_double=-0")},
		{"scalbn", Scalbn, dbl, ks("ieee_double=0.5", "i32=3"), d(4)},
		{"scalbln", Scalbln, dbl, ks("ieee_double=0.5", "i64=-1"), d(0.25)},
		{"ldexp decimal", Ldexp, "decimal64", ks("decimal64=1", "i32=3"), k("decimal64=8")},
		{"powi", Powi, dbl, ks("ieee_double=1.5", "i32=2"), d(2.25)},
		{"powi negative", Powi, dbl, ks("ieee_double=2", "i32=-1"), d(0.5)},
		{"powi zero exponent", Powi, dbl, ks("ieee_double=nan", "i32=0"), d(1)},
	})
	runDeclines(t, f, []declineCase{
		{"overflow", Ldexp, dbl, ks("ieee_double=1", "i32=1024"), classPrecision},
		{"underflow", Ldexp, dbl, ks("ieee_double=1", "i32=-1075"), classPrecision},
		{"inexact subnormal", Ldexp, dbl, ks("ieee_double=3", "i32=-1075"), classPrecision},
		{"bound", Ldexp, dbl, ks("ieee_double=0", "i32=4090"), classDomain},
		{"negative bound", Ldexp, dbl, ks("ieee_double=0", "i32=-4090"), classDomain},
		{"infinite", Ldexp, dbl, ks("ieee_double=inf", "i32=1"), classDomain},
		{"nan", Ldexp, dbl, ks("ieee_double=nan", "i32=1"), classPrecision},
		{"scalbn decimal", Scalbn, "decimal64", ks("decimal64=1", "i32=3"), classFormat},
	})
	sig := newFolder(WithFlags(Flags{SignalingNaNs: true}))
	assertDeclines(t, sig, Ldexp, dbl, classSideEffect, k("ieee_double=snan"), k("i32=1"))
	assertDeclines(t, sig, Powi, dbl, classSideEffect, k("ieee_double=snan"), k("i32=2"))
	assertFolds(t, newFolder(WithFlags(Flags{SignalingNaNs: true, UnsafeMathOptimizations: true})),
		Powi, dbl, k("ieee_double=nan"), k("ieee_double=snan"), k("i32=2"))
}

func TestBesselOrder(t *testing.T) {
	f := newFolder()
	runDeclines(t, f, []declineCase{
		{"yn domain", Yn, dbl, ks("i32=1", "ieee_double=-1"), classDomain},
		{"yn zero", Yn, dbl, ks("i32=1", "ieee_double=0"), classDomain},
		{"jn order too wide", Jn, "ieee_half", ks("i32=4096", "ieee_half=1"), classDomain},
	})
	runFolds(t, f, []foldCase{
		{"j0 zero", J0, dbl, args(d(0)), d(1)},
		{"jn zero", Jn, dbl, ks("i32=3", "ieee_double=-0"), k("ieee_double=-0")},
		{"jn negative order", Jn, dbl, ks("i32=-2", "ieee_double=0"), d(0)},
	})
	for _, tt := range []struct {
		name string
		fn   Func
		args []ir.Constant
		want float64
	}{
		{"j0", J0, args(d(1)), 0.7651976865579666},
		{"j1", J1, args(d(1)), 0.44005058574493355},
		{"y0", Y0, args(d(1)), 0.08825696421567697},
		{"jn", Jn, ks("i32=2", "ieee_double=1"), 0.1149034849319005},
		{"yn", Yn, ks("i32=2", "ieee_double=1"), -1.6506826068162546},
	} {
		t.Run(tt.name, func(t *testing.T) {
			got := foldDouble(t, f, tt.fn, tt.args...)
			assert.InDelta(t, tt.want, got, math.Abs(tt.want)*1e-14)
		})
	}
}

func TestFusedMultiplyAdd(t *testing.T) {
	a, b, c := d(2), d(3), d(4)
	runFolds(t, newFolder(), []foldCase{
		{"fma", Fma, dbl, args(a, b, c), d(10)},
		{"fms", Fms, dbl, args(a, b, c), d(2)},
		{"fnma", Fnma, dbl, args(a, b, c), d(-2)},
		{"fnms", Fnms, dbl, args(a, b, c), d(-10)},
		{"fma single rounding", Fma, dbl, args(d(1+0x1p-52), d(1-0x1p-52), d(-1)), d(-0x1p-104)},
	})
	runDeclines(t, newFolder(), []declineCase{
		{"fma infinite", Fma, dbl, args(k("ieee_double=inf"), b, c), classDomain},
	})
}
