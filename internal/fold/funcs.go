package fold

import (
	"fmt"
	"sort"

	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/mpbridge"
)

// Func identifies a builtin function.
type Func uint16

// Real to real, through the arbitrary-precision backend.
const (
	Sqrt Func = iota + 1
	Cbrt
	Exp
	Exp2
	Exp10
	Expm1
	Log
	Log2
	Log10
	Log1p
	Sin
	Cos
	Tan
	Asin
	Acos
	Atan
	Sinh
	Cosh
	Tanh
	Asinh
	Acosh
	Atanh
	Sinpi
	Cospi
	Tanpi
	Asinpi
	Acospi
	Atanpi
	Erf
	Erfc
	Tgamma
	J0
	J1
	Y0
	Y1

	// Real to real, closed form.
	Floor
	Ceil
	Trunc
	Round
	RoundEven
	Logb
	Significand

	// Real to integer.
	Signbit
	Ilogb
	Iceil
	Ifloor
	Iround
	Irint
	Isfinite
	Isinf
	Isnan
	Issignaling

	// Two reals to real.
	Remainder
	Atan2
	Atan2pi
	Fdim
	Fmod
	Hypot
	Copysign
	Fmin
	Fmax
	Pow
	Nextafter
	Nexttoward

	// Real and integer to real.
	Ldexp
	Scalbn
	Scalbln
	Powi

	// Integer and real to real.
	Jn
	Yn

	// Three reals to real.
	Fma
	Fms
	Fnma
	Fnms

	// Complex.
	Cexpi
	Cabs
	Csqrt
	Cexp
	Clog
	Csin
	Ccos
	Ctan
	Csinh
	Ccosh
	Ctanh
	Casin
	Cacos
	Catan
	Casinh
	Cacosh
	Catanh
	Cproj
	Cpow

	// Integer bit operations.
	Ffs
	Clz
	Ctz
	Clzg
	Ctzg
	Clrsb
	Popcount
	Parity
	Bswap

	// Overflow-checked arithmetic.
	AddOverflow
	SubOverflow
	MulOverflow
	UbsanCheckAdd
	UbsanCheckSub
	UbsanCheckMul
	Uaddc
	Usubc

	// Strings and memory.
	Strlen
	Strspn
	Strcspn
	Strcmp
	Strcasecmp
	Strchr
	Strrchr
	Strstr
	Strncmp
	Strncasecmp
	Memcmp
	Memchr

	// NaN construction.
	Nan
	Nans

	// Vectors.
	ReducPlus
	ReducMax
	ReducMin
	ReducAnd
	ReducIor
	ReducXor
	FoldLeftPlus
	VecConvert
	WhileUlt

	numFuncs
)

// family selects the handler for a Func.
type family uint8

const (
	familyRealToReal family = iota + 1
	familyRealSpecial
	familyRealToInt
	familyRealReal
	familyRealInt
	familyIntReal
	familyReal3
	familyRealToComplex
	familyComplexToReal
	familyComplexToComplex
	familyComplex2
	familyInteger
	familyOverflow
	familyString
	familyNan
	familyVector
)

// guardFunc reports whether real arguments lie inside a function's domain.
// Guards are false for NaN arguments.
type guardFunc func(args []ir.RealValue) bool

// spec is the table entry of one Func.
type spec struct {
	name   string
	family family

	// args lists the operand shapes by position. minArgs, when nonzero,
	// allows the trailing operands to be omitted.
	args    []shape
	minArgs int

	results []ir.TypeKind
	guard   guardFunc
	op      mpbridge.Op
}

func (s *spec) arity() (lo, hi int) {
	hi = len(s.args)
	lo = hi
	if s.minArgs > 0 {
		lo = s.minArgs
	}
	return lo, hi
}

var (
	oneReal     = []shape{shapeReal}
	twoReals    = []shape{shapeReal, shapeReal}
	threeReals  = []shape{shapeReal, shapeReal, shapeReal}
	oneComplex  = []shape{shapeComplex}
	oneInt      = []shape{shapeInteger}
	twoInts     = []shape{shapeInteger, shapeInteger}
	threeInts   = []shape{shapeInteger, shapeInteger, shapeInteger}
	oneBytes    = []shape{shapeBytes}
	twoBytes    = []shape{shapeBytes, shapeBytes}
	bytesInt    = []shape{shapeBytes, shapeInteger}
	boundedCmp  = []shape{shapeBytes, shapeBytes, shapeInteger}
	boundedScan = []shape{shapeBytes, shapeInteger, shapeInteger}

	realKind    = []ir.TypeKind{ir.KindReal}
	intKind     = []ir.TypeKind{ir.KindInteger}
	complexKind = []ir.TypeKind{ir.KindComplex}
	pointerKind = []ir.TypeKind{ir.KindPointer}
	vectorKind  = []ir.TypeKind{ir.KindVector}
	scalarKinds = []ir.TypeKind{ir.KindInteger, ir.KindReal}
)

func backendFn(name string, op mpbridge.Op, guard guardFunc) spec {
	return spec{name: name, family: familyRealToReal, args: oneReal, results: realKind, op: op, guard: guard}
}

func closedFn(name string, fam family, args []shape, results []ir.TypeKind) spec {
	return spec{name: name, family: fam, args: args, results: results}
}

func binaryFn(name string, op mpbridge.Op) spec {
	return spec{name: name, family: familyRealReal, args: twoReals, results: realKind, op: op}
}

func complexFn(name string, op mpbridge.Op) spec {
	return spec{name: name, family: familyComplexToComplex, args: oneComplex, results: complexKind, op: op}
}

var specs = [numFuncs]spec{
	Sqrt:   backendFn("sqrt", mpbridge.OpSqrt, atLeast(0)),
	Cbrt:   backendFn("cbrt", mpbridge.OpCbrt, nil),
	Exp:    backendFn("exp", mpbridge.OpExp, nil),
	Exp2:   backendFn("exp2", mpbridge.OpExp2, nil),
	Exp10:  backendFn("exp10", mpbridge.OpExp10, nil),
	Expm1:  backendFn("expm1", mpbridge.OpExpm1, nil),
	Log:    backendFn("log", mpbridge.OpLog, above(0)),
	Log2:   backendFn("log2", mpbridge.OpLog2, above(0)),
	Log10:  backendFn("log10", mpbridge.OpLog10, above(0)),
	Log1p:  backendFn("log1p", mpbridge.OpLog1p, above(-1)),
	Sin:    backendFn("sin", mpbridge.OpSin, nil),
	Cos:    backendFn("cos", mpbridge.OpCos, nil),
	Tan:    backendFn("tan", mpbridge.OpTan, nil),
	Asin:   backendFn("asin", mpbridge.OpAsin, unitInterval),
	Acos:   backendFn("acos", mpbridge.OpAcos, unitInterval),
	Atan:   backendFn("atan", mpbridge.OpAtan, nil),
	Sinh:   backendFn("sinh", mpbridge.OpSinh, nil),
	Cosh:   backendFn("cosh", mpbridge.OpCosh, nil),
	Tanh:   backendFn("tanh", mpbridge.OpTanh, nil),
	Asinh:  backendFn("asinh", mpbridge.OpAsinh, nil),
	Acosh:  backendFn("acosh", mpbridge.OpAcosh, atLeast(1)),
	Atanh:  backendFn("atanh", mpbridge.OpAtanh, unitInterval),
	Sinpi:  backendFn("sinpi", mpbridge.OpSinpi, nil),
	Cospi:  backendFn("cospi", mpbridge.OpCospi, nil),
	Tanpi:  backendFn("tanpi", mpbridge.OpTanpi, nil),
	Asinpi: backendFn("asinpi", mpbridge.OpAsinpi, unitInterval),
	Acospi: backendFn("acospi", mpbridge.OpAcospi, unitInterval),
	Atanpi: backendFn("atanpi", mpbridge.OpAtanpi, nil),
	Erf:    backendFn("erf", mpbridge.OpErf, nil),
	Erfc:   backendFn("erfc", mpbridge.OpErfc, nil),
	Tgamma: backendFn("tgamma", mpbridge.OpTgamma, nil),
	J0:     backendFn("j0", mpbridge.OpJ0, nil),
	J1:     backendFn("j1", mpbridge.OpJ1, nil),
	Y0:     backendFn("y0", mpbridge.OpY0, above(0)),
	Y1:     backendFn("y1", mpbridge.OpY1, above(0)),

	Floor:       closedFn("floor", familyRealSpecial, oneReal, realKind),
	Ceil:        closedFn("ceil", familyRealSpecial, oneReal, realKind),
	Trunc:       closedFn("trunc", familyRealSpecial, oneReal, realKind),
	Round:       closedFn("round", familyRealSpecial, oneReal, realKind),
	RoundEven:   closedFn("roundeven", familyRealSpecial, oneReal, realKind),
	Logb:        closedFn("logb", familyRealSpecial, oneReal, realKind),
	Significand: closedFn("significand", familyRealSpecial, oneReal, realKind),

	Signbit:     closedFn("signbit", familyRealToInt, oneReal, intKind),
	Ilogb:       closedFn("ilogb", familyRealToInt, oneReal, intKind),
	Iceil:       closedFn("iceil", familyRealToInt, oneReal, intKind),
	Ifloor:      closedFn("ifloor", familyRealToInt, oneReal, intKind),
	Iround:      closedFn("iround", familyRealToInt, oneReal, intKind),
	Irint:       closedFn("irint", familyRealToInt, oneReal, intKind),
	Isfinite:    closedFn("isfinite", familyRealToInt, oneReal, intKind),
	Isinf:       closedFn("isinf", familyRealToInt, oneReal, intKind),
	Isnan:       closedFn("isnan", familyRealToInt, oneReal, intKind),
	Issignaling: closedFn("issignaling", familyRealToInt, oneReal, intKind),

	Remainder:  binaryFn("remainder", mpbridge.OpRemainder),
	Atan2:      binaryFn("atan2", mpbridge.OpAtan2),
	Atan2pi:    binaryFn("atan2pi", mpbridge.OpAtan2pi),
	Fdim:       binaryFn("fdim", mpbridge.OpFdim),
	Fmod:       binaryFn("fmod", mpbridge.OpFmod),
	Hypot:      binaryFn("hypot", mpbridge.OpHypot),
	Copysign:   binaryFn("copysign", ""),
	Fmin:       binaryFn("fmin", mpbridge.OpFmin),
	Fmax:       binaryFn("fmax", mpbridge.OpFmax),
	Pow:        binaryFn("pow", mpbridge.OpPow),
	Nextafter:  binaryFn("nextafter", ""),
	Nexttoward: binaryFn("nexttoward", ""),

	Ldexp:   closedFn("ldexp", familyRealInt, []shape{shapeReal, shapeInteger}, realKind),
	Scalbn:  closedFn("scalbn", familyRealInt, []shape{shapeReal, shapeInteger}, realKind),
	Scalbln: closedFn("scalbln", familyRealInt, []shape{shapeReal, shapeInteger}, realKind),
	Powi:    closedFn("powi", familyRealInt, []shape{shapeReal, shapeInteger}, realKind),

	Jn: {name: "jn", family: familyIntReal, args: []shape{shapeInteger, shapeReal}, results: realKind, op: mpbridge.OpJn},
	Yn: {name: "yn", family: familyIntReal, args: []shape{shapeInteger, shapeReal}, results: realKind, op: mpbridge.OpYn,
		guard: func(args []ir.RealValue) bool { return above(0)(args[1:]) }},

	Fma:  {name: "fma", family: familyReal3, args: threeReals, results: realKind, op: mpbridge.OpFma},
	Fms:  {name: "fms", family: familyReal3, args: threeReals, results: realKind, op: mpbridge.OpFma},
	Fnma: {name: "fnma", family: familyReal3, args: threeReals, results: realKind, op: mpbridge.OpFma},
	Fnms: {name: "fnms", family: familyReal3, args: threeReals, results: realKind, op: mpbridge.OpFma},

	Cexpi:  closedFn("cexpi", familyRealToComplex, oneReal, complexKind),
	Cabs:   {name: "cabs", family: familyComplexToReal, args: oneComplex, results: realKind, op: mpbridge.OpHypot},
	Csqrt:  complexFn("csqrt", mpbridge.OpCSqrt),
	Cexp:   complexFn("cexp", mpbridge.OpCExp),
	Clog:   complexFn("clog", mpbridge.OpCLog),
	Csin:   complexFn("csin", mpbridge.OpCSin),
	Ccos:   complexFn("ccos", mpbridge.OpCCos),
	Ctan:   complexFn("ctan", mpbridge.OpCTan),
	Csinh:  complexFn("csinh", mpbridge.OpCSinh),
	Ccosh:  complexFn("ccosh", mpbridge.OpCCosh),
	Ctanh:  complexFn("ctanh", mpbridge.OpCTanh),
	Casin:  complexFn("casin", mpbridge.OpCAsin),
	Cacos:  complexFn("cacos", mpbridge.OpCAcos),
	Catan:  complexFn("catan", mpbridge.OpCAtan),
	Casinh: complexFn("casinh", mpbridge.OpCAsinh),
	Cacosh: complexFn("cacosh", mpbridge.OpCAcosh),
	Catanh: complexFn("catanh", mpbridge.OpCAtanh),
	Cproj:  complexFn("cproj", ""),
	Cpow:   {name: "cpow", family: familyComplex2, args: []shape{shapeComplex, shapeComplex}, results: complexKind, op: mpbridge.OpCPow},

	Ffs:      closedFn("ffs", familyInteger, oneInt, intKind),
	Clz:      closedFn("clz", familyInteger, oneInt, intKind),
	Ctz:      closedFn("ctz", familyInteger, oneInt, intKind),
	Clzg:     {name: "clzg", family: familyInteger, args: twoInts, minArgs: 1, results: intKind},
	Ctzg:     {name: "ctzg", family: familyInteger, args: twoInts, minArgs: 1, results: intKind},
	Clrsb:    closedFn("clrsb", familyInteger, oneInt, intKind),
	Popcount: closedFn("popcount", familyInteger, oneInt, intKind),
	Parity:   closedFn("parity", familyInteger, oneInt, intKind),
	Bswap:    closedFn("bswap", familyInteger, oneInt, intKind),

	AddOverflow:   closedFn("add_overflow", familyOverflow, twoInts, complexKind),
	SubOverflow:   closedFn("sub_overflow", familyOverflow, twoInts, complexKind),
	MulOverflow:   closedFn("mul_overflow", familyOverflow, twoInts, complexKind),
	UbsanCheckAdd: closedFn("ubsan_check_add", familyOverflow, twoInts, intKind),
	UbsanCheckSub: closedFn("ubsan_check_sub", familyOverflow, twoInts, intKind),
	UbsanCheckMul: closedFn("ubsan_check_mul", familyOverflow, twoInts, intKind),
	Uaddc:         closedFn("uaddc", familyOverflow, threeInts, complexKind),
	Usubc:         closedFn("usubc", familyOverflow, threeInts, complexKind),

	Strlen:      closedFn("strlen", familyString, oneBytes, intKind),
	Strspn:      closedFn("strspn", familyString, twoBytes, intKind),
	Strcspn:     closedFn("strcspn", familyString, twoBytes, intKind),
	Strcmp:      closedFn("strcmp", familyString, twoBytes, intKind),
	Strcasecmp:  closedFn("strcasecmp", familyString, twoBytes, intKind),
	Strchr:      closedFn("strchr", familyString, bytesInt, pointerKind),
	Strrchr:     closedFn("strrchr", familyString, bytesInt, pointerKind),
	Strstr:      closedFn("strstr", familyString, twoBytes, pointerKind),
	Strncmp:     closedFn("strncmp", familyString, boundedCmp, intKind),
	Strncasecmp: closedFn("strncasecmp", familyString, boundedCmp, intKind),
	Memcmp:      closedFn("memcmp", familyString, boundedCmp, intKind),
	Memchr:      closedFn("memchr", familyString, boundedScan, pointerKind),

	Nan:  closedFn("nan", familyNan, oneBytes, realKind),
	Nans: closedFn("nans", familyNan, oneBytes, realKind),

	ReducPlus:    closedFn("reduc_plus", familyVector, []shape{shapeVector}, scalarKinds),
	ReducMax:     closedFn("reduc_max", familyVector, []shape{shapeVector}, scalarKinds),
	ReducMin:     closedFn("reduc_min", familyVector, []shape{shapeVector}, scalarKinds),
	ReducAnd:     closedFn("reduc_and", familyVector, []shape{shapeVector}, intKind),
	ReducIor:     closedFn("reduc_ior", familyVector, []shape{shapeVector}, intKind),
	ReducXor:     closedFn("reduc_xor", familyVector, []shape{shapeVector}, intKind),
	FoldLeftPlus: closedFn("fold_left_plus", familyVector, []shape{shapeScalar, shapeVector}, scalarKinds),
	VecConvert:   closedFn("vec_convert", familyVector, []shape{shapeVector}, vectorKind),
	WhileUlt:     closedFn("while_ult", familyVector, twoInts, vectorKind),
}

// aliases maps alternative builtin names to their Func.
var aliases = map[string]Func{
	"drem":          Remainder,
	"pow10":         Exp10,
	"finite":        Isfinite,
	"lceil":         Iceil,
	"llceil":        Iceil,
	"lfloor":        Ifloor,
	"llfloor":       Ifloor,
	"lround":        Iround,
	"llround":       Iround,
	"lrint":         Irint,
	"llrint":        Irint,
	"ffsg":          Ffs,
	"clrsbg":        Clrsb,
	"popcountg":     Popcount,
	"parityg":       Parity,
	"bswap16":       Bswap,
	"bswap32":       Bswap,
	"bswap64":       Bswap,
	"bswap128":      Bswap,
	"index":         Strchr,
	"rindex":        Strrchr,
	"bcmp":          Memcmp,
	"nextafterf16b": Nextafter,
}

var byName = func() map[string]Func {
	m := make(map[string]Func, int(numFuncs)+len(aliases))
	for fn := Func(1); fn < numFuncs; fn++ {
		m[specs[fn].name] = fn
	}
	for name, fn := range aliases {
		m[name] = fn
	}
	return m
}()

// ParseFunc returns the Func with the given builtin name or alias.
func ParseFunc(name string) (Func, error) {
	fn, ok := byName[name]
	if !ok {
		return 0, fmt.Errorf("unknown builtin %q", name)
	}
	return fn, nil
}

// Funcs returns every Func in declaration order.
func Funcs() []Func {
	fns := make([]Func, 0, numFuncs-1)
	for fn := Func(1); fn < numFuncs; fn++ {
		fns = append(fns, fn)
	}
	return fns
}

// Names returns every accepted builtin name, aliases included, sorted.
func Names() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (fn Func) String() string {
	if s, ok := fn.spec(); ok {
		return s.name
	}
	return fmt.Sprintf("Func(%d)", uint16(fn))
}

func (fn Func) spec() (*spec, bool) {
	if fn == 0 || fn >= numFuncs {
		return nil, false
	}
	return &specs[fn], true
}

func above(lo int64) guardFunc {
	bound := ir.FromInt64(lo)
	return func(args []ir.RealValue) bool {
		x := args[0]
		return !x.IsNaN() && x.Cmp(bound) > 0
	}
}

func atLeast(lo int64) guardFunc {
	bound := ir.FromInt64(lo)
	return func(args []ir.RealValue) bool {
		x := args[0]
		return !x.IsNaN() && x.Cmp(bound) >= 0
	}
}

func unitInterval(args []ir.RealValue) bool {
	x := args[0]
	return !x.IsNaN() && x.Abs().Cmp(ir.FromInt64(1)) <= 0
}
