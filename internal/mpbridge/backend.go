// Package mpbridge connects fold requests to an arbitrary-precision math
// backend and certifies the results.
//
// A Backend evaluates a named function at a caller-chosen binary precision
// and rounding mode and reports whether the result is exact. The gate
// (Check, CheckComplex) then decides whether a backend result can stand in
// for the value the run-time library would compute in the target format.
package mpbridge

import (
	"errors"
	"math/big"
)

// Op names a mathematical function a backend may implement.
type Op string

// Real functions.
const (
	OpSqrt      Op = "sqrt"
	OpCbrt      Op = "cbrt"
	OpExp       Op = "exp"
	OpExp2      Op = "exp2"
	OpExp10     Op = "exp10"
	OpExpm1     Op = "expm1"
	OpLog       Op = "log"
	OpLog2      Op = "log2"
	OpLog10     Op = "log10"
	OpLog1p     Op = "log1p"
	OpSin       Op = "sin"
	OpCos       Op = "cos"
	OpTan       Op = "tan"
	OpAsin      Op = "asin"
	OpAcos      Op = "acos"
	OpAtan      Op = "atan"
	OpSinh      Op = "sinh"
	OpCosh      Op = "cosh"
	OpTanh      Op = "tanh"
	OpAsinh     Op = "asinh"
	OpAcosh     Op = "acosh"
	OpAtanh     Op = "atanh"
	OpSinpi     Op = "sinpi"
	OpCospi     Op = "cospi"
	OpTanpi     Op = "tanpi"
	OpAsinpi    Op = "asinpi"
	OpAcospi    Op = "acospi"
	OpAtanpi    Op = "atanpi"
	OpErf       Op = "erf"
	OpErfc      Op = "erfc"
	OpTgamma    Op = "tgamma"
	OpJ0        Op = "j0"
	OpJ1        Op = "j1"
	OpY0        Op = "y0"
	OpY1        Op = "y1"
	OpJn        Op = "jn"
	OpYn        Op = "yn"
	OpAtan2     Op = "atan2"
	OpAtan2pi   Op = "atan2pi"
	OpPow       Op = "pow"
	OpHypot     Op = "hypot"
	OpFmod      Op = "fmod"
	OpRemainder Op = "remainder"
	OpFdim      Op = "fdim"
	OpFmin      Op = "fmin"
	OpFmax      Op = "fmax"
	OpFma       Op = "fma"
)

// Complex functions.
const (
	OpCSin   Op = "csin"
	OpCCos   Op = "ccos"
	OpCTan   Op = "ctan"
	OpCSinh  Op = "csinh"
	OpCCosh  Op = "ccosh"
	OpCTanh  Op = "ctanh"
	OpCAsin  Op = "casin"
	OpCAcos  Op = "cacos"
	OpCAtan  Op = "catan"
	OpCAsinh Op = "casinh"
	OpCAcosh Op = "cacosh"
	OpCAtanh Op = "catanh"
	OpCLog   Op = "clog"
	OpCExp   Op = "cexp"
	OpCSqrt  Op = "csqrt"
	OpCPow   Op = "cpow"
)

var (
	// ErrUnsupported means the backend has no implementation of the
	// function, or none at the given arguments.
	ErrUnsupported = errors.New("function not supported by backend")

	// ErrInconclusive means the backend could not pin the correctly
	// rounded result down within its precision limits.
	ErrInconclusive = errors.New("backend result inconclusive")
)

// Result is a backend's answer for a real function.
type Result struct {
	// Value is rounded to the requested precision. It is nil when the
	// mathematical result is not a number.
	Value *big.Float

	Inexact   bool
	Overflow  bool
	Underflow bool
}

// Complex is a complex operand or result in working precision.
type Complex struct {
	Re, Im *big.Float
}

// ComplexResult is a backend's answer for a complex function. Either part
// is nil when it is not a number.
type ComplexResult struct {
	Value Complex

	Inexact   bool
	Overflow  bool
	Underflow bool
}

// Backend evaluates mathematical functions at a chosen precision.
//
// Implementations must be safe for concurrent use: any scratch state lives
// in the call, never in the Backend value.
type Backend interface {
	Real(op Op, args []*big.Float, prec uint, mode big.RoundingMode) (Result, error)
	Complex(op Op, args []Complex, prec uint, mode big.RoundingMode) (ComplexResult, error)
}
