package mpbridge

import (
	"fmt"
	"math"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// DecimalBackend evaluates functions with apd decimal arithmetic.
//
// Results that are exact rational functions of the arguments are computed
// exactly. Transcendental results are computed at increasing decimal
// precision until an interval around the approximation rounds to a single
// value at the requested binary precision.
type DecimalBackend struct{}

var _ Backend = (*DecimalBackend)(nil)

// NewDecimalBackend returns the default backend.
func NewDecimalBackend() *DecimalBackend {
	return &DecimalBackend{}
}

// guardDigits are the extra decimal digits tried in turn.
var guardDigits = []int{20, 40, 80}

const (
	// maxExtraDigits caps the digits added for cancellation near zero or one.
	maxExtraDigits = 6000

	// maxDecimalExponent bounds adjusted exponents that overflow or
	// underflow every supported format.
	maxDecimalExponent = 20000

	// maxPowBits bounds the size of exact integer powers.
	maxPowBits = 1 << 20
)

// evaluator holds the per-call apd state: one context at working precision
// and one that never rounds. Constants are computed once per evaluator.
type evaluator struct {
	apd.ErrDecimal
	exact  apd.ErrDecimal
	failed error

	piVal    *apd.Decimal
	eulerVal *apd.Decimal
}

func newEvaluator(precision uint32) *evaluator {
	return &evaluator{
		ErrDecimal: apd.MakeErrDecimal(&apd.Context{
			Precision:   precision,
			MaxExponent: apd.MaxExponent,
			MinExponent: apd.MinExponent,
			Rounding:    apd.RoundHalfEven,
		}),
		exact: apd.MakeErrDecimal(&apd.Context{
			MaxExponent: apd.MaxExponent,
			MinExponent: apd.MinExponent,
		}),
	}
}

func (e *evaluator) err() error {
	if e.failed != nil {
		return e.failed
	}
	if err := e.Err(); err != nil {
		return err
	}
	return e.exact.Err()
}

func (e *evaluator) flags() apd.Condition {
	return e.Flags | e.exact.Flags
}

// cbrt is missing from apd.ErrDecimal.
func (e *evaluator) cbrt(d, x *apd.Decimal) *apd.Decimal {
	if e.Err() != nil {
		return d
	}
	res, err := e.Ctx.Cbrt(d, x)
	e.Flags |= res
	e.failed = err
	return d
}

type decimalFunc func(e *evaluator, d *apd.Decimal, x []*apd.Decimal)

var (
	decOne = apd.New(1, 0)
	decTwo = apd.New(2, 0)
	decTen = apd.New(10, 0)
)

var decimalFuncs = map[Op]decimalFunc{
	OpExp: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.Exp(d, x[0])
	},
	OpExp2: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.Pow(d, decTwo, x[0])
	},
	OpExp10: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.Pow(d, decTen, x[0])
	},
	OpExpm1: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var t apd.Decimal
		e.Exp(&t, x[0])
		e.Sub(d, &t, decOne)
	},
	OpLog: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.Ln(d, x[0])
	},
	OpLog2: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var l, l2 apd.Decimal
		e.Ln(&l, x[0])
		e.Ln(&l2, decTwo)
		e.Quo(d, &l, &l2)
	},
	OpLog10: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.Log10(d, x[0])
	},
	OpLog1p: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var u apd.Decimal
		e.exact.Add(&u, x[0], decOne)
		e.Ln(d, &u)
	},
	OpCbrt: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.cbrt(d, x[0])
	},
	OpPow: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.Pow(d, x[0], x[1])
	},
	OpSinh: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var ex, inv, t apd.Decimal
		e.Exp(&ex, x[0])
		e.Quo(&inv, decOne, &ex)
		e.Sub(&t, &ex, &inv)
		e.Quo(d, &t, decTwo)
	},
	OpCosh: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var ex, inv, t apd.Decimal
		e.Exp(&ex, x[0])
		e.Quo(&inv, decOne, &ex)
		e.Add(&t, &ex, &inv)
		e.Quo(d, &t, decTwo)
	},
	OpTanh: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var x2, ex, num, den apd.Decimal
		e.exact.Mul(&x2, x[0], decTwo)
		e.Exp(&ex, &x2)
		e.Sub(&num, &ex, decOne)
		e.Add(&den, &ex, decOne)
		e.Quo(d, &num, &den)
	},
	OpAsinh: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		// asinh is odd; evaluate at |x| to avoid cancellation.
		var a, sq, r, s apd.Decimal
		a.Abs(x[0])
		e.exact.Mul(&sq, &a, &a)
		e.exact.Add(&sq, &sq, decOne)
		e.Sqrt(&r, &sq)
		e.Add(&s, &a, &r)
		e.Ln(d, &s)
		if x[0].Negative {
			d.Neg(d)
		}
	},
	OpAcosh: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		// x^2-1 = (x-1)(x+1), exactly.
		var lo, hi, sq, r, s apd.Decimal
		e.exact.Sub(&lo, x[0], decOne)
		e.exact.Add(&hi, x[0], decOne)
		e.exact.Mul(&sq, &lo, &hi)
		e.Sqrt(&r, &sq)
		e.Add(&s, x[0], &r)
		e.Ln(d, &s)
	},
	OpAtanh: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var num, den, q, l apd.Decimal
		e.exact.Add(&num, decOne, x[0])
		e.exact.Sub(&den, decOne, x[0])
		e.Quo(&q, &num, &den)
		e.Ln(&l, &q)
		e.Quo(d, &l, decTwo)
	},
}

// seriesFuncs are evaluated from the series in series.go and checked by
// zivChecked.
var seriesFuncs = map[Op]decimalFunc{
	OpSin: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var c apd.Decimal
		e.sinCos(d, &c, x[0])
	},
	OpCos: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var s apd.Decimal
		e.sinCos(&s, d, x[0])
	},
	OpTan: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var s, c apd.Decimal
		e.sinCos(&s, &c, x[0])
		e.Quo(d, &s, &c)
	},
	OpSinpi: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var c apd.Decimal
		e.sinCosPi(d, &c, x[0])
	},
	OpCospi: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var s apd.Decimal
		e.sinCosPi(&s, d, x[0])
	},
	OpTanpi: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		// tan(π(k/2 + f)) is tan πf for even k and -cot πf for odd k.
		k, f := halfTurns(ratOfDecimal(x[0]))
		var t, s, c apd.Decimal
		e.Mul(&t, e.pi(), decimalFromRat(f))
		e.sinCosSeries(&s, &c, &t)
		if k.Bit(0) == 0 {
			e.Quo(d, &s, &c)
		} else {
			negate(e.Quo(d, &c, &s))
		}
	},
	OpAsin: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.asin(d, x[0])
	},
	OpAcos: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.acos(d, x[0])
	},
	OpAtan: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.atan(d, x[0])
	},
	OpAsinpi: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var t apd.Decimal
		e.asin(&t, x[0])
		e.Quo(d, &t, e.pi())
	},
	OpAcospi: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var t apd.Decimal
		e.acos(&t, x[0])
		e.Quo(d, &t, e.pi())
	},
	OpAtanpi: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var t apd.Decimal
		e.atan(&t, x[0])
		e.Quo(d, &t, e.pi())
	},
	OpAtan2: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.atan2(d, x[0], x[1])
	},
	OpAtan2pi: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		var t apd.Decimal
		e.atan2(&t, x[0], x[1])
		e.Quo(d, &t, e.pi())
	},
	OpErf: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.erf(d, x[0])
	},
	OpErfc: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.erfc(d, x[0])
	},
	OpTgamma: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.gamma(d, x[0])
	},
	OpJ0: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.besselJ(d, 0, x[0])
	},
	OpJ1: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.besselJ(d, 1, x[0])
	},
	OpY0: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.besselY(d, 0, x[0])
	},
	OpY1: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		e.besselY(d, 1, x[0])
	},
	OpJn: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		if n, ok := besselOrder(e, x[0]); ok {
			e.besselJ(d, n, x[1])
		}
	},
	OpYn: func(e *evaluator, d *apd.Decimal, x []*apd.Decimal) {
		if n, ok := besselOrder(e, x[0]); ok {
			e.besselY(d, n, x[1])
		}
	},
}

// besselOrder returns the integral order n, failing e when it is out of
// range for the series.
func besselOrder(e *evaluator, n *apd.Decimal) (int64, bool) {
	r := ratOfDecimal(n)
	if !r.IsInt() || !r.Num().IsInt64() || abs64(r.Num().Int64()) > maxBesselOrder {
		e.fail(fmt.Errorf("%w: order %s", ErrInconclusive, n))
		return 0, false
	}
	return r.Num().Int64(), true
}

// Ops whose results are close to a small argument, and ops whose results
// vanish as the argument approaches one. Both need digits beyond the
// target precision to survive cancellation.
var (
	smallArgOps = map[Op]bool{
		OpExpm1: true, OpLog1p: true, OpSinh: true, OpTanh: true,
		OpAsinh: true, OpAtanh: true,
	}
	nearOneOps = map[Op]bool{
		OpLog: true, OpLog2: true, OpLog10: true, OpAcosh: true,
	}
)

// Real implements Backend.
func (b *DecimalBackend) Real(op Op, args []*big.Float, prec uint, mode big.RoundingMode) (Result, error) {
	for _, a := range args {
		if a.IsInf() {
			return Result{}, fmt.Errorf("%s: %w: infinite argument", op, ErrUnsupported)
		}
	}
	if r, ok := exactReal(op, args, prec, mode); ok {
		return r, nil
	}
	if r, ok := exactPoint(op, args, prec, mode); ok {
		return r, nil
	}
	if r, ok := tinyArg(op, args[0], prec, mode); ok {
		return r, nil
	}
	if fn, ok := decimalFuncs[op]; ok {
		return ziv(op, fn, args, prec, mode)
	}
	fn, ok := seriesFuncs[op]
	if !ok {
		return Result{}, fmt.Errorf("%s: %w", op, ErrUnsupported)
	}
	xs := decimalsFromFloats(args)
	parts := func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		fn(e, &out[0], x)
	}
	res, err := zivChecked(op, parts, xs, 1, extraDigits(op, xs, prec), false, prec, mode)
	if err != nil {
		return Result{}, err
	}
	return res[0], nil
}

func decimalsFromFloats(args []*big.Float) []*apd.Decimal {
	xs := make([]*apd.Decimal, len(args))
	for i, a := range args {
		xs[i] = decimalFromFloat(a)
	}
	return xs
}

// extraDigits returns the digits op loses to cancellation at xs.
func extraDigits(op Op, xs []*apd.Decimal, prec uint) int {
	extra := 0
	for _, x := range xs {
		if smallArgOps[op] && !x.IsZero() {
			extra = max(extra, -adjusted(x))
		}
	}
	if nearOneOps[op] {
		var t apd.Decimal
		ed := newEvaluator(0)
		ed.exact.Sub(&t, xs[0], decOne)
		if !t.IsZero() {
			extra = max(extra, -adjusted(&t))
		}
	}
	magnitude := func(x *apd.Decimal) float64 {
		f, _ := x.Float64()
		return math.Abs(f)
	}
	digits := func(f float64) int {
		return int(math.Min(f, maxExtraDigits+1)) + 2
	}
	switch op {
	case OpSin, OpCos, OpTan, OpTgamma:
		// The reduction by π/2 and Stirling's series both scale the
		// absolute error by the argument.
		if !xs[0].IsZero() {
			extra = max(extra, adjusted(xs[0])+3)
		}
	case OpErfc:
		// 1 - erf x for moderate positive x; larger x uses the asymptotic
		// expansion, which loses nothing.
		if c := magnitude(xs[0]) * magnitude(xs[0]) * math.Log10E; xs[0].Sign() > 0 && c <= float64(digitsFor(prec)+100) {
			extra = max(extra, digits(c))
		}
	case OpJ0, OpJ1, OpY0, OpY1:
		extra = max(extra, digits(magnitude(xs[0])*math.Log10E))
	case OpJn, OpYn:
		extra = max(extra, digits(magnitude(xs[1])*math.Log10E))
	}
	return extra
}

// ziv evaluates fn at growing decimal precision until the result rounds
// unambiguously to prec bits.
func ziv(op Op, fn decimalFunc, args []*big.Float, prec uint, mode big.RoundingMode) (Result, error) {
	xs := decimalsFromFloats(args)
	extra := extraDigits(op, xs, prec)
	if extra > maxExtraDigits {
		return Result{}, fmt.Errorf("%s: %w: argument needs %d extra digits", op, ErrInconclusive, extra)
	}

	base := digitsFor(prec)
	for _, guard := range guardDigits {
		e := newEvaluator(uint32(base + guard + extra))
		var d apd.Decimal
		fn(e, &d, xs)
		if err := e.err(); err != nil {
			return Result{}, fmt.Errorf("%s: %w", op, err)
		}
		flags := e.flags()
		switch {
		case d.Form == apd.NaN || d.Form == apd.NaNSignaling:
			return Result{}, nil
		case d.Form == apd.Infinite:
			return Result{Value: new(big.Float).SetPrec(prec).SetInf(d.Negative), Overflow: flags.Overflow()}, nil
		case flags.Overflow() || (!d.IsZero() && adjusted(&d) > maxDecimalExponent):
			return Result{Value: new(big.Float).SetPrec(prec).SetInf(d.Negative), Inexact: true, Overflow: true}, nil
		case flags.Underflow() || (!d.IsZero() && adjusted(&d) < -maxDecimalExponent):
			return Result{Value: signedZero(prec, d.Negative), Inexact: true, Underflow: true}, nil
		case d.IsZero():
			continue
		}
		eps := new(big.Rat).SetFrac(bigOne, pow10(base+guard-3))
		if v, ok := roundInterval(ratOfDecimal(&d), eps, prec, mode); ok {
			return Result{Value: v, Inexact: true}, nil
		}
	}
	return Result{}, fmt.Errorf("%s: %w", op, ErrInconclusive)
}

// crossDigits is how much more precise the second evaluation of each
// zivChecked round is.
const crossDigits = 10

// partsFunc evaluates the parts of a result into out.
type partsFunc func(e *evaluator, out []apd.Decimal, x []*apd.Decimal)

// zivChecked is ziv for series evaluations without a known error bound.
// Each round evaluates fn at two precisions and takes twice their
// difference, plus a few units in the last digit, as the error of the more
// precise one. A part that is exactly zero at both precisions is trusted
// only when zeros is set.
func zivChecked(op Op, fn partsFunc, xs []*apd.Decimal, parts, extra int, zeros bool, prec uint, mode big.RoundingMode) ([]Result, error) {
	if extra > maxExtraDigits {
		return nil, fmt.Errorf("%s: %w: argument needs %d extra digits", op, ErrInconclusive, extra)
	}
	base := digitsFor(prec)
rounds:
	for _, guard := range guardDigits {
		p := base + guard + extra
		lo := make([]apd.Decimal, parts)
		hi := make([]apd.Decimal, parts)
		var flags apd.Condition
		for i, out := range [][]apd.Decimal{lo, hi} {
			e := newEvaluator(uint32(p + i*crossDigits))
			fn(e, out, xs)
			if err := e.err(); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			flags |= e.flags()
		}
		res := make([]Result, parts)
		for i := range res {
			r, ok := checkedPart(&lo[i], &hi[i], p, flags, zeros, prec, mode)
			if !ok {
				continue rounds
			}
			res[i] = r
		}
		return res, nil
	}
	return nil, fmt.Errorf("%s: %w", op, ErrInconclusive)
}

// checkedPart rounds hi, evaluated with p+crossDigits digits, given lo
// evaluated with p digits.
func checkedPart(lo, hi *apd.Decimal, p int, flags apd.Condition, zeros bool, prec uint, mode big.RoundingMode) (Result, bool) {
	switch {
	case hi.Form == apd.NaN || hi.Form == apd.NaNSignaling:
		return Result{}, true
	case hi.Form == apd.Infinite || (!hi.IsZero() && adjusted(hi) > maxDecimalExponent):
		return Result{Value: new(big.Float).SetPrec(prec).SetInf(hi.Negative), Inexact: true, Overflow: true}, true
	case !hi.IsZero() && adjusted(hi) < -maxDecimalExponent, hi.IsZero() && flags.Underflow():
		return Result{Value: signedZero(prec, hi.Negative), Inexact: true, Underflow: true}, true
	case lo.Form != apd.Finite:
		return Result{}, false
	case hi.IsZero() || lo.IsZero():
		if zeros && hi.IsZero() && lo.IsZero() && hi.Negative == lo.Negative {
			return Result{Value: signedZero(prec, hi.Negative)}, true
		}
		return Result{}, false
	}
	y := ratOfDecimal(hi)
	delta := new(big.Rat).Sub(y, ratOfDecimal(lo))
	delta.Abs(delta)
	delta.Mul(delta, big.NewRat(2, 1))
	ulps := new(big.Rat).Abs(y)
	ulps.Quo(ulps, new(big.Rat).SetInt(pow10(p-3)))
	delta.Add(delta, ulps)
	a, _ := roundRat(new(big.Rat).Sub(y, delta), prec, mode)
	b, _ := roundRat(new(big.Rat).Add(y, delta), prec, mode)
	if a.Cmp(b) != 0 || a.Signbit() != b.Signbit() {
		return Result{}, false
	}
	return Result{Value: b, Inexact: true}, true
}

// tinyArg handles arguments so close to zero that f(x) = x(1 + c x^k) for
// k of 1 or 2 lies strictly between x and its neighbour. The result then
// rounds like any point of that gap.
func tinyArg(op Op, x *big.Float, prec uint, mode big.RoundingMode) (Result, bool) {
	if x.Sign() == 0 {
		return Result{}, false
	}
	exp := x.MantExp(nil)
	var up bool
	switch op {
	case OpExpm1, OpLog1p:
		if exp > -int(prec+3) {
			return Result{}, false
		}
		up = (op == OpExpm1) == (x.Sign() > 0)
	case OpSinh, OpAsin, OpAtanh, OpTan:
		if exp > -int((prec+4)/2) {
			return Result{}, false
		}
		up = true
	case OpTanh, OpAsinh, OpAtan, OpSin:
		if exp > -int((prec+4)/2) {
			return Result{}, false
		}
	default:
		return Result{}, false
	}
	nudge := new(big.Rat).SetFrac(bigOne, new(big.Int).Lsh(bigOne, prec+3))
	if !up {
		nudge.Neg(nudge)
	}
	nudge.Add(nudge, big.NewRat(1, 1))
	v, _ := roundRat(nudge.Mul(nudge, ratOf(x)), prec, mode)
	return Result{Value: v, Inexact: true}, true
}

// roundInterval rounds y*(1-eps) and y*(1+eps) and reports the common
// result, if any.
func roundInterval(y, eps *big.Rat, prec uint, mode big.RoundingMode) (*big.Float, bool) {
	delta := new(big.Rat).Abs(y)
	delta.Mul(delta, eps)
	lo, _ := roundRat(new(big.Rat).Sub(y, delta), prec, mode)
	hi, _ := roundRat(new(big.Rat).Add(y, delta), prec, mode)
	if lo.Cmp(hi) != 0 || lo.Signbit() != hi.Signbit() {
		return nil, false
	}
	return hi, true
}

// digitsFor returns the decimal digits needed to carry prec bits.
func digitsFor(prec uint) int {
	return int(math.Ceil(float64(prec)*math.Log10(2))) + 1
}

// adjusted returns the exponent of the most significant digit of d.
func adjusted(d *apd.Decimal) int {
	return int(d.Exponent) + int(d.NumDigits()) - 1
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// decimalFromFloat converts a finite x exactly, keeping the sign of zero.
func decimalFromFloat(x *big.Float) *apd.Decimal {
	d := decimalFromRat(ratOf(x))
	d.Negative = x.Signbit()
	return d
}

// decimalFromRat converts a dyadic r exactly: m/2^k = m*5^k/10^k.
func decimalFromRat(r *big.Rat) *apd.Decimal {
	k := dyadicExp(r)
	coeff := new(big.Int).Exp(big.NewInt(5), big.NewInt(int64(k)), nil)
	coeff.Mul(coeff, new(big.Int).Abs(r.Num()))
	d := apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(coeff), int32(-k))
	d.Negative = r.Sign() < 0
	return d
}

// ratOfDecimal returns the exact value of a finite d.
func ratOfDecimal(d *apd.Decimal) *big.Rat {
	c := d.Coeff.MathBigInt()
	if d.Negative {
		c.Neg(c)
	}
	if d.Exponent >= 0 {
		return new(big.Rat).SetInt(c.Mul(c, pow10(int(d.Exponent))))
	}
	return new(big.Rat).SetFrac(c, pow10(int(-d.Exponent)))
}

// exactPoint handles arguments where a transcendental function has an
// exactly known value: identities at zero and one, integral powers, poles,
// rational multiples of π, and arguments outside the function's domain.
func exactPoint(op Op, args []*big.Float, prec uint, mode big.RoundingMode) (Result, bool) {
	x := args[0]
	one := func() (Result, bool) {
		return Result{Value: new(big.Float).SetPrec(prec).SetInt64(1)}, true
	}
	same := func() (Result, bool) {
		return Result{Value: new(big.Float).SetPrec(prec).Set(x)}, true
	}
	inf := func(neg bool) (Result, bool) {
		return Result{Value: new(big.Float).SetPrec(prec).SetInf(neg)}, true
	}
	rat := func(r *big.Rat) (Result, bool) {
		return ratResult(r, prec, mode)
	}
	isOne := x.Cmp(big.NewFloat(1)) == 0

	switch op {
	case OpExp, OpCosh:
		if x.Sign() == 0 {
			return one()
		}
	case OpExp2:
		if n, acc := x.Int64(); acc == big.Exact {
			if n > -maxDecimalExponent*4 && n < maxDecimalExponent*4 {
				v := new(big.Float).SetPrec(prec).SetInt64(1)
				return Result{Value: v.SetMantExp(v, int(n))}, true
			}
		}
	case OpExp10:
		if n, acc := x.Int64(); acc == big.Exact {
			if n >= -5000 && n <= 5000 {
				r := new(big.Rat).SetInt(pow10(int(abs64(n))))
				if n < 0 {
					r.Inv(r)
				}
				return rat(r)
			}
		}
	case OpExpm1, OpLog1p, OpSinh, OpTanh, OpAsinh, OpAtanh:
		if x.Sign() == 0 {
			return same()
		}
		if op == OpAtanh && (isOne || x.Cmp(big.NewFloat(-1)) == 0) {
			return inf(x.Signbit())
		}
		below := x.Cmp(big.NewFloat(-1)) < 0
		if (op == OpLog1p && below) || (op == OpAtanh && (below || x.Cmp(big.NewFloat(1)) > 0)) {
			return Result{}, true
		}
		if op == OpLog1p && x.Cmp(big.NewFloat(-1)) == 0 {
			return inf(true)
		}
	case OpLog, OpLog2, OpLog10:
		switch {
		case x.Sign() < 0:
			return Result{}, true
		case x.Sign() == 0:
			return inf(true)
		case isOne:
			return Result{Value: signedZero(prec, false)}, true
		}
		if op == OpLog2 {
			mant := new(big.Float)
			e := x.MantExp(mant)
			if mant.Cmp(big.NewFloat(0.5)) == 0 {
				return rat(new(big.Rat).SetInt64(int64(e - 1)))
			}
		}
		if op == OpLog10 && x.IsInt() {
			n, _ := x.Int(nil)
			if k, ok := log10Exact(n); ok {
				return rat(new(big.Rat).SetInt64(int64(k)))
			}
		}
	case OpAcosh:
		if x.Cmp(big.NewFloat(1)) < 0 {
			return Result{}, true
		}
		if isOne {
			return Result{Value: signedZero(prec, false)}, true
		}
	case OpCbrt:
		if x.Sign() == 0 {
			return same()
		}
		if c, ok := cbrtExact(ratOf(x)); ok {
			return rat(c)
		}
	case OpPow:
		return powPoint(x, args[1], prec, mode)
	case OpSin, OpTan, OpAtan, OpJ1:
		if x.Sign() == 0 {
			return same()
		}
	case OpCos, OpJ0:
		if x.Sign() == 0 {
			return one()
		}
	case OpAtanpi:
		if x.Sign() == 0 {
			return same()
		}
		if r := ratOf(x); r.IsInt() && r.Num().CmpAbs(bigOne) == 0 {
			return rat(r.Mul(r, big.NewRat(1, 4)))
		}
	case OpAsin, OpAcos, OpAsinpi, OpAcospi:
		return inverseTrigPoint(op, x, prec, mode)
	case OpSinpi, OpCospi, OpTanpi:
		return piTrigPoint(op, x, prec, mode)
	case OpErf, OpErfc:
		return erfPoint(op, x, prec, mode)
	case OpTgamma:
		return gammaPoint(x, prec, mode)
	case OpY0, OpY1:
		return besselYPoint(x, 1, prec)
	case OpJn:
		if args[1].Sign() == 0 {
			n, _ := x.Int64()
			switch {
			case n == 0:
				return one()
			case n%2 != 0:
				return Result{Value: signedZero(prec, args[1].Signbit() != (n < 0))}, true
			}
			return Result{Value: signedZero(prec, false)}, true
		}
	case OpYn:
		n, _ := x.Int64()
		sign := int64(1)
		if n < 0 && n%2 != 0 {
			sign = -1
		}
		return besselYPoint(args[1], sign, prec)
	case OpAtan2, OpAtan2pi:
		y := args[1]
		if x.Sign() == 0 && (y.Sign() > 0 || (y.Sign() == 0 && !y.Signbit())) {
			return same()
		}
		if op == OpAtan2pi {
			return atan2piPoint(x, y, prec, mode)
		}
	}
	return Result{}, false
}

func ratResult(r *big.Rat, prec uint, mode big.RoundingMode) (Result, bool) {
	v, inexact := roundRat(r, prec, mode)
	return Result{Value: v, Inexact: inexact}, true
}

// inverseTrigPoint handles arguments outside [-1, 1] and the arguments at
// which the π-scaled inverses are rational.
func inverseTrigPoint(op Op, x *big.Float, prec uint, mode big.RoundingMode) (Result, bool) {
	r := ratOf(x)
	if new(big.Rat).Abs(r).Cmp(big.NewRat(1, 1)) > 0 {
		return Result{}, true
	}
	if x.Sign() == 0 && (op == OpAsin || op == OpAsinpi) {
		return Result{Value: new(big.Float).SetPrec(prec).Set(x)}, true
	}
	if r.Cmp(big.NewRat(1, 1)) == 0 && (op == OpAcos || op == OpAcospi) {
		return Result{Value: signedZero(prec, false)}, true
	}
	var known map[string]*big.Rat
	switch op {
	case OpAsinpi:
		known = map[string]*big.Rat{
			"1": big.NewRat(1, 2), "-1": big.NewRat(-1, 2),
			"1/2": big.NewRat(1, 6), "-1/2": big.NewRat(-1, 6),
		}
	case OpAcospi:
		known = map[string]*big.Rat{
			"-1": big.NewRat(1, 1), "0": big.NewRat(1, 2),
			"1/2": big.NewRat(1, 3), "-1/2": big.NewRat(2, 3),
		}
	}
	if v, ok := known[r.RatString()]; ok {
		return ratResult(v, prec, mode)
	}
	return Result{}, false
}

// piTrigPoint handles sinpi, cospi and tanpi at multiples of 1/2, where the
// result is 0, ±1 or a pole, and tanpi at odd multiples of 1/4.
func piTrigPoint(op Op, x *big.Float, prec uint, mode big.RoundingMode) (Result, bool) {
	k, f := halfTurns(ratOf(x))
	quadrant := new(big.Int).Mod(k, big.NewInt(4)).Int64()
	unit := func(neg bool) (Result, bool) {
		v := new(big.Float).SetPrec(prec).SetInt64(1)
		if neg {
			v.Neg(v)
		}
		return Result{Value: v}, true
	}
	if f.Sign() != 0 {
		if op == OpTanpi && new(big.Rat).Abs(f).Cmp(big.NewRat(1, 4)) == 0 {
			return unit((f.Sign() < 0) == (k.Bit(0) == 0))
		}
		return Result{}, false
	}
	switch op {
	case OpSinpi:
		if quadrant%2 == 0 {
			return Result{Value: signedZero(prec, x.Signbit())}, true
		}
		return unit(quadrant == 3)
	case OpCospi:
		if quadrant%2 == 1 {
			return Result{Value: signedZero(prec, false)}, true
		}
		return unit(quadrant == 2)
	default:
		// tanpi(n) has the sign of x for even n, and tanpi(n + 1/2) is +inf
		// for even n.
		if quadrant%2 == 0 {
			return Result{Value: signedZero(prec, x.Signbit() != (quadrant == 2))}, true
		}
		return Result{Value: new(big.Float).SetPrec(prec).SetInf(quadrant == 3)}, true
	}
}

// erfPoint handles erf and erfc at zero, where they saturate, and where
// erfc underflows every format.
func erfPoint(op Op, x *big.Float, prec uint, mode big.RoundingMode) (Result, bool) {
	if x.Sign() == 0 {
		if op == OpErf {
			return Result{Value: new(big.Float).SetPrec(prec).Set(x)}, true
		}
		return Result{Value: new(big.Float).SetPrec(prec).SetInt64(1)}, true
	}
	xf, _ := x.Float64()
	// |erfc x| < e^(-x²) < 2^-(prec+10) past this bound.
	saturated := math.Abs(xf) >= math.Sqrt(float64(prec+10)*0.7)
	below := func(n int64, bits uint) *big.Rat {
		r := new(big.Rat).SetFrac(bigOne, new(big.Int).Lsh(bigOne, bits))
		return r.Sub(big.NewRat(n, 1), r)
	}
	switch {
	case op == OpErf && saturated:
		r := below(1, prec+10)
		if x.Sign() < 0 {
			r.Neg(r)
		}
		return ratResult(r, prec, mode)
	case op == OpErfc && saturated && x.Sign() < 0:
		return ratResult(below(2, prec+9), prec, mode)
	case op == OpErfc && xf*xf*math.Log10E > maxDecimalExponent:
		return Result{Value: signedZero(prec, false), Inexact: true, Underflow: true}, true
	}
	return Result{}, false
}

// maxGammaArg bounds the arguments tgamma evaluates: Γ(2000) exceeds every
// supported format.
const maxGammaArg = 2000

// gammaPoint handles the poles of tgamma, positive integers, where the
// result is a factorial, and arguments far enough out to overflow or
// underflow.
func gammaPoint(x *big.Float, prec uint, mode big.RoundingMode) (Result, bool) {
	if x.Sign() == 0 {
		return Result{Value: new(big.Float).SetPrec(prec).SetInf(x.Signbit())}, true
	}
	if x.IsInt() {
		if x.Sign() < 0 {
			return Result{}, true
		}
		if n, acc := x.Int64(); acc == big.Exact && n <= maxGammaArg {
			return ratResult(new(big.Rat).SetInt(new(big.Int).MulRange(1, n-1)), prec, mode)
		}
	}
	switch {
	case x.Cmp(big.NewFloat(maxGammaArg)) >= 0:
		return powRange(true, false, prec)
	case x.Cmp(big.NewFloat(-maxGammaArg)) < 0 && prec <= maxGammaArg:
		// Γ alternates sign between the poles: it is negative on
		// (-1, 0), (-3, -2) and so on.
		t, _ := x.Int(nil)
		return powRange(false, t.Bit(0) == 0, prec)
	}
	return Result{}, false
}

// besselYPoint handles Y_n outside x > 0: -inf at zero, scaled by sign,
// and NaN for negative x.
func besselYPoint(x *big.Float, sign int64, prec uint) (Result, bool) {
	switch {
	case x.Sign() == 0:
		return Result{Value: new(big.Float).SetPrec(prec).SetInf(sign > 0)}, true
	case x.Sign() < 0:
		return Result{}, true
	}
	return Result{}, false
}

// atan2piPoint handles atan2pi where the angle is a multiple of 1/4 turn
// of π: on the axes and the diagonals.
func atan2piPoint(y, x *big.Float, prec uint, mode big.RoundingMode) (Result, bool) {
	var r *big.Rat
	switch {
	case y.Sign() == 0:
		// atan2pi(±0, x) for x < 0 or x = -0; the other half-plane is
		// handled by the caller.
		r = big.NewRat(1, 1)
	case x.Sign() == 0:
		r = big.NewRat(1, 2)
	case new(big.Float).Abs(y).Cmp(new(big.Float).Abs(x)) == 0:
		r = big.NewRat(1, 4)
		if x.Sign() < 0 {
			r = big.NewRat(3, 4)
		}
	default:
		return Result{}, false
	}
	if y.Signbit() {
		r.Neg(r)
	}
	return ratResult(r, prec, mode)
}

// powPoint evaluates pow exactly where the result is rational or follows
// from a zero or unit argument.
func powPoint(x, y *big.Float, prec uint, mode big.RoundingMode) (Result, bool) {
	yInt := y.IsInt()
	neg := false
	if yInt && x.Signbit() {
		n, _ := y.Int(nil)
		neg = n.Bit(0) == 1
	}
	switch {
	case y.Sign() == 0 || x.Cmp(big.NewFloat(1)) == 0:
		return Result{Value: new(big.Float).SetPrec(prec).SetInt64(1)}, true
	case x.Sign() == 0:
		if y.Sign() > 0 {
			return Result{Value: signedZero(prec, neg)}, true
		}
		return Result{Value: new(big.Float).SetPrec(prec).SetInf(neg)}, true
	case x.Sign() < 0 && !yInt:
		return Result{}, true
	}

	// 2^(mag-1) <= |x| < 2^mag, so log2 of the result lies between
	// (mag-1)*y and mag*y. Far outside every format's range the result
	// only needs its direction.
	mag := int64(x.MantExp(nil))
	grows := (mag > 0) == (y.Sign() > 0)
	exp := ratOf(y)
	if !exp.Num().IsInt64() || abs64(exp.Num().Int64()) > 1<<18 {
		if mag >= 2 || mag <= -1 {
			return powRange(grows, neg, prec)
		}
		return Result{}, false
	}
	if n := exp.Num().Int64(); exp.IsInt() {
		lo, hi := (mag-1)*n, mag*n
		if lo > hi {
			lo, hi = hi, lo
		}
		if lo > 1<<18 || hi < -(1<<18) {
			return powRange(lo > 0, neg, prec)
		}
	}

	base := ratOf(x)
	if !yInt {
		// A half-integral exponent is an integral power of sqrt(x).
		twice := new(big.Rat).Mul(exp, big.NewRat(2, 1))
		if !twice.IsInt() {
			return Result{}, false
		}
		s, ok := sqrtExact(base)
		if !ok {
			return Result{}, false
		}
		base, exp = s, twice
	}
	n := exp.Num().Int64()
	if size := int64(base.Num().BitLen()+base.Denom().BitLen()) * abs64(n); size > maxPowBits {
		return Result{}, false
	}
	r, _ := ratPowInt(base, n)
	v, inexact := roundRat(r, prec, mode)
	return Result{Value: v, Inexact: inexact}, true
}

// powRange reports the overflow or underflow of a power far outside every
// format's range.
func powRange(overflow, neg bool, prec uint) (Result, bool) {
	if overflow {
		return Result{Value: new(big.Float).SetPrec(prec).SetInf(neg), Inexact: true, Overflow: true}, true
	}
	return Result{Value: signedZero(prec, neg), Inexact: true, Underflow: true}, true
}

// log10Exact returns k when n = 10^k for k >= 0.
func log10Exact(n *big.Int) (int, bool) {
	if n.Sign() <= 0 {
		return 0, false
	}
	ten := big.NewInt(10)
	q, r := new(big.Int).Set(n), new(big.Int)
	k := 0
	for q.Cmp(bigOne) > 0 {
		q.QuoRem(q, ten, r)
		if r.Sign() != 0 {
			return 0, false
		}
		k++
	}
	return k, true
}

func abs64(n int64) int64 {
	if n < 0 {
		return -n
	}
	return n
}
