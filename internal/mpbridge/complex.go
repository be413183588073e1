package mpbridge

import (
	"fmt"
	"math/big"

	"github.com/cockroachdb/apd/v3"
)

// Complex implements Backend. csqrt and integral powers are computed
// exactly where possible; the rest are built from the real series and
// checked part by part like Real.
func (b *DecimalBackend) Complex(op Op, args []Complex, prec uint, mode big.RoundingMode) (ComplexResult, error) {
	for _, a := range args {
		if a.Re.IsInf() || a.Im.IsInf() {
			return ComplexResult{}, fmt.Errorf("%s: %w: infinite argument", op, ErrUnsupported)
		}
	}
	switch op {
	case OpCSqrt:
		return csqrt(args[0], prec, mode)
	case OpCPow:
		if r, ok := cpowExact(args[0], args[1], prec, mode); ok {
			return r, nil
		}
	default:
		if r, ok := complexPoint(op, args[0], prec); ok {
			return r, nil
		}
	}
	fn, ok := complexFuncs[op]
	if !ok {
		return ComplexResult{}, fmt.Errorf("%s: %w", op, ErrUnsupported)
	}
	if err := complexPole(op, args[0]); err != nil {
		return ComplexResult{}, err
	}
	xs := make([]*apd.Decimal, 0, 2*len(args))
	for _, a := range args {
		xs = append(xs, decimalFromFloat(a.Re), decimalFromFloat(a.Im))
	}
	// The sign of an exactly zero part of a general power depends on the
	// library's evaluation order.
	res, err := zivChecked(op, fn, xs, 2, complexExtraDigits(op, xs), op != OpCPow, prec, mode)
	if err != nil {
		return ComplexResult{}, err
	}
	re, im := res[0], res[1]
	return ComplexResult{
		Value:     Complex{Re: re.Value, Im: im.Value},
		Inexact:   re.Inexact || im.Inexact,
		Overflow:  re.Overflow || im.Overflow,
		Underflow: re.Underflow || im.Underflow,
	}, nil
}

// complexPole rejects the arguments at which op has a logarithmic pole.
func complexPole(op Op, z Complex) error {
	zero := z.Re.Sign() == 0 && z.Im.Sign() == 0
	unit := func(x, y *big.Float) bool {
		return x.Sign() == 0 && new(big.Float).Abs(y).Cmp(big.NewFloat(1)) == 0
	}
	switch {
	case (op == OpCLog || op == OpCPow) && zero,
		op == OpCAtan && unit(z.Re, z.Im),
		op == OpCAtanh && unit(z.Im, z.Re):
		return fmt.Errorf("%s: %w: pole at (%s, %s)", op, ErrUnsupported, z.Re.Text('g', 10), z.Im.Text('g', 10))
	}
	return nil
}

// complexExtraDigits returns the digits lost reducing the periodic part of
// an argument, or scaling the logarithm of a power.
func complexExtraDigits(op Op, xs []*apd.Decimal) int {
	digits := func(d *apd.Decimal, pad int) int {
		if d.IsZero() {
			return 0
		}
		return max(0, adjusted(d)+pad)
	}
	switch op {
	case OpCExp, OpCSinh, OpCCosh:
		return digits(xs[1], 3)
	case OpCSin, OpCCos:
		return digits(xs[0], 3)
	case OpCTan:
		return digits(xs[0], 4)
	case OpCTanh:
		return digits(xs[1], 4)
	case OpCPow:
		return max(digits(xs[2], 8), digits(xs[3], 8))
	}
	return 0
}

// complexFuncs evaluate out[0] + out[1]i from the real and imaginary parts
// of each argument in turn.
var complexFuncs = map[Op]partsFunc{
	OpCExp: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		e.cexp(&out[0], &out[1], x[0], x[1])
	},
	OpCSin: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		// sin(a+bi) = sin a cosh b + i cos a sinh b
		var s, c, sh, ch apd.Decimal
		e.sinCos(&s, &c, x[0])
		e.sinhCosh(&sh, &ch, x[1])
		e.Mul(&out[0], &s, &ch)
		e.Mul(&out[1], &c, &sh)
	},
	OpCCos: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		// cos(a+bi) = cos a cosh b - i sin a sinh b
		var s, c, sh, ch apd.Decimal
		e.sinCos(&s, &c, x[0])
		e.sinhCosh(&sh, &ch, x[1])
		e.Mul(&out[0], &c, &ch)
		negate(e.Mul(&out[1], &s, &sh))
	},
	OpCSinh: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		// sinh(a+bi) = sinh a cos b + i cosh a sin b
		var s, c, sh, ch apd.Decimal
		e.sinhCosh(&sh, &ch, x[0])
		e.sinCos(&s, &c, x[1])
		e.Mul(&out[0], &sh, &c)
		e.Mul(&out[1], &ch, &s)
	},
	OpCCosh: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		// cosh(a+bi) = cosh a cos b + i sinh a sin b
		var s, c, sh, ch apd.Decimal
		e.sinhCosh(&sh, &ch, x[0])
		e.sinCos(&s, &c, x[1])
		e.Mul(&out[0], &ch, &c)
		e.Mul(&out[1], &sh, &s)
	},
	OpCTan: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		e.tanParts(&out[0], &out[1], x[0], x[1])
	},
	OpCTanh: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		// tanh z = -i tan(iz), which swaps the roles of the parts.
		e.tanParts(&out[1], &out[0], x[1], x[0])
	},
	OpCLog: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		e.clog(&out[0], &out[1], x[0], x[1])
	},
	OpCAsin: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		e.casin(&out[0], &out[1], x[0], x[1])
	},
	OpCAcos: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		var ln, root, ax, ay apd.Decimal
		e.asinCore(&ln, &root, ax.Abs(x[0]), ay.Abs(x[1]))
		e.atan2(&out[0], &root, x[0])
		out[1].Set(&ln)
		out[1].Negative = !x[1].Negative
	},
	OpCAsinh: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		// asinh z = -i asin(iz)
		var re, im, ny apd.Decimal
		e.casin(&re, &im, negate(ny.Set(x[1])), x[0])
		out[0].Set(&im)
		negate(out[1].Set(&re))
	},
	OpCAcosh: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		var ln, root, ax, ay apd.Decimal
		e.asinCore(&ln, &root, ax.Abs(x[0]), ay.Abs(x[1]))
		out[0].Set(&ln)
		e.atan2(&out[1], &root, x[0])
		out[1].Negative = x[1].Negative
	},
	OpCAtan: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		e.catan(&out[0], &out[1], x[0], x[1])
	},
	OpCAtanh: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		// atanh z = -i atan(iz)
		var re, im, ny apd.Decimal
		e.catan(&re, &im, negate(ny.Set(x[1])), x[0])
		out[0].Set(&im)
		negate(out[1].Set(&re))
	},
	OpCPow: func(e *evaluator, out []apd.Decimal, x []*apd.Decimal) {
		// z^w = exp(w log z)
		var l, t, u, v, p apd.Decimal
		e.clog(&l, &t, x[0], x[1])
		e.Mul(&u, x[2], &l)
		e.Mul(&p, x[3], &t)
		e.Sub(&u, &u, &p)
		e.Mul(&v, x[2], &t)
		e.Mul(&p, x[3], &l)
		e.Add(&v, &v, &p)
		e.cexp(&out[0], &out[1], &u, &v)
	},
}

// cexp sets re + im i to e^a (cos b + i sin b).
func (e *evaluator) cexp(re, im, a, b *apd.Decimal) {
	var ea, s, c apd.Decimal
	e.Exp(&ea, a)
	e.sinCos(&s, &c, b)
	e.Mul(re, &ea, &c)
	e.Mul(im, &ea, &s)
}

// tanParts sets re + im i to tan(a+bi). With q = e^(-2|b|) and
// m = e^(-4|b|) - 1 it is
// (2q sin 2a - m i sign b) / (2 + m + 2q cos 2a),
// which stays finite for large |b|.
func (e *evaluator) tanParts(re, im, a, b *apd.Decimal) {
	var a2, b2, q, m, s, c, den, t apd.Decimal
	e.exact.Mul(&a2, a, decTwo)
	e.exact.Mul(&b2, b, decTwo)
	b2.Negative = true
	e.Exp(&q, &b2)
	e.exact.Mul(&b2, &b2, decTwo)
	e.expm1(&m, &b2)
	e.sinCos(&s, &c, &a2)
	e.Mul(&t, &q, &c)
	e.Mul(&t, &t, decTwo)
	e.Add(&den, decTwo, &m)
	e.Add(&den, &den, &t)
	e.Mul(&t, &q, &s)
	e.Mul(&t, &t, decTwo)
	e.Quo(re, &t, &den)
	e.Quo(im, negate(&m), &den)
	im.Negative = b.Negative
}

// clog sets re + im i to log(a+bi) = log|z| + i arg z, taking
// log|z| = log1p(a² + b² - 1)/2 with the argument of log1p exact.
func (e *evaluator) clog(re, im, a, b *apd.Decimal) {
	var t, u apd.Decimal
	e.exact.Mul(&t, a, a)
	e.exact.Mul(&u, b, b)
	e.exact.Add(&t, &t, &u)
	e.exact.Sub(&t, &t, decOne)
	e.log1p(&u, &t)
	e.Mul(re, &u, decHalf)
	e.atan2(im, b, a)
}

// asinCore computes, for ax, ay >= 0, the two quantities casin and its
// relatives share: ln = log(A + sqrt(A² - 1)) and root = sqrt(A² - ax²),
// where A = (|z+1| + |z-1|)/2. A - 1 and A - ax are formed without
// cancellation.
func (e *evaluator) asinCore(ln, root, ax, ay *apd.Decimal) {
	var y2, r, s, t, fr, fs, oneMinus apd.Decimal
	e.exact.Mul(&y2, ay, ay)
	e.exact.Sub(&oneMinus, decOne, ax)

	e.exact.Add(&t, ax, decOne)
	e.exact.Mul(&t, &t, &t)
	e.exact.Add(&t, &t, &y2)
	e.Sqrt(&r, &t)
	e.exact.Mul(&t, &oneMinus, &oneMinus)
	e.exact.Add(&t, &t, &y2)
	e.Sqrt(&s, &t)

	// fr = r - (ax+1) and fs = s - |1-ax|
	if !ay.IsZero() {
		e.Add(&t, &r, ax)
		e.Add(&t, &t, decOne)
		e.Quo(&fr, &y2, &t)
		e.Abs(&t, &oneMinus)
		e.Add(&t, &t, &s)
		e.Quo(&fs, &y2, &t)
	}

	var am1, amx, sum apd.Decimal
	e.Add(&sum, &fr, &fs)
	e.Mul(&sum, &sum, decHalf)
	if oneMinus.Negative && !oneMinus.IsZero() {
		amx.Set(&sum)
		e.Sub(&am1, ax, decOne)
		e.Add(&am1, &am1, &sum)
	} else {
		am1.Set(&sum)
		e.Add(&amx, &fr, &s)
		e.Add(&amx, &amx, &oneMinus)
		e.Mul(&amx, &amx, decHalf)
	}

	// root = sqrt((A-ax)(A+ax))
	var apx apd.Decimal
	e.Add(&apx, &amx, ax)
	e.Add(&apx, &apx, ax)
	e.Mul(&t, &amx, &apx)
	e.Sqrt(root, &t)

	// ln = log1p((A-1) + sqrt((A-1)(A+1)))
	e.Add(&t, &am1, decTwo)
	e.Mul(&t, &t, &am1)
	e.Sqrt(&t, &t)
	e.Add(&t, &t, &am1)
	e.log1p(ln, &t)
}

// casin sets re + im i to asin(x+yi).
func (e *evaluator) casin(re, im, x, y *apd.Decimal) {
	var ln, root, ax, ay apd.Decimal
	e.asinCore(&ln, &root, ax.Abs(x), ay.Abs(y))
	e.atan2(re, &ax, &root)
	re.Negative = x.Negative
	im.Set(&ln)
	im.Negative = y.Negative
}

// catan sets re + im i to atan(x+yi):
// re = atan2(2x, 1 - x² - y²)/2 and im = log1p(4y / (x² + (1-y)²))/4.
func (e *evaluator) catan(re, im, x, y *apd.Decimal) {
	var x2, y2, t, u apd.Decimal
	e.exact.Mul(&x2, x, x)
	e.exact.Mul(&y2, y, y)
	e.exact.Sub(&t, decOne, &x2)
	e.exact.Sub(&t, &t, &y2)
	e.exact.Mul(&u, x, decTwo)
	e.atan2(re, &u, &t)
	e.Mul(re, re, decHalf)

	e.exact.Sub(&t, decOne, y)
	e.exact.Mul(&t, &t, &t)
	e.exact.Add(&t, &t, &x2)
	e.exact.Mul(&u, y, apd.New(4, 0))
	e.Quo(&u, &u, &t)
	e.log1p(&t, &u)
	e.Mul(im, &t, apd.New(25, -2))
}

func copyFloat(x *big.Float, prec uint) *big.Float {
	return new(big.Float).SetPrec(prec).Set(x)
}

// csqrt returns the principal square root of z = a+bi:
// with t = sqrt((|a|+|z|)/2), it is t + b/(2t)i for a >= 0 and
// |b|/(2t) + copysign(t, b)i otherwise.
func csqrt(z Complex, prec uint, mode big.RoundingMode) (ComplexResult, error) {
	a, b := z.Re, z.Im
	ra, rb := ratOf(a), ratOf(b)
	if b.Sign() == 0 {
		s, exact := sqrtDyadic(new(big.Rat).Abs(ra), prec, mode)
		if a.Sign() >= 0 {
			return ComplexResult{Value: Complex{Re: s, Im: copyFloat(b, prec)}, Inexact: !exact}, nil
		}
		if b.Signbit() {
			s.Neg(s)
		}
		return ComplexResult{Value: Complex{Re: signedZero(prec, false), Im: s}, Inexact: !exact}, nil
	}

	mod2 := new(big.Rat).Mul(ra, ra)
	mod2.Add(mod2, new(big.Rat).Mul(rb, rb))
	if m, ok := sqrtExact(mod2); ok {
		u := new(big.Rat).Abs(ra)
		u.Add(u, m)
		u.Quo(u, big.NewRat(2, 1))
		if t, ok := sqrtExact(u); ok {
			o := new(big.Rat).Quo(rb, new(big.Rat).Mul(t, big.NewRat(2, 1)))
			re, im := t, o
			if a.Sign() < 0 {
				re, im = o.Abs(o), t
				if b.Signbit() {
					im.Neg(im)
				}
			}
			vr, in1 := roundRat(re, prec, mode)
			vi, in2 := roundRat(im, prec, mode)
			return ComplexResult{Value: Complex{Re: vr, Im: vi}, Inexact: in1 || in2}, nil
		}
	}

	for _, extra := range []uint{64, 128, 256} {
		w := prec + extra
		mod := new(big.Float).SetPrec(w).SetRat(mod2)
		mod.Sqrt(mod)
		u := new(big.Float).SetPrec(w).Abs(a)
		u.Add(u, mod)
		u.SetMantExp(u, -1)
		t := new(big.Float).SetPrec(w).Sqrt(u)
		o := new(big.Float).SetPrec(w).Quo(b, t)
		o.SetMantExp(o, -1)
		re, im := t, o
		if a.Sign() < 0 {
			re, im = o.Abs(o), t
			if b.Signbit() {
				im.Neg(im)
			}
		}
		// A handful of correctly rounded steps: well within 2^-(w-6).
		eps := new(big.Rat).SetFrac(bigOne, new(big.Int).Lsh(bigOne, w-6))
		vr, ok1 := roundInterval(ratOf(re), eps, prec, mode)
		vi, ok2 := roundInterval(ratOf(im), eps, prec, mode)
		if ok1 && ok2 {
			return ComplexResult{Value: Complex{Re: vr, Im: vi}, Inexact: true}, nil
		}
	}
	return ComplexResult{}, fmt.Errorf("%s: %w", OpCSqrt, ErrInconclusive)
}

// maxCPowExponent bounds the integral exponents cpowExact expands.
const maxCPowExponent = 1024

// cpowExact evaluates z^n for an integral real exponent n by exact
// Gaussian arithmetic. It declines when a part of the result is zero, whose
// sign depends on the library's evaluation order.
func cpowExact(z, w Complex, prec uint, mode big.RoundingMode) (ComplexResult, bool) {
	if w.Im.Sign() != 0 || !w.Re.IsInt() {
		return ComplexResult{}, false
	}
	n, acc := w.Re.Int64()
	if acc != big.Exact || n == 0 || n > maxCPowExponent || n < -maxCPowExponent {
		return ComplexResult{}, false
	}
	a, b := ratOf(z.Re), ratOf(z.Im)
	if a.Sign() == 0 && b.Sign() == 0 {
		return ComplexResult{}, false
	}
	size := int64(a.Num().BitLen()+a.Denom().BitLen()+b.Num().BitLen()+b.Denom().BitLen()) * abs64(n)
	if size > maxPowBits {
		return ComplexResult{}, false
	}

	// Square and multiply.
	re, im := big.NewRat(1, 1), new(big.Rat)
	pr, pi := a, b
	for k := abs64(n); k > 0; k >>= 1 {
		if k&1 == 1 {
			re, im = cmul(re, im, pr, pi)
		}
		if k > 1 {
			pr, pi = cmul(pr, pi, pr, pi)
		}
	}
	if n < 0 {
		// 1/(x+yi) = (x-yi)/(x^2+y^2)
		d := new(big.Rat).Mul(re, re)
		d.Add(d, new(big.Rat).Mul(im, im))
		re = new(big.Rat).Quo(re, d)
		im = new(big.Rat).Quo(im, d)
		im.Neg(im)
	}
	if re.Sign() == 0 || im.Sign() == 0 {
		return ComplexResult{}, false
	}
	vr, in1 := roundRat(re, prec, mode)
	vi, in2 := roundRat(im, prec, mode)
	return ComplexResult{Value: Complex{Re: vr, Im: vi}, Inexact: in1 || in2}, true
}

func cmul(a, b, c, d *big.Rat) (*big.Rat, *big.Rat) {
	re := new(big.Rat).Mul(a, c)
	re.Sub(re, new(big.Rat).Mul(b, d))
	im := new(big.Rat).Mul(a, d)
	im.Add(im, new(big.Rat).Mul(b, c))
	return re, im
}

// complexPoint returns exactly known values at zero and one.
func complexPoint(op Op, z Complex, prec uint) (ComplexResult, bool) {
	zero := z.Re.Sign() == 0 && z.Im.Sign() == 0
	same := ComplexResult{Value: Complex{Re: copyFloat(z.Re, prec), Im: copyFloat(z.Im, prec)}}
	switch op {
	case OpCSin, OpCSinh, OpCTan, OpCTanh, OpCAsin, OpCAsinh, OpCAtan, OpCAtanh:
		if zero {
			return same, true
		}
	case OpCCos, OpCCosh:
		// cos(a+bi) has imaginary part -sin a sinh b, cosh(a+bi) has
		// sinh a sin b; at zero both are a signed zero.
		if zero {
			neg := z.Re.Signbit() != z.Im.Signbit()
			if op == OpCCos {
				neg = !neg
			}
			return ComplexResult{Value: Complex{
				Re: new(big.Float).SetPrec(prec).SetInt64(1),
				Im: signedZero(prec, neg),
			}}, true
		}
	case OpCExp:
		if zero {
			return ComplexResult{Value: Complex{
				Re: new(big.Float).SetPrec(prec).SetInt64(1),
				Im: copyFloat(z.Im, prec),
			}}, true
		}
	case OpCLog:
		if z.Re.Cmp(big.NewFloat(1)) == 0 && z.Im.Sign() == 0 {
			return ComplexResult{Value: Complex{
				Re: signedZero(prec, false),
				Im: copyFloat(z.Im, prec),
			}}, true
		}
	}
	return ComplexResult{}, false
}
