package mpbridge

import (
	"math"
	"math/big"
	"sync"

	"github.com/cockroachdb/apd/v3"
)

// maxTerms bounds every power series; a series that has not converged by
// then makes the evaluation inconclusive.
const maxTerms = 1 << 20

var decHalf = apd.New(5, -1)

func (e *evaluator) prec() int {
	return int(e.Ctx.Precision)
}

func (e *evaluator) fail(err error) {
	if e.failed == nil {
		e.failed = err
	}
}

// stop reports whether a series should end before adding term to sum:
// the term no longer changes the sum, an operation failed, or k ran past
// maxTerms.
func (e *evaluator) stop(k int64, term, sum *apd.Decimal) bool {
	if e.err() != nil || term.IsZero() {
		return true
	}
	if k > maxTerms {
		e.fail(ErrInconclusive)
		return true
	}
	return !sum.IsZero() && adjusted(term) < adjusted(sum)-e.prec()-2
}

// negate flips the sign of d. Unlike apd's Neg it keeps the sign of a zero.
func negate(d *apd.Decimal) *apd.Decimal {
	d.Negative = !d.Negative
	return d
}

func decInt(n int64) *apd.Decimal {
	return apd.New(n, 0)
}

func decBig(n *big.Int) *apd.Decimal {
	return apd.NewWithBigInt(new(apd.BigInt).SetMathBigInt(n), 0)
}

// pi returns π at the working precision by Machin's formula
// π = 16 atan(1/5) - 4 atan(1/239). The result is shared; do not modify it.
func (e *evaluator) pi() *apd.Decimal {
	if e.piVal != nil {
		return e.piVal
	}
	var a, b apd.Decimal
	e.atanInv(&a, 5)
	e.atanInv(&b, 239)
	e.Mul(&a, &a, decInt(16))
	e.Mul(&b, &b, decInt(4))
	e.piVal = new(apd.Decimal)
	e.Sub(e.piVal, &a, &b)
	return e.piVal
}

// atanInv sets d to atan(1/n).
func (e *evaluator) atanInv(d *apd.Decimal, n int64) {
	var pow, term apd.Decimal
	n2 := decInt(n * n)
	e.Quo(&pow, decOne, decInt(n))
	d.Set(&pow)
	for k := int64(1); ; k++ {
		e.Quo(&pow, &pow, n2)
		e.Quo(&term, &pow, decInt(2*k+1))
		if e.stop(k, &term, d) {
			return
		}
		if k%2 == 1 {
			e.Sub(d, d, &term)
		} else {
			e.Add(d, d, &term)
		}
	}
}

// euler returns Euler's constant γ by the Brent-McMillan formula
// γ ≈ A/B - ln m with B = Σ (m^k/k!)² and A = Σ (m^k/k!)² H_k. The error
// is below e^(-4m). The result is shared; do not modify it.
func (e *evaluator) euler() *apd.Decimal {
	if e.eulerVal != nil {
		return e.eulerVal
	}
	m := int64(float64(e.prec()+2)*math.Ln10/4) + 1
	m2 := decInt(m * m)
	var a, b, u, h, w, inv apd.Decimal
	u.SetInt64(1)
	b.SetInt64(1)
	for k := int64(1); ; k++ {
		e.Mul(&u, &u, m2)
		e.Quo(&u, &u, decInt(k*k))
		e.Quo(&inv, decOne, decInt(k))
		e.Add(&h, &h, &inv)
		e.Mul(&w, &u, &h)
		if k > m && e.stop(k, &u, &b) && e.stop(k, &w, &a) {
			break
		}
		e.Add(&a, &a, &w)
		e.Add(&b, &b, &u)
	}
	var ln apd.Decimal
	e.Quo(&a, &a, &b)
	e.Ln(&ln, decInt(m))
	e.eulerVal = new(apd.Decimal)
	e.Sub(e.eulerVal, &a, &ln)
	return e.eulerVal
}

// sinCosSeries sets s and c to sin r and cos r for |r| <= π/4.
func (e *evaluator) sinCosSeries(s, c, r *apd.Decimal) {
	var r2, term apd.Decimal
	e.Mul(&r2, r, r)
	term.Set(r)
	s.Set(r)
	for k := int64(1); ; k++ {
		e.Mul(&term, &term, &r2)
		e.Quo(&term, &term, decInt(2*k*(2*k+1)))
		negate(&term)
		if e.stop(k, &term, s) {
			break
		}
		e.Add(s, s, &term)
	}
	term.SetInt64(1)
	c.SetInt64(1)
	for k := int64(1); ; k++ {
		e.Mul(&term, &term, &r2)
		e.Quo(&term, &term, decInt((2*k-1)*2*k))
		negate(&term)
		if e.stop(k, &term, c) {
			break
		}
		e.Add(c, c, &term)
	}
}

// placeQuadrant sets s and c to sin and cos of kπ/2 + r, given s0 = sin r
// and c0 = cos r.
func placeQuadrant(s, c, s0, c0 *apd.Decimal, k *big.Int) {
	switch new(big.Int).Mod(k, big.NewInt(4)).Int64() {
	case 0:
		s.Set(s0)
		c.Set(c0)
	case 1:
		s.Set(c0)
		negate(c.Set(s0))
	case 2:
		negate(s.Set(s0))
		negate(c.Set(c0))
	default:
		negate(s.Set(c0))
		c.Set(s0)
	}
}

// sinCos sets s and c to sin x and cos x. The working precision must cover
// the integer digits of x for the reduction by π/2 to keep its accuracy.
func (e *evaluator) sinCos(s, c, x *apd.Decimal) {
	if x.IsZero() {
		s.Set(x)
		c.SetInt64(1)
		return
	}
	var halfPi, k, kh, r apd.Decimal
	e.Quo(&halfPi, e.pi(), decTwo)
	e.Quo(&k, x, &halfPi)
	e.RoundToIntegralValue(&k, &k)
	r.Set(x)
	if !k.IsZero() {
		e.Mul(&kh, &k, &halfPi)
		e.Sub(&r, x, &kh)
	}
	var s0, c0 apd.Decimal
	e.sinCosSeries(&s0, &c0, &r)
	placeQuadrant(s, c, &s0, &c0, ratOfDecimal(&k).Num())
}

// sinCosPi sets s and c to sin πx and cos πx. x is split exactly into
// k/2 + f with |f| <= 1/4, so no digits are lost to the reduction.
func (e *evaluator) sinCosPi(s, c, x *apd.Decimal) {
	k, f := halfTurns(ratOfDecimal(x))
	var t, s0, c0 apd.Decimal
	e.Mul(&t, e.pi(), decimalFromRat(f))
	e.sinCosSeries(&s0, &c0, &t)
	placeQuadrant(s, c, &s0, &c0, k)
}

// halfTurns splits a dyadic x into k/2 + f with k integral and |f| <= 1/4.
func halfTurns(x *big.Rat) (*big.Int, *big.Rat) {
	two := new(big.Rat).Mul(x, big.NewRat(2, 1))
	two.Add(two, big.NewRat(1, 2))
	k := new(big.Int).Div(two.Num(), two.Denom()) // floor
	f := new(big.Rat).Sub(x, new(big.Rat).SetFrac(k, big.NewInt(2)))
	return k, f
}

// sinhCosh sets sh and ch to sinh x and cosh x. Below one the Taylor
// series for sinh avoids the cancellation in (e^x - e^-x)/2.
func (e *evaluator) sinhCosh(sh, ch, x *apd.Decimal) {
	if x.IsZero() {
		sh.Set(x)
		ch.SetInt64(1)
		return
	}
	var a apd.Decimal
	a.Abs(x)
	if a.Cmp(decOne) < 0 {
		var x2, term, t apd.Decimal
		e.Mul(&x2, x, x)
		term.Set(x)
		sh.Set(x)
		for k := int64(1); ; k++ {
			e.Mul(&term, &term, &x2)
			e.Quo(&term, &term, decInt(2*k*(2*k+1)))
			if e.stop(k, &term, sh) {
				break
			}
			e.Add(sh, sh, &term)
		}
		e.Mul(&t, sh, sh)
		e.Add(&t, &t, decOne)
		e.Sqrt(ch, &t)
		return
	}
	var ex, inv apd.Decimal
	e.Exp(&ex, x)
	e.Quo(&inv, decOne, &ex)
	e.Sub(sh, &ex, &inv)
	e.Quo(sh, sh, decTwo)
	e.Add(ch, &ex, &inv)
	e.Quo(ch, ch, decTwo)
}

// expm1 sets d to e^x - 1, by its Taylor series when |x| < 1.
func (e *evaluator) expm1(d, x *apd.Decimal) {
	var a apd.Decimal
	switch {
	case x.IsZero():
		d.Set(x)
		return
	case a.Abs(x).Cmp(decOne) >= 0:
		e.Exp(&a, x)
		e.Sub(d, &a, decOne)
		return
	}
	var term apd.Decimal
	term.Set(x)
	d.Set(x)
	for k := int64(2); ; k++ {
		e.Mul(&term, &term, x)
		e.Quo(&term, &term, decInt(k))
		if e.stop(k, &term, d) {
			return
		}
		e.Add(d, d, &term)
	}
}

// log1p sets d to ln(1 + t). Below one half it sums
// 2 atanh(t/(2+t)), which keeps the relative accuracy of small results.
func (e *evaluator) log1p(d, t *apd.Decimal) {
	if t.IsZero() {
		d.Set(t)
		return
	}
	var a, u apd.Decimal
	a.Abs(t)
	if a.Cmp(decHalf) >= 0 {
		e.exact.Add(&u, t, decOne)
		e.Ln(d, &u)
		return
	}
	var u2, pow, term apd.Decimal
	e.exact.Add(&u, t, decTwo)
	e.Quo(&u, t, &u)
	e.Mul(&u2, &u, &u)
	pow.Set(&u)
	d.Set(&u)
	for k := int64(1); ; k++ {
		e.Mul(&pow, &pow, &u2)
		e.Quo(&term, &pow, decInt(2*k+1))
		if e.stop(k, &term, d) {
			break
		}
		e.Add(d, d, &term)
	}
	e.Mul(d, d, decTwo)
}

// atan sets d to atan x.
func (e *evaluator) atan(d, x *apd.Decimal) {
	if x.IsZero() {
		d.Set(x)
		return
	}
	neg := x.Negative
	var a apd.Decimal
	a.Abs(x)
	if a.Cmp(decOne) > 0 {
		// atan a = π/2 - atan(1/a)
		var inv, t, halfPi apd.Decimal
		e.Quo(&inv, decOne, &a)
		e.atanReduced(&t, &inv)
		e.Quo(&halfPi, e.pi(), decTwo)
		e.Sub(d, &halfPi, &t)
	} else {
		e.atanReduced(d, &a)
	}
	d.Negative = neg
}

// atanReduced sets d to atan x for 0 < x <= 1, halving the angle with
// atan x = 2 atan(x / (1 + sqrt(1 + x²))) until the series converges fast.
func (e *evaluator) atanReduced(d, x *apd.Decimal) {
	var y, t apd.Decimal
	y.Set(x)
	limit := apd.New(1, -2)
	halvings := 0
	for y.Cmp(limit) > 0 && e.err() == nil {
		e.Mul(&t, &y, &y)
		e.Add(&t, &t, decOne)
		e.Sqrt(&t, &t)
		e.Add(&t, &t, decOne)
		e.Quo(&y, &y, &t)
		halvings++
	}
	var y2, pow, term apd.Decimal
	e.Mul(&y2, &y, &y)
	pow.Set(&y)
	d.Set(&y)
	for k := int64(1); ; k++ {
		e.Mul(&pow, &pow, &y2)
		negate(&pow)
		e.Quo(&term, &pow, decInt(2*k+1))
		if e.stop(k, &term, d) {
			break
		}
		e.Add(d, d, &term)
	}
	for ; halvings > 0; halvings-- {
		e.Mul(d, d, decTwo)
	}
}

// atan2 sets d to the angle of the point (x, y), following the signs of
// zero operands. d must not alias y or x.
func (e *evaluator) atan2(d, y, x *apd.Decimal) {
	switch {
	case y.IsZero():
		if x.Negative {
			d.Set(e.pi())
		} else {
			d.SetInt64(0)
		}
		d.Negative = y.Negative
	case x.IsZero():
		e.Quo(d, e.pi(), decTwo)
		d.Negative = y.Negative
	default:
		var q apd.Decimal
		e.Quo(&q, y, x)
		e.atan(d, &q)
		if x.Negative {
			if y.Negative {
				e.Sub(d, d, e.pi())
			} else {
				e.Add(d, d, e.pi())
			}
		}
	}
}

// asin sets d to asin x = atan(x / sqrt((1-x)(1+x))) for |x| <= 1.
func (e *evaluator) asin(d, x *apd.Decimal) {
	var lo, hi, r apd.Decimal
	e.exact.Sub(&lo, decOne, x)
	e.exact.Add(&hi, decOne, x)
	e.exact.Mul(&r, &lo, &hi)
	e.Sqrt(&r, &r)
	e.atan2(d, x, &r)
}

// acos sets d to acos x = 2 atan(sqrt((1-x)/(1+x))) for |x| <= 1.
func (e *evaluator) acos(d, x *apd.Decimal) {
	var lo, hi, r apd.Decimal
	e.exact.Sub(&lo, decOne, x)
	e.exact.Add(&hi, decOne, x)
	e.Sqrt(&lo, &lo)
	e.Sqrt(&hi, &hi)
	e.atan2(&r, &lo, &hi)
	e.Mul(d, &r, decTwo)
}

// erf sets d to erf x. For |x| the series
// erf x = 2/√π e^(-x²) Σ 2^k x^(2k+1) / (1·3···(2k+1))
// has only positive terms.
func (e *evaluator) erf(d, x *apd.Decimal) {
	if x.IsZero() {
		d.Set(x)
		return
	}
	var a, x2, term, sum, ex, sp apd.Decimal
	a.Abs(x)
	e.Mul(&x2, &a, &a)
	term.Set(&a)
	sum.Set(&a)
	for k := int64(1); ; k++ {
		e.Mul(&term, &term, &x2)
		e.Mul(&term, &term, decTwo)
		e.Quo(&term, &term, decInt(2*k+1))
		if e.stop(k, &term, &sum) {
			break
		}
		e.Add(&sum, &sum, &term)
	}
	e.Exp(&ex, negate(&x2))
	e.Sqrt(&sp, e.pi())
	e.Mul(d, &sum, &ex)
	e.Mul(d, d, decTwo)
	e.Quo(d, d, &sp)
	d.Negative = x.Negative
}

// erfc sets d to 1 - erf x. Large positive x uses the asymptotic
// expansion; otherwise the caller provides the digits lost to cancellation.
func (e *evaluator) erfc(d, x *apd.Decimal) {
	if x.Sign() > 0 && e.erfcAsymptotic(d, x) {
		return
	}
	var f apd.Decimal
	e.erf(&f, x)
	e.Sub(d, decOne, &f)
}

// erfcAsymptotic sets d to
// erfc x = e^(-x²)/(x√π) Σ (-1)^k (2k-1)!! / (2x²)^k
// and reports whether the expansion reached the working precision before
// its terms started to grow.
func (e *evaluator) erfcAsymptotic(d, x *apd.Decimal) bool {
	var x2, y, term, sum, prev, mag apd.Decimal
	e.Mul(&x2, x, x)
	e.Mul(&y, &x2, decTwo)
	term.SetInt64(1)
	sum.SetInt64(1)
	for k := int64(1); ; k++ {
		prev.Abs(&term)
		e.Mul(&term, &term, decInt(2*k-1))
		e.Quo(&term, &term, &y)
		negate(&term)
		if e.stop(k, &term, &sum) {
			break
		}
		if mag.Abs(&term).Cmp(&prev) >= 0 {
			return false
		}
		e.Add(&sum, &sum, &term)
	}
	var ex, den apd.Decimal
	e.Exp(&ex, negate(&x2))
	e.Sqrt(&den, e.pi())
	e.Mul(&den, &den, x)
	e.Mul(d, &ex, &sum)
	e.Quo(d, d, &den)
	return true
}

// gamma sets d to Γ(x) for x not a non-positive integer. Negative
// arguments use the reflection Γ(x) = π / (sin(πx) Γ(1-x)).
func (e *evaluator) gamma(d, x *apd.Decimal) {
	if !x.Negative {
		e.gammaPositive(d, x)
		return
	}
	var y, g, s, c apd.Decimal
	e.exact.Sub(&y, decOne, x)
	e.gammaPositive(&g, &y)
	e.sinCosPi(&s, &c, x)
	e.Mul(&s, &s, &g)
	e.Quo(d, e.pi(), &s)
}

// gammaPositive sets d to Γ(x) for x > 0: it shifts x up to z = x + N,
// sums Stirling's series for ln Γ(z) and divides by x(x+1)···(x+N-1).
func (e *evaluator) gammaPositive(d, x *apd.Decimal) {
	p := e.prec()
	var z, prod apd.Decimal
	z.Set(x)
	prod.SetInt64(1)
	zmin := decInt(int64(p) + 10)
	for z.Cmp(zmin) < 0 && e.err() == nil {
		e.Mul(&prod, &prod, &z)
		e.exact.Add(&z, &z, decOne)
	}

	// ln Γ(z) = (z - 1/2) ln z - z + ln(2π)/2 + Σ B_2k / (2k(2k-1) z^(2k-1))
	var lnz, s, t, z2, zp, term, bk apd.Decimal
	e.Ln(&lnz, &z)
	e.exact.Sub(&t, &z, decHalf)
	e.Mul(&s, &t, &lnz)
	e.Sub(&s, &s, &z)
	e.Mul(&t, e.pi(), decTwo)
	e.Ln(&t, &t)
	e.Mul(&t, &t, decHalf)
	e.Add(&s, &s, &t)
	e.Mul(&z2, &z, &z)
	zp.Set(&z)
	for k := 1; ; k++ {
		if k > 2*p {
			e.fail(ErrInconclusive)
			break
		}
		if k > 1 {
			e.Mul(&zp, &zp, &z2)
		}
		b := bernoulli(2 * k)
		e.Quo(&bk, decBig(b.Num()), decBig(b.Denom()))
		e.Mul(&t, &zp, decInt(int64(2*k*(2*k-1))))
		e.Quo(&term, &bk, &t)
		if e.stop(int64(k), &term, &s) {
			break
		}
		e.Add(&s, &s, &term)
	}
	e.Exp(d, &s)
	e.Quo(d, d, &prod)
}

var bernoulliCache struct {
	sync.Mutex
	b []*big.Rat
}

// bernoulli returns the Bernoulli number B_n, with B_1 = -1/2, from the
// recurrence Σ_{j<=m} C(m+1, j) B_j = 0.
func bernoulli(n int) *big.Rat {
	bernoulliCache.Lock()
	defer bernoulliCache.Unlock()
	b := bernoulliCache.b
	if len(b) == 0 {
		b = append(b, big.NewRat(1, 1))
	}
	for m := len(b); m <= n; m++ {
		sum := new(big.Rat)
		for j := 0; j < m; j++ {
			if b[j].Sign() == 0 {
				continue
			}
			c := new(big.Int).Binomial(int64(m+1), int64(j))
			sum.Add(sum, new(big.Rat).Mul(new(big.Rat).SetInt(c), b[j]))
		}
		sum.Quo(sum, big.NewRat(int64(-(m+1)), 1))
		b = append(b, sum)
	}
	bernoulliCache.b = b
	return b[n]
}

// maxBesselOrder bounds the orders the Bessel series accept.
const maxBesselOrder = 10000

// besselSeries sets j to J_n(x) for n >= 0 from
// J_n(x) = Σ t_k, t_k = (-1)^k (x/2)^(2k+n) / (k! (n+k)!).
// When h is non-nil it also sets h to Σ (H_k + H_(n+k)) t_k, which Y_n
// needs.
func (e *evaluator) besselSeries(j, h *apd.Decimal, n int64, x *apd.Decimal) {
	var half, q, t, hk, hn, w, inv apd.Decimal
	e.Mul(&half, x, decHalf)
	e.Mul(&q, &half, &half)
	qf, err := q.Float64()
	if err != nil {
		e.fail(ErrInconclusive)
		return
	}
	e.Pow(&t, &half, decInt(n))
	e.Quo(&t, &t, decBig(new(big.Int).MulRange(1, n)))
	j.Set(&t)
	if h != nil {
		for i := int64(1); i <= n; i++ {
			e.Quo(&inv, decOne, decInt(i))
			e.Add(&hn, &hn, &inv)
		}
		e.Mul(h, &hn, &t)
	}
	for k := int64(1); ; k++ {
		e.Mul(&t, &t, &q)
		e.Quo(&t, &t, decInt(k*(k+n)))
		negate(&t)
		if h != nil {
			e.Quo(&inv, decOne, decInt(k))
			e.Add(&hk, &hk, &inv)
			e.Quo(&inv, decOne, decInt(n+k))
			e.Add(&hn, &hn, &inv)
			e.Add(&w, &hk, &hn)
			e.Mul(&w, &w, &t)
		}
		// Terms grow while k(k+n) < (x/2)².
		if float64(k)*float64(k+n) > qf && e.stop(k, &t, j) && (h == nil || e.stop(k, &w, h)) {
			break
		}
		e.Add(j, j, &t)
		if h != nil {
			e.Add(h, h, &w)
		}
	}
}

// besselJ sets d to J_n(x) for any integral order: J_-n = (-1)^n J_n.
func (e *evaluator) besselJ(d *apd.Decimal, n int64, x *apd.Decimal) {
	e.besselSeries(d, nil, abs64(n), x)
	if n < 0 && n%2 != 0 {
		negate(d)
	}
}

// besselY sets d to Y_n(x) for x > 0:
// π Y_n = 2 (ln(x/2) + γ) J_n - Σ_{k<n} ((n-k-1)!/k!) (x/2)^(2k-n)
// - Σ (H_k + H_(n+k)) t_k.
func (e *evaluator) besselY(d *apd.Decimal, order int64, x *apd.Decimal) {
	n := abs64(order)
	var j, h, half, t, ln apd.Decimal
	e.besselSeries(&j, &h, n, x)
	e.Mul(&half, x, decHalf)
	e.Ln(&ln, &half)
	e.Add(&ln, &ln, e.euler())
	e.Mul(&t, &ln, &j)
	e.Mul(&t, &t, decTwo)
	e.Sub(&t, &t, &h)
	if n > 0 {
		var u, q, s apd.Decimal
		e.Mul(&q, &half, &half)
		e.Pow(&u, &half, decInt(-n))
		e.Mul(&u, &u, decBig(new(big.Int).MulRange(1, n-1)))
		s.Set(&u)
		for k := int64(0); k < n-1; k++ {
			e.Mul(&u, &u, &q)
			e.Quo(&u, &u, decInt((n-k-1)*(k+1)))
			e.Add(&s, &s, &u)
		}
		e.Sub(&t, &t, &s)
	}
	e.Quo(d, &t, e.pi())
	if order < 0 && order%2 != 0 {
		negate(d)
	}
}
