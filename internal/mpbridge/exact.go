package mpbridge

import (
	"math/big"
)

var bigOne = big.NewInt(1)

// roundRat rounds r to prec bits. inexact reports rounding loss.
func roundRat(r *big.Rat, prec uint, mode big.RoundingMode) (*big.Float, bool) {
	z := new(big.Float).SetPrec(prec).SetMode(mode).SetRat(r)
	return z, z.Acc() != big.Exact
}

// signedZero returns a zero of the given precision and sign.
func signedZero(prec uint, negative bool) *big.Float {
	z := new(big.Float).SetPrec(prec)
	if negative {
		z.Neg(z)
	}
	return z
}

// ratOf returns the exact value of a finite x.
func ratOf(x *big.Float) *big.Rat {
	r, _ := x.Rat(nil)
	return r
}

// dyadicExp returns k such that r's denominator is 2^k, or -1 when the
// denominator is not a power of two.
func dyadicExp(r *big.Rat) int {
	den := r.Denom()
	k := den.BitLen() - 1
	if den.TrailingZeroBits() != uint(k) {
		return -1
	}
	return k
}

// sqrtDyadic returns the square root of r >= 0 rounded to prec bits. r must
// have a power-of-two denominator. exact reports an exact result.
func sqrtDyadic(r *big.Rat, prec uint, mode big.RoundingMode) (*big.Float, bool) {
	if r.Sign() == 0 {
		return signedZero(prec, false), true
	}
	k := dyadicExp(r)
	if k < 0 {
		panic("mpbridge: sqrtDyadic of non-dyadic rational")
	}
	n := new(big.Int).Set(r.Num())
	if k%2 == 1 {
		n.Lsh(n, 1)
		k++
	}
	// Scale so the integer root carries at least prec+2 bits.
	t := 0
	if need := 2*(int(prec)+2) - n.BitLen(); need > 0 {
		t = (need + 1) / 2
	}
	m := new(big.Int).Lsh(n, uint(2*t))
	s := new(big.Int).Sqrt(m)
	rem := new(big.Int).Sub(m, new(big.Int).Mul(s, s))

	// s < sqrt(m) < s+1 when rem != 0; s + 1/2 rounds the same way because
	// no rounding boundary at prec bits falls strictly between integers.
	v := new(big.Int).Lsh(s, 1)
	if rem.Sign() != 0 {
		v.Add(v, bigOne)
	}
	z := new(big.Float).SetInt(v)
	z.SetMantExp(z, -(t + k/2 + 1))
	out := new(big.Float).SetPrec(prec).SetMode(mode).Set(z)
	return out, rem.Sign() == 0 && out.Acc() == big.Exact
}

// icbrt returns the floor of the cube root of n >= 0.
func icbrt(n *big.Int) *big.Int {
	if n.Sign() == 0 {
		return new(big.Int)
	}
	x := new(big.Int).Lsh(bigOne, uint(n.BitLen()/3+1))
	three := big.NewInt(3)
	for {
		// y = (2x + n/x^2) / 3
		y := new(big.Int).Mul(x, x)
		y.Quo(n, y)
		y.Add(y, new(big.Int).Lsh(x, 1))
		y.Quo(y, three)
		if y.Cmp(x) >= 0 {
			return x
		}
		x = y
	}
}

// cbrtExact returns the cube root of a dyadic r when it is itself dyadic.
func cbrtExact(r *big.Rat) (*big.Rat, bool) {
	k := dyadicExp(r)
	if k < 0 || k%3 != 0 {
		return nil, false
	}
	num := new(big.Int).Abs(r.Num())
	c := icbrt(num)
	if new(big.Int).Exp(c, big.NewInt(3), nil).Cmp(num) != 0 {
		return nil, false
	}
	if r.Sign() < 0 {
		c.Neg(c)
	}
	return new(big.Rat).SetFrac(c, new(big.Int).Lsh(bigOne, uint(k/3))), true
}

// exactReal evaluates the functions whose results are rational functions of
// the arguments, or square roots of them. ok is false for any other op.
func exactReal(op Op, args []*big.Float, prec uint, mode big.RoundingMode) (Result, bool) {
	switch op {
	case OpSqrt:
		x := args[0]
		if x.Sign() < 0 {
			return Result{}, true
		}
		if x.Sign() == 0 {
			return Result{Value: signedZero(prec, x.Signbit())}, true
		}
		z, exact := sqrtDyadic(ratOf(x), prec, mode)
		return Result{Value: z, Inexact: !exact}, true

	case OpHypot:
		a, b := ratOf(args[0]), ratOf(args[1])
		sum := new(big.Rat).Mul(a, a)
		sum.Add(sum, new(big.Rat).Mul(b, b))
		z, exact := sqrtDyadic(sum, prec, mode)
		return Result{Value: z, Inexact: !exact}, true

	case OpFma:
		x, y, z := args[0], args[1], args[2]
		prod := new(big.Rat).Mul(ratOf(x), ratOf(y))
		sum := new(big.Rat).Add(prod, ratOf(z))
		if sum.Sign() == 0 {
			negProd := x.Signbit() != y.Signbit()
			neg := prod.Sign() == 0 && z.Sign() == 0 && negProd && z.Signbit()
			return Result{Value: signedZero(prec, neg)}, true
		}
		v, inexact := roundRat(sum, prec, mode)
		return Result{Value: v, Inexact: inexact}, true

	case OpFmod, OpRemainder:
		x, y := args[0], args[1]
		if y.Sign() == 0 {
			return Result{}, true
		}
		q := new(big.Rat).Quo(ratOf(x), ratOf(y))
		n := new(big.Int).Quo(q.Num(), q.Denom()) // truncates toward zero
		if op == OpRemainder {
			frac := new(big.Rat).Sub(q, new(big.Rat).SetInt(n))
			frac.Abs(frac)
			c := frac.Cmp(big.NewRat(1, 2))
			if c > 0 || (c == 0 && n.Bit(0) == 1) {
				if q.Sign() < 0 {
					n.Sub(n, bigOne)
				} else {
					n.Add(n, bigOne)
				}
			}
		}
		rem := new(big.Rat).Sub(ratOf(x), new(big.Rat).Mul(new(big.Rat).SetInt(n), ratOf(y)))
		if rem.Sign() == 0 {
			return Result{Value: signedZero(prec, x.Signbit())}, true
		}
		v, inexact := roundRat(rem, prec, mode)
		return Result{Value: v, Inexact: inexact}, true

	case OpFdim:
		x, y := args[0], args[1]
		if x.Cmp(y) <= 0 {
			return Result{Value: signedZero(prec, false)}, true
		}
		v, inexact := roundRat(new(big.Rat).Sub(ratOf(x), ratOf(y)), prec, mode)
		return Result{Value: v, Inexact: inexact}, true

	case OpFmin, OpFmax:
		x, y := args[0], args[1]
		c := x.Cmp(y)
		if c == 0 && x.Sign() == 0 {
			// min(-0, +0) is -0 and max(-0, +0) is +0.
			neg := x.Signbit() || y.Signbit()
			if op == OpFmax {
				neg = x.Signbit() && y.Signbit()
			}
			return Result{Value: signedZero(prec, neg)}, true
		}
		pick := x
		if (op == OpFmin && c > 0) || (op == OpFmax && c < 0) {
			pick = y
		}
		v := new(big.Float).SetPrec(prec).SetMode(mode).Set(pick)
		return Result{Value: v, Inexact: v.Acc() != big.Exact}, true
	}
	return Result{}, false
}

// sqrtExact returns the square root of a dyadic r >= 0 when it is dyadic.
func sqrtExact(r *big.Rat) (*big.Rat, bool) {
	k := dyadicExp(r)
	if k < 0 || k%2 != 0 || r.Sign() < 0 {
		return nil, false
	}
	s := new(big.Int).Sqrt(r.Num())
	if new(big.Int).Mul(s, s).Cmp(r.Num()) != 0 {
		return nil, false
	}
	return new(big.Rat).SetFrac(s, new(big.Int).Lsh(bigOne, uint(k/2))), true
}

// ratPowInt returns r^n for an integer n, or false when r is zero and n is
// negative.
func ratPowInt(r *big.Rat, n int64) (*big.Rat, bool) {
	if n < 0 && r.Sign() == 0 {
		return nil, false
	}
	e := big.NewInt(n)
	e.Abs(e)
	num := new(big.Int).Exp(r.Num(), e, nil)
	den := new(big.Int).Exp(r.Denom(), e, nil)
	if n < 0 {
		num, den = den, num
	}
	return new(big.Rat).SetFrac(num, den), true
}
