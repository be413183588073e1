package realarith

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/constfold/internal/ir"
)

func d(s string) ir.RealValue {
	v, err := ir.ParseReal(s, ir.IEEEDouble)
	if err != nil {
		panic(err)
	}
	return v
}

func f64(t *testing.T, v ir.RealValue) float64 {
	t.Helper()
	sign := 1.0
	if v.Negative {
		sign = -1
	}
	switch v.Class {
	case ir.ClassInf:
		return math.Inf(int(sign))
	case ir.ClassZero:
		return math.Copysign(0, sign)
	case ir.ClassNaN:
		return math.NaN()
	}
	x, exact := v.Rat().Float64()
	require.True(t, exact, "value %s not a double", v)
	return x
}

func TestToIntegral(t *testing.T) {
	tests := []struct {
		fn   RoundFunc
		in   string
		want string
	}{
		{Floor, "2.5", "2"},
		{Floor, "-2.5", "-3"},
		{Floor, "0.5", "0"},
		{Floor, "-0.5", "-1"},
		{Ceil, "2.1", "3"},
		{Ceil, "-0.5", "-0"},
		{Ceil, "-2.5", "-2"},
		{Trunc, "-2.7", "-2"},
		{Trunc, "-0.3", "-0"},
		{Trunc, "2.7", "2"},
		{Round, "2.5", "3"},
		{Round, "-2.5", "-3"},
		{Round, "-0.4", "-0"},
		{Round, "0.49999999999999994", "0"},
		{RoundEven, "2.5", "2"},
		{RoundEven, "3.5", "4"},
		{RoundEven, "-2.5", "-2"},
		{RoundEven, "-0.5", "-0"},
		{Floor, "1e300", "1e300"},
		{Floor, "-inf", "-inf"},
		{Ceil, "-0", "-0"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ToIntegral(tt.fn, d(tt.in), ir.IEEEDouble)
			assert.True(t, got.Identical(d(tt.want)), "got %s want %s", got, tt.want)
		})
	}
}

func TestToIntegralKeepsNaN(t *testing.T) {
	nan := ir.SNaN(true, big.NewInt(7))
	assert.True(t, ToIntegral(Floor, nan, ir.IEEEDouble).Identical(nan))
}

func TestLdexp(t *testing.T) {
	assert.Equal(t, 24.0, f64(t, Ldexp(d("3"), 3)))
	assert.Equal(t, 0.375, f64(t, Ldexp(d("3"), -3)))
	assert.True(t, Ldexp(d("-0"), 100).Identical(d("-0")))
	assert.True(t, Ldexp(d("inf"), -5).IsInf())
}

func TestNextAfterMatchesMath(t *testing.T) {
	tests := []struct{ x, y float64 }{
		{1, 2},
		{1, 0},
		{-1, 0},
		{-1, -2},
		{0x1p-1022, 0},
		{5e-324, 0},
		{5e-324, 1},
		{math.MaxFloat64, 1},
		{0.1, 1},
		{1e300, -1},
	}
	for _, tt := range tests {
		x := ir.FromRat(new(big.Rat).SetFloat64(tt.x), false)
		y := ir.FromRat(new(big.Rat).SetFloat64(tt.y), false)
		r, _ := NextAfter(x, y, ir.IEEEDouble)
		assert.Equal(t, math.Nextafter(tt.x, tt.y), f64(t, r), "nextafter(%g, %g)", tt.x, tt.y)
	}
}

func TestNextAfterRaised(t *testing.T) {
	r, raised := NextAfter(d("0"), d("-1"), ir.IEEEDouble)
	assert.False(t, raised)
	assert.True(t, r.Identical(ir.IEEEDouble.MinSubnormal(true)))

	_, raised = NextAfter(d("0x1p-1022"), d("0"), ir.IEEEDouble)
	assert.True(t, raised, "stepping below the normal range")

	r, raised = NextAfter(ir.IEEEDouble.MaxFinite(false), d("inf"), ir.IEEEDouble)
	assert.True(t, raised)
	assert.True(t, r.IsInf())

	r, raised = NextAfter(d("inf"), d("0"), ir.IEEEDouble)
	assert.False(t, raised)
	assert.True(t, r.Identical(ir.IEEEDouble.MaxFinite(false)))

	r, raised = NextAfter(d("5e-324"), d("0"), ir.IEEEDouble)
	assert.True(t, raised)
	assert.True(t, r.Identical(d("0")))

	r, _ = NextAfter(d("-0"), d("0"), ir.IEEEDouble)
	assert.True(t, r.Identical(d("0")), "equal operands return y")

	r, _ = NextAfter(d("nan"), d("0"), ir.IEEEDouble)
	assert.True(t, r.IsNaN())
}

func TestPowi(t *testing.T) {
	r, inexact := Powi(d("2"), 10, ir.IEEEDouble)
	assert.False(t, inexact)
	assert.Equal(t, 1024.0, f64(t, r))

	r, inexact = Powi(d("2"), -2, ir.IEEEDouble)
	assert.False(t, inexact)
	assert.Equal(t, 0.25, f64(t, r))

	r, inexact = Powi(d("3"), -1, ir.IEEEDouble)
	assert.True(t, inexact)
	assert.Equal(t, 1.0/3, f64(t, r))

	r, _ = Powi(d("-2"), 3, ir.IEEEDouble)
	assert.Equal(t, -8.0, f64(t, r))

	r, _ = Powi(d("nan"), 0, ir.IEEEDouble)
	assert.Equal(t, 1.0, f64(t, r))

	r, _ = Powi(d("-0"), -1, ir.IEEEDouble)
	assert.True(t, r.Identical(d("-inf")))

	r, _ = Powi(d("-0"), 2, ir.IEEEDouble)
	assert.True(t, r.Identical(d("0")))

	r, inexact = Powi(d("10"), 400, ir.IEEEDouble)
	assert.True(t, r.IsInf())
	assert.True(t, inexact)

	r, _ = Powi(d("2"), 1<<40, ir.IEEEDouble)
	assert.True(t, r.IsInf())
}

func TestArith(t *testing.T) {
	r, inexact := Arith(Add, d("0.1"), d("0.2"), ir.IEEEDouble)
	assert.True(t, inexact)
	assert.Equal(t, 0.1+0.2, f64(t, r))

	r, inexact = Arith(Add, d("1"), d("2"), ir.IEEEDouble)
	assert.False(t, inexact)
	assert.Equal(t, 3.0, f64(t, r))

	r, _ = Arith(Add, d("-0"), d("-0"), ir.IEEEDouble)
	assert.True(t, r.Identical(d("-0")))

	r, _ = Arith(Add, d("1"), d("-1"), ir.IEEEDouble)
	assert.True(t, r.Identical(d("0")))

	r, _ = Arith(Add, d("inf"), d("-inf"), ir.IEEEDouble)
	assert.True(t, r.IsNaN())
	assert.False(t, r.Signaling)

	r, _ = Arith(Add, ir.IEEEDouble.MaxFinite(false), ir.IEEEDouble.MaxFinite(false), ir.IEEEDouble)
	assert.True(t, r.IsInf())

	r, _ = Arith(Sub, d("5"), d("7"), ir.IEEEDouble)
	assert.Equal(t, -2.0, f64(t, r))

	r, _ = Arith(Mul, d("-3"), d("0.5"), ir.IEEEDouble)
	assert.Equal(t, -1.5, f64(t, r))

	r, _ = Arith(Add, ir.SNaN(false, big.NewInt(1)), d("1"), ir.IEEEDouble)
	assert.True(t, r.IsNaN())
	assert.False(t, r.Signaling)
}

func TestMinMax(t *testing.T) {
	r, _ := Arith(Min, d("1"), d("-2"), ir.IEEEDouble)
	assert.Equal(t, -2.0, f64(t, r))
	r, _ = Arith(Max, d("1"), d("-2"), ir.IEEEDouble)
	assert.Equal(t, 1.0, f64(t, r))
	// Equal operands yield the second one.
	r, _ = Arith(Min, d("0"), d("-0"), ir.IEEEDouble)
	assert.True(t, r.Identical(d("-0")))
	r, _ = Arith(Max, d("-0"), d("0"), ir.IEEEDouble)
	assert.True(t, r.Identical(d("0")))
}

func TestFloatConversion(t *testing.T) {
	v := d("-0.1")
	x := ToFloat(v, 53)
	require.NotNil(t, x)
	assert.True(t, FromFloat(x).Identical(v))
	assert.True(t, FromFloat(ToFloat(d("-0"), 53)).Identical(d("-0")))
	assert.True(t, FromFloat(ToFloat(d("-inf"), 53)).Identical(d("-inf")))
	assert.Nil(t, ToFloat(d("nan"), 53))
	assert.True(t, FromFloat(nil).IsNaN())
}
