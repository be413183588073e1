package ir

import (
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rat(s string) *big.Rat {
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		panic(s)
	}
	return r
}

func TestRoundExact(t *testing.T) {
	v, cond := IEEEDouble.Round(rat("1.5"), false)
	assert.Equal(t, Condition(0), cond)
	assert.Equal(t, ClassNormal, v.Class)
	assert.Equal(t, 0, v.Rat().Cmp(rat("3/2")))
}

func TestRoundMatchesHardwareDouble(t *testing.T) {
	for _, s := range []string{"1/3", "2/3", "1/10", "-7/9", "123456789012345678901234567890", "1e-310"} {
		t.Run(s, func(t *testing.T) {
			x := rat(s)
			want, _ := x.Float64()
			v, cond := IEEEDouble.Round(x, false)
			assert.True(t, cond.Has(CondInexact))
			got, exact := v.Rat().Float64()
			assert.True(t, exact)
			assert.Equal(t, want, got)
		})
	}
}

func TestRoundOverflow(t *testing.T) {
	huge := RatPow(2, 1024)

	v, cond := IEEEDouble.Round(huge, false)
	assert.True(t, v.IsInf())
	assert.True(t, cond.Has(CondOverflow|CondInexact))

	v, cond = IEEEDouble.RoundMode(new(big.Rat).Neg(huge), false, RoundTowardZero)
	assert.True(t, cond.Has(CondOverflow))
	assert.True(t, v.Identical(IEEEDouble.MaxFinite(true)))

	f, _ := IEEEDouble.MaxFinite(false).Rat().Float64()
	assert.Equal(t, math.MaxFloat64, f)
}

func TestRoundSubnormals(t *testing.T) {
	v, cond := IEEEDouble.Round(RatPow(2, -1074), false)
	assert.Equal(t, Condition(0), cond)
	assert.True(t, IEEEDouble.IsSubnormal(v))
	assert.True(t, v.Identical(IEEEDouble.MinSubnormal(false)))

	// Exactly half the smallest subnormal ties to even, i.e. zero.
	v, cond = IEEEDouble.Round(RatPow(2, -1075), true)
	assert.True(t, v.IsZero())
	assert.True(t, v.Negative)
	assert.True(t, cond.Has(CondUnderflow|CondInexact))

	three := new(big.Rat).Mul(big.NewRat(3, 1), RatPow(2, -1076))
	v, cond = IEEEDouble.Round(three, false)
	assert.True(t, v.Identical(IEEEDouble.MinSubnormal(false)))
	assert.True(t, cond.Has(CondUnderflow))

	f, _ := IEEEDouble.MinNormal(false).Rat().Float64()
	assert.Equal(t, 0x1p-1022, f)
}

func TestRoundFlushWithoutDenormals(t *testing.T) {
	noDenorm := *IEEEDouble
	noDenorm.HasDenorm = false
	v, cond := noDenorm.Round(RatPow(2, -1030), false)
	assert.True(t, v.IsZero())
	assert.True(t, cond.Has(CondUnderflow))
}

func TestRoundDecimal(t *testing.T) {
	v, cond := Decimal64.Round(big.NewRat(1, 3), false)
	assert.True(t, cond.Has(CondInexact))
	assert.Equal(t, 0, v.Rat().Cmp(rat("0.3333333333333333")))

	v, cond = Decimal32.Round(rat("9999999.5"), false)
	assert.True(t, cond.Has(CondInexact))
	assert.Equal(t, 0, v.Rat().Cmp(rat("10000000")))

	assert.Equal(t, 0, Decimal32.MaxFinite(false).Rat().Cmp(rat("9999999e90")))
}

func TestHalfFormatBounds(t *testing.T) {
	assert.Equal(t, 0, IEEEHalf.MaxFinite(false).Rat().Cmp(rat("65504")))
	v, cond := IEEEHalf.Round(rat("65520"), false)
	assert.True(t, v.IsInf())
	assert.True(t, cond.Has(CondOverflow))
}

func TestExponent(t *testing.T) {
	one := FromInt64(1)
	assert.Equal(t, 1, BinaryExponent(one))
	assert.Equal(t, 4, BinaryExponent(FromInt64(8)))
	assert.Equal(t, -1, BinaryExponent(FromRat(big.NewRat(1, 4), false)))
	assert.Equal(t, 3, Decimal64.Exponent(FromInt64(100)))
	assert.Equal(t, 0, Decimal64.Exponent(FromRat(rat("0.5"), false)))
}

func TestRepresentable(t *testing.T) {
	require.True(t, IEEESingle.Representable(FromRat(rat("0.5"), false)))
	assert.False(t, IEEESingle.Representable(FromRat(rat("0.1"), false)))
	assert.True(t, IEEESingle.Representable(Inf(true)))
	assert.True(t, Decimal32.Representable(FromRat(rat("0.1"), false)))
}

func TestRealValueRelations(t *testing.T) {
	assert.True(t, Zero(true).Equal(Zero(false)))
	assert.False(t, Zero(true).Identical(Zero(false)))
	assert.False(t, QNaN(false, nil).Equal(QNaN(false, nil)))
	assert.True(t, QNaN(false, nil).Identical(QNaN(false, big.NewInt(0))))
	assert.False(t, QNaN(false, nil).Identical(SNaN(false, nil)))
	assert.Equal(t, -1, Inf(true).Cmp(FromInt64(-5)))
	assert.Equal(t, 1, Inf(false).Cmp(FromInt64(5)))
	assert.Equal(t, -1, FromInt64(2).Cmp(FromInt64(3)))
	assert.True(t, SNaN(false, big.NewInt(3)).Quiet().Identical(QNaN(false, big.NewInt(3))))
	assert.True(t, FromInt64(-4).IsInteger())
	assert.False(t, FromRat(big.NewRat(1, 2), false).IsInteger())
}
