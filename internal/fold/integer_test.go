package fold

import (
	"math/big"
	"math/bits"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/constfold/internal/ir"
)

// samplePatterns returns bit patterns of the given width: the edge cases
// and a few pseudo-random values.
func samplePatterns(width int, rng *rand.Rand) []*big.Int {
	one := big.NewInt(1)
	all := new(big.Int).Sub(new(big.Int).Lsh(one, uint(width)), one)
	top := new(big.Int).Lsh(one, uint(width-1))
	ps := []*big.Int{new(big.Int), big.NewInt(1), all, top, new(big.Int).Sub(top, one)}
	for i := 0; i < 8; i++ {
		p := new(big.Int).SetUint64(rng.Uint64())
		p.Lsh(p, 64).Or(p, new(big.Int).SetUint64(rng.Uint64()))
		ps = append(ps, p.And(p, all))
	}
	return ps
}

type bitRef struct {
	ffs, clz, ctz, clrsb, popcount, parity int64
}

// reference counts bits one at a time.
func reference(p *big.Int, width int) bitRef {
	var r bitRef
	for i := 0; i < width; i++ {
		if p.Bit(i) == 1 {
			r.popcount++
		}
	}
	r.parity = r.popcount & 1
	r.clz = int64(width)
	for i := width - 1; i >= 0; i-- {
		if p.Bit(i) == 1 {
			r.clz = int64(width - 1 - i)
			break
		}
	}
	r.ctz = int64(width)
	for i := 0; i < width; i++ {
		if p.Bit(i) == 1 {
			r.ctz = int64(i)
			r.ffs = int64(i + 1)
			break
		}
	}
	sign := p.Bit(width - 1)
	for i := width - 2; i >= 0 && p.Bit(i) == sign; i-- {
		r.clrsb++
	}
	return r
}

func TestBitCountsMatchReference(t *testing.T) {
	f := newFolder()
	rng := rand.New(rand.NewPCG(1, 2))
	for width := 1; width <= 128; width++ {
		for _, unsigned := range []bool{true, false} {
			typ := ir.IntType(width, unsigned)
			for _, p := range samplePatterns(width, rng) {
				x := ir.NewInteger(typ, p)
				want := reference(p, width)
				for fn, w := range map[Func]int64{
					Ffs: want.ffs, Clz: want.clz, Ctz: want.ctz,
					Clrsb: want.clrsb, Popcount: want.popcount, Parity: want.parity,
				} {
					got, ok := f.Fold(fn, ir.Int32, x)
					require.True(t, ok, "%s(%s)", fn, x)
					assert.Equal(t, w, got.(*ir.IntegerConstant).Value.Int64(), "%s(%s)", fn, x)
				}
			}
		}
	}
}

func TestCountAtZero(t *testing.T) {
	f := newFolder(WithTarget(Target{
		ClzAtZero: map[int]int{32: 99},
		CtzAtZero: map[int]int{64: -1},
	}))
	runFolds(t, f, []foldCase{
		{"clz target", Clz, "i32", ks("u32=0"), k("i32=99")},
		{"clz no entry", Clz, "i32", ks("u16=0"), k("i32=16")},
		{"clz bitint", Clz, "i32", ks("ubi32=0"), k("i32=32")},
		{"clzg fallback operand", Clzg, "i32", ks("u32=0", "i32=-1"), k("i32=-1")},
		{"clzg fallback ignored", Clzg, "i32", ks("u32=1", "i32=-1"), k("i32=31")},
		{"ctz target", Ctz, "i32", ks("u64=0"), k("i32=-1")},
		{"ctzg fallback operand", Ctzg, "i32", ks("u64=0", "i64=7"), k("i32=7")},
		{"ffs zero", Ffs, "i32", ks("i64=0"), k("i32=0")},
	})
	assertFolds(t, newFolder(), Clz, "i32", k("i32=32"), k("u32=0"))
	assertFolds(t, newFolder(), Clzg, "i32", k("i32=32"), k("u32=0"))
	assertFolds(t, newFolder(), Ctzg, "i32", k("i32=5"), k("u64=32"), k("i64=7"))
}

func TestCountNoFallbackOperand(t *testing.T) {
	// Only the generic forms take a value for a zero operand.
	for _, fn := range []Func{Clz, Ctz} {
		assertDeclines(t, newFolder(), fn, "i32", classShape, k("u32=0"), k("i32=-1"))
		assertDeclines(t, newFolder(), fn, "i32", classShape, k("u32=1"), k("i32=-1"))
	}
	assertDeclines(t, newFolder(), Clzg, "i32", classShape, k("u32=0"), k("i32=-1"), k("i32=0"))
}

func TestBswap(t *testing.T) {
	runFolds(t, newFolder(), []foldCase{
		{"16", Bswap, "u16", ks("u16=0x1234"), k("u16=0x3412")},
		{"32", Bswap, "u32", ks("u32=0x11223344"), k("u32=0x44332211")},
		{"sign extended", Bswap, "u32", ks("i16=-2"), k("u32=0xfeffffff")},
		{"signed result", Bswap, "i16", ks("i16=0x00ff"), k("i16=-256")},
		{"128", Bswap, "u128", ks("u128=0x0102030405060708090a0b0c0d0e0f10"),
			k("u128=0x100f0e0d0c0b0a090807060504030201")},
	})
	assertDeclines(t, newFolder(), Bswap, "ubi12", classShape, k("ubi12=1"))

	rng := rand.New(rand.NewPCG(3, 4))
	f := newFolder()
	for i := 0; i < 32; i++ {
		v := rng.Uint64()
		got, ok := f.Fold(Bswap, ir.Uint64, ir.NewInteger(ir.Uint64, new(big.Int).SetUint64(v)))
		require.True(t, ok)
		assert.Equal(t, bits.ReverseBytes64(v), got.(*ir.IntegerConstant).Value.Uint64())
	}
}
