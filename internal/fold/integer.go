package fold

import (
	"math/big"
	"math/bits"

	"github.com/roach88/constfold/internal/ir"
)

func (f *Folder) foldInteger(c *call) (ir.Constant, error) {
	x := c.ops[0].integer()
	t := x.Typ
	p := t.Pattern(x.Value)
	width := t.Bits

	var n int64
	switch c.fn {
	case Ffs:
		if p.Sign() != 0 {
			n = int64(p.TrailingZeroBits()) + 1
		}
	case Clz, Clzg:
		if p.Sign() != 0 {
			n = int64(width - p.BitLen())
		} else {
			n = f.countAtZero(c, f.target.ClzAtZero)
		}
	case Ctz, Ctzg:
		if p.Sign() != 0 {
			n = int64(p.TrailingZeroBits())
		} else {
			n = f.countAtZero(c, f.target.CtzAtZero)
		}
	case Clrsb:
		n = int64(clrsb(p, width))
	case Popcount:
		n = int64(popcount(p))
	case Parity:
		n = int64(popcount(p) & 1)
	case Bswap:
		return bswap(c.result, x)
	default:
		c.unhandled("integer")
	}
	return ir.NewInt64(c.result, n), nil
}

// countAtZero returns clz or ctz of a zero operand: the explicit fallback
// operand if given, else the target's value, else the operand width.
// _BitInt operands have no machine mode and always use the width.
func (f *Folder) countAtZero(c *call, atZero map[int]int) int64 {
	t := c.ops[0].integer().Typ
	if len(c.ops) == 2 {
		return ir.Int64.Wrap(c.ops[1].integer().Value).Int64()
	}
	if !t.BitInt {
		if n, ok := atZero[t.Bits]; ok {
			return int64(n)
		}
	}
	return int64(t.Bits)
}

// clrsb counts the bits after the sign bit that equal it.
func clrsb(p *big.Int, width int) int {
	if p.Bit(width-1) == 1 {
		mask := new(big.Int).Lsh(big.NewInt(1), uint(width))
		mask.Sub(mask, big.NewInt(1))
		p = new(big.Int).Xor(p, mask)
	}
	return width - p.BitLen() - 1
}

func popcount(p *big.Int) int {
	n := 0
	for _, w := range p.Bits() {
		n += bits.OnesCount(uint(w))
	}
	return n
}

// bswap extends x to the result width by x's own signedness and reverses
// the bytes.
func bswap(t *ir.Type, x *ir.IntegerConstant) (ir.Constant, error) {
	if t.Bits%8 != 0 {
		return nil, decline(classShape, "cannot byte-swap %s", t)
	}
	buf := t.Pattern(x.Value).FillBytes(make([]byte, t.Bits/8))
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return ir.NewInteger(t, new(big.Int).SetBytes(buf)), nil
}
