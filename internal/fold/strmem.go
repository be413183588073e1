package fold

import (
	"bytes"

	"github.com/roach88/constfold/internal/ir"
)

func (f *Folder) foldString(c *call) (ir.Constant, error) {
	switch c.fn {
	case Strlen:
		s, err := c.str(0)
		if err != nil {
			return nil, err
		}
		return ir.NewInt64(c.result, int64(len(s))), nil
	case Strspn, Strcspn, Strcmp, Strcasecmp:
		return c.foldStrPair()
	case Strchr, Strrchr:
		return c.foldStrchr()
	case Strstr:
		return c.foldStrstr()
	case Strncmp, Strncasecmp, Memcmp, Memchr:
		return c.foldBounded()
	default:
		c.unhandled("string")
		return nil, nil
	}
}

// str returns the known string operand at position i.
func (c *call) str(i int) ([]byte, error) {
	s, ok := c.ops[i].bytes().cString()
	if !ok {
		return nil, decline(classDomain, "argument %d of %s is not a known string", i, c.fn)
	}
	return s, nil
}

func (c *call) foldStrPair() (ir.Constant, error) {
	p0, err := c.str(0)
	if err != nil {
		return nil, err
	}
	p1, err := c.str(1)
	if err != nil {
		return nil, err
	}
	var n int64
	switch c.fn {
	case Strspn:
		n = int64(span(p0, p1, true))
	case Strcspn:
		n = int64(span(p0, p1, false))
	case Strcmp:
		n = int64(bytes.Compare(p0, p1))
	case Strcasecmp:
		// Equal strings compare equal in every locale; nothing else is
		// known at compile time.
		if !bytes.Equal(p0, p1) {
			return nil, decline(classDomain, "strcasecmp result depends on the locale")
		}
	}
	return ir.NewInt64(c.result, n), nil
}

// span returns the length of the prefix of s whose bytes are all in set
// (in == true) or all outside it.
func span(s, set []byte, in bool) int {
	for i, b := range s {
		if (bytes.IndexByte(set, b) >= 0) != in {
			return i
		}
	}
	return len(s)
}

// char returns the integer operand at position i as a target char.
func (c *call) char(i int) (byte, error) {
	v := c.ops[i].integer().Value
	if v.Sign() < 0 || !v.IsUint64() {
		return 0, decline(classDomain, "character argument %s out of range", v)
	}
	return byte(v.Uint64()), nil
}

func (c *call) foldStrchr() (ir.Constant, error) {
	s, err := c.str(0)
	if err != nil {
		return nil, err
	}
	ch, err := c.char(1)
	if err != nil {
		return nil, err
	}
	i := len(s)
	if ch != 0 {
		if c.fn == Strchr {
			i = bytes.IndexByte(s, ch)
		} else {
			i = bytes.LastIndexByte(s, ch)
		}
	}
	return c.pointer(0, i), nil
}

// pointer returns the address n bytes past operand i, or a null pointer
// when n is negative.
func (c *call) pointer(i, n int) ir.Constant {
	if n < 0 {
		return ir.NewInt64(c.result, 0)
	}
	return c.ops[i].bytes().at(c.result, n)
}

func (c *call) foldStrstr() (ir.Constant, error) {
	needle, err := c.str(1)
	if err != nil {
		return nil, err
	}
	hay, ok := c.ops[0].bytes().cString()
	if !ok {
		if len(needle) == 0 {
			return c.pointer(0, 0), nil
		}
		return nil, decline(classDomain, "haystack of strstr is not a known string")
	}
	return c.pointer(0, bytes.Index(hay, needle)), nil
}

// foldBounded handles the functions whose third operand bounds the number
// of bytes examined.
func (c *call) foldBounded() (ir.Constant, error) {
	bound := c.ops[2].integer()
	p := bound.Typ.Pattern(bound.Value)
	if p.BitLen() > 64 {
		return nil, decline(classDomain, "bound %s does not fit size_t", bound.Value)
	}
	n := p.Uint64()

	// A zero bound reads nothing, but the operands must still be evaluated
	// when that is observable.
	if n == 0 && !c.hasSideEffects() {
		return ir.NewInt64(c.result, 0), nil
	}

	switch c.fn {
	case Strncmp, Strncasecmp:
		p0, err := c.str(0)
		if err != nil {
			return nil, err
		}
		p1, err := c.str(1)
		if err != nil {
			return nil, err
		}
		r := strncmp(p0, p1, n)
		if c.fn == Strncasecmp && r != 0 {
			return nil, decline(classDomain, "strncasecmp result depends on the locale")
		}
		return ir.NewInt64(c.result, int64(r)), nil
	case Memcmp:
		p0, ok0 := c.ops[0].bytes().rep()
		p1, ok1 := c.ops[1].bytes().rep()
		if !ok0 || !ok1 || n > uint64(len(p0)) || n > uint64(len(p1)) {
			return nil, decline(classDomain, "memcmp operands shorter than %d bytes or unknown", n)
		}
		return ir.NewInt64(c.result, int64(bytes.Compare(p0[:n], p1[:n]))), nil
	case Memchr:
		p0, ok := c.ops[0].bytes().rep()
		if !ok || n > uint64(len(p0)) {
			return nil, decline(classDomain, "memchr buffer shorter than %d bytes or unknown", n)
		}
		ch, err := c.char(1)
		if err != nil {
			return nil, err
		}
		return c.pointer(0, bytes.IndexByte(p0[:n], ch)), nil
	}
	c.unhandled("bounded string")
	return nil, nil
}

func (c *call) hasSideEffects() bool {
	for _, o := range c.ops {
		if o.shape == shapeBytes && o.bytes().sideEffects() {
			return true
		}
	}
	return false
}

// strncmp compares at most n bytes of two C strings given without their
// terminators, returning -1, 0 or 1.
func strncmp(a, b []byte, n uint64) int {
	for i := uint64(0); i < n; i++ {
		var ca, cb byte
		if i < uint64(len(a)) {
			ca = a[i]
		}
		if i < uint64(len(b)) {
			cb = b[i]
		}
		switch {
		case ca < cb:
			return -1
		case ca > cb:
			return 1
		case ca == 0:
			return 0
		}
	}
	return 0
}
