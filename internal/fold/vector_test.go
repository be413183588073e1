package fold

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/roach88/constfold/internal/ir"
)

func TestIntegerReductions(t *testing.T) {
	runFolds(t, newFolder(), []foldCase{
		{"plus", ReducPlus, "i32", ks("vec4(i32)=[1,2,3,4]"), k("i32=10")},
		{"plus signed overflow", ReducPlus, "i8", ks("vec2(i8)=[100,100]"), k("i8=overflow(-56)")},
		{"overflow sticks", ReducPlus, "i8", ks("vec3(i8)=[100,100,1]"), k("i8=overflow(-55)")},
		{"plus unsigned wraps", ReducPlus, "u8", ks("vec2(u8)=[200,100]"), k("u8=44")},
		{"max", ReducMax, "i32", ks("vec4(i32)=[3,-1,7,2]"), k("i32=7")},
		{"min", ReducMin, "i32", ks("vec4(i32)=[3,-1,7,2]"), k("i32=-1")},
		{"and", ReducAnd, "u8", ks("vec2(u8)=[0xf0,0x3c]"), k("u8=0x30")},
		{"ior", ReducIor, "u8", ks("vec2(u8)=[0xf0,0x3c]"), k("u8=0xfc")},
		{"xor", ReducXor, "u8", ks("vec2(u8)=[0xf0,0x3c]"), k("u8=0xcc")},
		{"single lane", ReducPlus, "i32", ks("vec1(i32)=[9]"), k("i32=9")},
		{"fold left", FoldLeftPlus, "i32", ks("i32=5", "vec4(i32)=[1,2,3,4]"), k("i32=15")},
	})
	runDeclines(t, newFolder(), []declineCase{
		{"result type", ReducPlus, "i64", ks("vec2(i32)=[1,2]"), classShape},
		{"single lane result type", ReducPlus, "i64", ks("vec1(i32)=[1]"), classShape},
		{"scalable", ReducPlus, "i32", ks("vecx4(i32)=[1,2,3,4]"), classShape},
		{"overflowed lane", ReducPlus, "i32", ks("vec2(i32)=[overflow(1),2]"), classShape},
		{"opaque lane", ReducPlus, "i32", ks("vec2(i32)=[?a,2]"), classShape},
		{"bitwise on reals", ReducAnd, dbl, ks("vec2(ieee_double)=[1,2]"), classShape},
		{"fold left accumulator type", FoldLeftPlus, "i32", ks("i64=5", "vec2(i32)=[1,2]"), classShape},
	})
}

func TestRealReductions(t *testing.T) {
	tiny := "0x1p-53"
	runFolds(t, newFolder(), []foldCase{
		{"left to right", ReducPlus, dbl, ks("vec3(ieee_double)=[1," + tiny + "," + tiny + "]"), d(1)},
		{"small first", ReducPlus, dbl, ks("vec3(ieee_double)=[" + tiny + "," + tiny + ",1]"), d(1 + 0x1p-52)},
		{"max", ReducMax, dbl, ks("vec3(ieee_double)=[1,-2,0.5]"), d(1)},
		{"min", ReducMin, dbl, ks("vec3(ieee_double)=[1,-2,0.5]"), d(-2)},
		{"nan operand", ReducPlus, dbl, ks("vec2(ieee_double)=[nan(0x7),1]"), k("ieee_double=nan(0x7)")},
		{"snan quieted", ReducPlus, dbl, ks("vec2(ieee_double)=[snan(0x7),1]"), k("ieee_double=nan(0x7)")},
		{"fold left", FoldLeftPlus, dbl, ks("ieee_double=0.5", "vec2(ieee_double)=[1,2]"), d(3.5)},
	})
	runDeclines(t, newFolder(), []declineCase{
		{"invalid", ReducPlus, dbl, ks("vec2(ieee_double)=[inf,-inf]"), classSideEffect},
		{"overflow", ReducPlus, dbl, ks("vec2(ieee_double)=[0x1.fffffffffffffp1023,0x1.fffffffffffffp1023]"), classSideEffect},
	})

	lenient := newFolder(WithFlags(Flags{}))
	assertFolds(t, lenient, ReducPlus, dbl, k("ieee_double=nan"), k("vec2(ieee_double)=[inf,-inf]"))
	assertFolds(t, lenient, ReducPlus, dbl, k("ieee_double=inf"),
		k("vec2(ieee_double)=[0x1.fffffffffffffp1023,0x1.fffffffffffffp1023]"))

	rounding := newFolder(WithFlags(Flags{RoundingMath: true}))
	assertDeclines(t, rounding, ReducPlus, dbl, classSideEffect, k("vec3(ieee_double)=[1,"+tiny+","+tiny+"]"))
	assertFolds(t, rounding, ReducPlus, dbl, d(3), k("vec2(ieee_double)=[1,2]"))

	signaling := newFolder(WithFlags(Flags{SignalingNaNs: true}))
	assertDeclines(t, signaling, ReducPlus, dbl, classSideEffect, k("vec2(ieee_double)=[snan,1]"))

	composite := "vec2(ibm_extended)=[1,0x1p-200]"
	assertDeclines(t, newFolder(), ReducPlus, "ibm_extended", classSideEffect, k(composite))
	assertFolds(t, newFolder(WithFlags(Flags{UnsafeMathOptimizations: true})), ReducPlus, "ibm_extended",
		k("ibm_extended=1"), k(composite))
}

func laneStrings(c ir.Constant) []string {
	v := c.(*ir.VectorConstant)
	out := make([]string, len(v.Lanes))
	for i, l := range v.Lanes {
		out[i] = l.String()
	}
	return out
}

func TestVecConvert(t *testing.T) {
	tests := []struct {
		name   string
		from   string
		result string
		want   string
	}{
		{
			name:   "real to int saturates",
			from:   "vec5(ieee_double)=[1.5,-2.5,nan,1e300,-inf]",
			result: "vec5(i32)",
			want:   "vec5(i32)=[1,-2,overflow(0),overflow(2147483647),overflow(-2147483648)]",
		},
		{
			name:   "int to real rounds",
			from:   "vec2(i32)=[1,16777217]",
			result: "vec2(ieee_single)",
			want:   "vec2(ieee_single)=[1,16777216]",
		},
		{
			name:   "int to unsigned wraps",
			from:   "vec2(i32)=[300,-1]",
			result: "vec2(u8)",
			want:   "vec2(u8)=[44,255]",
		},
		{
			name:   "int to signed marks overflow",
			from:   "vec2(i32)=[300,-1]",
			result: "vec2(i8)",
			want:   "vec2(i8)=[overflow(44),-1]",
		},
		{
			name:   "narrowing real",
			from:   "vec3(ieee_double)=[2,-0,inf]",
			result: "vec3(ieee_single)",
			want:   "vec3(ieee_single)=[2,-0,inf]",
		},
		{
			name:   "payload truncated",
			from:   "vec1(ieee_double)=[nan(0x400001)]",
			result: "vec1(ieee_single)",
			want:   "vec1(ieee_single)=[nan(0x1)]",
		},
	}
	f := newFolder()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := f.Fold(VecConvert, ty(t, tt.result), k(tt.from))
			require.True(t, ok, "%v", reason(f, VecConvert, ty(t, tt.result), ks(tt.from)))
			if diff := cmp.Diff(laneStrings(k(tt.want)), laneStrings(got)); diff != "" {
				t.Errorf("vec_convert(%s) mismatch (-want +got):\n%s", tt.from, diff)
			}
		})
	}

	runDeclines(t, f, []declineCase{
		{"lane count", VecConvert, "vec2(i32)", ks("vec4(i32)=[1,2,3,4]"), classShape},
		{"scalable", VecConvert, "vecx2(i64)", ks("vecx2(i32)=[1,2]"), classShape},
	})
	assertDeclines(t, newFolder(WithFlags(Flags{RoundingMath: true})), VecConvert, "vec1(ieee_single)",
		classSideEffect, k("vec1(ieee_double)=[0.1]"))
	assertDeclines(t, newFolder(WithFlags(Flags{SignalingNaNs: true})), VecConvert, "vec1(ieee_single)",
		classSideEffect, k("vec1(ieee_double)=[snan]"))
}

func TestWhileULT(t *testing.T) {
	runFolds(t, newFolder(), []foldCase{
		{"partial", WhileUlt, "vec8(i8)", ks("u64=2", "u64=5"), k("vec8(i8)=[-1,-1,-1,0,0,0,0,0]")},
		{"empty", WhileUlt, "vec4(i8)", ks("u64=5", "u64=2"), k("vec4(i8)=[0,0,0,0]")},
		{"equal", WhileUlt, "vec4(i8)", ks("u64=3", "u64=3"), k("vec4(i8)=[0,0,0,0]")},
		{"full", WhileUlt, "vec4(i32)", ks("u64=0", "u64=100"), k("vec4(i32)=[-1,-1,-1,-1]")},
		{"huge span", WhileUlt, "vec2(i8)", ks("u64=0", "u64=0xffffffffffffffff"), k("vec2(i8)=[-1,-1]")},
	})
	runDeclines(t, newFolder(), []declineCase{
		{"scalable", WhileUlt, "vecx4(i8)", ks("u64=0", "u64=2"), classShape},
		{"real lanes", WhileUlt, "vec4(ieee_double)", ks("u64=0", "u64=2"), classShape},
		{"signed negative", WhileUlt, "vec4(i8)", ks("i64=-1", "i64=2"), classDomain},
	})
}
