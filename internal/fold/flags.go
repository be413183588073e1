package fold

import (
	"fmt"

	"github.com/roach88/constfold/internal/ir"
)

// Flags are the numeric safety settings of one compilation. The zero value
// is the most permissive setting; DefaultFlags matches a compiler's
// defaults.
type Flags struct {
	// TrappingMath means floating-point exceptions may be observed.
	TrappingMath bool `json:"trapping_math" yaml:"trapping_math"`

	// RoundingMath means the rounding mode may differ from the default at
	// run time, so only exact results can be folded.
	RoundingMath bool `json:"rounding_math" yaml:"rounding_math"`

	// ErrnoMath means math functions may set errno.
	ErrnoMath bool `json:"errno_math" yaml:"errno_math"`

	// SignalingNaNs means signaling NaNs must raise invalid when used.
	SignalingNaNs bool `json:"signaling_nans" yaml:"signaling_nans"`

	// UnsafeMathOptimizations allows value-changing shortcuts.
	UnsafeMathOptimizations bool `json:"unsafe_math" yaml:"unsafe_math"`
}

// DefaultFlags returns trapping-math and errno-math on, everything else off.
func DefaultFlags() Flags {
	return Flags{TrappingMath: true, ErrnoMath: true}
}

// honorSNaNs reports whether signaling NaNs of format f must be preserved.
func (fl Flags) honorSNaNs(f *ir.Format) bool {
	return fl.SignalingNaNs && f.HasSignalingNaN
}

// Names returns the names of the flags that are set, in a fixed order.
func (fl Flags) Names() []string {
	var names []string
	for _, f := range []struct {
		on   bool
		name string
	}{
		{fl.TrappingMath, "trapping_math"},
		{fl.RoundingMath, "rounding_math"},
		{fl.ErrnoMath, "errno_math"},
		{fl.SignalingNaNs, "signaling_nans"},
		{fl.UnsafeMathOptimizations, "unsafe_math"},
	} {
		if f.on {
			names = append(names, f.name)
		}
	}
	return names
}

// Target holds the machine facts folding depends on.
type Target struct {
	// ClzAtZero and CtzAtZero give the value the hardware count
	// instructions produce for a zero operand, keyed by operand width.
	// Widths without an entry fall back to the operand width.
	ClzAtZero map[int]int `json:"clz_at_zero" yaml:"clz_at_zero"`
	CtzAtZero map[int]int `json:"ctz_at_zero" yaml:"ctz_at_zero"`
}

// ParseFlags is the inverse of Flags.Names.
func ParseFlags(names []string) (Flags, error) {
	var fl Flags
	for _, n := range names {
		switch n {
		case "trapping_math":
			fl.TrappingMath = true
		case "rounding_math":
			fl.RoundingMath = true
		case "errno_math":
			fl.ErrnoMath = true
		case "signaling_nans":
			fl.SignalingNaNs = true
		case "unsafe_math":
			fl.UnsafeMathOptimizations = true
		default:
			return Flags{}, fmt.Errorf("unknown flag %q", n)
		}
	}
	return fl, nil
}
