package ir

import (
	"fmt"
	"sort"
)

// Format describes one floating-point representation.
//
// Exponent bounds follow the normalized-significand convention: a finite
// nonzero value is 0.d1d2...dp × Radix^e with d1 != 0, and it is normal iff
// Emin <= e <= Emax. IEEE binary64 is therefore {Radix: 2, Precision: 53,
// Emin: -1021, Emax: 1024}.
type Format struct {
	Name      string `json:"name" validate:"required,format_name"`
	Radix     int    `json:"radix" validate:"oneof=2 10"`
	Precision int    `json:"precision" validate:"gt=0,lte=65536"`
	Emin      int    `json:"emin" validate:"ltfield=Emax"`
	Emax      int    `json:"emax"`

	HasDenorm        bool `json:"has_denorm"`
	HasInf           bool `json:"has_inf"`
	HasNaN           bool `json:"has_nan"`
	HasSignalingNaN  bool `json:"has_signaling_nan"`
	HasSignedZero    bool `json:"has_signed_zero"`
	RoundTowardsZero bool `json:"round_towards_zero"`

	// Composite formats (pairs of doubles) have fewer significant bits in
	// NaN encodings than in finite values.
	Composite bool `json:"composite"`
}

// String returns the format name.
func (f *Format) String() string {
	if f == nil {
		return "<nil format>"
	}
	return f.Name
}

// PayloadBits is the number of NaN payload bits available, excluding the
// quiet bit.
func (f *Format) PayloadBits() int {
	if f.Radix != 2 {
		return 0
	}
	n := f.Precision - 2
	if f.Composite {
		n = 53 - 2
	}
	if n < 0 {
		return 0
	}
	return n
}

func ieee(name string, p, emin, emax int) *Format {
	return &Format{
		Name:            name,
		Radix:           2,
		Precision:       p,
		Emin:            emin,
		Emax:            emax,
		HasDenorm:       true,
		HasInf:          true,
		HasNaN:          true,
		HasSignalingNaN: true,
		HasSignedZero:   true,
	}
}

func dfp(name string, p, emin, emax int) *Format {
	f := ieee(name, p, emin, emax)
	f.Radix = 10
	return f
}

// Built-in formats.
var (
	IEEEHalf   = ieee("ieee_half", 11, -13, 16)
	BFloat16   = ieee("bfloat16", 8, -125, 128)
	IEEESingle = ieee("ieee_single", 24, -125, 128)
	IEEEDouble = ieee("ieee_double", 53, -1021, 1024)
	IEEEQuad   = ieee("ieee_quad", 113, -16381, 16384)
	X87Ext     = ieee("x87_extended", 64, -16381, 16384)
	IBMExt     = func() *Format {
		f := ieee("ibm_extended", 106, -968, 1024)
		f.Composite = true
		return f
	}()
	Decimal32  = dfp("decimal32", 7, -94, 97)
	Decimal64  = dfp("decimal64", 16, -382, 385)
	Decimal128 = dfp("decimal128", 34, -6142, 6145)
)

// Registry maps format names to descriptors. It is owned by the caller and
// read-only once built.
type Registry struct {
	formats map[string]*Format
}

// NewRegistry creates a registry holding the given formats.
// Later entries replace earlier ones with the same name.
func NewRegistry(formats ...*Format) *Registry {
	r := &Registry{formats: make(map[string]*Format, len(formats))}
	for _, f := range formats {
		r.formats[f.Name] = f
	}
	return r
}

// DefaultRegistry returns a registry of the built-in formats.
func DefaultRegistry() *Registry {
	return NewRegistry(IEEEHalf, BFloat16, IEEESingle, IEEEDouble, IEEEQuad,
		X87Ext, IBMExt, Decimal32, Decimal64, Decimal128)
}

// Lookup returns the named format.
func (r *Registry) Lookup(name string) (*Format, error) {
	f, ok := r.formats[name]
	if !ok {
		return nil, fmt.Errorf("unknown float format %q", name)
	}
	return f, nil
}

// Names returns the registered format names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.formats))
	for n := range r.formats {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
