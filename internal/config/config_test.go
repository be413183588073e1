package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/constfold/internal/fold"
	"github.com/roach88/constfold/internal/ir"
)

func writeConfig(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fold.cue"), []byte(src), 0o644))
	return dir
}

func TestDefaultMatchesBuiltinRegistry(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	builtin := ir.DefaultRegistry()
	reg := cfg.Registry()
	assert.Equal(t, builtin.Names(), reg.Names())
	for _, name := range builtin.Names() {
		want, err := builtin.Lookup(name)
		require.NoError(t, err)
		got, err := reg.Lookup(name)
		require.NoError(t, err)
		if diff := cmp.Diff(*want, *got); diff != "" {
			t.Errorf("format %s mismatch (-builtin +config):\n%s", name, diff)
		}
	}

	assert.Equal(t, fold.DefaultFlags(), cfg.Flags)
	assert.Empty(t, cfg.Target.ClzAtZero)
	assert.Empty(t, cfg.Target.CtzAtZero)
}

func TestLoadUserDirectory(t *testing.T) {
	dir := writeConfig(t, `package constfold

flags: rounding_math: true
flags: trapping_math: false

formats: fp8_e4m3: {
	precision:         4
	emin:              -5
	emax:              9
	has_inf:           false
	has_signaling_nan: false
}

target: clz_at_zero: "32": 32
target: ctz_at_zero: "64": 64
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.True(t, cfg.Flags.RoundingMath)
	assert.False(t, cfg.Flags.TrappingMath)
	assert.True(t, cfg.Flags.ErrnoMath, "unset flags keep their defaults")

	f, err := cfg.Registry().Lookup("fp8_e4m3")
	require.NoError(t, err)
	assert.Equal(t, ir.Format{
		Name:          "fp8_e4m3",
		Radix:         2,
		Precision:     4,
		Emin:          -5,
		Emax:          9,
		HasDenorm:     true,
		HasNaN:        true,
		HasSignedZero: true,
	}, *f)

	_, err = cfg.Registry().Lookup("ieee_double")
	assert.NoError(t, err, "built-in formats stay available")

	assert.Equal(t, map[int]int{32: 32}, cfg.Target.ClzAtZero)
	assert.Equal(t, map[int]int{64: 64}, cfg.Target.CtzAtZero)
	assert.Len(t, cfg.FolderOptions(), 2)
}

func TestLoadConfiguredFolder(t *testing.T) {
	dir := writeConfig(t, `package constfold

target: clz_at_zero: "16": 0
`)
	cfg, err := Load(dir)
	require.NoError(t, err)

	f := fold.New(cfg.FolderOptions()...)
	got, ok := f.Fold(fold.Clz, ir.Int32, ir.NewInt64(ir.Uint16, 0))
	require.True(t, ok)
	assert.Equal(t, "i32=0", got.String())
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code ConfigErrorCode
	}{
		{
			name: "redefined builtin",
			src:  "package constfold\n\nformats: ieee_double: precision: 24\n",
			code: ErrCodeBuild,
		},
		{
			name: "emax not above emin",
			src:  "package constfold\n\nformats: tiny: {precision: 3, emin: 4, emax: 4}\n",
			code: ErrCodeBuild,
		},
		{
			name: "unknown radix",
			src:  "package constfold\n\nformats: hex: {radix: 16, precision: 6, emin: -64, emax: 63}\n",
			code: ErrCodeBuild,
		},
		{
			name: "flag of wrong kind",
			src:  "package constfold\n\nflags: errno_math: \"yes\"\n",
			code: ErrCodeBuild,
		},
		{
			name: "non-numeric width",
			src:  "package constfold\n\ntarget: clz_at_zero: wide: 3\n",
			code: ErrCodeValidation,
		},
		{
			name: "count above width",
			src:  "package constfold\n\ntarget: ctz_at_zero: \"8\": 9\n",
			code: ErrCodeValidation,
		},
		{
			name: "signaling without quiet NaNs",
			src:  "package constfold\n\nformats: odd: {precision: 8, emin: -6, emax: 8, has_nan: false}\n",
			code: ErrCodeValidation,
		},
		{
			name: "name shadows an integer type",
			src:  "package constfold\n\nformats: u16: {precision: 8, emin: -6, emax: 8}\n",
			code: ErrCodeValidation,
		},
		{
			name: "syntax error",
			src:  "package constfold\n\nflags: {\n",
			code: ErrCodeLoad,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.src))
			require.Error(t, err)
			assert.True(t, IsConfigError(err, tt.code), "got %v", err)
		})
	}
}

func TestLoadDirectoryErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, IsConfigError(err, ErrCodeNotFound), "got %v", err)

	_, err = Load(t.TempDir())
	assert.True(t, IsConfigError(err, ErrCodeNoFiles), "got %v", err)

	file := filepath.Join(t.TempDir(), "fold.cue")
	require.NoError(t, os.WriteFile(file, []byte("package constfold\n"), 0o644))
	_, err = Load(file)
	assert.True(t, IsConfigError(err, ErrCodeNotFound), "got %v", err)
}

func TestValidateFormat(t *testing.T) {
	valid := func() ir.Format {
		f := *ir.IEEESingle
		f.Name = "my_single"
		return f
	}

	tests := []struct {
		name  string
		edit  func(*ir.Format)
		field string
	}{
		{"valid", func(*ir.Format) {}, ""},
		{"empty name", func(f *ir.Format) { f.Name = "" }, "formats..name"},
		{"upper case name", func(f *ir.Format) { f.Name = "Single" }, "formats.Single.name"},
		{"pointer name", func(f *ir.Format) { f.Name = "ptr" }, "formats.ptr.name"},
		{"bitint name", func(f *ir.Format) { f.Name = "ubi7" }, "formats.ubi7.name"},
		{"radix", func(f *ir.Format) { f.Radix = 16 }, "formats.my_single.radix"},
		{"precision", func(f *ir.Format) { f.Precision = 0 }, "formats.my_single.precision"},
		{"exponent range", func(f *ir.Format) { f.Emin = f.Emax }, "formats.my_single.emin"},
		{"signaling without nan", func(f *ir.Format) { f.HasNaN = false }, "formats.my_single.has_signaling_nan"},
		{"composite decimal", func(f *ir.Format) { f.Radix, f.Composite = 10, true }, "formats.my_single.composite"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid()
			tt.edit(&f)
			err := validateFormat(&f)
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			var ce *ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, ErrCodeValidation, ce.Code)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestConfigErrorMessage(t *testing.T) {
	err := &ConfigError{Code: ErrCodeValidation, Field: "formats.x.radix", Message: "failed"}
	assert.Equal(t, "CONFIG_INVALID: formats.x.radix: failed", err.Error())

	err = &ConfigError{Code: ErrCodeNoFiles, Message: "none"}
	assert.Equal(t, "CONFIG_NO_FILES: none", err.Error())
}
