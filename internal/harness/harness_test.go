package harness

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/constfold/internal/fold"
	"github.com/roach88/constfold/internal/ir"
)

func runScenario(t *testing.T, s *Scenario, opts ...Option) *Result {
	t.Helper()
	result, err := Run(context.Background(), s, opts...)
	require.NoError(t, err)
	return result
}

func TestRun_Passing(t *testing.T) {
	s := &Scenario{
		Name:        "passing",
		Description: "d",
		Cases: []Case{
			{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=0.25"}, Expect: "ieee_double=0.5"},
			{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=-1"}, NotFolded: true},
			{Fn: "sqrtx", Type: "ieee_double", Args: []string{"ieee_double=1"}, Invalid: true},
		},
		Assertions: []Assertion{
			{Type: AssertStatusCount, Status: "folded", Count: 1},
		},
	}

	result := runScenario(t, s)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)
	assert.Equal(t, "scenario-run", result.RunID)
	assert.Equal(t, []string{"trapping_math", "errno_math"}, result.Flags)

	require.Len(t, result.Trace, 3)
	for i, ev := range result.Trace {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
	assert.Equal(t, "folded", result.Trace[0].Status)
	assert.Equal(t, "ieee_double=0.5", result.Trace[0].Result)
	assert.Equal(t, "not_folded", result.Trace[1].Status)
	assert.Equal(t, "invalid", result.Trace[2].Status)
	assert.Contains(t, result.Trace[2].Error, "UNKNOWN_FUNCTION")
}

func TestRun_ExpectComparesBitwise(t *testing.T) {
	s := &Scenario{
		Name:        "bitwise",
		Description: "d",
		Cases: []Case{
			{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=0.25"}, Expect: "ieee_double=0x1p-1"},
			{Fn: "bswap16", Type: "u16", Args: []string{"u16=0x1234"}, Expect: "u16=13330"},
		},
	}

	result := runScenario(t, s)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Mismatches(t *testing.T) {
	s := &Scenario{
		Name:        "failing",
		Description: "d",
		Cases: []Case{
			{Name: "wrong value", Fn: "popcount", Type: "i32", Args: []string{"u32=3"}, Expect: "i32=3"},
			{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=4"}, NotFolded: true},
			{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=-1"}, Expect: "ieee_double=0"},
			{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=4"}, Invalid: true},
			{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=4"}, Expect: "nonsense"},
		},
	}

	result := runScenario(t, s)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 5)
	assert.Equal(t, "case 0 (wrong value): expected i32=3, got i32=2", result.Errors[0])
	assert.Equal(t, "case 1 (sqrt): expected not_folded, got ieee_double=2", result.Errors[1])
	assert.Equal(t, "case 2 (sqrt): expected ieee_double=0, got not_folded", result.Errors[2])
	assert.Equal(t, "case 3 (sqrt): expected invalid, got ieee_double=2", result.Errors[3])
	assert.Contains(t, result.Errors[4], `bad expect "nonsense"`)
}

func TestRun_AssertionFailure(t *testing.T) {
	s := &Scenario{
		Name:        "assertions",
		Description: "d",
		Cases: []Case{
			{Fn: "clz", Type: "i32", Args: []string{"u32=1"}, Expect: "i32=31"},
		},
		Assertions: []Assertion{
			{Type: AssertFnCount, Fn: "clz", Count: 2},
		},
	}

	result := runScenario(t, s)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "assertion 0")
	assert.Contains(t, result.Errors[0], "2 calls to clz")
}

func TestRun_Flags(t *testing.T) {
	s := &Scenario{
		Name:        "flags",
		Description: "d",
		Flags:       []string{},
		Cases: []Case{
			{Fn: "sqrt", Type: "ieee_double", Args: []string{"ieee_double=4"}, Expect: "ieee_double=2"},
		},
	}

	result := runScenario(t, s)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []string{}, result.Flags)
}

func TestRun_Target(t *testing.T) {
	s := &Scenario{
		Name:        "target",
		Description: "d",
		Target:      &fold.Target{ClzAtZero: map[int]int{16: 0}},
		Cases: []Case{
			{Fn: "clz", Type: "i32", Args: []string{"u16=0"}, Expect: "i32=0"},
		},
	}

	result := runScenario(t, s)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_Registry(t *testing.T) {
	reg := ir.NewRegistry(&ir.Format{
		Name: "tiny", Radix: 2, Precision: 4, Emin: -2, Emax: 3,
		HasNaN: true, HasInf: true, HasDenorm: true, HasSignedZero: true,
	})
	s := &Scenario{
		Name:        "registry",
		Description: "d",
		Cases: []Case{
			{Fn: "floor", Type: "tiny", Args: []string{"tiny=1.5"}, Expect: "tiny=1"},
		},
	}

	result := runScenario(t, s, WithRegistry(reg))
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	result = runScenario(t, s)
	assert.False(t, result.Pass)
}

func TestRun_CustomRunID(t *testing.T) {
	s := &Scenario{
		Name:        "run-id",
		Description: "d",
		RunID:       "custom",
		Cases: []Case{
			{Fn: "popcount", Type: "i32", Args: []string{"u8=7"}, Expect: "i32=3"},
		},
	}

	result := runScenario(t, s)
	assert.Equal(t, "custom", result.RunID)
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := &Scenario{
		Name:        "cancelled",
		Description: "d",
		Cases: []Case{
			{Fn: "popcount", Type: "i32", Args: []string{"u8=7"}, Expect: "i32=3"},
		},
	}
	_, err := Run(ctx, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to run scenario")
}
