// Package harness runs fold scenarios: YAML lists of builtin calls with
// the outcome each must have.
//
// # Scenario Format
//
//	name: integer_bits
//	description: "Bit counting on fixed-width integers"
//	flags: [trapping_math, errno_math]   # optional, defaults shown
//	target:                              # optional
//	  clz_at_zero: {32: 32}
//	cases:
//	  - fn: popcount
//	    type: i32
//	    args: ["u32=255"]
//	    expect: "i32=8"
//	  - fn: sqrt
//	    type: ieee_double
//	    args: ["ieee_double=nan"]
//	    not_folded: true
//	assertions:
//	  - type: status_count
//	    status: folded
//	    count: 1
//
// # Assertion Types
//
//   - status_count: exactly Count calls ended with Status
//   - fn_count: exactly Count calls named Fn
//   - trace_contains: some call to Fn folded, to Result when given
//
// # Deterministic Testing
//
// Cases run through the batch engine as one run with a fixed run id, so
// the trace is identical on every run and can be compared against a
// golden file. The run is journaled into an in-memory store and replayed,
// which catches nondeterministic folds.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/integer_bits.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, scenario)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, msg := range result.Errors {
//	    log.Println(msg)
//	}
package harness
