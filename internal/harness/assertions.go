package harness

import (
	"fmt"
	"strings"
)

// AssertionError is returned when an assertion fails. It carries the
// trace so the failure can be read in context.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
	Trace    []TraceEvent
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, ev := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s(%s) -> %s", ev.Seq, ev.Fn, strings.Join(ev.Args, ", "), ev.Status)
		if ev.Result != "" {
			fmt.Fprintf(&buf, " %s", ev.Result)
		}
		buf.WriteByte('\n')
	}
	return buf.String()
}

// EvaluateAssertions runs every assertion against trace and returns the
// failure messages.
func EvaluateAssertions(trace []TraceEvent, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		if err := evaluateAssertion(trace, a); err != nil {
			errs = append(errs, fmt.Sprintf("assertion %d: %v", i, err))
		}
	}
	return errs
}

func evaluateAssertion(trace []TraceEvent, a Assertion) error {
	switch a.Type {
	case AssertStatusCount:
		return assertStatusCount(trace, a)
	case AssertFnCount:
		return assertFnCount(trace, a)
	case AssertTraceContains:
		return assertTraceContains(trace, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertStatusCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Status == a.Status {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertStatusCount,
			Expected: fmt.Sprintf("%d %s calls", a.Count, a.Status),
			Actual:   fmt.Sprintf("%d %s calls", n, a.Status),
			Trace:    trace,
		}
	}
	return nil
}

func assertFnCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Fn == a.Fn {
			n++
		}
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertFnCount,
			Expected: fmt.Sprintf("%d calls to %s", a.Count, a.Fn),
			Actual:   fmt.Sprintf("%d calls to %s", n, a.Fn),
			Trace:    trace,
		}
	}
	return nil
}

// assertTraceContains checks for a call to a.Fn that folded, and when
// a.Result is set, folded to exactly that text.
func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Fn != a.Fn || ev.Status != "folded" {
			continue
		}
		if a.Result == "" || ev.Result == a.Result {
			return nil
		}
	}
	expected := fmt.Sprintf("%s folded", a.Fn)
	if a.Result != "" {
		expected += " to " + a.Result
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: expected,
		Actual:   "no matching call",
		Trace:    trace,
	}
}
