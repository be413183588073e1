package fold

import (
	"errors"
	"fmt"

	"github.com/roach88/constfold/internal/mpbridge"
)

// declineClass categorizes why a call was not folded.
type declineClass string

const (
	// classDomain: an argument lies outside the function's domain or is
	// not a value the evaluator accepts.
	classDomain declineClass = "domain"

	// classPrecision: the result could not be certified exact in the
	// target format.
	classPrecision declineClass = "precision"

	// classSideEffect: the run-time call may trap, set errno or depend on
	// the rounding mode, and folding would hide that.
	classSideEffect declineClass = "side-effect"

	// classFormat: the format lacks a capability the fold relies on.
	classFormat declineClass = "format"

	// classShape: operands or result type do not match the function.
	classShape declineClass = "shape"
)

// declineError explains a refusal to fold. It never leaves the package.
type declineError struct {
	class  declineClass
	reason string
	err    error
}

func (e *declineError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.class, e.reason, e.err)
	}
	return fmt.Sprintf("%s: %s", e.class, e.reason)
}

func (e *declineError) Unwrap() error { return e.err }

func decline(class declineClass, format string, args ...any) error {
	return &declineError{class: class, reason: fmt.Sprintf(format, args...)}
}

// classOf returns the decline class of err, or "" when err is not a
// decline.
func classOf(err error) declineClass {
	var de *declineError
	if errors.As(err, &de) {
		return de.class
	}
	return ""
}

// bridgeDecline classifies an error from the arbitrary-precision bridge.
func bridgeDecline(op mpbridge.Op, err error) error {
	var class declineClass
	switch {
	case errors.Is(err, mpbridge.ErrFormat):
		class = classFormat
	case errors.Is(err, mpbridge.ErrArgument), errors.Is(err, mpbridge.ErrNotNumber):
		class = classDomain
	case errors.Is(err, mpbridge.ErrRange), errors.Is(err, mpbridge.ErrInexact):
		class = classSideEffect
	default:
		class = classPrecision
	}
	return &declineError{class: class, reason: string(op), err: err}
}
