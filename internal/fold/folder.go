package fold

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/roach88/constfold/internal/ir"
	"github.com/roach88/constfold/internal/mpbridge"
)

// Folder evaluates builtin calls on constant arguments.
//
// A Folder holds only read-only configuration and is safe for concurrent
// use; every call builds its own working state.
type Folder struct {
	flags   Flags
	target  Target
	backend mpbridge.Backend
	logger  *slog.Logger
}

// Option configures a Folder.
type Option func(*Folder)

// WithFlags sets the numeric safety flags. Default: DefaultFlags().
func WithFlags(fl Flags) Option {
	return func(f *Folder) { f.flags = fl }
}

// WithTarget sets the machine facts used by bit-counting builtins.
func WithTarget(t Target) Option {
	return func(f *Folder) { f.target = t }
}

// WithBackend replaces the arbitrary-precision backend.
// Default: mpbridge.NewDecimalBackend().
func WithBackend(b mpbridge.Backend) Option {
	return func(f *Folder) { f.backend = b }
}

// WithLogger sets the logger that receives decline reasons at debug level.
func WithLogger(l *slog.Logger) Option {
	return func(f *Folder) { f.logger = l }
}

// New creates a Folder.
func New(opts ...Option) *Folder {
	f := &Folder{
		flags:   DefaultFlags(),
		backend: mpbridge.NewDecimalBackend(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Flags returns the folder's numeric safety flags.
func (f *Folder) Flags() Flags { return f.flags }

// call is one routed request.
type call struct {
	fn     Func
	spec   *spec
	result *ir.Type
	ops    []operand
}

type handler func(*Folder, *call) (ir.Constant, error)

var handlers = map[family]handler{
	familyRealToReal:       (*Folder).foldRealToReal,
	familyRealSpecial:      (*Folder).foldRealSpecial,
	familyRealToInt:        (*Folder).foldRealToInt,
	familyRealReal:         (*Folder).foldRealReal,
	familyRealInt:          (*Folder).foldRealInt,
	familyIntReal:          (*Folder).foldIntReal,
	familyReal3:            (*Folder).foldReal3,
	familyRealToComplex:    (*Folder).foldRealToComplex,
	familyComplexToReal:    (*Folder).foldComplexToReal,
	familyComplexToComplex: (*Folder).foldComplexToComplex,
	familyComplex2:         (*Folder).foldComplex2,
	familyInteger:          (*Folder).foldInteger,
	familyOverflow:         (*Folder).foldOverflow,
	familyString:           (*Folder).foldString,
	familyNan:              (*Folder).foldNan,
	familyVector:           (*Folder).foldVector,
}

// Fold evaluates fn on args and returns a constant of type result. It
// reports false when the call must be kept, in which case the returned
// constant is nil.
func (f *Folder) Fold(fn Func, result *ir.Type, args ...ir.Constant) (ir.Constant, bool) {
	c, err := f.fold(fn, result, args)
	if err != nil {
		f.logger.Debug("call not folded",
			"fn", fn.String(),
			"result", result.String(),
			"class", string(classOf(err)),
			"reason", err.Error())
		return nil, false
	}
	return c, true
}

func (f *Folder) fold(fn Func, result *ir.Type, args []ir.Constant) (ir.Constant, error) {
	s, ok := fn.spec()
	if !ok {
		return nil, decline(classShape, "unknown function %s", fn)
	}
	if result == nil {
		return nil, decline(classShape, "no result type")
	}
	if lo, hi := s.arity(); len(args) < lo || len(args) > hi {
		return nil, decline(classShape, "%s takes %d to %d arguments, got %d", fn, lo, hi, len(args))
	}
	if !slices.Contains(s.results, result.Kind) {
		return nil, decline(classShape, "%s cannot produce a %s result", fn, result.Kind)
	}
	ops := make([]operand, len(args))
	for i, a := range args {
		sh, err := classify(a)
		if err != nil {
			return nil, decline(classShape, "argument %d: %v", i, err)
		}
		if want := s.args[i]; !want.accepts(sh) {
			return nil, decline(classShape, "argument %d of %s is %s, want %s", i, fn, sh, want)
		}
		ops[i] = operand{shape: sh, c: a}
	}
	return handlers[s.family](f, &call{fn: fn, spec: s, result: result, ops: ops})
}

// unhandled reports a Func routed to a handler that does not implement it.
func (c *call) unhandled(handler string) {
	panic(fmt.Sprintf("fold: %s routed to the %s handler", c.fn, handler))
}

// realResult returns the result format and checks that the operands at
// the given positions have the result type.
func (c *call) realResult(positions ...int) (*ir.Format, error) {
	if c.result.Format == nil {
		return nil, decline(classShape, "result type %s has no format", c.result)
	}
	for _, i := range positions {
		if t := c.ops[i].c.Type(); !t.Equal(c.result) {
			return nil, decline(classShape, "argument %d has type %s, result is %s", i, t, c.result)
		}
	}
	return c.result.Format, nil
}

// complexElem checks that t is a floating complex type and returns its
// element format.
func complexElem(t *ir.Type) (*ir.Format, error) {
	if t.Kind != ir.KindComplex || t.Elem == nil || t.Elem.Kind != ir.KindReal || t.Elem.Format == nil {
		return nil, decline(classShape, "%s is not a floating complex type", t)
	}
	return t.Elem.Format, nil
}

func b2i(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
