package engine

import (
	"github.com/roach88/constfold/internal/fold"
	"github.com/roach88/constfold/internal/ir"
)

// Request is one builtin call in text form, as read from a batch file or
// a journal.
type Request struct {
	Fn   string   `json:"fn" yaml:"fn"`
	Type string   `json:"type" yaml:"type"`
	Args []string `json:"args" yaml:"args"`
}

// Call is a parsed Request.
type Call struct {
	Fn     fold.Func
	Result *ir.Type
	Args   []ir.Constant
}

// Parse resolves the function name and parses the type and arguments
// against reg.
func (r Request) Parse(reg *ir.Registry) (*Call, error) {
	fn, err := fold.ParseFunc(r.Fn)
	if err != nil {
		return nil, NewUnknownFunctionError(r.Fn, err)
	}
	result, err := ir.ParseType(r.Type, reg)
	if err != nil {
		return nil, NewInvalidTypeError(r.Type, err)
	}
	args := make([]ir.Constant, len(r.Args))
	for i, a := range r.Args {
		if args[i], err = ir.ParseConstant(a, reg); err != nil {
			return nil, NewInvalidArgumentError(i, a, err)
		}
	}
	return &Call{Fn: fn, Result: result, Args: args}, nil
}

// Digest identifies the request under the given flags.
func (r Request) Digest(flags fold.Flags) (string, error) {
	args := r.Args
	if args == nil {
		args = []string{}
	}
	return ir.RequestDigest(r.Fn, r.Type, args, flags.Names())
}

// Status is the outcome of one request.
type Status string

const (
	StatusFolded    Status = "folded"
	StatusNotFolded Status = "not_folded"
	StatusInvalid   Status = "invalid"
)

// Outcome records how one request was evaluated.
type Outcome struct {
	Seq     int64   `json:"seq"`
	Request Request `json:"request"`
	Digest  string  `json:"digest"`
	Status  Status  `json:"status"`

	// Result is the folded constant in text form when Status is
	// StatusFolded.
	Result string `json:"result,omitempty"`

	// Error explains a StatusInvalid outcome.
	Error string `json:"error,omitempty"`
}
