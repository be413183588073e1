package engine

import (
	"errors"
	"fmt"
)

// RequestError reports a batch request that could not be turned into a
// fold call. It is recorded against the request; the rest of the batch
// still runs.
type RequestError struct {
	Code    RequestErrorCode
	Message string

	// Index is the request's position in the batch, or -1.
	Index int

	// Details holds the offending text.
	Details map[string]string
}

// RequestErrorCode categorizes request errors.
type RequestErrorCode string

const (
	// ErrCodeUnknownFunction means the function name is not a foldable builtin.
	ErrCodeUnknownFunction RequestErrorCode = "UNKNOWN_FUNCTION"

	// ErrCodeInvalidType means the result type did not parse.
	ErrCodeInvalidType RequestErrorCode = "INVALID_TYPE"

	// ErrCodeInvalidArgument means an argument constant did not parse.
	ErrCodeInvalidArgument RequestErrorCode = "INVALID_ARGUMENT"
)

func (e *RequestError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("%s: %s (request %d)", e.Code, e.Message, e.Index)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsRequestError reports whether err is a RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}

// IsUnknownFunction reports whether err is a RequestError for an unknown
// function name.
func IsUnknownFunction(err error) bool {
	var re *RequestError
	return errors.As(err, &re) && re.Code == ErrCodeUnknownFunction
}

// NewUnknownFunctionError creates a RequestError for an unknown name.
func NewUnknownFunctionError(name string, err error) *RequestError {
	return &RequestError{
		Code:    ErrCodeUnknownFunction,
		Message: err.Error(),
		Index:   -1,
		Details: map[string]string{"fn": name},
	}
}

// NewInvalidTypeError creates a RequestError for a bad result type.
func NewInvalidTypeError(text string, err error) *RequestError {
	return &RequestError{
		Code:    ErrCodeInvalidType,
		Message: err.Error(),
		Index:   -1,
		Details: map[string]string{"type": text},
	}
}

// NewInvalidArgumentError creates a RequestError for argument i.
func NewInvalidArgumentError(i int, text string, err error) *RequestError {
	return &RequestError{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf("argument %d: %v", i, err),
		Index:   -1,
		Details: map[string]string{"arg": text},
	}
}
