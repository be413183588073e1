package config

import (
	"errors"
	"fmt"

	"cuelang.org/go/cue/token"
)

// ConfigErrorCode classifies configuration failures.
type ConfigErrorCode string

const (
	ErrCodeNotFound   ConfigErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeNoFiles    ConfigErrorCode = "CONFIG_NO_FILES"
	ErrCodeLoad       ConfigErrorCode = "CONFIG_LOAD_FAILED"
	ErrCodeBuild      ConfigErrorCode = "CONFIG_BUILD_FAILED"
	ErrCodeDecode     ConfigErrorCode = "CONFIG_DECODE_FAILED"
	ErrCodeValidation ConfigErrorCode = "CONFIG_INVALID"
)

// ConfigError reports a configuration that could not be loaded or did not
// validate. Pos is set when CUE knows where the problem is.
type ConfigError struct {
	Code    ConfigErrorCode
	Message string
	Field   string
	Pos     token.Pos
	Err     error
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Code, e.Message)
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Pos.IsValid() {
		msg = fmt.Sprintf("%s:%d:%d: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), msg)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// IsConfigError reports whether err is a ConfigError with the given code.
func IsConfigError(err error, code ConfigErrorCode) bool {
	var ce *ConfigError
	return errors.As(err, &ce) && ce.Code == code
}
