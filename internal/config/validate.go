package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/constfold/internal/ir"
)

var formatNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// formatValidate checks format descriptors. Initialized in init() with
// the custom rules.
var formatValidate *validator.Validate

func init() {
	formatValidate = validator.New()
	formatValidate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		return strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	})
	_ = formatValidate.RegisterValidation("format_name", validateFormatName)
	formatValidate.RegisterStructValidation(validateFormatFeatures, ir.Format{})
}

// validateFormatName accepts names that can appear in type text, which
// excludes anything the type parser would read as an integer type.
func validateFormatName(fl validator.FieldLevel) bool {
	name := fl.Field().String()
	if !formatNamePattern.MatchString(name) {
		return false
	}
	switch name {
	case "ptr", "complex", "vec":
		return false
	}
	for _, prefix := range []string{"i", "u", "ibi", "ubi"} {
		if len(name) > len(prefix) && name[:len(prefix)] == prefix && allDigits(name[len(prefix):]) {
			return false
		}
	}
	return true
}

func allDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}

func validateFormatFeatures(sl validator.StructLevel) {
	f := sl.Current().Interface().(ir.Format)
	if f.HasSignalingNaN && !f.HasNaN {
		sl.ReportError(f.HasSignalingNaN, "has_signaling_nan", "HasSignalingNaN", "requires_nan", "")
	}
	if f.Composite && f.Radix != 2 {
		sl.ReportError(f.Composite, "composite", "Composite", "requires_binary", "")
	}
}

// validateFormat runs the struct tags and feature rules on f.
func validateFormat(f *ir.Format) error {
	err := formatValidate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &ConfigError{
			Code:    ErrCodeValidation,
			Field:   fmt.Sprintf("formats.%s.%s", f.Name, fe.Field()),
			Message: fmt.Sprintf("failed %q rule (value %v)", fe.Tag(), fe.Value()),
		}
	}
	return &ConfigError{Code: ErrCodeValidation, Field: "formats." + f.Name, Message: "invalid format", Err: err}
}
