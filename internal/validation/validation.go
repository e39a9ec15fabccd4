// Package validation holds the shared struct validator and converts its
// errors to the fntraits error envelope.
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/broady/fntraits"
	"github.com/go-playground/validator/v10"
)

var instance = sync.OnceValue(func() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
})

// Validator returns the process-wide validator.
func Validator() *validator.Validate { return instance() }

// Struct validates s and returns an invalid_argument error listing every
// failed field, or nil.
func Struct(s any) error {
	if err := Validator().Struct(s); err != nil {
		return Convert(err)
	}
	return nil
}

// Convert maps validator errors to an invalid_argument *fntraits.Error.
// Other errors are wrapped unchanged in the same code.
func Convert(err error) *fntraits.Error {
	var valErrs validator.ValidationErrors
	if !errors.As(err, &valErrs) {
		return fntraits.Errorf(fntraits.CodeInvalidArgument, "%w", err)
	}
	details := make(map[string]any, len(valErrs))
	messages := make([]string, 0, len(valErrs))
	for _, ve := range valErrs {
		field := fieldPath(ve)
		msg := Message(ve)
		details[field] = msg
		messages = append(messages, field+": "+msg)
	}
	return fntraits.NewError(fntraits.CodeInvalidArgument, strings.Join(messages, "; ")).WithDetails(details)
}

// fieldPath drops the top-level struct name from the namespace so that
// nested fields read "Aliases[0].Name".
func fieldPath(ve validator.FieldError) string {
	ns := ve.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ve.Field()
}

// Message converts a validator.FieldError to a human-readable message.
func Message(ve validator.FieldError) string {
	switch ve.Tag() {
	case "required", "required_without_all":
		return "required"
	case "excluded_with":
		return fmt.Sprintf("must not be set together with %s", ve.Param())
	case "min":
		return fmt.Sprintf("must have at least %s elements", ve.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", ve.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", ve.Param())
	default:
		if ve.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", ve.Tag(), ve.Param())
		}
		return fmt.Sprintf("failed %s validation", ve.Tag())
	}
}
