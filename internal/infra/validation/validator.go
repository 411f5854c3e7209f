package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"homepro/internal/app/middleware"
)

var ErrInvalid = errors.New("validation: invalid input")

// FieldError names one rejected field and the rule it broke.
type FieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Error wraps ErrInvalid with the rejected fields.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" ("+f.Rule+")")
	}
	return fmt.Sprintf("%s: %s", ErrInvalid, strings.Join(parts, ", "))
}

func (e *Error) Unwrap() error { return ErrInvalid }

// Validator runs go-playground struct tags on commands and queries.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (v *Validator) Validate(_ context.Context, message any) error {
	if message == nil {
		return &Error{Fields: []FieldError{{Field: "message", Rule: "required"}}}
	}
	rv := reflect.ValueOf(message)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return &Error{Fields: []FieldError{{Field: "message", Rule: "required"}}}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	err := v.v.Struct(message)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Error{Fields: make([]FieldError, 0, len(verrs))}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldError{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

var _ middleware.Validator = (*Validator)(nil)
