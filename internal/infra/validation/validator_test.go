package validation

import (
	"context"
	"errors"
	"testing"
)

type sample struct {
	ID    string `validate:"required"`
	Date  string `validate:"required,datetime=2006-01-02"`
	Count int    `validate:"gte=0,lte=10"`
}

func TestValidatorReportsFields(t *testing.T) {
	v := New()
	if err := v.Validate(context.Background(), sample{ID: "a", Date: "2025-03-10", Count: 2}); err != nil {
		t.Fatalf("valid sample rejected: %v", err)
	}
	err := v.Validate(context.Background(), &sample{Date: "10/03/2025", Count: 11})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
	var verr *Error
	if !errors.As(err, &verr) || len(verr.Fields) != 3 {
		t.Fatalf("expected three field errors, got %v", err)
	}
	if verr.Fields[0] != (FieldError{Field: "ID", Rule: "required"}) {
		t.Fatalf("unexpected first field error %+v", verr.Fields[0])
	}
}

func TestValidatorSkipsNonStructs(t *testing.T) {
	if err := New().Validate(context.Background(), "plain"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	var nilSample *sample
	if err := New().Validate(context.Background(), nilSample); !errors.Is(err, ErrInvalid) {
		t.Fatalf("nil pointer must be rejected, got %v", err)
	}
}
