package validation

import (
	"strings"
	"testing"
)

type bookingForm struct {
	Name   string `validate:"required,min=2"`
	Email  string `validate:"required,email"`
	Status string `validate:"omitempty,oneof=PENDING CONFIRMED"`
}

func TestValidateStructPasses(t *testing.T) {
	v := NewValidator()
	err := v.ValidateStruct(bookingForm{Name: "Amrita", Email: "amrita@example.com", Status: "PENDING"})
	if err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
}

func TestFormatValidationErrors(t *testing.T) {
	v := NewValidator()
	err := v.ValidateStruct(bookingForm{Name: "A", Email: "not-an-email", Status: "MAYBE"})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	formatted := FormatValidationErrors(err)

	if msg := formatted["name"]; !strings.Contains(msg, "at least 2") {
		t.Errorf("name error = %q", msg)
	}
	if msg := formatted["email"]; msg != "Invalid email format" {
		t.Errorf("email error = %q", msg)
	}
	if msg := formatted["status"]; !strings.Contains(msg, "must be one of") {
		t.Errorf("status error = %q", msg)
	}
}

func TestFlattenValidationErrors(t *testing.T) {
	v := NewValidator()
	err := v.ValidateStruct(bookingForm{})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	flat := FlattenValidationErrors(err)
	if !strings.Contains(flat, "Name is required") {
		t.Errorf("missing name message: %q", flat)
	}
	if !strings.Contains(flat, "Email is required") {
		t.Errorf("missing email message: %q", flat)
	}
}

func TestValidateEmail(t *testing.T) {
	valid := []string{"ops@puretrustgold.com", "a@b.co"}
	invalid := []string{"", "no-at-sign", "@missing-local.com", "x@"}

	for _, e := range valid {
		if !ValidateEmail(e) {
			t.Errorf("ValidateEmail(%q) = false", e)
		}
	}
	for _, e := range invalid {
		if ValidateEmail(e) {
			t.Errorf("ValidateEmail(%q) = true", e)
		}
	}
}
