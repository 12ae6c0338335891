package validation

import (
	"fmt"

	"github.com/kbukum/augkit/errors"
)

// Validator collects validation errors.
type Validator struct {
	errors []FieldError
}

// FieldError represents a validation error for a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new Validator.
func New() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// AddError adds a field error.
func (v *Validator) AddError(field, message string) {
	v.errors = append(v.errors, FieldError{
		Field:   field,
		Message: message,
	})
}

// HasErrors returns true if there are validation errors.
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors.
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Configuration returns a ConfigurationError if there are validation errors, nil otherwise.
func (v *Validator) Configuration() error {
	if !v.HasErrors() {
		return nil
	}
	appErr := errors.Configuration(v.errors[0].Field, joinMessages(v.errors))
	appErr.WithDetail("fields", v.errors)
	return appErr
}

// Check adds an error if condition is false.
func (v *Validator) Check(condition bool, field, message string) *Validator {
	if !condition {
		v.AddError(field, message)
	}
	return v
}

// Positive checks that value is greater than zero.
func (v *Validator) Positive(field string, value int) *Validator {
	if value <= 0 {
		v.AddError(field, fmt.Sprintf("must be positive (got %d)", value))
	}
	return v
}

// NonNegative checks that value is zero or greater.
func (v *Validator) NonNegative(field string, value int) *Validator {
	if value < 0 {
		v.AddError(field, fmt.Sprintf("must not be negative (got %d)", value))
	}
	return v
}

// Range checks that min <= value <= max.
func (v *Validator) Range(field string, value, min, max float64) *Validator {
	if value < min || value > max {
		v.AddError(field, fmt.Sprintf("must be between %g and %g (got %g)", min, max, value))
	}
	return v
}

// OneOf checks that value is one of the allowed strings.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	for _, a := range allowed {
		if value == a {
			return v
		}
	}
	v.AddError(field, fmt.Sprintf("must be one of %v (got %q)", allowed, value))
	return v
}
