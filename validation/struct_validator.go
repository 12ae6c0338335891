package validation

import (
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/augkit/errors"
)

var (
	validate *validator.Validate
	once     sync.Once
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Report fields by their configuration key, not the Go field name.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"mapstructure", "yaml", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return toSnakeCase(fld.Name)
		})
	})
	return validate
}

// Struct validates s using struct tags and returns the failing fields.
// A nil slice means s is valid.
func Struct(s any) []FieldError {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "", Message: err.Error()}}
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	for _, e := range validationErrors {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   e.Field(),
			Message: formatValidationError(e),
		})
	}
	return fieldErrors
}

// Config validates a configuration struct and returns a ConfigurationError
// naming the first offending parameter.
func Config(s any) error {
	fields := Struct(s)
	if len(fields) == 0 {
		return nil
	}
	appErr := errors.Configuration(fields[0].Field, joinMessages(fields))
	appErr.WithDetail("fields", fields)
	return appErr
}

// Params validates the decoded parameters of an augmentation node and
// returns a GraphValidationError naming the node.
func Params(node string, s any) error {
	fields := Struct(s)
	if len(fields) == 0 {
		return nil
	}
	appErr := errors.GraphValidation(node, "invalid parameters for node "+node+": "+joinMessages(fields))
	appErr.WithDetail("fields", fields)
	return appErr
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "gt":
		return "must be greater than " + e.Param()
	case "gte":
		return "must be at least " + e.Param()
	case "lt":
		return "must be less than " + e.Param()
	case "lte":
		return "must be at most " + e.Param()
	case "min":
		return "must have at least " + e.Param() + " elements"
	case "max":
		return "must have at most " + e.Param() + " elements"
	case "len":
		return "must have exactly " + e.Param() + " elements"
	case "oneof":
		return "must be one of: " + e.Param()
	case "ltfield":
		return "must be less than " + e.Param()
	case "ltefield":
		return "must not exceed " + e.Param()
	case "gtefield":
		return "must not be less than " + e.Param()
	case "dir":
		return "must be an existing directory"
	default:
		return "is invalid"
	}
}

func joinMessages(fields []FieldError) string {
	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = f.Field + ": " + f.Message
	}
	return strings.Join(messages, "; ")
}

// toSnakeCase converts a field name to snake_case.
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		if r >= 'A' && r <= 'Z' {
			result.WriteRune(r + 32)
		} else {
			result.WriteRune(r)
		}
	}
	return result.String()
}
