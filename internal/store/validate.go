package store

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validate      *validator.Validate
)

// FieldError describes a single rule that a record failed.
type FieldError struct {
	Field string
	Tag   string
	Param string
}

// FieldErrors collects the rules a record failed; field names use the JSON wire names.
type FieldErrors []FieldError

func (f FieldErrors) Error() string {
	if len(f) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(f))
	for i, fieldErr := range f {
		switch fieldErr.Tag {
		case "required":
			parts[i] = fieldErr.Field + " is required"
		case "min":
			parts[i] = fieldErr.Field + " must be at least " + fieldErr.Param
		default:
			if fieldErr.Param != "" {
				parts[i] = fieldErr.Field + " failed on " + fieldErr.Tag + "=" + fieldErr.Param
			} else {
				parts[i] = fieldErr.Field + " failed on " + fieldErr.Tag
			}
		}
	}
	return strings.Join(parts, "; ")
}

// ValidateRecord runs the struct's validate tags and returns FieldErrors on failure.
func ValidateRecord(record any) error {
	err := structValidator().Struct(record)
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		failures := make(FieldErrors, 0, len(validationErrs))
		for _, fieldErr := range validationErrs {
			failures = append(failures, FieldError{
				Field: fieldErr.Field(),
				Tag:   fieldErr.Tag(),
				Param: fieldErr.Param(),
			})
		}
		return failures
	}
	return err
}

func structValidator() *validator.Validate {
	validatorOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := field.Tag.Get("json")
			if comma := strings.Index(name, ","); comma != -1 {
				name = name[:comma]
			}
			if name == "" || name == "-" {
				return field.Name
			}
			return name
		})
	})
	return validate
}
