package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/kbukum/gs2kit/errors"
)

// FieldError describes a single failed field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

var (
	validate *validator.Validate
	once     sync.Once

	regionPattern = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]{0,61}[a-z0-9])?$`)
)

// getValidator returns the singleton validator instance.
func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Prefer config tag names so messages match what users write.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"mapstructure", "json"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return toSnakeCase(fld.Name)
		})

		_ = validate.RegisterValidation("region", func(fl validator.FieldLevel) bool {
			return regionPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// Validate validates a struct using struct tags and reports failures with
// the INVALID_INPUT code.
func Validate(s any) error {
	return ValidateAs(errors.ErrCodeInvalidInput, s)
}

// ValidateAs validates a struct using struct tags and reports failures as an
// AppError carrying code.
func ValidateAs(code errors.ErrorCode, s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.New(code, fmt.Sprintf("validation failed: %v", err), 0).WithCause(err)
	}

	fieldErrors := make([]FieldError, 0, len(validationErrors))
	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		message := formatValidationError(e)
		fieldErrors = append(fieldErrors, FieldError{Field: e.Field(), Message: message})
		messages = append(messages, e.Field()+": "+message)
	}

	return errors.New(code, strings.Join(messages, "; "), 0).
		WithDetail("fields", fieldErrors)
}

// formatValidationError creates a human-readable error message.
func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required when " + toSnakeCase(e.Param()) + " is not set"
	case "required_with":
		return "is required when " + toSnakeCase(e.Param()) + " is set"
	case "excluded_with":
		return "must not be set together with " + toSnakeCase(e.Param())
	case "base64":
		return "must be base64 encoded"
	case "region":
		return "must be a lowercase host label such as ap-northeast-1"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + e.Param()
	default:
		return "is invalid"
	}
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
