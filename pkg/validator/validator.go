// Package validator registers the custom binding tags used by request DTOs
// and turns binding failures into field-keyed application errors.
package validator

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"reviewhub/pkg/apperror"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\p{L}\p{N}_.@+-]+$`)
)

// ReservedUsername cannot be registered because /users/me is a route.
const ReservedUsername = "me"

var registerOnce sync.Once

// Register installs the custom tags on gin's validator engine. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(jsonFieldName)
		_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
			return IsSlug(fl.Field().String())
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return IsUsername(fl.Field().String())
		})
	})
}

func IsSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// IsUsername accepts letters, digits and . @ + - _, and rejects the reserved name.
func IsUsername(s string) bool {
	return s != ReservedUsername && usernamePattern.MatchString(s)
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// BindingError converts an error from c.ShouldBind* into a validation error
// keyed by JSON field names.
func BindingError(err error) *apperror.Error {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		fields := make(map[string]string, len(validationErrors))
		for _, fe := range validationErrors {
			field := fe.Field()
			if _, seen := fields[field]; !seen {
				fields[field] = fieldErrorMessage(fe)
			}
		}
		return apperror.ValidationFields(fields)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperror.Validation(typeErr.Field, fmt.Sprintf("Expected a %s.", typeErr.Type.Kind()))
	}
	if errors.Is(err, io.EOF) {
		return apperror.Validation("detail", "Request body is empty.")
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return apperror.Validation("detail", "Malformed JSON.")
	}
	return apperror.Validation("detail", err.Error())
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Enter a valid email address."
	case "slug":
		return "Enter a valid slug consisting of letters, numbers, underscores or hyphens."
	case "username":
		if fe.Value() == ReservedUsername {
			return fmt.Sprintf("Username %q is reserved.", ReservedUsername)
		}
		return "Enter a valid username. It may contain only letters, numbers, and @/./+/-/_ characters."
	case "oneof":
		return fmt.Sprintf("Must be one of: %s.", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has at least %s characters.", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("Ensure this field has at least %s items.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is greater than or equal to %s.", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("Ensure this field has no more than %s characters.", fe.Param())
		}
		return fmt.Sprintf("Ensure this value is less than or equal to %s.", fe.Param())
	default:
		return "Invalid value."
	}
}
