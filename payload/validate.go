package payload

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// Validator returns the shared validator. Field names in errors are the
// JSON names.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
	return validate
}

// Bind decodes a JSON body into v and validates its struct tags. The first
// failure is returned as an *Error.
func Bind(r io.Reader, v any) error {
	if err := json.NewDecoder(io.LimitReader(r, 1<<20)).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &Error{Message: "Request body is required"}
		}
		return &Error{Message: "Request body must be a valid JSON object"}
	}
	return Struct(v)
}

// Struct validates v, reporting the first failing field.
func Struct(v any) error {
	err := Validator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	return Invalid(fieldPath(fe.Namespace()), "%s", translate(fe))
}

// Var validates a single value against tag, naming it field.
func Var(field string, value any, tag string) error {
	err := Validator().Var(value, tag)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return Invalid(field, "%s", translate(verrs[0]))
	}
	return err
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

var messages = map[string]string{
	"required":  "Value is required",
	"email":     "Value must be a valid email address",
	"latitude":  "Value must be a valid latitude (-90 to 90)",
	"longitude": "Value must be a valid longitude (-180 to 180)",
	"lowercase": "Value must be lowercase",
}

var messagesWithParam = map[string]string{
	"oneof": "Value must be one of: %s",
	"gte":   "Value must be greater than or equal to %s",
	"lte":   "Value must be less than or equal to %s",
	"gt":    "Value must be greater than %s",
	"lt":    "Value must be less than %s",
}

func translate(fe validator.FieldError) string {
	if m, ok := messages[fe.Tag()]; ok {
		return m
	}
	if m, ok := messagesWithParam[fe.Tag()]; ok {
		return fmt.Sprintf(m, fe.Param())
	}
	isString := fe.Kind().String() == "string"
	switch fe.Tag() {
	case "min":
		if isString {
			return fmt.Sprintf("Value must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("Value must contain at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("Value must be %s characters or less", fe.Param())
		}
		return fmt.Sprintf("Value must contain at most %s", fe.Param())
	}
	return fmt.Sprintf("Value failed %s validation", fe.Tag())
}
