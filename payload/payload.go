// Package payload decodes partial JSON update bodies so that field presence
// is explicit, and reports field-level validation failures.
package payload

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"net/http"
	"sort"

	"github.com/goccy/go-json"
)

// Object is a decoded JSON object keyed by field name. A key is present
// only if the caller sent it.
type Object map[string]json.RawMessage

// Error is a validation failure. It always maps to 400.
type Error struct {
	Message string
}

func (e *Error) Error() string   { return e.Message }
func (e *Error) StatusCode() int { return http.StatusBadRequest }

// Invalid reports that field held an unacceptable value.
func Invalid(field, reason string, args ...any) error {
	msg := fmt.Sprintf("%q contained an invalid value", field)
	if reason != "" {
		msg += ": " + fmt.Sprintf(reason, args...)
	}
	return &Error{Message: msg}
}

// MustBe reports that field was of the wrong JSON type.
func MustBe(field, kind string) error {
	return &Error{Message: fmt.Sprintf("%q must be a%s %s.", field, article(kind), kind)}
}

func article(kind string) string {
	switch kind[0] {
	case 'a', 'e', 'i', 'o', 'u':
		return "n"
	}
	return ""
}

// Decode reads a JSON object from r. An empty body decodes to an empty Object.
func Decode(r io.Reader) (Object, error) {
	raw, err := io.ReadAll(io.LimitReader(r, 1<<20))
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return Object{}, nil
	}
	return Parse(raw, "body")
}

// Parse decodes raw as an object, naming it field in errors.
func Parse(raw json.RawMessage, field string) (Object, error) {
	if isNull(raw) || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return nil, MustBe(field, "object")
	}
	var o Object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, MustBe(field, "object")
	}
	return o, nil
}

// Has reports whether key was supplied.
func (o Object) Has(key string) bool {
	_, ok := o[key]
	return ok
}

func isNull(raw json.RawMessage) bool {
	t := bytes.TrimSpace(raw)
	return len(t) == 0 || bytes.Equal(t, []byte("null"))
}

// String decodes raw as a JSON string.
func String(raw json.RawMessage, field string) (string, error) {
	var s string
	if isNull(raw) || json.Unmarshal(raw, &s) != nil {
		return "", MustBe(field, "string")
	}
	return s, nil
}

// Bool decodes raw as a JSON boolean.
func Bool(raw json.RawMessage, field string) (bool, error) {
	var b bool
	if isNull(raw) || json.Unmarshal(raw, &b) != nil {
		return false, MustBe(field, "boolean")
	}
	return b, nil
}

// Number decodes raw as a finite JSON number.
func Number(raw json.RawMessage, field string) (float64, error) {
	var f float64
	if isNull(raw) || json.Unmarshal(raw, &f) != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, MustBe(field, "number")
	}
	return f, nil
}

// Int decodes raw as a JSON number with no fractional part.
func Int(raw json.RawMessage, field string) (int, error) {
	f, err := Number(raw, field)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, Invalid(field, "Unsupported value: \"%v\"", f)
	}
	return int(f), nil
}

// Array decodes raw as a JSON array of raw elements.
func Array(raw json.RawMessage, field string) ([]json.RawMessage, error) {
	var a []json.RawMessage
	if isNull(raw) || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) || json.Unmarshal(raw, &a) != nil {
		return nil, MustBe(field, "array")
	}
	return a, nil
}

// Changes maps changed top-level fields to their new values. An empty set
// means the update is a no-op.
type Changes map[string]any

// Names returns the changed field names in sorted order.
func (c Changes) Names() []string {
	names := make([]string, 0, len(c))
	for k := range c {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
