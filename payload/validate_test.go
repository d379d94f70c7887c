package payload

import (
	"strings"
	"testing"
)

type createGuest struct {
	Name string `json:"name" validate:"max=5"`
}

type createBody struct {
	ID     string        `json:"id" validate:"omitempty,lowercase"`
	Guests []createGuest `json:"guests" validate:"required,min=1,dive"`
}

func TestBindReportsJSONFieldPath(t *testing.T) {
	var body createBody
	err := Bind(strings.NewReader(`{"guests":[{"name":"Alexandra"}]}`), &body)
	if err == nil {
		t.Fatal("expected validation error")
	}
	want := `"guests[0].name" contained an invalid value: Value must be 5 characters or less`
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
}

func TestBindRequiresGuests(t *testing.T) {
	var body createBody
	err := Bind(strings.NewReader(`{"guests":[]}`), &body)
	if err == nil || !strings.HasPrefix(err.Error(), `"guests"`) {
		t.Fatalf("unexpected error %v", err)
	}
	if err := Bind(strings.NewReader(``), &body); err == nil {
		t.Fatal("expected empty body to fail")
	}
}

func TestVar(t *testing.T) {
	if err := Var("organizer.email", "not-an-email", "email"); err == nil {
		t.Fatal("expected invalid email")
	}
	if err := Var("organizer.email", "jane@example.com", "email"); err != nil {
		t.Fatalf("unexpected error %v", err)
	}
}
