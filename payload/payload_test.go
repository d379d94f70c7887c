package payload

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestDecodeTracksPresence(t *testing.T) {
	o, err := Decode(strings.NewReader(`{"read":false,"title":""}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !o.Has("read") || !o.Has("title") || o.Has("course") {
		t.Fatalf("unexpected presence: %v", o)
	}
	b, err := Bool(o["read"], "read")
	if err != nil || b {
		t.Fatalf("expected explicit false, got %v %v", b, err)
	}
}

func TestDecodeEmptyBody(t *testing.T) {
	o, err := Decode(strings.NewReader("  "))
	if err != nil || len(o) != 0 {
		t.Fatalf("expected empty object, got %v %v", o, err)
	}
}

func TestDecodeRejectsNonObject(t *testing.T) {
	for _, body := range []string{`[]`, `"x"`, `null`, `{`} {
		if _, err := Decode(strings.NewReader(body)); err == nil {
			t.Fatalf("expected error for %s", body)
		}
	}
}

func TestNullIsTypeError(t *testing.T) {
	if _, err := String([]byte("null"), "title"); err == nil || err.Error() != `"title" must be a string.` {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Array([]byte("null"), "songs"); err == nil || err.Error() != `"songs" must be an array.` {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestIntRejectsFractions(t *testing.T) {
	if _, err := Int([]byte("1.5"), "course"); err == nil {
		t.Fatal("expected fractional number to fail")
	}
	n, err := Int([]byte("2"), "course")
	if err != nil || n != 2 {
		t.Fatalf("got %d %v", n, err)
	}
	if _, err := Int([]byte(`"2"`), "course"); err == nil {
		t.Fatal("expected string to fail")
	}
}

func TestErrorsCarryBadRequest(t *testing.T) {
	err := Invalid("guests[0].status_ceremony", "Unknown status value: %q", "9")
	var se interface{ StatusCode() int }
	if !errors.As(err, &se) || se.StatusCode() != http.StatusBadRequest {
		t.Fatalf("expected 400 error, got %v", err)
	}
	want := `"guests[0].status_ceremony" contained an invalid value: Unknown status value: "9"`
	if err.Error() != want {
		t.Fatalf("got %q want %q", err.Error(), want)
	}
	if got := Invalid("menuItemId", "").Error(); got != `"menuItemId" contained an invalid value` {
		t.Fatalf("got %q", got)
	}
}

func TestChangesNames(t *testing.T) {
	c := Changes{"songs": nil, "guests": nil, "message": ""}
	got := strings.Join(c.Names(), ",")
	if got != "guests,message,songs" {
		t.Fatalf("got %s", got)
	}
}
