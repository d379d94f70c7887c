package utils

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestGetUUID(t *testing.T) {
	a, b := GetUUID(), GetUUID()
	if _, err := uuid.Parse(a); err != nil {
		t.Fatalf("not a uuid %q: %v", a, err)
	}
	if a == b {
		t.Fatal("ids repeat")
	}
}

func TestGenerateID(t *testing.T) {
	id := GenerateID(10)
	if len(id) != 10 || strings.Trim(id, lowerAlnum) != "" {
		t.Fatalf("unexpected id %q", id)
	}
	if s := GenerateSecret(42); len(s) != 42 || strings.Trim(s, urlSafe) != "" {
		t.Fatalf("unexpected secret %q", s)
	}
}

func TestTokenDigest(t *testing.T) {
	d := TokenDigest("secret")
	if len(d) != 64 || d != TokenDigest("secret") || d == TokenDigest("other") {
		t.Fatalf("unexpected digest %q", d)
	}
}

func TestNoCache(t *testing.T) {
	rec := httptest.NewRecorder()
	NoCache(rec)
	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Fatalf("cache-control %q", got)
	}
}
