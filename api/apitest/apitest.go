// Package apitest drives registered endpoints in tests without the
// middleware stack.
package apitest

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"

	"weddingplanner/api"
	"weddingplanner/session"
)

// Caller is the identity a test request is made as.
type Caller struct {
	ID    string
	Kind  session.Kind
	Admin bool
}

var (
	Anonymous = Caller{}
	Admin     = Caller{ID: "admin", Kind: session.KindInvitation, Admin: true}
)

// Guest is a bound invitation session for id.
func Guest(id string) Caller {
	return Caller{ID: id, Kind: session.KindInvitation}
}

// RSVP is a bound rsvp session for id.
func RSVP(id string) Caller {
	return Caller{ID: id, Kind: session.KindRSVP}
}

// Router registers endpoints on a fresh router.
func Router(t *testing.T, endpoints ...api.Endpoint) *httprouter.Router {
	t.Helper()
	router := httprouter.New()
	if _, err := api.Register(router, endpoints...); err != nil {
		t.Fatalf("register: %v", err)
	}
	return router
}

// Do serves one request as caller and returns the recorder.
func Do(t *testing.T, h http.Handler, caller Caller, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	req := api.NewRequest(r)
	req.IP = "203.0.113.9"
	if caller.ID != "" {
		req.Session = &session.Session{ID: "test", InvitationID: caller.ID, Kind: caller.Kind, Admin: caller.Admin}
	}
	req.Admin = caller.Admin
	r = r.WithContext(api.WithRequest(r.Context(), req))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

// Decode unpacks the response envelope, unmarshalling data into out when
// out is non-nil.
func Decode(t *testing.T, rec *httptest.ResponseRecorder, out any) api.Response {
	t.Helper()
	var env struct {
		Success     bool            `json:"success"`
		Data        json.RawMessage `json:"data"`
		Description string          `json:"description"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			t.Fatalf("decode data %s: %v", env.Data, err)
		}
	}
	return api.Response{Success: env.Success, Description: env.Description}
}

// Expect fails the test unless rec has status want.
func Expect(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status %d want %d: %s", rec.Code, want, rec.Body.String())
	}
}
