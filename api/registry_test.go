package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"

	"weddingplanner/session"
)

type routeList []Route

func (l routeList) Routes() []Route { return l }

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return resp
}

func serve(t *testing.T, router *httprouter.Router, req *Request, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	if req != nil {
		req.Request = r
		r = r.WithContext(WithRequest(r.Context(), req))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, r)
	return rec
}

func TestRegisterDefaultsAndSkips(t *testing.T) {
	router := httprouter.New()
	ok := func(w http.ResponseWriter, r *Request) error { return OK(w, "pong") }
	n, err := Register(router, routeList{
		{Path: "ping", Auth: Public, Action: ok},
		{Path: "", Action: ok},
		{Path: "missing-action"},
		{Path: "bad-method", Method: "PATCH", Action: ok},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if n != 1 {
		t.Fatalf("registered %d routes, want 1", n)
	}
	rec := serve(t, router, nil, http.MethodGet, "/api/ping")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	if resp := decode(t, rec); !resp.Success || resp.Data != "pong" {
		t.Fatalf("unexpected body %+v", resp)
	}
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("missing no-cache header: %q", cc)
	}
}

func TestRegisterConflictIsAnError(t *testing.T) {
	router := httprouter.New()
	ok := func(w http.ResponseWriter, r *Request) error { return NoContent(w) }
	_, err := Register(router, routeList{
		{Path: "menu/:menuItemId", Auth: Public, Action: ok},
		{Path: "menu/:menuItemId", Auth: Public, Action: ok},
	})
	if err == nil {
		t.Fatal("expected duplicate route to fail")
	}
}

func TestEnvelope(t *testing.T) {
	router := httprouter.New()
	router.NotFound = NotFoundHandler()
	_, err := Register(router, routeList{
		{Path: "denied", Auth: AdminAuth, Action: func(w http.ResponseWriter, r *Request) error {
			t.Fatal("action ran without auth")
			return nil
		}},
		{Path: "forbidden", Auth: func(*Request) (int, error) { return http.StatusForbidden, nil }, Action: func(w http.ResponseWriter, r *Request) error { return nil }},
		{Path: "bad", Auth: Public, Action: func(w http.ResponseWriter, r *Request) error {
			return BadRequest("Guest count cannot be modified")
		}},
		{Path: "boom", Auth: Public, Action: func(w http.ResponseWriter, r *Request) error {
			return errors.New("connection reset by peer")
		}},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	cases := []struct {
		path   string
		status int
		desc   string
	}{
		{"/api/denied", http.StatusUnauthorized, "Unauthorized"},
		{"/api/forbidden", http.StatusForbidden, "Forbidden"},
		{"/api/bad", http.StatusBadRequest, "Guest count cannot be modified"},
		{"/api/boom", http.StatusInternalServerError, "Internal Server Error"},
		{"/api/nowhere", http.StatusNotFound, "Not Found"},
	}
	for _, tc := range cases {
		rec := serve(t, router, nil, http.MethodGet, tc.path)
		if rec.Code != tc.status {
			t.Fatalf("%s: status %d want %d", tc.path, rec.Code, tc.status)
		}
		resp := decode(t, rec)
		if resp.Success || resp.Description != tc.desc {
			t.Fatalf("%s: unexpected body %+v", tc.path, resp)
		}
	}
}

func TestPredicates(t *testing.T) {
	bound := &Request{Session: &session.Session{InvitationID: "alice"}}
	pending := &Request{Session: &session.Session{InvitationID: "alice", Pending: true}}
	admin := &Request{Session: &session.Session{}, Admin: true}
	anon := &Request{Session: &session.Session{}}

	if s, _ := SessionAuth(bound); s != http.StatusOK {
		t.Fatalf("bound session rejected: %d", s)
	}
	if s, _ := SessionAuth(pending); s != http.StatusUnauthorized {
		t.Fatalf("pending session admitted: %d", s)
	}
	if s, _ := AdminAuth(anon); s != http.StatusUnauthorized {
		t.Fatalf("anonymous admin: %d", s)
	}

	self := SelfAuth("invitationId")
	bound.Params = httprouter.Params{{Key: "invitationId", Value: "alice"}}
	if s, _ := self(bound); s != http.StatusOK {
		t.Fatalf("self rejected: %d", s)
	}
	bound.Params = httprouter.Params{{Key: "invitationId", Value: "bob"}}
	if s, _ := self(bound); s != http.StatusUnauthorized {
		t.Fatalf("other invitation admitted: %d", s)
	}
	admin.Params = bound.Params
	if s, _ := self(admin); s != http.StatusOK {
		t.Fatalf("admin rejected: %d", s)
	}
}

func TestSelfAuthRunsBeforeAction(t *testing.T) {
	router := httprouter.New()
	ran := false
	_, err := Register(router, routeList{{
		Path:   "invitation/:invitationId",
		Method: http.MethodPut,
		Auth:   SelfAuth("invitationId"),
		Action: func(w http.ResponseWriter, r *Request) error { ran = true; return NoContent(w) },
	}})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	req := &Request{Session: &session.Session{InvitationID: "alice"}}
	rec := serve(t, router, req, http.MethodPut, "/api/invitation/bob")
	if rec.Code != http.StatusUnauthorized || ran {
		t.Fatalf("status %d ran %v", rec.Code, ran)
	}
}
