package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/julienschmidt/httprouter"

	"weddingplanner/api"
	"weddingplanner/db"
	"weddingplanner/models"
	"weddingplanner/session"
)

type fakeInvitations struct {
	records map[string]*models.Invitation
}

func (f *fakeInvitations) Get(_ context.Context, id string) (*models.Invitation, error) {
	if inv, ok := f.records[id]; ok {
		cp := *inv
		return &cp, nil
	}
	return nil, db.ErrNotFound
}

func (f *fakeInvitations) RecordLogin(ctx context.Context, id string) (*models.Invitation, error) {
	inv, ok := f.records[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	inv.LoginCount++
	return f.Get(ctx, id)
}

type fakeRSVPs map[string]*models.RSVP

func (f fakeRSVPs) Get(_ context.Context, id string) (*models.RSVP, error) {
	if r, ok := f[id]; ok {
		return r, nil
	}
	return nil, db.ErrNotFound
}

type fakeVerifier struct {
	cred *Credential
	err  error
}

func (f fakeVerifier) Verify(context.Context, string) (*Credential, error) { return f.cred, f.err }

type harness struct {
	handler  *Handler
	router   *httprouter.Router
	manager  *session.Manager
	invs     *fakeInvitations
	sessions *session.MemoryStore
}

func newHarness(t *testing.T, clientID string, verifier CredentialVerifier) *harness {
	t.Helper()
	store := session.NewMemoryStore()
	h := &harness{
		invs: &fakeInvitations{records: map[string]*models.Invitation{
			"alice":             {ID: "alice", Guests: []models.Guest{{Name: "Alice"}}},
			"admin":             {ID: "admin", Admin: true, Guests: []models.Guest{{Name: "Admin"}}},
			"owner@example.com": {ID: "owner@example.com", Admin: true, Email: true},
		}},
		sessions: store,
		manager:  session.NewManager(store, "sid", "secret", time.Hour, false),
	}
	h.handler = &Handler{
		Invitations: h.invs,
		RSVPs:       fakeRSVPs{"old-rsvp": {ID: "old-rsvp", Guests: []models.RSVPGuest{{Name: "Carol"}}}},
		Sessions:    h.manager,
		AllowList:   NewAllowList(),
		ClientID:    clientID,
		Verifier:    verifier,
	}
	h.router = httprouter.New()
	if _, err := api.Register(h.router, h.handler); err != nil {
		t.Fatalf("register: %v", err)
	}
	return h
}

// do sends a request from ip with the given cookies and returns the recorder.
func (h *harness) do(t *testing.T, method, path, body, ip string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	r := httptest.NewRequest(method, path, strings.NewReader(body))
	for _, c := range cookies {
		r.AddCookie(c)
	}
	sess, err := h.manager.Load(r)
	if err != nil {
		t.Fatalf("load session: %v", err)
	}
	req := &api.Request{Request: r, IP: ip, Session: sess, Log: api.NewRequest(r).Log}
	r = r.WithContext(api.WithRequest(r.Context(), req))
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) api.Response {
	t.Helper()
	var resp struct {
		api.Response
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return resp.Response
}

func TestCreateSessionForGuest(t *testing.T) {
	h := newHarness(t, "", nil)
	rec := h.do(t, http.MethodPost, "/api/session", `{"invitationId":"ALICE"}`, "203.0.113.5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var inv models.Invitation
	decode(t, rec, &inv)
	if inv.ID != "alice" || inv.LoginCount != 1 {
		t.Fatalf("unexpected invitation %+v", inv)
	}

	rec = h.do(t, http.MethodGet, "/api/session", "", "203.0.113.5", rec.Result().Cookies())
	inv = models.Invitation{}
	decode(t, rec, &inv)
	if inv.ID != "alice" {
		t.Fatalf("session not bound: %s", rec.Body.String())
	}
}

func TestCreateSessionUnknownID(t *testing.T) {
	h := newHarness(t, "", nil)
	for _, body := range []string{`{"invitationId":"nobody"}`, `{}`, `{"invitationId":""}`} {
		rec := h.do(t, http.MethodPost, "/api/session", body, "10.0.0.2", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("%s: status %d", body, rec.Code)
		}
	}
}

func TestCreateSessionForRSVP(t *testing.T) {
	h := newHarness(t, "", nil)
	rec := h.do(t, http.MethodPost, "/api/session", `{"rsvpId":"old-rsvp"}`, "203.0.113.5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var rsvp models.RSVP
	decode(t, rec, &rsvp)
	if rsvp.ID != "old-rsvp" {
		t.Fatalf("unexpected rsvp %+v", rsvp)
	}
}

func TestAdminFromPublicIPWithoutOAuthIsForbidden(t *testing.T) {
	h := newHarness(t, "", nil)
	rec := h.do(t, http.MethodPost, "/api/session", `{"invitationId":"admin"}`, "203.0.113.5", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("forbidden sign in must not issue a cookie")
	}
	if h.invs.records["admin"].LoginCount != 0 {
		t.Fatal("login counted for refused sign in")
	}
}

func TestAdminFromPrivateIP(t *testing.T) {
	h := newHarness(t, "", nil)
	rec := h.do(t, http.MethodPost, "/api/session", `{"invitationId":"admin"}`, "192.168.1.20", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	sess, _ := h.manager.Load(cookieRequest(rec))
	if !sess.Bound() || !sess.Admin {
		t.Fatalf("expected bound admin session, got %+v", sess)
	}
}

func cookieRequest(rec *httptest.ResponseRecorder) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func TestOAuthFlow(t *testing.T) {
	verifier := &fakeVerifier{cred: &Credential{Email: "owner@example.com", EmailVerified: true}}
	h := newHarness(t, "client-1", verifier)

	rec := h.do(t, http.MethodPost, "/api/session", `{"invitationId":"owner@example.com"}`, "203.0.113.5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var pending Pending
	decode(t, rec, &pending)
	if !pending.Pending || pending.State == "" || pending.ClientID != "client-1" {
		t.Fatalf("unexpected pending response %+v", pending)
	}
	cookies := rec.Result().Cookies()

	sess, _ := h.manager.Load(cookieRequest(rec))
	if sess.Bound() {
		t.Fatal("pending session must not be bound")
	}

	rec = h.do(t, http.MethodPost, "/api/oauth/callback", `{"state":"wrong","credential":"tok"}`, "203.0.113.5", cookies)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("state mismatch: status %d", rec.Code)
	}
	rec = h.do(t, http.MethodPost, "/api/oauth/callback", `{"state":"`+pending.State+`"}`, "203.0.113.5", cookies)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing credential: status %d", rec.Code)
	}

	rec = h.do(t, http.MethodPost, "/api/oauth/callback", `{"state":"`+pending.State+`","credential":"tok"}`, "203.0.113.5", cookies)
	if rec.Code != http.StatusOK {
		t.Fatalf("callback status %d: %s", rec.Code, rec.Body.String())
	}
	sess, _ = h.manager.Load(cookieRequest(rec))
	if !sess.Bound() || !sess.Admin || sess.State != "" {
		t.Fatalf("session not promoted: %+v", sess)
	}
	if h.invs.records["owner@example.com"].LoginCount != 1 {
		t.Fatal("login not counted")
	}
}

func TestOAuthCallbackRejectsMismatchedEmail(t *testing.T) {
	for name, v := range map[string]fakeVerifier{
		"other email": {cred: &Credential{Email: "someone@example.com", EmailVerified: true}},
		"unverified":  {cred: &Credential{Email: "owner@example.com"}},
		"bad token":   {err: errors.New("signature invalid")},
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, "client-1", v)
			rec := h.do(t, http.MethodPost, "/api/session", `{"invitationId":"owner@example.com"}`, "203.0.113.5", nil)
			var pending Pending
			decode(t, rec, &pending)
			rec = h.do(t, http.MethodPost, "/api/oauth/callback", `{"state":"`+pending.State+`","credential":"tok"}`, "203.0.113.5", rec.Result().Cookies())
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status %d", rec.Code)
			}
		})
	}
}

func TestOAuthCallbackGuards(t *testing.T) {
	h := newHarness(t, "", nil)
	rec := h.do(t, http.MethodPost, "/api/oauth/callback", `{}`, "203.0.113.5", nil)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("unconfigured: status %d", rec.Code)
	}
	h = newHarness(t, "client-1", fakeVerifier{})
	rec = h.do(t, http.MethodPost, "/api/oauth/callback", `{}`, "203.0.113.5", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no pending session: status %d", rec.Code)
	}
}

func TestDestroySession(t *testing.T) {
	h := newHarness(t, "", nil)
	rec := h.do(t, http.MethodPost, "/api/session", `{"invitationId":"alice"}`, "203.0.113.5", nil)
	cookies := rec.Result().Cookies()

	rec = h.do(t, http.MethodDelete, "/api/session", "", "203.0.113.5", cookies)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d", rec.Code)
	}
	sess, _ := h.manager.Load(cookieRequest(httptest.NewRecorder()))
	if sess.Bound() {
		t.Fatal("session still bound")
	}
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range cookies {
		r.AddCookie(c)
	}
	if sess, _ := h.manager.Load(r); sess.Bound() {
		t.Fatal("old cookie still resolves")
	}
}

type staticResolver []net.IP

func (s staticResolver) LookupIP(context.Context, string, string) ([]net.IP, error) {
	return s, nil
}

func TestAllowList(t *testing.T) {
	a := NewAllowList()
	for _, ip := range []string{"10.1.2.3", "127.0.0.1", "172.20.0.1", "192.168.0.9", "::ffff:10.0.0.1"} {
		if !a.Contains(ip) {
			t.Errorf("%s should be allowed", ip)
		}
	}
	for _, ip := range []string{"203.0.113.5", "172.32.0.1", "garbage", ""} {
		if a.Contains(ip) {
			t.Errorf("%s should be refused", ip)
		}
	}
	a.AddHost(context.Background(), staticResolver{net.ParseIP("203.0.113.5")}, "wedding.example.com")
	if !a.Contains("203.0.113.5") {
		t.Fatal("host address not added")
	}
}
