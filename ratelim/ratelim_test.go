package ratelim

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"weddingplanner/api"
	"weddingplanner/session"
)

func request(sess *session.Session, ip string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/menu", nil)
	req := &api.Request{Request: r, IP: ip, Session: sess}
	return r.WithContext(api.WithRequest(r.Context(), req))
}

func TestLimitPerIP(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(2)
	rl.now = func() time.Time { return now }
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	codes := []int{}
	var limited *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		limited = httptest.NewRecorder()
		h.ServeHTTP(limited, request(&session.Session{}, "203.0.113.1"))
		codes = append(codes, limited.Code)
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("codes %v", codes)
	}
	if cc := limited.Header().Get("Cache-Control"); !strings.Contains(cc, "no-store") {
		t.Fatalf("429 cacheable: %q", cc)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(&session.Session{}, "203.0.113.2"))
	if rec.Code != http.StatusOK {
		t.Fatalf("other ip limited: %d", rec.Code)
	}

	now = now.Add(time.Minute)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, request(&session.Session{}, "203.0.113.1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("quota not replenished: %d", rec.Code)
	}
}

func TestBoundSessionsSkipLimit(t *testing.T) {
	rl := NewRateLimiter(1)
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, request(&session.Session{InvitationID: "alice"}, "203.0.113.1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("bound request %d limited", i)
		}
	}
}

func TestBoundSessionsKeyedByIDWhenMetered(t *testing.T) {
	rl := NewRateLimiter(1)
	rl.SkipBound = false
	h := rl.Limit(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, request(&session.Session{InvitationID: "alice"}, "203.0.113.1"))
	rec2 := httptest.NewRecorder()
	h.ServeHTTP(rec2, request(&session.Session{InvitationID: "bob"}, "203.0.113.1"))
	if rec.Code != http.StatusOK || rec2.Code != http.StatusOK {
		t.Fatalf("codes %d %d", rec.Code, rec2.Code)
	}
	rec3 := httptest.NewRecorder()
	h.ServeHTTP(rec3, request(&session.Session{InvitationID: "alice"}, "198.51.100.7"))
	if rec3.Code != http.StatusTooManyRequests {
		t.Fatalf("alice not limited across IPs: %d", rec3.Code)
	}
}

func TestSweepDropsIdleVisitors(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(5)
	rl.now = func() time.Time { return now }
	rl.getLimiter("ip:1")
	now = now.Add(11 * time.Minute)
	rl.getLimiter("ip:2")
	rl.Sweep()
	if _, ok := rl.visitors["ip:1"]; ok {
		t.Fatal("idle visitor kept")
	}
	if _, ok := rl.visitors["ip:2"]; !ok {
		t.Fatal("active visitor dropped")
	}
}
