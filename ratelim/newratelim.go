package ratelim

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"weddingplanner/api"
	"weddingplanner/utils"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces a fixed per-minute quota per caller.
type RateLimiter struct {
	visitors  map[string]*visitor
	mu        sync.Mutex
	perMinute int
	idle      time.Duration
	// SkipBound lets requests with a fully bound session through unmetered.
	SkipBound bool
	now       func() time.Time
}

// NewRateLimiter allows perMinute requests per caller per minute.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute < 1 {
		perMinute = 1
	}
	return &RateLimiter{
		visitors:  make(map[string]*visitor),
		perMinute: perMinute,
		idle:      10 * time.Minute,
		SkipBound: true,
		now:       time.Now,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rl.perMinute)), rl.perMinute)}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v.limiter
}

// Sweep forgets callers idle for longer than the idle window.
func (rl *RateLimiter) Sweep() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	cutoff := rl.now().Add(-rl.idle)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// Run sweeps periodically until ctx is done.
func (rl *RateLimiter) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.Sweep()
		}
	}
}

// Limit enforces the quota on every request below it. The caller is the bound
// session id when there is one, else the client IP.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.RemoteAddr
		if req := api.FromContext(r.Context()); req != nil {
			if id := req.BoundID(); id != "" {
				if rl.SkipBound {
					next.ServeHTTP(w, r)
					return
				}
				key = "id:" + id
			} else {
				key = "ip:" + req.IP
			}
		}
		if !rl.getLimiter(key).AllowN(rl.now(), 1) {
			utils.NoCache(w)
			api.Reject(w, http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
