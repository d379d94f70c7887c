package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"weddingplanner/api"
	"weddingplanner/logging"
	"weddingplanner/session"
)

type requestIDKey struct{}

// RequestID returns the correlation id assigned by Logging, if any.
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// SessionLoader loads the session named by a request cookie.
type SessionLoader interface {
	Load(r *http.Request) (*session.Session, error)
}

// Context builds the api.Request for every request: correlation id, client
// IP and the loaded session.
func Context(sessions SessionLoader, trustProxy bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := RequestID(r.Context())
			if id == "" {
				id = uuid.NewString()
			}
			log := logging.For("api").With().Str("req", id).Logger()

			sess, err := sessions.Load(r)
			if err != nil {
				log.Error().Err(err).Msg("failed to load session")
			}
			req := &api.Request{
				Request: r,
				ID:      id,
				IP:      ClientIP(r, trustProxy),
				Session: sess,
				Log:     log,
			}
			next.ServeHTTP(w, r.WithContext(api.WithRequest(r.Context(), req)))
		})
	}
}

// ClientIP returns the caller's address. Behind a trusted proxy the first
// X-Forwarded-For entry wins.
func ClientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
