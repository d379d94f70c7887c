package api

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"weddingplanner/logging"
	"weddingplanner/session"
)

// Request is the request-scoped context handed to predicates and actions.
// It is built once per request by middleware.Context.
type Request struct {
	*http.Request
	Params    httprouter.Params
	ID        string
	IP        string
	Session   *session.Session
	Admin     bool
	TokenName string
	Log       zerolog.Logger
}

type ctxKey struct{}

// WithRequest attaches req to ctx.
func WithRequest(ctx context.Context, req *Request) context.Context {
	return context.WithValue(ctx, ctxKey{}, req)
}

// FromContext returns the Request attached by middleware, or nil.
func FromContext(ctx context.Context) *Request {
	req, _ := ctx.Value(ctxKey{}).(*Request)
	return req
}

// NewRequest wraps r with an empty session. Used when no middleware ran.
func NewRequest(r *http.Request) *Request {
	return &Request{
		Request: r,
		Session: &session.Session{},
		Log:     logging.For("api"),
	}
}

// BoundID is the invitation or rsvp id of a fully authenticated session.
func (r *Request) BoundID() string {
	if r.Session.Bound() {
		return r.Session.InvitationID
	}
	return ""
}
