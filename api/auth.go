package api

import (
	"net/http"
	"strings"

	"weddingplanner/session"
)

// Public marks an endpoint that is intentionally open.
func Public(*Request) (int, error) {
	return http.StatusOK, nil
}

// SessionAuth admits requests with a fully bound session.
func SessionAuth(r *Request) (int, error) {
	if r.Session.Bound() {
		return http.StatusOK, nil
	}
	return http.StatusUnauthorized, nil
}

// AdminAuth admits requests elevated to admin.
func AdminAuth(r *Request) (int, error) {
	if r.Admin {
		return http.StatusOK, nil
	}
	return http.StatusUnauthorized, nil
}

// SelfAuth admits admins and sessions bound to the id in path parameter param.
func SelfAuth(param string) AuthFunc {
	return func(r *Request) (int, error) {
		if r.Admin {
			return http.StatusOK, nil
		}
		if id := r.BoundID(); id != "" && strings.EqualFold(id, r.Params.ByName(param)) {
			return http.StatusOK, nil
		}
		return http.StatusUnauthorized, nil
	}
}

// SelfOf is SelfAuth restricted to sessions of the given kind.
func SelfOf(kind session.Kind, param string) AuthFunc {
	self := SelfAuth(param)
	return func(r *Request) (int, error) {
		if !r.Admin && r.Session.Kind != kind {
			return http.StatusUnauthorized, nil
		}
		return self(r)
	}
}
