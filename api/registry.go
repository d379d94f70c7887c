// Package api holds the handler registry, the request envelope and the
// access predicates shared by every endpoint.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"

	"weddingplanner/logging"
	"weddingplanner/utils"
)

// Prefix is prepended to every route path.
const Prefix = "/api/"

// AuthFunc decides whether a request may proceed. It returns http.StatusOK to
// admit the request or the status to reject it with.
type AuthFunc func(*Request) (int, error)

// ActionFunc performs the work of an endpoint and writes the response.
type ActionFunc func(http.ResponseWriter, *Request) error

// Route describes one endpoint.
type Route struct {
	Path   string
	Method string
	Auth   AuthFunc
	Action ActionFunc
}

// Endpoint is implemented by every handler type.
type Endpoint interface {
	Routes() []Route
}

var methods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodDelete: true,
}

// Register wires every route of endpoints into router. Unusable routes are
// skipped with a log line; a route the router refuses (duplicate or
// conflicting path) aborts registration with an error.
func Register(router *httprouter.Router, endpoints ...Endpoint) (count int, err error) {
	log := logging.For("api")
	for _, ep := range endpoints {
		for _, route := range ep.Routes() {
			method := strings.ToUpper(route.Method)
			if method == "" {
				method = http.MethodGet
			}
			if route.Path == "" || route.Action == nil || !methods[method] {
				log.Warn().Str("path", route.Path).Str("method", route.Method).Msg("skipping unusable route")
				continue
			}
			path := Prefix + strings.TrimPrefix(route.Path, "/")
			if route.Auth == nil {
				log.Warn().Str("path", path).Str("method", method).Msg("route registered without auth")
			}
			if err := handle(router, method, path, route); err != nil {
				return count, err
			}
			count++
		}
	}
	return count, nil
}

func handle(router *httprouter.Router, method, path string, route Route) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("register %s %s: %v", method, path, p)
		}
	}()
	router.Handle(method, path, Wrap(route))
	return nil
}

// Wrap applies the auth → action → error envelope to route.
func Wrap(route Route) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		req := FromContext(r.Context())
		if req == nil {
			req = NewRequest(r)
		}
		req.Request = r
		req.Params = ps
		utils.NoCache(w)

		if route.Auth != nil {
			status, err := route.Auth(req)
			if err != nil {
				fail(w, req, err)
				return
			}
			if status != http.StatusOK {
				Reject(w, status)
				return
			}
		}
		if err := route.Action(w, req); err != nil {
			fail(w, req, err)
		}
	}
}

type statusError interface {
	error
	StatusCode() int
}

func fail(w http.ResponseWriter, req *Request, err error) {
	var se statusError
	if errors.As(err, &se) && se.StatusCode() != http.StatusInternalServerError {
		Fail(w, se.StatusCode(), se.Error())
		return
	}
	req.Log.Error().Err(err).Str("req", req.ID).Str("path", req.URL.Path).Msg("request failed")
	Reject(w, http.StatusInternalServerError)
}
