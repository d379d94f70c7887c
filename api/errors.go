package api

import "net/http"

// Error is a failure whose status and message are safe to show the caller.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string   { return e.Message }
func (e *Error) StatusCode() int { return e.Status }

func BadRequest(msg string) error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// NotFound, Forbidden and Unauthorized only report the reason phrase.
func NotFound() error {
	return &Error{Status: http.StatusNotFound, Message: http.StatusText(http.StatusNotFound)}
}

func Forbidden() error {
	return &Error{Status: http.StatusForbidden, Message: http.StatusText(http.StatusForbidden)}
}

func Unauthorized() error {
	return &Error{Status: http.StatusUnauthorized, Message: http.StatusText(http.StatusUnauthorized)}
}
