package api

import (
	"net/http"

	"weddingplanner/utils"
)

// Response is the envelope of every API reply.
type Response struct {
	Success     bool   `json:"success"`
	Data        any    `json:"data,omitempty"`
	Description string `json:"description,omitempty"`
}

// OK writes data with 200.
func OK(w http.ResponseWriter, data any) error {
	utils.RespondWithJSON(w, http.StatusOK, Response{Success: true, Data: data})
	return nil
}

// NoContent writes an empty 204.
func NoContent(w http.ResponseWriter) error {
	w.WriteHeader(http.StatusNoContent)
	return nil
}

// Fail writes a failure envelope.
func Fail(w http.ResponseWriter, status int, description string) {
	utils.RespondWithJSON(w, status, Response{Success: false, Description: description})
}

// Reject writes a failure envelope carrying only the reason phrase.
func Reject(w http.ResponseWriter, status int) {
	Fail(w, status, http.StatusText(status))
}

// NotFoundHandler answers unmatched API paths.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.NoCache(w)
		Reject(w, http.StatusNotFound)
	})
}

// MethodNotAllowedHandler answers known paths hit with the wrong method.
func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.NoCache(w)
		Reject(w, http.StatusMethodNotAllowed)
	})
}
