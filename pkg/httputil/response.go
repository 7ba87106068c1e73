// Package httputil holds the response helpers used by the stub server.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Content types written by the helpers.
const (
	ContentTypeJSON = "application/json"
	ContentTypeHAL  = "application/hal+json"
)

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	write(w, status, ContentTypeJSON, data)
}

// WriteHAL writes a HAL document with the given status code.
func WriteHAL(w http.ResponseWriter, status int, data any) {
	write(w, status, ContentTypeHAL, data)
}

func write(w http.ResponseWriter, status int, contentType string, data any) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes a JSON error body of the form {"error": code, "message": msg}.
// This is the shape carclient parses into a ServerError.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   errCode,
		"message": message,
	})
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// WriteNotFound writes a 404 error response.
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusNotFound, "not_found", message)
}

// WriteBadRequest writes a 400 error response.
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "bad_request", message)
}
