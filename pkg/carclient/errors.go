package carclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches a ServerError with status 404 via errors.Is.
var ErrNotFound = errors.New("not found")

// TransportError is returned when a request could not be sent or no response
// arrived.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ServerError is returned for any non-success response.
type ServerError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Is reports a 404 as ErrNotFound.
func (e *ServerError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ShapeError is returned when a response body does not match the expected
// envelope.
type ShapeError struct {
	Reason string
	Err    error
}

func (e *ShapeError) Error() string {
	return "response shape: " + e.Reason
}

func (e *ShapeError) Unwrap() error { return e.Err }

// Kind names the taxonomy bucket of err: "transport", "server", "shape" or
// "" when err is none of them.
func Kind(err error) string {
	var te *TransportError
	var se *ServerError
	var sh *ShapeError
	switch {
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &se):
		return "server"
	case errors.As(err, &sh):
		return "shape"
	}
	return ""
}

// FormatError returns a user-facing description of err with suggestions.
func FormatError(err error) string {
	var te *TransportError
	if errors.As(err, &te) {
		return fmt.Sprintf(`Error: cannot reach %s: %v

Suggestions:
  • Check the base URL with: carshop config
  • Start a local server with: carshop stub`, te.URL, te.Err)
	}
	var se *ServerError
	if errors.As(err, &se) && se.StatusCode == http.StatusNotFound {
		return `Error: car not found

Suggestions:
  • Check the ID with: carshop list`
	}
	return "Error: " + err.Error()
}
