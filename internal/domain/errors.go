package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors for the domain layer. These provide consistent, checkable
// errors for the failures a page session can run into.
var (
	// ErrNetwork covers every failed call to the backend: the request could not
	// be sent, or the backend answered with a non-success status.
	ErrNetwork = errors.New("backend request failed")

	// ErrMissingCredential is returned when a follow-up request is attempted
	// before a bearer credential has been received.
	ErrMissingCredential = errors.New("no bearer credential available")

	// ErrTokenUnavailable is returned by reads that are gated on an
	// anti-forgery token when none could be acquired.
	ErrTokenUnavailable = errors.New("anti-forgery token unavailable")

	// ErrSessionClosed is returned by operations on a torn-down page session.
	ErrSessionClosed = errors.New("page session closed")

	// ErrSessionNotFound is returned when a page session ID is unknown.
	ErrSessionNotFound = errors.New("page session not found")
)

// ValidationError carries field-scoped validation messages. A submission that
// fails validation never reaches the backend.
type ValidationError struct {
	Form   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("%s: validation failed for %s", e.Form, strings.Join(names, ", "))
}

// Field returns the message attached to a field, or an empty string.
func (e *ValidationError) Field(name string) string {
	if e == nil {
		return ""
	}
	return e.Fields[name]
}

// BackendError describes a non-success answer from the backend.
type BackendError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *BackendError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: unexpected status %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Endpoint, e.StatusCode, e.Body)
}

// Unwrap lets errors.Is(err, ErrNetwork) match backend status failures.
func (e *BackendError) Unwrap() error {
	return ErrNetwork
}

// StatusCode returns the backend status carried by err, or 0 if there is none.
func StatusCode(err error) int {
	var be *BackendError
	if errors.As(err, &be) {
		return be.StatusCode
	}
	return 0
}
