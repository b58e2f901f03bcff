// Package apperr defines the error taxonomy shared by the client packages.
// Services wrap and return these values; screens decide how to show them.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrAuth marks every authentication failure: bad credentials, a missing
	// or rejected token, or a registration conflict.
	ErrAuth = errors.New("authentication failed")
	// ErrAuthorizationExpired is wrapped into any error produced by a 401
	// response to a request that carried a bearer token.
	ErrAuthorizationExpired = errors.New("authorization expired")
	// ErrCancelled is returned when the user declines a confirmation.
	ErrCancelled = errors.New("cancelled")
	// ErrNotFound is matched by APIError values with status 404.
	ErrNotFound = errors.New("not found")
)

// User-facing messages for authentication failures.
const (
	MsgInvalidCredentials = "Invalid email or password"
	MsgRegistrationFailed = "Registration failed. Please try again."
	MsgNoToken            = "No token found"
)

// AuthError describes an authentication failure.  Message is safe to show
// inline on a form; Err keeps the underlying cause.
type AuthError struct {
	Op      string
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is makes every AuthError match ErrAuth.
func (e *AuthError) Is(target error) bool { return target == ErrAuth }

// APIError is a non-2xx response from the backend.
type APIError struct {
	Method string
	Path   string
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// IsServer reports whether the backend failed (5xx) rather than the request.
func (e *APIError) IsServer() bool { return e.Status >= http.StatusInternalServerError }

// Is lets errors.Is(err, ErrNotFound) match 404 responses.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// NetworkError wraps a transport failure: DNS, refused connection, timeout.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string { return fmt.Sprintf("%s: network error: %v", e.Op, e.Err) }

func (e *NetworkError) Unwrap() error { return e.Err }

// ValidationError blocks a submission before any request is sent.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// Message picks the text a screen shows for err.
func Message(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Message
	}
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return vErr.Message
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return "Could not reach the server. Please try again."
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.IsServer() {
			return "The server had a problem. Please try again."
		}
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
	}
	if errors.Is(err, ErrAuthorizationExpired) {
		return "Your session has expired. Please log in again."
	}
	return "Something went wrong. Please try again."
}
