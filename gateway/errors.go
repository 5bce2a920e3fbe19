package gateway

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrSessionExpired matches (via errors.Is) the failure returned when a
// refresh attempt fails and the session has been cleared. Callers that see
// it must send the user back to login.
var ErrSessionExpired = errors.New("session expired")

// APIError is a non-2xx response from the backend, carrying the
// server-supplied message when the body had the standard {"error": "..."}
// shape.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Message)
}

// Unauthorized reports whether the failure was a 401.
func (e *APIError) Unauthorized() bool {
	return e.Status == http.StatusUnauthorized
}

// NetworkError is a transport-level failure: the call never produced an
// HTTP response. The session is never mutated on a NetworkError, except
// when the failing call was itself a refresh attempt.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// SessionExpiredError is returned when the refresh flow fails terminally.
// By the time a caller sees it, the session has already been cleared from
// memory and persistent storage. Cause holds the original call's failure.
type SessionExpiredError struct {
	Cause error
}

func (e *SessionExpiredError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("session expired: %v", e.Cause)
	}
	return "session expired"
}

// Unwrap exposes the original call's failure to errors.Is/As chains.
func (e *SessionExpiredError) Unwrap() error { return e.Cause }

// Is matches ErrSessionExpired so callers can test with errors.Is without
// caring about the concrete type.
func (e *SessionExpiredError) Is(target error) bool {
	return target == ErrSessionExpired
}

// apiError converts a non-2xx response into an *APIError, decoding the
// standard error body when present.
func apiError(resp *Response) *APIError {
	var body struct {
		Error string `json:"error"`
	}
	message := http.StatusText(resp.StatusCode)
	if err := resp.Decode(&body); err == nil && body.Error != "" {
		message = body.Error
	}
	return &APIError{Status: resp.StatusCode, Message: message}
}

// ServerMessage extracts the server-supplied message from err, or returns
// fallback for failures with no usable message (network errors, decode
// failures).
func ServerMessage(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
