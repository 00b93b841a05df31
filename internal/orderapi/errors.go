package orderapi

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingCredentials is returned before any request when an admin call
	// lacks admin_id or authtoken.
	ErrMissingCredentials = errors.New("missing admin credentials. Please login again")

	// ErrSessionExpired marks a backend reply whose message is "logout". The
	// backend has no dedicated status for an expired admin session, so this
	// sentinel is derived from the message text and is only as stable as it.
	ErrSessionExpired = errors.New("admin session expired")

	// ErrRequestFailed wraps transport level failures (dial, timeout, bad body).
	ErrRequestFailed = errors.New("order api request failed")
)

// APIError is a failure reported by the backend. Message is the backend's
// human-readable reason and is returned verbatim by Error.
type APIError struct {
	Op      string   // endpoint, e.g. "accept_order"
	Status  int      // HTTP status
	Message string   // backend message
	Details []string // per-item reasons, accept_order only
	Err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s failed", e.Op)
}

// Unwrap exposes the sentinel behind the failure, if any.
func (e *APIError) Unwrap() error {
	return e.Err
}
