package services

import (
	"errors"
	"strings"
)

var (
	// ErrSessionNotFound is returned for unknown or ended sessions.
	ErrSessionNotFound = errors.New("session not found")

	// ErrConfirmationRequired is returned when an accept or reject arrives
	// without the admin's explicit confirmation.
	ErrConfirmationRequired = errors.New("action requires confirmation")

	// ErrInvalidCredentials is returned when the backend refuses an admin login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// StockConflictError is an accept that the backend refused because stock no
// longer covers the order. Details itemizes the shortfalls.
type StockConflictError struct {
	OrderID string
	Message string
	Details []string
	Err     error
}

func (e *StockConflictError) Error() string {
	if len(e.Details) == 0 {
		return e.Message
	}
	return e.Message + ": " + strings.Join(e.Details, "; ")
}

func (e *StockConflictError) Unwrap() error { return e.Err }
