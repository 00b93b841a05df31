package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrSubmitInFlight is returned while an order request is outstanding.
	ErrSubmitInFlight = errors.New("an order is already being submitted")

	// ErrOrderOnHold is returned when a submit arrives during the post-order hold.
	ErrOrderOnHold = errors.New("the previous order is still being finalised")
)

// ValidationError lists per-field problems found before any network call.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// CouponError is a server-side rejection of the entered promo code.
type CouponError struct {
	Code    string
	Message string
	Err     error
}

func (e *CouponError) Error() string { return e.Message }

func (e *CouponError) Unwrap() error { return e.Err }

// SubmissionError is any other failure while creating the order.
type SubmissionError struct {
	Message string
	Err     error
}

func (e *SubmissionError) Error() string { return e.Message }

func (e *SubmissionError) Unwrap() error { return e.Err }

// ReceiptError means the order was recorded but its receipt could not be
// exported. The order is not rolled back.
type ReceiptError struct {
	Err error
}

func (e *ReceiptError) Error() string {
	return fmt.Sprintf("order placed but receipt generation failed: %v", e.Err)
}

func (e *ReceiptError) Unwrap() error { return e.Err }

// ErrorKind names the category of the last failure for the UI.
func ErrorKind(err error) string {
	var (
		verr *ValidationError
		cerr *CouponError
		rerr *ReceiptError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return "validation"
	case errors.As(err, &cerr):
		return "coupon"
	case errors.As(err, &rerr):
		return "receipt"
	default:
		return "submission"
	}
}

var couponHints = []string{"coupon", "promo"}

// classify turns a create-order failure into a CouponError when a code was
// entered and the backend's message is about it.
func classify(err error, couponCode string) error {
	msg := err.Error()
	if couponCode != "" {
		lower := strings.ToLower(msg)
		for _, h := range couponHints {
			if strings.Contains(lower, h) {
				return &CouponError{Code: couponCode, Message: msg, Err: err}
			}
		}
	}
	return &SubmissionError{Message: msg, Err: err}
}
