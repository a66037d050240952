package remote

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures of remote store calls.
// The kind decides how callers react: NotFound is expected control
// flow on cache lookups, Transient is eligible for retry,
// Unauthenticated and Fatal surface immediately, Cancelled maps to
// user-initiated aborts.
type ErrorKind int

const (
	KindNotFound ErrorKind = iota
	KindTransient
	KindUnauthenticated
	KindFatal
	KindCancelled
)

func (k ErrorKind) String() string {
	switch k {
	case KindNotFound:
		return "NotFound"
	case KindTransient:
		return "Transient"
	case KindUnauthenticated:
		return "Unauthenticated"
	case KindFatal:
		return "Fatal"
	case KindCancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// APIError is the error type returned by every remote store call
type APIError struct {
	Kind    ErrorKind
	Status  int // HTTP status, 0 for network-level failures
	Message string
	Cause   error
}

func (e *APIError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("[%s] %s (status %d)", e.Kind, e.Message, e.Status)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Cause
}

func IsKind(err error, kind ErrorKind) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind == kind
	}
	return false
}

func IsNotFound(err error) bool {
	return IsKind(err, KindNotFound)
}

// IsTransient reports whether a failure is eligible for retry.
// Network-level failures without a status are treated as transient.
func IsTransient(err error) bool {
	return IsKind(err, KindTransient)
}

func IsUnauthenticated(err error) bool {
	return IsKind(err, KindUnauthenticated)
}

// classifyStatus maps an HTTP status to an error kind.
// 5xx is transient, 401/403 is unauthenticated, 404 is not-found,
// any other non-2xx is fatal.
func classifyStatus(status int) ErrorKind {
	switch {
	case status >= 500:
		return KindTransient
	case status == 401 || status == 403:
		return KindUnauthenticated
	case status == 404:
		return KindNotFound
	default:
		return KindFatal
	}
}
