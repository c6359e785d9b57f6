package lifecycle

import (
	"errors"
	"fmt"
)

// Error kinds. Every rejected operation wraps exactly one of these so callers
// can classify it with errors.Is.
var (
	// ErrPermissionDenied: the actor is not a party allowed to perform the operation.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrInvalidState: the operation is not legal in the entity's current status.
	ErrInvalidState = errors.New("invalid state")
	// ErrConflict: a concurrent actor changed the state the operation depended on.
	ErrConflict = errors.New("conflict")
	// ErrValidation: malformed input.
	ErrValidation = errors.New("validation error")
	// ErrUpstream: the document store or blob store failed.
	ErrUpstream = errors.New("upstream failure")
	// ErrNotFound: the referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)

// Errorf wraps kind with a formatted message, e.g. "conflict: item X is already sold".
func Errorf(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Upstream wraps a store error so it is classified as an upstream failure
// while the original error stays reachable through errors.Is/As.
func Upstream(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

// KindOf returns a short label for the error kind, used in API responses and metrics.
func KindOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, ErrUpstream):
		return "upstream_failure"
	default:
		return "internal"
	}
}
