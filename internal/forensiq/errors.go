package forensiq

import (
	"errors"
	"fmt"
)

// ErrNotInitialized is matched by NotInitializedError via errors.Is.
var ErrNotInitialized = errors.New("forensiq: client not initialized")

// MissingFieldError reports a required request field that was left empty.
// It is a caller bug and is returned before any network activity.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("forensiq: required field %s is missing", e.Field)
}

// NotInitializedError is returned when a Client or Transport is used
// before it was built with New or NewTransport.
type NotInitializedError struct {
	Component string
}

func (e *NotInitializedError) Error() string {
	if e.Component == "" {
		return ErrNotInitialized.Error()
	}
	return fmt.Sprintf("forensiq: %s not initialized", e.Component)
}

func (e *NotInitializedError) Is(target error) bool { return target == ErrNotInitialized }

// TransportError wraps a network failure or a non-2xx provider status.
type TransportError struct {
	StatusCode int // zero when no response was received
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("forensiq: provider returned HTTP %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("forensiq: transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedResponseError reports a provider body that is not JSON or lacks
// the expected numeric fields.
type MalformedResponseError struct {
	Reason string
	Body   string // truncated copy of the offending body
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("forensiq: malformed response: %s", e.Reason)
}

// failureKind names an absorbed error for logs and metrics labels.
func failureKind(err error) string {
	var te *TransportError
	var me *MalformedResponseError
	switch {
	case errors.As(err, &me):
		return "malformed_response"
	case errors.As(err, &te):
		if te.StatusCode != 0 {
			return "bad_status"
		}
		return "transport"
	default:
		return "unknown"
	}
}
