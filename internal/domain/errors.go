package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by repositories and services.
var (
	ErrNotFound        = errors.New("not found")
	ErrMissingCategory = errors.New("category channel not found")
)

// ValidationError is returned for user input that cannot be used as given,
// such as an event name template with the wrong number of placeholders.
// Message is safe to show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError returns a *ValidationError for field.
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// TransportError is returned when the scheduling website could not be reached
// or answered with a non-success status. It is never retried here.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("scheduler returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("scheduler request failed: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamFormatChangedError is returned when the scheduling website answered
// successfully but the page no longer has the shape we scrape the event link from.
type UpstreamFormatChangedError struct {
	Reason string
}

func (e *UpstreamFormatChangedError) Error() string {
	return "scheduler response format changed: " + e.Reason
}
