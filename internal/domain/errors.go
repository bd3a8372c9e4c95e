package domain

import (
	"fmt"
	"strings"
)

// Error types for consistent error handling across the API.

// ErrNotFound indicates a record is absent or outside the caller's scope.
// Both cases produce the same message.
type ErrNotFound struct {
	Resource string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// ErrExternalService indicates a failure in an external service call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker is open.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrValidation indicates a schema violation on input.
type ErrValidation struct {
	Message string
	Errors  []string
}

func (e *ErrValidation) Error() string {
	if len(e.Errors) == 0 {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, strings.Join(e.Errors, "; "))
}

// NewValidation builds a single-field validation error.
func NewValidation(msg string) *ErrValidation {
	return &ErrValidation{Message: "Validation error", Errors: []string{msg}}
}

// ErrForbidden indicates the caller's role may not perform the action.
type ErrForbidden struct {
	Role     Role
	Resource string
	Action   string
}

func (e *ErrForbidden) Error() string {
	return fmt.Sprintf("User role '%s' is not authorized to access this route", e.Role)
}

// ErrUnauthorized indicates a missing, invalid or expired credential.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "Not authorized to access this route"
}

// ErrConflict indicates a resource already exists (e.g. duplicate email).
type ErrConflict struct {
	Message string
}

func (e *ErrConflict) Error() string {
	return e.Message
}

// ErrUnavailable indicates the persistence layer is not in a ready state.
type ErrUnavailable struct {
	State ConnState
}

func (e *ErrUnavailable) Error() string {
	return "Database not connected"
}

// ErrRateLimited indicates the caller exceeded the request window.
type ErrRateLimited struct {
	RetryAfterSeconds int
}

func (e *ErrRateLimited) Error() string {
	return "Too many requests, please try again later."
}
