// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidID       = errors.New("invalid ID")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidOperation = errors.New("invalid operation")
	ErrMissingContext   = errors.New("missing selection context")
	ErrSuperseded       = errors.New("superseded by a newer selection")
	ErrBusy             = errors.New("operation in progress")

	// Data provider errors
	ErrProviderFailure = errors.New("data provider failure")
	ErrTimeout         = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "cascade", "attendance", "evaluation"
	Op      string // Operation that failed, e.g., "Select", "Cycle"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching against both the kind and the cause.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	return e.Err != nil && errors.Is(e.Err, target)
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// InvalidOperation builds an ErrInvalidOperation error for a rejected state transition.
func InvalidOperation(domain, op, message string) *DomainError {
	return NewDomainError(domain, op, ErrInvalidOperation, message)
}

// MissingContext builds an ErrMissingContext error for a submit without its selections.
func MissingContext(domain, op, message string) *DomainError {
	return NewDomainError(domain, op, ErrMissingContext, message)
}

// ProviderFailure wraps an error returned by a data provider.
// Errors that already carry the ErrProviderFailure kind are returned unchanged.
func ProviderFailure(domain, op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrProviderFailure) {
		return err
	}
	return WrapError(domain, op, ErrProviderFailure, "data provider request failed", err)
}

// Calendar domain errors
var (
	ErrBlockedDayNotFound = NewDomainError("calendar", "Remove", ErrNotFound, "no blocked day for this date")
	ErrBlockedDayExists   = NewDomainError("calendar", "Add", ErrAlreadyExists, "date is already blocked")
	ErrRemovalDisabled    = NewDomainError("calendar", "Remove", ErrInvalidOperation, "blocked day removal is disabled")
)

// Reference data errors
var (
	ErrSchoolNotFound     = NewDomainError("academic", "FindSchool", ErrNotFound, "school not found")
	ErrClassGroupNotFound = NewDomainError("academic", "FindClassGroup", ErrNotFound, "class group not found")
	ErrStudentNotFound    = NewDomainError("academic", "FindStudent", ErrNotFound, "student not found")
	ErrSubjectNotFound    = NewDomainError("academic", "FindSubject", ErrNotFound, "subject not found")
)

// Session errors
var (
	ErrSessionNotFound = NewDomainError("session", "Find", ErrNotFound, "session not found")
	ErrUnknownProfile  = NewDomainError("session", "SwitchProfile", ErrInvalidInput, "unknown profile")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidOperation checks if a state transition was rejected.
func IsInvalidOperation(err error) bool {
	return errors.Is(err, ErrInvalidOperation)
}

// IsMissingContext checks if a submission lacked required selections.
func IsMissingContext(err error) bool {
	return errors.Is(err, ErrMissingContext)
}

// IsSuperseded checks if a fetch result was discarded as stale.
func IsSuperseded(err error) bool {
	return errors.Is(err, ErrSuperseded)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsProviderFailure checks if the error came from the data provider.
func IsProviderFailure(err error) bool {
	return errors.Is(err, ErrProviderFailure) || errors.Is(err, ErrTimeout)
}

// IsRetryable checks if the operation can be retried by the user.
func IsRetryable(err error) bool {
	return IsProviderFailure(err) || errors.Is(err, ErrBusy)
}
