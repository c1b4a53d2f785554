// Package service provides application-level services for readings,
// interpretations, and user accounts.
package service

import (
	"errors"
	"fmt"

	"github.com/dhbtk/webtarot/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); unexpected errors are wrapped in
// service-specific error types, and the API layer maps both to HTTP status
// codes.
var (
	// ErrInterpretationNotFound indicates the requested reading does not
	// exist or has been deleted.
	ErrInterpretationNotFound = errors.New("interpretation not found")

	// ErrNotOwned indicates a resource is owned by a different user than the
	// one making the request. API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrUserNotFound indicates the user account does not exist.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken indicates the email address is already registered.
	ErrEmailTaken = errors.New("email address is already registered")

	// ErrAccountExists indicates the visitor id was already claimed by a
	// registered account, so it cannot be registered again.
	ErrAccountExists = errors.New("an account already exists for this id")

	// ErrInvalidCredentials indicates the email/password pair did not match
	// any account. Deliberately the same for unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// InterpretationServiceError wraps errors from the interpretation service
// with context.
type InterpretationServiceError struct {
	// Operation is the operation that failed (e.g., "request_interpretation")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for InterpretationServiceError.
func (e *InterpretationServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("interpretation service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("interpretation service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *InterpretationServiceError) Unwrap() error {
	return e.Err
}

// NewInterpretationServiceError creates a new InterpretationServiceError.
// Known sentinel conditions are returned as sentinels instead of wrapped.
func NewInterpretationServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrInterpretationNotFound) || errors.Is(err, ErrNotOwned) {
		return err
	}
	if errors.Is(err, store.ErrReadingNotFound) {
		return ErrInterpretationNotFound
	}

	return &InterpretationServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// UserServiceError wraps errors from the user service with context.
type UserServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for UserServiceError.
func (e *UserServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("user service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("user service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *UserServiceError) Unwrap() error {
	return e.Err
}

// NewUserServiceError creates a new UserServiceError.
// Known sentinel conditions are returned as sentinels instead of wrapped.
func NewUserServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrUserNotFound),
		errors.Is(err, ErrEmailTaken),
		errors.Is(err, ErrAccountExists),
		errors.Is(err, ErrInvalidCredentials):
		return err
	case errors.Is(err, store.ErrUserNotFound):
		return ErrUserNotFound
	case errors.Is(err, store.ErrEmailExists):
		return ErrEmailTaken
	case errors.Is(err, store.ErrUserIDExists):
		return ErrAccountExists
	}

	return &UserServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
