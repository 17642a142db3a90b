// Package apperrors defines the error taxonomy shared by the domain
// services, repositories, and HTTP layer. Handlers map the sentinels to
// status codes; everything below the handlers wraps them with %w so
// errors.Is keeps working across layers.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers missing customers and loans.
	ErrNotFound = errors.New("resource not found")

	// ErrValidation marks request input that failed a business
	// precondition. Always accompanied by a *ValidationError carrying
	// the offending field.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidArgument marks malformed transport input (bad JSON,
	// non-numeric path IDs) before it reaches the domain.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrAlreadyExists surfaces unique-constraint violations, e.g. a
	// duplicate phone number on registration.
	ErrAlreadyExists = errors.New("resource already exists")

	// ErrConflict marks a write that found the database in a state the
	// transaction's earlier reads rule out.
	ErrConflict = errors.New("resource conflict")

	ErrDatabase       = errors.New("database error")
	ErrInternalServer = errors.New("internal server error")
)

// ValidationError names the field that failed so handlers can echo it
// back in the error body.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Message)
	}
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError builds a field-level validation failure that
// satisfies both errors.Is(err, ErrValidation) and
// errors.As(err, **ValidationError).
func NewValidationError(field, message string) error {
	ve := &ValidationError{Field: field, Message: message}
	return fmt.Errorf("%w: %w", ErrValidation, ve)
}

// AppError carries an operator-facing code and message for failures
// that cross the HTTP boundary as 500s.
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// WrapDatabaseError attaches the DB_ERROR code and the ErrDatabase
// sentinel to a storage failure while preserving the driver cause.
func WrapDatabaseError(cause error, message string) error {
	return &AppError{
		Code:    "DB_ERROR",
		Message: message,
		Cause:   fmt.Errorf("%w: %w", ErrDatabase, cause),
	}
}
