package errors

import (
	"errors"
	"fmt"
)

// Common error types
var (
	// ErrNotFound indicates that a requested object was not found
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey indicates that an object with the same ID already exists
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrConflict indicates that an update lost against a newer write
	ErrConflict = errors.New("stale object conflict")

	// ErrInvalidInput indicates that invalid input was provided
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuery indicates that a query could not be evaluated or parsed
	ErrInvalidQuery = errors.New("invalid query")

	// ErrUnauthorized indicates that the request lacks valid authentication
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCancelled indicates that an operation was cancelled
	ErrCancelled = errors.New("operation cancelled")

	// ErrExternalService indicates an error with a remote store backend
	ErrExternalService = errors.New("external service error")

	// ErrStoreClosed indicates that an operation was issued against a closed store
	ErrStoreClosed = errors.New("store closed")
)

// StoreError represents a store-level error with additional context
type StoreError struct {
	Op      string                 // Operation that failed
	Store   string                 // Store where the error occurred
	Err     error                  // Underlying error
	Context map[string]interface{} // Additional context
}

// Error implements the error interface
func (e *StoreError) Error() string {
	if len(e.Context) > 0 {
		return fmt.Sprintf("%s.%s: %v (context: %v)", e.Store, e.Op, e.Err, e.Context)
	}
	return fmt.Sprintf("%s.%s: %v", e.Store, e.Op, e.Err)
}

// Unwrap allows errors.Is and errors.As to work
func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError
func NewStoreError(store, op string, err error) *StoreError {
	return &StoreError{
		Store: store,
		Op:    op,
		Err:   err,
	}
}

// WithContext adds context to a StoreError
func (e *StoreError) WithContext(key string, value interface{}) *StoreError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateKey checks if an error is a duplicate key error
func IsDuplicateKey(err error) bool {
	return errors.Is(err, ErrDuplicateKey)
}

// IsConflict checks if an error is a stale object conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// IsInvalidInput checks if an error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrInvalidQuery)
}

// IsUnauthorized checks if an error is an authentication error
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}
