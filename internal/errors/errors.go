// Package errors holds the application-wide error categories. Use cases return errors that
// wrap one of these sentinels; the HTTP layer maps the category to a status code and, when
// present, exposes the machine-readable code attached with Coded.
package errors

import (
	"errors"
	"fmt"
)

// Error categories.
var (
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a conflict with existing data (e.g., a request id seen twice).
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput indicates the input data is invalid or fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnauthorized indicates the request lacks valid authentication credentials.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates the caller doesn't have permission.
	ErrForbidden = errors.New("forbidden")

	// ErrTooManyRequests indicates the caller exceeded a rate limit.
	ErrTooManyRequests = errors.New("too many requests")
)

// CodedError is a sentinel carrying a stable snake_case code for API clients.
type CodedError struct {
	code     string
	message  string
	category error
}

// Coded returns a new sentinel in category with a client-facing code.
//
// The result compares equal only to itself under errors.Is and also matches category.
func Coded(category error, code, message string) *CodedError {
	return &CodedError{code: code, message: message, category: category}
}

func (e *CodedError) Error() string {
	return fmt.Sprintf("%s: %s", e.message, e.category)
}

func (e *CodedError) Unwrap() error { return e.category }

// Code returns the client-facing code.
func (e *CodedError) Code() string { return e.code }

// CodeOf returns the code of the first CodedError in err's tree, or "" if there is none.
func CodeOf(err error) string {
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.code
	}
	return ""
}

// Wrap wraps an error with additional context while preserving the error chain.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
