package transport

import (
	"context"
	"errors"
	"fmt"
)

// ErrorCode classifies transport failures.
type ErrorCode int

const (
	// ErrCodeTimeout indicates a request deadline or client timeout.
	ErrCodeTimeout ErrorCode = iota
	// ErrCodeConnection indicates a connection failure (refused, DNS, reset).
	ErrCodeConnection
	// ErrCodeCanceled indicates the caller cancelled the request context.
	ErrCodeCanceled
	// ErrCodeInvalidRequest indicates the request could not be built.
	ErrCodeInvalidRequest
	// ErrCodeCircuitOpen indicates the circuit breaker rejected the call.
	ErrCodeCircuitOpen
)

// String returns the error code name.
func (c ErrorCode) String() string {
	switch c {
	case ErrCodeTimeout:
		return "timeout"
	case ErrCodeConnection:
		return "connection"
	case ErrCodeCanceled:
		return "canceled"
	case ErrCodeInvalidRequest:
		return "invalid_request"
	case ErrCodeCircuitOpen:
		return "circuit_open"
	default:
		return "unknown"
	}
}

// Error is a connection-level failure. HTTP statuses are never reported
// as errors by this package.
type Error struct {
	Code      ErrorCode
	Method    string
	URL       string
	Retryable bool
	Err       error
}

func (e *Error) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.URL, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewTimeoutError creates a retryable timeout error.
func NewTimeoutError(err error) *Error {
	return &Error{Code: ErrCodeTimeout, Retryable: true, Err: err}
}

// NewConnectionError creates a retryable connection error.
func NewConnectionError(err error) *Error {
	return &Error{Code: ErrCodeConnection, Retryable: true, Err: err}
}

// NewInvalidRequestError creates a non-retryable request construction error.
func NewInvalidRequestError(err error) *Error {
	return &Error{Code: ErrCodeInvalidRequest, Err: err}
}

// classify maps an error from http.Client.Do to an *Error.
func classify(ctx context.Context, err error) *Error {
	switch {
	case errors.Is(ctx.Err(), context.Canceled):
		return &Error{Code: ErrCodeCanceled, Err: err}
	case ctx.Err() != nil:
		return &Error{Code: ErrCodeTimeout, Err: err}
	}
	var te interface{ Timeout() bool }
	if errors.As(err, &te) && te.Timeout() {
		return NewTimeoutError(err)
	}
	return NewConnectionError(err)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeTimeout
}

// IsConnection checks if an error is a connection error.
func IsConnection(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeConnection
}

// IsCircuitOpen checks if the breaker rejected the call.
func IsCircuitOpen(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == ErrCodeCircuitOpen
}

// IsRetryable reports whether another attempt could succeed.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
