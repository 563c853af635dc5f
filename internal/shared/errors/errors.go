package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies failures by the boundary they crossed
type ErrorType string

const (
	// ErrorTypeConnectivity covers an unreachable RPC endpoint or store.
	// Degrades the affected background task for that cycle only.
	ErrorTypeConnectivity ErrorType = "CONNECTIVITY_ERROR"
	// ErrorTypeDecode covers a malformed token URI payload. Skips one token.
	ErrorTypeDecode ErrorType = "DECODE_ERROR"
	// ErrorTypeUpstream covers generative-model or store failures inside an
	// HTTP handler. Surfaced as HTTP 500 with a generic message.
	ErrorTypeUpstream   ErrorType = "UPSTREAM_ERROR"
	ErrorTypeValidation ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND_ERROR"
	ErrorTypeInternal   ErrorType = "INTERNAL_ERROR"
)

// Common application errors
var (
	ErrNotFound        = errors.New("resource not found")
	ErrBadRequest      = errors.New("bad request")
	ErrInternalServer  = errors.New("internal server error")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTokenNotFound   = errors.New("token not found")
	ErrCatTextNotFound = errors.New("cat text not found")
)

// Chain-specific errors
var (
	ErrChainUnreachable = errors.New("chain RPC endpoint unreachable")
	ErrStoreUnreachable = errors.New("document store unreachable")
	ErrMalformedDataURI = errors.New("malformed token data URI")
	ErrNotSubscribed    = errors.New("event subscription is not established")
)

// AppError represents a custom application error with context
type AppError struct {
	Type      ErrorType              `json:"type"`
	Message   string                 `json:"message"`
	Code      string                 `json:"code,omitempty"`
	HTTPCode  int                    `json:"-"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Cause     error                  `json:"-"`
	Component string                 `json:"component,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// NewAppError creates a new application error
func NewAppError(errorType ErrorType, message string, httpCode int) *AppError {
	return &AppError{
		Type:     errorType,
		Message:  message,
		HTTPCode: httpCode,
		Details:  make(map[string]interface{}),
	}
}

// WithCode adds an error code
func (e *AppError) WithCode(code string) *AppError {
	e.Code = code
	return e
}

// WithCause adds the underlying cause
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithComponent adds the component name
func (e *AppError) WithComponent(component string) *AppError {
	e.Component = component
	return e
}

// WithDetail adds a detail field
func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// Common error constructors

// NewConnectivityError creates a connectivity error
func NewConnectivityError(message string) *AppError {
	return NewAppError(ErrorTypeConnectivity, message, http.StatusInternalServerError)
}

// NewDecodeError creates a decode error for a malformed token URI
func NewDecodeError(message string) *AppError {
	return NewAppError(ErrorTypeDecode, message, http.StatusInternalServerError)
}

// NewUpstreamError creates an upstream error
func NewUpstreamError(message string) *AppError {
	return NewAppError(ErrorTypeUpstream, message, http.StatusInternalServerError)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrorTypeValidation, message, http.StatusBadRequest)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *AppError {
	return NewAppError(ErrorTypeInternal, message, http.StatusInternalServerError)
}

// Helper functions for common error scenarios

// WrapError wraps an error with context
func WrapError(err error, message string) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return NewInternalError(message).WithCause(err)
}

// IsConnectivity checks if an error is a connectivity error
func IsConnectivity(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeConnectivity
	}
	return errors.Is(err, ErrChainUnreachable) || errors.Is(err, ErrStoreUnreachable)
}

// IsDecode checks if an error is a decode error
func IsDecode(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeDecode
	}
	return errors.Is(err, ErrMalformedDataURI)
}

// IsUpstream checks if an error is an upstream error
func IsUpstream(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeUpstream
	}
	return false
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeNotFound
	}
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrTokenNotFound) || errors.Is(err, ErrCatTextNotFound)
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == ErrorTypeValidation
	}
	return false
}
