package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeValidation    ErrorType = "validation"
	ErrorTypeConfig        ErrorType = "config"
	ErrorTypeUpstream      ErrorType = "upstream"
	ErrorTypeTimeout       ErrorType = "timeout"
	ErrorTypeInvalidOutput ErrorType = "invalid_output"
	ErrorTypeNotFound      ErrorType = "not_found"
	ErrorTypeUnauthorized  ErrorType = "unauthorized"
	ErrorTypeInternal      ErrorType = "internal"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// TypedError is implemented by errors that carry an ErrorType
type TypedError interface {
	error
	ErrorType() ErrorType
}

// ErrorType returns the error category
func (e *DomainError) ErrorType() ErrorType {
	return e.Type
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Sentinels for errors.Is comparisons. Matching is by type only.
var (
	ErrInvalidInput        = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrMisconfigured       = NewDomainError(ErrorTypeConfig, "server misconfiguration", nil)
	ErrProviderFailed      = NewDomainError(ErrorTypeUpstream, "provider request failed", nil)
	ErrProviderTimeout     = NewDomainError(ErrorTypeTimeout, "provider timeout", nil)
	ErrInvalidOutput       = NewDomainError(ErrorTypeInvalidOutput, "model output failed validation", nil)
	ErrAuditRecordNotFound = NewDomainError(ErrorTypeNotFound, "audit record not found", nil)
	ErrUnauthorized        = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInternal            = NewDomainError(ErrorTypeInternal, "internal server error", nil)
)

func isType(err error, errType ErrorType) bool {
	return err != nil && GetErrorType(err) == errType
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool { return isType(err, ErrorTypeValidation) }

// IsConfigError checks if an error is a configuration error
func IsConfigError(err error) bool { return isType(err, ErrorTypeConfig) }

// IsUpstreamError checks if an error is an upstream provider error
func IsUpstreamError(err error) bool { return isType(err, ErrorTypeUpstream) }

// IsTimeoutError checks if an error is a provider timeout
func IsTimeoutError(err error) bool { return isType(err, ErrorTypeTimeout) }

// IsInvalidOutputError checks if an error is a model output contract violation
func IsInvalidOutputError(err error) bool { return isType(err, ErrorTypeInvalidOutput) }

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool { return isType(err, ErrorTypeUnauthorized) }

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool { return isType(err, ErrorTypeInternal) }

// GetErrorType returns the ErrorType of the first typed error in the chain,
// or empty string if there is none
func GetErrorType(err error) ErrorType {
	var typed TypedError
	if errors.As(err, &typed) {
		return typed.ErrorType()
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}
