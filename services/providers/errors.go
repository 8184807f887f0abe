package providers

import (
	"errors"
	"fmt"
	"time"

	"github.com/upb/media-gateway/services"
	"github.com/upb/media-gateway/services/redact"
)

// maxBodySnippet bounds upstream bodies carried in errors
const maxBodySnippet = 512

// ProviderError represents a failed adapter call
type ProviderError struct {
	// Provider that generated the error
	Provider string

	// Kind is one of services.ErrorTypeConfig, ErrorTypeUpstream, ErrorTypeTimeout
	Kind services.ErrorType

	// Message is the error message
	Message string

	// StatusCode is the upstream HTTP status code (if any)
	StatusCode int

	// Body is a truncated snippet of the upstream body (if any)
	Body string

	// Cause is the underlying error
	Cause error
}

// Error implements the error interface
func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}

// ErrorType reports the kind so services.GetErrorType can classify it
func (e *ProviderError) ErrorType() services.ErrorType {
	return e.Kind
}

// Unwrap implements error unwrapping
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is lets errors.Is match the services sentinels by kind
func (e *ProviderError) Is(target error) bool {
	var domainErr *services.DomainError
	if errors.As(target, &domainErr) {
		return domainErr.Type == e.Kind
	}
	return false
}

// NewConfigError reports missing credentials or endpoint
func NewConfigError(provider, message string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     services.ErrorTypeConfig,
		Message:  message,
	}
}

// NewUpstreamError reports a non-2xx response or an unusable 2xx body
func NewUpstreamError(provider, message string, statusCode int, body []byte, cause error) *ProviderError {
	return &ProviderError{
		Provider:   provider,
		Kind:       services.ErrorTypeUpstream,
		Message:    message,
		StatusCode: statusCode,
		Body:       snippet(body),
		Cause:      cause,
	}
}

// NewTimeoutError reports an attempt that exceeded its deadline
func NewTimeoutError(provider string, timeout time.Duration, cause error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Kind:     services.ErrorTypeTimeout,
		Message:  fmt.Sprintf("timed out after %s", timeout),
		Cause:    cause,
	}
}

// KindOf classifies any error returned by a provider.
// Errors that are not *ProviderError are treated as upstream failures.
func KindOf(err error) services.ErrorType {
	if t := services.GetErrorType(err); t != "" {
		return t
	}
	return services.ErrorTypeUpstream
}

// snippet redacts credentials, then truncates
func snippet(body []byte) string {
	text := redact.String(string(body))
	if len(text) <= maxBodySnippet {
		return text
	}
	return text[:maxBodySnippet] + "..."
}
