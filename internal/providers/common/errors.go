package common

import (
	"context"
	"errors"
	"fmt"
)

// Error codes shared by adapters, the orchestrator and the response processor
const (
	CodeConfigError     = "CONFIG_ERROR"
	CodeNotConfigured   = "NOT_CONFIGURED"
	CodeRateLimit       = "RATE_LIMIT"
	CodeAPIError        = "API_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeStorageError    = "STORAGE_ERROR"
	CodeTimeout         = "TIMEOUT"
)

// PlatformError is the typed failure of a dispatch step
type PlatformError struct {
	Platform string
	Code     string
	Detail   string
	Err      error
}

func (e *PlatformError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// Retryable reports whether the same request may succeed later without operator action.
func (e *PlatformError) Retryable() bool {
	switch e.Code {
	case CodeRateLimit, CodeAPIError, CodeTimeout:
		return true
	}
	return false
}

func NewPlatformError(platform, code, detail string, cause error) *PlatformError {
	return &PlatformError{Platform: platform, Code: code, Detail: detail, Err: cause}
}

// NotConfigured is returned when the backend credential is absent.
func NotConfigured(platform, label string) *PlatformError {
	return NewPlatformError(platform, CodeNotConfigured, fmt.Sprintf("%s API key not configured", label), nil)
}

func RateLimited(platform string) *PlatformError {
	return NewPlatformError(platform, CodeRateLimit, "Rate limit exceeded", nil)
}

// APIError wraps a remote failure; context deadlines become TIMEOUT.
func APIError(platform, label string, cause error) *PlatformError {
	if errors.Is(cause, context.DeadlineExceeded) {
		return NewPlatformError(platform, CodeTimeout, fmt.Sprintf("%s API timed out", label), cause)
	}
	return NewPlatformError(platform, CodeAPIError, fmt.Sprintf("%s API error", label), cause)
}

// CodeOf extracts the error code, defaulting to API_ERROR for untyped failures.
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var pe *PlatformError
	if errors.As(err, &pe) {
		return pe.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CodeTimeout
	}
	return CodeAPIError
}
