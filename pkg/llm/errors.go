package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies a provider failure.
type ErrorType string

const (
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeUnavailable ErrorType = "unavailable"
	ErrorTypeModel       ErrorType = "model"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a structured provider error with classification. It carries
// enough context for the fallback chain to decide whether to retry the
// same provider or move on to the next one.
type Error struct {
	Type      ErrorType
	Provider  string
	Message   string
	Retryable bool
	Cause     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))
	if e.Provider != "" {
		parts = append(parts, fmt.Sprintf("provider=%s", e.Provider))
	}
	parts = append(parts, e.Message)
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable implements the retry.RetryableError interface, so the
// retry package can check retryability without importing llm.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// ClassifyError categorizes a provider error into a structured Error.
// Already-classified errors pass through unchanged.
func ClassifyError(provider string, err error) *Error {
	if err == nil {
		return nil
	}

	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr
	}

	newErr := func(t ErrorType, msg string, retryable bool) *Error {
		return &Error{Type: t, Provider: provider, Message: msg, Retryable: retryable, Cause: err}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return newErr(ErrorTypeTimeout, "request timeout", true)
	}
	if errors.Is(err, context.Canceled) {
		return newErr(ErrorTypeTimeout, "request canceled", false)
	}

	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") ||
		strings.Contains(lower, "invalid api key") || strings.Contains(lower, "authentication"):
		return newErr(ErrorTypeAuth, "authentication failed", false)

	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "too many requests"):
		return newErr(ErrorTypeRateLimit, "rate limited", true)

	case strings.Contains(lower, "model") &&
		(strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist")):
		return newErr(ErrorTypeModel, "model not found", false)

	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded"):
		return newErr(ErrorTypeTimeout, "request timeout", true)

	case strings.Contains(lower, "connection refused") || strings.Contains(lower, "no such host") ||
		strings.Contains(lower, "500") || strings.Contains(lower, "502") ||
		strings.Contains(lower, "503") || strings.Contains(lower, "504") ||
		strings.Contains(lower, "overloaded"):
		return newErr(ErrorTypeUnavailable, "provider unavailable", true)
	}

	return newErr(ErrorTypeUnknown, "provider error", false)
}

// GetErrorType extracts the ErrorType from an error.
func GetErrorType(err error) ErrorType {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type
	}
	return ErrorTypeUnknown
}
