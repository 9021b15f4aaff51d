package dataset

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a query execution failure so the correction
// prompt can tell the model what went wrong.
type ErrorKind string

const (
	KindSyntax     ErrorKind = "syntax"
	KindTimeout    ErrorKind = "timeout"
	KindPermission ErrorKind = "permission"
	KindUnknown    ErrorKind = "unknown"
)

// ExecutionError is a classified failure from the execution gateway.
type ExecutionError struct {
	Kind    ErrorKind
	Message string
	Cause   error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed (%s): %s", e.Kind, e.Message)
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// IsRetryable reports whether re-running the same query might succeed.
// Only timeouts qualify; syntax and permission failures need a
// corrected query, not a retry.
func (e *ExecutionError) IsRetryable() bool {
	return e.Kind == KindTimeout
}

// ClassifyExecutionError wraps a database error with a kind inferred
// from its text. Returns nil for nil input.
func ClassifyExecutionError(err error) *ExecutionError {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &ExecutionError{
			Kind:    KindTimeout,
			Message: "query exceeded the execution timeout",
			Cause:   err,
		}
	}

	msg := err.Error()
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(lower, "syntax error"),
		strings.Contains(lower, "parser error"),
		strings.Contains(lower, "parse error"):
		return &ExecutionError{Kind: KindSyntax, Message: msg, Cause: err}

	case strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "catalog error"),
		strings.Contains(lower, "binder error"),
		strings.Contains(lower, "not found in from clause"),
		strings.Contains(lower, "undefined column"),
		strings.Contains(lower, "undefined table"):
		return &ExecutionError{Kind: KindSyntax, Message: msg, Cause: err}

	case strings.Contains(lower, "permission denied"),
		strings.Contains(lower, "read-only"),
		strings.Contains(lower, "readonly"),
		strings.Contains(lower, "not allowed"):
		return &ExecutionError{Kind: KindPermission, Message: msg, Cause: err}

	case strings.Contains(lower, "timeout"),
		strings.Contains(lower, "canceling statement"):
		return &ExecutionError{Kind: KindTimeout, Message: msg, Cause: err}

	default:
		return &ExecutionError{Kind: KindUnknown, Message: msg, Cause: err}
	}
}
