package apperrors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Application exit codes define the standard exit statuses for the application.
// These codes are used to signal the outcome of the program execution to the OS.
const (
	ExitSuccess       = 0   // The datasets are equivalent.
	ExitFailure       = 1   // The verdict failed, or a fatal input/structural error occurred.
	ExitErrorConfig   = 2   // Indicates a configuration or usage error.
	ExitErrorCanceled = 130 // Indicates the operation was canceled (e.g., SIGINT).
)

// ConfigError represents a user configuration error, such as invalid flags or
// values. It indicates that the application cannot proceed due to incorrect user input.
type ConfigError struct {
	// Message explains the specific configuration error.
	Message string
}

// Error returns the error message for a ConfigError.
func (e ConfigError) Error() string { return e.Message }

// NewConfigError creates a new ConfigError with a formatted message.
//
// Parameters:
//   - format: A format string (see fmt.Sprintf).
//   - a: Arguments to be formatted into the string.
//
// Returns:
//   - error: A new ConfigError instance containing the formatted message.
func NewConfigError(format string, a ...any) error {
	return ConfigError{Message: fmt.Sprintf(format, a...)}
}

// InputError reports that an input path does not resolve to a readable
// dataset. It is fatal in every mode.
type InputError struct {
	// Path is the offending input path.
	Path string
	// Cause is the underlying open or stat failure.
	Cause error
}

// Error returns a formatted message naming the path and the cause.
func (e InputError) Error() string {
	return fmt.Sprintf("cannot read dataset %q: %v", e.Path, e.Cause)
}

// Unwrap returns the underlying cause.
func (e InputError) Unwrap() error { return e.Cause }

// Structural mismatch kinds.
const (
	KindDimensionCount  = "dimension-count"
	KindDimensionNames  = "dimension-names"
	KindDimensionLength = "dimension-length"
	KindAttributeCount  = "attribute-count"
	KindAttributeNames  = "attribute-names"
	KindAttributeValue  = "attribute-value"
	KindVariableCount   = "variable-count"
	KindVariableNames   = "variable-names"
	KindVariableGrowth  = "variable-growth-axis"
	KindGrowthDimension = "growth-dimension"
)

// StructuralMismatch describes one disagreement between the two datasets'
// dimensions, global attributes or variable sets.
type StructuralMismatch struct {
	// Kind is one of the Kind* constants.
	Kind string
	// Name is the dimension, attribute or variable involved, if any.
	Name string
	// Message is the human-readable description.
	Message string
}

// Error returns the mismatch message.
func (m StructuralMismatch) Error() string { return m.Message }

// StructuralError aggregates the structural mismatches that aborted a strict
// comparison.
type StructuralError struct {
	Mismatches []StructuralMismatch
}

// Error joins the mismatch messages.
func (e StructuralError) Error() string {
	switch len(e.Mismatches) {
	case 0:
		return "structural mismatch"
	case 1:
		return e.Mismatches[0].Message
	}
	msgs := make([]string, len(e.Mismatches))
	for i, m := range e.Mismatches {
		msgs[i] = m.Message
	}
	return strings.Join(msgs, "; ")
}

// Unwrap exposes the individual mismatches to errors.Is and errors.As.
func (e StructuralError) Unwrap() []error {
	errs := make([]error, len(e.Mismatches))
	for i, m := range e.Mismatches {
		errs[i] = m
	}
	return errs
}

// TimeoutError represents a work unit that exceeded the configured worker
// timeout.
type TimeoutError struct {
	// Operation is the name of the operation that timed out.
	Operation string
	// Limit is the duration after which the operation was considered timed out.
	Limit time.Duration
}

// Error returns a formatted message describing the timeout.
func (e TimeoutError) Error() string {
	return fmt.Sprintf("operation %q timed out after %s", e.Operation, e.Limit)
}

// WrapError wraps an error with additional context using fmt.Errorf and %w.
// This allows the wrapped error to be unwrapped with errors.Unwrap() and
// checked with errors.Is() and errors.As().
//
// Parameters:
//   - err: The error to wrap.
//   - format: A format string for the context message.
//   - args: Arguments for the format string.
//
// Returns:
//   - error: The wrapped error, or nil if err is nil.
func WrapError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	message := fmt.Sprintf(format, args...)
	return fmt.Errorf("%s: %w", message, err)
}

// IsContextError checks if the error is a context cancellation or deadline exceeded error.
func IsContextError(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// ExitCode maps an error returned by the comparison pipeline to a process
// exit code. A nil error maps to ExitSuccess.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cfgErr ConfigError
	if errors.As(err, &cfgErr) {
		return ExitErrorConfig
	}
	if errors.Is(err, context.Canceled) {
		return ExitErrorCanceled
	}
	return ExitFailure
}
