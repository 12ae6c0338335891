package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
)

// AppError is the unified pipeline error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains the offending path, parameter or value.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error renders "CODE: message", followed by the cause when there is one.
func (e *AppError) Error() string {
	msg := string(e.Code) + ": " + e.Message
	if e.Cause != nil {
		msg += " (cause: " + e.Cause.Error() + ")"
	}
	return msg
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an *AppError with the same code.
// This lets callers match on sentinel-like values: errors.Is(err, &AppError{Code: ErrCodeDecode}).
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause attaches the underlying error.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges details into the error.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any, len(details))
	}
	maps.Copy(e.Details, details)
	return e
}

// WithDetail records one detail.
func (e *AppError) WithDetail(key string, value any) *AppError {
	return e.WithDetails(map[string]any{key: value})
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Constructors ---

// Configuration creates an AppError for an invalid pipeline parameter.
func Configuration(param, reason string) *AppError {
	details := make(map[string]any)
	if param != "" {
		details["param"] = param
	}
	return &AppError{
		Code: ErrCodeConfiguration, Message: fmt.Sprintf("invalid configuration: %s", reason),
		Details: details,
	}
}

// NotFound creates an AppError for a missing or empty data root.
func NotFound(path, reason string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s: %s", path, reason),
		Details: map[string]any{"path": path},
	}
}

// Decode creates an AppError for a sample payload that could not be decoded.
func Decode(key string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDecode, Message: fmt.Sprintf("cannot decode sample %q", key),
		Details: map[string]any{"sample": key}, Cause: cause,
	}
}

// GraphCycle creates an AppError for a cyclic augmentation graph.
func GraphCycle(nodes []string) *AppError {
	return &AppError{
		Code: ErrCodeGraphCycle, Message: fmt.Sprintf("augmentation graph contains a cycle through %v", nodes),
		Details: map[string]any{"nodes": nodes},
	}
}

// GraphValidation creates an AppError for a malformed graph node.
func GraphValidation(node, reason string) *AppError {
	details := make(map[string]any)
	if node != "" {
		details["node"] = node
	}
	return &AppError{
		Code: ErrCodeGraphValidation, Message: reason,
		Details: details,
	}
}

// InvalidLabel creates an AppError for a label outside [0, numClasses).
func InvalidLabel(label, numClasses int) *AppError {
	return &AppError{
		Code: ErrCodeInvalidLabel, Message: fmt.Sprintf("label %d outside [0, %d)", label, numClasses),
		Details: map[string]any{"label": label, "num_classes": numClasses},
	}
}

// AlreadyReleased creates an AppError for an operation after teardown.
func AlreadyReleased(operation string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyReleased, Message: fmt.Sprintf("%s called on a released pipeline", operation),
		Details: map[string]any{"operation": operation},
	}
}

// Storage creates a retryable AppError for a failed backend read.
func Storage(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeStorage, Message: fmt.Sprintf("storage read failed for %s", path),
		Retryable: true, Details: map[string]any{"path": path}, Cause: cause,
	}
}

// Internal creates an AppError for a worker crash or unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected pipeline failure occurred",
		Cause: cause,
	}
}

// --- Inspection ---

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether err is (or wraps) an AppError with the given code.
func HasCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

func IsConfiguration(err error) bool   { return HasCode(err, ErrCodeConfiguration) }
func IsNotFound(err error) bool        { return HasCode(err, ErrCodeNotFound) }
func IsDecode(err error) bool          { return HasCode(err, ErrCodeDecode) }
func IsGraphCycle(err error) bool      { return HasCode(err, ErrCodeGraphCycle) }
func IsGraphValidation(err error) bool { return HasCode(err, ErrCodeGraphValidation) }
func IsInvalidLabel(err error) bool    { return HasCode(err, ErrCodeInvalidLabel) }
func IsAlreadyReleased(err error) bool { return HasCode(err, ErrCodeAlreadyReleased) }

// IsRetryable reports whether err carries a retryable AppError.
func IsRetryable(err error) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Retryable
}
