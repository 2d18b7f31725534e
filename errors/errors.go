package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried by the caller.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
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

// NotFound creates a new AppError for an input that does not exist.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		Details: details,
	}
}

// UnreadableInput creates a new AppError for media that cannot be probed or decoded.
func UnreadableInput(path string) *AppError {
	return &AppError{
		Code: ErrCodeUnreadableInput, Message: "The input could not be read as audio or video.",
		Details: map[string]any{"path": path},
	}
}

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// ProcessingError creates a new AppError for a failed processing step.
func ProcessingError(step string) *AppError {
	return &AppError{
		Code: ErrCodeProcessing, Message: fmt.Sprintf("Processing failed during %s.", step),
		Details: map[string]any{"step": step},
	}
}

// Timeout creates a new AppError for an operation that ran out of time.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: "The operation took too long.",
		Retryable: true, Details: map[string]any{"operation": operation},
	}
}

// Output creates a new AppError for a failing output sink.
func Output(sink string) *AppError {
	return &AppError{
		Code: ErrCodeOutput, Message: fmt.Sprintf("Writing to the %s output failed.", sink),
		Details: map[string]any{"sink": sink},
	}
}

// ModelLoad creates a new AppError for a model that failed to load.
func ModelLoad(model string) *AppError {
	return &AppError{
		Code: ErrCodeModelLoad, Message: fmt.Sprintf("The %s model could not be loaded.", model),
		Details: map[string]any{"model": model},
	}
}

// ModelInvocation creates a new AppError for a failed model call.
func ModelInvocation(model string) *AppError {
	return &AppError{
		Code: ErrCodeModelInvocation, Message: fmt.Sprintf("The %s model failed to process the input.", model),
		Details: map[string]any{"model": model},
	}
}

// ExecutorShutdown creates a new AppError for work refused by a stopped executor.
func ExecutorShutdown(executor string) *AppError {
	return &AppError{
		Code: ErrCodeExecutorShutdown, Message: fmt.Sprintf("The %s executor is shut down.", executor),
		Details: map[string]any{"executor": executor},
	}
}

// StoreInvariantViolation creates a new AppError for a broken interval index invariant.
func StoreInvariantViolation(reason string) *AppError {
	return &AppError{
		Code: ErrCodeStoreInvariant, Message: fmt.Sprintf("Interval store invariant violated: %s", reason),
	}
}

// Internal creates a new AppError for an unexpected internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "An unexpected error occurred.",
		Cause: cause,
	}
}

// --- Helpers ---

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsCode reports whether err carries an AppError with the given code.
func IsCode(err error, code ErrorCode) bool {
	appErr, ok := AsAppError(err)
	return ok && appErr.Code == code
}

// Wrap returns err as an AppError. AppErrors anywhere in the chain are returned
// as-is; anything else becomes an internal error.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}

// IsTemporary reports whether err, or an error it wraps, has a
// Temporary() bool method returning true.
func IsTemporary(err error) bool {
	var t interface{ Temporary() bool }
	return stderrors.As(err, &t) && t.Temporary()
}
