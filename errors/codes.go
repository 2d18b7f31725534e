package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Input errors
const (
	// ErrCodeNotFound indicates the requested input does not exist.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeUnreadableInput indicates the media could not be probed or decoded.
	ErrCodeUnreadableInput ErrorCode = "UNREADABLE_INPUT"
	// ErrCodeInvalidInput indicates a request or configuration value is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Processing errors
const (
	// ErrCodeProcessing indicates media preparation or stream handling failed.
	ErrCodeProcessing ErrorCode = "PROCESSING_ERROR"
	// ErrCodeTimeout indicates an operation ran past its deadline.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeOutput indicates an output sink failed.
	ErrCodeOutput ErrorCode = "OUTPUT_ERROR"
)

// Executor errors
const (
	// ErrCodeModelLoad indicates a model could not be loaded at executor startup.
	ErrCodeModelLoad ErrorCode = "MODEL_LOAD_FAILED"
	// ErrCodeModelInvocation indicates a model call failed for a single task.
	ErrCodeModelInvocation ErrorCode = "MODEL_INVOCATION_FAILED"
	// ErrCodeExecutorShutdown indicates the executor no longer accepts or runs tasks.
	ErrCodeExecutorShutdown ErrorCode = "EXECUTOR_SHUTDOWN"
)

// Internal errors
const (
	// ErrCodeStoreInvariant indicates an interval index invariant was broken.
	ErrCodeStoreInvariant ErrorCode = "STORE_INVARIANT_VIOLATION"
	// ErrCodeInternal indicates an unexpected internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeTimeout: true,
}

// IsRetryableCode reports whether a caller may reasonably retry after this code.
// Nothing in speakline retries on its own.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
