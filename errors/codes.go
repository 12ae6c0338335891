package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Build-time errors. These are fatal and surface from Build.
const (
	// ErrCodeConfiguration indicates invalid pipeline parameters.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeGraphCycle indicates the augmentation graph contains a cycle.
	ErrCodeGraphCycle ErrorCode = "GRAPH_CYCLE"
	// ErrCodeGraphValidation indicates a malformed augmentation graph.
	ErrCodeGraphValidation ErrorCode = "GRAPH_VALIDATION"
)

// Data errors
const (
	// ErrCodeNotFound indicates a missing or empty data root.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeDecode indicates a malformed sample payload.
	ErrCodeDecode ErrorCode = "DECODE_ERROR"
	// ErrCodeInvalidLabel indicates a label outside the one-hot class range.
	ErrCodeInvalidLabel ErrorCode = "INVALID_LABEL"
	// ErrCodeStorage indicates a failed read from a storage backend.
	ErrCodeStorage ErrorCode = "STORAGE_ERROR"
)

// Lifecycle errors
const (
	// ErrCodeAlreadyReleased indicates an operation on a released pipeline.
	ErrCodeAlreadyReleased ErrorCode = "ALREADY_RELEASED"
	// ErrCodeInternal indicates a worker crash or other internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeStorage:  true,
	ErrCodeInternal: false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
