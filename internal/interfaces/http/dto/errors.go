package dto

import "net/http"

// Error code constants
// Format: ERR_<CATEGORY>_<DESCRIPTION>

const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeQueueFull is used when the sync queue cannot take more jobs
	ErrCodeQueueFull = "ERR_QUEUE_FULL"
	// ErrCodeUnavailable is used when a background component is not running
	ErrCodeUnavailable = "ERR_UNAVAILABLE"
)

// Media validation codes mirror the storefront mutation's error codes.
const (
	ErrCodeRequired            = "REQUIRED"
	ErrCodeDuplicatedInputItem = "DUPLICATED_INPUT_ITEM"
	ErrCodeInvalid             = "INVALID"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:    http.StatusInternalServerError,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeQueueFull:   http.StatusTooManyRequests,
	ErrCodeUnavailable: http.StatusServiceUnavailable,

	ErrCodeRequired:            http.StatusBadRequest,
	ErrCodeDuplicatedInputItem: http.StatusBadRequest,
	ErrCodeInvalid:             http.StatusBadRequest,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
