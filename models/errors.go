package models

import "fmt"

// Error codes used in API responses and internal error handling.
//
// The first four are per-URL failure kinds: they are captured into the run's
// error log and never abort the run. CONFIG_INVALID is the only run-level
// kind; it aborts before any fetch.
const (
	ErrCodeFetchFailed     = "FETCH_FAILED"
	ErrCodeSchemaViolation = "SCHEMA_VIOLATION"
	ErrCodeHandlerFailed   = "HANDLER_FAILED"
	ErrCodeDiscoveryFailed = "DISCOVERY_FAILED"

	ErrCodeConfigInvalid = "CONFIG_INVALID"
	ErrCodeEmptyResults  = "EMPTY_RESULTS"
	ErrCodeRateLimited   = "RATE_LIMITED"
	ErrCodeUnauthorized  = "UNAUTHORIZED"
	ErrCodeInternal      = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RunError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type RunError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// NewRunError creates a new RunError.
func NewRunError(code, message string, err error) *RunError {
	return &RunError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *RunError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
