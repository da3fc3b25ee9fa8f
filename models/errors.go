package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeBrowserLaunch    = "BROWSER_LAUNCH_FAILED"
	ErrCodeNavigation       = "NAVIGATION_FAILED"
	ErrCodeTimeout          = "SNAPSHOT_TIMEOUT"
	ErrCodeTickerNotFound   = "TICKER_NOT_FOUND"
	ErrCodeSelectorNotFound = "SELECTOR_NOT_FOUND"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternal         = "INTERNAL_ERROR"

	// Provider error codes for the market-data client. A provider failure is
	// distinct from a transport failure: the HTTP call succeeded but the JSON
	// body carried an explicit error or rate-limit notice.
	ErrCodeProvider            = "PROVIDER_ERROR"
	ErrCodeProviderRateLimited = "PROVIDER_RATE_LIMITED"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SnapshotError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type SnapshotError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *SnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *SnapshotError) Unwrap() error {
	return e.Err
}

// NewSnapshotError creates a new SnapshotError.
func NewSnapshotError(code, message string, err error) *SnapshotError {
	return &SnapshotError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *SnapshotError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
