package bridge

import "fmt"

// Error codes surfaced to the application layer. Each bridge operation fails
// with exactly one of these plus a human-readable message.
const (
	CodeUnavailable   = "UNAVAILABLE"
	CodeNoActivity    = "NO_ACTIVITY"
	CodePermission    = "PERMISSION_ERROR"
	CodeStepsRead     = "STEPS_READ_ERROR"
	CodeHeartRateRead = "HEART_RATE_READ_ERROR"
	CodeSleepRead     = "SLEEP_READ_ERROR"
)

// Error is a coded bridge failure.
type Error struct {
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying store or launcher failure.
func (e *Error) Unwrap() error { return e.Err }

func errUnavailable() *Error {
	return &Error{Code: CodeUnavailable, Message: "device health store is not available"}
}

func errNoActivity() *Error {
	return &Error{Code: CodeNoActivity, Message: "no foreground UI context to host the permission prompt"}
}

func errRead(code string, err error) *Error {
	return &Error{Code: code, Message: "device health store read failed", Err: err}
}

func errReadUnavailable(code string) *Error {
	return &Error{Code: code, Message: "device health store is not available"}
}
