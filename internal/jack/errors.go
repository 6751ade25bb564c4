package jack

import (
	"errors"
	"fmt"
)

// Error represents a failure talking to the JACK tools.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Error codes
const (
	ErrCodeLaunchFailed        = "LAUNCH_FAILED"
	ErrCodeTeardownFailed      = "TEARDOWN_FAILED"
	ErrCodeGraphQueryFailed    = "GRAPH_QUERY_FAILED"
	ErrCodeNoCapability        = "NO_CAPABILITY"
	ErrCodeInvalidName         = "INVALID_NAME"
	ErrCodeServerControlFailed = "SERVER_CONTROL_FAILED"
	ErrCodePatchFailed         = "PATCH_FAILED"
)

// NewError creates a new JACK error.
func NewError(code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// HasCode reports whether err is a JACK error with the given code.
func HasCode(err error, code string) bool {
	var jackErr *Error
	return errors.As(err, &jackErr) && jackErr.Code == code
}
