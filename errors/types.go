package errors

import (
	"encoding/json"
	"fmt"
)

// ErrorCode represents a specific error condition
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigNotFound ErrorCode = "CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  ErrorCode = "CONFIG_INVALID"

	// Session file errors
	ErrCodeSessionUnreadable ErrorCode = "SESSION_UNREADABLE"
	ErrCodeSessionInvalid    ErrorCode = "SESSION_INVALID"
	ErrCodeSessionIDMismatch ErrorCode = "SESSION_ID_MISMATCH"
	ErrCodeSessionNotFound   ErrorCode = "SESSION_NOT_FOUND"

	// Daemon errors
	ErrCodeDaemonNotRunning ErrorCode = "DAEMON_NOT_RUNNING"
	ErrCodeFocusUnsupported ErrorCode = "FOCUS_UNSUPPORTED"

	// General errors
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
	ErrCodeInvalidInput     ErrorCode = "INVALID_INPUT"
	ErrCodePermissionDenied ErrorCode = "PERMISSION_DENIED"
)

// RunnerError represents a structured error with context
type RunnerError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *RunnerError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *RunnerError) Unwrap() error {
	return e.Cause
}

// WithDetail adds a detail to the error
func (e *RunnerError) WithDetail(key string, value interface{}) *RunnerError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ToJSON converts the error to JSON
func (e *RunnerError) ToJSON() string {
	data, _ := json.MarshalIndent(e, "", "  ")
	return string(data)
}

// New creates a new RunnerError
func New(code ErrorCode, message string) *RunnerError {
	return &RunnerError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with a RunnerError
func Wrap(err error, code ErrorCode, message string) *RunnerError {
	return &RunnerError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// Is checks if an error carries a specific RunnerError code
func Is(err error, code ErrorCode) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, walking the unwrap chain
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	runnerErr, ok := err.(*RunnerError)
	if !ok {
		if unwrapper, ok := err.(interface{ Unwrap() error }); ok {
			return GetCode(unwrapper.Unwrap())
		}
		return ""
	}

	return runnerErr.Code
}
