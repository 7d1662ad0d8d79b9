package errors

import (
	"fmt"
)

// ConfigNotFound creates a configuration not found error
func ConfigNotFound(path string) *RunnerError {
	return New(ErrCodeConfigNotFound, fmt.Sprintf("configuration file not found: %s", path)).
		WithDetail("path", path)
}

// ConfigInvalid creates an invalid configuration error
func ConfigInvalid(reason string) *RunnerError {
	return New(ErrCodeConfigInvalid, fmt.Sprintf("invalid configuration: %s", reason))
}

// SessionUnreadable wraps an I/O failure on a session file
func SessionUnreadable(path string, err error) *RunnerError {
	return Wrap(err, ErrCodeSessionUnreadable, fmt.Sprintf("cannot read session file: %s", path)).
		WithDetail("path", path)
}

// SessionInvalid reports a session file whose contents are not a valid session
func SessionInvalid(path string, reason string) *RunnerError {
	return New(ErrCodeSessionInvalid, fmt.Sprintf("invalid session file %s: %s", path, reason)).
		WithDetail("path", path)
}

// SessionIDMismatch reports a session file whose name disagrees with its session_id
func SessionIDMismatch(path, fileID, sessionID string) *RunnerError {
	return New(ErrCodeSessionIDMismatch,
		fmt.Sprintf("session file %s declares session_id '%s'", path, sessionID)).
		WithDetail("path", path).
		WithDetail("fileId", fileID).
		WithDetail("sessionId", sessionID)
}

// SessionNotFound creates a session not found error
func SessionNotFound(id string) *RunnerError {
	return New(ErrCodeSessionNotFound, fmt.Sprintf("session '%s' not found", id)).
		WithDetail("sessionId", id)
}

// DaemonNotRunning creates a daemon not running error
func DaemonNotRunning(socket string) *RunnerError {
	return New(ErrCodeDaemonNotRunning, "runner daemon is not running").
		WithDetail("socket", socket)
}

// FocusUnsupported reports a session whose terminal cannot be focused
func FocusUnsupported(id, bundleID string) *RunnerError {
	return New(ErrCodeFocusUnsupported,
		fmt.Sprintf("no focus strategy for session '%s'", id)).
		WithDetail("sessionId", id).
		WithDetail("terminalBundleId", bundleID)
}
