// Package apperr defines the error kinds that cross the Command Interface
// boundary: validation, not-found, conflict, and platform failures. Each is
// a distinct type so callers that stay in Go can branch with errors.As;
// command.Dispatcher flattens all of them to a single-line string for the
// front end.
package apperr

import "fmt"

// ValidationError reports an out-of-range or malformed parameter. Such
// values are rejected with this error rather than silently clamped.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validation builds a ValidationError naming the offending field.
func Validation(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a session id (or other resource) absent from its
// owning registry.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string {
	return e.Resource + " not found"
}

// NotFound builds a NotFoundError for resource.
func NotFound(format string, args ...any) error {
	return &NotFoundError{Resource: fmt.Sprintf(format, args...)}
}

// ConflictError reports a request that cannot proceed given current state,
// e.g. starting a stream while one is already active.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Conflict builds a ConflictError.
func Conflict(format string, args ...any) error {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// PlatformError reports a failure in an OS-level capability: PTY allocation,
// screen-capture support, or permission. Relaunch is set when the caller
// must restart the application after correcting the underlying condition
// (e.g. granting screen-recording permission).
type PlatformError struct {
	Message  string
	Relaunch bool
	Err      error
}

func (e *PlatformError) Error() string {
	if e.Relaunch {
		return e.Message + " (re-launch the application after resolving this)"
	}
	return e.Message
}

func (e *PlatformError) Unwrap() error { return e.Err }

// Platform builds a PlatformError wrapping err.
func Platform(message string, relaunch bool, err error) error {
	return &PlatformError{Message: message, Relaunch: relaunch, Err: err}
}
