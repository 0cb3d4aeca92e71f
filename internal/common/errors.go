package common

import (
	"errors"
	"fmt"
)

// Stable machine-readable error codes surfaced to API clients.
const (
	CodeValidation        = "VALIDATION"
	CodeNotFound          = "NOT_FOUND"
	CodeNotParticipant    = "NOT_PARTICIPANT"
	CodeInvalidTransition = "INVALID_TRANSITION"
	CodeConflict          = "CONFLICT"
	CodeTransportFailure  = "TRANSPORT_FAILURE"
	CodeTimeout           = "TIMEOUT"
	CodeUnauthorized      = "UNAUTHORIZED"
	CodeForbidden         = "FORBIDDEN"
	CodeInternal          = "INTERNAL"
)

// AppError pairs a stable code with a human message. Internal causes are
// wrapped for logging but never rendered to clients.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is matches AppErrors by code so sentinel comparisons work through wrapping
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

func newAppError(code, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Sentinel errors for the core taxonomy. Compare with errors.Is.
var (
	ErrValidation        = newAppError(CodeValidation, "invalid input")
	ErrNotFound          = newAppError(CodeNotFound, "resource not found")
	ErrNotParticipant    = newAppError(CodeNotParticipant, "not an active participant")
	ErrInvalidTransition = newAppError(CodeInvalidTransition, "invalid state transition")
	ErrConflict          = newAppError(CodeConflict, "concurrent update conflict")
	ErrTransportFailure  = newAppError(CodeTransportFailure, "notification transport failed")
	ErrTimeout           = newAppError(CodeTimeout, "external call timed out")
	ErrUnauthorized      = newAppError(CodeUnauthorized, "unauthorized")
	ErrForbidden         = newAppError(CodeForbidden, "forbidden")
)

// ValidationError builds a VALIDATION error with a specific message
func ValidationError(format string, args ...interface{}) *AppError {
	return &AppError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError builds a NOT_FOUND error naming the entity
func NotFoundError(entity string) *AppError {
	return &AppError{Code: CodeNotFound, Message: entity + " not found"}
}

// TransitionError builds an INVALID_TRANSITION error describing the attempt
func TransitionError(from, to string) *AppError {
	return &AppError{
		Code:    CodeInvalidTransition,
		Message: fmt.Sprintf("cannot transition from %s to %s", from, to),
	}
}

// TimeoutError wraps a context deadline failure from an external call
func TimeoutError(op string, err error) *AppError {
	return &AppError{Code: CodeTimeout, Message: op + " timed out", Err: err}
}

// InternalError wraps an unexpected failure; the cause is logged, not shown
func InternalError(err error) *AppError {
	return &AppError{Code: CodeInternal, Message: "internal error", Err: err}
}
