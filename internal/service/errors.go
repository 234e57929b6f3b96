package service

import "errors"

// ErrorCode identifies a request-rejection reason in machine-readable form.
// None of these are process-fatal and none are retried internally; the
// transport layer maps them to HTTP statuses.
type ErrorCode string

const (
	CodeMissingID     ErrorCode = "MISSING_ID"
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeUserMismatch  ErrorCode = "USER_MISMATCH"
	CodeForbidden     ErrorCode = "FORBIDDEN"
	CodeLockBusy      ErrorCode = "LOCK_BUSY"
)

// Error carries a machine-readable code alongside the human-readable message.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf extracts the ErrorCode from err, when err is a service error.
func CodeOf(err error) (ErrorCode, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Code, true
	}
	return "", false
}
