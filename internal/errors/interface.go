// Package errors gives every failure in the controller a stable code that
// log lines and tests can match on.
package errors

// ErrorCode is the stable, machine-readable part of an error.
type ErrorCode string

// Error is a coded error. Data carries structured detail such as the
// transport address or the failing lifecycle step.
type Error interface {
	error
	Code() ErrorCode
	WithMessage(msg string) Error
	WithData(data any) Error
	GetData() any
	Unwrap() error
}

type Factory interface {
	New(code ErrorCode) Error
	Wrap(code ErrorCode, err error) Error
	WithMessage(code ErrorCode, msg string) Error
	WithData(code ErrorCode, data any) Error
}
