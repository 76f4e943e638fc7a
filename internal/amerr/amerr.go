// Package amerr defines the structured error classification every
// command handler in amergekv signals through.
package amerr

import "fmt"

// Code is a machine-readable error classification (spec §7).
type Code string

const (
	// WrongType means the key exists but is not a document.
	WrongType Code = "WRONG_TYPE"
	// NotFound means the key is missing for a command that requires it.
	NotFound Code = "NOT_FOUND"
	// BadPath means the path string failed to parse.
	BadPath Code = "BAD_PATH"
	// PathTypeMismatch means traversal went through an incompatible node.
	PathTypeMismatch Code = "PATH_TYPE_MISMATCH"
	// TypeMismatch means the slot exists with a different type than required.
	TypeMismatch Code = "TYPE_MISMATCH"
	// BadJSON means JSON parsing failed or the root was not an object.
	BadJSON Code = "BAD_JSON"
	// BadDiff means a unified diff could not be applied.
	BadDiff Code = "BAD_DIFF"
	// MissingDeps means apply received changes whose dependencies are absent.
	MissingDeps Code = "MISSING_DEPS"
	// BadArgs means the arity or format of arguments was invalid.
	BadArgs Code = "BAD_ARGS"
	// HostLogError means the host persistence layer refused the write.
	HostLogError Code = "HOST_LOG_ERROR"
	// Internal is an unexpected failure with no user-facing classification.
	Internal Code = "INTERNAL"
)

// Error is the structured error type every amergekv command returns.
type Error struct {
	code    Code
	message string
	details map[string]any
	wrapped error
}

// New creates an Error of the given code with a message.
func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

// Newf creates an Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an underlying cause.
func (e *Error) Wrap(err error) *Error {
	e.wrapped = err
	return e
}

// WithDetail records one piece of structured context.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Code returns the error classification.
func (e *Error) Code() Code {
	return e.code
}

// Details returns additional structured context, possibly nil.
func (e *Error) Details() map[string]any {
	return e.details
}

// Error implements the error interface. The message is prefixed with the
// code token so clients can pattern-match on the wire reply (spec §7).
func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s %s: %v", e.code, e.message, e.wrapped)
	}
	return fmt.Sprintf("%s %s", e.code, e.message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is reports whether err carries the given code, looking through wrapping.
func Is(err error, code Code) bool {
	var e *Error
	for err != nil {
		if ae, ok := err.(*Error); ok {
			e = ae
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return e != nil && e.code == code
}
