package litetable

import (
	"context"
	"errors"
	"fmt"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrTransport is a failure reported by the RPC layer. The originating status is kept as
	// the cause so its code can be recovered with status.Code.
	ErrTransport = errors.New("transport failure")
	// ErrInterrupted means a blocking wait was abandoned because its context ended.
	ErrInterrupted = errors.New("interrupted")
	// ErrInvariant is an upstream contract break: unknown boundary kinds, inverted ranges,
	// malformed event order. It is never recoverable.
	ErrInvariant = errors.New("protocol invariant violation")
	// ErrNoCurrentRow is returned when a row is requested before one was established.
	ErrNoCurrentRow = errors.New("no current row")
	// ErrClosed is returned by a reader or writer that has already been closed.
	ErrClosed = errors.New("closed")
)

// Error wraps a sentinel error with the underlying cause and additional context
type Error struct {
	err     error  // The sentinel error
	cause   error  // What actually went wrong, may be nil
	context string // Additional error context
}

// Error satisfies the error interface
func (e *Error) Error() string {
	msg := e.err.Error()
	if e.context != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.context)
	}
	if e.cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.cause)
	}
	return msg
}

// Unwrap exposes both the sentinel and the cause to errors.Is/As
func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.err}
	}
	return []error{e.err, e.cause}
}

// NewError creates an error of kind err with context
func NewError(err error, format string, args ...interface{}) *Error {
	return &Error{
		err:     err,
		context: fmt.Sprintf(format, args...),
	}
}

// WrapError creates an error of kind err caused by cause
func WrapError(err, cause error, format string, args ...interface{}) *Error {
	return &Error{
		err:     err,
		cause:   cause,
		context: fmt.Sprintf(format, args...),
	}
}

// StatusCode extracts the status code that should be attributed to err. Errors that carry no
// gRPC status report codes.Unknown.
func StatusCode(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	if s, ok := status.FromError(err); ok {
		return s.Code()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Code()
	}
	return codes.Unknown
}
