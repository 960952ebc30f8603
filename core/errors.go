package core

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies failures of pipeline operations.
type Kind string

const (
	// KindTimeout indicates an operation exceeded its allotted time.
	KindTimeout Kind = "timeout"
	// KindUpstream indicates a collaborator failed or returned invalid data.
	KindUpstream Kind = "upstream"
	// KindValidation indicates malformed caller input.
	KindValidation Kind = "validation"
	// KindRateLimit indicates a collaborator signaled throttling.
	KindRateLimit Kind = "rate_limit"
	// KindCanceled indicates the caller went away.
	KindCanceled Kind = "canceled"
	// KindInternal indicates a bug or unexpected state.
	KindInternal Kind = "internal"
)

// Sentinel errors for matching with errors.Is.
var (
	// ErrTimeout matches any error of KindTimeout.
	ErrTimeout = errors.New("operation timed out")

	// ErrUpstream matches any error of KindUpstream.
	ErrUpstream = errors.New("upstream failure")

	// ErrValidation matches any error of KindValidation.
	ErrValidation = errors.New("invalid input")

	// ErrRateLimit matches any error of KindRateLimit.
	ErrRateLimit = errors.New("rate limited")

	// ErrEmptyQuery indicates the query text is empty.
	ErrEmptyQuery = errors.New("query cannot be empty")

	// ErrInvalidMode indicates an unknown optimization mode.
	ErrInvalidMode = errors.New("invalid optimization mode")

	// ErrInvalidTransition indicates a pipeline stage moved backwards.
	ErrInvalidTransition = errors.New("invalid stage transition")
)

var kindSentinels = map[Kind]error{
	KindTimeout:    ErrTimeout,
	KindUpstream:   ErrUpstream,
	KindValidation: ErrValidation,
	KindRateLimit:  ErrRateLimit,
}

// Error is a classified failure. Op names the failing operation
// (e.g. "search", "embedding").
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Op == "" {
		return fmt.Sprintf("%s: %s", e.Kind, msg)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Kind, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels and other *Error values of the same kind.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Kind == t.Kind
	}
	if sentinel, ok := kindSentinels[e.Kind]; ok && sentinel == target {
		return true
	}
	return false
}

func newError(kind Kind, op string, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Op:      op,
		Message: fmt.Sprintf(format, args...),
		Err:     err,
	}
}

// Timeout creates a KindTimeout error.
func Timeout(op string, format string, args ...any) *Error {
	return newError(KindTimeout, op, nil, format, args...)
}

// Upstream creates a KindUpstream error wrapping cause.
func Upstream(op string, cause error, format string, args ...any) *Error {
	return newError(KindUpstream, op, cause, format, args...)
}

// Validation creates a KindValidation error wrapping cause.
func Validation(op string, cause error, format string, args ...any) *Error {
	return newError(KindValidation, op, cause, format, args...)
}

// RateLimited creates a KindRateLimit error wrapping cause.
func RateLimited(op string, cause error, format string, args ...any) *Error {
	return newError(KindRateLimit, op, cause, format, args...)
}

// Internal creates a KindInternal error wrapping cause.
func Internal(op string, cause error, format string, args ...any) *Error {
	return newError(KindInternal, op, cause, format, args...)
}

// KindOf classifies err. Unclassified errors are treated as upstream
// failures, except context errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCanceled
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindUpstream
}

// AsError converts err into an *Error, classifying it with KindOf when needed.
func AsError(op string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindOf(err), Op: op, Message: err.Error(), Err: err}
}

// IsRetryable reports whether a failed operation may succeed if repeated.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindCanceled, KindInternal:
		return false
	default:
		return err != nil
	}
}
