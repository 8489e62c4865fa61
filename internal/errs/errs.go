// Package errs defines the error taxonomy shared by every launcher task.
//
// Each background operation resolves to at most one Error, classified by
// Kind. Callers branch on the kind rather than on concrete error types:
//
//	if errs.KindOf(err) == errs.KindCancelled {
//	    // user cancelled, not a failure
//	}
//
// KindCancelled is a first-class terminal outcome. It must never be
// rendered as a user-facing failure.
package errs

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies a terminal task error.
type Kind int

const (
	// KindUnknown is the zero value; returned by KindOf for errors that
	// did not originate in this module.
	KindUnknown Kind = iota

	// KindCancelled marks cooperative cancellation. Not a failure.
	KindCancelled

	// KindNetwork covers transport failures and non-2xx responses.
	KindNetwork

	// KindParse covers malformed payloads from remote services.
	KindParse

	// KindIO covers local file read/write failures and hash mismatches.
	KindIO

	// KindAuth covers denied/expired device flows and invalid refresh tokens.
	KindAuth

	// KindPrecondition marks an operation invoked before its dependency
	// completed, e.g. reading the manifest before it resolved.
	KindPrecondition
)

// String returns a short stable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindCancelled:
		return "cancelled"
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindIO:
		return "io"
	case KindAuth:
		return "auth"
	case KindPrecondition:
		return "precondition"
	default:
		return "unknown"
	}
}

// Error wraps an underlying error with a Kind and the operation that
// produced it.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a classified error for op wrapping err.
//
// If err is context.Canceled (or wraps it), the kind is forced to
// KindCancelled so cancellation is never misreported as a failure.
func New(kind Kind, op string, err error) error {
	if errors.Is(err, context.Canceled) {
		kind = KindCancelled
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf builds a classified error from a format string.
func Newf(kind Kind, op, format string, args ...any) error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// Cancelled builds a KindCancelled error for op.
func Cancelled(op string) error {
	return &Error{Kind: KindCancelled, Op: op, Err: context.Canceled}
}

// KindOf extracts the Kind from err, unwrapping as needed.
//
// A bare context.Canceled reports KindCancelled. Anything else that does
// not carry an *Error reports KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return KindCancelled
	}
	return KindUnknown
}

// IsCancelled reports whether err represents cooperative cancellation.
func IsCancelled(err error) bool {
	return KindOf(err) == KindCancelled
}
