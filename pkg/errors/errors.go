// Package errors provides the domain error type returned by every idbridge
// operation.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a domain error.
type Kind int

const (
	// KindUnknown is the zero Kind.
	KindUnknown Kind = iota

	// KindInvalidSource indicates a local source path does not exist, cannot
	// be read, or has an unsupported shape.
	KindInvalidSource

	// KindTransportFailed indicates a transport-level failure: connection
	// reset, protocol violation, status error, or a stream ended early.
	KindTransportFailed

	// KindArchiveCorrupt indicates an archive envelope could not be decoded.
	KindArchiveCorrupt

	// KindInvalidArgument indicates a request argument was rejected before
	// any request was built.
	KindInvalidArgument
)

func (k Kind) String() string {
	switch k {
	case KindInvalidSource:
		return "invalid source"
	case KindTransportFailed:
		return "transport failed"
	case KindArchiveCorrupt:
		return "archive corrupt"
	case KindInvalidArgument:
		return "invalid argument"
	default:
		return "unknown"
	}
}

// Error is the single terminal failure value. It carries its Kind, a
// message and, when there is one, the original cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is a domain error of the same Kind, so the
// sentinels below match any error of their kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Err == nil
}

var (
	// ErrInvalidSource matches errors of KindInvalidSource.
	ErrInvalidSource = &Error{Kind: KindInvalidSource}

	// ErrTransportFailed matches errors of KindTransportFailed.
	ErrTransportFailed = &Error{Kind: KindTransportFailed}

	// ErrArchiveCorrupt matches errors of KindArchiveCorrupt.
	ErrArchiveCorrupt = &Error{Kind: KindArchiveCorrupt}

	// ErrInvalidArgument matches errors of KindInvalidArgument.
	ErrInvalidArgument = &Error{Kind: KindInvalidArgument}
)

// New returns a domain error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf returns a domain error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns a domain error of the given kind wrapping err.
func Wrap(kind Kind, err error, message string) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the Kind of the first domain error in err's chain, or
// KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// As is errors.As, re-exported so callers importing this package under the
// name errors keep access to it.
func As(err error, target any) bool { return stderrors.As(err, target) }

// Is is errors.Is, re-exported for the same reason as As.
func Is(err, target error) bool { return stderrors.Is(err, target) }
