// Package faults classifies failures of the resume tools into a small set of
// kinds so callers can react to them without inspecting messages.
package faults

import (
	"errors"
	"fmt"
)

// Kind is the class of a failure. A Kind is itself an error, so
// errors.Is(err, faults.Protocol) reports whether err carries that kind.
type Kind int

const (
	Unknown Kind = iota
	// Input is an empty or invalid required value, rejected before any request.
	Input
	// IO is a local file that could not be read.
	IO
	// Network is a transport-level failure: no connection, timeout, cancellation.
	Network
	// Protocol is a non-success status or a response body of the wrong shape.
	Protocol
	// Validation is a parsed value outside its allowed range.
	Validation
)

func (k Kind) String() string {
	switch k {
	case Input:
		return "input"
	case IO:
		return "io"
	case Network:
		return "network"
	case Protocol:
		return "protocol"
	case Validation:
		return "validation"
	default:
		return "unknown"
	}
}

func (k Kind) Error() string {
	return k.String() + " error"
}

// Error is a classified failure of a single operation.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.Op != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Op)
	}
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Message)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches a bare Kind target against the error's kind.
func (e *Error) Is(target error) bool {
	k, ok := target.(Kind)
	return ok && k == e.Kind
}

// New returns a classified error without an underlying cause.
func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// Wrap returns a classified error around cause.
func Wrap(kind Kind, op, message string, cause error) *Error {
	return &Error{Kind: kind, Op: op, Message: message, Cause: cause}
}

// Newf is New with a formatted message.
func Newf(kind Kind, op, format string, args ...any) *Error {
	return New(kind, op, fmt.Sprintf(format, args...))
}

// KindOf returns the kind of the first classified error in err's chain,
// or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	var k Kind
	if errors.As(err, &k) {
		return k
	}
	return Unknown
}
