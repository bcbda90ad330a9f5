// Package vterrors implements the launcher's error taxonomy: every error
// that crosses a component boundary carries one of a fixed set of codes
// plus a human message and (in debug logging) a captured stack frame.
package vterrors

import (
	"errors"
	"fmt"

	"golang.org/x/xerrors"
)

// Code classifies an error for callers that need to branch on it (the CLI
// deciding an exit code, the supervisor deciding whether to retry).
type Code int

const (
	// IO covers underlying filesystem, socket, or stream failures.
	IO Code = iota
	// ContainerRuntime covers driver-reported, typically upstream-HTTP, failures.
	ContainerRuntime
	// ContainerNotFound means no owned container matched a selector.
	ContainerNotFound
	// ContainerExited means the exit monitor observed the container stop.
	ContainerExited
	// Permission covers permission-profile validation failures.
	Permission
	// Transport covers framer, proxy, or handshake failures.
	Transport
	// InvalidArgument covers CLI input problems.
	InvalidArgument
	// Configuration covers an unreadable or malformed profile/config file.
	Configuration
)

func (c Code) String() string {
	switch c {
	case IO:
		return "IO"
	case ContainerRuntime:
		return "ContainerRuntime"
	case ContainerNotFound:
		return "ContainerNotFound"
	case ContainerExited:
		return "ContainerExited"
	case Permission:
		return "Permission"
	case Transport:
		return "Transport"
	case InvalidArgument:
		return "InvalidArgument"
	case Configuration:
		return "Configuration"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type carried across component boundaries:
// a message, a classification code, and a frame captured at construction
// so a debug log can print a stack trace without that trace leaking into
// the user-facing stderr line.
type Error struct {
	Message string
	Code    Code
	frame   xerrors.Frame
	cause   error
}

// New builds a new Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Message: message, Code: code, frame: xerrors.Caller(1)}
}

// Newf is New with fmt.Sprintf-style formatting.
func Newf(code Code, format string, args ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, args...), Code: code, frame: xerrors.Caller(1)}
}

// Wrap attaches a code and message to an existing error, preserving it as
// the cause for Unwrap.
func Wrap(err error, code Code, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: message, Code: code, frame: xerrors.Caller(1), cause: err}
}

// Wrapf is Wrap with fmt.Sprintf-style formatting.
func Wrapf(err error, code Code, format string, args ...interface{}) *Error {
	if err == nil {
		return nil
	}
	return &Error{Message: fmt.Sprintf(format, args...), Code: code, frame: xerrors.Caller(1), cause: err}
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the wrapped cause, if any, to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Format implements xerrors.Formatter so that %+v prints a stack trace
// while %v and %s stay on one line.
func (e *Error) Format(f fmt.State, c rune) { xerrors.FormatError(e, f, c) }

// FormatError implements xerrors.Formatter.
func (e *Error) FormatError(p xerrors.Printer) error {
	p.Print(e.Error())
	e.frame.Format(p)
	return e.cause
}

// HasCode reports whether the first *Error in err's chain carries the
// given code; codes of *Error values further down the chain are not
// checked.
func HasCode(err error, code Code) bool {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or false if
// none is present.
func CodeOf(err error) (Code, bool) {
	var ve *Error
	if errors.As(err, &ve) {
		return ve.Code, true
	}
	return 0, false
}
