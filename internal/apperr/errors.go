// Package apperr classifies run-aborting errors so the process can exit with
// a status that tells the operator (and the surrounding cron job) what kind
// of failure occurred without parsing log output.
package apperr

import (
	"errors"
	"fmt"
)

// Class buckets a fatal error for exit-status mapping.
type Class int

const (
	// ClassInternal is an unexpected error; partial completion is possible.
	ClassInternal Class = iota
	// ClassUsage is a configuration or environment problem the operator must
	// fix before re-running (bad thresholds, missing key, corrupt ledger).
	ClassUsage
	// ClassTransport is a failed network exchange with the calendar API or
	// the notification service. The external scheduler is the retry.
	ClassTransport
)

// Exit statuses per class. 0 is success, 130 is reserved for interruption.
const (
	ExitInternal  = 1
	ExitUsage     = 2
	ExitTransport = 3
)

// Error is the structured error carried up to main. Msg is operator facing;
// Hint, when set, tells the operator how to fix a usage error.
type Error struct {
	class Class
	msg   string
	hint  string
	err   error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.err)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

// Class returns the error's class.
func (e *Error) Class() Class { return e.class }

// Hint returns the remediation hint, if any.
func (e *Error) Hint() string { return e.hint }

// Usage returns a usage-class error with a remediation hint.
func Usage(msg, hint string) error {
	return &Error{class: ClassUsage, msg: msg, hint: hint}
}

// Usagef returns a usage-class error with a formatted message and no hint.
func Usagef(format string, a ...any) error {
	return &Error{class: ClassUsage, msg: fmt.Sprintf(format, a...)}
}

// UsageWrap wraps a cause as a usage-class error.
func UsageWrap(err error, msg, hint string) error {
	return &Error{class: ClassUsage, msg: msg, hint: hint, err: err}
}

// Transportf returns a transport-class error with a formatted message.
func Transportf(format string, a ...any) error {
	return &Error{class: ClassTransport, msg: fmt.Sprintf(format, a...)}
}

// TransportWrap wraps a cause as a transport-class error.
func TransportWrap(err error, msg string) error {
	return &Error{class: ClassTransport, msg: msg, err: err}
}

// As unwraps err into an *Error if it is one of ours.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ClassOf extracts the class from any error, defaulting to ClassInternal.
func ClassOf(err error) Class {
	if e, ok := As(err); ok {
		return e.class
	}
	return ClassInternal
}

// ExitCode maps any error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch ClassOf(err) {
	case ClassUsage:
		return ExitUsage
	case ClassTransport:
		return ExitTransport
	default:
		return ExitInternal
	}
}
