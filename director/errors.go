package director

import (
	"errors"
	"strings"
)

// ErrorKind classifies a failure reported by the protocol engine.
// The set of kinds is closed; callers switch on it to pick a recovery policy.
type ErrorKind uint8

const (
	// ConnectionError is a transport-level connect, write or read failure.
	ConnectionError ErrorKind = iota + 1
	// ProtocolViolationError means the reply did not start with the echo of the command.
	// The stream is desynchronized and the connection must be reopened.
	ProtocolViolationError
	// BadCommandError means the device explicitly rejected the command with the xx sentinel.
	BadCommandError
	// MalformedTokenError means an identifier token in a reply could not be decoded.
	MalformedTokenError
	// MalformedReportError means the status report did not have the expected layout.
	MalformedReportError
)

func (k ErrorKind) String() string {
	switch k {
	case ConnectionError:
		return "connection error"
	case ProtocolViolationError:
		return "protocol violation"
	case BadCommandError:
		return "bad command"
	case MalformedTokenError:
		return "malformed token"
	case MalformedReportError:
		return "malformed report"
	default:
		return "unknown error"
	}
}

// Error is the error type returned by the director and client packages for device and protocol failures.
type Error struct {
	// Kind is the taxonomy variant.
	Kind ErrorKind
	// Command is the command text in flight when the error occurred, if any.
	Command string
	// Detail describes what was observed.
	Detail string
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString("director: ")
	sb.WriteString(e.Kind.String())
	if e.Command != "" {
		sb.WriteString(" (command ")
		sb.WriteString(e.Command)
		sb.WriteString(")")
	}
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}

	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same kind, so that
// errors.Is(err, ErrBadCommand) matches every bad command error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks, one per ErrorKind.
var (
	ErrConnection        = &Error{Kind: ConnectionError}
	ErrProtocolViolation = &Error{Kind: ProtocolViolationError}
	ErrBadCommand        = &Error{Kind: BadCommandError}
	ErrMalformedToken    = &Error{Kind: MalformedTokenError}
	ErrMalformedReport   = &Error{Kind: MalformedReportError}
)

// ErrInvalidArgument indicates that a caller supplied an identifier or value outside the range the
// device accepts. It is raised before anything is sent and is not part of the device error taxonomy.
var ErrInvalidArgument = errors.New("director: invalid argument")

// KindOf returns the ErrorKind carried by err, if err wraps an *Error.
func KindOf(err error) (ErrorKind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}

	return 0, false
}

func newError(kind ErrorKind, command string, detail string, cause error) *Error {
	return &Error{Kind: kind, Command: command, Detail: detail, Err: cause}
}

// NewConnectionError wraps a transport failure into a ConnectionError.
func NewConnectionError(command string, detail string, cause error) *Error {
	return newError(ConnectionError, command, detail, cause)
}

// NewProtocolViolationError reports a desynchronized stream.
func NewProtocolViolationError(command string, detail string) *Error {
	return newError(ProtocolViolationError, command, detail, nil)
}
