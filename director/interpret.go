package director

import (
	"fmt"
	"strings"
)

// Interpret splits a raw reply into the command echo and the payload and classifies the outcome.
//
// The first carriage-return terminated line must be the exact echo of command, anything else is a
// ProtocolViolationError. A payload equal to the failure sentinel "xx<command>xx\r" is a
// BadCommandError. succeeded is true when the payload is the success sentinel "01<command>\r".
//
// When expectStatusCode is false the payload is free-form data (the status report) and succeeded is
// always true.
func Interpret(command string, rawReply string, expectStatusCode bool) (succeeded bool, payload string, err error) {
	echo, remainder, found := strings.Cut(rawReply, "\r")
	if echo != command {
		return false, "", &Error{
			Kind:    ProtocolViolationError,
			Command: command,
			Detail:  fmt.Sprintf("first line %q is not the echo of the command", echo),
		}
	}
	if !found {
		return false, "", &Error{
			Kind:    ProtocolViolationError,
			Command: command,
			Detail:  "reply truncated after the command echo",
		}
	}

	if remainder == FailureSentinel(command) {
		return false, "", &Error{
			Kind:    BadCommandError,
			Command: command,
			Detail:  "device replied " + strings.TrimSuffix(remainder, "\r"),
		}
	}

	if !expectStatusCode {
		return true, remainder, nil
	}

	return remainder == SuccessSentinel(command), remainder, nil
}
