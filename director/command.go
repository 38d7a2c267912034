package director

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// CommandTerminator ends every command written to the device.
	CommandTerminator = "\r"

	// StatusQuery is the command text of the full status report.
	StatusQuery = "SYSTEMstat?"

	// MutationReplyLines is the expected reply line count of route, power and volume commands.
	MutationReplyLines = 1
	// StatusReplyLines is the expected reply line count of the status query.
	StatusReplyLines = 21

	// MinVolume and MaxVolume bound the setvol argument.
	MinVolume = 0
	MaxVolume = 100
)

// Command is a framed request together with the shape of the reply it produces.
type Command struct {
	// Text is the command as sent, without the trailing carriage return.
	Text string
	// ReplyLines is the number of newline-terminated lines after which the reply is complete.
	ReplyLines int
	// ExpectStatusCode is true for commands answered with a 01/xx sentinel.
	ExpectStatusCode bool
}

// RouteCommand builds "<out>source<in>", routing input in to output out.
func RouteCommand(out OutputID, in InputID) (Command, error) {
	if !out.Valid() {
		return Command{}, fmt.Errorf("%w: output %q", ErrInvalidArgument, out.String())
	}
	if !in.Valid() {
		return Command{}, fmt.Errorf("%w: input %q", ErrInvalidArgument, in.String())
	}

	return mutation(out.String() + "source" + in.String()), nil
}

// PowerCommand builds "<out>on" or "<out>off".
func PowerCommand(out OutputID, on bool) (Command, error) {
	if !out.Valid() {
		return Command{}, fmt.Errorf("%w: output %q", ErrInvalidArgument, out.String())
	}

	state := "off"
	if on {
		state = "on"
	}

	return mutation(out.String() + state), nil
}

// VolumeCommand builds "<out>setvol<volume>" for a volume in 0..100.
func VolumeCommand(out OutputID, volume int) (Command, error) {
	if !out.Valid() {
		return Command{}, fmt.Errorf("%w: output %q", ErrInvalidArgument, out.String())
	}
	if volume < MinVolume || volume > MaxVolume {
		return Command{}, fmt.Errorf("%w: volume %d out of range [%d, %d]", ErrInvalidArgument, volume, MinVolume, MaxVolume)
	}

	return mutation(out.String() + "setvol" + strconv.Itoa(volume)), nil
}

// StatusCommand builds the full status query. Its reply carries no sentinel.
func StatusCommand() Command {
	return Command{Text: StatusQuery, ReplyLines: StatusReplyLines}
}

func mutation(text string) Command {
	return Command{Text: text, ReplyLines: MutationReplyLines, ExpectStatusCode: true}
}

// Frame returns the bytes written to the device for cmd.
func (cmd Command) Frame() []byte {
	return []byte(cmd.Text + CommandTerminator)
}

// SuccessSentinel returns the reply line confirming command, "01<command>\r".
func SuccessSentinel(command string) string {
	return "01" + command + "\r"
}

// FailureSentinel returns the reply line rejecting command, "xx<command>xx\r".
func FailureSentinel(command string) string {
	return "xx" + command + "xx\r"
}

// ReplyComplete reports whether accumulated holds a complete reply to cmd.
//
// A reply is complete once it contains cmd.ReplyLines newline-terminated lines. Sentinel replies are
// terminated by a bare carriage return, so for commands expecting a status code the reply is also
// complete when the echo line is followed by a full sentinel, or when the first line is not the echo
// at all and reading further cannot resynchronize the stream.
func ReplyComplete(cmd Command, accumulated string) bool {
	if strings.Count(accumulated, "\n") >= cmd.ReplyLines {
		return true
	}
	if !cmd.ExpectStatusCode {
		return false
	}

	echo, rest, found := strings.Cut(accumulated, "\r")
	if !found {
		return false
	}
	if echo != cmd.Text {
		return true
	}

	return rest == SuccessSentinel(cmd.Text) || rest == FailureSentinel(cmd.Text)
}
